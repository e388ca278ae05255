// Package pct implements the form-urlencoding percent codec used on the
// query string wire.
//
// Every byte outside [A-Za-z0-9*._-] is written as %XX with uppercase hex,
// except space which is written as '+'. Decoding replaces '+' with space
// before resolving %XX escapes, so the two directions are exact inverses.
//
// This package is internal to structqs.
package pct

import (
	"strings"
)

const upperhex = "0123456789ABCDEF"

// Error reports a malformed escape at Offset bytes into the decoded input.
type Error struct {
	Detail string
	Offset int
}

func (e *Error) Error() string {
	return e.Detail
}

func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	case c == '*' || c == '-' || c == '.' || c == '_':
		return false
	}
	return true
}

// EncodeSegment percent-encodes one key segment. It also escapes '.',
// which would otherwise split the segment when the key is parsed back.
func EncodeSegment(s string) string {
	if !needsEncode(s, true) {
		return s
	}
	return string(AppendEncoded(make([]byte, 0, len(s)+2*countEscapes(s, true)), s, true))
}

// AppendEncoded appends the encoding of s to dst.
func AppendEncoded(dst []byte, s string, segment bool) []byte {
	if !needsEncode(s, segment) {
		return append(dst, s...)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			dst = append(dst, '+')
		case shouldEscape(c) || (segment && c == '.'):
			dst = append(dst, '%', upperhex[c>>4], upperhex[c&15])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

func needsEncode(s string, segment bool) bool {
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) || (segment && s[i] == '.') {
			return true
		}
	}
	return false
}

func countEscapes(s string, segment bool) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != ' ' && (shouldEscape(c) || (segment && c == '.')) {
			n++
		}
	}
	return n
}

// NeedsDecode reports whether s contains '%' or '+'.
func NeedsDecode(s string) bool {
	return strings.ContainsAny(s, "%+")
}

// Decode reverses AppendEncoded. A '%' must be followed by two hex digits.
// The result is not checked for valid UTF-8.
func Decode(s string) (string, error) {
	if !NeedsDecode(s) {
		return s, nil
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '+':
			buf = append(buf, ' ')
		case '%':
			if i+2 >= len(s) {
				return "", &Error{Offset: i, Detail: "truncated percent escape"}
			}
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if !ok1 || !ok2 {
				return "", &Error{Offset: i, Detail: "invalid percent escape " + quoteEscape(s[i:i+3])}
			}
			buf = append(buf, hi<<4|lo)
			i += 2
		default:
			buf = append(buf, c)
		}
	}
	return string(buf), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func quoteEscape(s string) string {
	return `"` + s + `"`
}
