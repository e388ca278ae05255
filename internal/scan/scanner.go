// Package scan provides the byte cursor the query parser runs on.
//
// The scanner never backtracks. It offers one byte of lookahead, a mark,
// and TakeDecoded, which turns the bytes between the mark and a stop
// position into text. Segments without '%' or '+' are returned as
// substrings of the input; anything else is decoded into a new string.
//
// This package is internal to structqs.
package scan

import (
	stderrors "errors"
	"unicode/utf8"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/pct"
)

type Scanner struct {
	src  string
	pos  int
	mark int
}

func New(src string) *Scanner {
	return &Scanner{src: src}
}

// Peek returns the next byte without consuming it.
func (s *Scanner) Peek() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

// Advance consumes and returns the next byte.
func (s *Scanner) Advance() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	c := s.src[s.pos]
	s.pos++
	return c, true
}

// Mark remembers the current position as the start of the next segment.
func (s *Scanner) Mark() {
	s.mark = s.pos
}

// Pos returns the current byte offset.
func (s *Scanner) Pos() int {
	return s.pos
}

// Marked returns the position recorded by the last Mark.
func (s *Scanner) Marked() int {
	return s.mark
}

// SkipUntil advances to the first occurrence of any byte in stops, or to
// the end of input, and returns the new position.
func (s *Scanner) SkipUntil(stops string) int {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		for i := 0; i < len(stops); i++ {
			if c == stops[i] {
				return s.pos
			}
		}
		s.pos++
	}
	return s.pos
}

// TakeDecoded decodes src[mark:stop]. owned reports whether the result
// was newly allocated rather than borrowed from the input.
func (s *Scanner) TakeDecoded(stop int) (text string, owned bool, err error) {
	if stop < s.mark || stop > len(s.src) {
		return "", false, errors.InvalidInput(errors.PhaseParse, "segment end out of range")
	}
	raw := s.src[s.mark:stop]

	if !pct.NeedsDecode(raw) {
		if off := invalidUTF8At(raw); off >= 0 {
			return "", false, errors.InvalidUTF8(errors.PhaseParse, s.mark+off, []byte(raw[off:]))
		}
		return raw, false, nil
	}

	decoded, err := pct.Decode(raw)
	if err != nil {
		var pe *pct.Error
		if stderrors.As(err, &pe) {
			return "", false, errors.InvalidEncoding(s.mark+pe.Offset, pe.Detail)
		}
		return "", false, errors.InvalidEncoding(s.mark, err.Error())
	}
	if !utf8.ValidString(decoded) {
		return "", false, errors.InvalidUTF8(errors.PhaseParse, s.mark, []byte(decoded))
	}
	return decoded, true, nil
}

// invalidUTF8At returns the offset of the first byte that does not start
// a valid UTF-8 sequence, or -1.
func invalidUTF8At(s string) int {
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
