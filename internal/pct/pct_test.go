package pct

import (
	"errors"
	"strings"
	"testing"
)

func encodeValue(s string) string {
	return string(AppendEncoded(nil, s, false))
}

func TestAppendEncoded_Values(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"foo", "foo"},
		{"a b", "a+b"},
		{"foo,bar", "foo%2Cbar"},
		{"3.14", "3.14"},
		{"*-._", "*-._"},
		{"a&b=c", "a%26b%3Dc"},
		{"100%", "100%25"},
		{"a+b", "a%2Bb"},
		{"ほげ", "%E3%81%BB%E3%81%92"},
		{"~", "%7E"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := encodeValue(tt.in); got != tt.want {
				t.Errorf("encode %q = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeSegment(t *testing.T) {
	if got := EncodeSegment("a.b c"); got != "a%2Eb+c" {
		t.Errorf("EncodeSegment = %q", got)
	}
	if got := EncodeSegment("plain_key"); got != "plain_key" {
		t.Errorf("EncodeSegment = %q", got)
	}
}

func TestAppendEncoded(t *testing.T) {
	buf := AppendEncoded(nil, "k.e", true)
	buf = append(buf, '=')
	buf = AppendEncoded(buf, "v.a l", false)
	if got := string(buf); got != "k%2Ee=v.a+l" {
		t.Errorf("got %q", got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"foo", "foo"},
		{"a+b", "a b"},
		{"foo%2Cbar", "foo,bar"},
		{"foo%2cbar", "foo,bar"},
		{"%E3%81%BB%E3%81%92", "ほげ"},
		{"%2B", "+"},
		{"a%20b+c", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		in     string
		offset int
	}{
		{"%", 0},
		{"ab%4", 2},
		{"%zz", 0},
		{"abc%g1", 3},
		{"ok%41%4", 5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Decode(tt.in)
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("Decode(%q) error = %v, want *Error", tt.in, err)
			}
			if pe.Offset != tt.offset {
				t.Errorf("offset = %d, want %d", pe.Offset, tt.offset)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	var ascii strings.Builder
	for c := byte(0x20); c < 0x7f; c++ {
		ascii.WriteByte(c)
	}
	inputs := []string{
		ascii.String(),
		"ほげ,ふが",
		"emoji 🎉 and ümlaut",
		"trailing space ",
		"+%+%",
	}
	for _, s := range inputs {
		got, err := Decode(encodeValue(s))
		if err != nil {
			t.Fatalf("decode of encoded %q: %v", s, err)
		}
		if got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
		seg, err := Decode(EncodeSegment(s))
		if err != nil || seg != s {
			t.Errorf("segment round trip %q -> %q (%v)", s, seg, err)
		}
	}
}

func TestNeedsDecode(t *testing.T) {
	if NeedsDecode("plain") {
		t.Error("plain text should not need decoding")
	}
	if !NeedsDecode("a+b") || !NeedsDecode("a%20b") {
		t.Error("escaped text should need decoding")
	}
}

func BenchmarkAppendEncoded(b *testing.B) {
	s := "keyword with spaces, commas and ほげ"
	buf := make([]byte, 0, 128)
	for i := 0; i < b.N; i++ {
		buf = AppendEncoded(buf[:0], s, false)
	}
}

func BenchmarkDecode(b *testing.B) {
	s := encodeValue("keyword with spaces, commas and ほげ")
	for i := 0; i < b.N; i++ {
		_, _ = Decode(s)
	}
}
