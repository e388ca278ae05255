package structqs

import (
	"reflect"
	"testing"

	"github.com/wippyai/structqs/errors"
)

func TestEncoder_Capabilities(t *testing.T) {
	e := NewEncoder()
	rec, err := e.Record()
	if err != nil {
		t.Fatal(err)
	}

	a, _ := rec.Field("a")
	if err := a.Scalar("1"); err != nil {
		t.Fatal(err)
	}
	b, _ := rec.Field("b")
	if err := b.Option(false, func(*Encoder) error { t.Error("inner ran for absent option"); return nil }); err != nil {
		t.Fatal(err)
	}
	c, _ := rec.Field("c")
	inner, _ := c.Record()
	d, _ := inner.Field("d")
	if err := d.Option(true, func(e *Encoder) error { return e.Scalar("2") }); err != nil {
		t.Fatal(err)
	}
	tags, _ := rec.Field("tags")
	if err := tags.Sequence([]string{"x", "y z"}); err != nil {
		t.Fatal(err)
	}

	if got, want := e.String(), "a=1&c.d=2&tags=x%2Cy+z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := string(e.Bytes()); got != e.String() {
		t.Errorf("Bytes() = %q", got)
	}

	pairs := e.Pairs()
	if len(pairs) != 3 || pairs[1].Key() != "c.d" || pairs[1].Value != "2" {
		t.Errorf("Pairs() = %+v", pairs)
	}
}

func TestEncoder_Escaping(t *testing.T) {
	tests := []struct {
		name  string
		path  []string
		value string
		want  string
	}{
		{"comma in value", []string{"a"}, "foo,bar", "a=foo%2Cbar"},
		{"space", []string{"q"}, "hello world", "q=hello+world"},
		{"dot in key segment", []string{"a.b"}, "1", "a%2Eb=1"},
		{"dot in value", []string{"v"}, "1.5", "v=1.5"},
		{"reserved", []string{"k"}, "a&b=c", "k=a%26b%3Dc"},
		{"unicode", []string{"k"}, "é", "k=%C3%A9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			rec, _ := e.Record()
			var cur *Encoder
			for i, seg := range tt.path {
				if i == 0 {
					cur, _ = rec.Field(seg)
					continue
				}
				r, _ := cur.Record()
				cur, _ = r.Field(seg)
			}
			if err := cur.Scalar(tt.value); err != nil {
				t.Fatal(err)
			}
			if got := e.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncoder_RootScalar(t *testing.T) {
	err := NewEncoder().Scalar("x")
	if !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("got %v, want unsupported", err)
	}
}

func TestEncoder_FieldErrors(t *testing.T) {
	rec, _ := NewEncoder().Record()
	if _, err := rec.Field(""); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("empty name: got %v", err)
	}
	if _, err := rec.Field("x"); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Field("x"); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("duplicate name: got %v", err)
	}
}

func TestEncoder_Sequence(t *testing.T) {
	tests := []struct {
		name  string
		elems []string
		want  string
		err   bool
	}{
		{"empty", nil, "s=", false},
		{"one", []string{"a"}, "s=a", false},
		{"many", []string{"a", "b", "c"}, "s=a%2Cb%2Cc", false},
		{"empty element", []string{"a", ""}, "", true},
		{"comma element", []string{"a,b"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			rec, _ := e.Record()
			s, _ := rec.Field("s")
			err := s.Sequence(tt.elems)
			if tt.err {
				if !errors.IsKind(err, errors.KindInvalidData) {
					t.Errorf("got %v, want invalid_data", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := e.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncoder_Enum(t *testing.T) {
	e := NewEncoder()
	rec, _ := e.Record()

	unit, _ := rec.Field("order")
	if err := unit.Enum("desc", nil); err != nil {
		t.Fatal(err)
	}
	payload, _ := rec.Field("sort")
	if err := payload.Enum("by", func(e *Encoder) error { return e.Scalar("date") }); err != nil {
		t.Fatal(err)
	}
	if got, want := e.String(), "order=desc&sort.by=date"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	bad, _ := rec.Field("bad")
	if err := bad.Enum("", nil); !errors.IsKind(err, errors.KindInvalidVariant) {
		t.Errorf("got %v, want invalid_variant", err)
	}
}

func TestEncoder_EnumAtRoot(t *testing.T) {
	if err := NewEncoder().Enum("asc", nil); !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("unit variant: got %v, want unsupported", err)
	}

	e := NewEncoder()
	if err := e.Enum("by", func(e *Encoder) error { return e.Scalar("date") }); err != nil {
		t.Fatal(err)
	}
	if got := e.String(); got != "by=date" {
		t.Errorf("payload variant: got %q", got)
	}

	d, err := ParseString(e.String())
	if err != nil {
		t.Fatal(err)
	}
	name, payload, err := d.Enum([]string{"asc", "by"})
	if err != nil || name != "by" {
		t.Fatalf("Enum = %q, %v", name, err)
	}
	if s, err := payload.Scalar(); err != nil || s != "date" {
		t.Errorf("payload = %q, %v", s, err)
	}
}

func TestEncoder_Reset(t *testing.T) {
	e := NewEncoder()
	rec, _ := e.Record()
	f, _ := rec.Field("a")
	_ = f.Scalar("1")
	e.Reset()
	if e.String() != "" || len(e.Pairs()) != 0 {
		t.Errorf("after Reset: %q", e.String())
	}
}

func TestEncoder_AppendTo(t *testing.T) {
	e := NewEncoder()
	rec, _ := e.Record()
	f, _ := rec.Field("a")
	_ = f.Scalar("1")
	got := e.AppendTo([]byte("/path?"))
	if string(got) != "/path?a=1" {
		t.Errorf("AppendTo = %q", got)
	}
}

func TestEncoder_EncodeNested(t *testing.T) {
	type inner struct {
		D int `qs:"d"`
		E int `qs:"e"`
	}
	e := NewEncoder()
	rec, _ := e.Record()
	c, _ := rec.Field("c")
	if err := c.Encode(inner{D: 2, E: 3}); err != nil {
		t.Fatal(err)
	}
	if got := e.String(); got != "c.d=2&c.e=3" {
		t.Errorf("got %q", got)
	}
	if !reflect.DeepEqual(c.Path(), []string{"c"}) {
		t.Errorf("Path = %v", c.Path())
	}
}
