package structqs

import (
	"strconv"
	"strings"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/pct"
)

// Pair is one key/value of the output. Path holds the raw key segments
// and Value the raw text; both are percent-encoded only when rendered.
type Pair struct {
	Value string
	Path  []string
}

// Key returns the dot-joined raw key.
func (p Pair) Key() string {
	return strings.Join(p.Path, ".")
}

type output struct {
	pairs []Pair
}

// Encoder receives shape writes for one key path and appends the
// resulting pairs to an output shared with its parent. An Encoder is not
// safe for concurrent use.
type Encoder struct {
	out   *output
	codec *Codec
	path  []string
}

func newEncoder(c *Codec) *Encoder {
	return &Encoder{out: &output{}, codec: c}
}

// Path returns the key path the encoder writes to.
func (e *Encoder) Path() []string {
	return e.path
}

func (e *Encoder) child(name string) *Encoder {
	return &Encoder{out: e.out, codec: e.codec, path: appendPath(e.path, name)}
}

// Scalar writes text at the encoder's key path.
func (e *Encoder) Scalar(text string) error {
	if len(e.path) == 0 {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Shapes("record", "scalar").
			Detail("top level value must be a record").
			Build()
	}
	e.out.pairs = append(e.out.pairs, Pair{Path: e.path, Value: text})
	return nil
}

// Option writes nothing when absent and runs inner on the same encoder
// when present.
func (e *Encoder) Option(present bool, inner func(*Encoder) error) error {
	if !present {
		return nil
	}
	return inner(e)
}

// Sequence joins elems with ',' and writes them as one scalar. Elements
// that are empty or contain ',' cannot be read back and are rejected.
func (e *Encoder) Sequence(elems []string) error {
	n := len(elems)
	for i, el := range elems {
		if el == "" || strings.IndexByte(el, ',') >= 0 {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(appendPath(e.path, "["+strconv.Itoa(i)+"]")...).
				Value(el).
				Detail("sequence element must be non-empty and must not contain ','").
				Build()
		}
		n += len(el)
	}
	if len(elems) == 1 {
		return e.Scalar(elems[0])
	}
	var b strings.Builder
	b.Grow(n)
	for i, el := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(el)
	}
	return e.Scalar(b.String())
}

// Record starts a record at the encoder's key path.
func (e *Encoder) Record() (*RecordEncoder, error) {
	return &RecordEncoder{enc: e}, nil
}

// Enum writes a variant. A nil payload writes the unit variant name as the
// scalar; otherwise payload writes under path.variant.
//
// At the top level only payload variants can be written: they form a
// one-field record (by=date), while a unit variant would be a bare scalar.
func (e *Encoder) Enum(variant string, payload func(*Encoder) error) error {
	if variant == "" {
		return errors.InvalidVariant(errors.PhaseEncode, e.path, "empty variant name")
	}
	if payload == nil {
		if len(e.path) == 0 {
			return errors.New(errors.PhaseEncode, errors.KindUnsupported).
				Shapes("record", "scalar").
				Detail("unit variant %q cannot be the top level value", variant).
				Build()
		}
		return e.Scalar(variant)
	}
	return payload(e.child(variant))
}

// Encode binds v through the reflection binder at the encoder's key path.
func (e *Encoder) Encode(v any) error {
	return e.codec.encodeFrom(e, v)
}

// Pairs returns the written pairs in write order.
func (e *Encoder) Pairs() []Pair {
	return e.out.pairs
}

// Reset discards everything written through e and its children.
func (e *Encoder) Reset() {
	e.out.pairs = e.out.pairs[:0]
}

// AppendTo appends the rendered query string to dst.
func (e *Encoder) AppendTo(dst []byte) []byte {
	for i, p := range e.out.pairs {
		if i > 0 {
			dst = append(dst, '&')
		}
		for j, seg := range p.Path {
			if j > 0 {
				dst = append(dst, '.')
			}
			dst = pct.AppendEncoded(dst, seg, true)
		}
		dst = append(dst, '=')
		dst = pct.AppendEncoded(dst, p.Value, false)
	}
	return dst
}

// String renders the query string: k=v pairs joined by '&'.
func (e *Encoder) String() string {
	buf := getBuf()
	*buf = e.AppendTo(*buf)
	s := string(*buf)
	putBuf(buf)
	return s
}

// Bytes renders the query string into a new slice.
func (e *Encoder) Bytes() []byte {
	return e.AppendTo(nil)
}

// RecordEncoder hands out encoders for the fields of one record.
type RecordEncoder struct {
	enc  *Encoder
	seen map[string]struct{}
}

// Field returns the encoder for the named field. Each name may be used once.
func (r *RecordEncoder) Field(name string) (*Encoder, error) {
	if name == "" {
		return nil, errors.InvalidData(errors.PhaseEncode, r.enc.path, "empty field name")
	}
	if _, dup := r.seen[name]; dup {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(appendPath(r.enc.path, name)...).
			Detail("field %q written twice", name).
			Build()
	}
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	r.seen[name] = struct{}{}
	return r.enc.child(name), nil
}
