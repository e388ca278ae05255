package structqs

import (
	"strconv"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/tree"
)

// Decoder answers shape requests from one position of a parsed query.
//
// Every accessor consumes the position it reads, so each key can be read
// once. A present Option is the exception: it leaves the value in place
// for the accessor that follows. A Decoder is not safe for concurrent use.
type Decoder struct {
	node  *tree.Node
	codec *Codec
	path  []string
	used  bool
}

func newDecoder(c *Codec, n *tree.Node, path []string) *Decoder {
	return &Decoder{node: n, codec: c, path: path}
}

// Path returns the key path of the position.
func (d *Decoder) Path() []string {
	return d.path
}

// Shape reports the shape held at the position without consuming it:
// "unset", "record", "scalar", "ambiguous", or "consumed".
func (d *Decoder) Shape() string {
	if d.used {
		return "consumed"
	}
	return d.node.Kind().String()
}

func (d *Decoder) take() (*tree.Node, error) {
	if d.used {
		return nil, errors.AlreadyConsumed(d.path)
	}
	d.used = true
	n := d.node
	d.node = nil
	return n, nil
}

func (d *Decoder) mismatch(expected string, n *tree.Node) error {
	switch n.Kind() {
	case tree.KindUnset:
		return errors.FieldMissing(errors.PhaseDecode, d.path)
	case tree.KindAmbiguous:
		return errors.Ambiguous(d.path, n.Reason())
	default:
		return errors.ShapeMismatch(errors.PhaseDecode, d.path, expected, n.Kind().String())
	}
}

// Scalar returns the decoded text at the position.
func (d *Decoder) Scalar() (string, error) {
	t, err := d.text()
	return t.String(), err
}

func (d *Decoder) text() (tree.Text, error) {
	n, err := d.take()
	if err != nil {
		return tree.Text{}, err
	}
	if n.Kind() != tree.KindScalar {
		return tree.Text{}, d.mismatch("scalar", n)
	}
	return n.Text(), nil
}

// Option reports whether a value is present. A key that never appeared
// and a key with an empty value are both absent; an absent position is
// consumed. A present position stays readable by the next accessor.
func (d *Decoder) Option() (bool, error) {
	if d.used {
		return false, errors.AlreadyConsumed(d.path)
	}
	switch d.node.Kind() {
	case tree.KindUnset:
		d.used = true
		return false, nil
	case tree.KindScalar:
		if d.node.Text().Len() == 0 {
			d.used = true
			return false, nil
		}
		return true, nil
	case tree.KindRecord:
		return true, nil
	default:
		n, _ := d.take()
		return false, errors.Ambiguous(d.path, n.Reason())
	}
}

// Sequence splits the scalar at the position on ',' and returns its
// non-empty segments as element decoders.
func (d *Decoder) Sequence() (*SeqDecoder, error) {
	t, err := d.text()
	if err != nil {
		if errors.IsKind(err, errors.KindShapeMismatch) {
			return nil, errors.ShapeMismatch(errors.PhaseDecode, d.path, "sequence", "record")
		}
		return nil, err
	}
	return &SeqDecoder{text: t, codec: d.codec, path: d.path}, nil
}

// Record returns the children of the record at the position.
func (d *Decoder) Record() (*RecordDecoder, error) {
	n, err := d.take()
	if err != nil {
		return nil, err
	}
	if n.Kind() != tree.KindRecord {
		return nil, d.mismatch("record", n)
	}
	return &RecordDecoder{rec: n.Record(), codec: d.codec, path: d.path}, nil
}

// Enum selects a variant. A scalar names a unit variant and the payload is
// nil. A record with exactly one key names the variant by that key and the
// payload is the decoder for its value. A nil variants slice accepts any
// name.
func (d *Decoder) Enum(variants []string) (string, *Decoder, error) {
	n, err := d.take()
	if err != nil {
		return "", nil, err
	}

	switch n.Kind() {
	case tree.KindScalar:
		name := n.Text().String()
		if err := d.checkVariant(name, variants); err != nil {
			return "", nil, err
		}
		return name, nil, nil
	case tree.KindRecord:
		rec := n.Record()
		if rec.Len() != 1 {
			return "", nil, errors.New(errors.PhaseDecode, errors.KindInvalidVariant).
				Path(d.path...).
				Shapes("single variant key", strconv.Itoa(rec.Len())+" keys").
				Detail("variant record must hold exactly one key").
				Build()
		}
		name := rec.Keys()[0]
		if err := d.checkVariant(name, variants); err != nil {
			return "", nil, err
		}
		child, _ := rec.Take(name)
		return name, newDecoder(d.codec, child, appendPath(d.path, name)), nil
	default:
		return "", nil, d.mismatch("enum", n)
	}
}

func (d *Decoder) checkVariant(name string, variants []string) error {
	if variants == nil {
		return nil
	}
	for _, v := range variants {
		if v == name {
			return nil
		}
	}
	return errors.InvalidEnum(errors.PhaseDecode, d.path, name, variants)
}

// Any decodes the position without a target type: records become
// map[string]any, scalars string, and an unset position nil.
func (d *Decoder) Any() (any, error) {
	n, err := d.take()
	if err != nil {
		return nil, err
	}
	return anyValue(n, d.path)
}

func anyValue(n *tree.Node, path []string) (any, error) {
	switch n.Kind() {
	case tree.KindUnset:
		return nil, nil
	case tree.KindScalar:
		return n.Text().String(), nil
	case tree.KindRecord:
		rec := n.Record()
		keys := rec.Keys()
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			child, _ := rec.Take(k)
			v, err := anyValue(child, appendPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, errors.Ambiguous(path, n.Reason())
	}
}

// Decode binds the position into v, which must be a non-nil pointer.
func (d *Decoder) Decode(v any) error {
	return d.codec.decodeInto(d, v)
}

// SeqDecoder yields the elements of a comma-separated scalar lazily.
type SeqDecoder struct {
	codec *Codec
	path  []string
	text  tree.Text
	pos   int
	index int
}

// Next returns the decoder for the next element, or false when the
// sequence is exhausted. Empty segments are skipped.
func (s *SeqDecoder) Next() (*Decoder, bool) {
	str := s.text.String()
	for s.pos < len(str) && str[s.pos] == ',' {
		s.pos++
	}
	if s.pos >= len(str) {
		return nil, false
	}
	start := s.pos
	for s.pos < len(str) && str[s.pos] != ',' {
		s.pos++
	}
	elem := tree.NewScalar(s.text.Slice(start, s.pos))
	d := newDecoder(s.codec, elem, appendPath(s.path, "["+strconv.Itoa(s.index)+"]"))
	s.index++
	return d, true
}

// Len returns the number of elements not yet returned by Next.
func (s *SeqDecoder) Len() int {
	str := s.text.String()
	n := 0
	inElem := false
	for i := s.pos; i < len(str); i++ {
		if str[i] == ',' {
			inElem = false
			continue
		}
		if !inElem {
			n++
			inElem = true
		}
	}
	return n
}

// RecordDecoder looks up the children of a record by name.
type RecordDecoder struct {
	rec   *tree.Record
	codec *Codec
	taken map[string]struct{}
	path  []string
}

// Field moves the named child out of the record. A name that never
// appeared yields a decoder over an unset position, so Option reports it
// absent and the other accessors report a missing field.
func (r *RecordDecoder) Field(name string) (*Decoder, error) {
	path := appendPath(r.path, name)
	if _, dup := r.taken[name]; dup {
		return nil, errors.AlreadyConsumed(path)
	}
	if r.taken == nil {
		r.taken = make(map[string]struct{})
	}
	r.taken[name] = struct{}{}

	n, ok := r.rec.Take(name)
	if !ok {
		n = tree.NewUnset()
	}
	return newDecoder(r.codec, n, path), nil
}

// Keys returns the names not yet requested through Field, in the order
// they appeared in the input.
func (r *RecordDecoder) Keys() []string {
	return r.rec.Keys()
}

// Len returns the number of children not yet requested.
func (r *RecordDecoder) Len() int {
	return r.rec.Len()
}

func (r *RecordDecoder) Path() []string {
	return r.path
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
