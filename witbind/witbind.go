// Package witbind binds query strings to values described by WIT types
// instead of Go types.
//
// Values use the same dynamic representation as the component model
// transcoders: records are map[string]any, lists []any, options nil or the
// inner value, enums the case name, variants and results a single-entry
// map[string]any from case name to payload (nil for cases without one),
// and flags a []any of the set flag names.
//
//	rec := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
//	    {Name: "limit", Type: &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}},
//	    {Name: "tags", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}},
//	}}}
//	v, err := witbind.Decode([]byte("limit=20&tags=a,b"), rec)
package witbind

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/structqs"
	"github.com/wippyai/structqs/errors"
)

// Binder drives a structqs.Codec from WIT type definitions.
type Binder struct {
	codec *structqs.Codec
}

// New returns a Binder over c. A nil c uses the default configuration.
func New(c *structqs.Codec) *Binder {
	if c == nil {
		c = structqs.New(structqs.DefaultConfig())
	}
	return &Binder{codec: c}
}

var defaultBinder = New(nil)

// Decode parses data and binds it to t.
func Decode(data []byte, t wit.Type) (any, error) {
	return defaultBinder.Decode(data, t)
}

// Encode renders v, shaped by t, as a query string.
func Encode(v any, t wit.Type) ([]byte, error) {
	return defaultBinder.Encode(v, t)
}

// Decode parses data and binds it to t.
func (b *Binder) Decode(data []byte, t wit.Type) (any, error) {
	d, err := b.codec.Parse(data)
	if err != nil {
		return nil, err
	}
	return DecodeValue(d, t)
}

// Encode renders v, shaped by t, as a query string.
func (b *Binder) Encode(v any, t wit.Type) ([]byte, error) {
	e := b.codec.NewEncoder()
	if err := EncodeValue(e, v, t); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// resolve follows type aliases down to a primitive or a TypeDefKind.
func resolve(t wit.Type) any {
	for {
		td, ok := t.(*wit.TypeDef)
		if !ok {
			return t
		}
		alias, ok := td.Kind.(wit.Type)
		if !ok {
			return td.Kind
		}
		t = alias
	}
}

func isScalar(t wit.Type) bool {
	switch resolve(t).(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.U64,
		wit.S8, wit.S16, wit.S32, wit.S64, wit.F32, wit.F64, wit.Char, wit.String,
		*wit.Enum:
		return true
	}
	return false
}

func typeName(t wit.Type) string {
	switch resolve(t).(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.Record:
		return "record"
	case *wit.List:
		return "list"
	case *wit.Option:
		return "option"
	case *wit.Enum:
		return "enum"
	case *wit.Variant:
		return "variant"
	case *wit.Result:
		return "result"
	case *wit.Flags:
		return "flags"
	case *wit.Tuple:
		return "tuple"
	default:
		return "unknown"
	}
}

func unsupported(phase errors.Phase, path []string, t wit.Type) error {
	return errors.New(phase, errors.KindUnsupported).
		Path(path...).
		Detail("WIT %s values cannot be carried in a query string", typeName(t)).
		Build()
}

// DecodeValue binds the position d to t.
func DecodeValue(d *structqs.Decoder, t wit.Type) (any, error) {
	switch k := resolve(t).(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.U64,
		wit.S8, wit.S16, wit.S32, wit.S64, wit.F32, wit.F64, wit.Char, wit.String:
		s, err := d.Scalar()
		if err != nil {
			return nil, err
		}
		return parseScalar(d.Path(), t, s)

	case *wit.Record:
		rd, err := d.Record()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(k.Fields))
		for _, f := range k.Fields {
			fd, err := rd.Field(f.Name)
			if err != nil {
				return nil, err
			}
			v, err := DecodeValue(fd, f.Type)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil

	case *wit.Option:
		present, err := d.Option()
		if err != nil || !present {
			return nil, err
		}
		return DecodeValue(d, k.Type)

	case *wit.List:
		if !isScalar(k.Type) {
			return nil, unsupported(errors.PhaseDecode, d.Path(), t)
		}
		seq, err := d.Sequence()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, seq.Len())
		for ed, ok := seq.Next(); ok; ed, ok = seq.Next() {
			v, err := DecodeValue(ed, k.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *wit.Enum:
		names := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			names[i] = c.Name
		}
		name, payload, err := d.Enum(names)
		if err != nil {
			return nil, err
		}
		if err := noPayload(payload, name); err != nil {
			return nil, err
		}
		return name, nil

	case *wit.Variant:
		names := make([]string, len(k.Cases))
		types := make([]wit.Type, len(k.Cases))
		for i, c := range k.Cases {
			names[i] = c.Name
			types[i] = c.Type
		}
		return decodeCases(d, names, types)

	case *wit.Result:
		return decodeCases(d, []string{"ok", "err"}, []wit.Type{k.OK, k.Err})

	case *wit.Flags:
		seq, err := d.Sequence()
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool, seq.Len())
		for ed, ok := seq.Next(); ok; ed, ok = seq.Next() {
			name, _ := ed.Scalar()
			if !hasFlag(k, name) {
				return nil, errors.InvalidEnum(errors.PhaseDecode, ed.Path(), name, flagNames(k))
			}
			set[name] = true
		}
		out := make([]any, 0, len(set))
		for _, f := range k.Flags {
			if set[f.Name] {
				out = append(out, f.Name)
			}
		}
		return out, nil

	default:
		return nil, unsupported(errors.PhaseDecode, d.Path(), t)
	}
}

func decodeCases(d *structqs.Decoder, names []string, types []wit.Type) (any, error) {
	name, payload, err := d.Enum(names)
	if err != nil {
		return nil, err
	}
	var ct wit.Type
	for i, n := range names {
		if n == name {
			ct = types[i]
			break
		}
	}
	if ct == nil {
		if err := noPayload(payload, name); err != nil {
			return nil, err
		}
		return map[string]any{name: nil}, nil
	}
	if payload == nil {
		return nil, errors.InvalidVariant(errors.PhaseDecode, d.Path(),
			"case "+strconv.Quote(name)+" requires a payload")
	}
	v, err := DecodeValue(payload, ct)
	if err != nil {
		return nil, err
	}
	return map[string]any{name: v}, nil
}

// noPayload accepts a case written as name or as an empty name= entry.
func noPayload(payload *structqs.Decoder, name string) error {
	if payload == nil {
		return nil
	}
	present, err := payload.Option()
	if err != nil {
		return err
	}
	if present {
		return errors.InvalidVariant(errors.PhaseDecode, payload.Path(),
			"case "+strconv.Quote(name)+" takes no payload")
	}
	return nil
}

func hasFlag(f *wit.Flags, name string) bool {
	for _, fl := range f.Flags {
		if fl.Name == name {
			return true
		}
	}
	return false
}

func flagNames(f *wit.Flags) []string {
	out := make([]string, len(f.Flags))
	for i, fl := range f.Flags {
		out[i] = fl.Name
	}
	return out
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &strconv.NumError{Func: "parseBool", Num: s, Err: strconv.ErrSyntax}
}

func parseScalar(path []string, t wit.Type, s string) (any, error) {
	var (
		v   any
		err error
	)
	switch resolve(t).(type) {
	case wit.Bool:
		v, err = parseBool(s)
	case wit.U8:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 8)
		v = uint8(n)
	case wit.U16:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 16)
		v = uint16(n)
	case wit.U32:
		var n uint64
		n, err = strconv.ParseUint(s, 10, 32)
		v = uint32(n)
	case wit.U64:
		v, err = strconv.ParseUint(s, 10, 64)
	case wit.S8:
		var n int64
		n, err = strconv.ParseInt(s, 10, 8)
		v = int8(n)
	case wit.S16:
		var n int64
		n, err = strconv.ParseInt(s, 10, 16)
		v = int16(n)
	case wit.S32:
		var n int64
		n, err = strconv.ParseInt(s, 10, 32)
		v = int32(n)
	case wit.S64:
		v, err = strconv.ParseInt(s, 10, 64)
	case wit.F32:
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		v = float32(f)
	case wit.F64:
		v, err = strconv.ParseFloat(s, 64)
	case wit.Char:
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "char needs exactly one code point, got "+strconv.Quote(s))
		}
		return r, nil
	case wit.String:
		return s, nil
	}
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, errors.Overflow(errors.PhaseDecode, path, s, typeName(t))
		}
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Value(s).
			Detail("cannot parse %q as %s", s, typeName(t)).
			Cause(err).
			Build()
	}
	return v, nil
}

// EncodeValue writes v, shaped by t, at the position e.
func EncodeValue(e *structqs.Encoder, v any, t wit.Type) error {
	switch k := resolve(t).(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.U64,
		wit.S8, wit.S16, wit.S32, wit.S64, wit.F32, wit.F64, wit.Char, wit.String:
		s, err := formatScalar(e.Path(), t, v)
		if err != nil {
			return err
		}
		return e.Scalar(s)

	case *wit.Record:
		m, ok := v.(map[string]any)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, e.Path(), typeNameOf(v), "map[string]any")
		}
		re, err := e.Record()
		if err != nil {
			return err
		}
		for _, f := range k.Fields {
			fv, present := m[f.Name]
			if !present {
				if _, opt := resolve(f.Type).(*wit.Option); opt {
					continue
				}
				return errors.FieldMissing(errors.PhaseEncode, appendPath(e.Path(), f.Name))
			}
			fe, err := re.Field(f.Name)
			if err != nil {
				return err
			}
			if err := EncodeValue(fe, fv, f.Type); err != nil {
				return err
			}
		}
		return nil

	case *wit.Option:
		return e.Option(v != nil, func(e *structqs.Encoder) error {
			return EncodeValue(e, v, k.Type)
		})

	case *wit.List:
		if !isScalar(k.Type) {
			return unsupported(errors.PhaseEncode, e.Path(), t)
		}
		items, ok := v.([]any)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, e.Path(), typeNameOf(v), "[]any")
		}
		elems := make([]string, len(items))
		for i, item := range items {
			path := appendPath(e.Path(), "["+strconv.Itoa(i)+"]")
			var (
				s   string
				err error
			)
			if en, isEnum := resolve(k.Type).(*wit.Enum); isEnum {
				s, err = enumName(path, en, item)
			} else {
				s, err = formatScalar(path, k.Type, item)
			}
			if err != nil {
				return err
			}
			elems[i] = s
		}
		return e.Sequence(elems)

	case *wit.Enum:
		name, err := enumName(e.Path(), k, v)
		if err != nil {
			return err
		}
		return e.Enum(name, nil)

	case *wit.Variant:
		names := make([]string, len(k.Cases))
		types := make([]wit.Type, len(k.Cases))
		for i, c := range k.Cases {
			names[i] = c.Name
			types[i] = c.Type
		}
		return encodeCases(e, v, names, types)

	case *wit.Result:
		return encodeCases(e, v, []string{"ok", "err"}, []wit.Type{k.OK, k.Err})

	case *wit.Flags:
		set := make(map[string]bool)
		switch fv := v.(type) {
		case []any:
			for _, x := range fv {
				s, ok := x.(string)
				if !ok {
					return errors.TypeMismatch(errors.PhaseEncode, e.Path(), typeNameOf(x), "string")
				}
				set[s] = true
			}
		case []string:
			for _, s := range fv {
				set[s] = true
			}
		default:
			return errors.TypeMismatch(errors.PhaseEncode, e.Path(), typeNameOf(v), "[]any")
		}
		names := make([]string, 0, len(set))
		for _, f := range k.Flags {
			if set[f.Name] {
				names = append(names, f.Name)
				delete(set, f.Name)
			}
		}
		for name := range set {
			return errors.InvalidEnum(errors.PhaseEncode, e.Path(), name, flagNames(k))
		}
		return e.Sequence(names)

	default:
		return unsupported(errors.PhaseEncode, e.Path(), t)
	}
}

func encodeCases(e *structqs.Encoder, v any, names []string, types []wit.Type) error {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return errors.InvalidVariant(errors.PhaseEncode, e.Path(),
			"variant value must be a map with exactly one case")
	}
	for name, payload := range m {
		for i, n := range names {
			if n != name {
				continue
			}
			ct := types[i]
			if ct == nil {
				if payload != nil {
					return errors.InvalidVariant(errors.PhaseEncode, e.Path(),
						"case "+strconv.Quote(name)+" takes no payload")
				}
				return e.Enum(name, nil)
			}
			return e.Enum(name, func(pe *structqs.Encoder) error {
				return EncodeValue(pe, payload, ct)
			})
		}
		return errors.InvalidEnum(errors.PhaseEncode, e.Path(), name, names)
	}
	return nil
}

func enumName(path []string, k *wit.Enum, v any) (string, error) {
	name, ok := v.(string)
	if !ok {
		return "", errors.TypeMismatch(errors.PhaseEncode, path, typeNameOf(v), "string")
	}
	for _, c := range k.Cases {
		if c.Name == name {
			return name, nil
		}
	}
	names := make([]string, len(k.Cases))
	for i, c := range k.Cases {
		names[i] = c.Name
	}
	return "", errors.InvalidEnum(errors.PhaseEncode, path, name, names)
}

func formatScalar(path []string, t wit.Type, v any) (string, error) {
	mismatch := func(expected string) (string, error) {
		return "", errors.TypeMismatch(errors.PhaseEncode, path, typeNameOf(v), expected)
	}
	switch resolve(t).(type) {
	case wit.Bool:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
		return mismatch("bool")
	case wit.U8:
		if n, ok := v.(uint8); ok {
			return strconv.FormatUint(uint64(n), 10), nil
		}
		return mismatch("uint8")
	case wit.U16:
		if n, ok := v.(uint16); ok {
			return strconv.FormatUint(uint64(n), 10), nil
		}
		return mismatch("uint16")
	case wit.U32:
		if n, ok := v.(uint32); ok {
			return strconv.FormatUint(uint64(n), 10), nil
		}
		return mismatch("uint32")
	case wit.U64:
		if n, ok := v.(uint64); ok {
			return strconv.FormatUint(n, 10), nil
		}
		return mismatch("uint64")
	case wit.S8:
		if n, ok := v.(int8); ok {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return mismatch("int8")
	case wit.S16:
		if n, ok := v.(int16); ok {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return mismatch("int16")
	case wit.S32:
		if n, ok := v.(int32); ok {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return mismatch("int32")
	case wit.S64:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10), nil
		}
		return mismatch("int64")
	case wit.F32:
		if f, ok := v.(float32); ok {
			return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
		}
		return mismatch("float32")
	case wit.F64:
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
		return mismatch("float64")
	case wit.Char:
		if r, ok := v.(rune); ok {
			if !utf8.ValidRune(r) {
				return "", errors.InvalidData(errors.PhaseEncode, path, "invalid code point "+strconv.Itoa(int(r)))
			}
			return string(r), nil
		}
		return mismatch("rune")
	case wit.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return mismatch("string")
	}
	return "", unsupported(errors.PhaseEncode, path, t)
}

func typeNameOf(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
