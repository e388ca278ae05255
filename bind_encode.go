package structqs

import (
	"encoding"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/types"
)

func (c *Codec) encodeFrom(e *Encoder, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return errors.InvalidInput(errors.PhaseEncode, "cannot encode nil")
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.NilPointer(errors.PhaseEncode, e.path, rv.Type().String())
		}
		rv = rv.Elem()
	}

	ct, err := c.compiler.Compile(rv.Type())
	if err != nil {
		return err
	}
	return c.encodeValue(e, ct, rv)
}

func (c *Codec) encodeValue(e *Encoder, ct *CompiledType, v reflect.Value) error {
	switch ct.Kind {
	case types.KindBool, types.KindInt, types.KindUint, types.KindFloat, types.KindString, types.KindText:
		s, err := c.scalarText(e.path, ct, v)
		if err != nil {
			return err
		}
		return e.Scalar(s)

	case types.KindCustom:
		m, ok := asMarshaler(v)
		if !ok {
			return errors.New(errors.PhaseEncode, errors.KindUnsupported).
				Path(e.path...).
				GoType(ct.GoType.String()).
				Detail("type implements Unmarshaler but not Marshaler").
				Build()
		}
		if err := m.MarshalQS(e); err != nil {
			return errors.WithPath(errors.PhaseEncode, e.path, err)
		}
		return nil

	case types.KindAny:
		if v.IsNil() {
			return nil
		}
		inner := v.Elem()
		ict, err := c.compiler.Compile(inner.Type())
		if err != nil {
			return err
		}
		return c.encodeValue(e, ict, inner)

	case types.KindOption:
		return e.Option(!v.IsNil(), func(e *Encoder) error {
			return c.encodeValue(e, ct.ElemType, v.Elem())
		})

	case types.KindSequence, types.KindArray:
		elems := make([]string, v.Len())
		for i := range elems {
			s, err := c.scalarText(appendPath(e.path, "["+strconv.Itoa(i)+"]"), ct.ElemType, v.Index(i))
			if err != nil {
				return err
			}
			elems[i] = s
		}
		return e.Sequence(elems)

	case types.KindRecord:
		re, err := e.Record()
		if err != nil {
			return err
		}
		for i := range ct.Fields {
			f := &ct.Fields[i]
			fv := v.FieldByIndex(f.Index)
			if f.OmitEmpty && fv.IsZero() {
				continue
			}
			fe, err := re.Field(f.Name)
			if err != nil {
				return err
			}
			if err := c.encodeValue(fe, f.Type, fv); err != nil {
				return err
			}
		}
		return nil

	case types.KindMap:
		return c.encodeMap(e, ct, v)

	case types.KindVariant:
		return c.encodeVariant(e, ct, v)

	default:
		return errors.Unsupported(errors.PhaseEncode, "unknown plan kind "+ct.Kind.String())
	}
}

func (c *Codec) encodeMap(e *Encoder, ct *CompiledType, v reflect.Value) error {
	re, err := e.Record()
	if err != nil {
		return err
	}
	if v.Len() == 0 {
		return nil
	}

	type entry struct {
		value reflect.Value
		name  string
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		name, err := c.scalarText(e.path, ct.KeyType, iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, entry{name: name, value: iter.Value()})
	}
	// Go maps have no order; sort for stable output.
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	for _, en := range entries {
		fe, err := re.Field(en.name)
		if err != nil {
			return err
		}
		if err := c.encodeValue(fe, ct.ElemType, en.value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) encodeVariant(e *Encoder, ct *CompiledType, v reflect.Value) error {
	var set []*CompiledCase
	for i := range ct.Cases {
		cs := &ct.Cases[i]
		fv := v.Field(cs.Index)
		if (cs.Type == nil && fv.Bool()) || (cs.Type != nil && !fv.IsNil()) {
			set = append(set, cs)
		}
	}

	switch len(set) {
	case 0:
		return errors.InvalidVariant(errors.PhaseEncode, e.path, "no variant case is set")
	case 1:
	default:
		names := make([]string, len(set))
		for i, cs := range set {
			names[i] = cs.Name
		}
		return errors.InvalidVariant(errors.PhaseEncode, e.path,
			"multiple variant cases are set: "+strings.Join(names, ", "))
	}

	cs := set[0]
	if cs.Type == nil {
		return e.Enum(cs.Name, nil)
	}
	payload := v.Field(cs.Index).Elem()
	return e.Enum(cs.Name, func(pe *Encoder) error {
		return c.encodeValue(pe, cs.Type, payload)
	})
}

// scalarText formats a value of a scalar plan.
func (c *Codec) scalarText(path []string, ct *CompiledType, v reflect.Value) (string, error) {
	switch ct.Kind {
	case types.KindBool:
		return strconv.FormatBool(v.Bool()), nil
	case types.KindInt:
		return strconv.FormatInt(v.Int(), 10), nil
	case types.KindUint:
		return strconv.FormatUint(v.Uint(), 10), nil
	case types.KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, ct.Bits), nil
	case types.KindString:
		return v.String(), nil
	case types.KindText:
		m, ok := asTextMarshaler(v)
		if !ok {
			return "", errors.New(errors.PhaseEncode, errors.KindUnsupported).
				Path(path...).
				GoType(ct.GoType.String()).
				Detail("type implements encoding.TextUnmarshaler but not TextMarshaler").
				Build()
		}
		b, err := m.MarshalText()
		if err != nil {
			return "", errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).
				GoType(ct.GoType.String()).
				Cause(err).
				Build()
		}
		return string(b), nil
	case types.KindAny:
		if v.IsNil() {
			return "", errors.InvalidData(errors.PhaseEncode, path, "nil value where a scalar is required")
		}
		inner := v.Elem()
		ict, err := c.compiler.Compile(inner.Type())
		if err != nil {
			return "", err
		}
		return c.scalarText(path, ict, inner)
	default:
		return "", errors.New(errors.PhaseEncode, errors.KindShapeMismatch).
			Path(path...).
			GoType(ct.GoType.String()).
			Shapes("scalar", ct.Kind.Shape()).
			Build()
	}
}

func asMarshaler(v reflect.Value) (Marshaler, bool) {
	if v.Type().Implements(marshalerType) {
		m, ok := v.Interface().(Marshaler)
		return m, ok
	}
	m, ok := addressable(v).Interface().(Marshaler)
	return m, ok
}

func asTextMarshaler(v reflect.Value) (encoding.TextMarshaler, bool) {
	if v.Type().Implements(textMarshalerType) {
		m, ok := v.Interface().(encoding.TextMarshaler)
		return m, ok
	}
	m, ok := addressable(v).Interface().(encoding.TextMarshaler)
	return m, ok
}

// addressable returns a pointer to v, copying v when it cannot be addressed.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
