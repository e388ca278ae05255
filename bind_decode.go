package structqs

import (
	"encoding"
	stderrors "errors"
	"reflect"
	"strconv"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/types"
)

func (c *Codec) decodeInto(d *Decoder, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return errors.InvalidInput(errors.PhaseDecode, "decode target is nil")
	}
	if rv.Kind() != reflect.Pointer {
		return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			GoType(rv.Type().String()).
			Detail("decode target must be a pointer, got %T", v).
			Build()
	}
	if rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, d.path, rv.Type().String())
	}

	ct, err := c.compiler.Compile(rv.Elem().Type())
	if err != nil {
		return err
	}
	return c.decodeValue(d, ct, rv.Elem())
}

func (c *Codec) decodeValue(d *Decoder, ct *CompiledType, v reflect.Value) error {
	switch ct.Kind {
	case types.KindBool:
		s, err := d.Scalar()
		if err != nil {
			return err
		}
		b, err := parseBool(s)
		if err != nil {
			return parseError(d, ct, s, err)
		}
		v.SetBool(b)

	case types.KindInt:
		s, err := d.Scalar()
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, ct.Bits)
		if err != nil {
			return parseError(d, ct, s, err)
		}
		v.SetInt(n)

	case types.KindUint:
		s, err := d.Scalar()
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(s, 10, ct.Bits)
		if err != nil {
			return parseError(d, ct, s, err)
		}
		v.SetUint(n)

	case types.KindFloat:
		s, err := d.Scalar()
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, ct.Bits)
		if err != nil {
			return parseError(d, ct, s, err)
		}
		v.SetFloat(f)

	case types.KindString:
		s, err := d.Scalar()
		if err != nil {
			return err
		}
		v.SetString(s)

	case types.KindText:
		u, ok := v.Addr().Interface().(encoding.TextUnmarshaler)
		if !ok {
			return errors.New(errors.PhaseDecode, errors.KindUnsupported).
				Path(d.path...).
				GoType(ct.GoType.String()).
				Detail("type implements encoding.TextMarshaler but not TextUnmarshaler").
				Build()
		}
		s, err := d.Scalar()
		if err != nil {
			return err
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Path(d.path...).
				GoType(ct.GoType.String()).
				Value(s).
				Cause(err).
				Build()
		}

	case types.KindCustom:
		u, ok := v.Addr().Interface().(Unmarshaler)
		if !ok {
			return errors.New(errors.PhaseDecode, errors.KindUnsupported).
				Path(d.path...).
				GoType(ct.GoType.String()).
				Detail("type implements Marshaler but not Unmarshaler").
				Build()
		}
		if err := u.UnmarshalQS(d); err != nil {
			return errors.WithPath(errors.PhaseDecode, d.path, err)
		}

	case types.KindAny:
		x, err := d.Any()
		if err != nil {
			return err
		}
		if x == nil {
			v.SetZero()
			return nil
		}
		v.Set(reflect.ValueOf(x))

	case types.KindOption:
		present, err := d.Option()
		if err != nil {
			return err
		}
		if !present {
			v.SetZero()
			return nil
		}
		p := reflect.New(ct.ElemType.GoType)
		if err := c.decodeValue(d, ct.ElemType, p.Elem()); err != nil {
			return err
		}
		v.Set(p)

	case types.KindSequence:
		seq, err := d.Sequence()
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(ct.GoType, 0, seq.Len())
		for ed, ok := seq.Next(); ok; ed, ok = seq.Next() {
			ev := reflect.New(ct.ElemType.GoType).Elem()
			if err := c.decodeValue(ed, ct.ElemType, ev); err != nil {
				return err
			}
			out = reflect.Append(out, ev)
		}
		v.Set(out)

	case types.KindArray:
		seq, err := d.Sequence()
		if err != nil {
			return err
		}
		if n := seq.Len(); n != ct.Len {
			return errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Path(d.path...).
				GoType(ct.GoType.String()).
				Detail("expected %d elements, got %d", ct.Len, n).
				Build()
		}
		for i := 0; i < ct.Len; i++ {
			ed, _ := seq.Next()
			if err := c.decodeValue(ed, ct.ElemType, v.Index(i)); err != nil {
				return err
			}
		}

	case types.KindRecord:
		return c.decodeRecord(d, ct, v)

	case types.KindMap:
		return c.decodeMap(d, ct, v)

	case types.KindVariant:
		return c.decodeVariant(d, ct, v)

	default:
		return errors.Unsupported(errors.PhaseDecode, "unknown plan kind "+ct.Kind.String())
	}
	return nil
}

func (c *Codec) decodeRecord(d *Decoder, ct *CompiledType, v reflect.Value) error {
	rd, err := d.Record()
	if err != nil {
		return err
	}

	for i := range ct.Fields {
		f := &ct.Fields[i]
		fd, err := rd.Field(f.Name)
		if err != nil {
			return err
		}
		// omitempty fields are optional: an absent key keeps the current value.
		if f.OmitEmpty {
			present, err := fd.Option()
			if err != nil {
				return err
			}
			if !present {
				continue
			}
		}
		if err := c.decodeValue(fd, f.Type, v.FieldByIndex(f.Index)); err != nil {
			return err
		}
	}

	if c.cfg.DisallowUnknownFields {
		if keys := rd.Keys(); len(keys) > 0 {
			return errors.FieldUnknown(errors.PhaseDecode, appendPath(d.path, keys[0]), keys[0])
		}
	}
	return nil
}

func (c *Codec) decodeMap(d *Decoder, ct *CompiledType, v reflect.Value) error {
	rd, err := d.Record()
	if err != nil {
		return err
	}
	if v.IsNil() {
		v.Set(reflect.MakeMapWithSize(ct.GoType, rd.Len()))
	}

	for _, name := range rd.Keys() {
		fd, err := rd.Field(name)
		if err != nil {
			return err
		}
		key, err := mapKey(fd, ct.KeyType, name)
		if err != nil {
			return err
		}
		ev := reflect.New(ct.ElemType.GoType).Elem()
		if err := c.decodeValue(fd, ct.ElemType, ev); err != nil {
			return err
		}
		v.SetMapIndex(key, ev)
	}
	return nil
}

func mapKey(d *Decoder, kt *CompiledType, name string) (reflect.Value, error) {
	key := reflect.New(kt.GoType).Elem()
	switch kt.Kind {
	case types.KindString:
		key.SetString(name)
	case types.KindInt:
		n, err := strconv.ParseInt(name, 10, kt.Bits)
		if err != nil {
			return reflect.Value{}, parseError(d, kt, name, err)
		}
		key.SetInt(n)
	case types.KindUint:
		n, err := strconv.ParseUint(name, 10, kt.Bits)
		if err != nil {
			return reflect.Value{}, parseError(d, kt, name, err)
		}
		key.SetUint(n)
	case types.KindText:
		u, ok := key.Addr().Interface().(encoding.TextUnmarshaler)
		if !ok {
			return reflect.Value{}, errors.TypeMismatch(errors.PhaseDecode, d.path, kt.GoType.String(), "encoding.TextUnmarshaler")
		}
		if err := u.UnmarshalText([]byte(name)); err != nil {
			return reflect.Value{}, parseError(d, kt, name, err)
		}
	}
	return key, nil
}

func (c *Codec) decodeVariant(d *Decoder, ct *CompiledType, v reflect.Value) error {
	name, payload, err := d.Enum(ct.CaseNames())
	if err != nil {
		return err
	}

	var cs *CompiledCase
	for i := range ct.Cases {
		if ct.Cases[i].Name == name {
			cs = &ct.Cases[i]
			break
		}
	}
	v.SetZero()

	if cs.Type == nil {
		// A unit case may also arrive as an empty record entry: sort.asc=
		if payload != nil {
			present, err := payload.Option()
			if err != nil {
				return err
			}
			if present {
				return errors.InvalidVariant(errors.PhaseDecode, payload.path,
					"case "+strconv.Quote(name)+" takes no payload")
			}
		}
		v.Field(cs.Index).SetBool(true)
		return nil
	}

	if payload == nil {
		return errors.InvalidVariant(errors.PhaseDecode, d.path,
			"case "+strconv.Quote(name)+" requires a payload")
	}
	p := reflect.New(cs.Type.GoType)
	if err := c.decodeValue(payload, cs.Type, p.Elem()); err != nil {
		return err
	}
	v.Field(cs.Index).Set(p)
	return nil
}

// parseBool accepts exactly "true" and "false", the forms the encoder writes.
func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &strconv.NumError{Func: "parseBool", Num: s, Err: strconv.ErrSyntax}
}

func parseError(d *Decoder, ct *CompiledType, s string, err error) error {
	if stderrors.Is(err, strconv.ErrRange) {
		return errors.Overflow(errors.PhaseDecode, d.path, s, ct.GoType.String())
	}
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Path(d.path...).
		GoType(ct.GoType.String()).
		Value(s).
		Detail("cannot parse %q as %s", s, ct.Kind).
		Cause(err).
		Build()
}
