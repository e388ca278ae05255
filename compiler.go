package structqs

import (
	"encoding"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/types"
)

type CompiledType = types.CompiledType
type CompiledField = types.Field
type CompiledCase = types.Case

var (
	marshalerType       = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType     = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	variantType         = reflect.TypeOf(Variant{})
)

// Compiler builds binding plans for Go types and caches them.
// It is safe for concurrent use.
type Compiler struct {
	cache sync.Map // reflect.Type -> *CompiledType
	tag   string
}

func NewCompiler(tag string) *Compiler {
	if tag == "" {
		tag = DefaultTagName
	}
	return &Compiler{tag: tag}
}

func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}

	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	building := make(map[reflect.Type]*CompiledType)
	ct, err := c.compile(goType, nil, building)
	if err != nil {
		return nil, err
	}

	actual, _ := c.cache.LoadOrStore(goType, ct)
	return actual.(*CompiledType), nil
}

func (c *Compiler) compile(goType reflect.Type, path []string, building map[reflect.Type]*CompiledType) (*CompiledType, error) {
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}
	// Recursive types refer back to the plan under construction.
	if ct, ok := building[goType]; ok {
		return ct, nil
	}

	ct := &CompiledType{GoType: goType}
	building[goType] = ct

	if err := c.fill(ct, path, building); err != nil {
		delete(building, goType)
		return nil, err
	}
	return ct, nil
}

func (c *Compiler) fill(ct *CompiledType, path []string, building map[reflect.Type]*CompiledType) error {
	goType := ct.GoType

	if goType.Kind() != reflect.Pointer && goType.Kind() != reflect.Interface {
		ptr := reflect.PointerTo(goType)
		switch {
		case goType.Implements(marshalerType) || ptr.Implements(unmarshalerType) ||
			ptr.Implements(marshalerType):
			ct.Kind = types.KindCustom
			return nil
		case goType.Implements(textMarshalerType) || ptr.Implements(textUnmarshalerType) ||
			ptr.Implements(textMarshalerType):
			ct.Kind = types.KindText
			return nil
		}
	}

	switch goType.Kind() {
	case reflect.Bool:
		ct.Kind = types.KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ct.Kind = types.KindInt
		ct.Bits = goType.Bits()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		ct.Kind = types.KindUint
		ct.Bits = goType.Bits()
	case reflect.Float32, reflect.Float64:
		ct.Kind = types.KindFloat
		ct.Bits = goType.Bits()
	case reflect.String:
		ct.Kind = types.KindString
	case reflect.Interface:
		if goType.NumMethod() != 0 {
			return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "empty interface")
		}
		ct.Kind = types.KindAny
	case reflect.Pointer:
		return c.compileOption(ct, path, building)
	case reflect.Slice:
		return c.compileSequence(ct, types.KindSequence, path, building)
	case reflect.Array:
		ct.Len = goType.Len()
		return c.compileSequence(ct, types.KindArray, path, building)
	case reflect.Map:
		return c.compileMap(ct, path, building)
	case reflect.Struct:
		if isVariant(goType) {
			return c.compileVariant(ct, path, building)
		}
		return c.compileRecord(ct, path, building)
	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			GoType(goType.String()).
			Detail("cannot bind %s values", goType.Kind()).
			Build()
	}
	return nil
}

func (c *Compiler) compileOption(ct *CompiledType, path []string, building map[reflect.Type]*CompiledType) error {
	elem, err := c.compile(ct.GoType.Elem(), path, building)
	if err != nil {
		return err
	}
	ct.Kind = types.KindOption
	ct.ElemType = elem
	return nil
}

func (c *Compiler) compileSequence(ct *CompiledType, kind types.Kind, path []string, building map[reflect.Type]*CompiledType) error {
	elemPath := append(append([]string{}, path...), "[elem]")
	elem, err := c.compile(ct.GoType.Elem(), elemPath, building)
	if err != nil {
		return err
	}
	if !elem.Kind.IsScalar() && elem.Kind != types.KindAny {
		return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			Path(elemPath...).
			GoType(ct.GoType.String()).
			Shapes("scalar", elem.Kind.Shape()).
			Detail("sequence elements must be scalars").
			Build()
	}
	ct.Kind = kind
	ct.ElemType = elem
	return nil
}

func (c *Compiler) compileMap(ct *CompiledType, path []string, building map[reflect.Type]*CompiledType) error {
	keyType := ct.GoType.Key()
	key, err := c.compile(keyType, append(append([]string{}, path...), "[key]"), building)
	if err != nil {
		return err
	}
	switch key.Kind {
	case types.KindString, types.KindInt, types.KindUint, types.KindText:
	default:
		return errors.TypeMismatch(errors.PhaseCompile, path, keyType.String(), "string, integer or text map key")
	}

	elem, err := c.compile(ct.GoType.Elem(), append(append([]string{}, path...), "[value]"), building)
	if err != nil {
		return err
	}
	ct.Kind = types.KindMap
	ct.KeyType = key
	ct.ElemType = elem
	return nil
}

type fieldCandidate struct {
	field CompiledField
	depth int
}

func (c *Compiler) compileRecord(ct *CompiledType, path []string, building map[reflect.Type]*CompiledType) error {
	ct.Kind = types.KindRecord

	var candidates []fieldCandidate
	if err := c.collectFields(ct.GoType, nil, 0, path, building, &candidates); err != nil {
		return err
	}

	// Shallower fields hide embedded ones of the same name.
	minDepth := make(map[string]int, len(candidates))
	for _, cand := range candidates {
		if d, ok := minDepth[cand.field.Name]; !ok || cand.depth < d {
			minDepth[cand.field.Name] = cand.depth
		}
	}
	ct.Fields = make([]CompiledField, 0, len(candidates))
	for _, cand := range candidates {
		if cand.depth != minDepth[cand.field.Name] {
			continue
		}
		if _, dup := ct.Field(cand.field.Name); dup {
			return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				GoType(ct.GoType.String()).
				Detail("duplicate field name %q", cand.field.Name).
				Build()
		}
		ct.Fields = append(ct.Fields, cand.field)
	}
	return nil
}

func (c *Compiler) collectFields(goType reflect.Type, index []int, depth int, path []string, building map[reflect.Type]*CompiledType, out *[]fieldCandidate) error {
	for i := 0; i < goType.NumField(); i++ {
		sf := goType.Field(i)
		name, opts, tagged := c.parseTag(sf)
		if tagged && name == "" && opts == "-" {
			continue
		}

		fieldIndex := append(append([]int{}, index...), i)

		if sf.Anonymous && !tagged && sf.Type.Kind() == reflect.Struct && !hasHooks(sf.Type) {
			if err := c.collectFields(sf.Type, fieldIndex, depth+1, path, building, out); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		if name == "" {
			name = toSnakeCase(sf.Name)
		}
		fieldPath := append(append([]string{}, path...), name)
		fieldType, err := c.compile(sf.Type, fieldPath, building)
		if err != nil {
			return err
		}

		*out = append(*out, fieldCandidate{
			field: CompiledField{
				Name:      name,
				GoName:    sf.Name,
				Index:     fieldIndex,
				Type:      fieldType,
				OmitEmpty: hasOption(opts, "omitempty"),
			},
			depth: depth,
		})
	}
	return nil
}

func (c *Compiler) compileVariant(ct *CompiledType, path []string, building map[reflect.Type]*CompiledType) error {
	ct.Kind = types.KindVariant
	goType := ct.GoType

	for i := 1; i < goType.NumField(); i++ {
		sf := goType.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opts, tagged := c.parseTag(sf)
		if tagged && name == "" && opts == "-" {
			continue
		}
		if name == "" {
			name = toSnakeCase(sf.Name)
		}

		cc := CompiledCase{Name: name, Index: i}
		switch sf.Type.Kind() {
		case reflect.Bool:
		case reflect.Pointer:
			casePath := append(append([]string{}, path...), name)
			caseType, err := c.compile(sf.Type.Elem(), casePath, building)
			if err != nil {
				return err
			}
			cc.Type = caseType
		default:
			return errors.TypeMismatch(errors.PhaseCompile, append(append([]string{}, path...), name),
				sf.Type.String(), "bool or pointer variant case")
		}

		for _, existing := range ct.Cases {
			if existing.Name == name {
				return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
					Path(path...).
					GoType(goType.String()).
					Detail("duplicate variant case %q", name).
					Build()
			}
		}
		ct.Cases = append(ct.Cases, cc)
	}

	if len(ct.Cases) == 0 {
		return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			Path(path...).
			GoType(goType.String()).
			Detail("variant has no cases").
			Build()
	}
	return nil
}

func isVariant(goType reflect.Type) bool {
	if goType.NumField() == 0 {
		return false
	}
	f := goType.Field(0)
	return f.Anonymous && f.Type == variantType
}

func hasHooks(t reflect.Type) bool {
	ptr := reflect.PointerTo(t)
	return t.Implements(marshalerType) || ptr.Implements(unmarshalerType) ||
		t.Implements(textMarshalerType) || ptr.Implements(textUnmarshalerType)
}

// parseTag returns the name and options of the field's tag. tagged is false
// when the field carries no tag for this compiler. A tag of exactly "-"
// is reported as an empty name with options "-".
func (c *Compiler) parseTag(sf reflect.StructField) (name, opts string, tagged bool) {
	tag, ok := sf.Tag.Lookup(c.tag)
	if !ok {
		return "", "", false
	}
	if tag == "-" {
		return "", "-", true
	}
	name, opts, _ = strings.Cut(tag, ",")
	return name, opts, true
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

// toSnakeCase converts a Go identifier to snake_case. Runs of capitals are
// treated as one word: UserID becomes user_id, HTTPServer http_server.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var result strings.Builder
	result.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					result.WriteByte('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
