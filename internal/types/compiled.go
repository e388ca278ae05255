package types

import (
	"reflect"
)

type CompiledType struct {
	GoType reflect.Type
	// ElemType is the pointee for options and the element for sequences,
	// arrays and maps.
	ElemType *CompiledType
	// KeyType is the key of a map.
	KeyType *CompiledType
	Fields  []Field
	Cases   []Case
	Len     int // array length
	Bits    int // numeric width
	Kind    Kind
}

type Field struct {
	Type      *CompiledType
	Name      string
	GoName    string
	Index     []int
	OmitEmpty bool
}

// Case is one arm of a variant struct. Type is nil for unit cases, which
// are bool fields; payload cases are pointer fields.
type Case struct {
	Type  *CompiledType
	Name  string
	Index int
}

// Field returns the field with the given query name.
func (ct *CompiledType) Field(name string) (*Field, bool) {
	for i := range ct.Fields {
		if ct.Fields[i].Name == name {
			return &ct.Fields[i], true
		}
	}
	return nil, false
}

// CaseNames returns the variant case names in declaration order.
func (ct *CompiledType) CaseNames() []string {
	names := make([]string, len(ct.Cases))
	for i, c := range ct.Cases {
		names[i] = c.Name
	}
	return names
}
