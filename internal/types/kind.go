package types

type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindText
	KindCustom
	KindAny
	KindOption
	KindSequence
	KindArray
	KindRecord
	KindMap
	KindVariant
)

var kindNames = [...]string{
	KindBool:     "bool",
	KindInt:      "int",
	KindUint:     "uint",
	KindFloat:    "float",
	KindString:   "string",
	KindText:     "text",
	KindCustom:   "custom",
	KindAny:      "any",
	KindOption:   "option",
	KindSequence: "sequence",
	KindArray:    "array",
	KindRecord:   "record",
	KindMap:      "map",
	KindVariant:  "variant",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of the kind are written as one scalar
// and can therefore appear as sequence elements.
func (k Kind) IsScalar() bool {
	return k <= KindText
}

// Shape returns the value tree shape the kind reads from and writes to.
func (k Kind) Shape() string {
	switch {
	case k.IsScalar():
		return "scalar"
	case k == KindSequence || k == KindArray:
		return "sequence"
	case k == KindRecord || k == KindMap:
		return "record"
	case k == KindVariant:
		return "enum"
	default:
		return "any"
	}
}
