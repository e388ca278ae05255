package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // Go type registration
	PhaseParse   Phase = "parse"   // wire bytes to value tree
	PhaseDecode  Phase = "decode"  // value tree to Go
	PhaseEncode  Phase = "encode"  // Go to wire
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidEncoding Kind = "invalid_encoding"
	KindInvalidUTF8     Kind = "invalid_utf8"
	KindStructural      Kind = "structural"
	KindAmbiguous       Kind = "ambiguous"
	KindShapeMismatch   Kind = "shape_mismatch"
	KindFieldMissing    Kind = "field_missing"
	KindFieldUnknown    Kind = "field_unknown"
	KindAlreadyConsumed Kind = "already_consumed"
	KindTypeMismatch    Kind = "type_mismatch"
	KindInvalidData     Kind = "invalid_data"
	KindOverflow        Kind = "overflow"
	KindInvalidEnum     Kind = "invalid_enum"
	KindInvalidVariant  Kind = "invalid_variant"
	KindUnsupported     Kind = "unsupported"
	KindNilPointer      Kind = "nil_pointer"
	KindInvalidInput    Kind = "invalid_input"
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	GoType    string
	Expected  string
	Actual    string
	Detail    string
	Path      []string
	Offset    int
	HasOffset bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.HasOffset {
		b.WriteString(" (offset ")
		b.WriteString(strconv.Itoa(e.Offset))
		b.WriteByte(')')
	}

	hasShape := e.Expected != "" || e.Actual != "" || e.GoType != ""
	if hasShape {
		b.WriteString(": ")
		var parts []string
		if e.GoType != "" {
			parts = append(parts, "Go type "+e.GoType)
		}
		if e.Expected != "" {
			parts = append(parts, "expected "+e.Expected)
		}
		if e.Actual != "" {
			parts = append(parts, "got "+e.Actual)
		}
		b.WriteString(strings.Join(parts, ", "))
	}

	if e.Detail != "" {
		if hasShape {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KeyPath returns the dot-joined key path of the error.
func (e *Error) KeyPath() string {
	return JoinPath(e.Path)
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// JoinPath joins key path segments with dots. Index segments such as
// "[2]" attach to the preceding segment without a separator.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the key path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// At sets the byte offset into the input
func (b *Builder) At(offset int) *Builder {
	b.err.Offset = offset
	b.err.HasOffset = true
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Shapes sets the expected and actual shapes
func (b *Builder) Shapes(expected, actual string) *Builder {
	b.err.Expected = expected
	b.err.Actual = actual
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidEncoding creates a malformed percent-encoding error at a byte offset
func InvalidEncoding(offset int, detail string) *Error {
	return &Error{
		Phase:     PhaseParse,
		Kind:      KindInvalidEncoding,
		Offset:    offset,
		HasOffset: true,
		Detail:    detail,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, offset int, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:     phase,
		Kind:      KindInvalidUTF8,
		Offset:    offset,
		HasOffset: offset >= 0,
		Detail:    fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// Structural creates a malformed key syntax error
func Structural(offset int, detail string) *Error {
	return &Error{
		Phase:     PhaseParse,
		Kind:      KindStructural,
		Offset:    offset,
		HasOffset: true,
		Detail:    detail,
	}
}

// Ambiguous creates an error for a poisoned key path
func Ambiguous(path []string, reason string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindAmbiguous,
		Path:   path,
		Detail: reason,
	}
}

// ShapeMismatch creates a shape mismatch error
func ShapeMismatch(phase Phase, path []string, expected, actual string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindShapeMismatch,
		Path:     path,
		Expected: expected,
		Actual:   actual,
	}
}

// TypeMismatch creates a Go type binding error
func TypeMismatch(phase Phase, path []string, goType, expected string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		Expected: expected,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string) *Error {
	name := ""
	if len(path) > 0 {
		name = path[len(path)-1]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", name),
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// AlreadyConsumed creates an error for a node that was read twice
func AlreadyConsumed(path []string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindAlreadyConsumed,
		Path:   path,
		Detail: "value was already read",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, target string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Path:     path,
		Expected: target,
		Detail:   fmt.Sprintf("value %v overflows %s", value, target),
		Value:    value,
	}
}

// InvalidEnum creates an unknown variant name error
func InvalidEnum(phase Phase, path []string, value string, variants []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		Detail: fmt.Sprintf("unknown variant %q, expected one of [%s]", value, strings.Join(variants, ", ")),
		Value:  value,
	}
}

// InvalidVariant creates a malformed variant error
func InvalidVariant(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns err with path prepended when err is an *Error without
// a path of its own. Other errors are wrapped as invalid data at path.
func WithPath(phase Phase, path []string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if len(e.Path) == 0 && len(path) > 0 {
			cp := *e
			cp.Path = path
			return &cp
		}
		return err
	}
	return &Error{
		Phase: phase,
		Kind:  KindInvalidData,
		Path:  path,
		Cause: err,
	}
}
