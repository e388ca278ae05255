package structqs

// Variant marks a struct as an externally tagged enum. It must be the
// first field and embedded:
//
//	type Sort struct {
//		structqs.Variant
//		Asc     bool
//		Desc    bool
//		ByField *string `qs:"by"`
//	}
//
// Every other exported field is a case. A bool field is a unit case written
// as the value (sort=asc); a pointer field carries a payload written under
// the case name (sort.by=date). Exactly one case must be set when encoding.
type Variant struct{}

// Marshaler is implemented by types that write themselves through the
// encoder capability.
type Marshaler interface {
	MarshalQS(e *Encoder) error
}

// Unmarshaler is implemented by types that read themselves through the
// decoder capability.
type Unmarshaler interface {
	UnmarshalQS(d *Decoder) error
}
