// Package structqs encodes and decodes nested Go values as query strings.
//
// Beyond flat key=value pairs the format supports nested records through
// dot-delimited keys, optional values, comma-joined sequences and
// externally tagged enum variants:
//
//	keyword=foo&limit=20&filter.category=A&filter.difficulty.to=800&tags=go,wasm
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	structqs/            Codec, Decoder/Encoder capabilities, reflection binder
//	├── errors/          Structured error types with key paths and offsets
//	├── witbind/         Binder driven by WIT type definitions
//	├── ginbind/         gin request binding for query strings and form bodies
//	├── cmd/qs/          Command line decoder, encoder and inspector
//	└── internal/
//	    ├── scan/        Byte cursor with percent-decoding
//	    ├── pct/         Form-urlencoding percent codec
//	    ├── tree/        Intermediate value tree
//	    ├── parse/       Query string parser
//	    └── types/       Compiled binding plans
//
// # Quick Start
//
//	type Params struct {
//	    Keyword *string `qs:"keyword"`
//	    Limit   *int    `qs:"limit"`
//	    Filter  *Filter `qs:"filter"`
//	}
//
//	var p Params
//	if err := structqs.UnmarshalString(r.URL.RawQuery, &p); err != nil {
//	    return err
//	}
//
//	s, err := structqs.MarshalString(p)
//
// # Value Model
//
// Parsing builds a tree whose positions are unset, a record, a scalar, or
// ambiguous. A key written twice, or used both as a value and as a prefix
// of nested keys, makes its position ambiguous without failing the parse;
// only reading that position fails. Malformed percent-encoding, invalid
// UTF-8 and empty key segments fail the whole parse with a byte offset.
//
// # Binding Rules
//
//   - Struct fields use the qs tag or, without one, the snake_case of the
//     field name. Untagged embedded structs are flattened.
//   - Pointers are optional: a missing key and an empty value both decode
//     to nil, and nil is not written.
//   - Slices and arrays of scalars are comma-joined sequences. Empty
//     segments are dropped when decoding, so elements that are empty or
//     contain ',' cannot be encoded.
//   - Maps with string, integer or text keys are records.
//   - A struct embedding Variant as its first field is an enum.
//   - encoding.TextMarshaler and TextUnmarshaler are used for scalars;
//     Marshaler and Unmarshaler take over a value completely.
//
// # Capabilities
//
// Decoder and Encoder expose the shape requests the binder is built on:
// Scalar, Option, Sequence, Record and Enum. Types implementing Marshaler
// or Unmarshaler drive them directly, and the witbind package drives them
// from a schema instead of a Go type.
//
// # Thread Safety
//
// Codec and the package-level functions are safe for concurrent use.
// Decoder and Encoder values are NOT thread-safe and belong to a single call.
package structqs
