// Package errors provides structured error types for the structqs codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: key path, byte offset, expected and
// actual shape, Go type name, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindShapeMismatch).
//		Path("filter", "difficulty").
//		Shapes("record", "scalar").
//		Detail("cannot read a scalar as a record").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ShapeMismatch(errors.PhaseDecode, path, "scalar", "record")
//	err := errors.Structural(offset, "empty key segment")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
