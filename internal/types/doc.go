// Package types defines the compiled type plans used by the query binder.
//
// A CompiledType records, once per Go type, how values of that type map
// onto the value tree: which kind of shape they read and write, the query
// names and field indexes of struct fields, and the cases of variant
// structs. Plans are built by the compiler in the root package and cached.
//
// # Key Types
//
//   - CompiledType: cached binding plan for one Go type
//   - Kind: shape discriminator (scalar kinds, option, sequence, record, ...)
//
// This package is internal to structqs.
package types
