// Package schema implements the schema model: primitive, array, map, union,
// enum and record schemas, named-schema identity and namespace scoping, the
// name registry used to build recursive schema graphs, and the resolution
// rules that decide whether a reader schema can read data written under a
// writer schema.
//
// Schemas are immutable once constructed and safe to share between goroutines.
// Named schemas with the same full name inside one document are the same
// object, which is what makes self-referential records possible.
package schema
