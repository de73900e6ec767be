// Package specific binds statically typed Go values to baiji plans.
//
// A record type implements Record: its schema plus get and put by field
// position. An enum type implements Enum: its schema plus its symbol name.
// Constructors for both are registered in a Namespace so that readers can
// create values by schema full name. Arrays may be any slice and maps any map
// with string keys; typed containers are handled through reflection.
package specific
