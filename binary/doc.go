// Package binary implements the baiji binary wire format.
//
// Longs are zig-zag encoded base-128 varints and ints are written as longs.
// Floats and doubles are little-endian IEEE-754. Bytes and strings carry a
// long length prefix. Arrays and maps are a sequence of blocks, each a long
// item count followed by that many items, terminated by a zero count. A union
// value is the branch index followed by the branch value. Null takes no bytes.
//
// Encoder and Decoder are the primitive layer; the schema-driven layer lives
// in package generic.
package binary
