// Package baiji provides the shared vocabulary of a schema-driven binary
// serialization engine in the style of Avro:
//
//   - A stable error model via Issues (schema path, code, message) used by every
//     subpackage for schema construction, plan construction, encode and decode
//     failures
//   - The schema-description SPI (Node, SchemaDriver) through which schema
//     documents enter the system
//
// Design policy:
//   - Keep only shared, dependency-free APIs in the root package.
//   - Place the schema model and resolution under schema/, the wire codec under
//     binary/, plan construction under generic/ and specific/, high-level codecs
//     under codec/, and the CLI under cmd/baiji.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := schema.MustParse(`{"type":"record","name":"n","fields":[{"name":"f1","type":"int"}]}`)
//	c, err := codec.New(s)
//	data, err := c.Marshal(ctx, rec)
//	v, err := c.Unmarshal(ctx, data)
//
// Reading data written under an older schema:
//
//	c, err := codec.NewResolving(writer, reader)
//	v, err := c.Unmarshal(ctx, data)
package baiji
