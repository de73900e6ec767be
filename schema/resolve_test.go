package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

func TestCanRead_Primitives(t *testing.T) {
	types := []schema.Type{schema.Null, schema.Boolean, schema.Int, schema.Long, schema.Float,
		schema.Double, schema.Bytes, schema.String, schema.Datetime}
	promotes := map[[2]schema.Type]bool{
		{schema.Int, schema.Long}:     true,
		{schema.Int, schema.Float}:    true,
		{schema.Int, schema.Double}:   true,
		{schema.Long, schema.Float}:   true,
		{schema.Long, schema.Double}:  true,
		{schema.Float, schema.Double}: true,
	}
	for _, w := range types {
		for _, r := range types {
			want := w == r || promotes[[2]schema.Type{w, r}]
			got := schema.CanRead(schema.Primitive(r), schema.Primitive(w))
			require.Equal(t, want, got, "writer %s reader %s", w, r)
		}
	}
}

func TestCanRead_Collections(t *testing.T) {
	ints := schema.MustParse(`{"type": "array", "items": "int"}`)
	longs := schema.MustParse(`{"type": "array", "items": "long"}`)
	require.True(t, longs.CanRead(ints))
	require.False(t, ints.CanRead(longs))

	m := schema.MustParse(`{"type": "map", "values": "float"}`)
	md := schema.MustParse(`{"type": "map", "values": "double"}`)
	require.True(t, md.CanRead(m))
	require.False(t, m.CanRead(ints))
}

func TestCanRead_Unions(t *testing.T) {
	nullableInt := schema.MustParse(`["null", "int"]`)
	nullableLong := schema.MustParse(`["null", "long"]`)
	require.True(t, nullableLong.CanRead(nullableInt))
	// A writer union needs one readable branch.
	require.True(t, schema.Primitive(schema.Int).CanRead(nullableInt))
	require.True(t, nullableInt.CanRead(schema.Primitive(schema.Int)))
	require.False(t, nullableInt.CanRead(schema.Primitive(schema.String)))
	require.False(t, schema.Primitive(schema.String).CanRead(nullableInt))
}

func TestCanRead_Enums(t *testing.T) {
	w := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["A", "B", "C"]}`)
	r := schema.MustParse(`{"type": "enum", "name": "F", "symbols": ["C"]}`)
	// Symbol mismatches are decode-time errors.
	require.True(t, r.CanRead(w))
	require.False(t, schema.Primitive(schema.String).CanRead(w))
}

func TestResolve_RecordEvolution(t *testing.T) {
	v1 := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"},
		{"name": "gone", "type": "string"}]}`)
	v2 := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "b", "type": "long", "aliases": ["a"]},
		{"name": "added", "type": "string", "default": "x"}]}`)
	require.NoError(t, schema.Resolve(v1, v2))

	res, err := schema.ResolveRecord(v1.(*schema.RecordSchema), v2.(*schema.RecordSchema))
	require.NoError(t, err)
	require.Len(t, res.Actions, 2)
	require.Equal(t, schema.ActionRead, res.Actions[0].Kind)
	require.Equal(t, "b", res.Actions[0].Reader.Name)
	require.Equal(t, schema.ActionSkip, res.Actions[1].Kind)
	require.Len(t, res.Defaults, 1)
	require.Equal(t, "added", res.Defaults[0].Name)
	require.Equal(t, schema.MatchProject, schema.Classify(v1, v2))

	noDefault := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"},
		{"name": "z", "type": "string"}]}`)
	err = schema.Resolve(v1, noDefault)
	require.True(t, baiji.IsCode(err, baiji.CodeIncompatible))
	iss, _ := baiji.AsIssues(err)
	require.Equal(t, "/fields/z", iss[0].Path)
}

func TestResolve_NestedPath(t *testing.T) {
	w := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "b", "type": {"type": "array", "items": "string"}}]}`)
	r := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "b", "type": {"type": "array", "items": "int"}}]}`)
	err := schema.Resolve(w, r)
	iss, ok := baiji.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, "/fields/b/items", iss[0].Path)
	require.Equal(t, schema.MatchNone, schema.Classify(w, r))
}

func TestResolve_RecursiveRecords(t *testing.T) {
	w := schema.MustParse(`{"type": "record", "name": "Node", "fields": [
		{"name": "v", "type": "int"},
		{"name": "next", "type": ["null", "Node"]}]}`)
	r := schema.MustParse(`{"type": "record", "name": "Node", "fields": [
		{"name": "v", "type": "long"},
		{"name": "next", "type": ["null", "Node"]}]}`)
	require.True(t, r.CanRead(w))
	require.True(t, w.CanRead(w))
	require.False(t, w.CanRead(r))
}

func TestClassify(t *testing.T) {
	p := schema.MustParse(personSchema)
	require.Equal(t, schema.MatchDirect, schema.Classify(p, p))
	require.Equal(t, schema.MatchPromote, schema.Classify(schema.Primitive(schema.Int), schema.Primitive(schema.Double)))
	require.Equal(t, schema.MatchProject, schema.Classify(schema.Primitive(schema.Int), schema.MustParse(`["null", "int"]`)))
	require.Equal(t, "none", schema.MatchNone.String())
}

func TestCheckCompatibility(t *testing.T) {
	v1 := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`)
	v2 := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"}, {"name": "b", "type": "string", "default": ""}]}`)
	v3 := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "b", "type": "string", "default": ""}]}`)

	require.NoError(t, schema.CheckCompatibility([]schema.Schema{v1}, v2, schema.CompatFull))
	require.NoError(t, schema.CheckCompatibility([]schema.Schema{v1, v2}, v3, schema.CompatBackward))
	// v3 drops a, which v1 and v2 read without default.
	err := schema.CheckCompatibility([]schema.Schema{v1, v2}, v3, schema.CompatForwardTransitive)
	require.True(t, baiji.IsCode(err, baiji.CodeIncompatible))
	require.NoError(t, schema.CheckCompatibility([]schema.Schema{v1, v2}, v3, schema.CompatNone))

	lvl, err := schema.ParseCompatibility("full_transitive")
	require.NoError(t, err)
	require.Equal(t, schema.CompatFullTransitive, lvl)
	_, err = schema.ParseCompatibility("sideways")
	require.Error(t, err)
}
