package schema_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

const personSchema = `{
  "type": "record", "name": "Person", "namespace": "example.people",
  "fields": [
    {"name": "name", "type": "string"},
    {"name": "age", "type": "int", "default": 0},
    {"name": "emails", "type": {"type": "array", "items": "string"}},
    {"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B"]}},
    {"name": "friend", "type": ["null", "Person"], "default": null}
  ]
}`

func TestParse_Primitives(t *testing.T) {
	for _, name := range []string{"null", "boolean", "int", "long", "float", "double", "bytes", "string", "datetime"} {
		s, err := schema.ParseString(`"` + name + `"`)
		require.NoError(t, err, name)
		require.Equal(t, name, s.Type().String())

		obj, err := schema.ParseString(`{"type": "` + name + `"}`)
		require.NoError(t, err, name)
		require.True(t, s.Equal(obj), name)
	}
}

func TestParse_RecordAndNames(t *testing.T) {
	s := schema.MustParse(personSchema)
	rec, ok := s.(*schema.RecordSchema)
	require.True(t, ok)
	require.Equal(t, "example.people.Person", rec.FullName())
	require.Equal(t, 5, rec.Len())

	for i, f := range rec.Fields() {
		require.Equal(t, i, f.Pos)
	}

	age, ok := rec.Field("age")
	require.True(t, ok)
	require.True(t, age.HasDefault)

	kind, _ := rec.Field("kind")
	enum := kind.Schema.(*schema.EnumSchema)
	require.Equal(t, "example.people.Kind", enum.FullName(), "enum inherits the enclosing namespace")
	require.Equal(t, 1, enum.Ordinal("B"))
	require.Equal(t, -1, enum.Ordinal("C"))

	// The self reference resolves to the very same object.
	friend, _ := rec.Field("friend")
	u := friend.Schema.(*schema.UnionSchema)
	require.Same(t, rec, u.Branch(1))
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		code string
	}{
		{"unknown type", `"nope"`, baiji.CodeUnknownType},
		{"array without items", `{"type": "array"}`, baiji.CodeMissingAttribute},
		{"map without values", `{"type": "map"}`, baiji.CodeMissingAttribute},
		{"record without fields", `{"type": "record", "name": "R"}`, baiji.CodeMissingAttribute},
		{"enum without name", `{"type": "enum", "symbols": ["A"]}`, baiji.CodeMissingAttribute},
		{"nested union", `["null", ["int", "string"]]`, baiji.CodeInvalidSchema},
		{"duplicate branch", `["int", "int"]`, baiji.CodeInvalidSchema},
		{"duplicate symbol", `{"type": "enum", "name": "E", "symbols": ["A", "A"]}`, baiji.CodeInvalidSchema},
		{"duplicate field", `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "a", "type": "int"}]}`, baiji.CodeInvalidSchema},
		{"duplicate name", `["null", {"type": "enum", "name": "E", "symbols": ["A"]}, {"type": "record", "name": "E", "fields": []}]`, baiji.CodeDuplicateName},
		{"duplicate json key", `{"type": "int", "type": "long"}`, baiji.CodeDuplicateKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.ParseString(tc.doc)
			require.Error(t, err)
			require.True(t, baiji.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestParse_ErrorPath(t *testing.T) {
	_, err := schema.ParseString(`{"type": "record", "name": "R", "fields": [
		{"name": "xs", "type": {"type": "array", "items": "missing"}}]}`)
	iss, ok := baiji.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, "/fields/xs/items", iss[0].Path)
}

func TestEqual_PropsAndRecursion(t *testing.T) {
	a := schema.MustParse(personSchema)
	b := schema.MustParse(personSchema)
	require.NotSame(t, a, b)
	require.True(t, a.Equal(b))

	withProp := schema.MustParse(`{"type": "int", "logical": "x"}`)
	require.False(t, withProp.Equal(schema.Primitive(schema.Int)))
	require.True(t, withProp.Equal(schema.MustParse(`{"type": "int", "logical": "x"}`)))

	other := schema.MustParse(`{"type": "record", "name": "Person", "namespace": "other", "fields": []}`)
	require.False(t, a.Equal(other))
}

func TestString_RoundTrip(t *testing.T) {
	s := schema.MustParse(personSchema)
	text := s.String()

	again, err := schema.ParseString(text)
	require.NoError(t, err, text)
	require.True(t, s.Equal(again))
	require.Equal(t, text, again.String())

	// The recursive reference is printed by name.
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	fields := doc["fields"].([]any)
	friend := fields[4].(map[string]any)
	require.Equal(t, []any{"null", "Person"}, friend["type"])
}

func TestCanonicalAndFingerprint(t *testing.T) {
	a := schema.MustParse(`{"type": "record", "name": "R", "namespace": "ns", "doc": "d",
		"fields": [{"name": "a", "type": "int", "default": 1, "doc": "x"}]}`)
	b := schema.MustParse(`{"type": "record", "name": "ns.R", "fields": [{"name": "a", "type": {"type": "int"}}]}`)
	require.Equal(t, `{"name":"ns.R","type":"record","fields":[{"name":"a","type":"int"}]}`, schema.Canonical(a))
	require.Equal(t, schema.Canonical(a), schema.Canonical(b))
	require.Equal(t, schema.Fingerprint64(a), schema.Fingerprint64(b))

	c := schema.MustParse(`{"type": "record", "name": "ns.R", "fields": [{"name": "a", "type": "long"}]}`)
	require.NotEqual(t, schema.Fingerprint64(a), schema.Fingerprint64(c))
}

func TestNames_Lookup(t *testing.T) {
	names := schema.NewNames()
	e, err := schema.NewEnum(schema.NewName("E", "a.b", ""), []string{"X"}, "", "", nil, nil)
	require.NoError(t, err)
	require.NoError(t, names.Add(e))
	require.True(t, baiji.IsCode(names.Add(e), baiji.CodeDuplicateName))

	got, ok := names.Lookup("E", "", "a.b")
	require.True(t, ok)
	require.Same(t, e, got)
	got, ok = names.Lookup("a.b.E", "", "zzz")
	require.True(t, ok)
	require.Same(t, e, got)
	_, ok = names.Lookup("E", "", "c")
	require.False(t, ok)
	require.Len(t, names.All(), 1)
}

func TestParseNode_SharedNames(t *testing.T) {
	names := schema.NewNames()
	d := baiji.GetSchemaDriver()
	n1, err := d.Parse([]byte(`{"type": "enum", "name": "ns.Color", "symbols": ["RED"]}`), baiji.DefaultParseOpt())
	require.NoError(t, err)
	color, err := schema.ParseNode(n1, names)
	require.NoError(t, err)

	n2, err := d.Parse([]byte(`{"type": "array", "items": "ns.Color"}`), baiji.DefaultParseOpt())
	require.NoError(t, err)
	arr, err := schema.ParseNode(n2, names)
	require.NoError(t, err)
	require.Same(t, color, arr.(*schema.ArraySchema).Items())
}
