package generic_test

import (
	"bytes"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
)

func encode(t *testing.T, s schema.Schema, v any) []byte {
	t.Helper()
	w, err := generic.NewWriter(s, generic.Access{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, w.Write(v, binary.NewEncoder(&buf)))
	return buf.Bytes()
}

func decode(t *testing.T, writer, reader schema.Schema, data []byte) any {
	t.Helper()
	r, err := generic.NewReader(writer, reader, generic.Access{})
	require.NoError(t, err)
	d := binary.NewDecoder(bytes.NewReader(data))
	v, err := r.Read(nil, d)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), d.Offset(), "value must consume all input")
	return v
}

func TestRoundTrip_Scalars(t *testing.T) {
	cases := []struct {
		schema string
		values []any
	}{
		{`"null"`, []any{nil}},
		{`"boolean"`, []any{true, false}},
		{`"int"`, []any{int32(0), int32(math.MaxInt32), int32(math.MinInt32)}},
		{`"long"`, []any{int64(0), int64(math.MaxInt64), int64(math.MinInt64), int64(-1)}},
		{`"float"`, []any{float32(0), float32(1.5), float32(math.Inf(-1))}},
		{`"double"`, []any{0.0, -123.25, math.MaxFloat64}},
		{`"bytes"`, []any{[]byte{}, []byte{0, 1, 0xff}}},
		{`"string"`, []any{"", "héllo"}},
		{`"datetime"`, []any{time.UnixMilli(1_700_000_000_123).UTC()}},
	}
	for _, tc := range cases {
		s := schema.MustParse(tc.schema)
		for _, v := range tc.values {
			require.Equal(t, v, decode(t, s, nil, encode(t, s, v)), "%s %v", tc.schema, v)
		}
	}
}

func TestRoundTrip_FloatBits(t *testing.T) {
	s := schema.Primitive(schema.Double)
	for _, v := range []float64{math.Copysign(0, -1), math.NaN(), math.Float64frombits(0x7ff8000000000abc)} {
		got := decode(t, s, nil, encode(t, s, v)).(float64)
		require.Equal(t, math.Float64bits(v), math.Float64bits(got))
	}
}

const nodeSchema = `{"type": "record", "name": "Node", "namespace": "test",
  "fields": [
    {"name": "label", "type": "string"},
    {"name": "tags", "type": {"type": "array", "items": "string"}},
    {"name": "attrs", "type": {"type": "map", "values": "long"}},
    {"name": "color", "type": {"type": "enum", "name": "Color", "symbols": ["RED", "GREEN"]}},
    {"name": "next", "type": ["null", "Node"]}
  ]}`

func newNode(t *testing.T, s *schema.RecordSchema, label string, next any) *generic.Record {
	t.Helper()
	color, _ := s.Field("color")
	r := generic.NewRecord(s)
	require.NoError(t, r.PutByName("label", label))
	require.NoError(t, r.PutByName("tags", []any{"a", "b"}))
	require.NoError(t, r.PutByName("attrs", map[string]any{"x": int64(1)}))
	require.NoError(t, r.PutByName("color", generic.Enum{Schema: color.Schema.(*schema.EnumSchema), Symbol: "GREEN"}))
	require.NoError(t, r.PutByName("next", next))
	return r
}

func TestRoundTrip_RecursiveRecord(t *testing.T) {
	s := schema.MustParse(nodeSchema).(*schema.RecordSchema)
	v := newNode(t, s, "head", newNode(t, s, "tail", nil))
	got := decode(t, s, nil, encode(t, s, v))
	require.Equal(t, v, got)

	empty := generic.NewRecord(s)
	require.NoError(t, empty.PutByName("label", ""))
	require.NoError(t, empty.PutByName("tags", []any{}))
	require.NoError(t, empty.PutByName("attrs", map[string]any{}))
	require.NoError(t, empty.PutByName("color", "RED"))
	got = decode(t, s, nil, encode(t, s, empty)).(*generic.Record)
	color, _ := got.(*generic.Record).GetByName("color")
	require.Equal(t, "RED", color.(generic.Enum).Symbol)
}

func TestUnionDispatch(t *testing.T) {
	s := schema.MustParse(`["null", "int", "string"]`)
	for i, v := range []any{nil, int32(7), "seven"} {
		data := encode(t, s, v)
		require.Equal(t, byte(i*2), data[0], "branch index of %v", v)
		require.Equal(t, v, decode(t, s, nil, data))
	}

	// A plain Go int takes the int branch when it fits.
	require.Equal(t, []byte{0x02, 0x0a}, encode(t, s, 5))
	w, err := generic.NewWriter(s, generic.Access{})
	require.NoError(t, err)
	err = w.Write(1<<40, binary.NewEncoder(&bytes.Buffer{}))
	require.True(t, baiji.IsCode(err, baiji.CodeNoUnionBranch), "%v", err)

	// A long branch still wins for int values.
	wide := schema.MustParse(`["int", "long"]`)
	require.Equal(t, []byte{0x02, 0x0a}, encode(t, wide, 5))
	require.Equal(t, []byte{0x00, 0x0a}, encode(t, wide, int32(5)))
}

func TestUnionNamedBranches(t *testing.T) {
	s := schema.MustParse(`[
		{"type": "record", "name": "A", "fields": [{"name": "x", "type": "int"}]},
		{"type": "record", "name": "B", "fields": [{"name": "x", "type": "int"}]}]`)
	b := s.(*schema.UnionSchema).Branch(1).(*schema.RecordSchema)
	v := generic.NewRecord(b)
	v.Put(0, int32(3))
	data := encode(t, s, v)
	require.Equal(t, byte(2), data[0])
	require.Equal(t, v, decode(t, s, nil, data))
}

func TestWrite_ValueErrors(t *testing.T) {
	s := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "u", "type": ["null", "string"]},
		{"name": "n", "type": "int"}]}`).(*schema.RecordSchema)
	w, err := generic.NewWriter(s, generic.Access{})
	require.NoError(t, err)

	bad := generic.NewRecord(s)
	bad.Put(0, int64(1))
	bad.Put(1, int32(1))
	err = w.Write(bad, binary.NewEncoder(&bytes.Buffer{}))
	require.True(t, baiji.IsCode(err, baiji.CodeNoUnionBranch), "%v", err)
	iss, _ := baiji.AsIssues(err)
	require.Equal(t, "/fields/u", iss[0].Path)

	wrong := generic.NewRecord(s)
	wrong.Put(0, nil)
	wrong.Put(1, "one")
	err = w.Write(wrong, binary.NewEncoder(&bytes.Buffer{}))
	require.True(t, baiji.IsCode(err, baiji.CodeInvalidType))
	iss, _ = baiji.AsIssues(err)
	require.Equal(t, "/fields/n", iss[0].Path)

	// The plan is unaffected by earlier failures.
	good := generic.NewRecord(s)
	good.Put(0, "ok")
	good.Put(1, int32(2))
	var buf bytes.Buffer
	require.NoError(t, w.Write(good, binary.NewEncoder(&buf)))
	require.Equal(t, good, decode(t, s, nil, buf.Bytes()))

	enum := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["A"]}`)
	ew, err := generic.NewWriter(enum, generic.Access{})
	require.NoError(t, err)
	require.True(t, baiji.IsCode(ew.Write("Z", binary.NewEncoder(&bytes.Buffer{})), baiji.CodeInvalidEnum))
}

func TestRead_Promotions(t *testing.T) {
	data := encode(t, schema.Primitive(schema.Int), int32(-42))
	require.Equal(t, int64(-42), decode(t, schema.Primitive(schema.Int), schema.Primitive(schema.Long), data))
	require.Equal(t, float32(-42), decode(t, schema.Primitive(schema.Int), schema.Primitive(schema.Float), data))
	require.Equal(t, float64(-42), decode(t, schema.Primitive(schema.Int), schema.Primitive(schema.Double), data))

	fdata := encode(t, schema.Primitive(schema.Float), float32(0.5))
	require.Equal(t, 0.5, decode(t, schema.Primitive(schema.Float), schema.Primitive(schema.Double), fdata))

	_, err := generic.NewReader(schema.Primitive(schema.Long), schema.Primitive(schema.Int), generic.Access{})
	require.True(t, baiji.IsCode(err, baiji.CodeIncompatible))
}

func TestRead_RecordEvolution(t *testing.T) {
	writer := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"},
		{"name": "b", "type": "string"}]}`).(*schema.RecordSchema)
	reader := schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "b", "type": "string"},
		{"name": "c", "type": "int", "default": 7},
		{"name": "d", "type": ["null", "string"], "default": null}]}`).(*schema.RecordSchema)

	v := generic.NewRecord(writer)
	v.Put(0, int32(1))
	v.Put(1, "bee")
	got := decode(t, writer, reader, encode(t, writer, v)).(*generic.Record)
	require.Same(t, reader, got.Schema())
	require.Equal(t, []any{"bee", int32(7), nil}, got.Values())

	_, err := generic.NewReader(writer, schema.MustParse(`{"type": "record", "name": "R", "fields": [
		{"name": "z", "type": "int"}]}`), generic.Access{})
	require.True(t, baiji.IsCode(err, baiji.CodeIncompatible))
}

func TestRead_ReuseRecord(t *testing.T) {
	s := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "xs", "type": {"type": "array", "items": "int"}}]}`).(*schema.RecordSchema)
	r, err := generic.NewReader(s, nil, generic.Access{})
	require.NoError(t, err)

	v := generic.NewRecord(s)
	v.Put(0, []any{int32(1), int32(2)})
	data := encode(t, s, v)

	reuse := generic.NewRecord(s)
	reuse.Put(0, make([]any, 0, 8))
	got, err := r.Read(reuse, binary.NewDecoder(bytes.NewReader(data)))
	require.NoError(t, err)
	require.Same(t, reuse, got)
	require.Equal(t, []any{int32(1), int32(2)}, reuse.Get(0))
}

func TestRead_EnumEvolution(t *testing.T) {
	writer := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["A", "B", "C"]}`).(*schema.EnumSchema)
	reader := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["X", "A", "B"]}`).(*schema.EnumSchema)

	data := encode(t, writer, generic.Enum{Schema: writer, Symbol: "B"})
	require.Equal(t, []byte{0x02}, data)
	got := decode(t, writer, reader, data).(generic.Enum)
	require.Equal(t, "B", got.Symbol)
	require.Equal(t, 2, reader.Ordinal(got.Symbol))

	r, err := generic.NewReader(writer, reader, generic.Access{})
	require.NoError(t, err)
	_, err = r.Read(nil, binary.NewDecoder(bytes.NewReader(encode(t, writer, "C"))))
	require.True(t, baiji.IsCode(err, baiji.CodeInvalidEnum))

	withDefault := schema.MustParse(`{"type": "enum", "name": "E", "symbols": ["UNKNOWN", "A"], "default": "UNKNOWN"}`)
	got = decode(t, writer, withDefault, encode(t, writer, "C")).(generic.Enum)
	require.Equal(t, "UNKNOWN", got.Symbol)
}

func TestRead_UnionResolution(t *testing.T) {
	writer := schema.MustParse(`["null", "int", "string"]`)
	reader := schema.MustParse(`["null", "long"]`)
	r, err := generic.NewReader(writer, reader, generic.Access{})
	require.NoError(t, err)

	got, err := r.Read(nil, binary.NewDecoder(bytes.NewReader(encode(t, writer, int32(5)))))
	require.NoError(t, err)
	require.Equal(t, int64(5), got)

	// The string branch cannot be read; only data that uses it fails.
	_, err = r.Read(nil, binary.NewDecoder(bytes.NewReader(encode(t, writer, "s"))))
	require.True(t, baiji.IsCode(err, baiji.CodeNoUnionBranch))

	// A plain writer read through a reader union.
	got = decode(t, schema.Primitive(schema.Int), reader, encode(t, schema.Primitive(schema.Int), int32(9)))
	require.Equal(t, int64(9), got)
}

func TestRead_DecodeErrorPath(t *testing.T) {
	s := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "s", "type": "string"}]}`)
	r, err := generic.NewReader(s, nil, generic.Access{})
	require.NoError(t, err)
	_, err = r.Read(nil, binary.NewDecoder(bytes.NewReader([]byte{0x02, 0xff})))
	iss, ok := baiji.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, baiji.CodeInvalidUTF8, iss[0].Code)
	require.Equal(t, "/fields/s", iss[0].Path)
}

func TestJSON_Conversion(t *testing.T) {
	s := schema.MustParse(nodeSchema)
	in := map[string]any{
		"label": "n",
		"tags":  []any{"t"},
		"attrs": map[string]any{"k": float64(3)},
		"color": "RED",
		"next":  map[string]any{"test.Node": map[string]any{"label": "m", "tags": []any{}, "attrs": map[string]any{}, "color": "GREEN", "next": nil}},
	}
	datum, err := generic.FromJSON(s, in)
	require.NoError(t, err)
	rec := datum.(*generic.Record)
	attrs, _ := rec.GetByName("attrs")
	require.Equal(t, map[string]any{"k": int64(3)}, attrs)

	out, err := generic.ToJSON(s, decode(t, s, nil, encode(t, s, datum)))
	require.NoError(t, err)
	require.Equal(t, "n", out.(map[string]any)["label"])
	next := out.(map[string]any)["next"].(map[string]any)["test.Node"].(map[string]any)
	require.Equal(t, "GREEN", next["color"])

	_, err = generic.FromJSON(schema.Primitive(schema.Int), "x")
	require.True(t, baiji.IsCode(err, baiji.CodeInvalidType))

	b, err := generic.FromJSON(schema.Primitive(schema.Bytes), "ÿ\u0000")
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0x00}, b)
}

func TestPlanCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	cache := generic.NewPlanCache(generic.Access{}, generic.WithRegisterer(reg))

	s1 := schema.MustParse(nodeSchema)
	s2 := schema.MustParse(nodeSchema)
	w1, err := cache.Writer(s1)
	require.NoError(t, err)
	w2, err := cache.Writer(s2)
	require.NoError(t, err)
	require.Same(t, w1, w2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := cache.Reader(s1, nil)
			if err != nil {
				t.Error(err)
				return
			}
			var buf bytes.Buffer
			v := generic.NewRecord(s1.(*schema.RecordSchema))
			v.Put(0, "x")
			v.Put(1, []any{})
			v.Put(2, map[string]any{})
			v.Put(3, "RED")
			if err := w1.Write(v, binary.NewEncoder(&buf)); err != nil {
				t.Error(err)
				return
			}
			if _, err := r.Read(nil, binary.NewDecoder(&buf)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	writers, readers := cache.Len()
	require.Equal(t, 1, writers)
	require.Equal(t, 1, readers)

	_, err = cache.Reader(schema.Primitive(schema.String), schema.Primitive(schema.Int))
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["baiji_plan_cache_lookups_total"])
	require.True(t, names["baiji_plan_cache_builds_total"])
}
