package codec_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/codec"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
)

var (
	eventV1 = schema.MustParse(`{"type": "record", "name": "Event", "namespace": "test",
	  "fields": [{"name": "id", "type": "long"}, {"name": "kind", "type": "string"}]}`)
	eventV2 = schema.MustParse(`{"type": "record", "name": "Event", "namespace": "test",
	  "fields": [{"name": "id", "type": "long"}, {"name": "kind", "type": "string"},
	    {"name": "weight", "type": "double", "default": 1.5}]}`)
)

func event(t *testing.T, s schema.Schema, id int64, kind string) *generic.Record {
	t.Helper()
	r := generic.NewRecord(s.(*schema.RecordSchema))
	require.NoError(t, r.PutByName("id", id))
	require.NoError(t, r.PutByName("kind", kind))
	return r
}

func TestCodec_MarshalUnmarshal(t *testing.T) {
	ctx := context.Background()
	c, err := codec.New(eventV1)
	require.NoError(t, err)

	data, err := c.Marshal(ctx, event(t, eventV1, 3, "click"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x06, 0x0a, 'c', 'l', 'i', 'c', 'k'}, data)

	v, err := c.Unmarshal(ctx, data)
	require.NoError(t, err)
	got := v.(*generic.Record)
	kind, _ := got.GetByName("kind")
	require.Equal(t, "click", kind)

	_, err = c.Unmarshal(ctx, append(data, 0))
	require.True(t, baiji.IsCode(err, baiji.CodeParseError))

	_, err = c.Unmarshal(ctx, data[:3])
	require.True(t, baiji.IsCode(err, baiji.CodeTruncated))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCodec_Resolving(t *testing.T) {
	ctx := context.Background()
	old, err := codec.New(eventV1)
	require.NoError(t, err)
	data, err := old.Marshal(ctx, event(t, eventV1, 1, "view"))
	require.NoError(t, err)

	c, err := codec.NewResolving(eventV1, eventV2)
	require.NoError(t, err)
	require.True(t, c.Schema().Equal(eventV2))
	require.True(t, c.WriterSchema().Equal(eventV1))
	v, err := c.Unmarshal(ctx, data)
	require.NoError(t, err)
	w, _ := v.(*generic.Record).GetByName("weight")
	require.Equal(t, 1.5, w)

	_, err = codec.NewResolving(schema.Primitive(schema.String), schema.Primitive(schema.Int))
	require.True(t, baiji.IsCode(err, baiji.CodeIncompatible))
}

func TestCodec_Streams(t *testing.T) {
	ctx := context.Background()
	c, err := codec.New(schema.Primitive(schema.Long))
	require.NoError(t, err)

	var buf bytes.Buffer
	for _, v := range []int64{1, -2, 300} {
		require.NoError(t, c.Encode(ctx, &buf, v))
	}
	var got []any
	require.NoError(t, c.DecodeEach(ctx, bytes.NewReader(buf.Bytes()), func(v any) error {
		got = append(got, v)
		return nil
	}))
	require.Equal(t, []any{int64(1), int64(-2), int64(300)}, got)

	one, err := c.Decode(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int64(1), one)

	// 300 is two bytes; drop the last one.
	cut := buf.Bytes()[:buf.Len()-1]
	err = c.DecodeEach(ctx, bytes.NewReader(cut), func(any) error { return nil })
	require.True(t, baiji.IsCode(err, baiji.CodeTruncated))

	stop := errors.New("stop")
	err = c.DecodeEach(ctx, bytes.NewReader(buf.Bytes()), func(any) error { return stop })
	require.ErrorIs(t, err, stop)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Marshal(cancelled, int64(1))
	require.ErrorIs(t, err, context.Canceled)
	err = c.DecodeEach(cancelled, bytes.NewReader(buf.Bytes()), func(any) error { return nil })
	require.ErrorIs(t, err, context.Canceled)

	n, err := codec.New(schema.Primitive(schema.Null))
	require.NoError(t, err)
	err = n.DecodeEach(ctx, bytes.NewReader(nil), func(any) error { return nil })
	require.True(t, baiji.IsCode(err, baiji.CodeInvalidSchema))
}

func TestCodec_StreamsFixedWidthFirst(t *testing.T) {
	ctx := context.Background()
	point := schema.MustParse(`{"type": "record", "name": "Point",
	  "fields": [{"name": "x", "type": "float"}, {"name": "y", "type": "int"}]}`)
	p := generic.NewRecord(point.(*schema.RecordSchema))
	require.NoError(t, p.PutByName("x", float32(1.5)))
	require.NoError(t, p.PutByName("y", int32(2)))

	for _, tc := range []struct {
		s schema.Schema
		v any
	}{
		{schema.Primitive(schema.Double), 2.25},
		{schema.Primitive(schema.Float), float32(0.5)},
		{point, p},
	} {
		c, err := codec.New(tc.s)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, c.Encode(ctx, &buf, tc.v))
		require.NoError(t, c.Encode(ctx, &buf, tc.v))

		n := 0
		require.NoError(t, c.DecodeEach(ctx, bytes.NewReader(buf.Bytes()), func(any) error {
			n++
			return nil
		}), "schema %s", tc.s)
		require.Equal(t, 2, n)

		cut := buf.Bytes()[:buf.Len()-1]
		err = c.DecodeEach(ctx, bytes.NewReader(cut), func(any) error { return nil })
		require.True(t, baiji.IsCode(err, baiji.CodeTruncated), "schema %s", tc.s)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	}
}

func TestCodec_SkippedBlockLimit(t *testing.T) {
	ctx := context.Background()
	writer := schema.MustParse(`{"type": "record", "name": "R", "fields": [
	  {"name": "a", "type": {"type": "array", "items": "null"}}, {"name": "b", "type": "int"}]}`)
	reader := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "b", "type": "int"}]}`)
	var buf bytes.Buffer
	e := binary.NewEncoder(&buf)
	require.NoError(t, e.WriteArrayStart())
	require.NoError(t, e.SetItemCount(1<<40))
	require.NoError(t, e.WriteArrayEnd())
	require.NoError(t, e.WriteInt(7))
	require.NoError(t, e.Flush())

	c, err := codec.NewResolving(writer, reader)
	require.NoError(t, err)
	_, err = c.Unmarshal(ctx, buf.Bytes())
	require.True(t, baiji.IsCode(err, baiji.CodeTooBig), "%v", err)
}

func TestCodec_SharedRegisterer(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	ints, err := codec.New(schema.Primitive(schema.Int), codec.WithRegisterer(reg))
	require.NoError(t, err)
	strs, err := codec.New(schema.Primitive(schema.String), codec.WithRegisterer(reg))
	require.NoError(t, err)

	_, err = ints.Marshal(ctx, int32(1))
	require.NoError(t, err)
	_, err = strs.Marshal(ctx, "s")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	require.Contains(t, names, "baiji_plan_cache_builds_total")
}

func TestCodec_DecoderOptions(t *testing.T) {
	ctx := context.Background()
	c, err := codec.New(schema.Primitive(schema.String), codec.WithDecoderOptions(binary.WithMaxBytesLength(4)))
	require.NoError(t, err)
	data, err := c.Marshal(ctx, "too long")
	require.NoError(t, err)
	_, err = c.Unmarshal(ctx, data)
	require.True(t, baiji.IsCode(err, baiji.CodeTooBig))
}

func TestSchemaID(t *testing.T) {
	h := codec.EncodeSchemaID(0x01020304)
	require.Equal(t, []byte{0, 1, 2, 3, 4}, h)

	id, body, err := codec.DecodeSchemaID(append(h, 0xaa))
	require.NoError(t, err)
	require.Equal(t, uint32(0x01020304), id)
	require.Equal(t, []byte{0xaa}, body)

	_, _, err = codec.DecodeSchemaID([]byte{0, 1})
	require.True(t, baiji.IsCode(err, baiji.CodeTruncated))
	_, _, err = codec.DecodeSchemaID([]byte{1, 0, 0, 0, 1})
	require.True(t, baiji.IsCode(err, baiji.CodeParseError))
}

func TestMemoryStore_Subjects(t *testing.T) {
	store := codec.NewMemoryStore()
	id1, err := store.RegisterSubject("events", eventV1, schema.CompatBackward)
	require.NoError(t, err)
	id2, err := store.RegisterSubject("events", eventV2, schema.CompatBackward)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	again, err := store.RegisterSubject("events", eventV2, schema.CompatBackward)
	require.NoError(t, err)
	require.Equal(t, id2, again)
	require.Equal(t, []uint32{id1, id2}, store.Versions("events"))

	// Dropping a field without default cannot read older data.
	narrowed := schema.MustParse(`{"type": "record", "name": "Event", "namespace": "test",
	  "fields": [{"name": "id", "type": "long"}, {"name": "extra", "type": "int"}]}`)
	_, err = store.RegisterSubject("events", narrowed, schema.CompatBackward)
	require.True(t, baiji.IsCode(err, baiji.CodeIncompatible))

	require.Equal(t, id1, store.Register(schema.MustParse(eventV1.String())))
	got, ok := store.ID(eventV2)
	require.True(t, ok)
	require.Equal(t, id2, got)

	_, err = store.SchemaByID(context.Background(), 99)
	require.ErrorIs(t, err, codec.ErrUnknownSchemaID)
}

func TestFramedCodec(t *testing.T) {
	ctx := context.Background()
	store := codec.NewMemoryStore()
	id1 := store.Register(eventV1)
	id2 := store.Register(eventV2)
	reg := prometheus.NewRegistry()
	cache := generic.NewPlanCache(generic.Access{}, generic.WithRegisterer(reg))

	producer, err := codec.NewFramed(ctx, store, id1, codec.WithPlanCache(cache))
	require.NoError(t, err)
	consumer, err := codec.NewFramed(ctx, store, id2, codec.WithPlanCache(cache))
	require.NoError(t, err)
	require.Equal(t, id2, consumer.ID())

	data, err := producer.Marshal(ctx, event(t, eventV1, 9, "buy"))
	require.NoError(t, err)
	require.Equal(t, codec.EncodeSchemaID(id1), data[:codec.HeaderSize])

	v, err := consumer.Unmarshal(ctx, data)
	require.NoError(t, err)
	rec := v.(*generic.Record)
	require.True(t, rec.Schema().Equal(eventV2))
	kind, _ := rec.GetByName("kind")
	require.Equal(t, "buy", kind)

	// Consumer-side truncation reports the frame offset.
	_, err = consumer.Unmarshal(ctx, data[:codec.HeaderSize+1])
	iss, ok := baiji.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, baiji.CodeTruncated, iss[0].Code)
	require.Equal(t, int64(codec.HeaderSize+1), iss[0].Offset)

	unknown := append(codec.EncodeSchemaID(42), data[codec.HeaderSize:]...)
	_, err = consumer.Unmarshal(ctx, unknown)
	require.ErrorIs(t, err, codec.ErrUnknownSchemaID)

	_, err = codec.NewFramed(ctx, store, 77)
	require.ErrorIs(t, err, codec.ErrUnknownSchemaID)

	writers, readers := cache.Len()
	require.Equal(t, 2, writers)
	require.Equal(t, 1, readers)
}
