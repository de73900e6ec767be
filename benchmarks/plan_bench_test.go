package benchmarks_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/codec"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
)

// --- Fixtures ---

var orderV1 = schema.MustParse(`{"type": "record", "name": "Order", "namespace": "bench",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "customer", "type": "string"},
    {"name": "lines", "type": {"type": "array", "items": {"type": "record", "name": "Line",
      "fields": [{"name": "sku", "type": "string"}, {"name": "qty", "type": "int"}, {"name": "price", "type": "float"}]}}},
    {"name": "tags", "type": {"type": "map", "values": "string"}},
    {"name": "note", "type": ["null", "string"]}
  ]}`)

// orderV2 promotes qty and price, drops tags and adds a defaulted field.
var orderV2 = schema.MustParse(`{"type": "record", "name": "Order", "namespace": "bench",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "customer", "type": "string"},
    {"name": "lines", "type": {"type": "array", "items": {"type": "record", "name": "Line",
      "fields": [{"name": "sku", "type": "string"}, {"name": "qty", "type": "long"}, {"name": "price", "type": "double"}]}}},
    {"name": "note", "type": ["null", "string"]},
    {"name": "currency", "type": "string", "default": "EUR"}
  ]}`)

func order(tb testing.TB) *generic.Record {
	tb.Helper()
	rs := orderV1.(*schema.RecordSchema)
	f, _ := rs.Field("lines")
	line := f.Schema.(*schema.ArraySchema).Items().(*schema.RecordSchema)
	lines := make([]any, 0, 16)
	for i := 0; i < 16; i++ {
		l := generic.NewRecord(line)
		l.Put(0, "SKU-0001")
		l.Put(1, int32(i+1))
		l.Put(2, float32(9.99))
		lines = append(lines, l)
	}
	o := generic.NewRecord(rs)
	o.Put(0, int64(123456789))
	o.Put(1, "customer@example.com")
	o.Put(2, lines)
	o.Put(3, map[string]any{"channel": "web", "region": "eu"})
	o.Put(4, "leave at the door")
	return o
}

func encoded(tb testing.TB) []byte {
	tb.Helper()
	w, err := generic.NewWriter(orderV1, generic.Access{})
	if err != nil {
		tb.Fatalf("writer: %v", err)
	}
	var buf bytes.Buffer
	if err := w.Write(order(tb), binary.NewEncoder(&buf)); err != nil {
		tb.Fatalf("write: %v", err)
	}
	return buf.Bytes()
}

// --- Plans ---

func Benchmark_Plan_Build_Writer(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := generic.NewWriter(orderV1, generic.Access{}); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Plan_Build_ResolvingReader(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := generic.NewReader(orderV1, orderV2, generic.Access{}); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Plan_CacheHit(b *testing.B) {
	cache := generic.NewPlanCache(generic.Access{})
	if _, err := cache.Reader(orderV1, orderV2); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cache.Reader(orderV1, orderV2); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Replay ---

func Benchmark_Replay_Write(b *testing.B) {
	w, err := generic.NewWriter(orderV1, generic.Access{})
	if err != nil {
		b.Fatal(err)
	}
	v := order(b)
	var buf bytes.Buffer
	e := binary.NewEncoder(&buf)
	b.ReportAllocs()
	b.SetBytes(int64(len(encoded(b))))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := w.Write(v, e); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Replay_Read_Direct(b *testing.B) {
	benchRead(b, orderV1, orderV1, false)
}

func Benchmark_Replay_Read_Direct_Reuse(b *testing.B) {
	benchRead(b, orderV1, orderV1, true)
}

func Benchmark_Replay_Read_Resolving(b *testing.B) {
	benchRead(b, orderV1, orderV2, false)
}

func benchRead(b *testing.B, writer, reader schema.Schema, reuse bool) {
	r, err := generic.NewReader(writer, reader, generic.Access{})
	if err != nil {
		b.Fatal(err)
	}
	data := encoded(b)
	var prev any
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v, err := r.Read(prev, binary.NewDecoder(bytes.NewReader(data)))
		if err != nil {
			b.Fatal(err)
		}
		if reuse {
			prev = v
		}
	}
}

func Benchmark_Skip(b *testing.B) {
	data := encoded(b)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := binary.Skip(binary.NewDecoder(bytes.NewReader(data)), orderV1); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Codec_Unmarshal(b *testing.B) {
	ctx := context.Background()
	c, err := codec.NewResolving(orderV1, orderV2)
	if err != nil {
		b.Fatal(err)
	}
	data := encoded(b)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Unmarshal(ctx, data); err != nil {
			b.Fatal(err)
		}
	}
}
