package generic

import (
	"time"

	"go.uber.org/zap"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/schema"
)

type writeFn func(v any, e binary.Encoder) error

// Writer is a prebuilt encode plan for one schema. It is immutable and safe
// for concurrent use; each goroutine needs its own Encoder.
type Writer struct {
	schema schema.Schema
	write  writeFn
}

// NewWriter builds the encode plan for s over access.
func NewWriter(s schema.Schema, access WriterAccess, opts ...Option) (*Writer, error) {
	o := newOptions(opts)
	b := &writerBuilder{access: access, records: map[*schema.RecordSchema]*recordWriter{}}
	fn, err := b.build(s, baiji.Root())
	if err != nil {
		o.logger.Debug("writer plan failed", zap.Error(err))
		return nil, err
	}
	o.logger.Debug("writer plan built",
		zap.String("type", s.Type().String()),
		zap.Int("records", len(b.records)),
		zap.Uint64("fingerprint", schema.Fingerprint64(s)))
	return &Writer{schema: s, write: fn}, nil
}

// Schema returns the schema the plan writes.
func (w *Writer) Schema() schema.Schema { return w.schema }

// Write encodes one value. On error the encoder may hold a partially written
// value and the caller should discard the output.
func (w *Writer) Write(v any, e binary.Encoder) error { return w.write(v, e) }

type writerBuilder struct {
	access  WriterAccess
	records map[*schema.RecordSchema]*recordWriter
}

type fieldWriter struct {
	field *schema.Field
	write writeFn
	path  baiji.PathRef
}

type recordWriter struct {
	schema *schema.RecordSchema
	fields []fieldWriter
}

func mismatch(p baiji.PathRef, want schema.Type, v any) error {
	return at(p, typeError("expected %s, got %T", want, v))
}

func (b *writerBuilder) build(s schema.Schema, p baiji.PathRef) (writeFn, error) {
	a := b.access
	switch s.Type() {
	case schema.Null:
		return func(v any, e binary.Encoder) error {
			if a.Kind(v) != KindNull {
				return mismatch(p, schema.Null, v)
			}
			return e.WriteNull()
		}, nil
	case schema.Boolean:
		return func(v any, e binary.Encoder) error {
			x, ok := v.(bool)
			if !ok {
				return mismatch(p, schema.Boolean, v)
			}
			return e.WriteBoolean(x)
		}, nil
	case schema.Int:
		return func(v any, e binary.Encoder) error {
			x, ok := asInt(v)
			if !ok {
				return mismatch(p, schema.Int, v)
			}
			return e.WriteInt(x)
		}, nil
	case schema.Long:
		return func(v any, e binary.Encoder) error {
			x, ok := asLong(v)
			if !ok {
				return mismatch(p, schema.Long, v)
			}
			return e.WriteLong(x)
		}, nil
	case schema.Float:
		return func(v any, e binary.Encoder) error {
			x, ok := asFloat(v)
			if !ok {
				return mismatch(p, schema.Float, v)
			}
			return e.WriteFloat(x)
		}, nil
	case schema.Double:
		return func(v any, e binary.Encoder) error {
			x, ok := asDouble(v)
			if !ok {
				return mismatch(p, schema.Double, v)
			}
			return e.WriteDouble(x)
		}, nil
	case schema.Bytes:
		return func(v any, e binary.Encoder) error {
			x, ok := v.([]byte)
			if !ok {
				return mismatch(p, schema.Bytes, v)
			}
			return e.WriteBytes(x)
		}, nil
	case schema.String:
		return func(v any, e binary.Encoder) error {
			x, ok := v.(string)
			if !ok {
				return mismatch(p, schema.String, v)
			}
			return at(p, e.WriteString(x))
		}, nil
	case schema.Datetime:
		return func(v any, e binary.Encoder) error {
			x, ok := v.(time.Time)
			if !ok {
				return mismatch(p, schema.Datetime, v)
			}
			return e.WriteDatetime(x)
		}, nil
	case schema.Enum:
		es := s.(*schema.EnumSchema)
		return func(v any, e binary.Encoder) error {
			i, err := a.EnumOrdinal(es, v)
			if err != nil {
				return at(p, err)
			}
			return e.WriteEnum(i)
		}, nil
	case schema.Array:
		return b.buildArray(s.(*schema.ArraySchema), p)
	case schema.Map:
		return b.buildMap(s.(*schema.MapSchema), p)
	case schema.Union:
		return b.buildUnion(s.(*schema.UnionSchema), p)
	case schema.Record:
		return b.buildRecord(s.(*schema.RecordSchema), p)
	}
	return nil, baiji.Issuef(p, baiji.CodeInvalidSchema, "cannot write %s", s.Type())
}

func (b *writerBuilder) buildArray(s *schema.ArraySchema, p baiji.PathRef) (writeFn, error) {
	items, err := b.build(s.Items(), p.Items())
	if err != nil {
		return nil, err
	}
	a := b.access
	return func(v any, e binary.Encoder) error {
		if a.Kind(v) != KindArray {
			return mismatch(p, schema.Array, v)
		}
		n, err := a.Len(v)
		if err != nil {
			return at(p, err)
		}
		if err := e.WriteArrayStart(); err != nil {
			return err
		}
		if err := e.SetItemCount(int64(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := e.StartItem(); err != nil {
				return err
			}
			if err := items(a.Item(v, i), e); err != nil {
				return err
			}
		}
		return e.WriteArrayEnd()
	}, nil
}

func (b *writerBuilder) buildMap(s *schema.MapSchema, p baiji.PathRef) (writeFn, error) {
	values, err := b.build(s.Values(), p.Values())
	if err != nil {
		return nil, err
	}
	a := b.access
	return func(v any, e binary.Encoder) error {
		if a.Kind(v) != KindMap {
			return mismatch(p, schema.Map, v)
		}
		n, err := a.Len(v)
		if err != nil {
			return at(p, err)
		}
		if err := e.WriteMapStart(); err != nil {
			return err
		}
		if err := e.SetItemCount(int64(n)); err != nil {
			return err
		}
		err = a.Range(v, func(k string, val any) error {
			if err := e.StartItem(); err != nil {
				return err
			}
			if err := e.WriteString(k); err != nil {
				return at(p, err)
			}
			return values(val, e)
		})
		if err != nil {
			return err
		}
		return e.WriteMapEnd()
	}, nil
}

func (b *writerBuilder) buildUnion(s *schema.UnionSchema, p baiji.PathRef) (writeFn, error) {
	writers := make([]writeFn, s.Len())
	for i, br := range s.Branches() {
		fn, err := b.build(br, p.Branch(i))
		if err != nil {
			return nil, err
		}
		writers[i] = fn
	}
	a := b.access
	return func(v any, e binary.Encoder) error {
		i, err := UnionBranch(a, s, v)
		if err != nil {
			return baiji.Issuef(p, baiji.CodeNoUnionBranch, "no branch of %s matches %s value %T", s, a.Kind(v), v)
		}
		if err := e.WriteUnionIndex(i); err != nil {
			return err
		}
		return writers[i](v, e)
	}, nil
}

func (b *writerBuilder) buildRecord(s *schema.RecordSchema, p baiji.PathRef) (writeFn, error) {
	rw, seen := b.records[s]
	if !seen {
		// Registered before the fields so recursive references reuse it.
		rw = &recordWriter{schema: s}
		b.records[s] = rw
		fields := make([]fieldWriter, 0, s.Len())
		for _, f := range s.Fields() {
			fp := p.Field(f.Name)
			fn, err := b.build(f.Schema, fp)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fieldWriter{field: f, write: fn, path: fp})
		}
		rw.fields = fields
	}
	a := b.access
	return func(v any, e binary.Encoder) error {
		if a.Kind(v) != KindRecord {
			return mismatch(p, schema.Record, v)
		}
		for _, fw := range rw.fields {
			fv, err := a.Field(v, fw.field)
			if err != nil {
				return at(fw.path, err)
			}
			if err := fw.write(fv, e); err != nil {
				return err
			}
		}
		return nil
	}, nil
}
