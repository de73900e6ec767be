// Package codec bundles a writer plan and a reader plan into a value codec
// over byte slices and streams, and adds schema-ID framing for payloads whose
// writer schema is looked up in a SchemaStore.
package codec

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
)

// Codec encodes values under its local schema and decodes data written under
// a writer schema into the local representation.
type Codec struct {
	writer  *generic.Writer
	reader  *generic.Reader
	decOpts []binary.Option
	logger  *zap.Logger
}

// New creates a codec whose writer and reader schema are both s.
func New(s schema.Schema, opts ...Option) (*Codec, error) {
	return NewResolving(s, s, opts...)
}

// NewResolving creates a codec that reads data written under writer as
// reader. Marshal and Encode write under reader, the local schema. Plans are
// checked when the codec is created, so an incompatible pair fails here.
func NewResolving(writer, reader schema.Schema, opts ...Option) (*Codec, error) {
	o := newOptions(opts)
	cache := o.planCache()
	w, err := cache.Writer(reader)
	if err != nil {
		return nil, err
	}
	r, err := cache.Reader(writer, reader)
	if err != nil {
		return nil, err
	}
	return &Codec{writer: w, reader: r, decOpts: o.decOpts, logger: o.logger}, nil
}

// Schema returns the local schema.
func (c *Codec) Schema() schema.Schema { return c.reader.ReaderSchema() }

// WriterSchema returns the schema decoded data is expected to be written in.
func (c *Codec) WriterSchema() schema.Schema { return c.reader.WriterSchema() }

// Marshal encodes v.
func (c *Codec) Marshal(ctx context.Context, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(ctx, &buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes exactly one value from data. Trailing bytes are an error.
func (c *Codec) Unmarshal(ctx context.Context, data []byte) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := binary.NewDecoder(bytes.NewReader(data), c.decOpts...)
	v, err := c.reader.Read(nil, d)
	if err != nil {
		return nil, err
	}
	if rest := int64(len(data)) - d.Offset(); rest > 0 {
		it := baiji.Root().Issue(baiji.CodeParseError)
		it.Hint = "trailing bytes after value"
		it.Offset = d.Offset()
		return nil, baiji.Issues{it}
	}
	return v, nil
}

// Encode writes v to w and flushes.
func (c *Codec) Encode(ctx context.Context, w io.Writer, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := binary.NewEncoder(w)
	if err := c.writer.Write(v, e); err != nil {
		return err
	}
	return e.Flush()
}

// Decode reads one value from r. A reader that is not an io.ByteReader is
// buffered and may be read past the value; use DecodeEach for streams.
func (c *Codec) Decode(ctx context.Context, r io.Reader) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.reader.Read(nil, binary.NewDecoder(r, c.decOpts...))
}

// DecodeEach reads consecutive values from r until a clean end of input and
// calls fn with each. Input ending inside a value is reported as truncated.
// ctx is checked between values.
func (c *Codec) DecodeEach(ctx context.Context, r io.Reader, fn func(v any) error) error {
	d := binary.NewDecoder(r, c.decOpts...)
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := d.Offset()
		v, err := c.reader.Read(nil, d)
		if err != nil {
			if errors.Is(err, io.EOF) && d.Offset() == start {
				c.logger.Debug("stream decoded", zap.Int("values", n), zap.Int64("bytes", start))
				return nil
			}
			return err
		}
		if d.Offset() == start {
			return baiji.IssueAt(baiji.Root(), baiji.CodeInvalidSchema, "values of this schema take no bytes and cannot be streamed")
		}
		n++
		if err := fn(v); err != nil {
			return err
		}
	}
}
