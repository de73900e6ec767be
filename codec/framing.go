package codec

import (
	"bytes"
	"context"
	encbin "encoding/binary"
	"fmt"

	"go.uber.org/zap"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/generic"
	"github.com/reoring/baiji/schema"
)

// HeaderSize is the length of the schema-ID frame header.
const HeaderSize = 5

const magicByte = 0x0

// EncodeSchemaID returns the frame header for id: a zero magic byte followed
// by the id as a big-endian uint32.
func EncodeSchemaID(id uint32) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = magicByte
	encbin.BigEndian.PutUint32(buf[1:], id)
	return buf
}

// DecodeSchemaID splits a framed payload into its schema id and body.
func DecodeSchemaID(data []byte) (uint32, []byte, error) {
	if len(data) < HeaderSize {
		it := baiji.Root().Issue(baiji.CodeTruncated)
		it.Hint = fmt.Sprintf("frame header needs %d bytes, got %d", HeaderSize, len(data))
		it.Offset = int64(len(data))
		return 0, nil, baiji.Issues{it}
	}
	if data[0] != magicByte {
		it := baiji.Root().Issue(baiji.CodeParseError)
		it.Hint = fmt.Sprintf("invalid magic byte: expected 0x0, got 0x%x", data[0])
		it.Offset = 0
		return 0, nil, baiji.Issues{it}
	}
	return encbin.BigEndian.Uint32(data[1:HeaderSize]), data[HeaderSize:], nil
}

// FramedCodec writes payloads prefixed with the id of their schema and reads
// payloads written under any schema the store knows, resolving them against
// the local schema.
type FramedCodec struct {
	store   SchemaStore
	id      uint32
	local   schema.Schema
	cache   *generic.PlanCache
	decOpts []binary.Option
	logger  *zap.Logger
}

// NewFramed creates a framed codec whose local schema is registered in store
// under id.
func NewFramed(ctx context.Context, store SchemaStore, id uint32, opts ...Option) (*FramedCodec, error) {
	local, err := store.SchemaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	fc := &FramedCodec{store: store, id: id, local: local, cache: o.planCache(), decOpts: o.decOpts, logger: o.logger}
	if _, err := fc.cache.Writer(local); err != nil {
		return nil, err
	}
	return fc, nil
}

// ID returns the schema id written in every frame.
func (f *FramedCodec) ID() uint32 { return f.id }

// Schema returns the local schema.
func (f *FramedCodec) Schema() schema.Schema { return f.local }

// Marshal encodes v under the local schema behind a frame header.
func (f *FramedCodec) Marshal(ctx context.Context, v any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, err := f.cache.Writer(f.local)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(EncodeSchemaID(f.id))
	e := binary.NewEncoder(buf)
	if err := w.Write(v, e); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a framed payload. The writer schema comes from the
// store; issue offsets count from the start of the frame.
func (f *FramedCodec) Unmarshal(ctx context.Context, data []byte) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, body, err := DecodeSchemaID(data)
	if err != nil {
		return nil, err
	}
	writer, err := f.store.SchemaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := f.cache.Reader(writer, f.local)
	if err != nil {
		f.logger.Warn("framed payload not readable", zap.Uint32("writer_id", id), zap.Uint32("reader_id", f.id), zap.Error(err))
		return nil, err
	}
	d := binary.NewDecoder(bytes.NewReader(body), f.decOpts...)
	v, err := r.Read(nil, d)
	if err != nil {
		return nil, shift(err, HeaderSize)
	}
	if d.Offset() < int64(len(body)) {
		it := baiji.Root().Issue(baiji.CodeParseError)
		it.Hint = "trailing bytes after value"
		it.Offset = HeaderSize + d.Offset()
		return nil, baiji.Issues{it}
	}
	return v, nil
}

func shift(err error, n int64) error {
	iss, ok := err.(baiji.Issues)
	if !ok {
		return err
	}
	out := make(baiji.Issues, len(iss))
	for i, it := range iss {
		if it.Offset >= 0 {
			it.Offset += n
		}
		out[i] = it
	}
	return out
}
