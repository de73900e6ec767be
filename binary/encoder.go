package binary

import (
	"fmt"
	"io"
	"math"
	"time"
	"unicode/utf8"

	baiji "github.com/reoring/baiji"
)

// Encoder writes primitive values in the binary format.
//
// An array is written as
//
//	e.WriteArrayStart()
//	e.SetItemCount(int64(len(items)))
//	for _, it := range items {
//		e.StartItem()
//		e.WriteLong(it)
//	}
//	e.WriteArrayEnd()
//
// and a map the same way with a string key before each value.
type Encoder interface {
	WriteNull() error
	WriteBoolean(v bool) error
	WriteInt(v int32) error
	WriteLong(v int64) error
	WriteFloat(v float32) error
	WriteDouble(v float64) error
	WriteBytes(v []byte) error
	WriteString(v string) error
	// WriteDatetime writes t as a long of Unix milliseconds.
	WriteDatetime(t time.Time) error
	WriteEnum(ordinal int) error
	WriteArrayStart() error
	// SetItemCount starts a block of n items. It writes nothing when n is 0.
	SetItemCount(n int64) error
	StartItem() error
	WriteArrayEnd() error
	WriteMapStart() error
	WriteMapEnd() error
	WriteUnionIndex(i int) error
	// Flush forwards to the sink when it has a Flush() error method.
	Flush() error
}

type flusher interface {
	Flush() error
}

// NewEncoder creates an Encoder writing to w. The first write error is
// sticky: it is returned by every later call.
func NewEncoder(w io.Writer) Encoder {
	return &encoder{w: w}
}

type encoder struct {
	w   io.Writer
	tmp [10]byte
	err error
}

func (e *encoder) data(p []byte) error {
	if e.err != nil {
		return e.err
	}
	n, err := e.w.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		e.err = fmt.Errorf("binary: write: %w", err)
	}
	return e.err
}

func (e *encoder) varint(v int64) error {
	n := uint64(v<<1) ^ uint64(v>>63)
	i := 0
	for n >= 0x80 {
		e.tmp[i] = byte(n) | 0x80
		n >>= 7
		i++
	}
	e.tmp[i] = byte(n)
	return e.data(e.tmp[:i+1])
}

func (e *encoder) WriteNull() error { return e.err }

func (e *encoder) WriteBoolean(v bool) error {
	e.tmp[0] = 0
	if v {
		e.tmp[0] = 1
	}
	return e.data(e.tmp[:1])
}

func (e *encoder) WriteInt(v int32) error  { return e.varint(int64(v)) }
func (e *encoder) WriteLong(v int64) error { return e.varint(v) }

func (e *encoder) WriteFloat(v float32) error {
	bits := math.Float32bits(v)
	for i := 0; i < 4; i++ {
		e.tmp[i] = byte(bits >> (8 * i))
	}
	return e.data(e.tmp[:4])
}

func (e *encoder) WriteDouble(v float64) error {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		e.tmp[i] = byte(bits >> (8 * i))
	}
	return e.data(e.tmp[:8])
}

func (e *encoder) WriteBytes(v []byte) error {
	if err := e.varint(int64(len(v))); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	return e.data(v)
}

func (e *encoder) WriteString(v string) error {
	if !utf8.ValidString(v) {
		return baiji.Issuef(baiji.Root(), baiji.CodeInvalidUTF8, "string is not valid UTF-8")
	}
	if err := e.varint(int64(len(v))); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	if e.err != nil {
		return e.err
	}
	n, err := io.WriteString(e.w, v)
	if err == nil && n != len(v) {
		err = io.ErrShortWrite
	}
	if err != nil {
		e.err = fmt.Errorf("binary: write: %w", err)
	}
	return e.err
}

func (e *encoder) WriteDatetime(t time.Time) error { return e.varint(t.UnixMilli()) }
func (e *encoder) WriteEnum(ordinal int) error     { return e.varint(int64(ordinal)) }
func (e *encoder) WriteArrayStart() error          { return e.err }
func (e *encoder) StartItem() error                { return e.err }
func (e *encoder) WriteArrayEnd() error            { return e.varint(0) }
func (e *encoder) WriteMapStart() error            { return e.err }
func (e *encoder) WriteMapEnd() error              { return e.varint(0) }
func (e *encoder) WriteUnionIndex(i int) error     { return e.varint(int64(i)) }

func (e *encoder) SetItemCount(n int64) error {
	if n > 0 {
		return e.varint(n)
	}
	return e.err
}

func (e *encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if f, ok := e.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			e.err = fmt.Errorf("binary: flush: %w", err)
		}
	}
	return e.err
}
