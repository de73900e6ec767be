package binary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
	"unicode/utf8"

	baiji "github.com/reoring/baiji"
)

// Decoder reads primitive values in the binary format. It is the dual of
// Encoder; every Skip method consumes exactly what the matching Read method
// would.
//
// An array is read as
//
//	for n, err := d.ReadArrayStart(); n != 0; n, err = d.ReadArrayNext() {
//		if err != nil {
//			return err
//		}
//		for i := int64(0); i < n; i++ {
//			// read one item
//		}
//	}
type Decoder interface {
	ReadNull() error
	ReadBoolean() (bool, error)
	ReadInt() (int32, error)
	ReadLong() (int64, error)
	ReadFloat() (float32, error)
	ReadDouble() (float64, error)
	// ReadBytes reads a bytes value, reusing buf when it is large enough.
	ReadBytes(buf []byte) ([]byte, error)
	ReadString() (string, error)
	ReadDatetime() (time.Time, error)
	ReadEnum() (int, error)
	// ReadArrayStart returns the item count of the first block; 0 means the
	// array is empty.
	ReadArrayStart() (int64, error)
	// ReadArrayNext returns the item count of the next block; 0 means the
	// array is over.
	ReadArrayNext() (int64, error)
	ReadMapStart() (int64, error)
	ReadMapNext() (int64, error)
	ReadUnionIndex() (int, error)

	SkipBoolean() error
	SkipInt() error
	SkipLong() error
	SkipFloat() error
	SkipDouble() error
	SkipBytes() error
	SkipString() error
	SkipEnum() error
	SkipUnionIndex() error
	// SkipArray skips blocks that carry a byte size and returns the item
	// count of the next block that does not; the caller skips those items and
	// calls SkipArray again. 0 means the array is over.
	SkipArray() (int64, error)
	SkipMap() (int64, error)

	// Offset returns the number of bytes consumed so far.
	Offset() int64
}

type byteSource interface {
	io.Reader
	io.ByteReader
}

type discarder interface {
	Discard(n int) (int, error)
}

// NewDecoder creates a Decoder reading from r. Unless r is already an
// io.ByteReader it is wrapped in a bufio.Reader, which may read ahead of the
// decoded data.
func NewDecoder(r io.Reader, opts ...Option) Decoder {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	src, ok := r.(byteSource)
	if !ok {
		src = bufio.NewReader(r)
	}
	return &decoder{r: src, cfg: cfg}
}

type decoder struct {
	r   byteSource
	cfg config
	off int64
	tmp [8]byte
}

func (d *decoder) Offset() int64 { return d.off }

func (d *decoder) issue(code string, cause error, format string, args ...any) error {
	it := baiji.Root().Issue(code)
	it.Hint = fmt.Sprintf(format, args...)
	it.Cause = cause
	it.Offset = d.off
	return baiji.Issues{it}
}

// readErr maps a read failure. io.EOF before the first byte of a value stays
// visible through errors.Is so stream readers can detect a clean end.
func (d *decoder) readErr(err error, first bool) error {
	switch {
	case errors.Is(err, io.EOF) && first:
		return d.issue(baiji.CodeTruncated, io.EOF, "end of input")
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return d.issue(baiji.CodeTruncated, io.ErrUnexpectedEOF, "input ends inside a value")
	}
	return fmt.Errorf("binary: read: %w", err)
}

func (d *decoder) byte(first bool) (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.readErr(err, first)
	}
	d.off++
	return b, nil
}

// full fills p. io.ReadFull reports io.EOF only when nothing was read, so a
// fixed-width value at the start of input ends cleanly like a varint does.
func (d *decoder) full(p []byte, first bool) error {
	n, err := io.ReadFull(d.r, p)
	d.off += int64(n)
	if err != nil {
		return d.readErr(err, first && n == 0)
	}
	return nil
}

func (d *decoder) discard(n int64) error {
	if n == 0 {
		return nil
	}
	if dr, ok := d.r.(discarder); ok && n <= math.MaxInt32 {
		got, err := dr.Discard(int(n))
		d.off += int64(got)
		if err != nil {
			return d.readErr(err, false)
		}
		return nil
	}
	got, err := io.CopyN(io.Discard, d.r, n)
	d.off += got
	if err != nil {
		return d.readErr(err, false)
	}
	return nil
}

func (d *decoder) ReadLong() (int64, error) {
	var u uint64
	for shift := uint(0); ; shift += 7 {
		b, err := d.byte(shift == 0)
		if err != nil {
			return 0, err
		}
		if shift == 63 && b > 1 {
			return 0, d.issue(baiji.CodeOverflow, nil, "varint longer than 10 bytes")
		}
		u |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return int64(u>>1) ^ -int64(u&1), nil
		}
	}
}

func (d *decoder) ReadInt() (int32, error) {
	v, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, d.issue(baiji.CodeOverflow, nil, "%d does not fit in int", v)
	}
	return int32(v), nil
}

func (d *decoder) ReadNull() error { return nil }

func (d *decoder) ReadBoolean() (bool, error) {
	b, err := d.byte(true)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (d *decoder) ReadFloat() (float32, error) {
	if err := d.full(d.tmp[:4], true); err != nil {
		return 0, err
	}
	var bits uint32
	for i := 0; i < 4; i++ {
		bits |= uint32(d.tmp[i]) << (8 * i)
	}
	return math.Float32frombits(bits), nil
}

func (d *decoder) ReadDouble() (float64, error) {
	if err := d.full(d.tmp[:8], true); err != nil {
		return 0, err
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(d.tmp[i]) << (8 * i)
	}
	return math.Float64frombits(bits), nil
}

func (d *decoder) length() (int64, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, d.issue(baiji.CodeOverflow, nil, "negative length %d", n)
	}
	if d.cfg.maxBytesLength > 0 && n > d.cfg.maxBytesLength {
		return 0, d.issue(baiji.CodeTooBig, nil, "length %d exceeds limit %d", n, d.cfg.maxBytesLength)
	}
	return n, nil
}

func (d *decoder) ReadBytes(buf []byte) ([]byte, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	if int64(cap(buf)) >= n {
		buf = buf[:n]
	} else {
		buf = make([]byte, n)
	}
	if err := d.full(buf, false); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *decoder) ReadString() (string, error) {
	b, err := d.ReadBytes(nil)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", d.issue(baiji.CodeInvalidUTF8, nil, "string is not valid UTF-8")
	}
	return string(b), nil
}

func (d *decoder) ReadDatetime() (time.Time, error) {
	ms, err := d.ReadLong()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (d *decoder) ReadEnum() (int, error) {
	v, err := d.ReadInt()
	return int(v), err
}

func (d *decoder) ReadUnionIndex() (int, error) {
	v, err := d.ReadInt()
	return int(v), err
}

// block reads one block header. A negative count is followed by the block
// size in bytes, which readers that decode items ignore.
func (d *decoder) block() (int64, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		if n == math.MinInt64 {
			return 0, d.issue(baiji.CodeOverflow, nil, "block count out of range")
		}
		n = -n
		if _, err := d.ReadLong(); err != nil {
			return 0, err
		}
	}
	if d.cfg.maxBlockItems > 0 && n > d.cfg.maxBlockItems {
		return 0, d.issue(baiji.CodeTooBig, nil, "block of %d items exceeds limit %d", n, d.cfg.maxBlockItems)
	}
	return n, nil
}

func (d *decoder) ReadArrayStart() (int64, error) { return d.block() }
func (d *decoder) ReadArrayNext() (int64, error)  { return d.block() }
func (d *decoder) ReadMapStart() (int64, error)   { return d.block() }
func (d *decoder) ReadMapNext() (int64, error)    { return d.block() }

func (d *decoder) SkipBoolean() error {
	_, err := d.byte(true)
	return err
}

func (d *decoder) SkipLong() error {
	_, err := d.ReadLong()
	return err
}

func (d *decoder) SkipInt() error        { return d.SkipLong() }
func (d *decoder) SkipEnum() error       { return d.SkipLong() }
func (d *decoder) SkipUnionIndex() error { return d.SkipLong() }
func (d *decoder) SkipFloat() error      { return d.discard(4) }
func (d *decoder) SkipDouble() error     { return d.discard(8) }

func (d *decoder) SkipBytes() error {
	n, err := d.length()
	if err != nil {
		return err
	}
	return d.discard(n)
}

func (d *decoder) SkipString() error { return d.SkipBytes() }

func (d *decoder) skipBlocks() (int64, error) {
	for {
		n, err := d.ReadLong()
		if err != nil {
			return 0, err
		}
		if n >= 0 {
			if d.cfg.maxBlockItems > 0 && n > d.cfg.maxBlockItems {
				return 0, d.issue(baiji.CodeTooBig, nil, "block of %d items exceeds limit %d", n, d.cfg.maxBlockItems)
			}
			return n, nil
		}
		size, err := d.ReadLong()
		if err != nil {
			return 0, err
		}
		if size < 0 {
			return 0, d.issue(baiji.CodeOverflow, nil, "negative block size %d", size)
		}
		if err := d.discard(size); err != nil {
			return 0, err
		}
	}
}

func (d *decoder) SkipArray() (int64, error) { return d.skipBlocks() }
func (d *decoder) SkipMap() (int64, error)   { return d.skipBlocks() }
