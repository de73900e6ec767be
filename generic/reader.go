package generic

import (
	"bytes"
	"errors"
	"io"

	"go.uber.org/zap"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/binary"
	"github.com/reoring/baiji/schema"
)

type readFn func(reuse any, d binary.Decoder) (any, error)

// Reader is a prebuilt decode plan for a (writer, reader) schema pair. It is
// immutable and safe for concurrent use; each goroutine needs its own Decoder.
type Reader struct {
	writer schema.Schema
	reader schema.Schema
	match  schema.Match
	read   readFn
}

// NewReader builds the decode plan for data written with writer and
// materialized as reader. A nil reader reads the writer schema as is. It fails
// when reader cannot read writer.
func NewReader(writer, reader schema.Schema, access ReaderAccess, opts ...Option) (*Reader, error) {
	o := newOptions(opts)
	if reader == nil {
		reader = writer
	}
	if err := schema.Resolve(writer, reader); err != nil {
		o.logger.Debug("reader plan rejected", zap.Error(err))
		return nil, err
	}
	b := &readerBuilder{access: access, records: map[recordKey]*recordReader{}}
	fn, err := b.build(writer, reader, baiji.Root())
	if err != nil {
		o.logger.Debug("reader plan failed", zap.Error(err))
		return nil, err
	}
	m := schema.Classify(writer, reader)
	o.logger.Debug("reader plan built",
		zap.String("match", m.String()),
		zap.Int("records", len(b.records)),
		zap.Uint64("writer_fingerprint", schema.Fingerprint64(writer)),
		zap.Uint64("reader_fingerprint", schema.Fingerprint64(reader)))
	return &Reader{writer: writer, reader: reader, match: m, read: fn}, nil
}

// WriterSchema returns the schema the data was written with.
func (r *Reader) WriterSchema() schema.Schema { return r.writer }

// ReaderSchema returns the schema values are materialized as.
func (r *Reader) ReaderSchema() schema.Schema { return r.reader }

// Match returns the resolution verdict of the pair.
func (r *Reader) Match() schema.Match { return r.match }

// Read decodes one value. reuse may be a previous result to recycle. Input
// that ends before the value's first byte keeps io.EOF as the cause; input
// that ends after it is io.ErrUnexpectedEOF.
func (r *Reader) Read(reuse any, d binary.Decoder) (any, error) {
	start := d.Offset()
	v, err := r.read(reuse, d)
	if err != nil && d.Offset() > start && errors.Is(err, io.EOF) {
		return nil, unexpectedEOF(err)
	}
	return v, err
}

func unexpectedEOF(err error) error {
	iss, ok := baiji.AsIssues(err)
	if !ok {
		return err
	}
	out := make(baiji.Issues, len(iss))
	for i, it := range iss {
		if errors.Is(it.Cause, io.EOF) {
			it.Cause = io.ErrUnexpectedEOF
			it.Hint = "input ends inside a value"
		}
		out[i] = it
	}
	return out
}

type recordKey struct {
	w, r *schema.RecordSchema
}

type fieldReader struct {
	skip  bool
	field *schema.Field // reader field; nil when skipped
	read  readFn
	path  baiji.PathRef
}

type defaultReader struct {
	field *schema.Field
	data  []byte
	read  readFn
}

type recordReader struct {
	schema   *schema.RecordSchema
	fields   []fieldReader // writer order
	defaults []defaultReader
}

type readerBuilder struct {
	access  ReaderAccess
	records map[recordKey]*recordReader
}

func (b *readerBuilder) build(w, r schema.Schema, p baiji.PathRef) (readFn, error) {
	if wu, ok := w.(*schema.UnionSchema); ok {
		return b.buildWriterUnion(wu, r, p)
	}
	if ru, ok := r.(*schema.UnionSchema); ok {
		i := readerBranch(ru, w)
		if i < 0 {
			return nil, baiji.Issuef(p, baiji.CodeIncompatible, "no branch of reader union can read %s", schema.BranchTag(w))
		}
		return b.build(w, ru.Branch(i), p.Branch(i))
	}
	switch w.Type() {
	case schema.Null:
		return func(_ any, d binary.Decoder) (any, error) {
			return nil, d.ReadNull()
		}, nil
	case schema.Boolean:
		return func(_ any, d binary.Decoder) (any, error) {
			v, err := d.ReadBoolean()
			if err != nil {
				return nil, at(p, err)
			}
			return v, nil
		}, nil
	case schema.Int, schema.Long, schema.Float, schema.Double:
		return numberReader(w.Type(), r.Type(), p)
	case schema.Bytes:
		return func(reuse any, d binary.Decoder) (any, error) {
			buf, _ := reuse.([]byte)
			v, err := d.ReadBytes(buf)
			if err != nil {
				return nil, at(p, err)
			}
			return v, nil
		}, nil
	case schema.String:
		return func(_ any, d binary.Decoder) (any, error) {
			v, err := d.ReadString()
			if err != nil {
				return nil, at(p, err)
			}
			return v, nil
		}, nil
	case schema.Datetime:
		return func(_ any, d binary.Decoder) (any, error) {
			v, err := d.ReadDatetime()
			if err != nil {
				return nil, at(p, err)
			}
			return v, nil
		}, nil
	case schema.Enum:
		return b.buildEnum(w.(*schema.EnumSchema), r.(*schema.EnumSchema), p)
	case schema.Array:
		return b.buildArray(w.(*schema.ArraySchema), r.(*schema.ArraySchema), p)
	case schema.Map:
		return b.buildMap(w.(*schema.MapSchema), r.(*schema.MapSchema), p)
	case schema.Record:
		return b.buildRecord(w.(*schema.RecordSchema), r.(*schema.RecordSchema), p)
	}
	return nil, baiji.Issuef(p, baiji.CodeInvalidSchema, "cannot read %s", w.Type())
}

// readerBranch picks the reader union branch for writer schema w: a branch
// with the same tag when it can read w, otherwise the first one that can.
func readerBranch(ru *schema.UnionSchema, w schema.Schema) int {
	if i := ru.IndexOf(schema.BranchTag(w)); i >= 0 && schema.CanRead(ru.Branch(i), w) {
		return i
	}
	for i, rb := range ru.Branches() {
		if schema.CanRead(rb, w) {
			return i
		}
	}
	return -1
}

func (b *readerBuilder) buildWriterUnion(wu *schema.UnionSchema, r schema.Schema, p baiji.PathRef) (readFn, error) {
	delegates := make([]readFn, wu.Len())
	for i, wb := range wu.Branches() {
		if !schema.CanRead(r, wb) {
			tag := schema.BranchTag(wb)
			delegates[i] = func(any, binary.Decoder) (any, error) {
				return nil, baiji.Issuef(p, baiji.CodeNoUnionBranch, "writer branch %d (%s) cannot be read as %s", i, tag, schema.BranchTag(r))
			}
			continue
		}
		fn, err := b.build(wb, r, p)
		if err != nil {
			return nil, err
		}
		delegates[i] = fn
	}
	return func(reuse any, d binary.Decoder) (any, error) {
		i, err := d.ReadUnionIndex()
		if err != nil {
			return nil, at(p, err)
		}
		if i < 0 || i >= len(delegates) {
			return nil, baiji.Issuef(p, baiji.CodeNoUnionBranch, "union index %d out of range [0,%d)", i, len(delegates))
		}
		return delegates[i](reuse, d)
	}, nil
}

func numberReader(w, r schema.Type, p baiji.PathRef) (readFn, error) {
	switch w {
	case schema.Int:
		return func(_ any, d binary.Decoder) (any, error) {
			v, err := d.ReadInt()
			if err != nil {
				return nil, at(p, err)
			}
			switch r {
			case schema.Long:
				return int64(v), nil
			case schema.Float:
				return float32(v), nil
			case schema.Double:
				return float64(v), nil
			}
			return v, nil
		}, nil
	case schema.Long:
		return func(_ any, d binary.Decoder) (any, error) {
			v, err := d.ReadLong()
			if err != nil {
				return nil, at(p, err)
			}
			switch r {
			case schema.Float:
				return float32(v), nil
			case schema.Double:
				return float64(v), nil
			}
			return v, nil
		}, nil
	case schema.Float:
		return func(_ any, d binary.Decoder) (any, error) {
			v, err := d.ReadFloat()
			if err != nil {
				return nil, at(p, err)
			}
			if r == schema.Double {
				return float64(v), nil
			}
			return v, nil
		}, nil
	}
	return func(_ any, d binary.Decoder) (any, error) {
		v, err := d.ReadDouble()
		if err != nil {
			return nil, at(p, err)
		}
		return v, nil
	}, nil
}

// buildEnum maps writer ordinals to reader ordinals by symbol name. A writer
// symbol the reader lacks maps to the reader's default symbol, or is a decode
// error when there is none.
func (b *readerBuilder) buildEnum(w, r *schema.EnumSchema, p baiji.PathRef) (readFn, error) {
	fallback := -1
	if def, ok := r.Default(); ok {
		fallback = r.Ordinal(def)
	}
	table := make([]int, w.Len())
	for i, sym := range w.Symbols() {
		table[i] = r.Ordinal(sym)
		if table[i] < 0 {
			table[i] = fallback
		}
	}
	a := b.access
	return func(_ any, d binary.Decoder) (any, error) {
		i, err := d.ReadEnum()
		if err != nil {
			return nil, at(p, err)
		}
		if i < 0 || i >= len(table) {
			return nil, baiji.Issuef(p, baiji.CodeInvalidEnum, "enum index %d out of range for %s", i, w.FullName())
		}
		if table[i] < 0 {
			sym, _ := w.Symbol(i)
			return nil, baiji.IssueAt(p, baiji.CodeInvalidEnum, "writer symbol is not in the reader enum", "symbol", sym, "enum", r.FullName())
		}
		v, err := a.NewEnum(r, table[i])
		return v, at(p, err)
	}, nil
}

func (b *readerBuilder) buildArray(w, r *schema.ArraySchema, p baiji.PathRef) (readFn, error) {
	items, err := b.build(w.Items(), r.Items(), p.Items())
	if err != nil {
		return nil, err
	}
	a := b.access
	return func(reuse any, d binary.Decoder) (any, error) {
		arr, err := a.NewArray(r, reuse)
		if err != nil {
			return nil, at(p, err)
		}
		n, err := d.ReadArrayStart()
		for ; n != 0; n, err = d.ReadArrayNext() {
			if err != nil {
				return nil, at(p, err)
			}
			for i := int64(0); i < n; i++ {
				item, err := items(nil, d)
				if err != nil {
					return nil, err
				}
				if arr, err = a.AppendItem(arr, item); err != nil {
					return nil, at(p, err)
				}
			}
		}
		if err != nil {
			return nil, at(p, err)
		}
		return arr, nil
	}, nil
}

func (b *readerBuilder) buildMap(w, r *schema.MapSchema, p baiji.PathRef) (readFn, error) {
	values, err := b.build(w.Values(), r.Values(), p.Values())
	if err != nil {
		return nil, err
	}
	a := b.access
	return func(reuse any, d binary.Decoder) (any, error) {
		m, err := a.NewMap(r, reuse)
		if err != nil {
			return nil, at(p, err)
		}
		n, err := d.ReadMapStart()
		for ; n != 0; n, err = d.ReadMapNext() {
			if err != nil {
				return nil, at(p, err)
			}
			for i := int64(0); i < n; i++ {
				k, err := d.ReadString()
				if err != nil {
					return nil, at(p, err)
				}
				v, err := values(nil, d)
				if err != nil {
					return nil, err
				}
				if err := a.SetEntry(m, k, v); err != nil {
					return nil, at(p, err)
				}
			}
		}
		if err != nil {
			return nil, at(p, err)
		}
		return m, nil
	}, nil
}

func (b *readerBuilder) buildRecord(w, r *schema.RecordSchema, p baiji.PathRef) (readFn, error) {
	key := recordKey{w, r}
	rr, seen := b.records[key]
	if !seen {
		rr = &recordReader{schema: r}
		b.records[key] = rr
		res, err := schema.ResolveRecord(w, r)
		if err != nil {
			return nil, rebase(err, p)
		}
		fields := make([]fieldReader, len(res.Actions))
		for i, act := range res.Actions {
			if act.Kind == schema.ActionSkip {
				ws := act.Writer.Schema
				fp := p.Field(act.Writer.Name)
				fields[i] = fieldReader{skip: true, path: fp, read: func(_ any, d binary.Decoder) (any, error) {
					return nil, at(fp, binary.Skip(d, ws))
				}}
				continue
			}
			fp := p.Field(act.Reader.Name)
			fn, err := b.build(act.Writer.Schema, act.Reader.Schema, fp)
			if err != nil {
				return nil, err
			}
			fields[i] = fieldReader{field: act.Reader, read: fn, path: fp}
		}
		defaults := make([]defaultReader, 0, len(res.Defaults))
		for _, f := range res.Defaults {
			dr, err := b.buildDefault(f, p.Field(f.Name))
			if err != nil {
				return nil, err
			}
			defaults = append(defaults, dr)
		}
		rr.fields = fields
		rr.defaults = defaults
	}
	a := b.access
	return func(reuse any, d binary.Decoder) (any, error) {
		rec, err := a.NewRecord(r, reuse)
		if err != nil {
			return nil, at(p, err)
		}
		for _, fr := range rr.fields {
			if fr.skip {
				if _, err := fr.read(nil, d); err != nil {
					return nil, err
				}
				continue
			}
			old, _ := a.Field(rec, fr.field)
			v, err := fr.read(old, d)
			if err != nil {
				return nil, err
			}
			if err := a.SetField(rec, fr.field, v); err != nil {
				return nil, at(fr.path, err)
			}
		}
		for _, dr := range rr.defaults {
			v, err := dr.read(nil, binary.NewDecoder(bytes.NewReader(dr.data)))
			if err != nil {
				return nil, err
			}
			if err := a.SetField(rec, dr.field, v); err != nil {
				return nil, at(p.Field(dr.field.Name), err)
			}
		}
		return rec, nil
	}, nil
}

// buildDefault encodes the field's JSON default once with the generic writer
// and replays it through a reader plan, so defaults materialize in whatever
// representation the installed access produces.
func (b *readerBuilder) buildDefault(f *schema.Field, p baiji.PathRef) (defaultReader, error) {
	datum, err := FromJSON(f.Schema, f.Default)
	if err != nil {
		return defaultReader{}, rebase(err, p)
	}
	w, err := NewWriter(f.Schema, Access{})
	if err != nil {
		return defaultReader{}, rebase(err, p)
	}
	var buf bytes.Buffer
	if err := w.Write(datum, binary.NewEncoder(&buf)); err != nil {
		return defaultReader{}, rebase(err, p)
	}
	fn, err := b.build(f.Schema, f.Schema, p)
	if err != nil {
		return defaultReader{}, err
	}
	return defaultReader{field: f, data: buf.Bytes(), read: fn}, nil
}

// rebase prefixes issue paths produced relative to a nested schema.
func rebase(err error, p baiji.PathRef) error {
	iss, ok := err.(baiji.Issues)
	if !ok || p.Pointer() == "/" {
		return err
	}
	out := make(baiji.Issues, len(iss))
	for i, it := range iss {
		if it.Path == "/" {
			it.Path = p.Pointer()
		} else {
			it.Path = p.Pointer() + it.Path
		}
		out[i] = it
	}
	return out
}
