package generic

import (
	"math"
	"strings"
	"time"

	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

type jsonNumber interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// FromJSON converts a decoded JSON value (nil, bool, numbers, string, []any,
// map[string]any) to a generic datum of schema s. It is used for field
// defaults and by the command line tool.
//
// Bytes are strings whose code points are the byte values. Datetimes are Unix
// milliseconds or RFC 3339 strings. A union accepts either a bare value,
// matched against the branches in order, or an object {"tag": value}.
func FromJSON(s schema.Schema, v any) (any, error) {
	return fromJSON(s, v, baiji.Root())
}

func jsonMismatch(p baiji.PathRef, s schema.Schema, v any) error {
	return baiji.Issuef(p, baiji.CodeInvalidType, "JSON value %T does not fit %s", v, s.Type())
}

func jsonInt(v any) (int64, bool) {
	switch x := v.(type) {
	case jsonNumber:
		i, err := x.Int64()
		return i, err == nil
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x), true
		}
		return 0, false
	}
	return asLong(v)
}

func jsonFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case jsonNumber:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		switch x {
		case "NaN":
			return math.NaN(), true
		case "Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
		return 0, false
	}
	if l, ok := asLong(v); ok {
		return float64(l), true
	}
	return 0, false
}

func fromJSON(s schema.Schema, v any, p baiji.PathRef) (any, error) {
	switch s.Type() {
	case schema.Null:
		if v != nil {
			return nil, jsonMismatch(p, s, v)
		}
		return nil, nil
	case schema.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.Int:
		if i, ok := jsonInt(v); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
	case schema.Long:
		if i, ok := jsonInt(v); ok {
			return i, nil
		}
	case schema.Float:
		if f, ok := jsonFloat(v); ok {
			return float32(f), nil
		}
	case schema.Double:
		if f, ok := jsonFloat(v); ok {
			return f, nil
		}
	case schema.Bytes:
		if str, ok := v.(string); ok {
			out := make([]byte, 0, len(str))
			for _, r := range str {
				if r > 0xff {
					return nil, baiji.Issuef(p, baiji.CodeInvalidType, "bytes default contains code point %U above U+00FF", r)
				}
				out = append(out, byte(r))
			}
			return out, nil
		}
	case schema.String:
		if str, ok := v.(string); ok {
			return str, nil
		}
	case schema.Datetime:
		if str, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, str)
			if err != nil {
				return nil, baiji.Issuef(p, baiji.CodeInvalidType, "datetime %q: %v", str, err)
			}
			return t.UTC(), nil
		}
		if ms, ok := jsonInt(v); ok {
			return time.UnixMilli(ms).UTC(), nil
		}
	case schema.Enum:
		es := s.(*schema.EnumSchema)
		if str, ok := v.(string); ok {
			if es.Ordinal(str) < 0 {
				return nil, baiji.IssueAt(p, baiji.CodeInvalidEnum, "", "symbol", str, "enum", es.FullName())
			}
			return Enum{Schema: es, Symbol: str}, nil
		}
	case schema.Array:
		if list, ok := v.([]any); ok {
			items := s.(*schema.ArraySchema).Items()
			out := make([]any, len(list))
			for i, e := range list {
				d, err := fromJSON(items, e, p.Items())
				if err != nil {
					return nil, err
				}
				out[i] = d
			}
			return out, nil
		}
	case schema.Map:
		if m, ok := v.(map[string]any); ok {
			values := s.(*schema.MapSchema).Values()
			out := make(map[string]any, len(m))
			for k, e := range m {
				d, err := fromJSON(values, e, p.Values())
				if err != nil {
					return nil, err
				}
				out[k] = d
			}
			return out, nil
		}
	case schema.Union:
		return unionFromJSON(s.(*schema.UnionSchema), v, p)
	case schema.Record:
		if m, ok := v.(map[string]any); ok {
			return recordFromJSON(s.(*schema.RecordSchema), m, p)
		}
	}
	return nil, jsonMismatch(p, s, v)
}

func unionFromJSON(u *schema.UnionSchema, v any, p baiji.PathRef) (any, error) {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		for tag, inner := range m {
			if i := u.IndexOf(tag); i >= 0 {
				return fromJSON(u.Branch(i), inner, p.Branch(i))
			}
		}
	}
	for i, b := range u.Branches() {
		if d, err := fromJSON(b, v, p.Branch(i)); err == nil {
			return d, nil
		}
	}
	return nil, baiji.Issuef(p, baiji.CodeNoUnionBranch, "no branch of %s accepts JSON value %T", u, v)
}

func recordFromJSON(s *schema.RecordSchema, m map[string]any, p baiji.PathRef) (any, error) {
	rec := NewRecord(s)
	for _, f := range s.Fields() {
		fp := p.Field(f.Name)
		raw, ok := m[f.Name]
		if !ok {
			for _, a := range f.Aliases {
				if raw, ok = m[a]; ok {
					break
				}
			}
		}
		if !ok {
			if !f.HasDefault {
				return nil, baiji.Issuef(fp, baiji.CodeInvalidType, "field %s is missing and has no default", f.Name)
			}
			raw = f.Default
		}
		d, err := fromJSON(f.Schema, raw, fp)
		if err != nil {
			return nil, err
		}
		rec.values[f.Pos] = d
	}
	return rec, nil
}

// ToJSON converts a generic datum of schema s to a value go-json can
// marshal. Non-null union values are wrapped as {"tag": value} so that
// FromJSON selects the same branch.
func ToJSON(s schema.Schema, datum any) (any, error) {
	return toJSON(s, datum, Access{}, baiji.Root())
}

func toJSON(s schema.Schema, v any, a Access, p baiji.PathRef) (any, error) {
	switch s.Type() {
	case schema.Null:
		if v == nil {
			return nil, nil
		}
	case schema.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.String:
		if str, ok := v.(string); ok {
			return str, nil
		}
	case schema.Int, schema.Long:
		if i, ok := asLong(v); ok {
			return i, nil
		}
	case schema.Float, schema.Double:
		if f, ok := asDouble(v); ok {
			switch {
			case math.IsNaN(f):
				return "NaN", nil
			case math.IsInf(f, 1):
				return "Infinity", nil
			case math.IsInf(f, -1):
				return "-Infinity", nil
			}
			return f, nil
		}
	case schema.Bytes:
		if b, ok := v.([]byte); ok {
			var sb strings.Builder
			for _, c := range b {
				sb.WriteRune(rune(c))
			}
			return sb.String(), nil
		}
	case schema.Datetime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
	case schema.Enum:
		if i, err := a.EnumOrdinal(s.(*schema.EnumSchema), v); err == nil {
			sym, _ := s.(*schema.EnumSchema).Symbol(i)
			return sym, nil
		}
	case schema.Array:
		if list, ok := v.([]any); ok {
			items := s.(*schema.ArraySchema).Items()
			out := make([]any, len(list))
			for i, e := range list {
				j, err := toJSON(items, e, a, p.Items())
				if err != nil {
					return nil, err
				}
				out[i] = j
			}
			return out, nil
		}
	case schema.Map:
		if m, ok := v.(map[string]any); ok {
			values := s.(*schema.MapSchema).Values()
			out := make(map[string]any, len(m))
			for k, e := range m {
				j, err := toJSON(values, e, a, p.Values())
				if err != nil {
					return nil, err
				}
				out[k] = j
			}
			return out, nil
		}
	case schema.Union:
		u := s.(*schema.UnionSchema)
		i, err := UnionBranch(a, u, v)
		if err != nil {
			return nil, at(p, err)
		}
		b := u.Branch(i)
		if b.Type() == schema.Null {
			return nil, nil
		}
		j, err := toJSON(b, v, a, p.Branch(i))
		if err != nil {
			return nil, err
		}
		return map[string]any{schema.BranchTag(b): j}, nil
	case schema.Record:
		if r, ok := v.(*Record); ok && r.schema.Len() == s.(*schema.RecordSchema).Len() {
			out := make(map[string]any, r.schema.Len())
			for _, f := range s.(*schema.RecordSchema).Fields() {
				j, err := toJSON(f.Schema, r.values[f.Pos], a, p.Field(f.Name))
				if err != nil {
					return nil, err
				}
				out[f.Name] = j
			}
			return out, nil
		}
	}
	return nil, baiji.Issuef(p, baiji.CodeInvalidType, "%T is not a %s datum", v, s.Type())
}
