package generic

import (
	"math"
	"time"
)

// ValueKind is the closed set of runtime value shapes the plans dispatch on.
type ValueKind int

const (
	KindUnknown ValueKind = iota
	KindNull
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindDatetime
	KindArray
	KindMap
	KindEnum
	KindRecord
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindNull:     "null",
	KindBoolean:  "boolean",
	KindInt:      "int",
	KindLong:     "long",
	KindFloat:    "float",
	KindDouble:   "double",
	KindBytes:    "bytes",
	KindString:   "string",
	KindDatetime: "datetime",
	KindArray:    "array",
	KindMap:      "map",
	KindEnum:     "enum",
	KindRecord:   "record",
}

func (k ValueKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindOf classifies a generic value. Go int and uint types narrower than 32
// bits are ints, int and int64 are longs.
func KindOf(v any) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case int32, int16, int8, uint16, uint8:
		return KindInt
	case int64, int, uint32:
		return KindLong
	case float32:
		return KindFloat
	case float64:
		return KindDouble
	case []byte:
		return KindBytes
	case string:
		return KindString
	case time.Time:
		return KindDatetime
	case []any:
		return KindArray
	case map[string]any:
		return KindMap
	case Enum, *Enum:
		return KindEnum
	case *Record:
		return KindRecord
	}
	return KindUnknown
}

// asLong widens any Go integer to int64.
func asLong(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint8:
		return int64(x), true
	}
	return 0, false
}

func asInt(v any) (int32, bool) {
	l, ok := asLong(v)
	if !ok || l < math.MinInt32 || l > math.MaxInt32 {
		return 0, false
	}
	return int32(l), true
}

func asFloat(v any) (float32, bool) {
	if f, ok := v.(float32); ok {
		return f, true
	}
	return 0, false
}

func asDouble(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}
