package schema

// Type is the kind of a schema.
type Type int

const (
	Null Type = iota
	Boolean
	Int
	Long
	Float
	Double
	Bytes
	String
	Datetime
	Array
	Map
	Union
	Enum
	Record
)

var typeNames = [...]string{
	Null:     "null",
	Boolean:  "boolean",
	Int:      "int",
	Long:     "long",
	Float:    "float",
	Double:   "double",
	Bytes:    "bytes",
	String:   "string",
	Datetime: "datetime",
	Array:    "array",
	Map:      "map",
	Union:    "union",
	Enum:     "enum",
	Record:   "record",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType maps a type name as written in schema documents to a Type.
// "error" is accepted as a synonym of "record".
func ParseType(s string) (Type, bool) {
	if s == "error" {
		return Record, true
	}
	for i, n := range typeNames {
		if n == s {
			return Type(i), true
		}
	}
	return 0, false
}

// IsPrimitive reports whether t carries no attributes beyond properties.
func (t Type) IsPrimitive() bool { return t >= Null && t <= Datetime }

// IsNamed reports whether schemas of this type have a (name, namespace) identity.
func (t Type) IsNamed() bool { return t == Enum || t == Record }
