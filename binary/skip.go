package binary

import (
	baiji "github.com/reoring/baiji"
	"github.com/reoring/baiji/schema"
)

// Skip consumes one value of schema s without materializing it.
func Skip(d Decoder, s schema.Schema) error {
	switch s.Type() {
	case schema.Null:
		return d.ReadNull()
	case schema.Boolean:
		return d.SkipBoolean()
	case schema.Int:
		return d.SkipInt()
	case schema.Long, schema.Datetime:
		return d.SkipLong()
	case schema.Float:
		return d.SkipFloat()
	case schema.Double:
		return d.SkipDouble()
	case schema.Bytes:
		return d.SkipBytes()
	case schema.String:
		return d.SkipString()
	case schema.Enum:
		return d.SkipEnum()
	case schema.Array:
		items := s.(*schema.ArraySchema).Items()
		for {
			n, err := d.SkipArray()
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			for i := int64(0); i < n; i++ {
				if err := Skip(d, items); err != nil {
					return err
				}
			}
		}
	case schema.Map:
		values := s.(*schema.MapSchema).Values()
		for {
			n, err := d.SkipMap()
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			for i := int64(0); i < n; i++ {
				if err := d.SkipString(); err != nil {
					return err
				}
				if err := Skip(d, values); err != nil {
					return err
				}
			}
		}
	case schema.Union:
		u := s.(*schema.UnionSchema)
		i, err := d.ReadUnionIndex()
		if err != nil {
			return err
		}
		if i < 0 || i >= u.Len() {
			return baiji.Issuef(baiji.Root(), baiji.CodeNoUnionBranch, "union index %d out of range [0,%d)", i, u.Len())
		}
		return Skip(d, u.Branch(i))
	case schema.Record:
		for _, f := range s.(*schema.RecordSchema).Fields() {
			if err := Skip(d, f.Schema); err != nil {
				return err
			}
		}
		return nil
	}
	return baiji.Issuef(baiji.Root(), baiji.CodeInvalidSchema, "cannot skip %s", s.Type())
}
