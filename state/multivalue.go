package state

import "github.com/rmanohar/actsim-go/wideint"

// RecordType describes the leaf-field layout of a structured (record) type
// so a MultiValue can be indexed field-by-field or projected into a
// sub-record, per spec.md §3 "Multi-value payload".
type RecordType struct {
	Name   string
	Fields []FieldDesc
}

// FieldDesc names one leaf field of a RecordType and the index range in
// the owning MultiValue's Leaves slice that it covers ([Start, Start+Count)
// for array fields; Count is 1 for scalar fields).
type FieldDesc struct {
	Name  string
	Width uint
	Start int
	Count int
}

// LeafCount returns the total number of wide-integer leaves described by
// the record type.
func (rt *RecordType) LeafCount() int {
	n := 0
	for _, f := range rt.Fields {
		n += f.Count
	}
	return n
}

// FieldByName looks up a field descriptor by name.
func (rt *RecordType) FieldByName(name string) (FieldDesc, bool) {
	for _, f := range rt.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDesc{}, false
}

// MultiValue is an ordered sequence of wide integers, one per leaf field of
// a structured value, together with a pointer to the record type so
// field-by-field indexing and sub-record projection are possible
// (spec.md §3).
type MultiValue struct {
	Type   *RecordType
	Leaves []wideint.Value
}

// ZeroMultiValue builds a zeroed MultiValue for rt.
func ZeroMultiValue(rt *RecordType) MultiValue {
	leaves := make([]wideint.Value, rt.LeafCount())
	for _, f := range rt.Fields {
		for i := 0; i < f.Count; i++ {
			leaves[f.Start+i] = wideint.Zero(f.Width)
		}
	}
	return MultiValue{Type: rt, Leaves: leaves}
}

// Field returns the leaves belonging to a named field, as a sub-slice
// (aliasing the backing array, as a sub-record projection should).
func (mv MultiValue) Field(name string) ([]wideint.Value, error) {
	fd, ok := mv.Type.FieldByName(name)
	if !ok {
		return nil, &ErrUnknownField{Record: mv.Type.Name, Field: name}
	}
	return mv.Leaves[fd.Start : fd.Start+fd.Count], nil
}

// ErrUnknownField is a runtime-fatal condition per spec.md §7 ("type
// mismatch in function call" class): a struct projection named a field the
// record type does not have.
type ErrUnknownField struct {
	Record, Field string
}

func (e *ErrUnknownField) Error() string {
	return "wideint: record " + e.Record + " has no field " + e.Field
}
