package godb

// tuple.go defines the row model: DBType, FieldType, TupleDesc, DBValue,
// and Tuple, plus their serialization. Grounded on the sibling GoDB forks'
// tuple.go (josephinelee1234-GoDB, tikkisean-csc560-lab2/lab1_solution),
// trimmed to the closed type set spec.md §3 names (INT, bounded STRING) and
// stripped of the Expr-aware join/project helpers that belong to the
// supplementary operators instead (see expr.go, project_op.go).

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DBType is the type of a tuple field. The set is closed: {IntType,
// StringType}. UnknownType is a sentinel outside that set; nothing in this
// package produces it, and table_stats.go rejects it with an error.
type DBType int

const (
	IntType DBType = iota
	StringType
	UnknownType
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// FieldType names one column of a TupleDesc. Fname is advisory (equality
// is structural over Ftype per §3); Fname is still carried because
// aggregator output names and the SQL front end need it.
type FieldType struct {
	Fname string
	Ftype DBType
}

// TupleDesc is the ordered schema of a Tuple: field types plus advisory
// names.
type TupleDesc struct {
	Fields []FieldType
}

// NewTupleDesc builds a TupleDesc from parallel name/type slices.
func NewTupleDesc(names []string, types []DBType) *TupleDesc {
	fields := make([]FieldType, len(types))
	for i, t := range types {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		fields[i] = FieldType{Fname: name, Ftype: t}
	}
	return &TupleDesc{Fields: fields}
}

// equals compares two TupleDescs structurally over Ftype only, per §3
// ("Equality is structural over types; names are advisory").
func (d1 *TupleDesc) equals(d2 *TupleDesc) bool {
	if len(d1.Fields) != len(d2.Fields) {
		return false
	}
	for i := range d1.Fields {
		if d1.Fields[i].Ftype != d2.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// Equals is the exported form of equals.
func (d1 *TupleDesc) Equals(d2 *TupleDesc) bool {
	return d1.equals(d2)
}

// copy makes a deep copy of the TupleDesc's field slice.
func (td *TupleDesc) copy() *TupleDesc {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	return &TupleDesc{Fields: fields}
}

// fieldSize returns the on-disk width, in bytes, of one field of type t.
func fieldSize(t DBType) int {
	switch t {
	case StringType:
		return StringLength
	default:
		return 8 // int64
	}
}

// bytesPerTuple returns the packed on-disk width of one row of this
// schema; used by heapPage to compute slot capacity.
func (td *TupleDesc) bytesPerTuple() int {
	n := 0
	for _, f := range td.Fields {
		n += fieldSize(f.Ftype)
	}
	return n
}

// findFieldByName returns the index of the first field named name, or an
// error if none matches.
func (td *TupleDesc) findFieldByName(name string) (int, error) {
	for i, f := range td.Fields {
		if f.Fname == name {
			return i, nil
		}
	}
	return -1, NewGoDBError(TupleNotFoundError, fmt.Sprintf("field %q not found", name))
}

// ================== Tuple / DBValue ======================

// DBValue is the interface satisfied by field values (IntField,
// StringField). EvalPred compares v against another value of the same
// concrete type under op.
type DBValue interface {
	EvalPred(v DBValue, op BoolOp) bool
}

// IntField is an INT field value.
type IntField struct {
	Value int64
}

// EvalPred implements DBValue for IntField.
func (f IntField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(IntField)
	if !ok {
		return false
	}
	return evalIntPred(f.Value, other.Value, op)
}

// StringField is a STRING field value, truncated to StringLength bytes on
// write.
type StringField struct {
	Value string
}

// EvalPred implements DBValue for StringField.
func (f StringField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(StringField)
	if !ok {
		return false
	}
	return evalStringPred(f.Value, other.Value, op)
}

// RecordId identifies a stored tuple's location: the page it lives on and
// its slot within that page.
type RecordId struct {
	Pid    PageId
	SlotNo int
}

// Tuple is a materialized row: its schema, field values, and (if read from
// storage) the RecordId it came from.
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordId
}

func writeStringField(b *bytes.Buffer, s StringField) error {
	padded := make([]byte, StringLength)
	copy(padded, []byte(s.Value))
	return binary.Write(b, binary.LittleEndian, padded)
}

func writeIntField(b *bytes.Buffer, i IntField) error {
	return binary.Write(b, binary.LittleEndian, i.Value)
}

// writeTo serializes the tuple's fields, in schema order, in little-endian
// fixed-width form.
func (t *Tuple) writeTo(b *bytes.Buffer) error {
	for _, f := range t.Fields {
		switch v := f.(type) {
		case StringField:
			if err := writeStringField(b, v); err != nil {
				return err
			}
		case IntField:
			if err := writeIntField(b, v); err != nil {
				return err
			}
		default:
			return NewGoDBError(TypeMismatchError, fmt.Sprintf("unsupported field type %T", f))
		}
	}
	return nil
}

func readStringField(b *bytes.Buffer) (StringField, error) {
	buf := make([]byte, StringLength)
	if err := binary.Read(b, binary.LittleEndian, buf); err != nil {
		return StringField{}, err
	}
	return StringField{Value: strings.TrimRight(string(buf), "\x00")}, nil
}

func readIntField(b *bytes.Buffer) (IntField, error) {
	var v int64
	if err := binary.Read(b, binary.LittleEndian, &v); err != nil {
		return IntField{}, err
	}
	return IntField{Value: v}, nil
}

// readTupleFrom deserializes one tuple of the given schema from b.
func readTupleFrom(b *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	t := &Tuple{Desc: *desc}
	for _, ft := range desc.Fields {
		switch ft.Ftype {
		case StringType:
			v, err := readStringField(b)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, v)
		default:
			v, err := readIntField(b)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, v)
		}
	}
	return t, nil
}

// equals compares two tuples for equality of schema and field values.
func (t1 *Tuple) equals(t2 *Tuple) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}
	if !t1.Desc.equals(&t2.Desc) || len(t1.Fields) != len(t2.Fields) {
		return false
	}
	for i := range t1.Fields {
		if t1.Fields[i] != t2.Fields[i] {
			return false
		}
	}
	return true
}

// Equals is the exported form of equals, usable from other packages/tests.
func (t1 *Tuple) Equals(t2 *Tuple) bool {
	return t1.equals(t2)
}

// PrettyPrintString renders the tuple as a comma-separated (or tabular, if
// aligned) row, for the REPL.
func (t *Tuple) PrettyPrintString(aligned bool) string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			parts[i] = strconv.FormatInt(v.Value, 10)
		case StringField:
			parts[i] = v.Value
		}
	}
	if aligned {
		return strings.Join(parts, " | ")
	}
	return strings.Join(parts, ",")
}

// HeaderString renders the schema's field names, for the REPL.
func (d *TupleDesc) HeaderString() string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		if f.Fname == "" {
			names[i] = fmt.Sprintf("col%d", i)
		} else {
			names[i] = f.Fname
		}
	}
	return strings.Join(names, ",")
}
