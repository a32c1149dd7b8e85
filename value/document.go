package value

import "encoding/binary"

// Field is one named entry of a Document.
type Field struct {
	Name  string
	Value Value
}

// Document is an ordered sequence of named fields. Field order is
// significant: two documents with the same fields in different order are not
// equal, and the column builder's structural merge is order sensitive.
//
// Documents are immutable by convention once handed to a column builder.
type Document struct {
	fields []Field
}

// NewDocument creates a document from fields in order.
func NewDocument(fields ...Field) *Document {
	return &Document{fields: fields}
}

// D is a shorthand constructor used heavily in tests:
//
//	value.D("a", value.Int32(1), "b", value.Int32(2))
//
// It panics if args does not alternate string names and Values.
func D(args ...any) *Document {
	if len(args)%2 != 0 {
		panic("value.D: odd number of arguments")
	}

	fields := make([]Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		name, ok := args[i].(string)
		if !ok {
			panic("value.D: field name is not a string")
		}
		val, ok := args[i+1].(Value)
		if !ok {
			panic("value.D: field value is not a value.Value")
		}
		fields = append(fields, Field{Name: name, Value: val})
	}

	return &Document{fields: fields}
}

// Fields returns the fields of the document in order. The returned slice is
// internal state and must not be modified.
func (d *Document) Fields() []Field {
	if d == nil {
		return nil
	}

	return d.fields
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}

	return len(d.fields)
}

// IsEmpty reports whether the document has no fields.
func (d *Document) IsEmpty() bool { return d.Len() == 0 }

// Equal reports whether d and o contain the same fields, with the same names
// and binary-equal values, in the same order.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i, f := range d.Fields() {
		of := o.fields[i]
		if f.Name != of.Name || !f.Value.BinaryEqual(of.Value) {
			return false
		}
	}

	return true
}

// EncodedSize returns the total encoded size of the document in bytes,
// including the leading size field and the trailing terminator.
func (d *Document) EncodedSize() int {
	size := 4 + 1
	for _, f := range d.Fields() {
		size += 1 + len(f.Name) + 1 + f.Value.PayloadSize()
	}

	return size
}

// AppendTo appends the encoded document to dst and returns the extended
// slice. The encoding is the BSON document layout: little-endian int32 total
// size, the fields as (type byte, NUL-terminated name, payload), and a zero
// terminator byte.
func (d *Document) AppendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.EncodedSize()))
	for _, f := range d.Fields() {
		dst = append(dst, byte(f.Value.Type()))
		dst = append(dst, f.Name...)
		dst = append(dst, 0)
		dst = f.Value.AppendPayload(dst)
	}

	return append(dst, 0)
}
