// Package value models the typed values and documents consumed by the column
// builder. A Value is one already-parsed element: a type tag plus payload,
// without a field name. Payload layouts on the wire follow the BSON element
// value layouts, so a literal written to a column is a valid BSON element
// value prefixed by its type byte.
package value

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/arloliu/doccol/num128"
)

// ObjectIDSize is the total size of an ObjectID in bytes.
const ObjectIDSize = 12

// oidInstanceUniqueOffset and oidInstanceUniqueSize delimit the 5-byte
// instance-unique portion of an ObjectID (between the 4-byte timestamp and the
// 3-byte counter).
const (
	oidInstanceUniqueOffset = 4
	oidInstanceUniqueSize   = 5
)

// Value is a single typed element. The zero Value has type TypeEOO and is
// used as the "no value" sentinel throughout the column builder.
//
// Values are immutable by convention; the payload accessors return internal
// state that must not be modified.
type Value struct {
	doc  *Document
	str  string
	str2 string
	raw  []byte
	i64  int64
	u128 num128.Uint128
	sub  byte
	t    Type
}

// Type returns the type tag of the value.
func (v Value) Type() Type { return v.t }

// IsMissing reports whether the value is the "no value" sentinel.
func (v Value) IsMissing() bool { return v.t == TypeEOO }

// Double returns a new Double value.
func Double(f float64) Value {
	return Value{t: TypeDouble, i64: int64(math.Float64bits(f))}
}

// String returns a new String value.
func String(s string) Value {
	return Value{t: TypeString, str: s}
}

// Object returns a new Object value wrapping doc. A nil doc is treated as an
// empty document.
func Object(doc *Document) Value {
	if doc == nil {
		doc = &Document{}
	}

	return Value{t: TypeObject, doc: doc}
}

// Array returns a new Array value wrapping doc. Array elements are document
// fields named by their decimal index.
func Array(doc *Document) Value {
	if doc == nil {
		doc = &Document{}
	}

	return Value{t: TypeArray, doc: doc}
}

// Binary returns a new Binary value with the given subtype. The data slice is
// retained, not copied.
func Binary(subtype byte, data []byte) Value {
	return Value{t: TypeBinary, sub: subtype, raw: data}
}

// Undefined returns the Undefined value.
func Undefined() Value { return Value{t: TypeUndefined} }

// ObjectID returns a new ObjectID value from its 12 raw bytes.
func ObjectID(oid [ObjectIDSize]byte) Value {
	return Value{t: TypeObjectID, raw: append([]byte(nil), oid[:]...)}
}

// Bool returns a new Bool value.
func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}

	return Value{t: TypeBool, i64: i}
}

// Date returns a new Date value from milliseconds since the Unix epoch.
func Date(millis int64) Value {
	return Value{t: TypeDate, i64: millis}
}

// Null returns the Null value.
func Null() Value { return Value{t: TypeNull} }

// Regex returns a new regular expression value.
func Regex(pattern, options string) Value {
	return Value{t: TypeRegex, str: pattern, str2: options}
}

// DBRef returns a new DBPointer value referencing oid in namespace.
func DBRef(namespace string, oid [ObjectIDSize]byte) Value {
	return Value{t: TypeDBRef, str: namespace, raw: append([]byte(nil), oid[:]...)}
}

// Code returns a new JavaScript code value.
func Code(code string) Value {
	return Value{t: TypeCode, str: code}
}

// Symbol returns a new Symbol value.
func Symbol(s string) Value {
	return Value{t: TypeSymbol, str: s}
}

// CodeWScope returns a new code-with-scope value.
func CodeWScope(code string, scope *Document) Value {
	if scope == nil {
		scope = &Document{}
	}

	return Value{t: TypeCodeWScope, str: code, doc: scope}
}

// Int32 returns a new Int32 value.
func Int32(i int32) Value {
	return Value{t: TypeInt32, i64: int64(i)}
}

// Timestamp returns a new Timestamp value from its seconds and increment
// components. The combined 64-bit representation stores the seconds in the
// high 32 bits, matching the wire layout.
func Timestamp(seconds, increment uint32) Value {
	return Value{t: TypeTimestamp, i64: int64(uint64(seconds)<<32 | uint64(increment))}
}

// Int64 returns a new Int64 value.
func Int64(i int64) Value {
	return Value{t: TypeInt64, i64: i}
}

// Decimal128 returns a new Decimal128 value from its high and low 64-bit
// halves.
func Decimal128(hi, lo uint64) Value {
	return Value{t: TypeDecimal128, u128: num128.New(hi, lo)}
}

// MinKey returns the MinKey value. MinKey cannot be stored in a column.
func MinKey() Value { return Value{t: TypeMinKey} }

// MaxKey returns the MaxKey value. MaxKey cannot be stored in a column.
func MaxKey() Value { return Value{t: TypeMaxKey} }

// DoubleValue returns the float64 payload of a Double value.
func (v Value) DoubleValue() float64 { return math.Float64frombits(uint64(v.i64)) }

// StringValue returns the string payload of a String, Code or Symbol value,
// or the pattern of a Regex value.
func (v Value) StringValue() string { return v.str }

// RegexOptions returns the options string of a Regex value.
func (v Value) RegexOptions() string { return v.str2 }

// Int32Value returns the payload of an Int32 value.
func (v Value) Int32Value() int32 { return int32(v.i64) }

// Int64Value returns the payload of an Int64 value.
func (v Value) Int64Value() int64 { return v.i64 }

// BoolValue returns the payload of a Bool value.
func (v Value) BoolValue() bool { return v.i64 != 0 }

// DateMillis returns the milliseconds payload of a Date value.
func (v Value) DateMillis() int64 { return v.i64 }

// TimestampBits returns the combined 64-bit representation of a Timestamp
// value (seconds in the high 32 bits, increment in the low 32 bits).
func (v Value) TimestampBits() uint64 { return uint64(v.i64) }

// ObjectIDBytes returns the 12 raw bytes of an ObjectID or DBRef value.
func (v Value) ObjectIDBytes() []byte { return v.raw }

// InstanceUnique returns the 5-byte instance-unique portion of an ObjectID.
func (v Value) InstanceUnique() []byte {
	return v.raw[oidInstanceUniqueOffset : oidInstanceUniqueOffset+oidInstanceUniqueSize]
}

// BinaryValue returns the subtype and data of a Binary value.
func (v Value) BinaryValue() (byte, []byte) { return v.sub, v.raw }

// Decimal128Value returns the 128-bit payload of a Decimal128 value.
func (v Value) Decimal128Value() num128.Uint128 { return v.u128 }

// DocumentValue returns the document payload of an Object, Array or
// CodeWScope value.
func (v Value) DocumentValue() *Document { return v.doc }

// BinaryEqual reports whether v and o have identical type tags and identical
// payload bytes. Field names are not part of a Value and never participate.
func (v Value) BinaryEqual(o Value) bool {
	if v.t != o.t {
		return false
	}

	switch v.t {
	case TypeEOO, TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return true
	case TypeDouble, TypeBool, TypeDate, TypeInt32, TypeTimestamp, TypeInt64:
		return v.i64 == o.i64
	case TypeDecimal128:
		return v.u128 == o.u128
	case TypeString, TypeCode, TypeSymbol:
		return v.str == o.str
	case TypeRegex:
		return v.str == o.str && v.str2 == o.str2
	case TypeObjectID:
		return bytes.Equal(v.raw, o.raw)
	case TypeBinary:
		return v.sub == o.sub && bytes.Equal(v.raw, o.raw)
	case TypeDBRef:
		return v.str == o.str && bytes.Equal(v.raw, o.raw)
	case TypeObject, TypeArray:
		return v.doc.Equal(o.doc)
	case TypeCodeWScope:
		return v.str == o.str && v.doc.Equal(o.doc)
	default:
		return false
	}
}

// PayloadSize returns the encoded size of the value payload in bytes,
// excluding the type byte.
func (v Value) PayloadSize() int {
	switch v.t {
	case TypeEOO, TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return 0
	case TypeBool:
		return 1
	case TypeInt32:
		return 4
	case TypeDouble, TypeDate, TypeTimestamp, TypeInt64:
		return 8
	case TypeObjectID:
		return ObjectIDSize
	case TypeDecimal128:
		return 16
	case TypeString, TypeCode, TypeSymbol:
		return 4 + len(v.str) + 1
	case TypeRegex:
		return len(v.str) + 1 + len(v.str2) + 1
	case TypeDBRef:
		return 4 + len(v.str) + 1 + ObjectIDSize
	case TypeBinary:
		return 4 + 1 + len(v.raw)
	case TypeObject, TypeArray:
		return v.doc.EncodedSize()
	case TypeCodeWScope:
		return 4 + 4 + len(v.str) + 1 + v.doc.EncodedSize()
	default:
		return 0
	}
}

// AppendPayload appends the encoded value payload to dst and returns the
// extended slice. The layout matches the BSON element value layout for the
// type.
func (v Value) AppendPayload(dst []byte) []byte {
	switch v.t {
	case TypeEOO, TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return dst
	case TypeBool:
		return append(dst, byte(v.i64))
	case TypeInt32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.i64))
	case TypeDouble, TypeDate, TypeTimestamp, TypeInt64:
		return binary.LittleEndian.AppendUint64(dst, uint64(v.i64))
	case TypeObjectID:
		return append(dst, v.raw...)
	case TypeDecimal128:
		dst = binary.LittleEndian.AppendUint64(dst, v.u128.Lo)
		return binary.LittleEndian.AppendUint64(dst, v.u128.Hi)
	case TypeString, TypeCode, TypeSymbol:
		return appendString(dst, v.str)
	case TypeRegex:
		dst = append(dst, v.str...)
		dst = append(dst, 0)
		dst = append(dst, v.str2...)
		return append(dst, 0)
	case TypeDBRef:
		dst = appendString(dst, v.str)
		return append(dst, v.raw...)
	case TypeBinary:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.raw)))
		dst = append(dst, v.sub)
		return append(dst, v.raw...)
	case TypeObject, TypeArray:
		return v.doc.AppendTo(dst)
	case TypeCodeWScope:
		total := 4 + 4 + len(v.str) + 1 + v.doc.EncodedSize()
		dst = binary.LittleEndian.AppendUint32(dst, uint32(total))
		dst = appendString(dst, v.str)
		return v.doc.AppendTo(dst)
	default:
		return dst
	}
}

// appendString appends a length-prefixed, NUL-terminated string.
func appendString(dst []byte, s string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)+1))
	dst = append(dst, s...)

	return append(dst, 0)
}
