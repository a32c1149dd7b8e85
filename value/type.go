package value

// Type identifies the type of a Value. The byte values follow the BSON
// element type tags so that literals written to a column are directly
// recognizable: every valid storage type is below 0x20 and therefore
// distinguishable from Simple-8b control bytes (0x80..0xD0) and the
// interleaved start byte (0xF0).
type Type uint8

const (
	TypeEOO        Type = 0x00 // end-of-stream sentinel, also "no value"
	TypeDouble     Type = 0x01
	TypeString     Type = 0x02
	TypeObject     Type = 0x03
	TypeArray      Type = 0x04
	TypeBinary     Type = 0x05
	TypeUndefined  Type = 0x06
	TypeObjectID   Type = 0x07
	TypeBool       Type = 0x08
	TypeDate       Type = 0x09
	TypeNull       Type = 0x0A
	TypeRegex      Type = 0x0B
	TypeDBRef      Type = 0x0C
	TypeCode       Type = 0x0D
	TypeSymbol     Type = 0x0E
	TypeCodeWScope Type = 0x0F
	TypeInt32      Type = 0x10
	TypeTimestamp  Type = 0x11
	TypeInt64      Type = 0x12
	TypeDecimal128 Type = 0x13
	TypeMaxKey     Type = 0x7F
	TypeMinKey     Type = 0xFF
)

// String returns a human readable name for the type.
func (t Type) String() string {
	switch t {
	case TypeEOO:
		return "EOO"
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeObject:
		return "Object"
	case TypeArray:
		return "Array"
	case TypeBinary:
		return "Binary"
	case TypeUndefined:
		return "Undefined"
	case TypeObjectID:
		return "ObjectID"
	case TypeBool:
		return "Bool"
	case TypeDate:
		return "Date"
	case TypeNull:
		return "Null"
	case TypeRegex:
		return "Regex"
	case TypeDBRef:
		return "DBRef"
	case TypeCode:
		return "Code"
	case TypeSymbol:
		return "Symbol"
	case TypeCodeWScope:
		return "CodeWScope"
	case TypeInt32:
		return "Int32"
	case TypeTimestamp:
		return "Timestamp"
	case TypeInt64:
		return "Int64"
	case TypeDecimal128:
		return "Decimal128"
	case TypeMaxKey:
		return "MaxKey"
	case TypeMinKey:
		return "MinKey"
	default:
		return "Unknown"
	}
}
