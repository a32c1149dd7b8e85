package column

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/doccol/simple8b"
	"github.com/arloliu/doccol/value"
)

// colItem is one structural element of a parsed column body: an uncompressed
// literal, a Simple-8b run, or an interleaved section.
type colItem struct {
	kind    string // "literal", "run", "interleaved"
	typ     value.Type
	control byte
	blocks  int
	slots   int
	ref     []byte
	items   []colItem
}

// parseColumn structurally validates a finalized column: leading element
// count, well-formed body, trailing EOO. It exists only for tests; the module
// itself has no read path.
func parseColumn(t *testing.T, data []byte) (uint32, []colItem) {
	t.Helper()
	require.GreaterOrEqual(t, len(data), 5, "count plus EOO is the minimum column")

	count := binary.LittleEndian.Uint32(data[0:4])
	items, end := parseBody(t, data, 4)
	require.Equal(t, len(data)-1, end, "nothing may follow the terminator")
	require.Equal(t, byte(0), data[end], "column must end with EOO")

	return count, items
}

// parseBody walks literals, runs and interleaved sections until an EOO byte
// and returns its position.
func parseBody(t *testing.T, data []byte, i int) ([]colItem, int) {
	t.Helper()

	var items []colItem
	for {
		require.Less(t, i, len(data), "ran off the end without EOO")
		b := data[i]

		switch {
		case b == 0x00:
			return items, i

		case b == InterleavedStartControlByte:
			refSize := int(binary.LittleEndian.Uint32(data[i+1:]))
			ref := data[i+1 : i+1+refSize]
			inner, end := parseBody(t, data, i+1+refSize)
			require.Equal(t, byte(0), data[end], "interleaved section must end with EOO")
			items = append(items, colItem{kind: "interleaved", ref: ref, items: inner})
			i = end + 1

		case b >= 0x80 && b <= 0xDF:
			blocks := int(b&0x0F) + 1
			require.LessOrEqual(t, i+1+8*blocks, len(data), "run blocks must fit the buffer")
			slots := simple8b.CountSlots(data[i+1 : i+1+8*blocks])
			items = append(items, colItem{kind: "run", control: b, blocks: blocks, slots: slots})
			i += 1 + 8*blocks

		case b < 0x20:
			typ := value.Type(b)
			require.Equal(t, byte(0), data[i+1], "literal carries an empty field name")
			size := literalPayloadSize(t, typ, data[i+2:])
			items = append(items, colItem{kind: "literal", typ: typ})
			i += 2 + size

		default:
			t.Fatalf("unexpected control byte 0x%02X at offset %d", b, i)
		}
	}
}

func literalPayloadSize(t *testing.T, typ value.Type, data []byte) int {
	t.Helper()
	switch typ {
	case value.TypeNull, value.TypeUndefined:
		return 0
	case value.TypeBool:
		return 1
	case value.TypeInt32:
		return 4
	case value.TypeInt64, value.TypeDouble, value.TypeDate, value.TypeTimestamp:
		return 8
	case value.TypeObjectID:
		return 12
	case value.TypeDecimal128:
		return 16
	case value.TypeString, value.TypeCode, value.TypeSymbol:
		return 4 + int(binary.LittleEndian.Uint32(data))
	case value.TypeBinary:
		return 4 + 1 + int(binary.LittleEndian.Uint32(data))
	case value.TypeObject, value.TypeArray:
		return int(binary.LittleEndian.Uint32(data))
	default:
		t.Fatalf("literal payload size not implemented for %s", typ)
		return 0
	}
}

// regularElements sums the row elements of a parsed regular-mode column.
func regularElements(items []colItem) int {
	total := 0
	for _, it := range items {
		switch it.kind {
		case "literal":
			total++
		case "run":
			total += it.slots
		}
	}

	return total
}
