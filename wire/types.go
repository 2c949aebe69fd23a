package wire

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int32

const (
	WireVarint     WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64    WireType = 1 // fixed64, sfixed64, double
	WireBytes      WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireStartGroup WireType = 3 // deprecated groups, only ever skipped
	WireEndGroup   WireType = 4
	WireFixed32    WireType = 5 // fixed32, sfixed32, float
)

// String returns the wire type name used in error messages.
func (t WireType) String() string {
	switch t {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireStartGroup:
		return "start_group"
	case WireEndGroup:
		return "end_group"
	case WireFixed32:
		return "fixed32"
	default:
		return "invalid"
	}
}

// FieldNumber represents a protobuf field number
type FieldNumber int32

// MaxFieldNumber is the largest field number the wire format allows.
const MaxFieldNumber FieldNumber = 1<<29 - 1

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// TagSize returns the encoded size of the tag for the given field number.
// The wire type never changes the size.
func TagSize(fieldNumber FieldNumber) int {
	return VarintSize(uint64(MakeTag(fieldNumber, WireVarint)))
}
