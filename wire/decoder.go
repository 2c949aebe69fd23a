package wire

import (
	"github.com/cockroachdb/errors"
)

// maxGroupDepth bounds nesting of skipped groups.
const maxGroupDepth = 100

// Decoder handles low-level protobuf wire format decoding. Reads never go
// past the current limit, which is the end of the input unless a nested
// region has been pushed with PushLimit.
type Decoder struct {
	buf   []byte
	pos   int
	limit int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf:   data,
		pos:   0,
		limit: len(data),
	}
}

// Offset returns the current cursor position.
func (d *Decoder) Offset() int {
	return d.pos
}

// BytesUntilLimit reports how many bytes remain in the current region.
func (d *Decoder) BytesUntilLimit() int {
	return d.limit - d.pos
}

// AtEnd reports whether the current region is exhausted.
func (d *Decoder) AtEnd() bool {
	return d.pos >= d.limit
}

// PushLimit restricts reads to the next n bytes and returns the previous
// limit, which must be handed back to PopLimit once the region is consumed.
func (d *Decoder) PushLimit(n int) (int, error) {
	if n < 0 || n > d.limit-d.pos {
		return 0, newDecodeError(d.pos, errors.Wrapf(ErrTruncatedInput, "region of %d bytes exceeds the %d remaining", n, d.limit-d.pos))
	}
	old := d.limit
	d.limit = d.pos + n
	return old, nil
}

// PopLimit restores a limit returned by PushLimit.
func (d *Decoder) PopLimit(old int) {
	d.limit = old
}

// ReadTag reads the next field tag. It returns field number 0 when the
// current region has no more bytes.
func (d *Decoder) ReadTag() (FieldNumber, WireType, error) {
	if d.AtEnd() {
		return 0, 0, nil
	}

	start := d.pos
	v, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}

	fieldNumber, wireType := ParseTag(Tag(v))
	if fieldNumber <= 0 || v>>3 > uint64(MaxFieldNumber) {
		return 0, 0, newDecodeError(start, errors.Wrapf(ErrInvalidTag, "field number %d out of range", v>>3))
	}
	return fieldNumber, wireType, nil
}

// ReadLength reads a varint length prefix and checks it against the bytes
// left in the current region.
func (d *Decoder) ReadLength() (int, error) {
	start := d.pos
	length, err := d.DecodeVarint()
	if err != nil {
		return 0, err
	}

	if length > uint64(d.BytesUntilLimit()) {
		return 0, newDecodeError(start, errors.Wrapf(ErrTruncatedInput, "length %d exceeds the %d remaining bytes", length, d.BytesUntilLimit()))
	}
	return int(length), nil
}

// SkipField skips the value of a field whose tag has just been read and
// returns the raw bytes it covered. The returned slice aliases the input.
func (d *Decoder) SkipField(fieldNumber FieldNumber, wireType WireType) ([]byte, error) {
	start := d.pos
	if err := d.skipValue(fieldNumber, wireType, 0); err != nil {
		return nil, err
	}
	return d.buf[start:d.pos:d.pos], nil
}

// skipValue skips a field based on wire type
func (d *Decoder) skipValue(fieldNumber FieldNumber, wireType WireType, depth int) error {
	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		return vd.SkipVarint()
	case WireFixed64:
		fd := NewFixedDecoder(d)
		return fd.skip(8)
	case WireBytes:
		bd := NewBytesDecoder(d)
		return bd.SkipBytes()
	case WireFixed32:
		fd := NewFixedDecoder(d)
		return fd.skip(4)
	case WireStartGroup:
		return d.skipGroup(fieldNumber, depth)
	case WireEndGroup:
		return newDecodeError(d.pos, errors.Wrapf(ErrInvalidTag, "end group for field %d without start", fieldNumber))
	default:
		return newDecodeError(d.pos, errors.Wrapf(ErrUnexpectedWireType, "wire type %d for field %d", wireType, fieldNumber))
	}
}

// skipGroup consumes fields up to and including the end-group tag that
// matches fieldNumber.
func (d *Decoder) skipGroup(fieldNumber FieldNumber, depth int) error {
	if depth >= maxGroupDepth {
		return newDecodeError(d.pos, errors.Wrapf(ErrInvalidTag, "group nesting exceeds %d", maxGroupDepth))
	}
	for {
		if d.AtEnd() {
			return newDecodeError(d.pos, errors.Wrapf(ErrTruncatedInput, "group %d not terminated", fieldNumber))
		}

		tagStart := d.pos
		n, t, err := d.ReadTag()
		if err != nil {
			return err
		}
		if t == WireEndGroup {
			if n != fieldNumber {
				return newDecodeError(tagStart, errors.Wrapf(ErrInvalidTag, "end group %d does not match start group %d", n, fieldNumber))
			}
			return nil
		}
		if err := d.skipValue(n, t, depth+1); err != nil {
			return err
		}
	}
}

// ReadUnknownField skips a field the caller does not recognize and
// records it into unknown. A nil bag discards the field.
func (d *Decoder) ReadUnknownField(fieldNumber FieldNumber, wireType WireType, unknown *UnknownFields) error {
	raw, err := d.SkipField(fieldNumber, wireType)
	if err != nil {
		return err
	}
	if unknown != nil {
		unknown.Add(fieldNumber, wireType, raw)
	}
	return nil
}
