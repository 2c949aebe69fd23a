package wire

import (
	"github.com/cockroachdb/errors"
)

// MaxVarintLen is the maximum encoded size of a 64-bit varint.
const MaxVarintLen = 10

// VarintDecoder handles varint decoding operations
type VarintDecoder struct {
	decoder *Decoder
}

// VarintEncoder handles varint encoding operations
type VarintEncoder struct {
	encoder *Encoder
}

// NewVarintDecoder creates a new varint decoder
func NewVarintDecoder(d *Decoder) *VarintDecoder {
	return &VarintDecoder{decoder: d}
}

// NewVarintEncoder creates a new varint encoder
func NewVarintEncoder(e *Encoder) *VarintEncoder {
	return &VarintEncoder{encoder: e}
}

// DECODER METHODS

// DecodeVarint decodes a varint from the current position. It fails with
// ErrMalformedVarint when the region ends before a terminating byte or
// when no terminating byte appears within MaxVarintLen bytes.
func (vd *VarintDecoder) DecodeVarint() (uint64, error) {
	d := vd.decoder
	start := d.pos

	var result uint64
	for i := 0; i < MaxVarintLen; i++ {
		if d.pos >= d.limit {
			return 0, newDecodeError(start, errors.Wrap(ErrMalformedVarint, "input ended mid-varint"))
		}

		b := d.buf[d.pos]
		d.pos++

		// Add the lower 7 bits to result
		result |= uint64(b&0x7F) << (7 * i)

		// If MSB is not set, we're done
		if b < 0x80 {
			return result, nil
		}
	}

	return 0, newDecodeError(start, errors.Wrapf(ErrMalformedVarint, "no terminating byte within %d bytes", MaxVarintLen))
}

// DecodeInt64 decodes a varint as int64 (two's complement, not zigzag)
func (vd *VarintDecoder) DecodeInt64() (int64, error) {
	v, err := vd.DecodeVarint()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// SkipVarint skips over a varint without decoding it
func (vd *VarintDecoder) SkipVarint() error {
	_, err := vd.DecodeVarint()
	return err
}

// ENCODER METHODS

// EncodeVarint encodes a uint64 as varint
func (ve *VarintEncoder) EncodeVarint(v uint64) {
	ve.encoder.buf = AppendVarint(ve.encoder.buf, v)
}

// EncodeInt64 encodes an int64 as varint
func (ve *VarintEncoder) EncodeInt64(v int64) {
	ve.EncodeVarint(uint64(v))
}

// UTILITY FUNCTIONS

// AppendVarint appends v to b 7 bits at a time, least significant group
// first, with the continuation bit set on every byte but the last.
func AppendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// ConsumeVarint decodes the varint at the start of b and returns it with
// the number of bytes it occupied.
func ConsumeVarint(b []byte) (uint64, int, error) {
	d := NewDecoder(b)
	v, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	return v, d.pos, nil
}

// VarintSize returns the number of bytes needed to encode the given varint
func VarintSize(v uint64) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	case v < 1<<35:
		return 5
	case v < 1<<42:
		return 6
	case v < 1<<49:
		return 7
	case v < 1<<56:
		return 8
	case v < 1<<63:
		return 9
	default:
		return 10
	}
}

// Convenience methods for direct access

// DecodeVarint - convenience method for main decoder
func (d *Decoder) DecodeVarint() (uint64, error) {
	vd := NewVarintDecoder(d)
	return vd.DecodeVarint()
}

// DecodeInt64 - convenience method for main decoder
func (d *Decoder) DecodeInt64() (int64, error) {
	vd := NewVarintDecoder(d)
	return vd.DecodeInt64()
}

// EncodeVarint - convenience method for main encoder
func (e *Encoder) EncodeVarint(v uint64) {
	ve := NewVarintEncoder(e)
	ve.EncodeVarint(v)
}
