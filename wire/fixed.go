package wire

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// FixedDecoder handles fixed-width decoding operations. The codec only
// meets fixed-width values inside unknown fields.
type FixedDecoder struct {
	decoder *Decoder
}

// NewFixedDecoder creates a new fixed decoder
func NewFixedDecoder(d *Decoder) *FixedDecoder {
	return &FixedDecoder{decoder: d}
}

// DecodeFixed32 decodes a 32-bit fixed-width value
func (fd *FixedDecoder) DecodeFixed32() (uint32, error) {
	d := fd.decoder
	start := d.pos
	if err := fd.skip(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(d.buf[start:]), nil
}

// DecodeFixed64 decodes a 64-bit fixed-width value
func (fd *FixedDecoder) DecodeFixed64() (uint64, error) {
	d := fd.decoder
	start := d.pos
	if err := fd.skip(8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(d.buf[start:]), nil
}

func (fd *FixedDecoder) skip(n int) error {
	d := fd.decoder
	if d.BytesUntilLimit() < n {
		return newDecodeError(d.pos, errors.Wrapf(ErrTruncatedInput, "not enough data for fixed%d", n*8))
	}
	d.pos += n
	return nil
}
