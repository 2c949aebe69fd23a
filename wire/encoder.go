package wire

import (
	"math"

	"github.com/cockroachdb/errors"
)

// MaxLength is the largest length a length prefix may announce.
const MaxLength = math.MaxInt32

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0),
	}
}

// NewEncoderSize creates an encoder whose buffer can hold size bytes
// without growing.
func NewEncoderSize(size int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, size),
	}
}

// NewEncoderBuffer creates an encoder that appends to buf.
func NewEncoderBuffer(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// WriteTag writes a field tag.
func (e *Encoder) WriteTag(fieldNumber FieldNumber, wireType WireType) {
	e.EncodeVarint(uint64(MakeTag(fieldNumber, wireType)))
}

// WriteRaw appends already encoded bytes.
func (e *Encoder) WriteRaw(raw []byte) {
	e.buf = append(e.buf, raw...)
}

// WriteLengthDelimited writes a length prefix followed by data.
func (e *Encoder) WriteLengthDelimited(data []byte) error {
	return e.EncodeBytes(data)
}

// CheckLength fails with ErrSerializationOverflow when n cannot be
// announced by a length prefix.
func CheckLength(n int) error {
	if n < 0 || n > MaxLength {
		return errors.Wrapf(ErrSerializationOverflow, "length %d exceeds %d", n, MaxLength)
	}
	return nil
}
