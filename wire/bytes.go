package wire

// BytesDecoder handles length-delimited bytes decoding operations
type BytesDecoder struct {
	decoder *Decoder
}

// BytesEncoder handles length-delimited bytes encoding operations
type BytesEncoder struct {
	encoder *Encoder
}

// NewBytesDecoder creates a new bytes decoder
func NewBytesDecoder(d *Decoder) *BytesDecoder {
	return &BytesDecoder{decoder: d}
}

// NewBytesEncoder creates a new bytes encoder
func NewBytesEncoder(e *Encoder) *BytesEncoder {
	return &BytesEncoder{encoder: e}
}

// DECODER METHODS

// DecodeBytes decodes a length-delimited byte array
func (bd *BytesDecoder) DecodeBytes() ([]byte, error) {
	d := bd.decoder
	length, err := d.ReadLength()
	if err != nil {
		return nil, err
	}

	// Copy the data to avoid sharing the underlying buffer
	data := make([]byte, length)
	copy(data, d.buf[d.pos:d.pos+length])
	d.pos += length

	return data, nil
}

// SkipBytes skips over a length-delimited byte array
func (bd *BytesDecoder) SkipBytes() error {
	d := bd.decoder
	length, err := d.ReadLength()
	if err != nil {
		return err
	}

	d.pos += length
	return nil
}

// ENCODER METHODS

// EncodeBytes encodes a byte array as length-delimited
func (be *BytesEncoder) EncodeBytes(data []byte) error {
	if err := CheckLength(len(data)); err != nil {
		return err
	}

	be.encoder.EncodeVarint(uint64(len(data)))
	be.encoder.buf = append(be.encoder.buf, data...)
	return nil
}

// Convenience methods for direct access

// DecodeBytes - convenience method for main decoder
func (d *Decoder) DecodeBytes() ([]byte, error) {
	bd := NewBytesDecoder(d)
	return bd.DecodeBytes()
}

// EncodeBytes - convenience method for main encoder
func (e *Encoder) EncodeBytes(data []byte) error {
	be := NewBytesEncoder(e)
	return be.EncodeBytes(data)
}
