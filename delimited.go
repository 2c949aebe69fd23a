package entities

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/biggraph/entities/wire"
)

// DefaultMaxDelimitedSize bounds the length prefix ReadDelimited accepts
// when UnmarshalOptions.MaxSize is zero.
const DefaultMaxDelimitedSize = 4 << 20

// WriteDelimited writes v in the packed form prefixed with its
// varint-encoded length, so that several messages can share one stream.
func WriteDelimited(w io.Writer, v *VertexSet) (int, error) {
	size := v.SerializedSize()
	buf := wire.AppendVarint(make([]byte, 0, wire.VarintSize(uint64(size))+size), uint64(size))
	buf, err := MarshalOptions{}.MarshalAppend(buf, v)
	if err != nil {
		return 0, err
	}
	return w.Write(buf)
}

// ReadDelimited reads one message written by WriteDelimited using the
// global wire configuration. It returns io.EOF when r is exhausted before
// the length prefix starts.
func ReadDelimited(r io.Reader) (*VertexSet, error) {
	return defaultUnmarshalOptions().ReadDelimited(r)
}

// ReadDelimited reads one length-prefixed message from r. A prefix larger
// than MaxSize (DefaultMaxDelimitedSize when zero, wire.MaxLength when
// negative) fails with wire.ErrMessageTooLarge before the body is read.
func (o UnmarshalOptions) ReadDelimited(r io.Reader) (*VertexSet, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &singleByteReader{r: r}
	}

	length, err := readLength(br)
	if err != nil {
		return nil, err
	}

	limit := uint64(wire.MaxLength)
	switch {
	case o.MaxSize > 0:
		limit = min(limit, uint64(o.MaxSize))
	case o.MaxSize == 0:
		limit = DefaultMaxDelimitedSize
	}
	if length > limit {
		return nil, errors.Wrapf(wire.ErrMessageTooLarge, "length prefix %d exceeds the limit of %d", length, limit)
	}

	// the buffer grows with the bytes that actually arrive
	var body bytes.Buffer
	if n, err := io.CopyN(&body, r, int64(length)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(wire.ErrTruncatedInput, "message body: got %d of %d bytes", n, length)
		}
		return nil, err
	}
	return o.Unmarshal(body.Bytes())
}

func readLength(br io.ByteReader) (uint64, error) {
	var v uint64
	for i := 0; i < wire.MaxVarintLen; i++ {
		c, err := br.ReadByte()
		if err != nil {
			if i == 0 && errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return 0, errors.Wrap(wire.ErrMalformedVarint, "stream ended mid length prefix")
			}
			return 0, err
		}
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, nil
		}
	}
	return 0, errors.Wrap(wire.ErrMalformedVarint, "length prefix longer than 10 bytes")
}

// singleByteReader reads one byte at a time so nothing past the length
// prefix is consumed from the underlying reader.
type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}
