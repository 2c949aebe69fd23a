package entities

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/biggraph/entities/wire"
)

const idsFieldNumber wire.FieldNumber = 1

// Unmarshal decodes data into a new VertexSet.
func (o UnmarshalOptions) Unmarshal(data []byte) (*VertexSet, error) {
	b := NewBuilder()
	if err := o.decode(b, data); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Merge decodes data and merges it into b. Nothing is merged on error.
func (o UnmarshalOptions) Merge(b *Builder, data []byte) error {
	v, err := o.Unmarshal(data)
	if err != nil {
		return err
	}
	b.MergeFrom(v)
	return nil
}

func (o UnmarshalOptions) decode(b *Builder, data []byte) error {
	if o.MaxSize > 0 && len(data) > o.MaxSize {
		return errors.Wrapf(wire.ErrMessageTooLarge, "%d bytes exceeds the limit of %d", len(data), o.MaxSize)
	}

	d := wire.NewDecoder(data)
	for {
		start := d.Offset()
		n, t, err := d.ReadTag()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		switch {
		case n == idsFieldNumber && t == wire.WireVarint:
			id, err := d.DecodeInt64()
			if err != nil {
				return wire.WrapField(err, "ids")
			}
			b.Append(id)
		case n == idsFieldNumber && t == wire.WireBytes:
			if err := decodePackedIDs(d, b); err != nil {
				return wire.WrapField(err, "ids")
			}
		case n == idsFieldNumber && o.StrictWireType:
			return wire.WrapField(&wire.DecodeError{
				Offset: start,
				Err:    errors.Wrapf(wire.ErrUnexpectedWireType, "got %s, want varint or bytes", t),
			}, "ids")
		case o.DiscardUnknown:
			if _, err := d.SkipField(n, t); err != nil {
				return err
			}
		default:
			if err := d.ReadUnknownField(n, t, b.mutableUnknown()); err != nil {
				return err
			}
		}
	}
}

// decodePackedIDs reads one length-delimited run of varints. A varint that
// crosses the end of the run is malformed.
func decodePackedIDs(d *wire.Decoder, b *Builder) error {
	length, err := d.ReadLength()
	if err != nil {
		return err
	}
	old, err := d.PushLimit(length)
	if err != nil {
		return err
	}
	b.mutableIDs()
	for d.BytesUntilLimit() > 0 {
		id, err := d.DecodeInt64()
		if err != nil {
			return err
		}
		b.ids = append(b.ids, id)
	}
	d.PopLimit(old)
	return nil
}

// Size returns the length of v encoded with o.
func (o MarshalOptions) Size(v *VertexSet) int {
	if v == nil {
		return 0
	}
	if !o.Unpacked {
		return v.SerializedSize()
	}
	s := v.memoSizes()
	return s.ids + len(v.ids)*wire.TagSize(idsFieldNumber) + v.unknown.Size()
}

// Marshal encodes v.
func (o MarshalOptions) Marshal(v *VertexSet) ([]byte, error) {
	return o.MarshalAppend(nil, v)
}

// MarshalAppend appends the encoding of v to b. Recognized fields come
// first, then unknown fields in the order they were recorded.
func (o MarshalOptions) MarshalAppend(b []byte, v *VertexSet) ([]byte, error) {
	if v == nil {
		v = defaultVertexSet
	}
	s := v.memoSizes()
	if err := wire.CheckLength(s.ids); err != nil {
		return b, errors.Wrap(err, "ids")
	}
	size := o.Size(v)
	if err := wire.CheckLength(size); err != nil {
		return b, err
	}

	var e *wire.Encoder
	if b == nil {
		e = wire.NewEncoderSize(size)
	} else {
		e = wire.NewEncoderBuffer(slices.Grow(b, size))
	}
	ve := wire.NewVarintEncoder(e)
	if len(v.ids) > 0 {
		if o.Unpacked {
			for _, id := range v.ids {
				e.WriteTag(idsFieldNumber, wire.WireVarint)
				ve.EncodeInt64(id)
			}
		} else {
			e.WriteTag(idsFieldNumber, wire.WireBytes)
			e.EncodeVarint(uint64(s.ids))
			for _, id := range v.ids {
				ve.EncodeInt64(id)
			}
		}
	}
	v.unknown.Encode(e)
	return e.Bytes(), nil
}
