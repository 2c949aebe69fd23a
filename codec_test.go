package entities

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/biggraph/entities/wire"
)

func TestMarshal_KnownEncodings(t *testing.T) {
	tests := []struct {
		name     string
		ids      []int64
		packed   []byte
		unpacked []byte
	}{
		{name: "empty", ids: nil, packed: []byte{}, unpacked: []byte{}},
		{
			name:     "small",
			ids:      []int64{1, 2, 3},
			packed:   []byte{0x0a, 0x03, 0x01, 0x02, 0x03},
			unpacked: []byte{0x08, 0x01, 0x08, 0x02, 0x08, 0x03},
		},
		{
			name:     "two_byte_varint",
			ids:      []int64{300},
			packed:   []byte{0x0a, 0x02, 0xac, 0x02},
			unpacked: []byte{0x08, 0xac, 0x02},
		},
		{
			name: "negative_is_ten_bytes",
			ids:  []int64{-1},
			packed: []byte{
				0x0a, 0x0a, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01,
			},
			unpacked: []byte{
				0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewBuilder().AppendAll(tt.ids...).Build()

			packed, err := MarshalOptions{}.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.packed, packed)

			unpacked, err := MarshalOptions{Unpacked: true}.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.unpacked, unpacked)
			assert.Len(t, unpacked, MarshalOptions{Unpacked: true}.Size(v))

			fromPacked, err := UnmarshalOptions{}.Unmarshal(packed)
			require.NoError(t, err)
			fromUnpacked, err := UnmarshalOptions{}.Unmarshal(unpacked)
			require.NoError(t, err)
			assert.True(t, fromPacked.Equal(v))
			assert.True(t, fromUnpacked.Equal(v))
		})
	}
}

func TestRoundTrip_Random(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		n := r.IntN(50)
		b := NewBuilder()
		for j := 0; j < n; j++ {
			switch r.IntN(3) {
			case 0:
				b.Append(r.Int64N(128))
			case 1:
				b.Append(-r.Int64())
			default:
				b.Append(r.Int64())
			}
		}
		v := b.Build()

		data, err := Marshal(v)
		require.NoError(t, err)
		require.Len(t, data, v.SerializedSize())

		got, err := Unmarshal(data)
		require.NoError(t, err)
		require.True(t, v.Equal(got), "round trip of %v gave %v", v, got)
		require.Equal(t, v.Hash(), got.Hash())
	}
}

func TestUnmarshal_Empty(t *testing.T) {
	v, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
	assert.True(t, v.Equal(Default()))

	v, err = Unmarshal([]byte{})
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}

func TestUnmarshal_MixedPackedAndUnpacked(t *testing.T) {
	data := []byte{0x08, 0x01, 0x0a, 0x02, 0x02, 0x03, 0x08, 0x04}
	v, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, v.IDs())
}

func TestUnmarshal_EmptyPackedRun(t *testing.T) {
	v, err := Unmarshal([]byte{0x0a, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}

func TestUnmarshal_ConcatenationMerges(t *testing.T) {
	a := NewBuilder().AppendAll(1, 2).Build()
	b := NewBuilder().AppendAll(3, 4, 5).Build()

	da, err := Marshal(a)
	require.NoError(t, err)
	db, err := Marshal(b)
	require.NoError(t, err)

	got, err := Unmarshal(append(da, db...))
	require.NoError(t, err)
	want := NewBuilder().MergeFrom(a).MergeFrom(b).Build()
	assert.True(t, want.Equal(got))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got.IDs())
}

func TestUnmarshal_PreservesUnknownFields(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{
			name: "after_ids",
			in:   []byte{0x0a, 0x01, 0x05, 0x10, 0x07, 0x1a, 0x02, 'a', 'b'},
			want: []byte{0x0a, 0x01, 0x05, 0x10, 0x07, 0x1a, 0x02, 'a', 'b'},
		},
		{
			name: "before_ids",
			in:   []byte{0x10, 0x07, 0x0a, 0x01, 0x05},
			want: []byte{0x0a, 0x01, 0x05, 0x10, 0x07},
		},
		{
			name: "repeated_unknown_keeps_order",
			in:   []byte{0x10, 0x01, 0x18, 0x02, 0x10, 0x03},
			want: []byte{0x10, 0x01, 0x10, 0x03, 0x18, 0x02},
		},
		{
			name: "fixed_widths",
			in:   []byte{0x21, 1, 2, 3, 4, 5, 6, 7, 8, 0x2d, 1, 2, 3, 4},
			want: []byte{0x21, 1, 2, 3, 4, 5, 6, 7, 8, 0x2d, 1, 2, 3, 4},
		},
		{
			name: "group",
			in:   []byte{0x13, 0x08, 0x01, 0x14, 0x08, 0x02},
			want: []byte{0x0a, 0x01, 0x02, 0x13, 0x08, 0x01, 0x14},
		},
		{
			name: "ids_field_with_fixed32",
			in:   []byte{0x0d, 1, 0, 0, 0},
			want: []byte{0x0d, 1, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalOptions{}.Unmarshal(tt.in)
			require.NoError(t, err)

			out, err := MarshalOptions{}.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, len(out), v.SerializedSize())
		})
	}
}

func TestUnmarshal_DiscardUnknown(t *testing.T) {
	v, err := UnmarshalOptions{DiscardUnknown: true}.Unmarshal([]byte{0x10, 0x07, 0x0a, 0x01, 0x05, 0x13, 0x14})
	require.NoError(t, err)
	assert.Nil(t, v.UnknownFields())
	assert.Equal(t, []int64{5}, v.IDs())
}

func TestUnmarshal_StrictWireType(t *testing.T) {
	data := []byte{0x08, 0x01, 0x0d, 1, 0, 0, 0}

	v, err := UnmarshalOptions{}.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, v.IDs())
	assert.Equal(t, 1, v.UnknownFields().Count())

	_, err = UnmarshalOptions{StrictWireType: true}.Unmarshal(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrUnexpectedWireType))
	assert.Equal(t, 2, wire.Offset(err))

	var de *wire.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"ids"}, de.FieldPath)
}

func TestUnmarshal_MaxSize(t *testing.T) {
	data := []byte{0x0a, 0x03, 0x01, 0x02, 0x03}

	_, err := UnmarshalOptions{MaxSize: 4}.Unmarshal(data)
	assert.True(t, errors.Is(err, wire.ErrMessageTooLarge))

	v, err := UnmarshalOptions{MaxSize: 5}.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
}

func TestUnmarshal_Errors(t *testing.T) {
	elevenFF := make([]byte, 11)
	for i := range elevenFF {
		elevenFF[i] = 0xff
	}

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{name: "eleven_continuation_bytes", in: elevenFF, want: wire.ErrMalformedVarint},
		{name: "tag_cut_short", in: []byte{0x80}, want: wire.ErrMalformedVarint},
		{name: "id_cut_short", in: []byte{0x08, 0xff}, want: wire.ErrMalformedVarint},
		{name: "length_past_end", in: []byte{0x0a, 0x05, 0x01}, want: wire.ErrTruncatedInput},
		{name: "varint_crosses_packed_run", in: []byte{0x0a, 0x01, 0x81, 0x01}, want: wire.ErrMalformedVarint},
		{name: "field_zero", in: []byte{0x00, 0x01}, want: wire.ErrInvalidTag},
		{name: "reserved_wire_type", in: []byte{0x16, 0x01}, want: wire.ErrUnexpectedWireType},
		{name: "unknown_length_past_end", in: []byte{0x12, 0x04, 'a'}, want: wire.ErrTruncatedInput},
		{name: "fixed64_cut_short", in: []byte{0x11, 1, 2, 3}, want: wire.ErrTruncatedInput},
		{name: "unterminated_group", in: []byte{0x13, 0x08, 0x01}, want: wire.ErrTruncatedInput},
		{name: "lone_end_group", in: []byte{0x14}, want: wire.ErrInvalidTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Unmarshal(tt.in)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestMarshal_Overflow(t *testing.T) {
	v := &VertexSet{ids: []int64{1}}
	v.sizeOnce.Do(func() {
		v.sizes = sizes{ids: wire.MaxLength + 1, total: math.MaxInt}
	})

	_, err := MarshalOptions{}.Marshal(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrSerializationOverflow))
}

func TestMarshal_AppendsToBuffer(t *testing.T) {
	v := NewBuilder().AppendAll(1).Build()
	out, err := MarshalOptions{}.MarshalAppend([]byte{0xaa}, v)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0x0a, 0x01, 0x01}, out)
}

func TestMarshal_NilIsEmpty(t *testing.T) {
	out, err := Marshal(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGlobalConfig(t *testing.T) {
	prev := wire.CurrentConfig()
	t.Cleanup(func() { wire.SetConfig(prev) })

	wire.SetConfig(wire.Config{DiscardUnknownFields: true, StrictWireType: true, MaxMessageSize: 16})

	v, err := Unmarshal([]byte{0x0a, 0x02, 0x01, 0x02, 0x10, 0x07})
	require.NoError(t, err)
	assert.Nil(t, v.UnknownFields())

	_, err = Unmarshal([]byte{0x0d, 1, 0, 0, 0})
	assert.True(t, errors.Is(err, wire.ErrUnexpectedWireType))

	_, err = Unmarshal(make([]byte, 17))
	assert.True(t, errors.Is(err, wire.ErrMessageTooLarge))
}

func TestMarshal_DefaultEntryPointsMatchSerializedSize(t *testing.T) {
	prev := wire.CurrentConfig()
	t.Cleanup(func() { wire.SetConfig(prev) })
	wire.SetConfig(wire.Config{DiscardUnknownFields: true, StrictWireType: true})

	v := NewBuilder().AppendAll(1, 2, 3).Build()

	out, err := v.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x03, 0x01, 0x02, 0x03}, out)
	assert.Len(t, out, v.SerializedSize())

	out, err = Marshal(v)
	require.NoError(t, err)
	assert.Len(t, out, v.SerializedSize())

	unpacked := MarshalOptions{Unpacked: true}
	out, err = unpacked.Marshal(v)
	require.NoError(t, err)
	assert.Len(t, out, unpacked.Size(v))
	assert.Equal(t, 6, unpacked.Size(v))
}

func TestInterop_Protowire(t *testing.T) {
	ids := []int64{0, -1, 1000000000000, 42}

	var packed []byte
	for _, id := range ids {
		packed = protowire.AppendVarint(packed, uint64(id))
	}
	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendBytes(data, packed)
	data = protowire.AppendTag(data, 7, protowire.Fixed32Type)
	data = protowire.AppendFixed32(data, 0xdeadbeef)

	v, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, ids, v.IDs())
	assert.Equal(t, len(data), v.SerializedSize())

	out, err := MarshalOptions{}.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestInterop_Dynamicpb(t *testing.T) {
	md, err := Descriptor()
	require.NoError(t, err)
	fd := md.Fields().ByName("ids")
	require.NotNil(t, fd)

	v := NewBuilder().AppendAll(7, -3, 1<<40).Build()
	data, err := MarshalOptions{}.Marshal(v)
	require.NoError(t, err)

	msg := dynamicpb.NewMessage(md)
	require.NoError(t, proto.Unmarshal(data, msg))
	list := msg.Get(fd).List()
	require.Equal(t, 3, list.Len())
	for i := 0; i < list.Len(); i++ {
		assert.Equal(t, v.ID(i), list.Get(i).Int())
	}

	// the reference encoder packs proto3 repeated scalars too
	ref, err := proto.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t, data, ref)

	back, err := Unmarshal(ref)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))
}
