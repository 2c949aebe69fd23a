package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/biggraph/entities/wire"
)

type VertexSetSuite struct {
	suite.Suite
}

func TestVertexSetSuite(t *testing.T) {
	suite.Run(t, new(VertexSetSuite))
}

func (s *VertexSetSuite) TestDefault() {
	v := Default()
	s.Equal(0, v.Len())
	s.Equal(0, v.SerializedSize())
	s.Nil(v.IDs())
	s.Nil(v.UnknownFields())
	s.True(v.Equal(NewBuilder().Build()))
	s.True(v.Equal(nil))
	s.Equal(v.Hash(), (*VertexSet)(nil).Hash())
}

func (s *VertexSetSuite) TestAccessors() {
	v := NewBuilder().AppendAll(3, -7, 11).Build()

	s.Equal(3, v.Len())
	s.Equal(int64(-7), v.ID(1))
	s.Equal([]int64{3, -7, 11}, v.IDs())
	s.Equal([]int64{0, 3, -7, 11}, v.AppendIDs([]int64{0}))

	var got []int64
	for i, id := range v.All() {
		s.Equal(v.ID(i), id)
		got = append(got, id)
	}
	s.Equal(v.IDs(), got)
}

func (s *VertexSetSuite) TestIDsReturnsCopy() {
	v := NewBuilder().AppendAll(1, 2).Build()
	ids := v.IDs()
	ids[0] = 100
	s.Equal(int64(1), v.ID(0))
}

func (s *VertexSetSuite) TestEqualAndHash() {
	a := NewBuilder().AppendAll(1, 2).Build()
	b := NewBuilder().Append(1).Append(2).Build()
	reversed := NewBuilder().AppendAll(2, 1).Build()

	s.True(a.Equal(b))
	s.True(b.Equal(a))
	s.Equal(a.Hash(), b.Hash())
	s.False(a.Equal(reversed))
	s.NotEqual(a.Hash(), reversed.Hash())
	s.False(a.Equal(Default()))
}

func (s *VertexSetSuite) TestEqualConsidersUnknownFields() {
	plain, err := Unmarshal([]byte{0x0a, 0x01, 0x05})
	s.Require().NoError(err)
	withUnknown, err := Unmarshal([]byte{0x0a, 0x01, 0x05, 0x10, 0x07})
	s.Require().NoError(err)

	s.False(plain.Equal(withUnknown))
	s.Equal([]int64{5}, withUnknown.IDs())
}

func (s *VertexSetSuite) TestHashIgnoresUnknownFieldOrder() {
	a, err := Unmarshal([]byte{0x10, 0x07, 0x18, 0x08})
	s.Require().NoError(err)
	b, err := Unmarshal([]byte{0x18, 0x08, 0x10, 0x07})
	s.Require().NoError(err)

	s.True(a.Equal(b))
	s.Equal(a.Hash(), b.Hash())
}

func (s *VertexSetSuite) TestHashIsStable() {
	v := NewBuilder().AppendAll(1, 2, 3).Build()
	s.Equal(v.Hash(), v.Hash())
	s.Equal(v.Hash(), v.ToBuilder().Build().Hash())
}

func (s *VertexSetSuite) TestUnknownFieldsAccessorIsCopy() {
	v, err := Unmarshal([]byte{0x10, 0x07})
	s.Require().NoError(err)

	u := v.UnknownFields()
	u.Add(9, wire.WireVarint, []byte{0x01})
	s.Equal(1, v.UnknownFields().Len())
}

func (s *VertexSetSuite) TestString() {
	s.Equal("ids: []", Default().String())
	s.Equal("ids: [1 -2 3]", NewBuilder().AppendAll(1, -2, 3).Build().String())

	v, err := Unmarshal([]byte{0x08, 0x04, 0x10, 0x07})
	s.Require().NoError(err)
	s.Equal("ids: [4] unknown: [2]", v.String())
}

func TestSerializedSize_MatchesEncoding(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want int
	}{
		{name: "empty", ids: nil, want: 0},
		{name: "single_small", ids: []int64{1}, want: 3},
		{name: "mixed", ids: []int64{0, -1, 1000000000000}, want: 19},
		{name: "three", ids: []int64{1, 2, 3}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewBuilder().AppendAll(tt.ids...).Build()
			data, err := MarshalOptions{}.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.SerializedSize())
			assert.Len(t, data, tt.want)
		})
	}
}
