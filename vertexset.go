package entities

import (
	"encoding/binary"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/biggraph/entities/wire"
)

// VertexSet is a frozen list of vertex ids. It is safe for concurrent use.
// A nil *VertexSet reads as the empty message.
type VertexSet struct {
	ids     []int64
	unknown *wire.UnknownFields // nil when there are none

	sizeOnce sync.Once
	sizes    sizes

	hashOnce sync.Once
	hash     uint64
}

type sizes struct {
	ids   int // packed payload length of ids, without tag and length prefix
	total int // packed encoding of the whole message
}

var defaultVertexSet = &VertexSet{}

// Default returns the shared empty VertexSet.
func Default() *VertexSet { return defaultVertexSet }

// newVertexSet takes ownership of ids and unknown.
func newVertexSet(ids []int64, unknown *wire.UnknownFields) *VertexSet {
	if len(ids) == 0 && unknown.Len() == 0 {
		return defaultVertexSet
	}
	v := &VertexSet{ids: ids, unknown: unknown}
	if len(ids) == 0 {
		v.ids = nil
	}
	if unknown.Len() == 0 {
		v.unknown = nil
	}
	return v
}

// Len returns the number of ids.
func (v *VertexSet) Len() int {
	if v == nil {
		return 0
	}
	return len(v.ids)
}

// ID returns the id at index i. It panics if i is out of range.
func (v *VertexSet) ID(i int) int64 {
	return v.ids[i]
}

// IDs returns a copy of the ids.
func (v *VertexSet) IDs() []int64 {
	if v == nil {
		return nil
	}
	return slices.Clone(v.ids)
}

// AppendIDs appends the ids to dst and returns the extended slice.
func (v *VertexSet) AppendIDs(dst []int64) []int64 {
	if v == nil {
		return dst
	}
	return append(dst, v.ids...)
}

// All iterates over index and id pairs in order.
func (v *VertexSet) All() iter.Seq2[int, int64] {
	return func(yield func(int, int64) bool) {
		if v == nil {
			return
		}
		for i, id := range v.ids {
			if !yield(i, id) {
				return
			}
		}
	}
}

// UnknownFields returns a copy of the fields kept from decoding that this
// message does not define. The result is nil when there are none.
func (v *VertexSet) UnknownFields() *wire.UnknownFields {
	if v == nil || v.unknown == nil {
		return nil
	}
	return v.unknown.Clone()
}

func (v *VertexSet) memoSizes() sizes {
	v.sizeOnce.Do(func() {
		n := 0
		for _, id := range v.ids {
			n += wire.VarintSize(uint64(id))
		}
		v.sizes.ids = n
		if n > 0 {
			v.sizes.total = wire.TagSize(idsFieldNumber) + wire.VarintSize(uint64(n)) + n
		}
		v.sizes.total += v.unknown.Size()
	})
	return v.sizes
}

// SerializedSize returns the length of the packed encoding of v.
func (v *VertexSet) SerializedSize() int {
	if v == nil {
		return 0
	}
	return v.memoSizes().total
}

// Marshal encodes v in the packed form.
func (v *VertexSet) Marshal() ([]byte, error) {
	return Marshal(v)
}

// Equal reports whether v and other hold the same ids in the same order and
// equal unknown fields.
func (v *VertexSet) Equal(other *VertexSet) bool {
	if v == nil {
		v = defaultVertexSet
	}
	if other == nil {
		other = defaultVertexSet
	}
	if v == other {
		return true
	}
	return slices.Equal(v.ids, other.ids) && v.unknown.Equal(other.unknown)
}

var descriptorHash = xxhash.Sum64String(FullName)

// Hash returns a hash consistent with Equal. Computed once.
func (v *VertexSet) Hash() uint64 {
	if v == nil {
		v = defaultVertexSet
	}
	v.hashOnce.Do(func() {
		h := uint64(41)
		h = 19*h + descriptorHash
		if len(v.ids) > 0 {
			h = 37*h + uint64(idsFieldNumber)
			h = 53*h + hashIDs(v.ids)
		}
		h = 29*h + v.unknown.Hash()
		v.hash = h
	})
	return v.hash
}

func hashIDs(ids []int64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// ToBuilder returns a builder seeded with the contents of v. The builder
// shares storage with v until its first mutation.
func (v *VertexSet) ToBuilder() *Builder {
	return NewBuilderFrom(v)
}

// String returns a compact debug form, e.g. "ids: [1 2 3]".
func (v *VertexSet) String() string {
	var sb strings.Builder
	sb.WriteString("ids: [")
	for i, id := range v.All() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", id)
	}
	sb.WriteByte(']')
	if v != nil && v.unknown != nil {
		fmt.Fprintf(&sb, " unknown: %v", v.unknown.Numbers())
	}
	return sb.String()
}
