package entities

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/biggraph/entities/wire"
)

// Builder accumulates ids and unknown fields for a VertexSet. Build freezes
// the current contents without copying; the builder copies its storage on
// the next mutation. A Builder is not safe for concurrent use.
type Builder struct {
	ids       []int64
	idsShared bool

	unknown       *wire.UnknownFields
	unknownShared bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewBuilderFrom returns a builder seeded with v.
func NewBuilderFrom(v *VertexSet) *Builder {
	return NewBuilder().MergeFrom(v)
}

func (b *Builder) mutableIDs() {
	if b.idsShared {
		b.ids = slices.Clone(b.ids)
		b.idsShared = false
	}
}

func (b *Builder) mutableUnknown() *wire.UnknownFields {
	switch {
	case b.unknown == nil:
		b.unknown = wire.NewUnknownFields()
	case b.unknownShared:
		b.unknown = b.unknown.Clone()
	}
	b.unknownShared = false
	return b.unknown
}

// Len returns the number of ids collected so far.
func (b *Builder) Len() int { return len(b.ids) }

// ID returns the id at index i. It panics if i is out of range.
func (b *Builder) ID(i int) int64 { return b.ids[i] }

// IDs returns a copy of the ids collected so far.
func (b *Builder) IDs() []int64 { return slices.Clone(b.ids) }

// Append adds one id.
func (b *Builder) Append(id int64) *Builder {
	b.mutableIDs()
	b.ids = append(b.ids, id)
	return b
}

// AppendAll adds ids in order.
func (b *Builder) AppendAll(ids ...int64) *Builder {
	if len(ids) == 0 {
		return b
	}
	b.mutableIDs()
	b.ids = append(b.ids, ids...)
	return b
}

// SetID replaces the id at index.
func (b *Builder) SetID(index int, id int64) error {
	if index < 0 || index >= len(b.ids) {
		return errors.Newf("index %d out of range [0, %d)", index, len(b.ids))
	}
	b.mutableIDs()
	b.ids[index] = id
	return nil
}

// Clear drops all ids and unknown fields.
func (b *Builder) Clear() *Builder {
	*b = Builder{}
	return b
}

// ClearIDs drops all ids and keeps unknown fields.
func (b *Builder) ClearIDs() *Builder {
	b.ids = nil
	b.idsShared = false
	return b
}

// Clone returns an independent builder with the same contents. Storage is
// shared until either side is mutated.
func (b *Builder) Clone() *Builder {
	b.idsShared = b.ids != nil
	b.unknownShared = b.unknown != nil
	c := *b
	return &c
}

// UnknownFields returns a copy of the unknown fields collected so far.
func (b *Builder) UnknownFields() *wire.UnknownFields {
	if b.unknown.Len() == 0 {
		return nil
	}
	return b.unknown.Clone()
}

// SetUnknownFields replaces the unknown fields with a copy of u. A nil u
// clears them.
func (b *Builder) SetUnknownFields(u *wire.UnknownFields) *Builder {
	b.unknown = nil
	b.unknownShared = false
	return b.MergeUnknownFields(u)
}

// MergeUnknownFields appends the occurrences in u after the ones already
// collected.
func (b *Builder) MergeUnknownFields(u *wire.UnknownFields) *Builder {
	if u.Len() == 0 {
		return b
	}
	b.mutableUnknown().Merge(u)
	return b
}

// MergeFrom appends the ids of other and merges its unknown fields. When the
// builder holds nothing yet it shares other's storage until mutated.
func (b *Builder) MergeFrom(other *VertexSet) *Builder {
	if other == nil {
		return b
	}
	if len(other.ids) > 0 {
		if len(b.ids) == 0 {
			b.ids = other.ids
			b.idsShared = true
		} else {
			b.mutableIDs()
			b.ids = append(b.ids, other.ids...)
		}
	}
	if other.unknown.Len() > 0 {
		if b.unknown.Len() == 0 {
			b.unknown = other.unknown
			b.unknownShared = true
		} else {
			b.mutableUnknown().Merge(other.unknown)
		}
	}
	return b
}

// MergeFromBytes decodes data with the global wire configuration and merges
// the result. On error the builder is left unchanged.
func (b *Builder) MergeFromBytes(data []byte) error {
	return defaultUnmarshalOptions().Merge(b, data)
}

// Build returns a VertexSet holding the current contents. Later mutations
// of the builder do not affect it.
func (b *Builder) Build() *VertexSet {
	v := newVertexSet(slices.Clip(b.ids), b.unknown)
	b.idsShared = b.ids != nil
	b.unknownShared = b.unknown != nil
	return v
}
