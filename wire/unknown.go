package wire

import (
	"bytes"
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// UnknownValue is one occurrence of a field the schema does not define,
// kept exactly as it appeared on the wire after its tag.
type UnknownValue struct {
	Type WireType
	Raw  []byte
}

// UnknownFields accumulates fields the schema does not interpret, keyed by
// field number. Field numbers keep the order in which they were first
// recorded and occurrences keep their encounter order. A nil
// *UnknownFields behaves as an empty bag for every read method.
type UnknownFields struct {
	order  []FieldNumber
	fields map[FieldNumber][]UnknownValue
}

// NewUnknownFields creates an empty bag.
func NewUnknownFields() *UnknownFields {
	return &UnknownFields{fields: make(map[FieldNumber][]UnknownValue)}
}

// Add records one occurrence. raw is copied.
func (u *UnknownFields) Add(fieldNumber FieldNumber, wireType WireType, raw []byte) {
	u.add(fieldNumber, UnknownValue{Type: wireType, Raw: bytes.Clone(raw)})
}

func (u *UnknownFields) add(fieldNumber FieldNumber, v UnknownValue) {
	if u.fields == nil {
		u.fields = make(map[FieldNumber][]UnknownValue)
	}
	if _, ok := u.fields[fieldNumber]; !ok {
		u.order = append(u.order, fieldNumber)
	}
	u.fields[fieldNumber] = append(u.fields[fieldNumber], v)
}

// Len returns the number of distinct field numbers.
func (u *UnknownFields) Len() int {
	if u == nil {
		return 0
	}
	return len(u.order)
}

// Count returns the total number of recorded occurrences.
func (u *UnknownFields) Count() int {
	if u == nil {
		return 0
	}
	n := 0
	for _, values := range u.fields {
		n += len(values)
	}
	return n
}

// Numbers returns the recorded field numbers in first-recorded order.
func (u *UnknownFields) Numbers() []FieldNumber {
	if u == nil {
		return nil
	}
	return slices.Clone(u.order)
}

// Get returns the occurrences recorded for fieldNumber.
func (u *UnknownFields) Get(fieldNumber FieldNumber) []UnknownValue {
	if u == nil {
		return nil
	}
	return slices.Clone(u.fields[fieldNumber])
}

// Merge appends every occurrence of other after the ones already held.
func (u *UnknownFields) Merge(other *UnknownFields) {
	if other == nil {
		return
	}
	for _, n := range other.order {
		for _, v := range other.fields[n] {
			u.add(n, v)
		}
	}
}

// Clone returns a bag that can be mutated without affecting u. Raw bytes
// are shared since they are never written to.
func (u *UnknownFields) Clone() *UnknownFields {
	c := NewUnknownFields()
	c.Merge(u)
	return c
}

// Equal reports whether both bags hold the same field numbers with the
// same occurrence lists in the same order.
func (u *UnknownFields) Equal(other *UnknownFields) bool {
	if u.Len() != other.Len() {
		return false
	}
	for _, n := range u.Numbers() {
		a, b := u.fields[n], other.Get(n)
		if !slices.EqualFunc(a, b, func(x, y UnknownValue) bool {
			return x.Type == y.Type && bytes.Equal(x.Raw, y.Raw)
		}) {
			return false
		}
	}
	return true
}

// Hash returns a hash consistent with Equal. Per-field hashes are summed so
// the order of distinct field numbers does not matter.
func (u *UnknownFields) Hash() uint64 {
	if u.Len() == 0 {
		return 0
	}
	var sum uint64
	var scratch [MaxVarintLen + 8]byte
	for n, values := range u.fields {
		h := xxhash.New()
		_, _ = h.Write(binary.LittleEndian.AppendUint64(scratch[:0], uint64(n)))
		for _, v := range values {
			b := append(scratch[:0], byte(v.Type))
			_, _ = h.Write(AppendVarint(b, uint64(len(v.Raw))))
			_, _ = h.Write(v.Raw)
		}
		sum += h.Sum64()
	}
	return sum
}

// Size returns the number of bytes Encode writes.
func (u *UnknownFields) Size() int {
	if u == nil {
		return 0
	}
	size := 0
	for n, values := range u.fields {
		for _, v := range values {
			size += TagSize(n) + len(v.Raw)
		}
	}
	return size
}

// Encode writes every occurrence back with its original wire type and raw
// bytes, grouped by field number in first-recorded order.
func (u *UnknownFields) Encode(e *Encoder) {
	if u == nil {
		return
	}
	for _, n := range u.order {
		for _, v := range u.fields[n] {
			e.WriteTag(n, v.Type)
			e.WriteRaw(v.Raw)
		}
	}
}
