// Package entities implements the proto.VertexSet message: an immutable,
// hashable list of int64 vertex ids with a builder, a wire codec compatible
// with protobuf, and preservation of fields it does not know about.
package entities

import (
	"github.com/biggraph/entities/wire"
)

// Message is the capability set shared by frozen message values.
type Message[M any] interface {
	// Marshal encodes the message with the default MarshalOptions.
	Marshal() ([]byte, error)
	// SerializedSize is the length Marshal will produce. Memoized.
	SerializedSize() int
	// Equal reports structural equality, unknown fields included.
	Equal(other M) bool
	// Hash is consistent with Equal.
	Hash() uint64
}

// MessageBuilder is the mutable side of a Message.
type MessageBuilder[M any, B any] interface {
	MergeFrom(other M) B
	MergeFromBytes(data []byte) error
	Clear() B
	Build() M
}

var (
	_ Message[*VertexSet]                   = (*VertexSet)(nil)
	_ MessageBuilder[*VertexSet, *Builder] = (*Builder)(nil)
)

// UnmarshalOptions configures decoding. The zero value preserves unknown
// fields and keeps field 1 occurrences with a foreign wire type as unknown.
type UnmarshalOptions struct {
	// DiscardUnknown skips unknown fields instead of keeping them.
	DiscardUnknown bool
	// StrictWireType fails with wire.ErrUnexpectedWireType when the ids field
	// arrives with a wire type other than varint or length-delimited.
	StrictWireType bool
	// MaxSize rejects larger inputs with wire.ErrMessageTooLarge. For
	// Unmarshal, 0 means unlimited; ReadDelimited applies
	// DefaultMaxDelimitedSize instead.
	MaxSize int
}

// MarshalOptions configures encoding. The zero value writes packed ids and
// is what Marshal, VertexSet.Marshal and WriteDelimited use.
type MarshalOptions struct {
	// Unpacked writes one tag per id instead of a single packed run. Its
	// output is longer than SerializedSize; use Size to measure it.
	Unpacked bool
}

func defaultUnmarshalOptions() UnmarshalOptions {
	c := wire.CurrentConfig()
	return UnmarshalOptions{
		DiscardUnknown: c.DiscardUnknownFields,
		StrictWireType: c.StrictWireType,
		MaxSize:        c.MaxMessageSize,
	}
}

// Unmarshal decodes a VertexSet using the global wire configuration.
func Unmarshal(data []byte) (*VertexSet, error) {
	return defaultUnmarshalOptions().Unmarshal(data)
}

// Marshal encodes v in the packed form. The result is exactly
// v.SerializedSize() bytes long.
func Marshal(v *VertexSet) ([]byte, error) {
	return MarshalOptions{}.Marshal(v)
}
