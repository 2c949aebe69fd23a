package entities

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/biggraph/entities/registry"
	"github.com/biggraph/entities/schema"
	"github.com/biggraph/entities/wire"
)

// FullName is the fully qualified protobuf name of VertexSet.
const FullName = "proto.VertexSet"

var fieldNames = map[wire.FieldNumber]string{
	idsFieldNumber: "ids",
}

// FieldName returns the name of a field VertexSet defines.
func FieldName(n wire.FieldNumber) (string, bool) {
	name, ok := fieldNames[n]
	return name, ok
}

// Descriptor returns the protoreflect descriptor of VertexSet, built from
// the embedded entities.proto.
func Descriptor() (protoreflect.MessageDescriptor, error) {
	r, err := registry.Default()
	if err != nil {
		return nil, err
	}
	return r.Descriptor(FullName)
}

// Schema returns the parsed schema of VertexSet.
func Schema() (*schema.Message, error) {
	r, err := registry.Default()
	if err != nil {
		return nil, err
	}
	return r.GetMessage(FullName)
}
