package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // file.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Imports  []string   `json:"imports"`  // imported file names
	Messages []*Message `json:"messages"` // message definitions
}

// Message represents a protobuf message definition
type Message struct {
	Name        string     `json:"name"`         // "VertexSet"
	FullName    string     `json:"full_name"`    // "proto.VertexSet"
	Fields      []*Field   `json:"fields"`       // message fields
	NestedTypes []*Message `json:"nested_types"` // nested messages
}

// FieldByNumber returns the field with the given number, or nil.
func (m *Message) FieldByNumber(number int32) *Field {
	for _, f := range m.Fields {
		if f.Number == number {
			return f
		}
	}
	return nil
}

// FieldByName returns the field with the given name, or nil.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field represents a message field
type Field struct {
	Name     string     `json:"name"`      // "ids"
	Number   int32      `json:"number"`    // 1
	Label    FieldLabel `json:"label"`     // optional, required, repeated
	Type     FieldType  `json:"type"`      // field type information
	JsonName string     `json:"json_name"` // JSON field name
}

// IsPacked reports whether a repeated field uses the packed encoding by
// default.
func (f *Field) IsPacked() bool {
	return f.Label == LabelRepeated && f.Type.Kind == KindPrimitive && IsPackedType(f.Type.PrimitiveType)
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "proto.VertexSet"
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitiveTypes = map[string]PrimitiveType{
	"double":   TypeDouble,
	"float":    TypeFloat,
	"int64":    TypeInt64,
	"uint64":   TypeUint64,
	"int32":    TypeInt32,
	"fixed64":  TypeFixed64,
	"fixed32":  TypeFixed32,
	"bool":     TypeBool,
	"string":   TypeString,
	"bytes":    TypeBytes,
	"uint32":   TypeUint32,
	"sfixed32": TypeSfixed32,
	"sfixed64": TypeSfixed64,
	"sint32":   TypeSint32,
	"sint64":   TypeSint64,
}

// LookupPrimitive maps a .proto scalar type name to its PrimitiveType.
func LookupPrimitive(name string) (PrimitiveType, bool) {
	t, ok := primitiveTypes[name]
	return t, ok
}

var packedEligible = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPackedType checks and returns if the Primitive type is packed for repeated label
func IsPackedType(t PrimitiveType) bool {
	_, ok := packedEligible[t]
	return ok
}
