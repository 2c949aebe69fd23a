package registry

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/biggraph/entities/schema"
)

var descriptorTypes = map[schema.PrimitiveType]descriptorpb.FieldDescriptorProto_Type{
	schema.TypeDouble:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	schema.TypeFloat:    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	schema.TypeInt64:    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	schema.TypeUint64:   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	schema.TypeInt32:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	schema.TypeFixed64:  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	schema.TypeFixed32:  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	schema.TypeBool:     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	schema.TypeString:   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	schema.TypeBytes:    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
	schema.TypeUint32:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	schema.TypeSfixed32: descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	schema.TypeSfixed64: descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	schema.TypeSint32:   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	schema.TypeSint64:   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
}

var descriptorLabels = map[schema.FieldLabel]descriptorpb.FieldDescriptorProto_Label{
	schema.LabelOptional: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL,
	schema.LabelRequired: descriptorpb.FieldDescriptorProto_LABEL_REQUIRED,
	schema.LabelRepeated: descriptorpb.FieldDescriptorProto_LABEL_REPEATED,
}

// buildFileDescriptor turns a parsed file into a validated protoreflect
// descriptor. Imports are looked up in resolver.
func buildFileDescriptor(protoFile *schema.ProtoFile, resolver protodesc.Resolver) (protoreflect.FileDescriptor, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFile.Name),
		Syntax:     proto.String(protoFile.Syntax),
		Dependency: protoFile.Imports,
	}
	if protoFile.Package != "" {
		fdp.Package = proto.String(protoFile.Package)
	}

	for _, msg := range protoFile.Messages {
		dp, err := messageProto(msg)
		if err != nil {
			return nil, err
		}
		fdp.MessageType = append(fdp.MessageType, dp)
	}

	return protodesc.NewFile(fdp, resolver)
}

func messageProto(msg *schema.Message) (*descriptorpb.DescriptorProto, error) {
	dp := &descriptorpb.DescriptorProto{Name: proto.String(msg.Name)}

	for _, f := range msg.Fields {
		label, ok := descriptorLabels[f.Label]
		if !ok {
			return nil, errors.Newf("field %s.%s has unknown label %q", msg.FullName, f.Name, f.Label)
		}

		fp := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(f.Name),
			Number:   proto.Int32(f.Number),
			Label:    label.Enum(),
			JsonName: proto.String(f.JsonName),
		}
		switch f.Type.Kind {
		case schema.KindPrimitive:
			t, ok := descriptorTypes[f.Type.PrimitiveType]
			if !ok {
				return nil, errors.Newf("field %s.%s has unknown type %q", msg.FullName, f.Name, f.Type.PrimitiveType)
			}
			fp.Type = t.Enum()
		case schema.KindMessage:
			fp.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
			fp.TypeName = proto.String("." + f.Type.MessageType)
		default:
			return nil, errors.Newf("field %s.%s has unsupported kind %q", msg.FullName, f.Name, f.Type.Kind)
		}
		dp.Field = append(dp.Field, fp)
	}

	for _, nested := range msg.NestedTypes {
		ndp, err := messageProto(nested)
		if err != nil {
			return nil, err
		}
		dp.NestedType = append(dp.NestedType, ndp)
	}
	return dp, nil
}
