package registry

import (
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/biggraph/entities/schema"
)

// parseProtoFile parses a .proto source with go-protoparser and converts the
// parts this registry understands into a schema.ProtoFile.
func parseProtoFile(name string, src io.Reader) (*schema.ProtoFile, error) {
	parsed, err := protoparser.Parse(src, protoparser.WithFilename(name))
	if err != nil {
		return nil, err
	}

	protoFile := &schema.ProtoFile{
		Name:   name,
		Syntax: "proto2", // a file without a syntax statement is proto2
	}
	if parsed.Syntax != nil {
		protoFile.Syntax = strings.Trim(parsed.Syntax.ProtobufVersion, `"'`)
	}

	var messages []*protoparserparser.Message
	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Package:
			protoFile.Package = b.Name
		case *protoparserparser.Import:
			protoFile.Imports = append(protoFile.Imports, strings.Trim(b.Location, `"'`))
		case *protoparserparser.Message:
			messages = append(messages, b)
		}
	}

	for _, m := range messages {
		msg, err := convertMessage(m, protoFile.Package)
		if err != nil {
			return nil, err
		}
		protoFile.Messages = append(protoFile.Messages, msg)
	}
	return protoFile, nil
}

// convertMessage converts a parsed message and its nested messages. Map
// fields and oneofs are not supported.
func convertMessage(m *protoparserparser.Message, prefix string) (*schema.Message, error) {
	msg := &schema.Message{
		Name:     m.MessageName,
		FullName: getFullName(prefix, m.MessageName),
	}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			field, err := convertField(b)
			if err != nil {
				return nil, errors.Wrapf(err, "message %s", msg.FullName)
			}
			msg.Fields = append(msg.Fields, field)
		case *protoparserparser.Message:
			nested, err := convertMessage(b, msg.FullName)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *protoparserparser.MapField:
			return nil, errors.Newf("message %s: map field %s is not supported", msg.FullName, b.MapName)
		case *protoparserparser.Oneof:
			return nil, errors.Newf("message %s: oneof %s is not supported", msg.FullName, b.OneofName)
		}
	}
	return msg, nil
}

func convertField(f *protoparserparser.Field) (*schema.Field, error) {
	number, err := strconv.ParseInt(f.FieldNumber, 0, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s has invalid number %q", f.FieldName, f.FieldNumber)
	}

	field := &schema.Field{
		Name:     f.FieldName,
		Number:   int32(number),
		Label:    schema.LabelOptional,
		JsonName: toLowerCamel(f.FieldName),
	}
	switch {
	case f.IsRepeated:
		field.Label = schema.LabelRepeated
	case f.IsRequired:
		field.Label = schema.LabelRequired
	}

	if primitive, ok := schema.LookupPrimitive(f.Type); ok {
		field.Type = schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: primitive}
	} else {
		// resolved to a fully qualified name once every file name is known
		field.Type = schema.FieldType{Kind: schema.KindMessage, MessageType: f.Type}
	}
	return field, nil
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

/*
This helper function will return the entity for any referenced type ,
Be it top/file,nested or imported entities.If not found will return an error
Ref - https://github.com/protocolbuffers/protobuf/blob/b7a5772caf08d62a20fd1bca258f501fa4db022c/src/google/protobuf/descriptor.proto#L186-L191
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	//  check if the entity is referenced to other packages via packageName
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", errors.Newf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, bool) {
	prefixSplit := strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		entityName := strings.Join(prefixSplit, ".") + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]struct{}) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", errors.Newf("unable to resolve fully qualified type name: .%s", typeName)
}

// toLowerCamel converts snake_case to lowerCamelCase
func toLowerCamel(s string) string {
	if s == "" {
		return s
	}
	out := make([]byte, 0, len(s))
	upperNext := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if upperNext && c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		upperNext = false
		out = append(out, c)
	}
	return string(out)
}
