package schema

import _ "embed"

// EntitiesProtoName is the file name the embedded schema is registered under.
const EntitiesProtoName = "entities.proto"

// EntitiesProto is the source of the schema the root package implements.
//
//go:embed entities.proto
var EntitiesProto string
