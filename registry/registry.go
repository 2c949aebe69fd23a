package registry

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/biggraph/entities/schema"
)

// ErrNotFound is returned when a message name cannot be resolved.
var ErrNotFound = errors.New("message not found")

// Registry allows us to store the schema of the protobuf messages. It is
// filled once through the Load* methods and is read-only afterwards.
type Registry struct {
	repo        *schema.ProtoRepo
	messages    map[string]*schema.Message             // fully qualified name -> message
	descriptors map[string]protoreflect.FileDescriptor // file name -> descriptor
	files       *protoregistry.Files                   // resolver for imports between loaded files
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		repo:        &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)},
		messages:    make(map[string]*schema.Message),
		descriptors: make(map[string]protoreflect.FileDescriptor),
		files:       new(protoregistry.Files),
	}
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadSource(schema.EntitiesProtoName, strings.NewReader(schema.EntitiesProto)); err != nil {
		return nil, err
	}
	return r, nil
})

// Default returns the registry holding the embedded entities.proto. It is
// built on first use and shared afterwards.
func Default() (*Registry, error) {
	return defaultRegistry()
}

// LoadSource parses one .proto source and registers its messages. Files it
// imports must already be loaded.
func (r *Registry) LoadSource(name string, src io.Reader) error {
	if _, exists := r.repo.ProtoFiles[name]; exists {
		return errors.Newf("proto file %s already loaded", name)
	}

	protoFile, err := parseProtoFile(name, src)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", name)
	}
	return r.register(protoFile)
}

func (r *Registry) register(protoFile *schema.ProtoFile) error {
	name := protoFile.Name
	if err := r.registerNames(protoFile); err != nil {
		return err
	}
	if err := r.resolveTypes(protoFile); err != nil {
		r.unregisterNames(protoFile)
		return errors.Wrapf(err, "failed to resolve types in %s", name)
	}

	fd, err := buildFileDescriptor(protoFile, r.files)
	if err == nil {
		err = r.files.RegisterFile(fd)
	}
	if err != nil {
		r.unregisterNames(protoFile)
		return errors.Wrapf(err, "failed to build descriptor for %s", name)
	}

	r.repo.ProtoFiles[name] = protoFile
	r.descriptors[name] = fd
	return nil
}

// LoadFile loads a single .proto file from disk.
func (r *Registry) LoadFile(path string) error {
	if !strings.HasSuffix(path, ".proto") {
		return errors.Newf("file %s is not a .proto file", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read file")
	}
	return r.LoadSource(filepath.Base(path), bytes.NewReader(content))
}

// LoadDir recursively loads every .proto file below dir. Files are
// registered after the files they import, whatever their order on disk.
func (r *Registry) LoadDir(dir string) error {
	parsed := make(map[string]*schema.ProtoFile)
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-proto files
		if d.IsDir() || !strings.HasSuffix(path, ".proto") {
			return nil
		}

		name := filepath.Base(path)
		if _, exists := parsed[name]; exists {
			return errors.Newf("proto file %s found twice", name)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "failed to read file")
		}
		protoFile, err := parseProtoFile(name, bytes.NewReader(content))
		if err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
		parsed[name] = protoFile
		names = append(names, name)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to walk directory")
	}

	order, err := importOrder(names, parsed)
	if err != nil {
		return err
	}
	for _, protoFile := range order {
		if _, exists := r.repo.ProtoFiles[protoFile.Name]; exists {
			return errors.Newf("proto file %s already loaded", protoFile.Name)
		}
		if err := r.register(protoFile); err != nil {
			return errors.Wrapf(err, "failed to load proto file %s", protoFile.Name)
		}
	}
	return nil
}

// importOrder uses DFS over imports to list files so that every file comes
// after the files it imports. Imports outside parsed are left to the
// registry to resolve.
func importOrder(names []string, parsed map[string]*schema.ProtoFile) ([]*schema.ProtoFile, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(parsed))
	result := make([]*schema.ProtoFile, 0, len(parsed))

	var dfs func(name string) error
	dfs = func(name string) error {
		switch state[name] {
		case visiting:
			return errors.Newf("import cycle through %s", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, imp := range parsed[name].Imports {
			if _, ok := parsed[imp]; !ok {
				continue
			}
			if err := dfs(imp); err != nil {
				return err
			}
		}
		state[name] = done
		result = append(result, parsed[name])
		return nil
	}

	for _, name := range names {
		if err := dfs(name); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// registerNames registers all message names of a file, nested ones included.
// Names are registered before any type is resolved so fields may refer to
// messages declared later in the file.
func (r *Registry) registerNames(protoFile *schema.ProtoFile) error {
	var register func(msgs []*schema.Message) error
	register = func(msgs []*schema.Message) error {
		for _, msg := range msgs {
			if _, exists := r.messages[msg.FullName]; exists {
				r.unregisterNames(protoFile)
				return errors.Newf("message %s defined twice", msg.FullName)
			}
			r.messages[msg.FullName] = msg
			if err := register(msg.NestedTypes); err != nil {
				return err
			}
		}
		return nil
	}
	return register(protoFile.Messages)
}

// unregisterNames undoes registerNames after a failed load.
func (r *Registry) unregisterNames(protoFile *schema.ProtoFile) {
	var unregister func(msgs []*schema.Message)
	unregister = func(msgs []*schema.Message) {
		for _, msg := range msgs {
			if r.messages[msg.FullName] == msg {
				delete(r.messages, msg.FullName)
			}
			unregister(msg.NestedTypes)
		}
	}
	unregister(protoFile.Messages)
}

// resolveTypes rewrites message-typed field references to fully qualified names.
func (r *Registry) resolveTypes(protoFile *schema.ProtoFile) error {
	known := make(map[string]struct{}, len(r.messages))
	for name := range r.messages {
		known[name] = struct{}{}
	}

	var resolve func(msgs []*schema.Message) error
	resolve = func(msgs []*schema.Message) error {
		for _, msg := range msgs {
			for _, f := range msg.Fields {
				if f.Type.Kind != schema.KindMessage {
					continue
				}
				fullName, err := getReferencedType(f.Type.MessageType, msg.FullName, known)
				if err != nil {
					return errors.Wrapf(err, "field %s.%s", msg.FullName, f.Name)
				}
				f.Type.MessageType = fullName
			}
			if err := resolve(msg.NestedTypes); err != nil {
				return err
			}
		}
		return nil
	}
	return resolve(protoFile.Messages)
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}

	return nil, errors.Wrapf(ErrNotFound, "%s", name)
}

// Descriptor returns the protoreflect descriptor of a registered message.
func (r *Registry) Descriptor(name string) (protoreflect.MessageDescriptor, error) {
	msg, err := r.GetMessage(name)
	if err != nil {
		return nil, err
	}
	for _, fd := range r.descriptors {
		if d := findNested(fd.Messages(), protoreflect.FullName(msg.FullName)); d != nil {
			return d, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "no descriptor for %s", msg.FullName)
}

func findNested(msgs protoreflect.MessageDescriptors, fullName protoreflect.FullName) protoreflect.MessageDescriptor {
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		if md.FullName() == fullName {
			return md
		}
		if d := findNested(md.Messages(), fullName); d != nil {
			return d
		}
	}
	return nil
}

// FileDescriptor returns the descriptor of a loaded file.
func (r *Registry) FileDescriptor(name string) (protoreflect.FileDescriptor, error) {
	fd, ok := r.descriptors[name]
	if !ok {
		return nil, errors.Newf("proto file %s not loaded", name)
	}
	return fd, nil
}

// ListMessages returns the fully qualified names of all messages, sorted.
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListFiles returns the names of all loaded files, sorted.
func (r *Registry) ListFiles() []string {
	names := make([]string, 0, len(r.repo.ProtoFiles))
	for name := range r.repo.ProtoFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
