package message

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// SchemaFile is the name the embedded schema is compiled under.
const SchemaFile = "messages.proto"

//go:embed messages.proto
var schemaSource string

// schemaDescriptors holds the resolved descriptors for every message and
// field the codec touches.
type schemaDescriptors struct {
	file protoreflect.FileDescriptor

	echo        protoreflect.MessageDescriptor
	echoContent protoreflect.FieldDescriptor

	addRequest protoreflect.MessageDescriptor
	addA       protoreflect.FieldDescriptor
	addB       protoreflect.FieldDescriptor

	addResponse protoreflect.MessageDescriptor
	addResult   protoreflect.FieldDescriptor

	client      protoreflect.MessageDescriptor
	clientOneof protoreflect.OneofDescriptor
	clientEcho  protoreflect.FieldDescriptor
	clientAdd   protoreflect.FieldDescriptor

	server      protoreflect.MessageDescriptor
	serverOneof protoreflect.OneofDescriptor
	serverEcho  protoreflect.FieldDescriptor
	serverAdd   protoreflect.FieldDescriptor
}

var schema = mustCompileSchema()

// Schema returns the compiled file descriptor of the embedded schema.
func Schema() protoreflect.FileDescriptor {
	return schema.file
}

func mustCompileSchema() *schemaDescriptors {
	d, err := compileSchema(schemaSource)
	if err != nil {
		panic(fmt.Sprintf("message: compiling embedded %s: %v", SchemaFile, err))
	}
	return d
}

// compileSchema compiles src as SchemaFile and resolves the descriptors the
// codec depends on.
func compileSchema(src string) (*schemaDescriptors, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{
				SchemaFile: src,
			}),
		}),
	}

	files, err := compiler.Compile(context.Background(), SchemaFile)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files compiled from %s", SchemaFile)
	}

	r := &resolver{file: files[0]}
	d := &schemaDescriptors{file: files[0]}

	d.echo = r.message("EchoMessage")
	d.echoContent = r.field(d.echo, "content")

	d.addRequest = r.message("AddRequest")
	d.addA = r.field(d.addRequest, "a")
	d.addB = r.field(d.addRequest, "b")

	d.addResponse = r.message("AddResponse")
	d.addResult = r.field(d.addResponse, "result")

	d.client = r.message("ClientMessage")
	d.clientOneof = r.oneof(d.client, "message")
	d.clientEcho = r.field(d.client, "echo_message")
	d.clientAdd = r.field(d.client, "add_request")

	d.server = r.message("ServerMessage")
	d.serverOneof = r.oneof(d.server, "message")
	d.serverEcho = r.field(d.server, "echo_message")
	d.serverAdd = r.field(d.server, "add_response")

	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

// resolver looks up descriptors by name and remembers the first miss so the
// caller can check once at the end.
type resolver struct {
	file protoreflect.FileDescriptor
	err  error
}

func (r *resolver) message(name protoreflect.Name) protoreflect.MessageDescriptor {
	md := r.file.Messages().ByName(name)
	if md == nil && r.err == nil {
		r.err = fmt.Errorf("message %q not found in %s", name, SchemaFile)
	}
	return md
}

func (r *resolver) field(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.FieldDescriptor {
	if md == nil {
		return nil
	}
	fd := md.Fields().ByName(name)
	if fd == nil && r.err == nil {
		r.err = fmt.Errorf("field %q not found in %s", name, md.FullName())
	}
	return fd
}

func (r *resolver) oneof(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.OneofDescriptor {
	if md == nil {
		return nil
	}
	od := md.Oneofs().ByName(name)
	if od == nil && r.err == nil {
		r.err = fmt.Errorf("oneof %q not found in %s", name, md.FullName())
	}
	return od
}
