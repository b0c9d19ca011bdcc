package message

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// EncodeClient serializes a ClientMessage. It fails only when the envelope
// does not carry exactly one variant.
func EncodeClient(m ClientMessage) ([]byte, error) {
	msg, err := m.toProto()
	if err != nil {
		return nil, err
	}
	return marshalOptions.Marshal(msg)
}

// DecodeClient parses b as a ClientMessage.
func DecodeClient(b []byte) (ClientMessage, error) {
	msg := dynamicpb.NewMessage(schema.client)
	if err := proto.Unmarshal(b, msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	fd := msg.WhichOneof(schema.clientOneof)
	if fd == nil {
		return ClientMessage{}, ErrEmptyEnvelope
	}

	inner := msg.Get(fd).Message()
	switch fd.Number() {
	case schema.clientEcho.Number():
		return ClientMessage{EchoMessage: echoFromProto(inner)}, nil
	case schema.clientAdd.Number():
		return ClientMessage{AddRequest: &AddRequest{
			A: int32(inner.Get(schema.addA).Int()),
			B: int32(inner.Get(schema.addB).Int()),
		}}, nil
	default:
		return ClientMessage{}, fmt.Errorf("%w: unexpected field %s", ErrDecode, fd.FullName())
	}
}

// EncodeServer serializes a ServerMessage. It fails only when the envelope
// does not carry exactly one variant.
func EncodeServer(m ServerMessage) ([]byte, error) {
	msg, err := m.toProto()
	if err != nil {
		return nil, err
	}
	return marshalOptions.Marshal(msg)
}

// DecodeServer parses b as a ServerMessage.
func DecodeServer(b []byte) (ServerMessage, error) {
	msg := dynamicpb.NewMessage(schema.server)
	if err := proto.Unmarshal(b, msg); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	fd := msg.WhichOneof(schema.serverOneof)
	if fd == nil {
		return ServerMessage{}, ErrEmptyEnvelope
	}

	inner := msg.Get(fd).Message()
	switch fd.Number() {
	case schema.serverEcho.Number():
		return ServerMessage{EchoMessage: echoFromProto(inner)}, nil
	case schema.serverAdd.Number():
		return ServerMessage{AddResponse: &AddResponse{
			Result: int32(inner.Get(schema.addResult).Int()),
		}}, nil
	default:
		return ServerMessage{}, fmt.Errorf("%w: unexpected field %s", ErrDecode, fd.FullName())
	}
}

// String renders the envelope in protobuf JSON form, for logs and CLI output.
func (m ClientMessage) String() string {
	msg, err := m.toProto()
	if err != nil {
		return fmt.Sprintf("<invalid ClientMessage: %v>", err)
	}
	return protojson.Format(msg)
}

// String renders the envelope in protobuf JSON form, for logs and CLI output.
func (m ServerMessage) String() string {
	msg, err := m.toProto()
	if err != nil {
		return fmt.Sprintf("<invalid ServerMessage: %v>", err)
	}
	return protojson.Format(msg)
}

func (m ClientMessage) toProto() (*dynamicpb.Message, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	msg := dynamicpb.NewMessage(schema.client)
	switch {
	case m.EchoMessage != nil:
		echoToProto(msg.Mutable(schema.clientEcho).Message(), m.EchoMessage)
	case m.AddRequest != nil:
		inner := msg.Mutable(schema.clientAdd).Message()
		inner.Set(schema.addA, protoreflect.ValueOfInt32(m.AddRequest.A))
		inner.Set(schema.addB, protoreflect.ValueOfInt32(m.AddRequest.B))
	}
	return msg, nil
}

func (m ServerMessage) toProto() (*dynamicpb.Message, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	msg := dynamicpb.NewMessage(schema.server)
	switch {
	case m.EchoMessage != nil:
		echoToProto(msg.Mutable(schema.serverEcho).Message(), m.EchoMessage)
	case m.AddResponse != nil:
		inner := msg.Mutable(schema.serverAdd).Message()
		inner.Set(schema.addResult, protoreflect.ValueOfInt32(m.AddResponse.Result))
	}
	return msg, nil
}

func echoToProto(dst protoreflect.Message, e *EchoMessage) {
	dst.Set(schema.echoContent, protoreflect.ValueOfString(e.Content))
}

func echoFromProto(src protoreflect.Message) *EchoMessage {
	return &EchoMessage{Content: src.Get(schema.echoContent).String()}
}
