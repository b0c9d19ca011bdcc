package message

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestSchemaCompiled(t *testing.T) {
	fd := Schema()
	require.NotNil(t, fd)

	assert.Equal(t, "messages", string(fd.Package()))
	for _, name := range []string{"EchoMessage", "AddRequest", "AddResponse", "ClientMessage", "ServerMessage"} {
		assert.NotNil(t, fd.Messages().ByName(protoreflect.Name(name)), name)
	}
}

func TestCompileSchemaMissingMessage(t *testing.T) {
	_, err := compileSchema(`syntax = "proto3"; package messages; message EchoMessage { string content = 1; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AddRequest")
}

func TestCompileSchemaSyntaxError(t *testing.T) {
	_, err := compileSchema(`syntax = "proto3"; message {`)
	assert.Error(t, err)
}

func TestClientEchoRoundTrip(t *testing.T) {
	contents := []string{
		"Hello, server!",
		"",
		"ünïcödé ✓",
		"line one\nline two",
		string([]byte{0x00, 0x01, 0x02}),
	}

	for _, content := range contents {
		t.Run(content, func(t *testing.T) {
			payload, err := EncodeClient(NewEcho(content))
			require.NoError(t, err)

			decoded, err := DecodeClient(payload)
			require.NoError(t, err)
			assert.Equal(t, KindEcho, decoded.Kind())
			require.NotNil(t, decoded.EchoMessage)
			assert.Equal(t, content, decoded.EchoMessage.Content)

			again, err := EncodeClient(decoded)
			require.NoError(t, err)
			assert.Equal(t, payload, again)
		})
	}
}

func TestClientAddRoundTrip(t *testing.T) {
	tests := []struct {
		a, b int32
	}{
		{0, 0},
		{1, 2},
		{-5, 3},
		{math.MaxInt32, math.MinInt32},
	}

	for _, tt := range tests {
		payload, err := EncodeClient(NewAdd(tt.a, tt.b))
		require.NoError(t, err)

		decoded, err := DecodeClient(payload)
		require.NoError(t, err)
		require.Equal(t, KindAddRequest, decoded.Kind())
		assert.Equal(t, AddRequest{A: tt.a, B: tt.b}, *decoded.AddRequest)
	}
}

func TestServerRoundTrip(t *testing.T) {
	echo := ServerMessage{EchoMessage: &EchoMessage{Content: "Hello, server!"}}
	payload, err := EncodeServer(echo)
	require.NoError(t, err)

	decoded, err := DecodeServer(payload)
	require.NoError(t, err)
	assert.Equal(t, echo, decoded)

	sum := ServerMessage{AddResponse: &AddResponse{Result: 42}}
	payload, err = EncodeServer(sum)
	require.NoError(t, err)

	decoded, err = DecodeServer(payload)
	require.NoError(t, err)
	assert.Equal(t, KindAddResponse, decoded.Kind())
	assert.Equal(t, int32(42), decoded.AddResponse.Result)
}

func TestEnvelopeWireLayout(t *testing.T) {
	// field 1 (echo_message, bytes) wrapping field 1 (content, bytes) "hi"
	want := []byte{0x0a, 0x04, 0x0a, 0x02, 'h', 'i'}

	payload, err := EncodeServer(ServerMessage{EchoMessage: &EchoMessage{Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, want, payload)

	// Client and server envelopes share the echo field number.
	payload, err = EncodeClient(NewEcho("hi"))
	require.NoError(t, err)
	assert.Equal(t, want, payload)
}

func TestEncodeRejectsInvalidEnvelopes(t *testing.T) {
	_, err := EncodeClient(ClientMessage{})
	assert.ErrorIs(t, err, ErrEmptyEnvelope)

	_, err = EncodeClient(ClientMessage{EchoMessage: &EchoMessage{}, AddRequest: &AddRequest{}})
	assert.ErrorIs(t, err, ErrAmbiguousEnvelope)

	_, err = EncodeServer(ServerMessage{})
	assert.ErrorIs(t, err, ErrEmptyEnvelope)

	_, err = EncodeServer(ServerMessage{EchoMessage: &EchoMessage{}, AddResponse: &AddResponse{}})
	assert.ErrorIs(t, err, ErrAmbiguousEnvelope)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"truncated length", []byte{0x0a, 0x05, 'h', 'i'}, ErrDecode},
		{"bad varint", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, ErrDecode},
		{"unknown field only", []byte{0x18, 0x01}, ErrEmptyEnvelope},
		{"empty", []byte{}, ErrEmptyEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClient(tt.payload)
			assert.ErrorIs(t, err, tt.want)

			_, err = DecodeServer(tt.payload)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindNone, ClientMessage{}.Kind())
	assert.Equal(t, KindEcho, NewEcho("x").Kind())
	assert.Equal(t, KindAddRequest, NewAdd(1, 2).Kind())
	assert.Equal(t, KindNone, ServerMessage{}.Kind())
}

func TestString(t *testing.T) {
	s := NewEcho("Hello").String()
	assert.Contains(t, s, "echoMessage")
	assert.Contains(t, s, "Hello")

	assert.Contains(t, ServerMessage{}.String(), "invalid")
}

func TestJSONShape(t *testing.T) {
	b, err := json.Marshal(ServerMessage{EchoMessage: &EchoMessage{Content: "x"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"echoMessage":{"content":"x"}}`, string(b))
}
