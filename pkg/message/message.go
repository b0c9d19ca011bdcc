package message

// Kind identifies which variant an envelope carries. Values match the field
// names in messages.proto.
type Kind string

const (
	KindNone        Kind = ""
	KindEcho        Kind = "echo_message"
	KindAddRequest  Kind = "add_request"
	KindAddResponse Kind = "add_response"
)

// EchoMessage carries a string the server sends back unchanged.
type EchoMessage struct {
	Content string `json:"content"`
}

// AddRequest asks the server to add two integers.
type AddRequest struct {
	A int32 `json:"a"`
	B int32 `json:"b"`
}

// AddResponse carries the sum computed for an AddRequest.
type AddResponse struct {
	Result int32 `json:"result"`
}

// ClientMessage is the envelope sent from a client to the server.
// Exactly one field must be set.
type ClientMessage struct {
	EchoMessage *EchoMessage `json:"echoMessage,omitempty"`
	AddRequest  *AddRequest  `json:"addRequest,omitempty"`
}

// NewEcho wraps content in a ClientMessage.
func NewEcho(content string) ClientMessage {
	return ClientMessage{EchoMessage: &EchoMessage{Content: content}}
}

// NewAdd wraps an addition request in a ClientMessage.
func NewAdd(a, b int32) ClientMessage {
	return ClientMessage{AddRequest: &AddRequest{A: a, B: b}}
}

// Kind reports the populated variant, or KindNone.
func (m ClientMessage) Kind() Kind {
	switch {
	case m.EchoMessage != nil:
		return KindEcho
	case m.AddRequest != nil:
		return KindAddRequest
	default:
		return KindNone
	}
}

func (m ClientMessage) validate() error {
	return checkVariants(m.EchoMessage != nil, m.AddRequest != nil)
}

// ServerMessage is the envelope sent from the server to a client.
// Exactly one field must be set.
type ServerMessage struct {
	EchoMessage *EchoMessage `json:"echoMessage,omitempty"`
	AddResponse *AddResponse `json:"addResponse,omitempty"`
}

// Kind reports the populated variant, or KindNone.
func (m ServerMessage) Kind() Kind {
	switch {
	case m.EchoMessage != nil:
		return KindEcho
	case m.AddResponse != nil:
		return KindAddResponse
	default:
		return KindNone
	}
}

func (m ServerMessage) validate() error {
	return checkVariants(m.EchoMessage != nil, m.AddResponse != nil)
}

func checkVariants(set ...bool) error {
	n := 0
	for _, s := range set {
		if s {
			n++
		}
	}
	switch n {
	case 0:
		return ErrEmptyEnvelope
	case 1:
		return nil
	default:
		return ErrAmbiguousEnvelope
	}
}
