// Package message defines the wire envelopes exchanged between echod and its
// clients.
//
// The schema lives in messages.proto, which is embedded into the binary and
// compiled once at package initialization with protocompile. Envelopes are
// encoded and decoded through dynamicpb, so no generated code is required.
//
// # Envelopes
//
// A ClientMessage carries exactly one of EchoMessage or AddRequest. A
// ServerMessage carries exactly one of EchoMessage or AddResponse. Decoding an
// envelope with no variant set fails with ErrEmptyEnvelope.
//
// # Framing
//
// Envelopes are written to the stream without a length prefix. The receiver
// treats the bytes returned by a single read as one complete envelope.
//
//	payload, err := message.EncodeClient(message.NewEcho("Hello, server!"))
//	if err != nil {
//	    return err
//	}
//	_, err = conn.Write(payload)
package message
