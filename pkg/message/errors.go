package message

import "errors"

var (
	// ErrDecode is returned when bytes cannot be parsed as an envelope.
	// The underlying protobuf error is wrapped alongside it.
	ErrDecode = errors.New("failed to decode message")

	// ErrEmptyEnvelope is returned when an envelope carries no variant.
	ErrEmptyEnvelope = errors.New("envelope has no message set")

	// ErrAmbiguousEnvelope is returned when encoding an envelope with more
	// than one variant set.
	ErrAmbiguousEnvelope = errors.New("envelope has more than one message set")
)
