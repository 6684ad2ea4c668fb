package schema

import (
	"encoding/json"
	"fmt"
)

// EnvelopeVersion is the current local-storage envelope format version.
const EnvelopeVersion = 1

// Envelope is the local-storage wrapper around a persisted collection:
//
//	{ "state": { ...collection fields..., "mode": "guest" }, "version": 1 }
//
// The mode tag is embedded inside the state object so the local adapter
// can decide whether to persist at all without knowing the collection
// type: only guest-mode state is ever written to disk.
type Envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// EncodeEnvelope wraps a collection in the versioned envelope, embedding
// the mode tag alongside the collection's own fields.
func EncodeEnvelope(mode string, collection any) ([]byte, error) {
	raw, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("collection must encode to a JSON object: %w", err)
	}
	fields["mode"] = json.RawMessage(fmt.Sprintf("%q", mode))

	state, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	return json.Marshal(Envelope{State: state, Version: EnvelopeVersion})
}

// PeekMode extracts the embedded mode tag from an encoded envelope.
// Returns an error if the envelope or its state object cannot be parsed.
func PeekMode(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("failed to parse envelope: %w", err)
	}

	var tag struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(env.State, &tag); err != nil {
		return "", fmt.Errorf("failed to parse envelope state: %w", err)
	}
	if tag.Mode == "" {
		return "", fmt.Errorf("envelope has no mode tag")
	}
	return tag.Mode, nil
}

// DecodeEnvelope unpacks an encoded envelope into the given collection
// value. The embedded mode tag is ignored during decoding; it only
// gates persistence.
func DecodeEnvelope(data []byte, collection any) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.Version > EnvelopeVersion {
		return fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if err := json.Unmarshal(env.State, collection); err != nil {
		return fmt.Errorf("failed to parse envelope state: %w", err)
	}
	return nil
}
