package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single envelope payload. Only a hello carrying a
// terrain grid gets near it.
const MaxFrameSize = 1 << 20

// Per-type payload limits. Types not listed may use MaxFrameSize.
var frameLimits = map[string]uint32{
	TypeTick:    256 << 10,
	TypeDestroy: 4 << 10,
	TypeEnd:     4 << 10,
	TypeAck:     4 << 10,
	TypeCommand: 4 << 10,
}

// FrameError reports a frame larger than its type allows.
type FrameError struct {
	Type  string
	Size  uint32
	Limit uint32
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s frame of %d bytes exceeds limit %d", e.Type, e.Size, e.Limit)
}

// Envelope is the wire format shared with the match orchestrator.
// Data is kept as RawMessage so handlers can defer deserialization to the concrete type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewEnvelope(msgType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal data: %w", err)
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// ReadEnvelope reads a single length-prefixed JSON envelope.
// The prefix is a 4-byte little-endian payload length.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return Envelope{}, fmt.Errorf("read length: %w", err)
	}

	// Guard against corrupted frames or malicious payloads.
	if length == 0 || length > MaxFrameSize {
		return Envelope{}, fmt.Errorf("invalid message length: %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Envelope{}, fmt.Errorf("read payload: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if limit, ok := frameLimits[env.Type]; ok && length > limit {
		return Envelope{}, &FrameError{Type: env.Type, Size: length, Limit: limit}
	}

	return env, nil
}

func WriteEnvelope(w io.Writer, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("write length: %w", err)
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	return nil
}
