package ipc

import "github.com/Jvsin/tank-agent-ai/model"

// CommandMessage answers a tick.
type CommandMessage struct {
	Tick    int           `json:"tick"`
	Command model.Command `json:"command"`
}

// NewCommandEnvelope wraps the reply to tick.
func NewCommandEnvelope(tick int, cmd model.Command) (Envelope, error) {
	return NewEnvelope(TypeCommand, CommandMessage{Tick: tick, Command: cmd})
}

// NewAckEnvelope builds an ack. A non-nil err turns it into an error ack.
func NewAckEnvelope(err error) (Envelope, error) {
	msg := AckMessage{Status: "ok"}
	if err != nil {
		msg = AckMessage{Status: "error", Error: err.Error()}
	}
	return NewEnvelope(TypeAck, msg)
}
