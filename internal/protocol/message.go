package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types sent by a provider.
const (
	TypeRegister  = "ui.register"
	TypeSubscribe = "subscribe"
	TypeHeartbeat = "ui.heartbeat"
)

// Message types the daemon sends to providers.
const (
	TypeRegistered     = "ui.registered"
	TypeSubscribed     = "subscribed"
	TypeActive         = "ui.active"
	TypeSessionCreated = "session.created"
	TypeSessionUpdated = "session.updated"
	TypeSessionClosed  = "session.closed"
	TypeError          = "error"
	TypePong           = "pong"
)

// Outbound is a message a provider writes to the daemon.
type Outbound interface {
	MessageType() string
}

// Register announces the provider. It must be the first message on a connection.
type Register struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
}

// NewRegister builds a ui.register message.
func NewRegister(name, kind string, priority int) Register {
	return Register{Type: TypeRegister, Name: name, Kind: kind, Priority: priority}
}

func (Register) MessageType() string { return TypeRegister }

// Subscribe asks the daemon for session events.
type Subscribe struct {
	Type string `json:"type"`
}

// NewSubscribe builds a subscribe message.
func NewSubscribe() Subscribe {
	return Subscribe{Type: TypeSubscribe}
}

func (Subscribe) MessageType() string { return TypeSubscribe }

// Heartbeat keeps the registration alive. ID is the daemon-assigned provider id
// and is omitted until one is known.
type Heartbeat struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// NewHeartbeat builds a ui.heartbeat message.
func NewHeartbeat(id string) Heartbeat {
	return Heartbeat{Type: TypeHeartbeat, ID: id}
}

func (Heartbeat) MessageType() string { return TypeHeartbeat }

// Encode renders msg as one compact JSON object followed by a single newline.
// The "type" key is always first.
func Encode(msg Outbound) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode message: nil message")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	return append(payload, '\n'), nil
}
