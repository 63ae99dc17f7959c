package protocol

import (
	"github.com/tidwall/gjson"
)

// Inbound is one line received from the daemon. Its structure is not validated:
// fields are read on demand and missing or mistyped fields read as zero values.
type Inbound struct {
	raw []byte
}

// NewInbound wraps a received line. The slice is retained, not copied.
func NewInbound(line []byte) Inbound {
	return Inbound{raw: line}
}

// Raw returns the line as received.
func (m Inbound) Raw() []byte {
	return m.raw
}

// Valid reports whether the line is well-formed JSON.
func (m Inbound) Valid() bool {
	return gjson.ValidBytes(m.raw)
}

// Type returns the "type" discriminator, or "" when absent or not a string.
func (m Inbound) Type() string {
	res := gjson.GetBytes(m.raw, "type")
	if res.Type != gjson.String {
		return ""
	}
	return res.Str
}

// String returns a string field addressed by a gjson path (e.g. "context.message").
func (m Inbound) String(path string) string {
	res := gjson.GetBytes(m.raw, path)
	if res.Type != gjson.String {
		return ""
	}
	return res.Str
}

// Bool returns a boolean field and whether it was present as a boolean.
func (m Inbound) Bool(path string) (bool, bool) {
	res := gjson.GetBytes(m.raw, path)
	switch res.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	default:
		return false, false
	}
}

// Registered is the daemon's answer to ui.register.
type Registered struct {
	ID     string
	Active bool
}

// AsRegistered reads a ui.registered message.
func (m Inbound) AsRegistered() Registered {
	active, _ := m.Bool("active")
	return Registered{ID: m.String("id"), Active: active}
}

// Subscribed is the daemon's answer to subscribe. HasActive is false when the
// daemon did not report the provider's active state.
type Subscribed struct {
	Active    bool
	HasActive bool
}

// AsSubscribed reads a subscribed message.
func (m Inbound) AsSubscribed() Subscribed {
	active, ok := m.Bool("active")
	return Subscribed{Active: active, HasActive: ok}
}

// ActiveChange announces which provider currently owns the UI.
type ActiveChange struct {
	Active bool
	ID     string
}

// AsActiveChange reads a ui.active message.
func (m Inbound) AsActiveChange() ActiveChange {
	active, _ := m.Bool("active")
	return ActiveChange{Active: active, ID: m.String("id")}
}

// SessionCreated announces a new authentication session.
type SessionCreated struct {
	ID      string
	Source  string
	Message string
}

// AsSessionCreated reads a session.created message.
func (m Inbound) AsSessionCreated() SessionCreated {
	return SessionCreated{
		ID:      m.String("id"),
		Source:  m.String("source"),
		Message: m.String("context.message"),
	}
}

// SessionUpdated carries a prompt change for an open session.
type SessionUpdated struct {
	ID     string
	Prompt string
	Echo   bool
	Error  string
	Info   string
}

// AsSessionUpdated reads a session.updated message.
func (m Inbound) AsSessionUpdated() SessionUpdated {
	echo, _ := m.Bool("echo")
	return SessionUpdated{
		ID:     m.String("id"),
		Prompt: m.String("prompt"),
		Echo:   echo,
		Error:  m.String("error"),
		Info:   m.String("info"),
	}
}

// SessionClosed announces the end of a session.
type SessionClosed struct {
	ID     string
	Result string
	Error  string
}

// AsSessionClosed reads a session.closed message.
func (m Inbound) AsSessionClosed() SessionClosed {
	return SessionClosed{
		ID:     m.String("id"),
		Result: m.String("result"),
		Error:  m.String("error"),
	}
}

// NotActiveMessage is the error text the daemon sends when a non-active
// provider tries to act on a session.
const NotActiveMessage = "Not active UI provider"

// ErrorMessage returns the "message" of an error message, defaulting to "Error".
func (m Inbound) ErrorMessage() string {
	if msg := m.String("message"); msg != "" {
		return msg
	}
	return "Error"
}
