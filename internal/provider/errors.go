package provider

import "fmt"

// ConnectError reports that the daemon socket could not be reached. It is
// returned only by Dial and is the one failure a caller should treat as fatal.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError reports a failed or partial write of one frame. The session cannot
// continue after a SendError; there is no retry.
type SendError struct {
	MessageType string
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s: %v", e.MessageType, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
