package neohub

import (
	"errors"
	"fmt"
)

// Connection stages reported by ConnectionError.
const (
	StageURL       = "url"
	StageDial      = "dial"
	StageTLS       = "tls"
	StageHandshake = "handshake"
	StageBreaker   = "breaker"
)

var (
	ErrEmptyToken        = errors.New("hub token is empty")
	ErrEmptyCommand      = errors.New("command name is empty")
	ErrMalformedEnvelope = errors.New("malformed command envelope")
	ErrNoResponse        = errors.New("no response from hub")
	ErrCircuitOpen       = errors.New("hub circuit breaker open")
)

// ConnectionError means no usable session to the hub could be established.
type ConnectionError struct {
	Stage string
	Addr  string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("neohub %s %s: %v", e.Stage, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError means the session was up but the exchange failed.
type ProtocolError struct {
	Op  string // send | receive
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("neohub %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var ce *ConnectionError
	var pe *ProtocolError
	return errors.As(err, &ce) || errors.As(err, &pe)
}
