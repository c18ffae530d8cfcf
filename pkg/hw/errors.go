package hw

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResponse indicates a sensor did not answer.
	ErrNoResponse = errors.New("hw: no response")
	// ErrNotAdvertising indicates a transport operation requires an
	// active link.
	ErrNotAdvertising = errors.New("hw: transport not started")
)

// PortError reports an invalid port for an actuator kind.
type PortError struct {
	Kind string
	Port int
}

// Error implements error.
func (e *PortError) Error() string {
	return fmt.Sprintf("hw: invalid %s port %d", e.Kind, e.Port)
}
