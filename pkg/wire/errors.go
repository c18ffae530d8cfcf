package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame indicates a frame without an opcode.
	ErrEmptyFrame = errors.New("wire: empty frame")
	// ErrChecksum indicates a heartbeat with a bad checksum.
	ErrChecksum = errors.New("wire: checksum mismatch")
)

// UnknownOpcodeError reports a frame with an unrecognized opcode.
type UnknownOpcodeError struct {
	Opcode byte
}

// Error implements error.
func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("wire: unknown opcode 0x%02X", e.Opcode)
}

// ShortFrameError reports a frame shorter than its opcode requires.
type ShortFrameError struct {
	Opcode byte
	Want   int
	Got    int
}

// Error implements error.
func (e *ShortFrameError) Error() string {
	return fmt.Sprintf("wire: frame 0x%02X too short: want %d bytes, got %d", e.Opcode, e.Want, e.Got)
}
