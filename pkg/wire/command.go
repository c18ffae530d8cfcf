package wire

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Inbound opcodes.
const (
	OpSetLED          byte = 0xF1
	OpClearLED        byte = 0xF2
	OpShowText        byte = 0xF3
	OpClearScreen     byte = 0xF4
	OpSetMatrix       byte = 0xF5
	OpSetMatrixColors byte = 0xF6
	OpDriveMotor      byte = 0xF7
	OpStopMotor       byte = 0xF8
	OpDriveMotors     byte = 0xF9
	OpArmBuzzer       byte = 0xFA
	OpStopBuzzer      byte = 0xFB
)

// Frame sizes including the opcode.
var frameSizes = map[byte]int{
	OpSetLED:          5,
	OpClearLED:        2,
	OpShowText:        19,
	OpClearScreen:     1,
	OpSetMatrix:       6,
	OpSetMatrixColors: 7,
	OpDriveMotor:      4,
	OpStopMotor:       2,
	OpDriveMotors:     5,
	OpArmBuzzer:       4,
	OpStopBuzzer:      1,
}

// TextSize is the fixed length of the text field of OpShowText.
const TextSize = 12

// Command is a decoded inbound frame.
type Command interface {
	Opcode() byte
	// Bytes encodes the frame.
	Bytes() []byte
	// Apply calls the Handler method for this variant.
	Apply(Handler) error
}

// Handler executes commands. Adding a command variant adds a method
// here, so every implementation must handle it.
type Handler interface {
	HandleSetLED(*SetLED) error
	HandleClearLED(*ClearLED) error
	HandleShowText(*ShowText) error
	HandleClearScreen(*ClearScreen) error
	HandleSetMatrix(*SetMatrix) error
	HandleSetMatrixColors(*SetMatrixColors) error
	HandleDriveMotor(*DriveMotor) error
	HandleStopMotor(*StopMotor) error
	HandleDriveMotors(*DriveMotors) error
	HandleArmBuzzer(*ArmBuzzer) error
	HandleStopBuzzer(*StopBuzzer) error
}

// SetLED sets one LED, or all with port hw.AllPorts.
type SetLED struct {
	Port    byte
	R, G, B byte
}

// ClearLED turns one LED, or all, off.
type ClearLED struct {
	Port byte
}

// ShowText renders a text screen.
type ShowText struct {
	X, Y  byte
	Size  byte
	Text  string
	Color color.RGBA
}

// ClearScreen shows a blank screen.
type ClearScreen struct{}

// SetMatrix replaces the dot matrix pattern.
type SetMatrix struct {
	Port    byte
	Pattern hw.Matrix
}

// SetMatrixColors replaces the dot matrix colors.
type SetMatrixColors struct {
	Bright color.RGBA
	Dark   color.RGBA
}

// DriveMotor drives one motor, or all with port hw.AllPorts.
// Direction is 1, 0 or -1.
type DriveMotor struct {
	Port      byte
	Speed     byte
	Direction int
}

// StopMotor stops one motor, or all.
type StopMotor struct {
	Port byte
}

// MotorDrive is the speed and direction of one motor.
type MotorDrive struct {
	Speed     byte
	Direction int
}

// DriveMotors drives motors 1 and 2 in one frame.
type DriveMotors struct {
	M1, M2 MotorDrive
}

// ArmBuzzer sets buzzer playback parameters and starts playback.
type ArmBuzzer struct {
	FreqScale byte
	// Wait is in tenths of a second.
	Wait byte
	Duty byte
}

// StopBuzzer stops buzzer playback.
type StopBuzzer struct{}

// Signed returns the signed motor speed.
func (d MotorDrive) Signed() int {
	return int(d.Speed) * d.Direction
}

// Signed returns the signed motor speed.
func (c *DriveMotor) Signed() int {
	return MotorDrive{Speed: c.Speed, Direction: c.Direction}.Signed()
}

// Frequency returns the tone frequency in Hz.
func (c *ArmBuzzer) Frequency() int {
	return int(c.FreqScale) * 30
}

// WaitDuration returns how long each tone lasts.
func (c *ArmBuzzer) WaitDuration() time.Duration {
	return time.Duration(c.Wait) * 100 * time.Millisecond
}

func (c *SetLED) Opcode() byte          { return OpSetLED }
func (c *ClearLED) Opcode() byte        { return OpClearLED }
func (c *ShowText) Opcode() byte        { return OpShowText }
func (c *ClearScreen) Opcode() byte     { return OpClearScreen }
func (c *SetMatrix) Opcode() byte       { return OpSetMatrix }
func (c *SetMatrixColors) Opcode() byte { return OpSetMatrixColors }
func (c *DriveMotor) Opcode() byte      { return OpDriveMotor }
func (c *StopMotor) Opcode() byte       { return OpStopMotor }
func (c *DriveMotors) Opcode() byte     { return OpDriveMotors }
func (c *ArmBuzzer) Opcode() byte       { return OpArmBuzzer }
func (c *StopBuzzer) Opcode() byte      { return OpStopBuzzer }

func (c *SetLED) Apply(h Handler) error          { return h.HandleSetLED(c) }
func (c *ClearLED) Apply(h Handler) error        { return h.HandleClearLED(c) }
func (c *ShowText) Apply(h Handler) error        { return h.HandleShowText(c) }
func (c *ClearScreen) Apply(h Handler) error     { return h.HandleClearScreen(c) }
func (c *SetMatrix) Apply(h Handler) error       { return h.HandleSetMatrix(c) }
func (c *SetMatrixColors) Apply(h Handler) error { return h.HandleSetMatrixColors(c) }
func (c *DriveMotor) Apply(h Handler) error      { return h.HandleDriveMotor(c) }
func (c *StopMotor) Apply(h Handler) error       { return h.HandleStopMotor(c) }
func (c *DriveMotors) Apply(h Handler) error     { return h.HandleDriveMotors(c) }
func (c *ArmBuzzer) Apply(h Handler) error       { return h.HandleArmBuzzer(c) }
func (c *StopBuzzer) Apply(h Handler) error      { return h.HandleStopBuzzer(c) }

func (c *SetLED) Bytes() []byte   { return []byte{OpSetLED, c.Port, c.R, c.G, c.B} }
func (c *ClearLED) Bytes() []byte { return []byte{OpClearLED, c.Port} }

func (c *ShowText) Bytes() []byte {
	b := make([]byte, 0, frameSizes[OpShowText])
	b = append(b, OpShowText, c.X, c.Y, c.Size)
	text := []byte(c.Text)
	if len(text) > TextSize {
		text = text[:TextSize]
	}
	b = append(b, text...)
	for i := len(text); i < TextSize; i++ {
		b = append(b, ' ')
	}
	return append(b, c.Color.R, c.Color.G, c.Color.B)
}

func (c *ClearScreen) Bytes() []byte { return []byte{OpClearScreen} }

func (c *SetMatrix) Bytes() []byte {
	p := EncodeMatrix(c.Pattern)
	return []byte{OpSetMatrix, c.Port, p[0], p[1], p[2], p[3]}
}

func (c *SetMatrixColors) Bytes() []byte {
	return []byte{OpSetMatrixColors,
		c.Bright.R, c.Bright.G, c.Bright.B,
		c.Dark.R, c.Dark.G, c.Dark.B}
}

func (c *DriveMotor) Bytes() []byte {
	return []byte{OpDriveMotor, c.Port, c.Speed, directionByte(c.Direction)}
}

func (c *StopMotor) Bytes() []byte { return []byte{OpStopMotor, c.Port} }

func (c *DriveMotors) Bytes() []byte {
	return []byte{OpDriveMotors,
		directionByte(c.M1.Direction), c.M1.Speed,
		directionByte(c.M2.Direction), c.M2.Speed}
}

func (c *ArmBuzzer) Bytes() []byte  { return []byte{OpArmBuzzer, c.FreqScale, c.Wait, c.Duty} }
func (c *StopBuzzer) Bytes() []byte { return []byte{OpStopBuzzer} }

// Reverse direction is encoded as 0x02.
func directionByte(dir int) byte {
	if dir < 0 {
		return 0x02
	}
	return byte(dir)
}

func direction(b byte) int {
	if b == 0x02 {
		return -1
	}
	return int(b)
}

func rgb(b []byte) color.RGBA {
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xff}
}

// Parse decodes one inbound frame. Bytes beyond the opcode's size are
// ignored.
func Parse(frame []byte) (Command, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	op := frame[0]
	size, ok := frameSizes[op]
	if !ok {
		return nil, &UnknownOpcodeError{Opcode: op}
	}
	if len(frame) < size {
		return nil, &ShortFrameError{Opcode: op, Want: size, Got: len(frame)}
	}
	b := frame[1:size]
	switch op {
	case OpSetLED:
		return &SetLED{Port: b[0], R: b[1], G: b[2], B: b[3]}, nil
	case OpClearLED:
		return &ClearLED{Port: b[0]}, nil
	case OpShowText:
		return &ShowText{
			X:     b[0],
			Y:     b[1],
			Size:  b[2],
			Text:  strings.Trim(string(b[3:3+TextSize]), " \x00"),
			Color: rgb(b[3+TextSize:]),
		}, nil
	case OpClearScreen:
		return &ClearScreen{}, nil
	case OpSetMatrix:
		return &SetMatrix{Port: b[0], Pattern: DecodeMatrix([4]byte{b[1], b[2], b[3], b[4]})}, nil
	case OpSetMatrixColors:
		return &SetMatrixColors{Bright: rgb(b[0:3]), Dark: rgb(b[3:6])}, nil
	case OpDriveMotor:
		return &DriveMotor{Port: b[0], Speed: b[1], Direction: direction(b[2])}, nil
	case OpStopMotor:
		return &StopMotor{Port: b[0]}, nil
	case OpDriveMotors:
		return &DriveMotors{
			M1: MotorDrive{Direction: direction(b[0]), Speed: b[1]},
			M2: MotorDrive{Direction: direction(b[2]), Speed: b[3]},
		}, nil
	case OpArmBuzzer:
		return &ArmBuzzer{FreqScale: b[0], Wait: b[1], Duty: b[2]}, nil
	case OpStopBuzzer:
		return &StopBuzzer{}, nil
	}
	panic(fmt.Sprintf("wire: opcode 0x%02X has a size but no decoder", op))
}

// Describe formats a frame for logs.
func Describe(frame []byte) string {
	cmd, err := Parse(frame)
	if err != nil {
		return fmt.Sprintf("% X (%v)", frame, err)
	}
	return fmt.Sprintf("%T %+v", cmd, cmd)
}
