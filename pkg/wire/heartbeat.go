package wire

import (
	"fmt"
	"math"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// HeartbeatOpcode leads every outbound heartbeat.
const HeartbeatOpcode = 0xF0

// HeartbeatSize is the fixed length of a heartbeat frame.
const HeartbeatSize = 19

// Gyro direction codes.
const (
	TiltFront byte = 1
	TiltBack  byte = 2
	TiltLeft  byte = 3
	TiltRight byte = 4
)

// Accelerometer axis codes.
const (
	AxisX byte = 1
	AxisY byte = 2
	AxisZ byte = 3
)

// Heartbeat is the periodic telemetry snapshot.
type Heartbeat struct {
	Button      byte
	Temperature byte
	Humidity    byte
	Light       byte
	GyroType    byte
	GyroAngle   byte
	Voice       byte
	AccelType   byte
	AccelValue  byte
	Color       ColorCode
	R, G, B     byte
}

// Bytes encodes the heartbeat frame.
func (h *Heartbeat) Bytes() []byte {
	b := make([]byte, HeartbeatSize)
	b[0] = HeartbeatOpcode
	b[1] = h.Button
	b[2] = h.Temperature
	b[3] = h.Humidity
	b[4] = h.Light
	b[5] = h.GyroType
	b[6] = h.GyroAngle
	b[7] = h.Voice
	b[8] = h.AccelType
	b[9] = h.AccelValue
	b[10] = byte(h.Color)
	b[11], b[12], b[13] = h.R, h.G, h.B
	// b[14:18] reserved.
	b[HeartbeatSize-1] = Checksum(b[:HeartbeatSize-1])
	return b
}

func (h *Heartbeat) String() string {
	return fmt.Sprintf("button=%d temp=%dC hum=%d%% light=%d tilt=%d/%d voice=%d accel=%d/%d color=%s rgb=%d,%d,%d",
		h.Button, h.Temperature, h.Humidity, h.Light,
		h.GyroType, h.GyroAngle, h.Voice,
		h.AccelType, h.AccelValue, h.Color, h.R, h.G, h.B)
}

// DecodeHeartbeat parses and verifies a heartbeat frame.
func DecodeHeartbeat(b []byte) (*Heartbeat, error) {
	if len(b) == 0 {
		return nil, ErrEmptyFrame
	}
	if b[0] != HeartbeatOpcode {
		return nil, &UnknownOpcodeError{Opcode: b[0]}
	}
	if len(b) < HeartbeatSize {
		return nil, &ShortFrameError{Opcode: b[0], Want: HeartbeatSize, Got: len(b)}
	}
	if Checksum(b[:HeartbeatSize-1]) != b[HeartbeatSize-1] {
		return nil, ErrChecksum
	}
	return &Heartbeat{
		Button:      b[1],
		Temperature: b[2],
		Humidity:    b[3],
		Light:       b[4],
		GyroType:    b[5],
		GyroAngle:   b[6],
		Voice:       b[7],
		AccelType:   b[8],
		AccelValue:  b[9],
		Color:       ColorCode(b[10]),
		R:           b[11],
		G:           b[12],
		B:           b[13],
	}, nil
}

// Checksum is the byte sum modulo 256.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// Saturation bound of a raw accelerometer axis.
const accelRange = 2048

func accelAxis(v int) float64 {
	switch {
	case v >= accelRange:
		return 255
	case v < -accelRange:
		return 0
	}
	return float64(v+accelRange) / 16
}

// DeriveAccel maps the three raw accelerometer axes onto 0..255 and
// reports the axis furthest from the center value 128. On ties the
// first axis wins.
func DeriveAccel(accel [3]int) (axis, value byte) {
	best := -1.0
	for i, v := range accel {
		scaled := accelAxis(v)
		if dev := math.Abs(scaled - 128); dev > best {
			best, axis, value = dev, AxisX+byte(i), byte(scaled)
		}
	}
	return
}

// DeriveTilt computes pitch and roll from the gravity vector and
// reports the larger one as a direction code and a magnitude in degrees.
func DeriveTilt(v [3]int) (dir, angle byte) {
	x, y, z := float64(v[0]), float64(v[1]), float64(v[2])
	pitch := math.Atan2(x, math.Sqrt(y*y+z*z)) * 180 / math.Pi
	roll := math.Atan2(y, math.Sqrt(x*x+z*z)) * 180 / math.Pi
	dir = TiltBack
	if pitch > 0 {
		dir = TiltFront
	}
	mag := math.Abs(pitch)
	if math.Abs(roll) > mag {
		mag = math.Abs(roll)
		dir = TiltLeft
		if roll > 0 {
			dir = TiltRight
		}
	}
	return dir, byte(mag)
}

// ClampByte saturates v into a byte.
func ClampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Telemetry collects the readings that make up one heartbeat.
type Telemetry struct {
	Button  byte
	Motion  hw.Motion
	Color   hw.RGB
	Climate hw.Climate
	Voice   byte
}

// NewHeartbeat derives a heartbeat from raw readings.
func NewHeartbeat(t Telemetry) *Heartbeat {
	h := &Heartbeat{
		Button:      t.Button,
		Temperature: ClampByte(int(t.Climate.Temperature)),
		Humidity:    ClampByte(int(t.Climate.Humidity)),
		Voice:       t.Voice,
	}
	h.AccelType, h.AccelValue = DeriveAccel(t.Motion.Accel)
	h.GyroType, h.GyroAngle = DeriveTilt(t.Motion.Gyro)
	h.R, h.G, h.B = ClampByte(t.Color.R), ClampByte(t.Color.G), ClampByte(t.Color.B)
	h.Color = ClassifyColor(int(h.R), int(h.G), int(h.B))
	return h
}
