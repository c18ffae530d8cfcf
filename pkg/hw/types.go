package hw

import (
	"image/color"
	"time"
)

// Surface is an opaque renderable screen produced by a Display.
type Surface interface {
	// Title is a short description of the surface, mostly for logging.
	Title() string
}

// ItemList is a screen of selectable rows built by a Display.
type ItemList interface {
	Surface
	// SetRow replaces the text of row i. editing marks the row as being
	// modified by the user.
	SetRow(i int, text string, editing bool)
	// Highlight selects row i and unselects all others. -1 clears the
	// selection.
	Highlight(i int)
}

// Display is the on-screen collaborator.
type Display interface {
	LoadScreen(Surface) error
	// TextScreen builds a screen showing a single text. Negative x or y
	// centers the text on that axis.
	TextScreen(text string, x, y, size int, c color.RGBA) Surface
	ListScreen(title string, rows []string) ItemList
	MatrixScreen(m Matrix, bright, dark color.RGBA) Surface
}

// MatrixSize is the edge length of the dot matrix.
const MatrixSize = 5

// Matrix is a 5x5 dot pattern, indexed [row][column].
type Matrix [MatrixSize][MatrixSize]bool

// Actuators are the output devices of the block.
type Actuators interface {
	// SetLED sets one LED. Port AllPorts sets every LED.
	SetLED(port int, r, g, b uint8) error
	LEDCount() int
	// DriveMotor drives one motor with a signed speed in [-100, 100].
	DriveMotor(port, speed int) error
	// SetServoAngle moves the servo, degrees in [0, 360].
	SetServoAngle(deg int) error
	BuzzerEngage(port, freq, duty int) error
	BuzzerDisengage(port int) error
}

// AllPorts addresses every port of an actuator kind.
const AllPorts = 0xFF

// Motion is one accelerometer/gyroscope/magnetometer sample.
type Motion struct {
	Accel [3]int
	Gyro  [3]int
	Mag   [3]int
}

// RGB is a color sensor sample.
type RGB struct {
	R, G, B int
}

// Climate is a temperature/humidity sample.
type Climate struct {
	Temperature float64
	Humidity    float64
}

// Sensors are the input devices of the block. A non-nil error is the
// failed status of a read.
type Sensors interface {
	ReadMotion() (Motion, error)
	ReadColor() (RGB, error)
	// CalibrateColor runs the white balance calibration.
	CalibrateColor() (bool, error)
	ReadClimate() (Climate, error)
}

// ADC samples the analog button line.
type ADC interface {
	ReadRaw() (uint16, error)
}

// SoundSource reports the ambient sound level.
type SoundSource interface {
	SoundLevel() (uint8, error)
}

// EventKind is the type of a transport event.
type EventKind int

// Transport event kinds.
const (
	Connected EventKind = iota
	Disconnected
	DataReceived
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case DataReceived:
		return "data"
	}
	return "unknown"
}

// Event is an asynchronous notification from a Transport.
type Event struct {
	Kind EventKind
	Data []byte
}

// EventHandler receives transport events.
type EventHandler func(Event)

// Transport is the frame link to the companion application.
type Transport interface {
	StartAdvertising(name string) error
	Stop() error
	Send(frame []byte) error
	SetHandler(EventHandler)
}

// Sleeper pauses the calling activity.
type Sleeper func(time.Duration)
