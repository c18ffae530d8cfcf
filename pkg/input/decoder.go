package input

import (
	"time"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Button is a decoded button code.
type Button int

// Button codes. The values are reported as-is in the heartbeat.
const (
	None Button = iota
	Ok
	Return
	Up
	Down
	Left
	Right
)

var buttonNames = [...]string{"none", "ok", "return", "up", "down", "left", "right"}

func (b Button) String() string {
	if b >= 0 && int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "unknown"
}

// Default converter parameters.
const (
	DefaultVRef       = 3.3
	DefaultResolution = 4096
	DefaultSettle     = 10 * time.Millisecond
)

type band struct {
	lo, hi float64
	button Button
}

// Bands are open intervals, tuned to the resistor ladder.
var bands = []band{
	{0.5, 0.7, Return},
	{1.2, 1.4, Up},
	{1.6, 1.7, Down},
	{1.8, 2.1, Left},
	{2.1, 2.4, Right},
}

// IdleVolts is the line voltage with no button pressed.
const IdleVolts = DefaultVRef

var nominal = map[Button]float64{
	Ok:     0,
	Return: 0.6,
	Up:     1.3,
	Down:   1.65,
	Left:   1.95,
	Right:  2.25,
}

// Volts returns the nominal ladder voltage of a button, IdleVolts for
// None.
func Volts(b Button) float64 {
	if v, ok := nominal[b]; ok {
		return v
	}
	return IdleVolts
}

// Classify maps a voltage to a button.
func Classify(volts float64) Button {
	if volts == 0 {
		return Ok
	}
	for _, b := range bands {
		if volts > b.lo && volts < b.hi {
			return b.button
		}
	}
	return None
}

// Decoder samples the analog button line. There is no edge detection:
// the caller polls, and the settle delay after each sample is the only
// debouncing.
type Decoder struct {
	ADC        hw.ADC
	VRef       float64
	Resolution int
	Settle     time.Duration
	Sleep      hw.Sleeper
}

// NewDecoder creates a Decoder with the default converter parameters.
func NewDecoder(adc hw.ADC) *Decoder {
	return &Decoder{
		ADC:        adc,
		VRef:       DefaultVRef,
		Resolution: DefaultResolution,
		Settle:     DefaultSettle,
	}
}

// Volts converts a raw sample.
func (d *Decoder) Volts(raw uint16) float64 {
	return float64(raw) / float64(d.Resolution) * d.VRef
}

// ReadButton samples once and classifies the reading.
func (d *Decoder) ReadButton() (Button, error) {
	raw, err := d.ADC.ReadRaw()
	d.settle()
	if err != nil {
		return None, err
	}
	return Classify(d.Volts(raw)), nil
}

func (d *Decoder) settle() {
	if d.Settle <= 0 {
		return
	}
	if d.Sleep != nil {
		d.Sleep(d.Settle)
	} else {
		time.Sleep(d.Settle)
	}
}
