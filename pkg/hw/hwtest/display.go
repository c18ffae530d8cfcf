// Package hwtest provides recording fakes of the hw collaborators.
package hwtest

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// TextSurface is a surface built by Display.TextScreen.
type TextSurface struct {
	Text  string
	X, Y  int
	Size  int
	Color color.RGBA
}

// Title implements hw.Surface.
func (s *TextSurface) Title() string { return s.Text }

// MatrixSurface is a surface built by Display.MatrixScreen.
type MatrixSurface struct {
	Matrix hw.Matrix
	Bright color.RGBA
	Dark   color.RGBA
}

// Title implements hw.Surface.
func (s *MatrixSurface) Title() string { return "matrix" }

// List is a recording hw.ItemList.
type List struct {
	display *Display
	title   string
	rows    []string
	editing []bool
	current int
}

// Title implements hw.Surface.
func (l *List) Title() string { return l.title }

// SetRow implements hw.ItemList.
func (l *List) SetRow(i int, text string, editing bool) {
	l.display.lock.Lock()
	defer l.display.lock.Unlock()
	l.rows[i], l.editing[i] = text, editing
}

// Highlight implements hw.ItemList.
func (l *List) Highlight(i int) {
	l.display.lock.Lock()
	defer l.display.lock.Unlock()
	l.current = i
}

// Rows returns the row texts.
func (l *List) Rows() []string {
	l.display.lock.Lock()
	defer l.display.lock.Unlock()
	return append([]string(nil), l.rows...)
}

// Editing reports whether row i is rendered as being edited.
func (l *List) Editing(i int) bool {
	l.display.lock.Lock()
	defer l.display.lock.Unlock()
	return l.editing[i]
}

// Highlighted returns the highlighted row or -1.
func (l *List) Highlighted() int {
	l.display.lock.Lock()
	defer l.display.lock.Unlock()
	return l.current
}

// Display records everything loaded on screen.
type Display struct {
	lock   sync.Mutex
	loaded []hw.Surface
	Err    error
}

// NewDisplay creates a Display.
func NewDisplay() *Display {
	return &Display{}
}

// LoadScreen implements hw.Display.
func (d *Display) LoadScreen(s hw.Surface) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.loaded = append(d.loaded, s)
	return nil
}

// TextScreen implements hw.Display.
func (d *Display) TextScreen(text string, x, y, size int, c color.RGBA) hw.Surface {
	return &TextSurface{Text: text, X: x, Y: y, Size: size, Color: c}
}

// ListScreen implements hw.Display.
func (d *Display) ListScreen(title string, rows []string) hw.ItemList {
	return &List{
		display: d,
		title:   title,
		rows:    append([]string(nil), rows...),
		editing: make([]bool, len(rows)),
		current: -1,
	}
}

// MatrixScreen implements hw.Display.
func (d *Display) MatrixScreen(m hw.Matrix, bright, dark color.RGBA) hw.Surface {
	return &MatrixSurface{Matrix: m, Bright: bright, Dark: dark}
}

// Loaded returns all loaded surfaces in order.
func (d *Display) Loaded() []hw.Surface {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]hw.Surface(nil), d.loaded...)
}

// Current returns the last loaded surface.
func (d *Display) Current() hw.Surface {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(d.loaded) == 0 {
		return nil
	}
	return d.loaded[len(d.loaded)-1]
}

// CurrentList returns the last loaded surface as a List, or nil.
func (d *Display) CurrentList() *List {
	l, _ := d.Current().(*List)
	return l
}

// Titles returns the titles of all loaded surfaces.
func (d *Display) Titles() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	titles := make([]string, len(d.loaded))
	for i, s := range d.loaded {
		titles[i] = s.Title()
	}
	return titles
}

// Actuators records actuator calls as strings like "motor 1 -50".
type Actuators struct {
	lock  sync.Mutex
	calls []string
	// Fail makes calls on the named kind return an error.
	Fail map[string]error
}

// NewActuators creates Actuators.
func NewActuators() *Actuators {
	return &Actuators{Fail: make(map[string]error)}
}

func (a *Actuators) record(kind string, format string, args ...interface{}) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.calls = append(a.calls, kind+" "+fmt.Sprintf(format, args...))
	return a.Fail[kind]
}

// SetLED implements hw.Actuators.
func (a *Actuators) SetLED(port int, r, g, b uint8) error {
	return a.record("led", "%d %d %d %d", port, r, g, b)
}

// LEDCount implements hw.Actuators.
func (a *Actuators) LEDCount() int { return 10 }

// DriveMotor implements hw.Actuators.
func (a *Actuators) DriveMotor(port, speed int) error {
	return a.record("motor", "%d %d", port, speed)
}

// SetServoAngle implements hw.Actuators.
func (a *Actuators) SetServoAngle(deg int) error {
	return a.record("servo", "%d", deg)
}

// BuzzerEngage implements hw.Actuators.
func (a *Actuators) BuzzerEngage(port, freq, duty int) error {
	return a.record("buzzer", "%d %d %d", port, freq, duty)
}

// BuzzerDisengage implements hw.Actuators.
func (a *Actuators) BuzzerDisengage(port int) error {
	return a.record("buzzer", "%d off", port)
}

// Calls returns recorded calls.
func (a *Actuators) Calls() []string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]string(nil), a.calls...)
}

// Reset clears recorded calls.
func (a *Actuators) Reset() {
	a.lock.Lock()
	a.calls = nil
	a.lock.Unlock()
}
