package core

import (
	"image/color"
	"sync"
	"time"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// ConnState is the state of the companion link.
type ConnState int

// Link states.
const (
	Disconnected ConnState = iota
	Advertising
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Advertising:
		return "advertising"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// BuzzerParams are the playback parameters of the buzzer activity.
type BuzzerParams struct {
	Active bool
	Port   int
	Freq   int
	Duty   int
	Wait   time.Duration
}

// MatrixState is the dot matrix shown on screen.
type MatrixState struct {
	Pattern hw.Matrix
	Bright  color.RGBA
	Dark    color.RGBA
}

// Initial values after startup.
var (
	InitialBuzzer = BuzzerParams{Port: 4, Freq: 2000, Wait: 100 * time.Millisecond}
	InitialMatrix = MatrixState{
		Bright: color.RGBA{A: 0xff},
		Dark:   color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
)

// State is the state shared by the device activities. Getters return
// copies and every mutation holds the lock only for the assignment.
type State struct {
	lock   sync.Mutex
	buzzer BuzzerParams
	conn   ConnState
	matrix MatrixState
}

// NewState creates a State with the initial values.
func NewState() *State {
	return &State{buzzer: InitialBuzzer, matrix: InitialMatrix}
}

// Buzzer returns the buzzer parameters.
func (s *State) Buzzer() BuzzerParams {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.buzzer
}

// ArmBuzzer sets playback parameters and activates playback. The port
// is kept.
func (s *State) ArmBuzzer(freq, duty int, wait time.Duration) {
	s.lock.Lock()
	s.buzzer.Freq, s.buzzer.Duty, s.buzzer.Wait = freq, duty, wait
	s.buzzer.Active = true
	s.lock.Unlock()
}

// DisarmBuzzer deactivates playback and returns the buzzer port.
func (s *State) DisarmBuzzer() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.buzzer.Active = false
	return s.buzzer.Port
}

// Conn returns the link state.
func (s *State) Conn() ConnState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.conn
}

// SetConn changes the link state and returns the previous one.
func (s *State) SetConn(c ConnState) ConnState {
	s.lock.Lock()
	defer s.lock.Unlock()
	prev := s.conn
	s.conn = c
	return prev
}

// PeerLost moves from Connected back to Advertising and reports whether
// a connection was lost. Other states are kept, so a link stopped on
// purpose stays Disconnected.
func (s *State) PeerLost() (ConnState, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn != Connected {
		return s.conn, false
	}
	s.conn = Advertising
	return s.conn, true
}

// Matrix returns the dot matrix state.
func (s *State) Matrix() MatrixState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.matrix
}

// SetPattern replaces the pattern, keeping the colors.
func (s *State) SetPattern(p hw.Matrix) MatrixState {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.matrix.Pattern = p
	return s.matrix
}

// SetColors replaces the colors, keeping the pattern.
func (s *State) SetColors(bright, dark color.RGBA) MatrixState {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.matrix.Bright, s.matrix.Dark = bright, dark
	return s.matrix
}
