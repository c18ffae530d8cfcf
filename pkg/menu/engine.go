package menu

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/input"
	"github.com/robotalks/blocks.go/pkg/sensors"
)

// Transient screens.
const (
	TextConnectFailed = "Connecting failed!"
	TextSendOK        = "Send Success!"
	TextSendFailed    = "Send Failed!"
	TextConnecting    = "Status: Connecting..."
	TextSend          = "Send"
)

// Timing of the buzzer send actions.
const (
	ToneDuration = time.Second
	ToneDuty     = 512
	NoteGap      = 10 * time.Millisecond
)

// Values provides read-only sensor values.
type Values interface {
	Value(label string) string
	Failed() bool
	ClearFailure()
}

// Refresher redraws sensor rows while a readings submenu is open.
type Refresher interface {
	Start(list hw.ItemList, labels []string)
	Stop()
}

// LinkControl starts and stops the wireless link.
type LinkControl interface {
	Advertise() error
	Disconnect() error
}

// Mode is the top level menu state.
type Mode int

// Menu modes.
const (
	ModeMain Mode = iota
	ModeSub
)

// State is the navigation state. Editing is only true in ModeSub on a
// modifiable item.
type State struct {
	Mode    Mode
	Submenu string
	Index   int
	Editing bool
}

// Engine is the menu state machine. It has exactly one writer: all
// methods must be called from the input activity.
type Engine struct {
	Display   hw.Display
	Actuators hw.Actuators
	Values    Values
	Refresher Refresher
	Link      LinkControl
	Flash     time.Duration
	Sleep     hw.Sleeper

	menus     map[string]*Submenu
	state     State
	mainIndex int
	mainList  hw.ItemList
	subList   hw.ItemList
	current   *Submenu
}

// NewEngine creates an Engine with the default submenus.
func NewEngine(display hw.Display, actuators hw.Actuators, values Values) *Engine {
	return &Engine{
		Display:   display,
		Actuators: actuators,
		Values:    values,
		Flash:     sensors.DefaultFlash,
		menus:     DefaultSubmenus(),
	}
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// Submenu returns a submenu definition with its current values.
func (e *Engine) Submenu(name string) *Submenu {
	return e.menus[name]
}

// Start shows the main menu.
func (e *Engine) Start() error {
	e.state = State{Mode: ModeMain}
	e.mainList = e.Display.ListScreen("", MainItems)
	e.mainList.Highlight(0)
	return e.Display.LoadScreen(e.mainList)
}

// Handle applies one button press.
func (e *Engine) Handle(b input.Button) error {
	if e.mainList == nil {
		if err := e.Start(); err != nil {
			return err
		}
	}
	textOnly := e.state.Mode == ModeSub && e.current.TextOnly()
	var err error
	switch b {
	case input.Up, input.Down:
		if e.state.Editing {
			e.adjust(b)
		} else if !textOnly {
			e.move(b)
		}
	case input.Right:
		if e.state.Mode == ModeMain {
			err = e.enter(MainItems[e.state.Index])
		} else if !textOnly && !e.state.Editing {
			if e.state.Index < len(e.current.Items) {
				if e.current.Items[e.state.Index].Modifiable {
					e.state.Editing = true
					e.renderRow(e.state.Index)
				}
			} else {
				err = e.send()
			}
		}
	case input.Left:
		if e.state.Mode == ModeSub {
			if e.state.Editing {
				e.state.Editing = false
				e.renderRow(e.state.Index)
			} else {
				err = e.leave()
			}
		}
	}
	e.highlight()
	return err
}

func (e *Engine) listLen() int {
	if e.state.Mode == ModeMain {
		return len(MainItems)
	}
	return len(e.current.Items) + 1
}

func (e *Engine) move(b input.Button) {
	n := e.listLen()
	if b == input.Up {
		e.state.Index = (e.state.Index - 1 + n) % n
	} else {
		e.state.Index = (e.state.Index + 1) % n
	}
}

func (e *Engine) adjust(b input.Button) {
	item := &e.current.Items[e.state.Index]
	r := RangeFor(item.Label)
	if b == input.Up {
		item.Value = r.Next(item.Value)
	} else {
		item.Value = r.Prev(item.Value)
	}
	e.renderRow(e.state.Index)
}

func (e *Engine) renderRow(i int) {
	item := e.current.Items[i]
	e.subList.SetRow(i, sensors.FormatRow(item.Label, strconv.Itoa(item.Value)), e.state.Editing)
}

func (e *Engine) highlight() {
	switch {
	case e.state.Mode == ModeMain:
		e.mainList.Highlight(e.state.Index)
	case e.current.TextOnly():
		e.subList.Highlight(-1)
	default:
		e.subList.Highlight(e.state.Index)
	}
}

func (e *Engine) enter(name string) error {
	sub := e.menus[name]
	if sub == nil {
		return fmt.Errorf("menu: no submenu %q", name)
	}
	var rows, labels []string
	switch sub.Kind {
	case Editable:
		for _, item := range sub.Items {
			rows = append(rows, sensors.FormatRow(item.Label, strconv.Itoa(item.Value)))
		}
		rows = append(rows, TextSend)
	case Readings:
		e.Values.ClearFailure()
		for _, item := range sub.Items {
			labels = append(labels, item.Label)
			rows = append(rows, sensors.FormatRow(item.Label, e.Values.Value(item.Label)))
		}
		if e.Values.Failed() {
			glog.Warningf("menu: %s unavailable", name)
			e.flash(TextConnectFailed)
			e.Values.ClearFailure()
			return e.Display.LoadScreen(e.mainList)
		}
	case Link:
		rows = []string{TextConnecting}
	}

	e.mainIndex = e.state.Index
	e.current = sub
	e.state = State{Mode: ModeSub, Submenu: name}
	e.subList = e.Display.ListScreen(sub.Title(), rows)
	if err := e.Display.LoadScreen(e.subList); err != nil {
		return err
	}
	switch sub.Kind {
	case Readings:
		if e.Refresher != nil {
			e.Refresher.Start(e.subList, labels)
		}
	case Link:
		if e.Link != nil {
			return e.Link.Advertise()
		}
	}
	return nil
}

func (e *Engine) leave() error {
	var err error
	switch e.current.Kind {
	case Readings:
		if e.Refresher != nil {
			e.Refresher.Stop()
		}
	case Link:
		if e.Link != nil {
			err = e.Link.Disconnect()
		}
	}
	e.current = nil
	e.state = State{Mode: ModeMain, Index: e.mainIndex}
	if loadErr := e.Display.LoadScreen(e.mainList); loadErr != nil && err == nil {
		err = loadErr
	}
	return err
}

func (e *Engine) send() error {
	err := e.dispatch(e.current)
	if err != nil {
		glog.Errorf("menu: send %s: %v", e.current.Name, err)
		e.flash(TextSendFailed)
	} else {
		e.flash(TextSendOK)
	}
	e.state.Index = 0
	return e.Display.LoadScreen(e.subList)
}

// value looks up an item value by label.
func (s *Submenu) value(label string) int {
	for _, item := range s.Items {
		if item.Label == label {
			return item.Value
		}
	}
	return 0
}

// ErrNoAction indicates a submenu without a send action.
var ErrNoAction = errors.New("menu: nothing to send")

func (e *Engine) dispatch(s *Submenu) error {
	switch s.Name {
	case LED:
		br := s.value(LabelBrightness)
		scale := func(label string) uint8 {
			return uint8(s.value(label) * br / 100)
		}
		return e.Actuators.SetLED(s.value(LabelPort), scale(LabelRed), scale(LabelGreen), scale(LabelBlue))
	case Motor:
		return e.Actuators.DriveMotor(s.value(LabelPort), s.value(LabelSpeed)*s.value(LabelDirection))
	case Servo:
		return e.Actuators.SetServoAngle(s.value(LabelAngle))
	case Buzzer:
		port := s.value(LabelPort)
		if s.value(LabelSong) == 1 {
			wait := time.Duration(s.value(LabelWait)) * time.Millisecond
			return e.play(port, Jingle, wait, s.value(LabelDuty))
		}
		if err := e.Actuators.BuzzerEngage(port, s.value(LabelFrequency), ToneDuty); err != nil {
			return err
		}
		e.sleep(ToneDuration)
		return e.Actuators.BuzzerDisengage(port)
	}
	return ErrNoAction
}

func (e *Engine) play(port int, notes []int, wait time.Duration, duty int) error {
	defer e.Actuators.BuzzerDisengage(port)
	for _, note := range notes {
		if note > 0 {
			if err := e.Actuators.BuzzerEngage(port, note, duty); err != nil {
				return err
			}
		}
		e.sleep(wait)
		if err := e.Actuators.BuzzerDisengage(port); err != nil {
			return err
		}
		e.sleep(NoteGap)
	}
	return nil
}

var textColor = color.RGBA{A: 0xff}

func (e *Engine) flash(text string) {
	if err := e.Display.LoadScreen(e.Display.TextScreen(text, -1, -1, 1, textColor)); err != nil {
		glog.Errorf("menu: show %q: %v", text, err)
	}
	e.sleep(e.Flash)
}

func (e *Engine) sleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
	} else {
		time.Sleep(d)
	}
}
