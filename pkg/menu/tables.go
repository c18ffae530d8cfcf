package menu

import (
	"strings"

	"github.com/robotalks/blocks.go/pkg/sensors"
)

// Submenu names, in main menu order.
const (
	LED         = "LED"
	Buzzer      = "Buzzer"
	Motor       = "Motor"
	Servo       = "Servo"
	NineAxis    = "Nine axis sensor"
	ColorSensor = "Color sensor"
	Climate     = "Temperature and humidity"
	BLE         = "BLE"
)

// MainItems lists the main menu.
var MainItems = []string{LED, Buzzer, Motor, Servo, NineAxis, ColorSensor, Climate, BLE}

// Kind tells how a submenu is shown and operated.
type Kind int

// Submenu kinds.
const (
	// Editable submenus have modifiable items and a trailing Send row.
	Editable Kind = iota
	// Readings submenus show sensor values refreshed periodically.
	Readings
	// Link submenus show the wireless status.
	Link
)

// Item is one row of a submenu.
type Item struct {
	Label      string
	Value      int
	Modifiable bool
}

// Submenu is the definition of one submenu.
type Submenu struct {
	Name  string
	Kind  Kind
	Items []Item
}

// TextOnly reports whether the submenu ignores navigation.
func (s *Submenu) TextOnly() bool {
	return s.Kind != Editable
}

// Title is the heading of the submenu screen.
func (s *Submenu) Title() string {
	return s.Name + " Settings"
}

// Range is the inclusive range of an item value.
type Range struct {
	Min, Max int
}

// DefaultRange applies to labels without an entry in the range table.
var DefaultRange = Range{0, 100}

var ranges = map[string]Range{
	"port":         {0, 9},
	"red":          {0, 255},
	"green":        {0, 255},
	"blue":         {0, 255},
	"frequency":    {20, 20000},
	"song_num":     {0, 1},
	"wait_time_ms": {100, 1000},
	"duty":         {200, 700},
	"direction":    {-1, 1},
	"speed":        {0, 100},
	"angle":        {0, 360},
}

// RangeFor returns the value range of a label, case-insensitively.
func RangeFor(label string) Range {
	if r, ok := ranges[strings.ToLower(label)]; ok {
		return r
	}
	return DefaultRange
}

// Next increments v, wrapping from Max to Min.
func (r Range) Next(v int) int {
	if v >= r.Max {
		return r.Min
	}
	return v + 1
}

// Prev decrements v, wrapping from Min to Max.
func (r Range) Prev(v int) int {
	if v <= r.Min {
		return r.Max
	}
	return v - 1
}

func editable(labels []string, values ...int) []Item {
	items := make([]Item, len(labels))
	for i, label := range labels {
		items[i] = Item{Label: label, Value: values[i], Modifiable: true}
	}
	return items
}

func readOnly(labels ...string) []Item {
	items := make([]Item, len(labels))
	for i, label := range labels {
		items[i] = Item{Label: label}
	}
	return items
}

// Item labels of editable submenus.
const (
	LabelPort       = "Port"
	LabelRed        = "Red"
	LabelGreen      = "Green"
	LabelBlue       = "Blue"
	LabelBrightness = "Brightness"
	LabelFrequency  = "Frequency"
	LabelSong       = "Song_num"
	LabelWait       = "Wait_time_ms"
	LabelDuty       = "Duty"
	LabelDirection  = "Direction"
	LabelSpeed      = "Speed"
	LabelAngle      = "Angle"
	LabelConnected  = "Is_connected"
)

// DefaultSubmenus builds the submenus with their initial values.
func DefaultSubmenus() map[string]*Submenu {
	menus := []*Submenu{
		{Name: LED, Items: editable(
			[]string{LabelPort, LabelRed, LabelGreen, LabelBlue, LabelBrightness},
			0, 255, 255, 255, 100)},
		{Name: Buzzer, Items: editable(
			[]string{LabelPort, LabelFrequency, LabelSong, LabelWait, LabelDuty},
			4, 2637, 1, 250, 512)},
		{Name: Motor, Items: editable(
			[]string{LabelPort, LabelDirection, LabelSpeed},
			1, 1, 50)},
		{Name: Servo, Items: editable(
			[]string{LabelPort, LabelAngle},
			1, 0)},
		{Name: NineAxis, Kind: Readings, Items: readOnly(sensors.LabelAccel, sensors.LabelGyro, sensors.LabelMag)},
		{Name: ColorSensor, Kind: Readings, Items: readOnly(sensors.LabelColorRed, sensors.LabelColorGreen, sensors.LabelColorBlue)},
		{Name: Climate, Kind: Readings, Items: readOnly(sensors.LabelTemperature, sensors.LabelHumidity)},
		{Name: BLE, Kind: Link, Items: readOnly(LabelConnected)},
	}
	m := make(map[string]*Submenu, len(menus))
	for _, s := range menus {
		m[s.Name] = s
	}
	return m
}

// Notes of the built-in melody, in Hz.
const (
	NoteC7 = 2093
	NoteD7 = 2349
	NoteE7 = 2637
	NoteF7 = 2794
	NoteG7 = 3136
)

// Jingle is the built-in melody. 0 is a rest.
var Jingle = []int{
	NoteE7, NoteE7, NoteE7, 0,
	NoteE7, NoteE7, NoteE7, 0,
	NoteE7, NoteG7, NoteC7, NoteD7, NoteE7, 0,
	NoteF7, NoteF7, NoteF7, NoteF7, NoteF7, NoteE7, NoteE7, NoteE7, NoteE7, NoteD7, NoteD7, NoteE7, NoteD7, 0, NoteG7, 0,
	NoteE7, NoteE7, NoteE7, 0,
	NoteE7, NoteE7, NoteE7, 0,
	NoteE7, NoteG7, NoteC7, NoteD7, NoteE7, 0,
	NoteF7, NoteF7, NoteF7, NoteF7, NoteF7, NoteE7, NoteE7, NoteE7, NoteG7, NoteG7, NoteF7, NoteD7, NoteC7, 0,
}
