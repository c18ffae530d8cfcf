package menu

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/blocks.go/pkg/display/fb"
	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/hw/hwtest"
	"github.com/robotalks/blocks.go/pkg/hw/sim"
	"github.com/robotalks/blocks.go/pkg/input"
)

type fakeValues struct {
	failed  bool
	failOn  string
	cleared int
}

func (v *fakeValues) Value(label string) string {
	if label == v.failOn {
		v.failed = true
	}
	return "7"
}

func (v *fakeValues) Failed() bool { return v.failed }

func (v *fakeValues) ClearFailure() {
	v.failed = false
	v.cleared++
}

type fakeRefresher struct {
	labels  []string
	running bool
}

func (r *fakeRefresher) Start(list hw.ItemList, labels []string) {
	r.labels, r.running = labels, true
}

func (r *fakeRefresher) Stop() { r.running = false }

type fakeLink struct {
	calls []string
	err   error
}

func (l *fakeLink) Advertise() error {
	l.calls = append(l.calls, "advertise")
	return l.err
}

func (l *fakeLink) Disconnect() error {
	l.calls = append(l.calls, "disconnect")
	return nil
}

type fixture struct {
	engine    *Engine
	display   *hwtest.Display
	actuators *hwtest.Actuators
	values    *fakeValues
	refresher *fakeRefresher
	link      *fakeLink
	slept     []time.Duration
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		display:   hwtest.NewDisplay(),
		actuators: hwtest.NewActuators(),
		values:    &fakeValues{},
		refresher: &fakeRefresher{},
		link:      &fakeLink{},
	}
	f.engine = NewEngine(f.display, f.actuators, f.values)
	f.engine.Refresher = f.refresher
	f.engine.Link = f.link
	f.engine.Sleep = func(d time.Duration) { f.slept = append(f.slept, d) }
	require.NoError(t, f.engine.Start())
	return f
}

func (f *fixture) press(t *testing.T, buttons ...input.Button) {
	for _, b := range buttons {
		require.NoError(t, f.engine.Handle(b))
		f.checkInvariants(t)
	}
}

func (f *fixture) checkInvariants(t *testing.T) {
	st := f.engine.State()
	require.GreaterOrEqual(t, st.Index, 0)
	require.Less(t, st.Index, f.engine.listLen())
	if st.Editing {
		require.Equal(t, ModeSub, st.Mode)
		require.True(t, f.engine.current.Items[st.Index].Modifiable)
	}
	if list := f.display.CurrentList(); list != nil {
		if st.Mode == ModeMain || !f.engine.current.TextOnly() {
			require.Equal(t, st.Index, list.Highlighted())
		} else {
			require.Equal(t, -1, list.Highlighted())
		}
	}
}

func TestStartShowsMainMenu(t *testing.T) {
	f := newFixture(t)
	list := f.display.CurrentList()
	require.NotNil(t, list)
	require.Equal(t, MainItems, list.Rows())
	require.Equal(t, 0, list.Highlighted())
	require.Equal(t, State{Mode: ModeMain}, f.engine.State())
}

func TestNavigationWraps(t *testing.T) {
	f := newFixture(t)
	f.press(t, input.Up)
	require.Equal(t, len(MainItems)-1, f.engine.State().Index)
	f.press(t, input.Down)
	require.Equal(t, 0, f.engine.State().Index)
	for i := 0; i < 3*len(MainItems)+2; i++ {
		f.press(t, input.Down)
	}
	require.Equal(t, 2, f.engine.State().Index)

	// LED submenu: 5 items plus Send.
	f.press(t, input.Up, input.Up, input.Right)
	require.Equal(t, State{Mode: ModeSub, Submenu: LED}, f.engine.State())
	f.press(t, input.Up)
	require.Equal(t, 5, f.engine.State().Index)
	f.press(t, input.Down)
	require.Equal(t, 0, f.engine.State().Index)
}

func TestEditPortScenario(t *testing.T) {
	f := newFixture(t)
	f.press(t, input.Right, input.Right)
	st := f.engine.State()
	require.Equal(t, State{Mode: ModeSub, Submenu: LED, Index: 0, Editing: true}, st)
	list := f.display.CurrentList()
	require.Equal(t, "Port: 0", list.Rows()[0])
	require.True(t, list.Editing(0))

	f.press(t, input.Up, input.Up, input.Up)
	require.Equal(t, 3, f.engine.Submenu(LED).Items[0].Value)
	require.Equal(t, "Port: 3", list.Rows()[0])
	require.Equal(t, 0, f.engine.State().Index)

	f.press(t, input.Left)
	require.Equal(t, State{Mode: ModeSub, Submenu: LED, Index: 0}, f.engine.State())
	require.Equal(t, "Port: 3", list.Rows()[0])
	require.False(t, list.Editing(0))
	require.Equal(t, 3, f.engine.Submenu(LED).Items[0].Value)
}

func TestEditWrapsAtBounds(t *testing.T) {
	f := newFixture(t)
	// LED Red starts at its max 255.
	f.press(t, input.Right, input.Down, input.Right, input.Up)
	require.Equal(t, 0, f.engine.Submenu(LED).Items[1].Value)
	f.press(t, input.Down)
	require.Equal(t, 255, f.engine.Submenu(LED).Items[1].Value)
}

func TestRangeWrapProperty(t *testing.T) {
	labels := []string{"Port", "Red", "Frequency", "Song_num", "Wait_time_ms", "Duty", "Direction", "Speed", "Angle", "Brightness"}
	for _, label := range labels {
		r := RangeFor(label)
		require.Equal(t, r.Min, r.Next(r.Max), label)
		require.Equal(t, r.Max, r.Prev(r.Min), label)
		v := r.Min
		for i := 0; i < 2*(r.Max-r.Min+1); i++ {
			v = r.Next(v)
			require.True(t, v >= r.Min && v <= r.Max, label)
		}
	}
	require.Equal(t, DefaultRange, RangeFor("Brightness"))
	require.Equal(t, Range{-1, 1}, RangeFor("DIRECTION"))
}

func TestLeaveRestoresMainSelection(t *testing.T) {
	f := newFixture(t)
	f.press(t, input.Down, input.Down, input.Right, input.Down, input.Left)
	require.Equal(t, State{Mode: ModeMain, Index: 2}, f.engine.State())
	require.Equal(t, MainItems, f.display.CurrentList().Rows())
}

func TestSendLED(t *testing.T) {
	f := newFixture(t)
	// Brightness 100 -> 99, then Send.
	f.press(t, input.Right)
	for i := 0; i < 4; i++ {
		f.press(t, input.Down)
	}
	f.press(t, input.Right, input.Down, input.Left, input.Down, input.Right)
	require.Equal(t, []string{"led 0 252 252 252"}, f.actuators.Calls())
	require.Equal(t, State{Mode: ModeSub, Submenu: LED, Index: 0}, f.engine.State())
	titles := f.display.Titles()
	require.Equal(t, TextSendOK, titles[len(titles)-2])
	require.Equal(t, "LED Settings", titles[len(titles)-1])
	require.Equal(t, []time.Duration{time.Second}, f.slept)
}

func TestSendMotorAndServo(t *testing.T) {
	f := newFixture(t)
	// Motor: Direction -> -1 (wrap from 1 up to -1), Send.
	f.press(t, input.Down, input.Down, input.Right, input.Down, input.Right, input.Up, input.Left)
	f.press(t, input.Down, input.Down, input.Right)
	require.Equal(t, []string{"motor 1 -50"}, f.actuators.Calls())
	f.press(t, input.Left, input.Down, input.Right, input.Up, input.Right)
	require.Equal(t, []string{"motor 1 -50", "servo 0"}, f.actuators.Calls())
}

func TestSendFailure(t *testing.T) {
	f := newFixture(t)
	f.actuators.Fail["motor"] = &hw.PortError{Kind: "motor", Port: 1}
	f.press(t, input.Down, input.Down, input.Right, input.Up, input.Right)
	titles := f.display.Titles()
	require.Equal(t, TextSendFailed, titles[len(titles)-2])
	require.Equal(t, ModeSub, f.engine.State().Mode)
}

func TestSendBuzzerTone(t *testing.T) {
	f := newFixture(t)
	// Song_num 1 -> 0, then Send plays a single tone.
	f.press(t, input.Down, input.Right, input.Down, input.Down, input.Right, input.Up, input.Left)
	f.press(t, input.Down, input.Down, input.Down, input.Right)
	require.Equal(t, 0, f.engine.Submenu(Buzzer).Items[2].Value)
	require.Equal(t, []string{"buzzer 4 2637 512", "buzzer 4 off"}, f.actuators.Calls())
	require.Equal(t, []time.Duration{ToneDuration, time.Second}, f.slept)
}

func TestSendBuzzerMelody(t *testing.T) {
	f := newFixture(t)
	f.press(t, input.Down, input.Right, input.Up, input.Right)
	calls := f.actuators.Calls()
	var engaged, rests int
	for _, n := range Jingle {
		if n == 0 {
			rests++
		}
	}
	for _, c := range calls {
		if !strings.HasSuffix(c, "off") {
			engaged++
			require.True(t, strings.HasSuffix(c, " 512"), c)
		}
	}
	require.Equal(t, len(Jingle)-rests, engaged)
	require.Equal(t, "buzzer 4 2637 512", calls[0])
	require.Equal(t, "buzzer 4 off", calls[len(calls)-1])
	require.Equal(t, 250*time.Millisecond, f.slept[0])
	require.Equal(t, NoteGap, f.slept[1])
}

func TestReadingsSubmenu(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.press(t, input.Down)
	}
	f.press(t, input.Right)
	require.Equal(t, State{Mode: ModeSub, Submenu: NineAxis}, f.engine.State())
	list := f.display.CurrentList()
	require.Equal(t, "Nine axis sensor Settings", list.Title())
	require.Equal(t, []string{"Accelerometer: 7", "Gyroscope: 7", "Magnetic: 7"}, list.Rows())
	require.True(t, f.refresher.running)
	require.Equal(t, []string{"Accelerometer", "Gyroscope", "Magnetic"}, f.refresher.labels)

	// navigation and editing are ignored on text-only submenus.
	f.press(t, input.Down, input.Up, input.Right)
	require.Equal(t, State{Mode: ModeSub, Submenu: NineAxis}, f.engine.State())

	f.press(t, input.Left)
	require.False(t, f.refresher.running)
	require.Equal(t, State{Mode: ModeMain, Index: 4}, f.engine.State())
}

func TestReadingsFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.values.failOn = "Temperature"
	for i := 0; i < 6; i++ {
		f.press(t, input.Down)
	}
	f.press(t, input.Right)
	require.Equal(t, State{Mode: ModeMain, Index: 6}, f.engine.State())
	require.False(t, f.refresher.running)
	require.False(t, f.values.failed)
	titles := f.display.Titles()
	require.Equal(t, TextConnectFailed, titles[len(titles)-2])
	require.Equal(t, MainItems, f.display.CurrentList().Rows())
	require.Equal(t, []time.Duration{time.Second}, f.slept)
}

func TestBLESubmenu(t *testing.T) {
	f := newFixture(t)
	f.press(t, input.Up, input.Right)
	require.Equal(t, State{Mode: ModeSub, Submenu: BLE}, f.engine.State())
	require.Equal(t, []string{TextConnecting}, f.display.CurrentList().Rows())
	require.Equal(t, []string{"advertise"}, f.link.calls)
	f.press(t, input.Left)
	require.Equal(t, []string{"advertise", "disconnect"}, f.link.calls)
	require.Equal(t, State{Mode: ModeMain, Index: 7}, f.engine.State())
}

func TestBLEAdvertiseError(t *testing.T) {
	f := newFixture(t)
	f.link.err = errors.New("radio off")
	require.NoError(t, f.engine.Handle(input.Up))
	require.Error(t, f.engine.Handle(input.Right))
	require.Equal(t, ModeSub, f.engine.State().Mode)
}

func inkPixels(screen *sim.Framebuffer) int {
	img := screen.Snapshot()
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != fb.TextBackground {
				n++
			}
		}
	}
	return n
}

func TestFlashScreensVisibleOnFramebuffer(t *testing.T) {
	testCases := []struct {
		name    string
		failLED bool
		failOn  string
		presses []input.Button
		flash   string
	}{
		{"send", false, "", []input.Button{input.Right, input.Up, input.Right}, TextSendOK},
		{"send-failed", true, "", []input.Button{input.Right, input.Up, input.Right}, TextSendFailed},
		{"readings-failed", false, "Temperature",
			[]input.Button{input.Up, input.Up, input.Right}, TextConnectFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			screen := sim.NewFramebuffer(sim.ScreenWidth, sim.ScreenHeight)
			display := fb.New(screen)
			actuators := hwtest.NewActuators()
			if tc.failLED {
				actuators.Fail["led"] = errors.New("no led")
			}
			e := NewEngine(display, actuators, &fakeValues{failOn: tc.failOn})
			var shown []string
			var ink []int
			e.Sleep = func(time.Duration) {
				shown = append(shown, display.Current().Title())
				ink = append(ink, inkPixels(screen))
			}
			require.NoError(t, e.Start())
			for _, b := range tc.presses {
				require.NoError(t, e.Handle(b))
			}
			require.Equal(t, []string{tc.flash}, shown)
			require.Greater(t, ink[0], 0)
		})
	}
}
