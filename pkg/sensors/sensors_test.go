package sensors

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/hw/hwtest"
	"github.com/robotalks/blocks.go/pkg/hw/sim"
)

func newCache() (*Cache, *sim.Sensors, *hwtest.Display) {
	s := sim.NewSensors()
	d := hwtest.NewDisplay()
	c := NewCache(s, d)
	c.Sleep = func(time.Duration) {}
	return c, s, d
}

func TestValueFormatting(t *testing.T) {
	c, s, _ := newCache()
	s.SetMotion(hw.Motion{Accel: [3]int{1, 2, 3}, Gyro: [3]int{4, 5, 6}, Mag: [3]int{-7, 8, 9}})
	s.SetColor(hw.RGB{R: 10, G: 20, B: 30})
	s.SetClimate(hw.Climate{Temperature: 21.3, Humidity: 55})

	testCases := []struct {
		label  string
		expect string
	}{
		{LabelAccel, "(1, 2, 3)"},
		{LabelGyro, "(4, 5, 6)"},
		{LabelMag, "(-7, 8, 9)"},
		{LabelColorRed, "10"},
		{LabelColorGreen, "20"},
		{LabelColorBlue, "30"},
		{LabelTemperature, "21.3"},
		{LabelHumidity, "55.0"},
		{"Unknown", "0"},
	}
	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			require.Equal(t, tc.expect, c.Value(tc.label))
		})
	}
	require.False(t, c.Failed())
	require.Equal(t, "Temperature: 21.3", FormatRow(LabelTemperature, c.Value(LabelTemperature)))
}

func TestFailureFlag(t *testing.T) {
	c, s, _ := newCache()
	s.SetFailing(true)
	require.Equal(t, "0", c.Value(LabelHumidity))
	require.True(t, c.Failed())
	s.SetFailing(false)
	c.Value(LabelHumidity)
	require.True(t, c.Failed())
	c.ClearFailure()
	require.False(t, c.Failed())
}

func TestCalibrationGateRunsOnce(t *testing.T) {
	c, s, d := newCache()
	var slept []time.Duration
	c.Sleep = func(dur time.Duration) { slept = append(slept, dur) }

	c.Value(LabelColorRed)
	c.Value(LabelColorGreen)
	require.True(t, c.TryCalibrate())
	require.Equal(t, 1, s.Calibrations())
	require.Equal(t, []string{TextCalibrating, TextCalibrationOK}, d.Titles())
	require.Equal(t, []time.Duration{DefaultFlash}, slept)
}

func TestCalibrationFailureRetries(t *testing.T) {
	c, s, d := newCache()
	s.SetFailing(true)
	require.False(t, c.EnsureCalibrated())
	require.Equal(t, []string{TextCalibrating, TextCalibrationFailed}, d.Titles())
	s.SetFailing(false)
	require.True(t, c.TryCalibrate())
	require.True(t, c.EnsureCalibrated())
	require.Equal(t, 2, s.Calibrations())
}

func TestTryCalibrateDoesNotBlock(t *testing.T) {
	c, s, d := newCache()
	s.CalibrationDelay = 100 * time.Millisecond
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.EnsureCalibrated()
	}()
	require.Eventually(t, func() bool { return len(d.Titles()) > 0 }, time.Second, time.Millisecond)
	start := time.Now()
	require.False(t, c.TryCalibrate())
	require.Less(t, time.Since(start), 50*time.Millisecond)
	wg.Wait()
	require.True(t, c.Calibrated())
	require.Equal(t, 1, s.Calibrations())
}

func TestRefresher(t *testing.T) {
	c, s, d := newCache()
	s.SetClimate(hw.Climate{Temperature: 20, Humidity: 30})
	list := d.ListScreen("Temperature and humidity Settings", []string{"Temperature: 0", "Humidity: 0"})
	r := NewRefresher(c, 5*time.Millisecond)
	r.Start(list, []string{LabelTemperature, LabelHumidity})
	require.Eventually(t, func() bool {
		rows := list.(*hwtest.List).Rows()
		return rows[0] == "Temperature: 20.0" && rows[1] == "Humidity: 30.0"
	}, time.Second, time.Millisecond)
	require.True(t, r.Running())
	r.Stop()
	require.False(t, r.Running())
	r.Stop()
}

func TestRefresherStopsOnFailure(t *testing.T) {
	c, s, d := newCache()
	list := d.ListScreen("Nine axis sensor Settings", []string{"a", "b", "c"})
	r := NewRefresher(c, time.Millisecond)
	r.Start(list, []string{LabelAccel, LabelGyro, LabelMag})
	s.SetFailing(true)
	require.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond)
	require.True(t, c.Failed())
	r.Stop()
}

type uncalibrated struct {
	*sim.Sensors
}

func (uncalibrated) CalibrateColor() (bool, error) { return false, nil }

func TestRefresherKeepsListWhileUncalibrated(t *testing.T) {
	s := sim.NewSensors()
	s.SetColor(hw.RGB{R: 1, G: 2, B: 3})
	d := hwtest.NewDisplay()
	c := NewCache(uncalibrated{s}, d)
	c.Sleep = func(time.Duration) {}
	list := d.ListScreen("Color sensor Settings", []string{"a", "b", "c"})
	require.NoError(t, d.LoadScreen(list))

	r := NewRefresher(c, time.Millisecond)
	r.Start(list, []string{LabelColorRed, LabelColorGreen, LabelColorBlue})
	require.Eventually(t, func() bool {
		return list.(*hwtest.List).Rows()[2] == "Color_sensor_blue: 3"
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	require.True(t, r.Running())
	r.Stop()
	require.False(t, c.Calibrated())
	require.Equal(t, []string{"Color sensor Settings"}, d.Titles())
}
