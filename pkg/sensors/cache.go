package sensors

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Labels of the read-only sensor values.
const (
	LabelAccel       = "Accelerometer"
	LabelGyro        = "Gyroscope"
	LabelMag         = "Magnetic"
	LabelColorRed    = "Color_sensor_red"
	LabelColorGreen  = "Color_sensor_green"
	LabelColorBlue   = "Color_sensor_blue"
	LabelTemperature = "Temperature"
	LabelHumidity    = "Humidity"
)

// Screens shown around the white balance calibration.
const (
	TextCalibrating       = "In white balance calibration..."
	TextCalibrationOK     = "calibration success !"
	TextCalibrationFailed = "calibration Failed !"
)

// DefaultFlash is how long transient screens stay up.
const DefaultFlash = time.Second

// FormatRow renders a label and its value as one screen row.
func FormatRow(label, value string) string {
	return label + ": " + value
}

// Cache answers display values for sensor labels. A failed read sets a
// shared failure flag which stays set until ClearFailure.
//
// The color sensor needs a one-time white balance calibration. The gate
// is shared by Value, which runs it in the foreground with screens, and
// TryCalibrate, which the heartbeat uses without blocking.
type Cache struct {
	Sensors hw.Sensors
	Display hw.Display
	Flash   time.Duration
	Sleep   hw.Sleeper

	calLock    sync.Mutex
	calibrated int32
	failed     int32
}

// NewCache creates a Cache.
func NewCache(sensors hw.Sensors, display hw.Display) *Cache {
	return &Cache{Sensors: sensors, Display: display, Flash: DefaultFlash}
}

// Failed reports whether a read failed since the last ClearFailure.
func (c *Cache) Failed() bool {
	return atomic.LoadInt32(&c.failed) != 0
}

// ClearFailure resets the failure flag.
func (c *Cache) ClearFailure() {
	atomic.StoreInt32(&c.failed, 0)
}

// Calibrated reports whether the color sensor has been calibrated.
func (c *Cache) Calibrated() bool {
	return atomic.LoadInt32(&c.calibrated) != 0
}

func (c *Cache) fail(label string, err error) string {
	glog.Warningf("sensors: read %s failed: %v", label, err)
	atomic.StoreInt32(&c.failed, 1)
	return "0"
}

// Value reads the sensor behind label and formats it for display. The
// first color read runs the calibration with its progress screens.
func (c *Cache) Value(label string) string {
	return c.read(label, c.EnsureCalibrated)
}

// Sample is Value without screens: calibration is only attempted when
// nobody else is running it.
func (c *Cache) Sample(label string) string {
	return c.read(label, c.TryCalibrate)
}

func (c *Cache) read(label string, calibrate func() bool) string {
	switch label {
	case LabelAccel, LabelGyro, LabelMag:
		m, err := c.Sensors.ReadMotion()
		if err != nil {
			return c.fail(label, err)
		}
		v := m.Accel
		if label == LabelGyro {
			v = m.Gyro
		} else if label == LabelMag {
			v = m.Mag
		}
		return fmt.Sprintf("(%d, %d, %d)", v[0], v[1], v[2])
	case LabelColorRed, LabelColorGreen, LabelColorBlue:
		calibrate()
		rgb, err := c.Sensors.ReadColor()
		if err != nil {
			return c.fail(label, err)
		}
		v := rgb.R
		if label == LabelColorGreen {
			v = rgb.G
		} else if label == LabelColorBlue {
			v = rgb.B
		}
		return fmt.Sprintf("%d", v)
	case LabelTemperature, LabelHumidity:
		cl, err := c.Sensors.ReadClimate()
		if err != nil {
			return c.fail(label, err)
		}
		v := cl.Temperature
		if label == LabelHumidity {
			v = cl.Humidity
		}
		return fmt.Sprintf("%.1f", v)
	}
	glog.Warningf("sensors: unknown label %q", label)
	return "0"
}

// EnsureCalibrated runs the calibration once, showing progress screens.
// It blocks while another caller is calibrating.
func (c *Cache) EnsureCalibrated() bool {
	if c.Calibrated() {
		return true
	}
	c.calLock.Lock()
	defer c.calLock.Unlock()
	if c.Calibrated() {
		return true
	}
	c.show(TextCalibrating)
	ok := c.calibrate()
	if ok {
		c.show(TextCalibrationOK)
	} else {
		c.show(TextCalibrationFailed)
	}
	c.sleep(c.Flash)
	return ok
}

// TryCalibrate calibrates unless done already or in progress elsewhere.
func (c *Cache) TryCalibrate() bool {
	if c.Calibrated() {
		return true
	}
	if !c.calLock.TryLock() {
		return false
	}
	defer c.calLock.Unlock()
	if c.Calibrated() {
		return true
	}
	return c.calibrate()
}

func (c *Cache) calibrate() bool {
	ok, err := c.Sensors.CalibrateColor()
	if err != nil {
		glog.Errorf("sensors: white balance calibration: %v", err)
		return false
	}
	if ok {
		atomic.StoreInt32(&c.calibrated, 1)
		glog.Info("sensors: white balance calibrated")
	}
	return ok
}

var textColor = color.RGBA{A: 0xff}

func (c *Cache) show(text string) {
	if c.Display == nil {
		return
	}
	if err := c.Display.LoadScreen(c.Display.TextScreen(text, -1, -1, 1, textColor)); err != nil {
		glog.Errorf("sensors: show %q: %v", text, err)
	}
}

func (c *Cache) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
	} else {
		time.Sleep(d)
	}
}
