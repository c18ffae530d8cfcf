package wire

import (
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/blocks.go/pkg/hw"
)

func TestHeartbeatLayout(t *testing.T) {
	h := &Heartbeat{
		Button:      3,
		Temperature: 24,
		Humidity:    40,
		GyroType:    TiltFront,
		GyroAngle:   44,
		Voice:       60,
		AccelType:   AxisZ,
		AccelValue:  79,
		Color:       ColorBlack,
		R:           1,
		G:           2,
		B:           3,
	}
	b := h.Bytes()
	require.Len(t, b, HeartbeatSize)
	require.Equal(t, []byte{0xF0, 3, 24, 40, 0, 1, 44, 60, 3, 79, 1, 1, 2, 3, 0, 0, 0, 0}, b[:18])
	require.Equal(t, Checksum(b[:18]), b[18])

	decoded, err := DecodeHeartbeat(b)
	require.NoError(t, err)
	require.Equal(t, h, decoded)

	b[5]++
	_, err = DecodeHeartbeat(b)
	require.Equal(t, ErrChecksum, err)
	_, err = DecodeHeartbeat(b[:10])
	require.IsType(t, &ShortFrameError{}, err)
}

func TestChecksumProperty(t *testing.T) {
	for seed := 0; seed < 256; seed++ {
		h := &Heartbeat{
			Button:      byte(seed % 7),
			Temperature: byte(seed),
			Humidity:    byte(255 - seed),
			GyroAngle:   byte(seed * 3),
			Voice:       byte(seed * 7),
			AccelValue:  byte(seed * 11),
			Color:       ColorCode(seed % 10),
			R:           byte(seed * 13),
			G:           byte(seed * 17),
			B:           byte(seed * 19),
		}
		b := h.Bytes()
		var sum int
		for _, v := range b[:HeartbeatSize-1] {
			sum += int(v)
		}
		require.Equal(t, byte(sum%256), b[HeartbeatSize-1])
	}
}

func TestClassifyColor(t *testing.T) {
	testCases := []struct {
		r, g, b int
		expect  ColorCode
	}{
		{10, 10, 10, ColorBlack},
		{0, 0, 0, ColorBlack},
		{220, 220, 220, ColorWhite},
		{150, 100, 150, ColorPurple},
		{40, 80, 120, ColorBlue},
		{20, 120, 90, ColorCyan},
		{60, 200, 60, ColorGreen},
		{200, 150, 20, ColorYellow},
		{200, 30, 30, ColorRed},
		{80, 80, 80, ColorOther},
		{300, 300, 300, ColorWhite},
		{200, 190, 150, ColorOther},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, ClassifyColor(tc.r, tc.g, tc.b), "%d,%d,%d", tc.r, tc.g, tc.b)
	}
}

func TestDeriveAccel(t *testing.T) {
	testCases := []struct {
		name  string
		accel [3]int
		axis  byte
		value byte
	}{
		{"resting z", [3]int{0, 0, 1000}, AxisZ, 190},
		{"saturated high", [3]int{5000, 0, 0}, AxisX, 255},
		{"saturated low", [3]int{0, -5000, 0}, AxisY, 0},
		{"tie goes to first", [3]int{0, 0, 0}, AxisX, 128},
		{"negative", [3]int{-1024, 512, 0}, AxisX, 64},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			axis, value := DeriveAccel(tc.accel)
			require.Equal(t, tc.axis, axis)
			require.Equal(t, tc.value, value)
		})
	}
}

func TestDeriveTilt(t *testing.T) {
	testCases := []struct {
		name  string
		v     [3]int
		dir   byte
		angle byte
	}{
		{"flat", [3]int{0, 0, 100}, TiltBack, 0},
		{"front", [3]int{100, 0, 173}, TiltFront, 30},
		{"back", [3]int{-100, 0, 173}, TiltBack, 30},
		{"right", [3]int{0, 100, 173}, TiltRight, 30},
		{"left", [3]int{10, -100, 10}, TiltLeft, 81},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir, angle := DeriveTilt(tc.v)
			require.Equal(t, tc.dir, dir)
			require.Equal(t, tc.angle, angle)
		})
	}
}

func TestNewHeartbeatClamps(t *testing.T) {
	h := NewHeartbeat(Telemetry{
		Button:  byte(2),
		Climate: hw.Climate{Temperature: -5, Humidity: 300},
		Color:   hw.RGB{R: 400, G: 0, B: 0},
		Motion:  hw.Motion{Accel: [3]int{0, 0, 1000}, Gyro: [3]int{0, 0, 100}},
	})
	require.EqualValues(t, 0, h.Temperature)
	require.EqualValues(t, 255, h.Humidity)
	require.EqualValues(t, 255, h.R)
	require.Equal(t, ColorRed, h.Color)
	require.Equal(t, AxisZ, h.AccelType)
}

func TestMatrixRoundTrip(t *testing.T) {
	check := func(v uint32) {
		m := MatrixFromBits(v)
		if decoded := DecodeMatrix(EncodeMatrix(m)); decoded != m {
			require.Equal(t, m, decoded, "pattern %07x", v)
		}
	}
	for v := uint32(0); v < 1<<20; v++ {
		check(v)
	}
	for v := uint32(1 << 20); v < 1<<25; v += 4099 {
		check(v)
	}
}

func TestMatrixLayout(t *testing.T) {
	m := DecodeMatrix([4]byte{0x80, 0x00, 0x00, 0x80})
	require.True(t, m[0][0])
	require.True(t, m[4][4])
	var count int
	for _, row := range m {
		for _, on := range row {
			if on {
				count++
			}
		}
	}
	require.Equal(t, 2, count)
	// the trailing 7 bits are ignored.
	require.Equal(t, hw.Matrix{}, DecodeMatrix([4]byte{0, 0, 0, 0x7f}))
}

func TestParse(t *testing.T) {
	text := append([]byte{OpShowText, 10, 20, 2}, []byte(" hello\x00\x00\x00\x00\x00\x00")...)
	text = append(text, 255, 0, 128)
	testCases := []struct {
		name   string
		frame  []byte
		expect Command
	}{
		{"set led", []byte{0xF1, 3, 1, 2, 3}, &SetLED{Port: 3, R: 1, G: 2, B: 3}},
		{"clear all leds", []byte{0xF2, 0xFF}, &ClearLED{Port: 0xFF}},
		{"text", text, &ShowText{X: 10, Y: 20, Size: 2, Text: "hello", Color: color.RGBA{R: 255, B: 128, A: 255}}},
		{"clear screen", []byte{0xF4}, &ClearScreen{}},
		{"matrix", []byte{0xF5, 5, 0x80, 0, 0, 0}, &SetMatrix{Port: 5, Pattern: hw.Matrix{{true}}}},
		{"matrix colors", []byte{0xF6, 1, 2, 3, 4, 5, 6}, &SetMatrixColors{
			Bright: color.RGBA{R: 1, G: 2, B: 3, A: 255},
			Dark:   color.RGBA{R: 4, G: 5, B: 6, A: 255},
		}},
		{"motor reverse", []byte{0xF7, 0x01, 0x32, 0x02}, &DriveMotor{Port: 1, Speed: 50, Direction: -1}},
		{"stop motor", []byte{0xF8, 0xFF}, &StopMotor{Port: 0xFF}},
		{"two motors", []byte{0xF9, 1, 30, 2, 40}, &DriveMotors{
			M1: MotorDrive{Speed: 30, Direction: 1},
			M2: MotorDrive{Speed: 40, Direction: -1},
		}},
		{"arm buzzer", []byte{0xFA, 0x3C, 0x01, 0xB8, 0xEF}, &ArmBuzzer{FreqScale: 0x3C, Wait: 1, Duty: 0xB8}},
		{"stop buzzer", []byte{0xFB}, &StopBuzzer{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := Parse(tc.frame)
			require.NoError(t, err)
			require.Equal(t, tc.expect, cmd)
			require.Equal(t, tc.frame[0], cmd.Opcode())
		})
	}
}

func TestParseMotorScenario(t *testing.T) {
	cmd, err := Parse([]byte{0xF7, 0x01, 0x32, 0x02})
	require.NoError(t, err)
	require.Equal(t, -50, cmd.(*DriveMotor).Signed())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(nil)
	require.Equal(t, ErrEmptyFrame, err)

	_, err = Parse([]byte{0xAA, 1})
	var unknown *UnknownOpcodeError
	require.ErrorAs(t, err, &unknown)
	require.EqualValues(t, 0xAA, unknown.Opcode)

	_, err = Parse([]byte{0xF3, 1, 2})
	var short *ShortFrameError
	require.ErrorAs(t, err, &short)
	require.Equal(t, ShortFrameError{Opcode: 0xF3, Want: 19, Got: 3}, *short)
}

func TestCommandBytes(t *testing.T) {
	cmds := []Command{
		&SetLED{Port: 1, R: 2, G: 3, B: 4},
		&ClearLED{Port: 2},
		&ShowText{X: 1, Y: 2, Size: 3, Text: "hi", Color: color.RGBA{R: 9, A: 255}},
		&ClearScreen{},
		&SetMatrix{Port: MatrixPort, Pattern: MatrixFromBits(0x1F00001)},
		&SetMatrixColors{Bright: color.RGBA{R: 1, A: 255}, Dark: color.RGBA{B: 1, A: 255}},
		&DriveMotor{Port: 2, Speed: 70, Direction: -1},
		&StopMotor{Port: 1},
		&DriveMotors{M1: MotorDrive{Speed: 1, Direction: 1}, M2: MotorDrive{Speed: 2, Direction: -1}},
		&ArmBuzzer{FreqScale: 88, Wait: 5, Duty: 200},
		&StopBuzzer{},
	}
	for _, cmd := range cmds {
		b := cmd.Bytes()
		require.Len(t, b, frameSizes[cmd.Opcode()])
		parsed, err := Parse(b)
		require.NoError(t, err)
		require.Equal(t, cmd, parsed)
	}
}

func TestArmBuzzerUnits(t *testing.T) {
	c := &ArmBuzzer{FreqScale: 0x3C, Wait: 3}
	require.Equal(t, 1800, c.Frequency())
	require.Equal(t, "300ms", c.WaitDuration().String())
}

func TestQueue(t *testing.T) {
	var q Queue
	require.Nil(t, q.Pop())
	frame := []byte{0xF4}
	q.Push(frame)
	q.Push(nil)
	q.Push([]byte{0xAA})
	frame[0] = 0
	require.Equal(t, 2, q.Len())
	require.Equal(t, []byte{0xF4}, q.Pop())
	require.Equal(t, []byte{0xAA}, q.Pop())
	require.Nil(t, q.Pop())
	require.Zero(t, q.Len())
}

func TestQueueConcurrentOrder(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			q.Push([]byte{byte(i >> 8), byte(i)})
		}
	}()
	next := 0
	for next < 1000 {
		if f := q.Pop(); f != nil {
			require.Equal(t, next, int(f[0])<<8|int(f[1]))
			next++
		}
	}
	wg.Wait()
}

func TestHeartbeatString(t *testing.T) {
	hb := &Heartbeat{Button: 2, Temperature: 21, Humidity: 40, Color: ColorRed, R: 200}
	require.Equal(t,
		"button=2 temp=21C hum=40% light=0 tilt=0/0 voice=0 accel=0/0 color=red rgb=200,0,0",
		hb.String())
}
