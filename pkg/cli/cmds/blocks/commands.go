// Package blocks adds the device commands to the shell.
package blocks

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/blocks.go/pkg/cli/sh"
	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// Builder turns shell arguments into a command frame.
type Builder func(args []string) (wire.Command, error)

type frameCmd struct {
	name    string
	aliases []string
	help    string
	build   Builder
}

var frameCmds = []frameCmd{
	{"led", nil, "PORT|all R G B", buildSetLED},
	{"led.off", []string{"ledoff"}, "PORT|all", buildClearLED},
	{"text", nil, "TEXT [RRGGBB [X Y SIZE]]", buildShowText},
	{"cls", nil, "", func([]string) (wire.Command, error) { return &wire.ClearScreen{}, nil }},
	{"matrix", []string{"mx"}, "ROW1 .. ROW5, 5 of 0/1 each", buildSetMatrix},
	{"matrix.colors", []string{"mxc"}, "BRIGHT DARK as RRGGBB", buildSetMatrixColors},
	{"motor", []string{"m"}, "PORT|all SPEED(-100..100)", buildDriveMotor},
	{"motor.stop", []string{"ms"}, "PORT|all", buildStopMotor},
	{"motors", nil, "SPEED1 SPEED2", buildDriveMotors},
	{"buzz", nil, "FREQ(Hz) WAIT(0.1s) DUTY", buildArmBuzzer},
	{"buzz.stop", nil, "", func([]string) (wire.Command, error) { return &wire.StopBuzzer{}, nil }},
}

// Build builds the frame of a named command.
func Build(name string, args ...string) (wire.Command, error) {
	for _, fc := range frameCmds {
		if fc.name == name {
			return fc.build(args)
		}
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

func needArgs(args []string, n int, names string) error {
	if len(args) < n {
		return fmt.Errorf("%s required", names)
	}
	return nil
}

func parseByte(s, what string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %v", what, err)
	}
	return byte(v), nil
}

func parsePort(s string) (byte, error) {
	if strings.EqualFold(s, "all") {
		return hw.AllPorts, nil
	}
	return parseByte(s, "PORT")
}

func parseColor(s string) (color.RGBA, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(b) != 3 {
		return color.RGBA{}, fmt.Errorf("Invalid color %q, expect RRGGBB", s)
	}
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xff}, nil
}

func parseDrive(s string) (wire.MotorDrive, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < -100 || v > 100 {
		return wire.MotorDrive{}, fmt.Errorf("Invalid SPEED %q, expect -100..100", s)
	}
	switch {
	case v < 0:
		return wire.MotorDrive{Speed: byte(-v), Direction: -1}, nil
	case v > 0:
		return wire.MotorDrive{Speed: byte(v), Direction: 1}, nil
	}
	return wire.MotorDrive{}, nil
}

func buildSetLED(args []string) (wire.Command, error) {
	if err := needArgs(args, 4, "PORT R G B"); err != nil {
		return nil, err
	}
	var cmd wire.SetLED
	var err error
	if cmd.Port, err = parsePort(args[0]); err != nil {
		return nil, err
	}
	for i, p := range []*byte{&cmd.R, &cmd.G, &cmd.B} {
		if *p, err = parseByte(args[i+1], "RGB"[i:i+1]); err != nil {
			return nil, err
		}
	}
	return &cmd, nil
}

func buildClearLED(args []string) (wire.Command, error) {
	if err := needArgs(args, 1, "PORT"); err != nil {
		return nil, err
	}
	port, err := parsePort(args[0])
	if err != nil {
		return nil, err
	}
	return &wire.ClearLED{Port: port}, nil
}

func buildShowText(args []string) (wire.Command, error) {
	if err := needArgs(args, 1, "TEXT"); err != nil {
		return nil, err
	}
	cmd := &wire.ShowText{Text: args[0], X: 10, Y: 10, Size: 1, Color: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}}
	if len(cmd.Text) > wire.TextSize {
		return nil, fmt.Errorf("TEXT longer than %d", wire.TextSize)
	}
	var err error
	if len(args) > 1 {
		if cmd.Color, err = parseColor(args[1]); err != nil {
			return nil, err
		}
	}
	if len(args) > 2 {
		if err := needArgs(args, 5, "X Y SIZE"); err != nil {
			return nil, err
		}
		for i, p := range []*byte{&cmd.X, &cmd.Y, &cmd.Size} {
			if *p, err = parseByte(args[i+2], []string{"X", "Y", "SIZE"}[i]); err != nil {
				return nil, err
			}
		}
	}
	return cmd, nil
}

func buildSetMatrix(args []string) (wire.Command, error) {
	if err := needArgs(args, hw.MatrixSize, "ROW1 .. ROW5"); err != nil {
		return nil, err
	}
	cmd := &wire.SetMatrix{Port: wire.MatrixPort}
	for r, row := range args[:hw.MatrixSize] {
		if len(row) != hw.MatrixSize || strings.Trim(row, "01") != "" {
			return nil, fmt.Errorf("Invalid ROW%d %q", r+1, row)
		}
		for c := range row {
			cmd.Pattern[r][c] = row[c] == '1'
		}
	}
	return cmd, nil
}

func buildSetMatrixColors(args []string) (wire.Command, error) {
	if err := needArgs(args, 2, "BRIGHT DARK"); err != nil {
		return nil, err
	}
	var cmd wire.SetMatrixColors
	var err error
	if cmd.Bright, err = parseColor(args[0]); err != nil {
		return nil, err
	}
	if cmd.Dark, err = parseColor(args[1]); err != nil {
		return nil, err
	}
	return &cmd, nil
}

func buildDriveMotor(args []string) (wire.Command, error) {
	if err := needArgs(args, 2, "PORT SPEED"); err != nil {
		return nil, err
	}
	port, err := parsePort(args[0])
	if err != nil {
		return nil, err
	}
	drive, err := parseDrive(args[1])
	if err != nil {
		return nil, err
	}
	return &wire.DriveMotor{Port: port, Speed: drive.Speed, Direction: drive.Direction}, nil
}

func buildStopMotor(args []string) (wire.Command, error) {
	if err := needArgs(args, 1, "PORT"); err != nil {
		return nil, err
	}
	port, err := parsePort(args[0])
	if err != nil {
		return nil, err
	}
	return &wire.StopMotor{Port: port}, nil
}

func buildDriveMotors(args []string) (wire.Command, error) {
	if err := needArgs(args, 2, "SPEED1 SPEED2"); err != nil {
		return nil, err
	}
	var cmd wire.DriveMotors
	var err error
	if cmd.M1, err = parseDrive(args[0]); err != nil {
		return nil, err
	}
	if cmd.M2, err = parseDrive(args[1]); err != nil {
		return nil, err
	}
	return &cmd, nil
}

func buildArmBuzzer(args []string) (wire.Command, error) {
	if err := needArgs(args, 3, "FREQ WAIT DUTY"); err != nil {
		return nil, err
	}
	freq, err := strconv.Atoi(args[0])
	if err != nil || freq < 0 || freq > 255*30 {
		return nil, fmt.Errorf("Invalid FREQ %q, expect 0..%d", args[0], 255*30)
	}
	cmd := &wire.ArmBuzzer{FreqScale: byte(freq / 30)}
	if cmd.Wait, err = parseByte(args[1], "WAIT"); err != nil {
		return nil, err
	}
	if cmd.Duty, err = parseByte(args[2], "DUTY"); err != nil {
		return nil, err
	}
	return cmd, nil
}

// ParseRaw parses hex bytes, separated or not.
func ParseRaw(args []string) ([]byte, error) {
	frame, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		return nil, fmt.Errorf("Invalid frame: %v", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("FRAME required")
	}
	return frame, nil
}

func frameCmdFunc(build Builder) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		cmd, err := build(c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		sh.DoCommand(c, cmd)
	})
}

var (
	// RawCmd sends a frame given in hex.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "HEX..",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			frame, err := ParseRaw(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoRaw(c, frame)
		}),
	}

	// StatusCmd prints the latest heartbeat.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			hb, at := s.Conn.Last()
			if hb == nil {
				var err error
				if hb, err = s.WaitHeartbeat(); err != nil {
					c.Err(err)
					return
				}
				at = time.Now()
			}
			sh.Print(c, hb, fmt.Sprintf("%s (%s ago)", hb.String(), time.Since(at).Round(time.Millisecond)))
		}),
	}

	// WatchCmd prints the next heartbeats.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count := 10
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT %q", c.Args[0]))
					return
				}
				count = n
			}
			s := sh.ShellFrom(c)
			for i := 0; i < count; i++ {
				hb, err := s.WaitHeartbeat()
				if err != nil {
					c.Err(err)
					return
				}
				sh.Print(c, hb, hb.String())
			}
		}),
	}
)

func init() {
	for _, fc := range frameCmds {
		sh.AddCmds(&ishell.Cmd{
			Name:    fc.name,
			Aliases: fc.aliases,
			Help:    fc.help,
			Func:    frameCmdFunc(fc.build),
		})
	}
	sh.AddCmds(&RawCmd, &StatusCmd, &WatchCmd)
}
