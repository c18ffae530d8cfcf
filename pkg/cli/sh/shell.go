package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"go.bug.st/serial"

	"github.com/robotalks/blocks.go/pkg/transport"
	"github.com/robotalks/blocks.go/pkg/transport/mqtt"
	"github.com/robotalks/blocks.go/pkg/transport/stream"
	"github.com/robotalks/blocks.go/pkg/transport/websocket"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Broker is the MQTT broker URL for discovery and mqtt connections.
	Broker string
	// Baud is the rate of serial connections.
	Baud int
	// Timeout bounds waits for heartbeats.
	Timeout time.Duration

	Shell   *ishell.Shell
	Dialers map[string]DialFunc
	Conn    *Conn
}

// DialFunc opens a frame connection to target.
type DialFunc func(s *Shell, target string) (transport.FrameReadWriter, error)

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	connectTo  string
	brokerURL  = "mqtt://localhost:1883/blocks/"
	baudRate   = 115200

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&DevicesCmd,
		&PortsCmd,
	}

	dialers = map[string]DialFunc{
		"tcp":    dialTCP,
		"ws":     dialWebsocket,
		"serial": dialSerial,
		"mqtt":   dialMQTT,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&connectTo, "connect", connectTo, "Connect on start, KIND:TARGET.")
	flag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL, path is the topic prefix.")
	flag.IntVar(&baudRate, "baud", baudRate, "Serial baud rate.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Broker:      brokerURL,
		Baud:        baudRate,
		Timeout:     5 * time.Second,

		Shell:   ishell.New(),
		Dialers: make(map[string]DialFunc),
	}
	for kind, fn := range dialers {
		s.Dialers[kind] = fn
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// DoCommand sends a command frame to the connected device.
func DoCommand(c *ishell.Context, cmd wire.Command) error {
	return DoRaw(c, cmd.Bytes())
}

// DoRaw sends a frame as is.
func DoRaw(c *ishell.Context, frame []byte) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	if err := s.Conn.Send(frame); err != nil {
		c.Err(err)
		return err
	}
	if s.OutputJSON {
		c.Println(`{"ok":true}`)
		return nil
	}
	c.Printf("OK %s\n", wire.Describe(frame))
	return nil
}

// Print prints v as JSON or in the plain form.
func Print(c *ishell.Context, v interface{}, plain string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(plain)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Kinds lists the connection kinds.
func (s *Shell) Kinds() []string {
	kinds := make([]string, 0, len(s.Dialers))
	for kind := range s.Dialers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Connect opens a connection and replaces the current one.
func (s *Shell) Connect(kind, target string) error {
	dial, ok := s.Dialers[kind]
	if !ok {
		return fmt.Errorf("unknown connection kind %q, expect one of %s", kind, strings.Join(s.Kinds(), ", "))
	}
	rw, err := dial(s, target)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = NewConn(kind, target, rw)
	s.Shell.SetPrompt(fmt.Sprintf("%s:%s > ", kind, target))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Devices discovers devices on the broker.
func (s *Shell) Devices(wait time.Duration) ([]mqtt.Meta, error) {
	q, err := mqtt.NewQueueFromURL(s.Broker)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()
	return mqtt.DiscoverFor(q, wait), nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if connectTo != "" {
		kind, target, _ := strings.Cut(connectTo, ":")
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", connectTo)
		}
		if err := s.Connect(kind, target); err != nil {
			log.Fatalf("connect %q failed: %v", connectTo, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func dialTCP(_ *Shell, target string) (transport.FrameReadWriter, error) {
	conn, err := net.Dial("tcp", target)
	if err != nil {
		return nil, err
	}
	return stream.New(conn), nil
}

func dialWebsocket(_ *Shell, target string) (transport.FrameReadWriter, error) {
	if !strings.Contains(target, "://") {
		target = "ws://" + target + websocket.Path
	}
	return websocket.Dial(target)
}

func dialSerial(s *Shell, target string) (transport.FrameReadWriter, error) {
	port, err := serial.Open(target, &serial.Mode{BaudRate: s.Baud})
	if err != nil {
		return nil, err
	}
	return stream.New(port), nil
}

func dialMQTT(s *Shell, target string) (transport.FrameReadWriter, error) {
	return mqtt.Dial(s.Broker, target)
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "KIND TARGET, KIND is tcp, ws, serial or mqtt",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var kind, target string
			switch len(c.Args) {
			case 0:
				c.Err(fmt.Errorf("KIND required"))
				return
			case 1:
				if c.Args[0] != "mqtt" || !s.Interactive {
					c.Err(fmt.Errorf("TARGET required"))
					return
				}
				devices, err := s.Devices(2 * time.Second)
				if err != nil {
					c.Err(err)
					return
				}
				if len(devices) == 0 {
					c.Err(fmt.Errorf("no device discovered"))
					return
				}
				names := make([]string, len(devices))
				for n, dev := range devices {
					names[n] = dev.Name
				}
				index := 0
				if len(names) > 1 {
					index = s.Shell.MultiChoice(names, "Which one to connect?")
				}
				kind, target = "mqtt", names[index]
			default:
				kind, target = c.Args[0], c.Args[1]
			}
			if err := s.Connect(kind, target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// DevicesCmd lists devices announced on the broker.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"list", "l"},
		Help:    "[WAIT]",
		Func: func(c *ishell.Context) {
			wait := 2 * time.Second
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid WAIT: %v", err))
					return
				}
				wait = d
			}
			devices, err := ShellFrom(c).Devices(wait)
			if err != nil {
				c.Err(err)
				return
			}
			if devices == nil {
				devices = []mqtt.Meta{}
			}
			var plain []string
			for _, dev := range devices {
				line := dev.Name
				if !dev.Advertising {
					line += " (busy)"
				}
				plain = append(plain, line)
			}
			if len(plain) == 0 {
				plain = append(plain, "No devices found")
			}
			Print(c, devices, strings.Join(plain, "\n"))
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := stream.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			Print(c, ports, strings.Join(ports, "\n"))
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}

// WaitHeartbeat waits for the next heartbeat of the current connection.
func (s *Shell) WaitHeartbeat() (*wire.Heartbeat, error) {
	if s.Conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return s.Conn.Next(ctx)
}
