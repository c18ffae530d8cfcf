// Package config loads the device configuration.
//
// Values are layered: built-in defaults, an optional TOML or YAML file,
// BLOCKS_* environment variables and finally command line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/blocks.go/pkg/core"
	"github.com/robotalks/blocks.go/pkg/env"
)

// Transport kinds.
const (
	TransportNone      = "none"
	TransportMQTT      = "mqtt"
	TransportWebsocket = "websocket"
	TransportSerial    = "serial"
	TransportTCP       = "tcp"
	TransportBLE       = "ble"
)

var transports = []string{TransportNone, TransportMQTT, TransportWebsocket, TransportSerial, TransportTCP, TransportBLE}

// EnvPrefix starts all environment variables read by Load.
const EnvPrefix = "BLOCKS_"

// Config is the device configuration.
type Config struct {
	Name       string `toml:"name" yaml:"name"`
	Transport  string `toml:"transport" yaml:"transport"`
	MQTTURL    string `toml:"mqtt_url" yaml:"mqtt_url"`
	ListenAddr string `toml:"listen_addr" yaml:"listen_addr"`
	SerialPort string `toml:"serial_port" yaml:"serial_port"`
	SerialBaud int    `toml:"serial_baud" yaml:"serial_baud"`
	TCPAddr    string `toml:"tcp_addr" yaml:"tcp_addr"`

	InputInterval     time.Duration `toml:"input_interval" yaml:"input_interval"`
	BuzzerInterval    time.Duration `toml:"buzzer_interval" yaml:"buzzer_interval"`
	TelemetryInterval time.Duration `toml:"telemetry_interval" yaml:"telemetry_interval"`
	DispatchIdle      time.Duration `toml:"dispatch_idle" yaml:"dispatch_idle"`
	RefreshInterval   time.Duration `toml:"refresh_interval" yaml:"refresh_interval"`
	FlashDuration     time.Duration `toml:"flash_duration" yaml:"flash_duration"`
	SettleDelay       time.Duration `toml:"settle_delay" yaml:"settle_delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := core.DefaultOptions()
	return &Config{
		Name:              env.DefaultName(),
		Transport:         TransportNone,
		MQTTURL:           "mqtt://localhost:1883/blocks/",
		ListenAddr:        ":8080",
		SerialBaud:        115200,
		TCPAddr:           "localhost:7000",
		InputInterval:     opts.InputInterval,
		BuzzerInterval:    opts.BuzzerInterval,
		TelemetryInterval: opts.TelemetryInterval,
		DispatchIdle:      opts.DispatchIdle,
		RefreshInterval:   opts.RefreshInterval,
		FlashDuration:     opts.Flash,
		SettleDelay:       opts.Settle,
	}
}

// SetupFlags binds command line flags to c.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Name, "name", c.Name, "Advertised device name")
	fs.StringVar(&c.Transport, "transport", c.Transport, "Companion transport: "+strings.Join(transports, "|"))
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL, path is the topic prefix")
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "Websocket listen address")
	fs.StringVar(&c.SerialPort, "serial", c.SerialPort, "Serial port")
	fs.IntVar(&c.SerialBaud, "baud", c.SerialBaud, "Serial baud rate")
	fs.StringVar(&c.TCPAddr, "tcp", c.TCPAddr, "TCP listen address")
	fs.DurationVar(&c.InputInterval, "input-interval", c.InputInterval, "Button sampling interval")
	fs.DurationVar(&c.BuzzerInterval, "buzzer-interval", c.BuzzerInterval, "Buzzer playback interval")
	fs.DurationVar(&c.TelemetryInterval, "telemetry-interval", c.TelemetryInterval, "Heartbeat interval")
	fs.DurationVar(&c.DispatchIdle, "dispatch-idle", c.DispatchIdle, "Command dispatch idle wait")
	fs.DurationVar(&c.RefreshInterval, "refresh-interval", c.RefreshInterval, "Sensor screen refresh interval")
	fs.DurationVar(&c.FlashDuration, "flash", c.FlashDuration, "Transient screen duration")
	fs.DurationVar(&c.SettleDelay, "settle", c.SettleDelay, "Button ADC settle delay")
}

// LoadFile merges a .toml, .yaml or .yml file into c.
func (c *Config) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, c)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		if keys := meta.Undecoded(); len(keys) > 0 {
			return fmt.Errorf("config %s: unknown keys %v", path, keys)
		}
		if meta.IsDefined("transport") {
			glog.V(2).Infof("config %s: transport %s", path, c.Transport)
		}
		return nil
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("config %s: unsupported format", path)
}

// LookupFunc looks up an environment variable.
type LookupFunc func(string) (string, bool)

// ApplyEnv overrides c from BLOCKS_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"NAME":        &c.Name,
		"TRANSPORT":   &c.Transport,
		"MQTT_URL":    &c.MQTTURL,
		"LISTEN_ADDR": &c.ListenAddr,
		"SERIAL_PORT": &c.SerialPort,
		"TCP_ADDR":    &c.TCPAddr,
	}
	for key, p := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*p = v
		}
	}
	if v, ok := lookup(EnvPrefix + "SERIAL_BAUD"); ok {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSERIAL_BAUD: %w", EnvPrefix, err)
		}
		c.SerialBaud = baud
	}
	durations := map[string]*time.Duration{
		"INPUT_INTERVAL":     &c.InputInterval,
		"BUZZER_INTERVAL":    &c.BuzzerInterval,
		"TELEMETRY_INTERVAL": &c.TelemetryInterval,
		"DISPATCH_IDLE":      &c.DispatchIdle,
		"REFRESH_INTERVAL":   &c.RefreshInterval,
		"FLASH_DURATION":     &c.FlashDuration,
		"SETTLE_DELAY":       &c.SettleDelay,
	}
	for key, p := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*p = d
		}
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: empty name")
	}
	known := false
	for _, t := range transports {
		known = known || t == c.Transport
	}
	if !known {
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	if c.Transport == TransportSerial && c.SerialPort == "" {
		return fmt.Errorf("config: serial transport needs a port")
	}
	intervals := map[string]time.Duration{
		"input_interval":     c.InputInterval,
		"buzzer_interval":    c.BuzzerInterval,
		"telemetry_interval": c.TelemetryInterval,
		"dispatch_idle":      c.DispatchIdle,
		"refresh_interval":   c.RefreshInterval,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", name, d)
		}
	}
	if c.FlashDuration < 0 || c.SettleDelay < 0 {
		return fmt.Errorf("config: negative delay")
	}
	return nil
}

// DeviceOptions converts the configuration for core.NewDevice.
func (c *Config) DeviceOptions() core.Options {
	return core.Options{
		Name:              c.Name,
		InputInterval:     c.InputInterval,
		BuzzerInterval:    c.BuzzerInterval,
		TelemetryInterval: c.TelemetryInterval,
		DispatchIdle:      c.DispatchIdle,
		RefreshInterval:   c.RefreshInterval,
		Flash:             c.FlashDuration,
		Settle:            c.SettleDelay,
	}
}

// Load builds the configuration from all sources. The file comes from
// the -config flag or BLOCKS_CONFIG. Flags explicitly given on the command
// line win over everything else.
func Load(fs *flag.FlagSet, args []string, lookup LookupFunc) (*Config, error) {
	c := Default()
	defaults := *c
	file, _ := lookup(EnvPrefix + "CONFIG")
	fs.StringVar(&file, "config", file, "Configuration file (.toml, .yaml)")
	c.SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	given := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			given[f.Name] = f.Value.String()
		}
	})

	*c = defaults
	if file != "" {
		if err := c.LoadFile(file); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	for name, value := range given {
		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
