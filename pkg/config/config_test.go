package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	opts := c.DeviceOptions()
	require.Equal(t, 50*time.Millisecond, opts.InputInterval)
	require.Equal(t, 500*time.Millisecond, opts.BuzzerInterval)
	require.Equal(t, time.Second, opts.TelemetryInterval)
	require.Equal(t, 100*time.Millisecond, opts.DispatchIdle)
	require.Equal(t, c.Name, opts.Name)
}

func TestLoadFileFormats(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "blocks.toml", "name = \"desk\"\ntransport = \"tcp\"\ntcp_addr = \":9000\"\ntelemetry_interval = \"2s\"\n"},
		{"yaml", "blocks.yaml", "name: desk\ntransport: tcp\ntcp_addr: \":9000\"\ntelemetry_interval: 2s\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.LoadFile(writeFile(t, c.file, c.content)))
			require.Equal(t, "desk", cfg.Name)
			require.Equal(t, TransportTCP, cfg.Transport)
			require.Equal(t, ":9000", cfg.TCPAddr)
			require.Equal(t, 2*time.Second, cfg.TelemetryInterval)
			require.Equal(t, 50*time.Millisecond, cfg.InputInterval)
		})
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	require.Error(t, Default().LoadFile(writeFile(t, "a.toml", "colour = 1\n")))
	require.Error(t, Default().LoadFile(writeFile(t, "a.yml", "colour: 1\n")))
	require.Error(t, Default().LoadFile(writeFile(t, "a.json", "{}")))
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	require.NoError(t, c.ApplyEnv(lookupMap(map[string]string{
		"BLOCKS_TRANSPORT":      "serial",
		"BLOCKS_SERIAL_PORT":    "/dev/ttyUSB0",
		"BLOCKS_SERIAL_BAUD":    "9600",
		"BLOCKS_DISPATCH_IDLE":  "20ms",
		"UNRELATED_SERIAL_PORT": "x",
	})))
	require.Equal(t, TransportSerial, c.Transport)
	require.Equal(t, "/dev/ttyUSB0", c.SerialPort)
	require.Equal(t, 9600, c.SerialBaud)
	require.Equal(t, 20*time.Millisecond, c.DispatchIdle)

	require.Error(t, c.ApplyEnv(lookupMap(map[string]string{"BLOCKS_SERIAL_BAUD": "fast"})))
	require.Error(t, c.ApplyEnv(lookupMap(map[string]string{"BLOCKS_FLASH_DURATION": "1 sec"})))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"transport", func(c *Config) { c.Transport = "carrier-pigeon" }},
		{"name", func(c *Config) { c.Name = "" }},
		{"serial port", func(c *Config) { c.Transport = TransportSerial }},
		{"interval", func(c *Config) { c.BuzzerInterval = 0 }},
		{"flash", func(c *Config) { c.FlashDuration = -time.Second }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.modify(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	file := writeFile(t, "blocks.toml", "name = \"from-file\"\ntransport = \"tcp\"\nmqtt_url = \"mqtt://file/\"\n")
	env := lookupMap(map[string]string{
		"BLOCKS_CONFIG":    file,
		"BLOCKS_TRANSPORT": "mqtt",
		"BLOCKS_NAME":      "from-env",
	})
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c, err := Load(fs, []string{"-name", "from-flag", "-input-interval", "10ms"}, env)
	require.NoError(t, err)
	require.Equal(t, "from-flag", c.Name)
	require.Equal(t, TransportMQTT, c.Transport)
	require.Equal(t, "mqtt://file/", c.MQTTURL)
	require.Equal(t, 10*time.Millisecond, c.InputInterval)
	require.Equal(t, time.Second, c.TelemetryInterval)
}

func TestLoadInvalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Load(fs, []string{"-transport", "smoke"}, lookupMap(nil))
	require.Error(t, err)
}
