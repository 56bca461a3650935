// Package config holds the padlink configuration: a yaml file overridden by
// CLI flags, with interactive prompts filling whatever is still missing.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Role is the side of the link this process plays.
type Role string

const (
	RoleTx   Role = "tx"   // read the pad, fragment and send
	RoleRx   Role = "rx"   // receive, reassemble and forward
	RoleLoop Role = "loop" // both sides over an in-process simulated link
)

// LinkKind selects the transport implementation.
type LinkKind string

const (
	LinkSim    LinkKind = "sim"
	LinkUDP    LinkKind = "udp"
	LinkSerial LinkKind = "serial"
	LinkWebRTC LinkKind = "webrtc"
)

type Config struct {
	Role            Role             `yaml:"role"`
	IntervalMs      int              `yaml:"interval_ms"`
	Link            LinkConfig       `yaml:"link"`
	Reassembly      ReassemblyConfig `yaml:"reassembly"`
	Commands        CommandsConfig   `yaml:"commands"`
	Log             LogConfig        `yaml:"log"`
	StatsIntervalMs int              `yaml:"stats_interval_ms"`
}

// ---- LINK ----

type LinkConfig struct {
	Kind   LinkKind     `yaml:"kind"`
	UDP    UDPConfig    `yaml:"udp"`
	Serial SerialConfig `yaml:"serial"`
	WebRTC WebRTCConfig `yaml:"webrtc"`
	Sim    SimConfig    `yaml:"sim"`
}

type UDPConfig struct {
	Listen string `yaml:"listen"`
	Peer   string `yaml:"peer"`
}

type SerialConfig struct {
	Address   string `yaml:"address"`
	BaudRate  int    `yaml:"baud_rate"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type WebRTCConfig struct {
	SignalListen string `yaml:"signal_listen"` // host: WebSocket signaling address
	SignalURL    string `yaml:"signal_url"`    // client: ws://host:port/ws?pin=NNNN
	Host         bool   `yaml:"host"`
}

type SimConfig struct {
	Loss      float64 `yaml:"loss"`
	Duplicate float64 `yaml:"duplicate"`
	Reorder   float64 `yaml:"reorder"`
	Busy      float64 `yaml:"busy"`
	Seed      int64   `yaml:"seed"`
}

// ---- REASSEMBLY ----

type ReassemblyConfig struct {
	Completion string `yaml:"completion"` // index | count
}

// ---- COMMANDS ----

type CommandsConfig struct {
	Enabled bool         `yaml:"enabled"`
	Serial  SerialConfig `yaml:"serial"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a complete configuration for a loopback demo.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Load reads a yaml file. Unknown keys are rejected. The result is neither
// validated nor normalized.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes yaml bytes into a Config. An empty document yields the zero Config.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Interval is the producer/consumer cycle period.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// StatsInterval is the statistics reporting period.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalMs) * time.Millisecond
}

// Timeout is the read timeout of a serial port.
func (s SerialConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}
