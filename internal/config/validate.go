package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only; zero values are accepted
// because Normalize fills them.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	switch cfg.Role {
	case "", RoleTx, RoleRx, RoleLoop:
	default:
		return fmt.Errorf("role %q: must be tx, rx or loop", cfg.Role)
	}

	if cfg.IntervalMs < 0 {
		return fmt.Errorf("interval_ms must not be negative (got %d)", cfg.IntervalMs)
	}
	if cfg.StatsIntervalMs < 0 {
		return fmt.Errorf("stats_interval_ms must not be negative (got %d)", cfg.StatsIntervalMs)
	}

	switch cfg.Reassembly.Completion {
	case "", "index", "count":
	default:
		return fmt.Errorf("reassembly.completion %q: must be index or count", cfg.Reassembly.Completion)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "off", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}

	// ------------------------------------------------------------
	// LINK
	// ------------------------------------------------------------

	l := cfg.Link
	switch l.Kind {
	case "", LinkSim, LinkUDP, LinkSerial, LinkWebRTC:
	default:
		return fmt.Errorf("link.kind %q: must be sim, udp, serial or webrtc", l.Kind)
	}

	if cfg.Role == RoleLoop && l.Kind != "" && l.Kind != LinkSim {
		return fmt.Errorf("role loop requires link.kind sim (got %q)", l.Kind)
	}

	for name, p := range map[string]float64{
		"loss":      l.Sim.Loss,
		"duplicate": l.Sim.Duplicate,
		"reorder":   l.Sim.Reorder,
		"busy":      l.Sim.Busy,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("link.sim.%s must be within [0, 1] (got %v)", name, p)
		}
	}

	if err := validateSerial("link.serial", l.Serial); err != nil {
		return err
	}

	// client side needs somewhere to dial
	if l.Kind == LinkWebRTC && !l.WebRTC.Host && l.WebRTC.SignalURL == "" {
		return fmt.Errorf("link.webrtc.signal_url is required when host is false")
	}

	// a receiver learns its peer from the first datagram, a sender cannot
	if l.Kind == LinkUDP && cfg.Role == RoleTx && l.UDP.Peer == "" {
		return fmt.Errorf("link.udp.peer is required for role tx")
	}

	// ------------------------------------------------------------
	// COMMANDS
	// ------------------------------------------------------------

	if cfg.Commands.Enabled && cfg.Role == RoleTx {
		return fmt.Errorf("commands are forwarded by the receiver; role tx cannot enable them")
	}
	return validateSerial("commands.serial", cfg.Commands.Serial)
}

func validateSerial(field string, s SerialConfig) error {
	if s.BaudRate < 0 {
		return fmt.Errorf("%s.baud_rate must not be negative (got %d)", field, s.BaudRate)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("%s.timeout_ms must not be negative (got %d)", field, s.TimeoutMs)
	}
	return nil
}
