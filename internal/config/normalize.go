package config

// Defaults applied by Normalize.
const (
	DefaultIntervalMs      = 10 // transmitter main loop period
	DefaultStatsIntervalMs = 10_000
	DefaultUDPListen       = ":7000"
	DefaultRadioAddress    = "/dev/ttyUSB0"
	DefaultRadioBaud       = 9600
	DefaultSerialTimeoutMs = 50
	DefaultCommandAddress  = "/dev/rfcomm0"
	DefaultCommandBaud     = 38400
	DefaultSignalListen    = "127.0.0.1:0"
	DefaultSimSeed         = 1
)

// Normalize fills unset fields with defaults.
// It is allowed to mutate configuration.
// It runs before Validate(), which then checks the filled configuration.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Role == "" {
		cfg.Role = RoleLoop
	}
	if cfg.IntervalMs == 0 {
		cfg.IntervalMs = DefaultIntervalMs
	}
	if cfg.StatsIntervalMs == 0 {
		cfg.StatsIntervalMs = DefaultStatsIntervalMs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Reassembly.Completion == "" {
		cfg.Reassembly.Completion = "index"
	}

	// ---- link ----

	l := &cfg.Link
	if l.Kind == "" {
		l.Kind = LinkSim
	}
	if l.UDP.Listen == "" {
		l.UDP.Listen = DefaultUDPListen
	}
	normalizeSerial(&l.Serial, DefaultRadioAddress, DefaultRadioBaud)
	if l.WebRTC.SignalListen == "" {
		l.WebRTC.SignalListen = DefaultSignalListen
	}
	if l.Sim.Seed == 0 {
		l.Sim.Seed = DefaultSimSeed
	}

	// ---- commands ----

	normalizeSerial(&cfg.Commands.Serial, DefaultCommandAddress, DefaultCommandBaud)
}

func normalizeSerial(s *SerialConfig, address string, baud int) {
	if s.Address == "" {
		s.Address = address
	}
	if s.BaudRate == 0 {
		s.BaudRate = baud
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = DefaultSerialTimeoutMs
	}
}
