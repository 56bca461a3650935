// Padlink: CLI entry point.
//
// This tool streams gamepad records over a small-frame radio link (or a UDP,
// serial or WebRTC stand-in), splitting each record into fixed-size frames
// and rebuilding it on the other side. The receiving side can forward the
// records to a robot as Bluetooth serial commands.
//
// It can be launched interactively (no flags) or non-interactively via a
// config file and CLI flags (-config, -role, -link, ...).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/padlink/internal/app"
	"github.com/1ureka/padlink/internal/config"
	"github.com/1ureka/padlink/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	configPath := flag.String("config", "", "Path to a yaml config file")
	role := flag.String("role", "", "Role: tx, rx or loop")
	linkKind := flag.String("link", "", "Link: sim, udp, serial or webrtc")
	interval := flag.Int("interval", 0, "Cycle interval in milliseconds")
	udpListen := flag.String("udpListen", "", "Local UDP address (udp link)")
	udpPeer := flag.String("udpPeer", "", "Peer UDP address (udp link)")
	serialAddr := flag.String("serial", "", "Serial radio device (serial link)")
	wsListen := flag.String("wsListen", "", "Signaling listen address, makes this side the WebRTC host")
	wsURL := flag.String("wsUrl", "", "Signaling URL to connect to (WebRTC client)")
	completion := flag.String("completion", "", "Reassembly completion: index or count")
	commands := flag.String("commands", "", "Forward records to the robot on this Bluetooth serial device")
	loss := flag.Float64("loss", -1, "Sim frame loss probability")
	logLevel := flag.String("log", "", "Log level: trace, debug, info, warn, error, off")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
		cfg = loaded
	} else if *role == "" {
		// No config and no -role flag → interactive mode.
		cfg.Role = ""
	}

	// Flags override the file.
	if *role != "" {
		cfg.Role = config.Role(*role)
	}
	if *linkKind != "" {
		cfg.Link.Kind = config.LinkKind(*linkKind)
	}
	if *interval > 0 {
		cfg.IntervalMs = *interval
	}
	if *udpListen != "" {
		cfg.Link.UDP.Listen = *udpListen
	}
	if *udpPeer != "" {
		cfg.Link.UDP.Peer = *udpPeer
	}
	if *serialAddr != "" {
		cfg.Link.Serial.Address = *serialAddr
	}
	if *wsListen != "" {
		cfg.Link.WebRTC.Host = true
		cfg.Link.WebRTC.SignalListen = *wsListen
	}
	if *wsURL != "" {
		u, err := normalizeWSURL(*wsURL)
		if err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
		cfg.Link.WebRTC.Host = false
		cfg.Link.WebRTC.SignalURL = u
	}
	if *completion != "" {
		cfg.Reassembly.Completion = *completion
	}
	if *commands != "" {
		cfg.Commands.Enabled = true
		cfg.Commands.Serial.Address = *commands
	}
	if *loss >= 0 {
		cfg.Link.Sim.Loss = *loss
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	pterm.Info.Println(fmt.Sprintf("Padlink v%s", version))
	pterm.Println()

	if cfg.Role == "" {
		runInteractive(cfg)
	}

	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		util.LogError("invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := util.SetLevel(cfg.Log.Level); err != nil {
		util.LogWarning("%v", err)
	}
	if *debugMode {
		util.EnableDebug()
	}

	util.StartStatsReporter(ctx, cfg.StatsInterval())

	if err := app.Run(ctx, cfg); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	util.LogInfo("link closed")
}

// ---------------------------------------------------------------------------
// Interactive mode
// ---------------------------------------------------------------------------

// runInteractive asks for the role and link when neither a config file nor a
// -role flag was given.
func runInteractive(cfg *config.Config) {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{
			"Loop - Producer and consumer in this process",
			"Tx   - Send records",
			"Rx   - Receive records",
		}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	switch {
	case strings.HasPrefix(role, "Loop"):
		cfg.Role = config.RoleLoop
		cfg.Link.Kind = config.LinkSim
		return
	case strings.HasPrefix(role, "Tx"):
		cfg.Role = config.RoleTx
	default:
		cfg.Role = config.RoleRx
	}

	kind, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"udp", "serial", "webrtc host", "webrtc client"}).
		WithDefaultText("Select the link").
		Show()

	pterm.Println()

	switch kind {
	case "udp":
		cfg.Link.Kind = config.LinkUDP
	case "serial":
		cfg.Link.Kind = config.LinkSerial
	case "webrtc host":
		cfg.Link.Kind = config.LinkWebRTC
		cfg.Link.WebRTC.Host = true
	default:
		cfg.Link.Kind = config.LinkWebRTC
		cfg.Link.WebRTC.Host = false
		cfg.Link.WebRTC.SignalURL = askURL()
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// normalizeWSURL validates a raw signaling URL and keeps its PIN query.
func normalizeWSURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	scheme := "wss"
	if u.Scheme == "ws" || u.Scheme == "wss" {
		scheme = u.Scheme
	}
	out := fmt.Sprintf("%s://%s/ws", scheme, u.Host)
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out, nil
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("WebSocket URL (e.g. ws://192.168.1.10:5000/ws?pin=1234)").
			Show()

		wsURL, err := normalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}
