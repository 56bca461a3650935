package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/1ureka/padlink/internal/command"
	"github.com/1ureka/padlink/internal/config"
	"github.com/1ureka/padlink/internal/link"
	"github.com/1ureka/padlink/internal/pad"
	"github.com/1ureka/padlink/internal/protocol"
	"github.com/1ureka/padlink/internal/signaling"
	"github.com/1ureka/padlink/internal/util"
)

// ErrSimRole is returned when a sim link is requested outside the loop role;
// both ends of a sim pair live in one process.
var ErrSimRole = errors.New("sim link requires role loop")

// OpenLink opens the link described by cfg.Link. For webrtc it blocks until
// signaling completes.
func OpenLink(ctx context.Context, cfg *config.Config) (link.Link, error) {
	l := cfg.Link

	switch l.Kind {
	case config.LinkUDP:
		u, err := link.NewUDP(l.UDP.Listen, l.UDP.Peer, protocol.MaxFrameSize)
		if err != nil {
			return nil, err
		}
		util.LogInfo("udp link on %s, peer %q", u.LocalAddr(), l.UDP.Peer)
		return u, nil

	case config.LinkSerial:
		s, err := link.OpenSerial(link.SerialOptions{
			Address:      l.Serial.Address,
			BaudRate:     l.Serial.BaudRate,
			Timeout:      l.Serial.Timeout(),
			MaxFrameSize: protocol.MaxFrameSize,
		})
		if err != nil {
			return nil, err
		}
		util.LogInfo("serial link on %s at %d baud", l.Serial.Address, l.Serial.BaudRate)
		return s, nil

	case config.LinkWebRTC:
		opts := link.WebRTCOptions{MaxFrameSize: protocol.MaxFrameSize}
		var (
			w   *link.WebRTC
			err error
		)
		if l.WebRTC.Host {
			w, err = signaling.EstablishAsHost(ctx, l.WebRTC.SignalListen, opts)
		} else {
			w, err = signaling.EstablishAsClient(ctx, l.WebRTC.SignalURL, opts)
		}
		if err != nil {
			return nil, err
		}
		util.LogSuccess("WebRTC link established")
		return w, nil

	case config.LinkSim:
		return nil, ErrSimRole
	}
	return nil, fmt.Errorf("unknown link kind %q", l.Kind)
}

// SimOptions translates the sim section of cfg.
func SimOptions(cfg *config.Config) link.SimOptions {
	s := cfg.Link.Sim
	return link.SimOptions{
		MaxFrameSize: protocol.MaxFrameSize,
		Loss:         s.Loss,
		Duplicate:    s.Duplicate,
		Reorder:      s.Reorder,
		Busy:         s.Busy,
		Seed:         s.Seed,
	}
}

// NewProducer builds a calibrated synthetic pad feeding the default geometry.
func NewProducer(cfg *config.Config, l link.Link) (*Producer, error) {
	p := pad.New(pad.NewSynthetic())
	if err := p.Calibrate(); err != nil {
		return nil, err
	}

	frag, err := protocol.NewFragmenter(protocol.DefaultGeometry)
	if err != nil {
		return nil, err
	}

	return &Producer{Source: p, Fragmenter: frag, Link: l, Interval: cfg.Interval()}, nil
}

// NewConsumer builds the reassembler and handler chain. The returned close
// function releases the command transmitter, if any.
func NewConsumer(cfg *config.Config, l link.Link) (*Consumer, func() error, error) {
	completion, err := protocol.ParseCompletion(cfg.Reassembly.Completion)
	if err != nil {
		return nil, nil, err
	}
	reasm, err := protocol.NewReassembler(protocol.DefaultGeometry, protocol.WithCompletion(completion))
	if err != nil {
		return nil, nil, err
	}

	handler := Handler(LogHandler)
	closeFn := func() error { return nil }

	if cfg.Commands.Enabled {
		s := cfg.Commands.Serial
		tx, err := command.OpenBluetooth(s.Address, s.Timeout())
		if err != nil {
			return nil, nil, fmt.Errorf("open command port: %w", err)
		}
		handler = Chain(handler, CommandHandler(tx))
		closeFn = tx.Close
	}

	c := &Consumer{Link: l, Reassembler: reasm, Handler: handler, Interval: cfg.Interval()}
	return c, closeFn, nil
}

// RunTx produces records on l until ctx is done.
func RunTx(ctx context.Context, cfg *config.Config, l link.Link) error {
	p, err := NewProducer(cfg, l)
	if err != nil {
		return err
	}
	util.LogInfo("transmitting every %s", cfg.Interval())
	return p.Run(ctx)
}

// RunRx consumes records from l until ctx is done.
func RunRx(ctx context.Context, cfg *config.Config, l link.Link) error {
	c, closeFn, err := NewConsumer(cfg, l)
	if err != nil {
		return err
	}
	defer closeFn()

	util.LogInfo("receiving, completion policy %s", c.Reassembler.Completion())
	return c.Run(ctx)
}

// Loopback runs a producer and a consumer over an in-process sim pair until
// ctx is done.
func Loopback(ctx context.Context, cfg *config.Config) error {
	txEnd, rxEnd := link.NewSimPair(SimOptions(cfg))
	defer func() {
		util.LogDebug("closing sim pair: %v", errors.Join(txEnd.Close(), rxEnd.Close()))
	}()

	p, err := NewProducer(cfg, txEnd)
	if err != nil {
		return err
	}
	c, closeFn, err := NewConsumer(cfg, rxEnd)
	if err != nil {
		return err
	}
	defer closeFn()

	s := cfg.Link.Sim
	util.LogInfo("loopback over sim (loss %.2f, duplicate %.2f, reorder %.2f, busy %.2f)",
		s.Loss, s.Duplicate, s.Reorder, s.Busy)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = p.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		errs[1] = c.Run(ctx)
	}()
	wg.Wait()

	return errors.Join(errs...)
}

// Run dispatches on cfg.Role.
func Run(ctx context.Context, cfg *config.Config) error {
	if cfg.Role == config.RoleLoop {
		return Loopback(ctx, cfg)
	}

	l, err := OpenLink(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	switch cfg.Role {
	case config.RoleTx:
		return RunTx(ctx, cfg, l)
	case config.RoleRx:
		return RunRx(ctx, cfg, l)
	}
	return fmt.Errorf("unknown role %q", cfg.Role)
}
