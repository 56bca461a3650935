package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/1ureka/padlink/internal/command"
	"github.com/1ureka/padlink/internal/config"
	"github.com/1ureka/padlink/internal/link"
	"github.com/1ureka/padlink/internal/protocol"
	"github.com/1ureka/padlink/internal/record"
	"github.com/1ureka/padlink/internal/util"
)

// seqSource yields a distinct record per call.
type seqSource struct{ n int32 }

func (s *seqSource) Record() (record.Record, error) {
	s.n++
	return record.Record{
		AxisX:   s.n,
		AxisRY:  -s.n,
		Buttons: uint16(s.n),
		Gyro:    [3]int32{s.n, 2 * s.n, 7},
	}, nil
}

type errSource struct{}

func (errSource) Record() (record.Record, error) { return record.Record{}, errors.New("pad offline") }

// refusingLink rejects every frame.
type refusingLink struct{ sent int }

func (l *refusingLink) Send([]byte) error       { l.sent++; return link.ErrBusy }
func (l *refusingLink) Receive() ([]byte, bool) { return nil, false }
func (l *refusingLink) MaxFrameSize() int       { return protocol.MaxFrameSize }
func (l *refusingLink) Close() error            { return nil }

func newPair(t *testing.T, opts link.SimOptions, src RecordSource) (*Producer, *Consumer, *[]record.Record) {
	t.Helper()

	tx, rx := link.NewSimPair(opts)
	t.Cleanup(func() { tx.Close(); rx.Close() })

	frag, err := protocol.NewFragmenter(protocol.DefaultGeometry)
	if err != nil {
		t.Fatalf("NewFragmenter: %v", err)
	}
	reasm, err := protocol.NewReassembler(protocol.DefaultGeometry)
	if err != nil {
		t.Fatalf("NewReassembler: %v", err)
	}

	var got []record.Record
	p := &Producer{Source: src, Fragmenter: frag, Link: tx}
	c := &Consumer{Link: rx, Reassembler: reasm, Handler: func(r record.Record) { got = append(got, r) }}
	return p, c, &got
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	util.Stats.Reset()
	src := &seqSource{}
	p, c, got := newPair(t, link.SimOptions{}, src)

	for i := 0; i < 10; i++ {
		failures, err := p.RunOnce()
		if err != nil || failures != 0 {
			t.Fatalf("cycle %d: failures %d, err %v", i, failures, err)
		}
		if n := c.PollOnce(); n != 1 {
			t.Fatalf("cycle %d: completed %d, want 1", i, n)
		}
	}

	if len(*got) != 10 {
		t.Fatalf("records: got %d, want 10", len(*got))
	}
	check := &seqSource{}
	for i, r := range *got {
		want, _ := check.Record()
		if r != want {
			t.Fatalf("record %d: got %+v, want %+v", i, r, want)
		}
	}

	snap := util.Stats.Snapshot()
	if snap.Sent != 20 || snap.Recv != 20 || snap.Completed != 10 || snap.Discarded() != 0 {
		t.Errorf("stats: got %+v", snap)
	}
}

func TestProducerCountsSendFailures(t *testing.T) {
	util.Stats.Reset()
	frag, _ := protocol.NewFragmenter(protocol.DefaultGeometry)
	l := &refusingLink{}
	p := &Producer{Source: &seqSource{}, Fragmenter: frag, Link: l}

	failures, err := p.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if failures != 2 || l.sent != 2 {
		t.Fatalf("failures: got %d (sent %d), want 2", failures, l.sent)
	}
	if got := util.Stats.Snapshot().SendFailures; got != 2 {
		t.Errorf("SendFailures: got %d, want 2", got)
	}
}

func TestProducerSourceError(t *testing.T) {
	frag, _ := protocol.NewFragmenter(protocol.DefaultGeometry)
	l := &refusingLink{}
	p := &Producer{Source: errSource{}, Fragmenter: frag, Link: l}

	if _, err := p.RunOnce(); err == nil {
		t.Fatalf("expected error")
	}
	if l.sent != 0 {
		t.Errorf("frames sent after source error: %d", l.sent)
	}
}

func TestProducerStopsOnClosedLink(t *testing.T) {
	util.Stats.Reset()
	tx, rx := link.NewSimPair(link.SimOptions{})
	defer rx.Close()
	tx.Close()

	frag, _ := protocol.NewFragmenter(protocol.DefaultGeometry)
	p := &Producer{Source: &seqSource{}, Fragmenter: frag, Link: tx, Interval: time.Millisecond}

	if _, err := p.RunOnce(); !errors.Is(err, link.ErrClosed) {
		t.Fatalf("RunOnce: got %v, want ErrClosed", err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run kept ticking on a closed link")
	}
	if got := util.Stats.Snapshot().SendFailures; got != 0 {
		t.Errorf("SendFailures: got %d, want 0", got)
	}
}

func TestConsumerCountsDecodeErrorsAndDiscards(t *testing.T) {
	util.Stats.Reset()
	tx, rx := link.NewSimPair(link.SimOptions{})
	defer tx.Close()
	defer rx.Close()

	reasm, _ := protocol.NewReassembler(protocol.DefaultGeometry)
	c := &Consumer{Link: rx, Reassembler: reasm}

	g := protocol.DefaultGeometry
	// short frame, then chunk 1 of a cycle that never started
	tx.Send([]byte{1, 2, 3})
	tx.Send(protocol.EncodeFrame(protocol.Frame{PacketID: 9, ChunkIndex: 1, TotalChunks: 2, PayloadLength: 25}, g))

	if n := c.PollOnce(); n != 0 {
		t.Fatalf("completed: got %d, want 0", n)
	}
	snap := util.Stats.Snapshot()
	if snap.DecodeErrors != 1 {
		t.Errorf("DecodeErrors: got %d, want 1", snap.DecodeErrors)
	}
	if snap.Mismatch != 1 {
		t.Errorf("Mismatch: got %d, want 1", snap.Mismatch)
	}
}

func TestEveryDiscardReasonIsCounted(t *testing.T) {
	defer util.Stats.Reset()
	reasons := []protocol.Reason{
		protocol.ReasonPacketIDMismatch,
		protocol.ReasonChunkIndexOutOfRange,
		protocol.ReasonInvalidLength,
	}
	for _, r := range reasons {
		util.Stats.Reset()
		countDiscard(r)
		if got := util.Stats.Snapshot().Discarded(); got != 1 {
			t.Errorf("%s: Discarded got %d, want 1", r, got)
		}
	}

	util.Stats.Reset()
	countDiscard(protocol.ReasonNone)
	if got := util.Stats.Snapshot().Discarded(); got != 0 {
		t.Errorf("none: Discarded got %d, want 0", got)
	}
}

func TestLossyLinkNeverYieldsCorruptRecords(t *testing.T) {
	util.Stats.Reset()
	src := &seqSource{}
	opts := link.SimOptions{Loss: 0.2, Duplicate: 0.1, Reorder: 0.1, Seed: 42}
	p, c, got := newPair(t, opts, src)

	const cycles = 200
	for i := 0; i < cycles; i++ {
		p.RunOnce()
		c.PollOnce()
	}

	if len(*got) == 0 || len(*got) > cycles {
		t.Fatalf("completed: got %d, want 1..%d", len(*got), cycles)
	}
	for _, r := range *got {
		n := r.AxisX
		want := record.Record{AxisX: n, AxisRY: -n, Buttons: uint16(n), Gyro: [3]int32{n, 2 * n, 7}}
		if r != want {
			t.Fatalf("corrupt record: got %+v", r)
		}
	}
	if util.Stats.Snapshot().Discarded() == 0 {
		t.Errorf("expected some discards on a lossy link")
	}
}

func TestCommandHandler(t *testing.T) {
	var buf bytes.Buffer
	h := CommandHandler(command.NewTransmitter(&buf))

	h(record.Record{AxisX: 512, Buttons: record.ButtonShoulderR})
	h(record.Record{AxisX: 512, Buttons: record.ButtonShoulderR})

	want := "SX127Y0*RX0Y0*A*" + "SX127Y0*RX0Y0*"
	if buf.String() != want {
		t.Errorf("commands: got %q, want %q", buf.String(), want)
	}
}

func TestChainSkipsNil(t *testing.T) {
	calls := 0
	Chain(nil, func(record.Record) { calls++ }, LogHandler)(record.Disconnected())
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestLoopback(t *testing.T) {
	util.Stats.Reset()
	cfg := config.Default()
	cfg.IntervalMs = 2

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := Loopback(ctx, cfg); err != nil {
		t.Fatalf("Loopback: %v", err)
	}
	if got := util.Stats.Snapshot().Completed; got == 0 {
		t.Fatalf("no records completed")
	}
}

func TestOpenLinkRejectsSimOutsideLoop(t *testing.T) {
	cfg := config.Default()
	cfg.Role = config.RoleTx
	if _, err := OpenLink(context.Background(), cfg); !errors.Is(err, ErrSimRole) {
		t.Fatalf("got %v, want ErrSimRole", err)
	}
}

func TestNewConsumerRejectsCompletion(t *testing.T) {
	cfg := config.Default()
	cfg.Reassembly.Completion = "majority"
	_, _, err := NewConsumer(cfg, &refusingLink{})
	if err == nil || !strings.Contains(err.Error(), "majority") {
		t.Fatalf("got %v, want completion error", err)
	}
}
