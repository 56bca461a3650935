// Package app runs the periodic producer and consumer cycles on top of a
// link, and wires them together from a configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/1ureka/padlink/internal/link"
	"github.com/1ureka/padlink/internal/protocol"
	"github.com/1ureka/padlink/internal/record"
	"github.com/1ureka/padlink/internal/util"
)

// DefaultInterval is the cycle time of both sides.
const DefaultInterval = 10 * time.Millisecond

// RecordSource yields one record per cycle. *pad.Pad satisfies it.
type RecordSource interface {
	Record() (record.Record, error)
}

// Producer builds one record per cycle and pushes its frames through Link.
// Frames are never retried; a lost cycle is superseded by the next one.
type Producer struct {
	Source     RecordSource
	Fragmenter *protocol.Fragmenter
	Link       link.Link
	Interval   time.Duration
}

// RunOnce runs a single cycle and returns how many frames the link refused.
// An error means no record could be built, or the link is closed and the
// rest of the cycle was abandoned.
func (p *Producer) RunOnce() (int, error) {
	rec, err := p.Source.Record()
	if err != nil {
		return 0, fmt.Errorf("read record: %w", err)
	}

	frames, err := p.Fragmenter.FragmentRecord(rec)
	if err != nil {
		return 0, err
	}

	g := p.Fragmenter.Geometry()
	failures := 0
	for _, f := range frames {
		if err := p.Link.Send(protocol.EncodeFrame(f, g)); err != nil {
			if errors.Is(err, link.ErrClosed) {
				return failures, err
			}
			failures++
			util.Stats.AddSendFailure()
			util.LogWarning("send failed: packet %d chunk %d/%d: %v",
				f.PacketID, f.ChunkIndex+1, f.TotalChunks, err)
			continue
		}
		util.Stats.AddSent()
	}
	return failures, nil
}

// Run ticks RunOnce until ctx is done or the link is closed.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(intervalOrDefault(p.Interval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if _, err := p.RunOnce(); err != nil {
			if errors.Is(err, link.ErrClosed) {
				util.LogInfo("link closed, producer stopping")
				return nil
			}
			util.LogWarning("producer cycle skipped: %v", err)
		}
	}
}

func intervalOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	return d
}
