package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide link counter.
var Stats = &stats{}

type stats struct {
	FramesSent   atomic.Int64 // frames handed to the link successfully
	SendFailures atomic.Int64 // frames the link refused (not retried)
	FramesRecv   atomic.Int64 // frames polled from the link
	DecodeErrors atomic.Int64 // received frames with the wrong wire size
	Completed    atomic.Int64 // records rebuilt by the reassembler

	DiscardMismatch atomic.Int64 // frame from another packet
	DiscardRange    atomic.Int64 // chunk index or announced total out of range
	DiscardLength   atomic.Int64 // payload length does not fit
}

func (s *stats) AddSent()        { s.FramesSent.Add(1) }
func (s *stats) AddSendFailure() { s.SendFailures.Add(1) }
func (s *stats) AddRecv()        { s.FramesRecv.Add(1) }
func (s *stats) AddDecodeError() { s.DecodeErrors.Add(1) }
func (s *stats) AddCompleted()   { s.Completed.Add(1) }

func (s *stats) AddMismatch()      { s.DiscardMismatch.Add(1) }
func (s *stats) AddOutOfRange()    { s.DiscardRange.Add(1) }
func (s *stats) AddInvalidLength() { s.DiscardLength.Add(1) }

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Sent, SendFailures, Recv, DecodeErrors, Completed int64
	Mismatch, Range, Length                           int64
}

// Discarded is the total across all discard reasons.
func (s StatsSnapshot) Discarded() int64 { return s.Mismatch + s.Range + s.Length }

func (s *stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Sent:         s.FramesSent.Load(),
		SendFailures: s.SendFailures.Load(),
		Recv:         s.FramesRecv.Load(),
		DecodeErrors: s.DecodeErrors.Load(),
		Completed:    s.Completed.Load(),
		Mismatch:     s.DiscardMismatch.Load(),
		Range:        s.DiscardRange.Load(),
		Length:       s.DiscardLength.Load(),
	}
}

// Reset zeroes every counter.
func (s *stats) Reset() {
	for _, c := range []*atomic.Int64{
		&s.FramesSent, &s.SendFailures, &s.FramesRecv, &s.DecodeErrors, &s.Completed,
		&s.DiscardMismatch, &s.DiscardRange, &s.DiscardLength,
	} {
		c.Store(0)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs link statistics every
// interval, skipping intervals with no traffic. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		prev := Stats.Snapshot()
		for {
			select {
			case <-ticker.C:
				cur := Stats.Snapshot()
				if cur != prev {
					pterm.DefaultLogger.Info(formatStats(delta(cur, prev), interval))
				}
				prev = cur

			case <-ctx.Done():
				return
			}
		}
	}()
}

func delta(cur, prev StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		Sent:         cur.Sent - prev.Sent,
		SendFailures: cur.SendFailures - prev.SendFailures,
		Recv:         cur.Recv - prev.Recv,
		DecodeErrors: cur.DecodeErrors - prev.DecodeErrors,
		Completed:    cur.Completed - prev.Completed,
		Mismatch:     cur.Mismatch - prev.Mismatch,
		Range:        cur.Range - prev.Range,
		Length:       cur.Length - prev.Length,
	}
}

// formatStats returns a one-line summary of one reporting interval for the logger.
func formatStats(d StatsSnapshot, interval time.Duration) string {
	secs := interval.Seconds()
	return fmt.Sprintf("Tx: %6.1f f/s (%d failed) | Rx: %6.1f f/s | Records: %5.1f/s | Discard: %d id, %d idx, %d len | Bad: %d",
		float64(d.Sent)/secs,
		d.SendFailures,
		float64(d.Recv)/secs,
		float64(d.Completed)/secs,
		d.Mismatch,
		d.Range,
		d.Length,
		d.DecodeErrors,
	)
}
