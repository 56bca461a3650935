package app

import (
	"context"
	"time"

	"github.com/1ureka/padlink/internal/link"
	"github.com/1ureka/padlink/internal/protocol"
	"github.com/1ureka/padlink/internal/record"
	"github.com/1ureka/padlink/internal/util"
)

// Handler is called once per reassembled record.
type Handler func(record.Record)

// Consumer polls Link, feeds every frame to the Reassembler and hands
// completed records to Handler.
type Consumer struct {
	Link        link.Link
	Reassembler *protocol.Reassembler
	Handler     Handler
	Interval    time.Duration
}

// PollOnce drains every frame currently queued on the link without blocking
// and returns the number of records completed.
func (c *Consumer) PollOnce() int {
	completed := 0
	for {
		data, ok := c.Link.Receive()
		if !ok {
			return completed
		}
		util.Stats.AddRecv()

		res, err := c.Reassembler.AcceptBytes(data)
		if err != nil {
			util.Stats.AddDecodeError()
			util.LogDebug("dropping frame: %v", err)
			continue
		}

		switch res.Status {
		case protocol.Discarded:
			countDiscard(res.Reason)
		case protocol.Completed:
			rec, err := record.Decode(res.Record)
			if err != nil {
				util.Stats.AddDecodeError()
				util.LogWarning("completed record does not decode: %v", err)
				continue
			}
			util.Stats.AddCompleted()
			completed++
			if c.Handler != nil {
				c.Handler(rec)
			}
		}
	}
}

// Run ticks PollOnce until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(intervalOrDefault(c.Interval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.PollOnce()
		}
	}
}

func countDiscard(reason protocol.Reason) {
	switch reason {
	case protocol.ReasonPacketIDMismatch:
		util.Stats.AddMismatch()
	case protocol.ReasonChunkIndexOutOfRange:
		util.Stats.AddOutOfRange()
	case protocol.ReasonInvalidLength:
		util.Stats.AddInvalidLength()
	default:
		util.LogWarning("discard with unknown reason %s", reason)
	}
}
