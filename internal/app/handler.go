package app

import (
	"github.com/1ureka/padlink/internal/command"
	"github.com/1ureka/padlink/internal/record"
	"github.com/1ureka/padlink/internal/util"
)

// LogHandler dumps each record at debug level.
func LogHandler(r record.Record) {
	enc := r.Encode()
	util.LogDebug("record %08x: %s", util.Digest(enc[:]), r)
}

// CommandHandler forwards each record to the robot as speed, rotation and
// angle offset commands. Send errors are logged and the record dropped.
func CommandHandler(tx *command.Transmitter) Handler {
	var m command.Mapper
	return func(r record.Record) {
		for _, cmd := range m.Commands(r) {
			if err := tx.Send(cmd); err != nil {
				util.LogWarning("command %q not sent: %v", cmd, err)
				return
			}
		}
	}
}

// Chain calls every non-nil handler in order.
func Chain(handlers ...Handler) Handler {
	return func(r record.Record) {
		for _, h := range handlers {
			if h != nil {
				h(r)
			}
		}
	}
}
