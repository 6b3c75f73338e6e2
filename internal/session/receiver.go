package session

import (
	"context"
	"errors"
	"time"

	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/message"
	"github.com/erilali/jimclient/internal/queue"
	"github.com/erilali/jimclient/internal/transport"
)

const connectionLost = "Connection to the server has been lost."

// Receiver turns incoming frames into decoded records on the inbound queue.
// Oversized frames, frames that are not valid JSON and records of unknown
// type never reach the queue.
type Receiver struct {
	conn    transport.Connection
	inbound *queue.Queue[message.Message]
	events  chan<- event.Event
	log     *logger.Logger
	clock   func() time.Time
}

func NewReceiver(conn transport.Connection, inbound *queue.Queue[message.Message], events chan<- event.Event, log *logger.Logger) *Receiver {
	return &Receiver{conn: conn, inbound: inbound, events: events, log: log, clock: time.Now}
}

func (r *Receiver) Run(ctx context.Context) error {
	for {
		frame, err := r.conn.Receive()
		if errors.Is(err, transport.ErrFrameTooLarge) {
			r.log.Debugf("Dropping frame: %v", err)
			continue
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, transport.ErrClosed) {
				r.log.Debug("Stopping receiver")
				return nil
			}
			r.log.LogEvent("warn", "connection_lost", r.conn.RemoteAddr(), err.Error())
			notify(ctx, r.events, event.LogAppended{
				TimeLabel: clockLabel(r.clock(), clientName),
				Text:      connectionLost,
			})
			return nil
		}

		record, err := message.Decode(frame)
		if err != nil {
			r.log.Debugf("Dropping frame: %v", err)
			continue
		}
		if !record.Type.Known() {
			r.log.Debugf("Dropping record with unknown type %q", record.Type)
			continue
		}
		if err := r.inbound.Push(ctx, record); err != nil {
			r.log.Debug("Stopping receiver")
			return nil
		}
	}
}
