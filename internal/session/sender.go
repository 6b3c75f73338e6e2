package session

import (
	"context"
	"fmt"
	"time"

	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/queue"
	"github.com/erilali/jimclient/internal/transport"
)

// Sender drains the outbound queue into the connection. Delivery is at most
// once: a message whose write fails is reported and dropped.
type Sender struct {
	conn     transport.Connection
	outbound *queue.Queue[[]byte]
	events   chan<- event.Event
	log      *logger.Logger
	clock    func() time.Time
}

func NewSender(conn transport.Connection, outbound *queue.Queue[[]byte], events chan<- event.Event, log *logger.Logger) *Sender {
	return &Sender{conn: conn, outbound: outbound, events: events, log: log, clock: time.Now}
}

// Run returns nil once ctx is done or the queue is closed.
func (s *Sender) Run(ctx context.Context) error {
	for {
		data, err := s.outbound.Pop(ctx)
		if err != nil {
			s.log.Debug("Stopping sender")
			return nil
		}
		if err := s.conn.Send(data); err != nil {
			s.log.LogEvent("error", "send_failed", "", err.Error())
			notify(ctx, s.events, event.LogAppended{
				TimeLabel: clockLabel(s.clock(), clientName),
				Text:      err.Error(),
			})
			continue
		}
		s.log.LogEvent("debug", "message_sent", "", fmt.Sprintf("%d bytes", len(data)))
	}
}

// notify hands e to the UI unless the session is shutting down.
func notify(ctx context.Context, events chan<- event.Event, e event.Event) {
	select {
	case events <- e:
	case <-ctx.Done():
	}
}
