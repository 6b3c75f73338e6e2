package session

import (
	"context"
	"fmt"
	"time"

	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/message"
	"github.com/erilali/jimclient/internal/queue"
)

// AuthState is owned by the Dispatcher goroutine. Other components learn
// about authentication from the SessionEstablished event.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

var (
	warnAuthFailed   = event.Warning{Title: "Invalid authentication data!", Text: "Authentication has failed! Try again!"}
	warnUnknownError = event.Warning{Title: "Unknown error!", Text: "An unknown error has occurred! Try again!"}
	warnUnparsed     = event.Warning{Title: "Incorrect message format!", Text: "Could not parse message from the server!"}
)

// Dispatcher validates inbound records in arrival order, drives the
// authentication state and turns records into UI events.
type Dispatcher struct {
	inbound *queue.Queue[message.Message]
	events  chan<- event.Event
	log     *logger.Logger
	clock   func() time.Time
	state   AuthState
}

func NewDispatcher(inbound *queue.Queue[message.Message], events chan<- event.Event, log *logger.Logger) *Dispatcher {
	return &Dispatcher{inbound: inbound, events: events, log: log, clock: time.Now}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		record, err := d.inbound.Pop(ctx)
		if err != nil {
			d.log.Debug("Stopping dispatcher")
			return nil
		}
		d.Handle(ctx, record)
	}
}

// State must only be read from the goroutine running Run.
func (d *Dispatcher) State() AuthState {
	return d.state
}

// Handle processes one record. Records with an unknown type or failing the
// schema check are dropped without any event.
func (d *Dispatcher) Handle(ctx context.Context, m message.Message) {
	if err := message.Validate(m); err != nil {
		d.log.LogEvent("debug", "record_discarded", "", err.Error())
		return
	}

	switch m.Type {
	case message.TypePersonal:
		d.emit(ctx, event.MessageAppended{
			Tab:       m.From,
			TimeLabel: messageLabel(m.Timestamp(), m.From),
			Text:      m.Message,
		})
	case message.TypeChat:
		d.emit(ctx, event.MessageAppended{
			Tab:       m.To,
			TimeLabel: messageLabel(m.Timestamp(), m.From),
			Text:      m.Message,
		})
	case message.TypeJoin:
		d.emit(ctx, event.MessageAppended{
			Tab:       m.Room,
			TimeLabel: messageLabel(m.Timestamp(), serverName),
			Text:      fmt.Sprintf("%s joined %s chatroom.", m.Login, m.Room),
		})
	case message.TypeLeave:
		d.emit(ctx, event.MessageAppended{
			Tab:       m.Room,
			TimeLabel: messageLabel(m.Timestamp(), serverName),
			Text:      fmt.Sprintf("%s left %s chatroom.", m.Login, m.Room),
		})
	case message.TypeQuantity:
		n, _ := m.Count()
		d.emit(ctx, event.LogAppended{
			TimeLabel: clockLabel(d.clock(), serverName),
			Text:      fmt.Sprintf("Amount of contacts: %d", n),
		})
	case message.TypeContact:
		d.emit(ctx, event.ContactAdded{Name: m.Login})
	case message.TypeAlert:
		d.handleAlert(ctx, m)
	case message.TypeError:
		d.handleError(ctx, m)
	default:
		d.log.Debugf("Ignoring %s record from server", m.Type)
	}
}

func (d *Dispatcher) handleAlert(ctx context.Context, m message.Message) {
	if !m.Response.IsSuccess() {
		return
	}

	if d.state == Unauthenticated {
		if m.Response == message.OK {
			d.state = Authenticated
			d.log.LogEvent("info", "authenticated", "", "")
			d.emit(ctx, event.SessionEstablished{})
		}
		return
	}

	d.emit(ctx, event.LogAppended{
		TimeLabel: clockLabel(d.clock(), serverName),
		Text:      fmt.Sprintf("Alert %d: %s", m.Response, m.Alert),
	})
	if e, ok := classifyReply(m.Alert); ok {
		d.emit(ctx, e)
		return
	}
	d.log.LogEvent("warn", "protocol_violation", "", m.Alert)
	d.emit(ctx, warnUnparsed)
}

func (d *Dispatcher) handleError(ctx context.Context, m message.Message) {
	if !m.Response.IsFailure() {
		return
	}

	if d.state == Authenticated {
		d.emit(ctx, event.LogAppended{
			TimeLabel: clockLabel(d.clock(), serverName),
			Text:      fmt.Sprintf("Error %d: %s", m.Response, m.Error),
		})
		return
	}

	if m.Response == message.Unauthorized {
		d.log.LogEvent("warn", "authentication_failed", "", m.Error)
		d.emit(ctx, warnAuthFailed)
		return
	}
	d.log.LogEvent("warn", "server_error", "", fmt.Sprintf("%d %s", m.Response, m.Error))
	d.emit(ctx, warnUnknownError)
}

func (d *Dispatcher) emit(ctx context.Context, e event.Event) {
	notify(ctx, d.events, e)
}
