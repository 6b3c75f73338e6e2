// Package session implements the client side of a JIM chat session: one
// connection, a bounded outbound and inbound queue, and the sender, receiver
// and dispatcher goroutines moving records between the socket and the UI.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/message"
	"github.com/erilali/jimclient/internal/queue"
	"github.com/erilali/jimclient/internal/transport"
	"github.com/google/uuid"
)

const (
	DefaultEventBuffer = 64
	DefaultQuitGrace   = time.Second

	waitTimeBeforeRestart = 200 * time.Millisecond
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidName        = errors.New("invalid contact name")
	ErrClosed             = errors.New("session closed")
)

type Config struct {
	Endpoint    transport.Endpoint
	QueueSize   int
	EventBuffer int
	// QuitGrace is how long Close waits for the quit message to leave before
	// the connection is torn down.
	QuitGrace time.Duration
}

type QueueStatus struct {
	Len int `json:"len"`
	Cap int `json:"cap"`
}

// Status is a point-in-time snapshot for diagnostics.
type Status struct {
	ID       string      `json:"id"`
	Remote   string      `json:"remote"`
	Outbound QueueStatus `json:"outbound"`
	Inbound  QueueStatus `json:"inbound"`
	Closed   bool        `json:"closed"`
}

type Session struct {
	id       string
	cfg      Config
	conn     transport.Connection
	outbound *queue.Queue[[]byte]
	inbound  *queue.Queue[message.Message]
	events   chan event.Event
	log      *logger.Logger

	sender     *Sender
	receiver   *Receiver
	dispatcher *Dispatcher

	wg      sync.WaitGroup
	mu      sync.Mutex
	login   string
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// Connect dials the server and builds a session around the connection.
// An unreachable endpoint is returned as a *transport.ConnectionError.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Session, error) {
	conn, err := transport.Dial(ctx, cfg.Endpoint)
	if err != nil {
		log.LogEvent("error", "connect_failed", cfg.Endpoint.Address(), err.Error())
		return nil, err
	}
	log.LogEvent("info", "connected", conn.RemoteAddr(), "")
	return New(conn, cfg, log), nil
}

// New builds a session on an established connection. Call Start to run it.
func New(conn transport.Connection, cfg Config, log *logger.Logger) *Session {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.QuitGrace <= 0 {
		cfg.QuitGrace = DefaultQuitGrace
	}
	id := uuid.NewString()
	log = log.WithField("session", id)

	s := &Session{
		id:       id,
		cfg:      cfg,
		conn:     conn,
		outbound: queue.New[[]byte](cfg.QueueSize),
		inbound:  queue.New[message.Message](cfg.QueueSize),
		events:   make(chan event.Event, cfg.EventBuffer),
		log:      log,
	}
	s.sender = NewSender(conn, s.outbound, s.events, log.Named("sender"))
	s.receiver = NewReceiver(conn, s.inbound, s.events, log.Named("receiver"))
	s.dispatcher = NewDispatcher(s.inbound, s.events, log.Named("dispatcher"))
	return s
}

func (s *Session) ID() string { return s.id }

// Events is the single channel the UI consumes. It is closed by Close once
// every worker has stopped.
func (s *Session) Events() <-chan event.Event { return s.events }

// Start launches the sender, receiver and dispatcher. It does nothing on a
// session that was already started or closed. The workers keep the values of
// ctx but not its cancellation: only Close stops them, so the quit message
// can still be flushed after the caller's context is done.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.supervise(ctx, "sender", s.sender.Run)
	s.supervise(ctx, "receiver", s.receiver.Run)
	s.supervise(ctx, "dispatcher", s.dispatcher.Run)
}

// supervise runs a worker in its own goroutine and restarts it after a panic,
// so one bad record cannot end the session.
func (s *Session) supervise(ctx context.Context, name string, run func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%s panic: %v", name, r)
					}
				}()
				return run(ctx)
			}()
			if err == nil || ctx.Err() != nil {
				return
			}

			s.log.Warnf("Worker %s crashed, restarting: %v", name, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(waitTimeBeforeRestart):
			}
		}
	}()
}

// Login returns the login given to the last Authenticate call.
func (s *Session) Login() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login
}

// Send validates, serializes and queues m. It blocks while the outbound queue
// is full, until ctx is done.
func (s *Session) Send(ctx context.Context, m message.Message) error {
	if err := message.Validate(m); err != nil {
		return err
	}
	data, err := m.Serialize()
	if err != nil {
		return err
	}
	if err := s.outbound.Push(ctx, data); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Authenticate queues the credentials. The login must follow the client name
// grammar and the password must be 4 to 32 characters long. The login is kept
// only when the message was queued.
func (s *Session) Authenticate(ctx context.Context, login, password string) error {
	if !message.IsClientName(login) {
		return fmt.Errorf("%w: login %q, expected 3 to 32 letters, digits or underscores", ErrInvalidCredentials, login)
	}
	if n := utf8.RuneCountInString(password); n < 4 || n > 32 {
		return fmt.Errorf("%w: password length %d, expected [4;32]", ErrInvalidCredentials, n)
	}

	s.mu.Lock()
	prev := s.login
	s.login = login
	s.mu.Unlock()

	if err := s.Send(ctx, message.Authenticate(login, password)); err != nil {
		s.mu.Lock()
		if s.login == login {
			s.login = prev
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Session) RequestContacts(ctx context.Context) error {
	return s.Send(ctx, message.GetContacts())
}

func (s *Session) Presence(ctx context.Context) error {
	return s.Send(ctx, message.Presence())
}

// AddContact joins name when it is a chatroom, otherwise adds it as a contact.
func (s *Session) AddContact(ctx context.Context, name string) error {
	switch {
	case message.IsRoomName(name):
		return s.Send(ctx, message.JoinRoom(s.Login(), name))
	case message.IsClientName(name):
		return s.Send(ctx, message.AddContact(name))
	default:
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
}

// RemoveContact leaves name when it is a chatroom, otherwise deletes the contact.
func (s *Session) RemoveContact(ctx context.Context, name string) error {
	switch {
	case message.IsRoomName(name):
		return s.Send(ctx, message.LeaveRoom(s.Login(), name))
	case message.IsClientName(name):
		return s.Send(ctx, message.DelContact(name))
	default:
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
}

// SendMessage posts text to a chatroom or to a single contact.
func (s *Session) SendMessage(ctx context.Context, to, text string) error {
	switch {
	case message.IsRoomName(to):
		return s.Send(ctx, message.ChatMessage(s.Login(), to, text))
	case message.IsClientName(to):
		return s.Send(ctx, message.PersonalMessage(s.Login(), to, text))
	default:
		return fmt.Errorf("%w: %q", ErrInvalidName, to)
	}
}

// Close queues a quit message, waits QuitGrace for it to be flushed, then
// closes the connection and stops the workers. A process killed before Close
// returns has no guarantee that the quit message reached the server.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started, cancel := s.started, s.cancel
	s.mu.Unlock()

	if started {
		graceCtx, stop := context.WithTimeout(ctx, s.cfg.QuitGrace)
		if err := s.Send(graceCtx, message.Quit()); err != nil {
			s.log.Warnf("Could not queue quit message: %v", err)
		}
		<-graceCtx.Done()
		stop()
	}

	err := s.conn.Close()
	s.outbound.Close()
	s.inbound.Close()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	close(s.events)

	s.log.LogEvent("info", "disconnected", s.conn.RemoteAddr(), "")
	return err
}

func (s *Session) Status() Status {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	return Status{
		ID:       s.id,
		Remote:   s.conn.RemoteAddr(),
		Outbound: QueueStatus{Len: s.outbound.Len(), Cap: s.outbound.Cap()},
		Inbound:  QueueStatus{Len: s.inbound.Len(), Cap: s.inbound.Cap()},
		Closed:   closed,
	}
}
