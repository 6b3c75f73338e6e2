package session

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/message"
	"github.com/erilali/jimclient/internal/transport"
	"github.com/erilali/jimclient/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeServer accepts one client and exposes the records it sends.
type fakeServer struct {
	endpoint transport.Endpoint
	received chan message.Message
	conn     chan net.Conn
}

func startFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s := &fakeServer{
		endpoint: transport.Endpoint{
			Host:        "127.0.0.1",
			Port:        ln.Addr().(*net.TCPAddr).Port,
			Kind:        transport.KindTCP,
			DialTimeout: time.Second,
		},
		received: make(chan message.Message, 16),
		conn:     make(chan net.Conn, 1),
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		s.conn <- conn
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			m, err := message.Decode(scanner.Bytes())
			if err == nil {
				s.received <- m
			}
		}
	}()
	return s
}

func (s *fakeServer) reply(t *testing.T, m message.Message) {
	t.Helper()
	var conn net.Conn
	select {
	case conn = <-s.conn:
		s.conn <- conn
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}
	data, err := m.Serialize()
	require.NoError(t, err)
	_, err = conn.Write(append(data, '\n'))
	require.NoError(t, err)
}

func (s *fakeServer) next(t *testing.T) message.Message {
	t.Helper()
	select {
	case m := <-s.received:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("server received nothing")
		return message.Message{}
	}
}

func nextEvent(t *testing.T, events <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestSession_EndToEnd(t *testing.T) {
	req := require.New(t)
	server := startFakeServer(t)
	ctx := context.Background()

	s, err := Connect(ctx, Config{Endpoint: server.endpoint, QuitGrace: 100 * time.Millisecond}, logger.Nop())
	req.NoError(err)
	s.Start(ctx)

	req.NoError(s.Authenticate(ctx, "alice", "secret"))
	auth := server.next(t)
	req.Equal(message.TypeAuthenticate, auth.Type)
	req.Equal("alice", auth.Login)
	req.Equal("secret", auth.Password)

	server.reply(t, message.NewAlert(message.OK, "Welcome, alice!"))
	req.Equal(event.SessionEstablished{}, nextEvent(t, s.Events()))

	req.NoError(s.AddContact(ctx, "#general"))
	join := server.next(t)
	req.Equal(message.TypeJoin, join.Type)
	req.Equal("alice", join.Login)
	req.Equal("#general", join.Room)

	req.NoError(s.SendMessage(ctx, "bob", "hi bob"))
	msg := server.next(t)
	req.Equal(message.TypePersonal, msg.Type)
	req.Equal("alice", msg.From)
	req.Equal("bob", msg.To)

	server.reply(t, message.NewAlert(message.OK, "Contact 'bob' has been successfully added!"))
	req.IsType(event.LogAppended{}, nextEvent(t, s.Events()))
	req.Equal(event.ContactAdded{Name: "bob"}, nextEvent(t, s.Events()))

	// The quit record is only guaranteed when Close is allowed to finish.
	req.NoError(s.Close(ctx))
	req.Equal(message.TypeQuit, server.next(t).Type)

	for range s.Events() {
	}
	req.True(s.Status().Closed)
	req.ErrorIs(s.Presence(ctx), ErrClosed)
	req.NoError(s.Close(ctx))
}

func TestSession_CloseAfterCallerContextEnds(t *testing.T) {
	req := require.New(t)
	server := startFakeServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Connect(ctx, Config{Endpoint: server.endpoint, QuitGrace: 100 * time.Millisecond}, logger.Nop())
	req.NoError(err)
	s.Start(ctx)
	req.NoError(s.Presence(ctx))
	req.Equal(message.TypePresence, server.next(t).Type)

	// An interrupt cancels the caller context before the session is closed.
	cancel()
	req.NoError(s.Close(context.Background()))
	req.Equal(message.TypeQuit, server.next(t).Type)
}

func TestSession_OversizedFrameDoesNotStopReceiving(t *testing.T) {
	req := require.New(t)
	server := startFakeServer(t)
	ctx := context.Background()

	s, err := Connect(ctx, Config{Endpoint: server.endpoint, QuitGrace: 50 * time.Millisecond}, logger.Nop())
	req.NoError(err)
	s.Start(ctx)
	defer s.Close(ctx)

	req.NoError(s.Authenticate(ctx, "alice", "secret"))
	server.next(t)

	server.reply(t, message.NewAlert(message.OK, strings.Repeat("x", 70*1024)))
	server.reply(t, message.NewAlert(message.OK, "Welcome, alice!"))
	req.Equal(event.SessionEstablished{}, nextEvent(t, s.Events()))
}

func TestSession_FailedAuthenticateKeepsPreviousLogin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newIdleSession(t, 1)

	req.NoError(s.Authenticate(ctx, "alice", "secret"))
	req.Equal("alice", s.Login())

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	req.ErrorIs(s.Authenticate(short, "bobby", "secret"), context.DeadlineExceeded)
	req.Equal("alice", s.Login())

	req.NoError(s.Close(ctx))
	req.ErrorIs(s.Authenticate(ctx, "carol", "secret"), ErrClosed)
	req.Equal("alice", s.Login())
}

func TestConnect_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = Connect(context.Background(), Config{Endpoint: transport.Endpoint{
		Host: "127.0.0.1", Port: port, Kind: transport.KindTCP, DialTimeout: time.Second,
	}}, logger.Nop())

	var connErr *transport.ConnectionError
	require.True(t, errors.As(err, &connErr))
}

func newIdleSession(t *testing.T, queueSize int) *Session {
	t.Helper()
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)
	conn.EXPECT().RemoteAddr().Return("127.0.0.1:7777").AnyTimes()
	conn.EXPECT().Close().Return(nil).AnyTimes()
	return New(conn, Config{QueueSize: queueSize}, logger.Nop())
}

func TestSession_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newIdleSession(t, 4)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"short login", func() error { return s.Authenticate(ctx, "al", "secret") }, ErrInvalidCredentials},
		{"long login", func() error { return s.Authenticate(ctx, string(make([]byte, 33)), "secret") }, ErrInvalidCredentials},
		{"short password", func() error { return s.Authenticate(ctx, "alice", "abc") }, ErrInvalidCredentials},
		{"multibyte login", func() error { return s.Authenticate(ctx, "äöü", "secret") }, ErrInvalidCredentials},
		{"login with spaces", func() error { return s.Authenticate(ctx, "al ice", "secret") }, ErrInvalidCredentials},
		{"multibyte short password", func() error { return s.Authenticate(ctx, "alice", "äöü") }, ErrInvalidCredentials},
		{"long password", func() error { return s.Authenticate(ctx, "alice", string(make([]byte, 33))) }, ErrInvalidCredentials},
		{"bad contact", func() error { return s.AddContact(ctx, "b!") }, ErrInvalidName},
		{"bad removal", func() error { return s.RemoveContact(ctx, "#a") }, ErrInvalidName},
		{"bad recipient", func() error { return s.SendMessage(ctx, "", "hi") }, ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), tt.want)
		})
	}
	require.Zero(t, s.Status().Outbound.Len)
}

func TestSession_RoutesByNameKind(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newIdleSession(t, 8)

	req.NoError(s.Authenticate(ctx, "alice", "secret"))
	req.NoError(s.AddContact(ctx, "bob"))
	req.NoError(s.RemoveContact(ctx, "#general"))
	req.NoError(s.SendMessage(ctx, "#general", "hello"))
	req.NoError(s.RequestContacts(ctx))

	want := []message.Type{
		message.TypeAuthenticate,
		message.TypeAddContact,
		message.TypeLeave,
		message.TypeChat,
		message.TypeGetContacts,
	}
	for _, typ := range want {
		data, err := s.outbound.Pop(ctx)
		req.NoError(err)
		m, err := message.Decode(data)
		req.NoError(err)
		req.Equal(typ, m.Type)
	}
}

func TestSession_SendBlocksWhileQueueFull(t *testing.T) {
	ctx := context.Background()
	s := newIdleSession(t, 1)

	require.NoError(t, s.Presence(ctx))

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Presence(short), context.DeadlineExceeded)
	require.Equal(t, QueueStatus{Len: 1, Cap: 1}, s.Status().Outbound)
}

func TestSession_CloseWithoutStart(t *testing.T) {
	s := newIdleSession(t, 1)

	require.NoError(t, s.Close(context.Background()))
	_, open := <-s.Events()
	require.False(t, open)
	require.ErrorIs(t, s.Presence(context.Background()), ErrClosed)
}
