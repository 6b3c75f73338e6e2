//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../../mocks/mock_transport.go -package=mocks

// Package transport owns the single socket a chat session talks through and
// the framing of JIM records on it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// maxFrameSize bounds one encoded record on any transport.
const maxFrameSize = 64 * 1024

var (
	ErrClosed           = errors.New("connection closed")
	ErrUnknownTransport = errors.New("unknown transport")
	// ErrFrameTooLarge reports one dropped record; the connection stays usable.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)

// Connection is a connected, framed byte pipe to the chat server.
type Connection interface {
	// Send writes one encoded record synchronously.
	Send(data []byte) error
	// Receive blocks until the next record arrives.
	Receive() ([]byte, error)
	// Close may be called more than once; later Sends fail with ErrClosed.
	Close() error
	RemoteAddr() string
}

// ConnectionError reports an endpoint that could not be reached at session start.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type Kind string

const (
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "websocket"
)

// Endpoint describes where and how to connect.
type Endpoint struct {
	Host        string
	Port        int
	Kind        Kind
	Path        string // websocket only
	DialTimeout time.Duration
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Dial performs the one connect of a session. It is never retried.
func Dial(ctx context.Context, ep Endpoint) (Connection, error) {
	switch ep.Kind {
	case "", KindTCP:
		return dialTCP(ctx, ep)
	case KindWebSocket:
		return dialWebSocket(ctx, ep)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, ep.Kind)
	}
}
