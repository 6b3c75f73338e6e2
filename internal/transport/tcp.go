package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

const (
	tcpWriteDeadline = 10 * time.Second
	tcpReadBuffer    = 4096
)

// tcpConn frames records as one JSON object per line.
type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader

	mu     sync.Mutex
	closed bool
}

func dialTCP(ctx context.Context, ep Endpoint) (Connection, error) {
	dialer := net.Dialer{Timeout: ep.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", ep.Address())
	if err != nil {
		return nil, &ConnectionError{Addr: ep.Address(), Err: err}
	}
	return NewTCP(conn), nil
}

// NewTCP wraps an established stream connection.
func NewTCP(conn net.Conn) Connection {
	return &tcpConn{conn: conn, reader: bufio.NewReaderSize(conn, tcpReadBuffer)}
}

func (c *tcpConn) Send(data []byte) error {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(tcpWriteDeadline))
	_, err := c.conn.Write(frame)
	return err
}

// Receive returns the next non-blank line. A line longer than maxFrameSize is
// skipped and reported as ErrFrameTooLarge.
func (c *tcpConn) Receive() ([]byte, error) {
	for {
		line, err := c.readLine()
		if errors.Is(err, ErrFrameTooLarge) {
			return nil, err
		}
		if err != nil {
			if c.isClosed() {
				return nil, ErrClosed
			}
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

func (c *tcpConn) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := c.reader.ReadSlice('\n')
		if len(line)+len(chunk) > maxFrameSize {
			return nil, c.discardLine(err)
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			return line, nil
		default:
			return nil, err
		}
	}
}

// discardLine drops input up to the next newline. err is the result of the
// read that overflowed the frame.
func (c *tcpConn) discardLine(err error) error {
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = c.reader.ReadSlice('\n')
	}
	if err != nil {
		return err
	}
	return ErrFrameTooLarge
}

func (c *tcpConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *tcpConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
