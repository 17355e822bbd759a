package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"streetfire-server/pkg/codec"
)

// TCPConn - соединение поверх net.Conn. Кадры читаются через bufio.Reader.
type TCPConn struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration

	writeMu sync.Mutex
	state   stateFlag
}

// NewTCP оборачивает уже установленное соединение.
// writeTimeout <= 0 означает DefaultWriteTimeout.
func NewTCP(conn net.Conn, writeTimeout time.Duration) *TCPConn {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	c := &TCPConn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: writeTimeout,
	}
	c.state.store(Connected)
	return c
}

// DialTCP устанавливает исходящее соединение с учётом ctx.
func DialTCP(ctx context.Context, addr string, writeTimeout time.Duration) (*TCPConn, error) {
	d := net.Dialer{Timeout: DefaultDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Команды маленькие и должны уходить сразу.
		_ = tc.SetNoDelay(true)
	}
	return NewTCP(conn, writeTimeout), nil
}

func (c *TCPConn) ReadFrame() ([]byte, error) {
	frame, err := codec.ReadFrame(c.reader)
	if err != nil && c.state.load() == Disconnected && !errors.Is(err, codec.ErrMalformed) {
		return nil, ErrClosed
	}
	return frame, err
}

func (c *TCPConn) WriteFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.state.load() != Connected {
		return ErrClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(frame)
	return err
}

func (c *TCPConn) Close() error {
	if !c.state.swap(Connected, Disconnected) {
		return nil
	}
	return c.conn.Close()
}

func (c *TCPConn) RemoteAddr() string { return c.conn.RemoteAddr().String() }
func (c *TCPConn) Network() string    { return "tcp" }
func (c *TCPConn) State() State       { return c.state.load() }
