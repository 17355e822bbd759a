// Package client - подключение консоли оператора к игровому серверу.
//
// Жизненный цикл:
//  1. New -> клиент в состоянии DISCONNECTED.
//  2. Connect -> CONNECTING -> CONNECTED; сразу после подключения, до возврата
//     из Connect, серверу уходит команда Refresh (запрос полного состояния).
//  3. Методы-команды (ActivateEmitter, KillGame, ...) кодируют вызов и пишут его в сокет.
//  4. Фоновый цикл приёма разбирает события и раздаёт их слушателям в порядке прихода.
//  5. Disconnect, ошибка транспорта или EOF от сервера -> DISCONNECTED.
//     Переподключения нет: нужно снова вызвать Connect.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"streetfire-server/pkg/api"
	"streetfire-server/pkg/codec"
	"streetfire-server/pkg/logger"
	"streetfire-server/pkg/transport"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	// ErrServerClosed - сервер закрыл соединение (EOF).
	ErrServerClosed = errors.New("server closed the connection")
)

// Listener получает каждое событие. Вызывается из горутины приёма,
// поэтому долгие операции стоит выносить в отдельную горутину.
type Listener func(ev api.Event)

type Option func(*Client)

// WithWebSocket подключаться через ws://address:port<path> вместо голого TCP.
func WithWebSocket(path string) Option {
	return func(c *Client) { c.wsPath = path }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) { c.writeTimeout = d }
}

// session - одно установленное соединение.
type session struct {
	conn         transport.Conn
	done         chan struct{}
	once         sync.Once
	closedByUser atomic.Bool
}

type listenerEntry struct {
	id int
	fn Listener
}

type Client struct {
	address      string
	port         int
	wsPath       string
	writeTimeout time.Duration

	mu         sync.Mutex
	state      transport.State
	sess       *session
	lastErr    error
	cancelDial context.CancelFunc

	lmu          sync.RWMutex
	listeners    []listenerEntry
	nextListener int
	onDisconnect []func(error)
}

func New(address string, port int, opts ...Option) *Client {
	c := &Client{
		address: address,
		port:    port,
		state:   transport.Disconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr - адрес сервера в виде host:port.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.address, strconv.Itoa(c.port))
}

func (c *Client) State() transport.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool { return c.State() == transport.Connected }

// Err - причина последнего разрыва, не вызванного Disconnect.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect устанавливает соединение и отправляет Refresh.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != transport.Disconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = transport.Connecting
	c.lastErr = nil
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancelDial = cancel
	c.mu.Unlock()
	defer cancel()

	conn, err := c.dial(dialCtx)
	if err == nil {
		// Неявный Refresh - обязательная часть подключения: первый кадр в потоке.
		if werr := writeCommand(conn, api.Refresh{}); werr != nil {
			conn.Close()
			conn, err = nil, fmt.Errorf("send refresh: %w", werr)
		}
	}

	c.mu.Lock()
	c.cancelDial = nil
	if err == nil && dialCtx.Err() != nil {
		// Disconnect во время подключения.
		conn.Close()
		err = dialCtx.Err()
	}
	if err != nil {
		c.state = transport.Disconnected
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	sess := &session{conn: conn, done: make(chan struct{})}
	c.sess = sess
	c.state = transport.Connected
	c.mu.Unlock()

	go c.receiveLoop(sess)

	logger.Log.WithFields(logrus.Fields{
		"server":  c.Addr(),
		"network": conn.Network(),
	}).Info("Connected to game server")
	return nil
}

func (c *Client) dial(ctx context.Context) (transport.Conn, error) {
	if c.wsPath != "" {
		return transport.DialWebSocket(ctx, "ws://"+c.Addr()+c.wsPath, c.writeTimeout)
	}
	return transport.DialTCP(ctx, c.Addr(), c.writeTimeout)
}

// Disconnect закрывает соединение. Безопасен в любом состоянии.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.cancelDial != nil {
		c.cancelDial()
	}
	sess := c.sess
	if sess != nil {
		c.sess = nil
		c.state = transport.Disconnected
	}
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	sess.closedByUser.Store(true)
	err := sess.conn.Close()
	logger.Log.WithField("server", c.Addr()).Info("Disconnected from game server")
	return err
}

// Done закрывается, когда текущее соединение завершено (цикл приёма вышел).
// Без соединения возвращает уже закрытый канал.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return closedChan
	}
	return sess.done
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// OnEvent регистрирует слушателя событий. Возвращает функцию отписки.
func (c *Client) OnEvent(fn Listener) (remove func()) {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// OnDisconnect вызывается один раз на каждое завершённое соединение.
// err == nil, если соединение закрыто через Disconnect.
func (c *Client) OnDisconnect(fn func(err error)) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.onDisconnect = append(c.onDisconnect, fn)
}

// Send кодирует и отправляет произвольную команду.
func (c *Client) Send(cmd api.Command) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	if sess == nil {
		return ErrNotConnected
	}

	frame, err := codec.Encode(cmd)
	if err != nil {
		return err
	}
	if err := sess.conn.WriteFrame(frame); err != nil {
		c.terminate(sess, err)
		if errors.Is(err, transport.ErrClosed) {
			return ErrNotConnected
		}
		return fmt.Errorf("send %s: %w", cmd.Kind(), err)
	}
	return nil
}

func writeCommand(conn transport.Conn, cmd api.Command) error {
	frame, err := codec.Encode(cmd)
	if err != nil {
		return err
	}
	return conn.WriteFrame(frame)
}

func (c *Client) receiveLoop(sess *session) {
	for {
		frame, err := sess.conn.ReadFrame()
		if err != nil {
			// Сервер, закрывший сокет с непрочитанными данными, даёт RST вместо FIN.
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) {
				err = ErrServerClosed
			}
			c.terminate(sess, err)
			return
		}

		ev, err := codec.DecodeEvent(frame)
		if err != nil {
			logger.Log.WithError(err).Warn("Malformed event from server, disconnecting")
			c.terminate(sess, err)
			return
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev api.Event) {
	c.lmu.RLock()
	listeners := make([]Listener, len(c.listeners))
	for i, l := range c.listeners {
		listeners[i] = l.fn
	}
	c.lmu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// terminate переводит клиент в DISCONNECTED из-за ошибки соединения sess.
func (c *Client) terminate(sess *session, cause error) {
	byUser := sess.closedByUser.Load()

	c.mu.Lock()
	if c.sess == sess {
		c.sess = nil
		c.state = transport.Disconnected
	}
	if !byUser {
		c.lastErr = cause
	}
	c.mu.Unlock()

	sess.conn.Close()

	sess.once.Do(func() {
		if !byUser {
			logger.Log.WithError(cause).WithField("server", c.Addr()).Warn("Connection to game server lost")
		} else {
			cause = nil
		}

		c.lmu.RLock()
		hooks := append([]func(error){}, c.onDisconnect...)
		c.lmu.RUnlock()
		for _, fn := range hooks {
			fn(cause)
		}
		close(sess.done)
	})
}
