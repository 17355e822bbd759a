package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"streetfire-server/pkg/codec"
)

// Upgrader для входящих WebSocket-подключений GUI.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConn - соединение поверх WebSocket. Одно бинарное сообщение = один кадр кодека
// (вместе с префиксом длины), чтобы формат на проводе совпадал с TCP.
type WSConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	state   stateFlag
}

func NewWebSocket(conn *websocket.Conn, writeTimeout time.Duration) *WSConn {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	conn.SetReadLimit(codec.HeaderSize + codec.MaxFrameSize)
	c := &WSConn{conn: conn, writeTimeout: writeTimeout}
	c.state.store(Connected)
	return c
}

// DialWebSocket подключается к ws:// адресу.
func DialWebSocket(ctx context.Context, url string, writeTimeout time.Duration) (*WSConn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultDialTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocket(conn, writeTimeout), nil
}

func (c *WSConn) ReadFrame() ([]byte, error) {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		if c.state.load() == Disconnected {
			return nil, ErrClosed
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		// Текстовые сообщения протоколом не предусмотрены.
		return nil, fmt.Errorf("%w: unexpected websocket message type %d", codec.ErrMalformed, mt)
	}

	r := bytes.NewReader(data)
	frame, err := codec.ReadFrame(r)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket message is not a single frame: %v", codec.ErrMalformed, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after frame in websocket message", codec.ErrMalformed, r.Len())
	}
	return frame, nil
}

func (c *WSConn) WriteFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.state.load() != Connected {
		return ErrClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Close отправляет close-фрейм (best effort) и закрывает сокет.
func (c *WSConn) Close() error {
	if !c.state.swap(Connected, Disconnected) {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *WSConn) RemoteAddr() string { return c.conn.RemoteAddr().String() }
func (c *WSConn) Network() string    { return "ws" }
func (c *WSConn) State() State       { return c.state.load() }
