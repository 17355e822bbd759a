// Package transport прячет за одним интерфейсом сокет, по которому ходят кадры
// протокола: обычное TCP-соединение или WebSocket.
package transport

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrClosed - операция над уже закрытым соединением.
var ErrClosed = errors.New("connection closed")

const (
	DefaultWriteTimeout = 5 * time.Second
	DefaultDialTimeout  = 5 * time.Second
)

// Conn - одно живое соединение, по которому передаются кадры кодека.
//
// ReadFrame вызывается только из одной горутины (цикла приёма).
// WriteFrame безопасен для конкурентного вызова: записи сериализуются
// внутренним мьютексом, поэтому кадры от разных писателей не перемешиваются.
// Close идемпотентен и разблокирует висящий ReadFrame.
type Conn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() string
	Network() string
	State() State
}

// State - состояние соединения.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	}
	return "UNKNOWN"
}

// stateFlag - потокобезопасное хранилище State.
type stateFlag struct {
	v atomic.Int32
}

func (f *stateFlag) load() State   { return State(f.v.Load()) }
func (f *stateFlag) store(s State) { f.v.Store(int32(s)) }

// swap переводит флаг из from в to и сообщает, удалось ли.
func (f *stateFlag) swap(from, to State) bool {
	return f.v.CompareAndSwap(int32(from), int32(to))
}
