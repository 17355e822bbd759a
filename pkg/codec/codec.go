// Package codec реализует бинарный формат протокола GUI.
//
// Каждое сообщение передаётся кадром:
//
//	[u32 BE длина тела][тело]
//	тело = [u8 версия протокола][u8 Kind][полезная нагрузка]
//
// Кадр самоограничен, поэтому получатель всегда знает границы сообщений,
// даже если нагрузка содержит поля переменной длины.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"streetfire-server/pkg/api"
)

const (
	// Version - версия формата. Обе стороны обязаны совпадать.
	Version uint8 = 1

	// HeaderSize - размер префикса длины.
	HeaderSize = 4

	// MaxFrameSize ограничивает тело одного кадра.
	MaxFrameSize = 64 * 1024

	bodyHeaderSize = 2
)

var (
	// ErrMalformed - байты не соответствуют ни одному корректному сообщению.
	ErrMalformed = errors.New("malformed message")

	// ErrInvalid - попытка закодировать сообщение с недопустимыми полями.
	ErrInvalid = errors.New("invalid message")
)

// Marshal кодирует тело сообщения (без префикса длины).
func Marshal(msg api.Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalid)
	}
	v, ok := variants[msg.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported kind %d", ErrInvalid, msg.Kind())
	}
	if val, ok := msg.(api.Validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, msg.Kind(), err)
		}
	}

	w := &writer{buf: make([]byte, 0, 32)}
	w.u8(Version)
	w.u8(uint8(msg.Kind()))
	v.encode(w, msg)

	if len(w.buf) > MaxFrameSize {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds limit", ErrInvalid, len(w.buf))
	}
	return w.buf, nil
}

// Unmarshal разбирает тело сообщения. Никогда не возвращает частично
// заполненное сообщение: либо корректное значение, либо ошибку ErrMalformed.
func Unmarshal(body []byte) (api.Message, error) {
	if len(body) < bodyHeaderSize {
		return nil, fmt.Errorf("%w: body of %d bytes is too short", ErrMalformed, len(body))
	}
	if body[0] != Version {
		return nil, fmt.Errorf("%w: unsupported protocol version %d (expected %d)", ErrMalformed, body[0], Version)
	}

	kind := api.Kind(body[1])
	v, ok := variants[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown message kind %d", ErrMalformed, body[1])
	}

	r := &reader{buf: body, off: bodyHeaderSize}
	msg := v.decode(r)
	if err := r.finish(); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	if val, ok := msg.(api.Validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
		}
	}
	return msg, nil
}

// Encode возвращает полный кадр сообщения вместе с префиксом длины.
func Encode(msg api.Message) ([]byte, error) {
	body, err := Marshal(msg)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, HeaderSize, HeaderSize+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	return append(frame, body...), nil
}

// Decode разбирает ровно один полный кадр.
func Decode(frame []byte) (api.Message, error) {
	if len(frame) < HeaderSize {
		return nil, fmt.Errorf("%w: frame of %d bytes has no length prefix", ErrMalformed, len(frame))
	}
	n := binary.BigEndian.Uint32(frame)
	if int64(n) != int64(len(frame)-HeaderSize) {
		return nil, fmt.Errorf("%w: length prefix %d does not match body of %d bytes", ErrMalformed, n, len(frame)-HeaderSize)
	}
	return Unmarshal(frame[HeaderSize:])
}

// DecodeCommand - как Decode, но событие в потоке команд считается ошибкой.
func DecodeCommand(frame []byte) (api.Command, error) {
	msg, err := Decode(frame)
	if err != nil {
		return nil, err
	}
	cmd, ok := msg.(api.Command)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a command", ErrMalformed, msg.Kind())
	}
	return cmd, nil
}

// DecodeEvent - как Decode, но команда в потоке событий считается ошибкой.
func DecodeEvent(frame []byte) (api.Event, error) {
	msg, err := Decode(frame)
	if err != nil {
		return nil, err
	}
	ev, ok := msg.(api.Event)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an event", ErrMalformed, msg.Kind())
	}
	return ev, nil
}

// ReadFrame читает из потока один кадр целиком (с префиксом длины).
// Конец потока ровно на границе кадра - io.EOF, внутри кадра - io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(header[:])
	if n < bodyHeaderSize {
		return nil, fmt.Errorf("%w: frame length %d is too short", ErrMalformed, n)
	}
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: frame length %d exceeds limit %d", ErrMalformed, n, MaxFrameSize)
	}

	frame := make([]byte, HeaderSize+int(n))
	copy(frame, header[:])
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

// WriteMessage кодирует сообщение и пишет кадр одним вызовом Write.
func WriteMessage(w io.Writer, msg api.Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadMessage читает и разбирает следующий кадр.
func ReadMessage(r io.Reader) (api.Message, error) {
	frame, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(frame)
}
