package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"streetfire-server/pkg/codec"
)

const (
	MagicHeader string = `SSFC` // 4 байта
	Version1    uint32 = 1

	// MaxFrameLen - кадр длиннее этого в файл не попадёт.
	MaxFrameLen = codec.HeaderSize + codec.MaxFrameSize
)

// Direction - в какую сторону шёл кадр.
type Direction uint8

const (
	Inbound  Direction = 1 // GUI -> движок
	Outbound Direction = 2 // движок -> GUI
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "IN"
	case Outbound:
		return "OUT"
	}
	return "?"
}

// FileHeader - точное представление заголовка файла.
// binary.Write пишет его целиком: здесь только массивы и числа.
type FileHeader struct {
	Magic     [4]byte // 4 байта
	Version   uint32  // 4 байта
	Protocol  uint8   // 1 байт, версия кодека
	_         [3]byte // выравнивание
	StartedAt int64   // 8 байт, unix nano
}

// RecordHeader - заголовок каждой записи.
type RecordHeader struct {
	OffsetMicros int64  // 8, от StartedAt
	Direction    uint8  // 1
	FrameLen     uint32 // 4
}

// Writer пишет кадры в файл записи сессии. Безопасен для конкурентного вызова:
// сервер пишет входящие кадры из разных горутин соединений.
type Writer struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	started time.Time
	count   int
}

// NewWriter пишет заголовок и возвращает Writer.
func NewWriter(w io.Writer) (*Writer, error) {
	started := time.Now()

	header := FileHeader{
		Version:   Version1,
		Protocol:  codec.Version,
		StartedAt: started.UnixNano(),
	}
	copy(header.Magic[:], MagicHeader)

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	cw := &Writer{w: bw, started: started}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw, nil
}

// Create создаёт файл capture_<unix>.ssfc в каталоге dir (каталог создаётся при необходимости).
func Create(dir string) (*Writer, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("capture_%d.ssfc", time.Now().Unix())
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, "", err
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	return w, path, nil
}

// Record добавляет кадр в запись.
func (w *Writer) Record(dir Direction, frame []byte) error {
	if len(frame) > MaxFrameLen {
		return fmt.Errorf("frame too long: %d", len(frame))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return os.ErrClosed
	}

	rh := RecordHeader{
		OffsetMicros: time.Since(w.started).Microseconds(),
		Direction:    uint8(dir),
		FrameLen:     uint32(len(frame)),
	}
	if err := binary.Write(w.w, binary.LittleEndian, &rh); err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count - сколько кадров записано.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	return w.w.Flush()
}

// Close сбрасывает буфер и закрывает файл. Повторный вызов ничего не делает.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	w.w = nil
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
