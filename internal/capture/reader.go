package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"streetfire-server/pkg/api"
	"streetfire-server/pkg/codec"
)

// Record - один записанный кадр.
type Record struct {
	Offset    time.Duration
	Direction Direction
	Frame     []byte
}

// Message разбирает кадр записи.
func (r Record) Message() (api.Message, error) {
	return codec.Decode(r.Frame)
}

// Reader последовательно читает записи из файла.
type Reader struct {
	r       io.Reader
	closer  io.Closer
	Started time.Time
}

// Open открывает файл записи.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rd, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	rd.closer = f
	return rd, nil
}

// NewReader читает и проверяет заголовок.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	// 1. Читаем заголовок целиком
	var header FileHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Валидация
	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}
	if header.Protocol != codec.Version {
		return nil, fmt.Errorf("capture uses protocol v%d, this build speaks v%d", header.Protocol, codec.Version)
	}

	return &Reader{r: br, Started: time.Unix(0, header.StartedAt)}, nil
}

// Next возвращает следующую запись или io.EOF в конце файла.
// Обрезанный хвост (сервер упал посреди записи) - io.ErrUnexpectedEOF.
func (rd *Reader) Next() (Record, error) {
	var rh RecordHeader
	if err := binary.Read(rd.r, binary.LittleEndian, &rh); err != nil {
		return Record{}, err
	}
	if rh.FrameLen > MaxFrameLen {
		return Record{}, fmt.Errorf("record frame too long: %d", rh.FrameLen)
	}

	frame := make([]byte, rh.FrameLen)
	if _, err := io.ReadFull(rd.r, frame); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.ErrUnexpectedEOF
		}
		return Record{}, err
	}

	return Record{
		Offset:    time.Duration(rh.OffsetMicros) * time.Microsecond,
		Direction: Direction(rh.Direction),
		Frame:     frame,
	}, nil
}

// ReadAll читает все оставшиеся записи.
func (rd *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func (rd *Reader) Close() error {
	if rd.closer == nil {
		return nil
	}
	return rd.closer.Close()
}
