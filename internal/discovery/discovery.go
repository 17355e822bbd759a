// Package discovery - поиск игрового сервера в локальной сети.
//
// Сервер слушает UDP (по умолчанию multicast-группу) и на каждый пробный
// пакет отвечает отправителю JSON-объявлением с адресом GUI-порта.
// Консоль рассылает пробу и собирает ответы до истечения таймаута.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"streetfire-server/pkg/logger"
)

const (
	DefaultAddr         = "230.42.0.10:42010"
	DefaultProbeTimeout = time.Second

	maxPacket = 1024
)

// readBackoff - пауза после ошибки чтения, чтобы постоянная ошибка
// не крутила цикл вхолостую.
var readBackoff = 50 * time.Millisecond

// packetConn - то, что ответчику нужно от UDP-сокета.
type packetConn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	LocalAddr() net.Addr
	Close() error
}

// ProbeMessage - содержимое пробного пакета.
var ProbeMessage = []byte("SSF_DISCOVER")

// Announcement - ответ сервера на пробу.
type Announcement struct {
	Name string `json:"name"`
	// Host пустой или 0.0.0.0 - клиент подставит адрес отправителя ответа.
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port"`
	HTTPPort int    `json:"httpPort,omitempty"`
	Protocol int    `json:"protocol"`
	Version  string `json:"version,omitempty"`
}

// Addr - адрес GUI-порта в виде host:port.
func (a Announcement) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Responder отвечает на пробы.
type Responder struct {
	conn    packetConn
	payload []byte

	closeOnce sync.Once
	done      chan struct{}
}

// Listen открывает UDP-порт addr. Для multicast-адреса вступает в группу на всех интерфейсах.
func Listen(addr string, ann Announcement) (*Responder, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	var conn *net.UDPConn
	if udpAddr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp4", nil, udpAddr)
	} else {
		conn, err = net.ListenUDP("udp4", udpAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	payload, err := json.Marshal(ann)
	if err != nil {
		conn.Close()
		return nil, err
	}

	r := &Responder{
		conn:    conn,
		payload: payload,
		done:    make(chan struct{}),
	}
	go r.serve()

	logger.Log.WithFields(logrus.Fields{
		"addr": conn.LocalAddr().String(),
		"gui":  ann.Addr(),
	}).Info("Discovery responder listening")
	return r, nil
}

func (r *Responder) Addr() net.Addr { return r.conn.LocalAddr() }

func (r *Responder) serve() {
	defer close(r.done)

	buf := make([]byte, maxPacket)
	for {
		n, raddr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Log.WithError(err).Debug("discovery read failed")
			time.Sleep(readBackoff)
			continue
		}
		if !bytes.Equal(bytes.TrimSpace(buf[:n]), ProbeMessage) {
			continue
		}
		if _, err := r.conn.WriteToUDP(r.payload, raddr); err != nil {
			logger.Log.WithError(err).WithField("remote", raddr.String()).Debug("discovery reply failed")
			continue
		}
		logger.Log.WithField("remote", raddr.String()).Debug("Discovery probe answered")
	}
}

// Close останавливает ответчик. Повторный вызов безопасен.
func (r *Responder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.conn.Close()
		<-r.done
	})
	return err
}

// Probe отправляет пробу на addr и собирает ответы, пока не истечёт ctx
// (без дедлайна в ctx ждёт DefaultProbeTimeout). Одинаковые серверы схлопываются.
func Probe(ctx context.Context, addr string) ([]Announcement, error) {
	raddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultProbeTimeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	if _, err := conn.WriteToUDP(ProbeMessage, raddr); err != nil {
		return nil, fmt.Errorf("send probe: %w", err)
	}

	var (
		found []Announcement
		seen  = make(map[string]bool)
		buf   = make([]byte, maxPacket)
	)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return found, nil
			}
			return found, err
		}

		var ann Announcement
		if err := json.Unmarshal(buf[:n], &ann); err != nil {
			logger.Log.WithError(err).WithField("remote", from.String()).Debug("bad discovery reply")
			continue
		}
		if ann.Host == "" || net.ParseIP(ann.Host).IsUnspecified() {
			ann.Host = from.IP.String()
		}
		if seen[ann.Addr()] {
			continue
		}
		seen[ann.Addr()] = true
		found = append(found, ann)
	}
}
