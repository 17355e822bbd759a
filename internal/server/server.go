package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"streetfire-server/internal/capture"
	"streetfire-server/internal/network"
	"streetfire-server/pkg/api"
	"streetfire-server/pkg/codec"
	"streetfire-server/pkg/logger"
	"streetfire-server/pkg/transport"
)

// ErrShutdownTimeout - Stop не дождался завершения всех циклов приёма.
var ErrShutdownTimeout = errors.New("server shutdown timed out")

// ErrStopped - сервер уже остановлен и повторно не запускается.
var ErrStopped = errors.New("server stopped")

const DefaultShutdownTimeout = 2 * time.Second

// Sink - сторона очереди команд, в которую пишет сервер.
type Sink interface {
	Push(cmd api.Command) bool
	Close()
}

// CommandFactory - движок может проверить или преобразовать команду до постановки в очередь.
// Ошибка означает, что команда отклонена; соединение при этом остаётся открытым.
type CommandFactory interface {
	Build(cmd api.Command) (api.Command, error)
}

// Recorder получает копию каждого кадра (запись сессии).
type Recorder interface {
	Record(dir capture.Direction, frame []byte) error
}

// Config - параметры сервера.
type Config struct {
	Host string
	// Port 0 - выбрать свободный порт (см. Addr).
	Port int
	// HTTPAddr - адрес для /ws, /health и /debug. Пустая строка отключает HTTP.
	HTTPAddr        string
	ShutdownTimeout time.Duration
	WriteTimeout    time.Duration
	// OutboxSize - очередь исходящих кадров одного GUI. Переполнение
	// означает, что GUI не читает, и соединение закрывается.
	OutboxSize int
}

type Option func(*Server)

func WithFactory(f CommandFactory) Option {
	return func(s *Server) { s.factory = f }
}

func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// Server принимает подключения GUI и складывает пришедшие команды в Sink.
type Server struct {
	cfg      Config
	sink     Sink
	factory  CommandFactory
	recorder Recorder

	Hub *network.Broadcaster

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	httpLn   net.Listener
	started  bool
	stopping bool

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

func New(cfg Config, sink Sink, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = transport.DefaultWriteTimeout
	}
	s := &Server{
		cfg:  cfg,
		sink: sink,
		Hub:  network.NewBroadcaster(cfg.OutboxSize),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start синхронно открывает порт(ы) и запускает цикл приёма подключений в отдельной горутине.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return ErrStopped
	}
	if s.started {
		return errors.New("server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	if s.cfg.HTTPAddr != "" {
		httpLn, err := net.Listen("tcp", s.cfg.HTTPAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen http %s: %w", s.cfg.HTTPAddr, err)
		}
		s.httpLn = httpLn
		s.httpSrv = &http.Server{
			Handler:           s.routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.WithError(err).Error("HTTP server stopped")
			}
		}()
	}

	s.listener = ln
	s.started = true

	s.wg.Add(1)
	go s.acceptLoop(ln)

	fields := logrus.Fields{"addr": ln.Addr().String()}
	if s.httpLn != nil {
		fields["http"] = s.httpLn.Addr().String()
	}
	logger.Log.WithFields(fields).Info("GUI protocol server listening")
	return nil
}

// Addr - фактический адрес TCP-порта (nil до Start).
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// HTTPAddr - фактический адрес HTTP-порта (nil, если HTTP выключен).
func (s *Server) HTTPAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpLn == nil {
		return nil
	}
	return s.httpLn.Addr()
}

// Done закрывается после завершения Stop.
func (s *Server) Done() <-chan struct{} { return s.done }

// ConnectionCount - число открытых соединений.
func (s *Server) ConnectionCount() int { return s.Hub.Count() }

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isStopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Log.WithError(err).Warn("accept failed")
			// Временные ошибки (нехватка дескрипторов) не должны крутить цикл вхолостую.
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		s.attach(transport.NewTCP(conn, s.cfg.WriteTimeout))
	}
}

// attach регистрирует соединение и запускает для него цикл приёма.
func (s *Server) attach(conn transport.Conn) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		conn.Close()
		return
	}
	// wg.Add и Register под мьютексом: shutdown либо увидит соединение
	// в своём снимке, либо мы увидим stopping.
	s.wg.Add(1)
	peer := s.Hub.Register(conn)
	s.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{
		"peer":    peer.ID,
		"remote":  conn.RemoteAddr(),
		"network": conn.Network(),
	}).Info("GUI connected")

	go s.receiveLoop(peer)
}

// receiveLoop - один на соединение. Читает кадры и кладёт команды в очередь.
func (s *Server) receiveLoop(peer *network.Peer) {
	defer s.wg.Done()

	log := logger.Log.WithField("peer", peer.ID)
	reason := "closed"
	defer func() {
		s.drop(peer, reason)
	}()

	for {
		frame, err := peer.Conn.ReadFrame()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				reason = "peer closed connection"
			case errors.Is(err, transport.ErrClosed):
				reason = "closed by server"
			case errors.Is(err, codec.ErrMalformed):
				reason = "malformed frame"
				log.WithError(err).Warn("Malformed frame, closing connection")
			default:
				reason = "read error"
				log.WithError(err).Debug("read failed")
			}
			return
		}

		s.record(capture.Inbound, frame)

		cmd, err := codec.DecodeCommand(frame)
		if err != nil {
			// Дальше читать нельзя: на битом потоке нет гарантии границ кадров.
			reason = "malformed command"
			log.WithError(err).Warn("Malformed command, closing connection")
			return
		}

		if s.factory != nil {
			built, err := s.factory.Build(cmd)
			if err != nil {
				log.WithError(err).WithField("kind", cmd.Kind().String()).Warn("Command rejected")
				continue
			}
			cmd = built
		}

		if !s.sink.Push(cmd) {
			reason = "command queue closed"
			log.WithField("kind", cmd.Kind().String()).Debug("Queue closed, command dropped")
			return
		}
		log.WithField("kind", cmd.Kind().String()).Debug("Command queued")
	}
}

func (s *Server) drop(peer *network.Peer, reason string) {
	if !s.Hub.Unregister(peer.ID) {
		return
	}
	if err := peer.Conn.Close(); err != nil {
		logger.Log.WithError(err).WithField("peer", peer.ID).Debug("close failed")
	}
	logger.Log.WithFields(logrus.Fields{
		"peer":   peer.ID,
		"reason": reason,
	}).Info("GUI disconnected")
}

// Broadcast кодирует событие один раз и ставит его в очередь каждого соединения.
// Запись идёт в горутинах соединений, поэтому вызов не блокируется на сокетах.
// Соединение с переполненной очередью закрывается.
func (s *Server) Broadcast(ev api.Event) error {
	frame, err := codec.Encode(ev)
	if err != nil {
		return err
	}
	s.record(capture.Outbound, frame)

	queued, overflowed := s.Hub.Broadcast(frame)
	for _, p := range overflowed {
		// Закрытие разбудит receiveLoop, он сам снимет регистрацию.
		logger.Log.WithField("peer", p.ID).Warn("Outbox overflow, closing connection")
		p.Conn.Close()
	}
	logger.Log.WithFields(logrus.Fields{
		"kind":   ev.Kind().String(),
		"queued": queued,
	}).Debug("Event broadcast")
	return nil
}

func (s *Server) record(dir capture.Direction, frame []byte) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(dir, frame); err != nil {
		logger.Log.WithError(err).Warn("capture write failed")
	}
}

func (s *Server) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Stop перестаёт принимать подключения, закрывает все соединения,
// ждёт циклы приёма не дольше ShutdownTimeout и закрывает очередь.
// Повторные вызовы возвращают результат первого.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.shutdown()
		close(s.done)
	})
	return s.stopErr
}

func (s *Server) shutdown() error {
	s.mu.Lock()
	s.stopping = true
	ln, httpSrv := s.listener, s.httpSrv
	s.mu.Unlock()

	logger.Log.Info("Stopping GUI protocol server...")

	// (a) больше не принимаем подключения
	if ln != nil {
		ln.Close()
	}
	if httpSrv != nil {
		httpSrv.Close()
	}

	// (b) закрываем все соединения: заблокированные чтения вернут ошибку
	for _, p := range s.Hub.Peers() {
		p.Conn.Close()
	}

	// (c) ждём циклы с ограничением по времени
	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()

	var err error
	select {
	case <-waited:
	case <-time.After(s.cfg.ShutdownTimeout):
		err = fmt.Errorf("%w after %s (%d connections)", ErrShutdownTimeout, s.cfg.ShutdownTimeout, s.Hub.Count())
		logger.Log.WithError(err).Warn("Shutdown did not complete in time")
	}

	// (d) всё, что осталось зарегистрированным, закрываем принудительно
	for _, p := range s.Hub.Peers() {
		s.drop(p, "server shutdown")
	}

	if s.sink != nil {
		s.sink.Close()
	}
	logger.Log.Info("GUI protocol server stopped")
	return err
}
