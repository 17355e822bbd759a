package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"streetfire-server/internal/capture"
	"streetfire-server/internal/config"
	"streetfire-server/internal/discovery"
	"streetfire-server/internal/engine"
	"streetfire-server/internal/queue"
	"streetfire-server/internal/server"
	"streetfire-server/internal/version"
	"streetfire-server/pkg/codec"
	"streetfire-server/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Конфигурация: .env и окружение, флаги поверх
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Failed to load config: ", err)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "Address to bind the GUI port to")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "GUI protocol TCP port (0 for any free port)")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP address for /ws, /health and /debug (empty to disable)")
	flag.StringVar(&cfg.DiscoveryAddr, "discovery", cfg.DiscoveryAddr, "UDP address of the discovery responder (empty to disable)")
	flag.StringVar(&cfg.CaptureDir, "capture", cfg.CaptureDir, "Directory for session captures (empty to disable)")
	tick := flag.Duration("tick", engine.DefaultTickInterval, "Game clock interval (0 disables round timers)")
	flag.Parse()

	logger.Log.Info("Starting Street Fire server...")
	logger.Log.Info(version.String())

	// 2. Очередь и движок
	q := queue.New()

	engineCfg := engine.NewConfig()
	engineCfg.TickInterval = *tick
	gameService := engine.NewService(engineCfg)

	opts := []server.Option{server.WithFactory(engine.NewFactory(engineCfg.Rules))}

	var rec *capture.Writer
	if cfg.CaptureDir != "" {
		w, path, err := capture.Create(cfg.CaptureDir)
		if err != nil {
			logger.Log.Fatal("Failed to create capture: ", err)
		}
		rec = w
		opts = append(opts, server.WithRecorder(rec))
		logger.Log.WithField("path", path).Info("💾 Recording session")
	}

	// 3. Сервер
	srv := server.New(server.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		HTTPAddr:        cfg.HTTPAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		OutboxSize:      cfg.OutboxSize,
	}, q, opts...)

	if err := srv.Start(); err != nil {
		logger.Log.Fatal("Server start error: ", err)
	}

	// 4. Ответчик обнаружения
	var responder *discovery.Responder
	if cfg.DiscoveryAddr != "" {
		ann := discovery.Announcement{
			Name:     cfg.Name,
			Host:     cfg.Host,
			Port:     srv.Addr().(*net.TCPAddr).Port,
			Protocol: int(codec.Version),
			Version:  version.String(),
		}
		if a, ok := srv.HTTPAddr().(*net.TCPAddr); ok {
			ann.HTTPPort = a.Port
		}
		responder, err = discovery.Listen(cfg.DiscoveryAddr, ann)
		if err != nil {
			// Без обнаружения консоль всё равно может подключиться по адресу.
			logger.Log.WithError(err).Warn("Discovery disabled")
		}
	}

	// 5. Игровой цикл
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- gameService.Run(ctx, q, srv) }()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Log.WithField("signal", sig.String()).Info("Shutting down...")
	case err := <-runErr:
		if errors.Is(err, engine.ErrKilled) {
			logger.Log.Info("Game killed by operator, shutting down...")
		} else if err != nil {
			logger.Log.WithError(err).Error("Game loop stopped")
		}
	}

	// Stop закрывает очередь, поэтому Run завершится сам.
	if err := srv.Stop(); err != nil {
		logger.Log.WithError(err).Warn("Server stop")
	}
	cancel()

	if responder != nil {
		responder.Close()
	}
	if rec != nil {
		count := rec.Count()
		if err := rec.Close(); err != nil {
			logger.Log.WithError(err).Error("Failed to close capture")
		} else {
			logger.Log.WithFields(logrus.Fields{"frames": count}).Info("Capture saved")
		}
	}

	logger.Log.Info("Done.")
}
