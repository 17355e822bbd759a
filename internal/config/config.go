package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"streetfire-server/internal/discovery"
	"streetfire-server/internal/network"
	"streetfire-server/pkg/logger"
	"streetfire-server/pkg/transport"
)

const (
	DefaultPort            = 45000
	DefaultHTTPAddr        = ":8081"
	DefaultShutdownTimeout = 2 * time.Second
)

// Config - параметры сервера. Флаги командной строки применяются поверх.
type Config struct {
	Name string
	Host string
	Port int
	// HTTPAddr - /ws, /health, /debug. Пусто - выключено.
	HTTPAddr string
	// DiscoveryAddr - UDP-адрес ответчика. Пусто - выключено.
	DiscoveryAddr   string
	ShutdownTimeout time.Duration
	WriteTimeout    time.Duration
	// CaptureDir - куда писать запись сессии. Пусто - не писать.
	CaptureDir string
	// OutboxSize - очередь исходящих кадров одного GUI.
	OutboxSize int
}

func Default() Config {
	return Config{
		Name:            "streetfire",
		Port:            DefaultPort,
		HTTPAddr:        DefaultHTTPAddr,
		DiscoveryAddr:   discovery.DefaultAddr,
		ShutdownTimeout: DefaultShutdownTimeout,
		WriteTimeout:    transport.DefaultWriteTimeout,
		OutboxSize:      network.DefaultOutboxSize,
	}
}

// Load читает .env (отсутствие файла - не ошибка) и переменные окружения SSF_*.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	} else {
		logger.Log.Debug("Successfully loaded environment variables")
	}

	cfg := Default()

	if v, ok := lookup("SSF_NAME"); ok {
		cfg.Name = v
	}
	if v, ok := lookup("SSF_HOST"); ok {
		cfg.Host = v
	}
	if v, ok := lookup("SSF_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return Config{}, fmt.Errorf("SSF_PORT=%q: invalid port", v)
		}
		cfg.Port = port
	}
	if v, ok := os.LookupEnv("SSF_HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := os.LookupEnv("SSF_DISCOVERY_ADDR"); ok {
		cfg.DiscoveryAddr = v
	}
	if v, ok := lookup("SSF_CAPTURE_DIR"); ok {
		cfg.CaptureDir = v
	}
	if v, ok := lookup("SSF_OUTBOX_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("SSF_OUTBOX_SIZE=%q: invalid size", v)
		}
		cfg.OutboxSize = n
	}

	var err error
	if cfg.ShutdownTimeout, err = duration("SSF_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = duration("SSF_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GetEnvVariable возвращает непустую переменную окружения.
func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil
}

func lookup(name string) (string, bool) {
	v, err := GetEnvVariable(name)
	return v, err == nil
}

func duration(name string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(name)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s=%q: invalid duration", name, v)
	}
	return d, nil
}
