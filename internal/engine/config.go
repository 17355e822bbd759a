package engine

import (
	"time"

	"streetfire-server/internal/domain"
)

const DefaultTickInterval = time.Second

// Config хранит параметры запуска движка
type Config struct {
	Rules domain.Rules
	// TickInterval - период отсчёта и таймера раунда. 0 отключает таймеры
	// (удобно в тестах: время двигается вызовами Tick).
	TickInterval time.Duration
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	return Config{
		Rules:        domain.DefaultRules(),
		TickInterval: DefaultTickInterval,
	}
}
