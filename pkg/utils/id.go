package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateID создаёт короткий случайный идентификатор вида "<prefix>-<8 hex>".
// Используется для подписей соединений в логах и для запросов discovery.
func GenerateID(prefix string) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random ID: " + err.Error())
	}
	if prefix == "" {
		return hex.EncodeToString(b)
	}
	return prefix + "-" + hex.EncodeToString(b)
}
