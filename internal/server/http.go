package server

import (
	"encoding/json"
	"net/http"

	"streetfire-server/internal/version"
	"streetfire-server/pkg/logger"
	"streetfire-server/pkg/transport"
)

// routes собирает HTTP-роутер: WebSocket-вход для браузерных GUI, health и debug.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Регистрируем роуты
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", enableCORS(s.handleHealth))
	mux.HandleFunc("/version", enableCORS(s.handleVersion))

	debugHandler := NewDebugHandler(s)
	debugHandler.RegisterRoutes(mux)

	return mux
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Разрешаем запросы с фронтенда
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		next(w, r)
	}
}

// handleWS поднимает WebSocket и дальше обслуживает его так же, как TCP-подключение.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := transport.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.attach(transport.NewWebSocket(conn, s.cfg.WriteTimeout))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.isStopping() {
		http.Error(w, "stopping", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(version.Info())
}
