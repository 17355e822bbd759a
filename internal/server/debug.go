package server

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"streetfire-server/internal/queue"
)

// StatsSource - очередь, умеющая отдать счётчики (internal/queue.Queue).
type StatsSource interface {
	Stats() queue.Stats
}

// DebugHandler предоставляет доступ к внутреннему состоянию сервера
type DebugHandler struct {
	Server *Server
}

func NewDebugHandler(s *Server) *DebugHandler {
	return &DebugHandler{Server: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/connections", h.handleConnections)
	mux.HandleFunc("/debug/queue", h.handleQueue)

	// Профилирование. DefaultServeMux не используем, поэтому регистрируем вручную.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// /debug/connections - список открытых соединений GUI
func (h *DebugHandler) handleConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Server.Hub.Snapshot())
}

// /debug/queue - счётчики очереди команд
func (h *DebugHandler) handleQueue(w http.ResponseWriter, r *http.Request) {
	src, ok := h.Server.sink.(StatsSource)
	if !ok {
		http.Error(w, "queue does not expose stats", http.StatusNotFound)
		return
	}
	writeJSON(w, src.Stats())
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	// Разрешаем запросы с любого источника (нужно для локальной debug-страницы)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// Если data == nil, возвращаем пустой массив [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
