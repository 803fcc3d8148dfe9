package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/searchparty-game/searchparty/internal/gateway"
	"github.com/searchparty-game/searchparty/internal/middleware"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Logger  *slog.Logger
	Gateway *gateway.Gateway
}

// NewRouter creates the router. The whole game speaks over the one
// WebSocket endpoint; the rest is operational surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Handle("/ws", cfg.Gateway).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
