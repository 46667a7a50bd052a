package handlers

import (
	"encoding/json"
	"net/http"

	"tryon/internal/infra"
	"tryon/internal/queue"
	"tryon/internal/status"
	"tryon/internal/storage"
)

// App is the container handlers hang off; cmd/api wires its dependencies.
type App struct {
	Config *infra.Config
	Logger infra.Logger
	Queue  queue.Queue
	Status *status.Service
	Store  *storage.FileStore
}

func NewApp(cfg *infra.Config, logger infra.Logger, q queue.Queue, st *status.Service, store *storage.FileStore) *App {
	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  q,
		Status: st,
		Store:  store,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": message,
	})
}
