package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/seed"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the operational endpoints: health and demo seeding.
type SystemHandler struct {
	store  Pinger
	seeder *seed.Seeder
	logger *slog.Logger
}

func NewSystemHandler(store Pinger, seeder *seed.Seeder, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{store: store, seeder: seeder, logger: logger}
}

// HandleHealth answers 200 while the store responds, 503 otherwise.
//
// HTTP: GET /healthz
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeError(w, r, h.logger, apperror.Unavailable(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSeed loads the demo clubs and events once.
//
// HTTP: POST /api/seed
func (h *SystemHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	res, err := h.seeder.Run(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
