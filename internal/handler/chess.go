package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/service"
)

// ChessHandler exposes rating lookups and account linking for Chess.com
// and Lichess.
type ChessHandler struct {
	chess  *service.ChessService
	logger *slog.Logger
}

func NewChessHandler(chess *service.ChessService, logger *slog.Logger) *ChessHandler {
	return &ChessHandler{chess: chess, logger: logger}
}

type linkRequest struct {
	Platform string `json:"platform" validate:"required,oneof=chess_com lichess"`
	Username string `json:"username" validate:"required"`
}

type linkResponse struct {
	User   *model.User       `json:"user"`
	Rating *model.RatingInfo `json:"rating"`
}

type refreshResponse struct {
	User    *model.User           `json:"user"`
	Results []model.RefreshResult `json:"results"`
}

type userResponse struct {
	User *model.User `json:"user"`
}

// HandleLookup fetches current ratings without storing anything.
//
// HTTP: GET /api/chess/lookup/{platform}/{username}
func (h *ChessHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	info, err := h.chess.Lookup(r.Context(),
		model.Platform(chi.URLParam(r, "platform")),
		chi.URLParam(r, "username"),
	)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HTTP: POST /api/chess/link
// REQUEST BODY: {"platform": "lichess", "username": "DrNykterstein"}
func (h *ChessHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, info, err := h.chess.Link(r.Context(), currentUser(r).ID, model.Platform(req.Platform), req.Username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{User: user, Rating: info})
}

// HTTP: POST /api/chess/refresh
func (h *ChessHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	user, results, err := h.chess.RefreshAll(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{User: user, Results: results})
}

// HTTP: DELETE /api/chess/unlink/{platform}
func (h *ChessHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	user, err := h.chess.Unlink(r.Context(), currentUser(r).ID, model.Platform(chi.URLParam(r, "platform")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}
