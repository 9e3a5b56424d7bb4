package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/service"
)

type UserHandler struct {
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewUserHandler(identity *service.IdentityService, logger *slog.Logger) *UserHandler {
	return &UserHandler{identity: identity, logger: logger}
}

// updateProfileRequest keeps every field a pointer: absent means unchanged.
type updateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1"`
	SkillLevel *string `json:"skill_level" validate:"omitempty,oneof=principiante medio avanzado"`
	City       *string `json:"city"`
	Bio        *string `json:"bio"`
	Picture    *string `json:"picture"`
}

func (req updateProfileRequest) toUpdate() model.ProfileUpdate {
	update := model.ProfileUpdate{
		Name:    req.Name,
		City:    req.City,
		Bio:     req.Bio,
		Picture: req.Picture,
	}
	if req.SkillLevel != nil {
		level := model.SkillLevel(*req.SkillLevel)
		update.SkillLevel = &level
	}
	return update
}

// HandleGet returns a public profile.
//
// HTTP: GET /api/users/{user_id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetProfile(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateMe applies a partial profile update.
//
// HTTP: PUT /api/users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.identity.UpdateProfile(r.Context(), currentUser(r).ID, req.toUpdate())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
