package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/service"
)

type ClubHandler struct {
	clubs  *service.ClubService
	logger *slog.Logger
}

func NewClubHandler(clubs *service.ClubService, logger *slog.Logger) *ClubHandler {
	return &ClubHandler{clubs: clubs, logger: logger}
}

type addMemberRequest struct {
	UserEmail  string `json:"user_email" validate:"required,email"`
	SkillLevel string `json:"skill_level" validate:"omitempty,oneof=principiante medio avanzado"`
}

// HandleList returns clubs with live member and event counts.
//
// HTTP: GET /api/clubs?city=barcelona
func (h *ClubHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.clubs.ListClubs(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

// HandleGet returns a club with its roster and upcoming events.
//
// HTTP: GET /api/clubs/{club_id}
func (h *ClubHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	club, err := h.clubs.GetClub(r.Context(), chi.URLParam(r, "club_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

// HandleAddMember adds a registered user to the caller's club.
//
// HTTP: POST /api/clubs/members
// REQUEST BODY: {"user_email": "ana@example.com", "skill_level": "medio"}
func (h *ClubHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	member, err := h.clubs.AddMember(r.Context(), currentUser(r), req.UserEmail, model.SkillLevel(req.SkillLevel))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// HandleRemoveMember removes a member of the caller's club.
//
// HTTP: DELETE /api/clubs/members/{member_id}
func (h *ClubHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.clubs.RemoveMember(r.Context(), currentUser(r), chi.URLParam(r, "member_id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, "Member removed")
}
