package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/service"
)

// EventHandler serves event CRUD and seat reservations.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

type createEventRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	City        string  `json:"city" validate:"required"`
	Address     string  `json:"address" validate:"required"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string  `json:"time" validate:"required,datetime=15:04"`
	EventType   string  `json:"event_type" validate:"required,oneof=torneo casual entrenamiento club"`
	SkillLevel  string  `json:"skill_level" validate:"required,oneof=principiante medio avanzado"`
	MaxSeats    int     `json:"max_seats" validate:"required,gt=0"`
	ImageURL    *string `json:"image_url"`
}

type joinResponse struct {
	Message      string `json:"message"`
	AttendanceID string `json:"attendance_id"`
}

// HandleList returns events matching the query filters, ordered by date.
//
// HTTP: GET /api/events?city=&date_filter=hoy|semana|mes&skill_level=&event_type=
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.events.List(r.Context(), service.EventQuery{
		City:       q.Get("city"),
		DateFilter: q.Get("date_filter"),
		SkillLevel: model.SkillLevel(q.Get("skill_level")),
		EventType:  model.EventType(q.Get("event_type")),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGet returns one event with its attendees. Authentication is
// optional; with it, user_joined tells whether the caller holds a seat.
//
// HTTP: GET /api/events/{event_id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.events.Get(r.Context(), chi.URLParam(r, "event_id"), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleCreate organises a new event as the caller.
//
// HTTP: POST /api/events
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	event, err := h.events.Create(r.Context(), currentUser(r), service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Date:        req.Date,
		Time:        req.Time,
		EventType:   model.EventType(req.EventType),
		SkillLevel:  model.SkillLevel(req.SkillLevel),
		MaxSeats:    req.MaxSeats,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event the caller organised.
//
// HTTP: DELETE /api/events/{event_id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), currentUser(r), chi.URLParam(r, "event_id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, "Event deleted")
}

// HandleJoin reserves a seat for the caller.
//
// HTTP: POST /api/events/{event_id}/join
func (h *EventHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	attendance, err := h.events.Join(r.Context(), currentUser(r), chi.URLParam(r, "event_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{Message: "Joined successfully", AttendanceID: attendance.ID})
}

// HandleLeave releases the caller's seat.
//
// HTTP: DELETE /api/events/{event_id}/leave
func (h *EventHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Leave(r.Context(), currentUser(r), chi.URLParam(r, "event_id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, "Left event successfully")
}

// HandleMine lists the caller's organised and joined events.
//
// HTTP: GET /api/me/events
func (h *EventHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	mine, err := h.events.MyEvents(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}
