package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

// Date windows accepted by List.
const (
	DateFilterToday = "hoy"
	DateFilterWeek  = "semana"
	DateFilterMonth = "mes"
)

// AttendanceObserver is notified of seat changes. The metrics package
// provides the production implementation.
type AttendanceObserver interface {
	EventJoined(eventID string)
	EventLeft(eventID string, clamped bool)
	JoinRejected(code string)
}

type noopObserver struct{}

func (noopObserver) EventJoined(string)     {}
func (noopObserver) EventLeft(string, bool) {}
func (noopObserver) JoinRejected(string)    {}

// EventQuery carries the listEvents filters as received from the caller.
type EventQuery struct {
	City       string
	DateFilter string
	SkillLevel model.SkillLevel
	EventType  model.EventType
}

// CreateEventInput is the organizer-supplied part of an event.
type CreateEventInput struct {
	Title       string
	Description string
	City        string
	Address     string
	Date        string
	Time        string
	EventType   model.EventType
	SkillLevel  model.SkillLevel
	MaxSeats    int
	ImageURL    *string
}

// EventService runs the event lifecycle and seat reservations.
type EventService struct {
	events   repository.EventRepository
	now      repository.Clock
	observer AttendanceObserver
	logger   *slog.Logger
}

func NewEventService(events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{
		events:   events,
		now:      defaultClock,
		observer: noopObserver{},
		logger:   logger,
	}
}

func (s *EventService) WithClock(now repository.Clock) *EventService {
	s.now = now
	return s
}

func (s *EventService) WithObserver(o AttendanceObserver) *EventService {
	s.observer = o
	return s
}

// List returns events ordered by date. Unknown date filters are ignored.
func (s *EventService) List(ctx context.Context, q EventQuery) ([]model.Event, error) {
	filter := repository.EventFilter{
		City:       strings.TrimSpace(q.City),
		SkillLevel: q.SkillLevel,
		EventType:  q.EventType,
		Limit:      repository.MaxEventList,
	}
	filter.DateFrom, filter.DateTo = dateWindow(q.DateFilter, s.now())
	return s.events.ListEvents(ctx, filter)
}

// dateWindow maps a named filter to a [from, to) pair of ISO dates.
func dateWindow(name string, now time.Time) (from, to string) {
	var days int
	switch name {
	case DateFilterToday:
		days = 1
	case DateFilterWeek:
		days = 7
	case DateFilterMonth:
		days = 30
	default:
		return "", ""
	}
	today := now.UTC()
	return today.Format(dateLayout), today.AddDate(0, 0, days).Format(dateLayout)
}

// Get returns the event with its attendees. viewer may be nil, in which case
// UserJoined is false.
func (s *EventService) Get(ctx context.Context, eventID string, viewer *model.User) (*model.EventDetail, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, eventNotFound(err)
	}
	attendees, err := s.events.ListAttendees(ctx, eventID, repository.MaxAttendeeList)
	if err != nil {
		return nil, err
	}

	detail := &model.EventDetail{Event: *event, Attendees: attendees}
	if viewer != nil {
		_, err := s.events.GetAttendance(ctx, viewer.ID, eventID)
		switch {
		case err == nil:
			detail.UserJoined = true
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
	}
	return detail, nil
}

// Create stores a new event organised by organizer.
func (s *EventService) Create(ctx context.Context, organizer *model.User, in CreateEventInput) (*model.Event, error) {
	event := &model.Event{
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.Name,
		OrganizerType: organizer.UserType,
		Title:         plainText(in.Title),
		Description:   plainText(in.Description),
		City:          strings.TrimSpace(in.City),
		Address:       strings.TrimSpace(in.Address),
		Date:          strings.TrimSpace(in.Date),
		Time:          strings.TrimSpace(in.Time),
		EventType:     in.EventType,
		SkillLevel:    in.SkillLevel,
		MaxSeats:      in.MaxSeats,
		ImageURL:      model.DefaultEventImage,
	}
	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) != "" {
		event.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event created", "event_id", event.ID, "organizer_id", organizer.ID, "max_seats", event.MaxSeats)
	return event, nil
}

func validateEvent(e *model.Event) error {
	switch {
	case e.Title == "":
		return apperror.ValidationFailed("title", "title is required")
	case e.City == "":
		return apperror.ValidationFailed("city", "city is required")
	case e.Address == "":
		return apperror.ValidationFailed("address", "address is required")
	case !e.EventType.Valid():
		return apperror.ValidationFailed("event_type", "event_type must be torneo, casual, entrenamiento or club")
	case !e.SkillLevel.Valid():
		return apperror.ValidationFailed("skill_level", "skill_level must be principiante, medio or avanzado")
	case e.MaxSeats <= 0:
		return apperror.ValidationFailed("max_seats", "max_seats must be greater than 0")
	}
	// Dates are compared as strings, so only the zero-padded form is accepted.
	if d, err := time.Parse(dateLayout, e.Date); err != nil || d.Format(dateLayout) != e.Date {
		return apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}
	if t, err := time.Parse("15:04", e.Time); err != nil || t.Format("15:04") != e.Time {
		return apperror.ValidationFailed("time", "time must be HH:MM")
	}
	return nil
}

// Delete removes an event and every attendance row for it. Only the
// organizer may delete.
func (s *EventService) Delete(ctx context.Context, user *model.User, eventID string) error {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return eventNotFound(err)
	}
	if event.OrganizerID != user.ID {
		return apperror.Forbidden("Not authorized")
	}
	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		return eventNotFound(err)
	}

	s.logger.Info("event deleted", "event_id", eventID, "organizer_id", user.ID)
	return nil
}

// Join reserves a seat for user. The capacity check and the increment run
// in one repository transaction.
func (s *EventService) Join(ctx context.Context, user *model.User, eventID string) (*model.Attendance, error) {
	attendance := &model.Attendance{
		UserID:   user.ID,
		UserName: user.Name,
		EventID:  eventID,
		Status:   model.AttendanceJoined,
	}
	if err := s.events.JoinEvent(ctx, attendance); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			s.observer.JoinRejected(appErr.Code)
		}
		return nil, eventNotFound(err)
	}

	s.observer.EventJoined(eventID)
	s.logger.Info("event joined", "event_id", eventID, "user_id", user.ID, "attendance_id", attendance.ID)
	return attendance, nil
}

// Leave releases user's seat. A seat counter that was already zero is left
// at zero and logged, since it means the counter drifted from the rows.
func (s *EventService) Leave(ctx context.Context, user *model.User, eventID string) error {
	clamped, err := s.events.LeaveEvent(ctx, user.ID, eventID)
	if err != nil {
		return err
	}

	s.observer.EventLeft(eventID, clamped)
	if clamped {
		s.logger.Warn("seat counter already zero on leave", "event_id", eventID, "user_id", user.ID)
	}
	s.logger.Info("event left", "event_id", eventID, "user_id", user.ID)
	return nil
}

// MyEvents lists what user organises and what they joined, both by date.
func (s *EventService) MyEvents(ctx context.Context, user *model.User) (*model.MyEvents, error) {
	organized, err := s.events.ListEvents(ctx, repository.EventFilter{
		OrganizerID: user.ID,
		Limit:       repository.MaxEventList,
	})
	if err != nil {
		return nil, err
	}
	joined, err := s.events.ListJoinedEvents(ctx, user.ID, repository.MaxEventList)
	if err != nil {
		return nil, err
	}
	return &model.MyEvents{Organized: organized, Joined: joined}, nil
}

// eventNotFound rewrites the store's id-keyed not-found error into the
// message clients expect. Other errors pass through.
func eventNotFound(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == apperror.CodeNotFound {
		return apperror.NotFoundMessage("Event not found")
	}
	return err
}
