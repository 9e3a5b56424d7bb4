package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
	"github.com/chessmeet/chessmeet/internal/repository/sqlite"
)

// recordingObserver counts AttendanceObserver callbacks.
type recordingObserver struct {
	mu       sync.Mutex
	joined   int
	left     int
	clamped  int
	rejected map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{rejected: map[string]int{}}
}

func (o *recordingObserver) EventJoined(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.joined++
}

func (o *recordingObserver) EventLeft(_ string, clamped bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.left++
	if clamped {
		o.clamped++
	}
}

func (o *recordingObserver) JoinRejected(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected[code]++
}

// clampingEvents reports every leave as clamped.
type clampingEvents struct {
	repository.EventRepository
}

func (c clampingEvents) LeaveEvent(ctx context.Context, userID, eventID string) (bool, error) {
	if _, err := c.EventRepository.LeaveEvent(ctx, userID, eventID); err != nil {
		return false, err
	}
	return true, nil
}

func newEventService(t *testing.T) (*EventService, *sqlite.DB, *recordingObserver, *model.User) {
	t.Helper()
	db := newTestStore(t)
	obs := newRecordingObserver()
	svc := NewEventService(db, discardLogger()).WithClock(fixedClock).WithObserver(obs)
	organizer := createUser(t, db, "club@example.com", "Club d'Escacs", model.UserTypeClub)
	return svc, db, obs, organizer
}

func validInput() CreateEventInput {
	return CreateEventInput{
		Title:       "Torneo Blitz",
		Description: "Partidas de 5 minutos",
		City:        "Barcelona",
		Address:     "Carrer de la Portaferrissa, 22",
		Date:        "2030-03-12",
		Time:        "20:00",
		EventType:   model.EventTorneo,
		SkillLevel:  model.SkillAvanzado,
		MaxSeats:    16,
	}
}

func createEvent(t *testing.T, svc *EventService, organizer *model.User, mutate func(*CreateEventInput)) *model.Event {
	t.Helper()
	in := validInput()
	if mutate != nil {
		mutate(&in)
	}
	e, err := svc.Create(context.Background(), organizer, in)
	require.NoError(t, err)
	return e
}

// =========================================================================
// Create
// =========================================================================

func TestCreateEvent(t *testing.T) {
	svc, _, _, organizer := newEventService(t)

	e := createEvent(t, svc, organizer, func(in *CreateEventInput) {
		in.Description = "<p>Premios & trofeos</p>"
	})
	assert.Equal(t, 0, e.SeatsTaken)
	assert.Equal(t, model.DefaultEventImage, e.ImageURL)
	assert.Equal(t, organizer.Name, e.OrganizerName)
	assert.Equal(t, model.UserTypeClub, e.OrganizerType)
	assert.Equal(t, "Premios & trofeos", e.Description)

	custom := createEvent(t, svc, organizer, func(in *CreateEventInput) {
		in.ImageURL = strPtr("https://img.example/x.png")
	})
	assert.Equal(t, "https://img.example/x.png", custom.ImageURL)
}

func TestCreateEvent_Validation(t *testing.T) {
	svc, _, _, organizer := newEventService(t)

	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
		field  string
	}{
		{"missing title", func(in *CreateEventInput) { in.Title = "<b></b>" }, "title"},
		{"missing city", func(in *CreateEventInput) { in.City = "" }, "city"},
		{"bad event type", func(in *CreateEventInput) { in.EventType = "fiesta" }, "event_type"},
		{"missing skill level", func(in *CreateEventInput) { in.SkillLevel = "" }, "skill_level"},
		{"zero seats", func(in *CreateEventInput) { in.MaxSeats = 0 }, "max_seats"},
		{"negative seats", func(in *CreateEventInput) { in.MaxSeats = -3 }, "max_seats"},
		{"unpadded date", func(in *CreateEventInput) { in.Date = "2030-3-12" }, "date"},
		{"not a date", func(in *CreateEventInput) { in.Date = "mañana" }, "date"},
		{"unpadded time", func(in *CreateEventInput) { in.Time = "9:00" }, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), organizer, in)
			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

// =========================================================================
// List
// =========================================================================

func TestListEvents_DateFilter(t *testing.T) {
	svc, _, _, organizer := newEventService(t)
	ctx := context.Background()

	// testNow is 2030-03-10.
	for _, d := range []string{"2030-03-09", "2030-03-10", "2030-03-16", "2030-03-17", "2030-04-08", "2030-04-09"} {
		createEvent(t, svc, organizer, func(in *CreateEventInput) {
			in.Date = d
			in.Title = "Evento " + d
		})
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{DateFilterToday, []string{"2030-03-10"}},
		{DateFilterWeek, []string{"2030-03-10", "2030-03-16"}},
		{DateFilterMonth, []string{"2030-03-10", "2030-03-16", "2030-03-17", "2030-04-08"}},
		{"", []string{"2030-03-09", "2030-03-10", "2030-03-16", "2030-03-17", "2030-04-08", "2030-04-09"}},
		{"ayer", []string{"2030-03-09", "2030-03-10", "2030-03-16", "2030-03-17", "2030-04-08", "2030-04-09"}},
	}
	for _, tt := range tests {
		t.Run("filter "+tt.filter, func(t *testing.T) {
			events, err := svc.List(ctx, EventQuery{DateFilter: tt.filter})
			require.NoError(t, err)
			var dates []string
			for _, e := range events {
				dates = append(dates, e.Date)
			}
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestListEvents_CombinedFilters(t *testing.T) {
	svc, _, _, organizer := newEventService(t)
	ctx := context.Background()

	createEvent(t, svc, organizer, nil)
	createEvent(t, svc, organizer, func(in *CreateEventInput) { in.City = "Sabadell" })
	createEvent(t, svc, organizer, func(in *CreateEventInput) { in.EventType = model.EventCasual })
	createEvent(t, svc, organizer, func(in *CreateEventInput) { in.SkillLevel = model.SkillMedio })

	events, err := svc.List(ctx, EventQuery{
		City:       "barce",
		EventType:  model.EventTorneo,
		SkillLevel: model.SkillAvanzado,
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// =========================================================================
// Get / Delete
// =========================================================================

func TestGetEvent(t *testing.T) {
	svc, db, _, organizer := newEventService(t)
	ctx := context.Background()
	e := createEvent(t, svc, organizer, nil)
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	_, err := svc.Join(ctx, ana, e.ID)
	require.NoError(t, err)

	detail, err := svc.Get(ctx, e.ID, ana)
	require.NoError(t, err)
	assert.True(t, detail.UserJoined)
	require.Len(t, detail.Attendees, 1)
	assert.Equal(t, "Ana", detail.Attendees[0].UserName)

	detail, err = svc.Get(ctx, e.ID, organizer)
	require.NoError(t, err)
	assert.False(t, detail.UserJoined)

	detail, err = svc.Get(ctx, e.ID, nil)
	require.NoError(t, err)
	assert.False(t, detail.UserJoined, "anonymous viewers never joined")

	_, err = svc.Get(ctx, "event_missing", nil)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Event not found", err.Error())
}

func TestDeleteEvent(t *testing.T) {
	svc, db, _, organizer := newEventService(t)
	ctx := context.Background()
	e := createEvent(t, svc, organizer, nil)
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)
	bob := createUser(t, db, "bob@example.com", "Bob", model.UserTypeUser)

	for _, u := range []*model.User{ana, bob} {
		_, err := svc.Join(ctx, u, e.ID)
		require.NoError(t, err)
	}

	err := svc.Delete(ctx, ana, e.ID)
	require.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, "Not authorized", err.Error())

	require.NoError(t, svc.Delete(ctx, organizer, e.ID))

	_, err = db.GetEvent(ctx, e.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	attendees, err := db.ListAttendees(ctx, e.ID, 100)
	require.NoError(t, err)
	assert.Empty(t, attendees, "attendance is deleted with the event")

	mine, err := svc.MyEvents(ctx, ana)
	require.NoError(t, err)
	assert.Empty(t, mine.Joined)

	err = svc.Delete(ctx, organizer, e.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// Join / Leave
// =========================================================================

func TestJoinEvent(t *testing.T) {
	svc, db, obs, organizer := newEventService(t)
	ctx := context.Background()
	e := createEvent(t, svc, organizer, func(in *CreateEventInput) { in.MaxSeats = 1 })
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)
	bob := createUser(t, db, "bob@example.com", "Bob", model.UserTypeUser)

	a, err := svc.Join(ctx, ana, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceJoined, a.Status)
	assert.Equal(t, "Ana", a.UserName)

	_, err = svc.Join(ctx, bob, e.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)
	requireCode(t, err, apperror.CodeEventFull)

	_, err = svc.Join(ctx, bob, "event_missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Event not found", err.Error())

	assert.Equal(t, 1, obs.joined)
	assert.Equal(t, 1, obs.rejected[apperror.CodeEventFull])
	assert.Equal(t, 1, obs.rejected[apperror.CodeNotFound])
}

func TestJoinEvent_Twice(t *testing.T) {
	svc, db, _, organizer := newEventService(t)
	ctx := context.Background()
	e := createEvent(t, svc, organizer, nil)
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	_, err := svc.Join(ctx, ana, e.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, ana, e.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)
	requireCode(t, err, apperror.CodeAlreadyJoined)

	got, err := db.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SeatsTaken, "a rejected join must not consume a seat")
}

func TestJoinEvent_ConcurrentLastSeat(t *testing.T) {
	svc, db, _, organizer := newEventService(t)
	ctx := context.Background()
	e := createEvent(t, svc, organizer, func(in *CreateEventInput) { in.MaxSeats = 1 })

	const n = 8
	users := make([]*model.User, n)
	for i := range n {
		users[i] = createUser(t, db, fmt.Sprintf("p%d@example.com", i), fmt.Sprintf("P%d", i), model.UserTypeUser)
	}

	var ok, full atomic.Int32
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Join(ctx, u, e.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case isCode(err, apperror.CodeEventFull):
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), full.Load())

	detail, err := svc.Get(ctx, e.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.SeatsTaken)
	assert.Len(t, detail.Attendees, 1)
}

func isCode(err error, code string) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

func TestLeaveEvent(t *testing.T) {
	svc, db, obs, organizer := newEventService(t)
	ctx := context.Background()
	e := createEvent(t, svc, organizer, nil)
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	err := svc.Leave(ctx, ana, e.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound, "leaving without joining")

	_, err = svc.Join(ctx, ana, e.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Leave(ctx, ana, e.ID))

	got, err := db.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.SeatsTaken)
	assert.Equal(t, 1, obs.left)
	assert.Zero(t, obs.clamped)

	// Rejoining after leaving is allowed.
	_, err = svc.Join(ctx, ana, e.ID)
	assert.NoError(t, err)
}

func TestLeaveEvent_ReportsClamp(t *testing.T) {
	db := newTestStore(t)
	obs := newRecordingObserver()
	svc := NewEventService(clampingEvents{db}, discardLogger()).WithClock(fixedClock).WithObserver(obs)
	organizer := createUser(t, db, "club@example.com", "Club", model.UserTypeClub)
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)
	ctx := context.Background()

	e := createEvent(t, svc, organizer, nil)
	_, err := svc.Join(ctx, ana, e.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, ana, e.ID))
	assert.Equal(t, 1, obs.clamped)
}

// =========================================================================
// MyEvents
// =========================================================================

func TestMyEvents(t *testing.T) {
	svc, db, _, organizer := newEventService(t)
	ctx := context.Background()
	ana := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	late := createEvent(t, svc, organizer, func(in *CreateEventInput) { in.Date = "2030-05-01" })
	early := createEvent(t, svc, organizer, func(in *CreateEventInput) { in.Date = "2030-04-01" })
	own := createEvent(t, svc, ana, nil)

	for _, e := range []*model.Event{late, early} {
		_, err := svc.Join(ctx, ana, e.ID)
		require.NoError(t, err)
	}

	mine, err := svc.MyEvents(ctx, ana)
	require.NoError(t, err)
	require.Len(t, mine.Organized, 1)
	assert.Equal(t, own.ID, mine.Organized[0].ID)
	assert.Equal(t, model.UserTypeUser, mine.Organized[0].OrganizerType)

	require.Len(t, mine.Joined, 2)
	assert.Equal(t, early.ID, mine.Joined[0].ID, "joined events are ordered by date")
	assert.Equal(t, late.ID, mine.Joined[1].ID)
}
