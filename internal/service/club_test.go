package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository/sqlite"
)

func newClubService(t *testing.T) (*ClubService, *sqlite.DB, *model.User) {
	t.Helper()
	db := newTestStore(t)
	club := createUser(t, db, "club@example.com", "Club d'Escacs", model.UserTypeClub)
	return NewClubService(db, discardLogger()).WithClock(fixedClock), db, club
}

func addEvent(t *testing.T, db *sqlite.DB, organizer *model.User, title, date string) *model.Event {
	t.Helper()
	e := &model.Event{
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.Name,
		OrganizerType: organizer.UserType,
		Title:         title,
		City:          "Barcelona",
		Address:       "Carrer de Balmes, 150",
		Date:          date,
		Time:          "18:00",
		EventType:     model.EventTorneo,
		SkillLevel:    model.SkillMedio,
		MaxSeats:      4,
		ImageURL:      model.DefaultEventImage,
	}
	require.NoError(t, db.CreateEvent(context.Background(), e))
	return e
}

// =========================================================================
// GetClub
// =========================================================================

func TestGetClub(t *testing.T) {
	svc, db, club := newClubService(t)
	ctx := context.Background()
	player := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	_, err := svc.AddMember(ctx, club, "ana@example.com", model.SkillMedio)
	require.NoError(t, err)

	addEvent(t, db, club, "Pasado", "2030-03-09")
	addEvent(t, db, club, "Hoy", "2030-03-10")
	addEvent(t, db, club, "Luego", "2030-04-01")
	addEvent(t, db, player, "Ajeno", "2030-03-11")

	detail, err := svc.GetClub(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, club.ID, detail.ID)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, player.ID, detail.Members[0].UserID)
	assert.Equal(t, 1, detail.MemberCount)

	require.Len(t, detail.Events, 2, "only upcoming events by this club")
	assert.Equal(t, "Hoy", detail.Events[0].Title)
	assert.Equal(t, "Luego", detail.Events[1].Title)
	assert.Equal(t, 2, detail.EventCount)
}

func TestGetClub_NotFound(t *testing.T) {
	svc, db, _ := newClubService(t)
	player := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	for _, id := range []string{"user_missing", player.ID} {
		_, err := svc.GetClub(context.Background(), id)
		require.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Equal(t, "Club not found", err.Error())
	}
}

func TestListClubs(t *testing.T) {
	svc, db, _ := newClubService(t)
	createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	clubs, err := svc.ListClubs(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	assert.Equal(t, model.UserTypeClub, clubs[0].UserType)
}

// =========================================================================
// AddMember / RemoveMember
// =========================================================================

func TestAddMember(t *testing.T) {
	svc, db, club := newClubService(t)
	ctx := context.Background()
	player := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	m, err := svc.AddMember(ctx, club, "ana@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, player.Name, m.UserName)
	assert.Equal(t, player.Email, m.UserEmail)
	assert.Equal(t, model.SkillPrincipiante, m.SkillLevel, "falls back to principiante without a profile level")

	_, err = svc.AddMember(ctx, club, "ana@example.com", model.SkillMedio)
	require.ErrorIs(t, err, apperror.ErrConflict)
	requireCode(t, err, apperror.CodeAlreadyMember)
}

func TestAddMember_Errors(t *testing.T) {
	svc, db, club := newClubService(t)
	ctx := context.Background()
	player := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	_, err := svc.AddMember(ctx, player, "club@example.com", model.SkillMedio)
	require.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, "Only clubs can add members", err.Error())

	_, err = svc.AddMember(ctx, club, "ghost@example.com", model.SkillMedio)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "User not found with this email", err.Error())

	_, err = svc.AddMember(ctx, club, "ana@example.com", "gm")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRemoveMember(t *testing.T) {
	svc, db, club := newClubService(t)
	ctx := context.Background()
	createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	m, err := svc.AddMember(ctx, club, "ana@example.com", model.SkillMedio)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveMember(ctx, club, m.ID))

	detail, err := svc.GetClub(ctx, club.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Members)

	err = svc.RemoveMember(ctx, club, m.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound, "second removal reports not found")
	assert.Equal(t, "Member not found", err.Error())
}

func TestRemoveMember_ScopedToOwnClub(t *testing.T) {
	svc, db, club := newClubService(t)
	ctx := context.Background()
	other := createUser(t, db, "other@example.com", "Otro Club", model.UserTypeClub)
	player := createUser(t, db, "ana@example.com", "Ana", model.UserTypeUser)

	m, err := svc.AddMember(ctx, club, "ana@example.com", model.SkillMedio)
	require.NoError(t, err)

	err = svc.RemoveMember(ctx, other, m.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.RemoveMember(ctx, player, m.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	detail, err := svc.GetClub(ctx, club.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Members, 1)
}
