package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

const dateLayout = "2006-01-02"

type clubStore interface {
	repository.UserRepository
	repository.ClubRepository
	repository.EventRepository
}

// ClubService serves club listings and lets clubs manage their roster.
type ClubService struct {
	store  clubStore
	now    repository.Clock
	logger *slog.Logger
}

func NewClubService(store clubStore, logger *slog.Logger) *ClubService {
	return &ClubService{store: store, now: defaultClock, logger: logger}
}

// WithClock replaces the time source used to decide which events are
// upcoming.
func (s *ClubService) WithClock(now repository.Clock) *ClubService {
	s.now = now
	return s
}

func (s *ClubService) ListClubs(ctx context.Context, city string) ([]model.ClubSummary, error) {
	return s.store.ListClubs(ctx, strings.TrimSpace(city))
}

// GetClub returns the club profile, its roster and its next events by date.
//
// Only events dated today or later are listed (at most 20, earliest first).
// The older server listed the first 20 events regardless of date, so past
// events no longer appear on a club page. member_count and event_count are
// the lengths of the returned lists.
func (s *ClubService) GetClub(ctx context.Context, clubID string) (*model.ClubDetail, error) {
	club, err := s.store.GetUserByID(ctx, clubID)
	if errors.Is(err, apperror.ErrNotFound) || (err == nil && !club.IsClub()) {
		return nil, apperror.NotFoundMessage("Club not found")
	}
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, clubID, repository.MaxMemberList)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, repository.EventFilter{
		OrganizerID: clubID,
		DateFrom:    s.now().Format(dateLayout),
		Limit:       repository.ClubUpcomingLimit,
	})
	if err != nil {
		return nil, err
	}

	return &model.ClubDetail{
		User:        *club,
		Members:     members,
		Events:      events,
		MemberCount: len(members),
		EventCount:  len(events),
	}, nil
}

// AddMember puts the user registered under email on the acting club's
// roster. An empty skillLevel falls back to the user's own profile level.
func (s *ClubService) AddMember(ctx context.Context, club *model.User, email string, skillLevel model.SkillLevel) (*model.ClubMember, error) {
	if !club.IsClub() {
		return nil, apperror.Forbidden("Only clubs can add members")
	}
	if skillLevel != "" && !skillLevel.Valid() {
		return nil, apperror.ValidationFailed("skill_level", "skill_level must be principiante, medio or avanzado")
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if skillLevel == "" {
		skillLevel = model.SkillPrincipiante
		if user.SkillLevel != nil {
			skillLevel = *user.SkillLevel
		}
	}

	member := &model.ClubMember{
		ClubID:     club.ID,
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		SkillLevel: skillLevel,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info("club member added", "club_id", club.ID, "member_id", member.ID, "user_id", user.ID)
	return member, nil
}

// RemoveMember deletes memberID from the acting club's roster. Members of
// other clubs are reported as not found.
func (s *ClubService) RemoveMember(ctx context.Context, club *model.User, memberID string) error {
	if !club.IsClub() {
		return apperror.Forbidden("Only clubs can remove members")
	}
	if err := s.store.RemoveMember(ctx, club.ID, memberID); err != nil {
		return err
	}

	s.logger.Info("club member removed", "club_id", club.ID, "member_id", memberID)
	return nil
}
