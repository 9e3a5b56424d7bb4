// Package seed loads the demo clubs and events shipped with the binary.
//
// The data lives in fixtures.yaml, embedded at build time. Event dates are
// stored as offsets from "today" so a fresh seed always produces upcoming
// events.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

const (
	MessageCreated = "Seed data created"
	MessageSkipped = "Data already seeded"
)

type fixtures struct {
	Password string         `yaml:"password"`
	Clubs    []clubFixture  `yaml:"clubs"`
	Events   []eventFixture `yaml:"events"`
}

type clubFixture struct {
	Key     string `yaml:"key"`
	Email   string `yaml:"email"`
	Name    string `yaml:"name"`
	City    string `yaml:"city"`
	Bio     string `yaml:"bio"`
	Picture string `yaml:"picture"`
}

type eventFixture struct {
	Club        string           `yaml:"club"`
	DaysAhead   int              `yaml:"days_ahead"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	City        string           `yaml:"city"`
	Address     string           `yaml:"address"`
	Time        string           `yaml:"time"`
	EventType   model.EventType  `yaml:"event_type"`
	SkillLevel  model.SkillLevel `yaml:"skill_level"`
	MaxSeats    int              `yaml:"max_seats"`
	ImageURL    string           `yaml:"image_url"`
}

func parseFixtures(data []byte) (*fixtures, error) {
	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parsing fixtures: %w", err)
	}

	keys := make(map[string]bool, len(f.Clubs))
	for _, c := range f.Clubs {
		keys[c.Key] = true
	}
	for i, e := range f.Events {
		switch {
		case !keys[e.Club]:
			return nil, fmt.Errorf("seed: event %d (%s): unknown club %q", i, e.Title, e.Club)
		case !e.EventType.Valid() || !e.SkillLevel.Valid():
			return nil, fmt.Errorf("seed: event %d (%s): bad type or level", i, e.Title)
		case e.MaxSeats <= 0:
			return nil, fmt.Errorf("seed: event %d (%s): max_seats must be positive", i, e.Title)
		}
	}
	return &f, nil
}

// Store is what the seeder writes to.
type Store interface {
	repository.UserRepository
	repository.EventRepository
}

// Hasher produces password digests for the demo club accounts.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Result is the JSON body returned by POST /api/seed.
type Result struct {
	Message    string `json:"message"`
	EventCount int    `json:"event_count"`
	ClubCount  int    `json:"club_count,omitempty"`
}

type Seeder struct {
	store  Store
	hasher Hasher
	now    repository.Clock
	logger *slog.Logger

	// mu keeps two concurrent seed requests from both passing the
	// "no events yet" check.
	mu sync.Mutex
}

func New(store Store, hasher Hasher, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:  store,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (s *Seeder) WithClock(now repository.Clock) *Seeder {
	s.now = now
	return s
}

// Run inserts the demo data unless any event already exists.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.CountEvents(ctx)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return &Result{Message: MessageSkipped, EventCount: existing}, nil
	}

	f, err := parseFixtures(fixturesYAML)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(f.Password)
	if err != nil {
		return nil, err
	}

	clubs := make(map[string]*model.User, len(f.Clubs))
	for _, c := range f.Clubs {
		club, err := s.ensureClub(ctx, c, digest)
		if err != nil {
			return nil, err
		}
		clubs[c.Key] = club
	}

	today := s.now()
	for _, e := range f.Events {
		event := buildEvent(e, clubs[e.Club], today)
		if err := s.store.CreateEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("seed: creating event %q: %w", e.Title, err)
		}
	}

	s.logger.Info("seed data created", "clubs", len(clubs), "events", len(f.Events))
	return &Result{Message: MessageCreated, EventCount: len(f.Events), ClubCount: len(clubs)}, nil
}

// ensureClub creates the club account, or reuses it when a previous seed
// left the account behind after its events were deleted.
func (s *Seeder) ensureClub(ctx context.Context, c clubFixture, digest string) (*model.User, error) {
	club := buildClub(c, digest)
	err := s.store.CreateUser(ctx, club)
	if err == nil {
		return club, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return nil, fmt.Errorf("seed: creating club %s: %w", c.Email, err)
	}
	return s.store.GetUserByEmail(ctx, c.Email)
}

func buildClub(c clubFixture, digest string) *model.User {
	return &model.User{
		Email:        c.Email,
		Name:         c.Name,
		PasswordHash: &digest,
		UserType:     model.UserTypeClub,
		City:         &c.City,
		Bio:          &c.Bio,
		Picture:      &c.Picture,
	}
}

func buildEvent(e eventFixture, club *model.User, today time.Time) *model.Event {
	return &model.Event{
		OrganizerID:   club.ID,
		OrganizerName: club.Name,
		OrganizerType: club.UserType,
		Title:         e.Title,
		Description:   e.Description,
		City:          e.City,
		Address:       e.Address,
		Date:          today.AddDate(0, 0, e.DaysAhead).Format("2006-01-02"),
		Time:          e.Time,
		EventType:     e.EventType,
		SkillLevel:    e.SkillLevel,
		MaxSeats:      e.MaxSeats,
		ImageURL:      e.ImageURL,
	}
}
