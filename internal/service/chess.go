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

// RatingLookup fetches normalised ratings for one platform account.
// *rating.Adapter is the production implementation.
type RatingLookup interface {
	Lookup(ctx context.Context, platform model.Platform, username string) (*model.RatingInfo, error)
}

// ChessService links external chess accounts to users and keeps the stored
// ratings current.
type ChessService struct {
	users   repository.UserRepository
	ratings RatingLookup
	logger  *slog.Logger
}

func NewChessService(users repository.UserRepository, ratings RatingLookup, logger *slog.Logger) *ChessService {
	return &ChessService{users: users, ratings: ratings, logger: logger}
}

// Lookup is a pass-through to the rating adapter; nothing is stored.
func (s *ChessService) Lookup(ctx context.Context, platform model.Platform, username string) (*model.RatingInfo, error) {
	return s.ratings.Lookup(ctx, platform, strings.TrimSpace(username))
}

// Link validates username against the provider and stores it with its best
// rating. An existing link for the platform is replaced.
func (s *ChessService) Link(ctx context.Context, userID string, platform model.Platform, username string) (*model.User, *model.RatingInfo, error) {
	username = strings.TrimSpace(username)
	info, err := s.ratings.Lookup(ctx, platform, username)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.SetChessAccount(ctx, userID, platform, &username, info.BestRating); err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("chess account linked", "user_id", userID, "platform", platform, "username", username)
	return user, info, nil
}

// Unlink clears the stored pair for platform. Unlinking a platform that was
// never linked succeeds.
func (s *ChessService) Unlink(ctx context.Context, userID string, platform model.Platform) (*model.User, error) {
	if !platform.Valid() {
		return nil, apperror.ValidationFailed("platform", "unsupported platform: "+string(platform))
	}
	if err := s.users.SetChessAccount(ctx, userID, platform, nil, nil); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("chess account unlinked", "user_id", userID, "platform", platform)
	return user, nil
}

// RefreshAll re-fetches every linked platform. A provider failure is
// reported in that platform's result and does not stop the others.
func (s *ChessService) RefreshAll(ctx context.Context, user *model.User) (*model.User, []model.RefreshResult, error) {
	if !user.HasLinkedAccounts() {
		return nil, nil, apperror.NoLinkedAccounts()
	}

	linked := []struct {
		platform model.Platform
		username *string
	}{
		{model.PlatformChessCom, user.ChessComUsername},
		{model.PlatformLichess, user.LichessUsername},
	}

	results := make([]model.RefreshResult, 0, len(linked))
	for _, l := range linked {
		if l.username == nil {
			continue
		}
		result := model.RefreshResult{Platform: l.platform, Username: *l.username}

		info, err := s.ratings.Lookup(ctx, l.platform, *l.username)
		if err != nil {
			result.Error = refreshMessage(err)
			s.logger.Warn("rating refresh failed", "user_id", user.ID, "platform", l.platform, "error", err)
			results = append(results, result)
			continue
		}
		if err := s.users.SetChessAccount(ctx, user.ID, l.platform, l.username, info.BestRating); err != nil {
			return nil, nil, err
		}
		result.Rating = info
		results = append(results, result)
	}

	updated, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, results, nil
}

func refreshMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
