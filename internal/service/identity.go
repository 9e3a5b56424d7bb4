package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/auth"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

// ExternalSessionFetcher resolves an external OAuth session id to the
// identity behind it. *auth.ExternalSessionClient is the production
// implementation.
type ExternalSessionFetcher interface {
	Fetch(ctx context.Context, sessionID string) (*auth.ExternalIdentity, error)
}

// AuthResult bundles the user and the session just issued for them, so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User    *model.User
	Session *model.Session
}

// maxPasswordBytes mirrors bcrypt's input limit.
const maxPasswordBytes = 72

// RegisterInput carries the fields accepted on sign-up.
type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	UserType   model.UserType
	SkillLevel *model.SkillLevel
	City       *string
}

// IdentityService owns accounts: sign-up, the three login paths, logout
// and profile edits.
type IdentityService struct {
	users    repository.UserRepository
	sessions *auth.SessionManager
	creds    *auth.Credentials
	external ExternalSessionFetcher
	logger   *slog.Logger

	// dummyDigest is verified against when the email is unknown, so a
	// failed login costs one bcrypt comparison either way.
	dummyDigest string
}

func NewIdentityService(
	users repository.UserRepository,
	sessions *auth.SessionManager,
	creds *auth.Credentials,
	external ExternalSessionFetcher,
	logger *slog.Logger,
) *IdentityService {
	dummy, _ := creds.Hash("chessmeet-dummy-password")
	return &IdentityService{
		users:       users,
		sessions:    sessions,
		creds:       creds,
		external:    external,
		logger:      logger,
		dummyDigest: dummy,
	}
}

// Register creates a password account and logs it in.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if in.UserType == "" {
		in.UserType = model.UserTypeUser
	}
	if !in.UserType.Valid() {
		return nil, apperror.ValidationFailed("user_type", "user_type must be user or club")
	}
	if in.SkillLevel != nil && !in.SkillLevel.Valid() {
		return nil, apperror.ValidationFailed("skill_level", "skill_level must be principiante, medio or avanzado")
	}

	digest, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: &digest,
		UserType:     in.UserType,
		SkillLevel:   in.SkillLevel,
		City:         plainTextPtr(in.City),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user", "error", err)
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "user_type", user.UserType)
	return s.issue(ctx, user)
}

// Login checks email and password. Every failure cause yields the same
// InvalidCredentials error.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/identity: loading user: %w", err)
		}
		s.creds.Verify(s.dummyDigest, password)
		s.logger.Warn("login rejected", "reason", "unknown email")
		return nil, apperror.InvalidCredentials()
	}

	if user.PasswordHash == nil {
		s.creds.Verify(s.dummyDigest, password)
		s.logger.Warn("login rejected", "reason", "no password", "user_id", user.ID)
		return nil, apperror.InvalidCredentials()
	}
	if !s.creds.Verify(*user.PasswordHash, password) {
		s.logger.Warn("login rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, apperror.InvalidCredentials()
	}

	return s.issue(ctx, user)
}

// ExchangeExternalSession logs in through the external OAuth provider,
// creating the account on first use. For an existing account only the
// picture is refreshed, and only when the provider sent a different one.
func (s *IdentityService) ExchangeExternalSession(ctx context.Context, sessionID string) (*AuthResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperror.ValidationFailed("session_id", "session_id required")
	}

	identity, err := s.external.Fetch(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			s.logger.Warn("external session rejected")
		}
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createExternalUser(ctx, identity)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("service/identity: loading user: %w", err)
	default:
		if identity.Picture != nil && (user.Picture == nil || *user.Picture != *identity.Picture) {
			if err := s.users.SetPicture(ctx, user.ID, *identity.Picture); err != nil {
				return nil, fmt.Errorf("service/identity: updating picture: %w", err)
			}
			user.Picture = identity.Picture
		}
	}

	return s.issue(ctx, user)
}

func (s *IdentityService) createExternalUser(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error) {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = identity.Email
	}
	user := &model.User{
		Email:    identity.Email,
		Name:     name,
		UserType: model.UserTypeUser,
		Picture:  identity.Picture,
	}
	err := s.users.CreateUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// Lost a race with a concurrent first login for the same email.
		return s.users.GetUserByEmail(ctx, identity.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("service/identity: creating external user: %w", err)
	}

	s.logger.Info("user registered via external session", "user_id", user.ID)
	return user, nil
}

// Logout revokes token. It never fails for an unknown token.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

func (s *IdentityService) GetProfile(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage("User not found")
	}
	return user, err
}

// UpdateProfile applies only the fields present in update.
func (s *IdentityService) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name cannot be empty")
		}
		update.Name = &name
	}
	if update.SkillLevel != nil && !update.SkillLevel.Valid() {
		return nil, apperror.ValidationFailed("skill_level", "skill_level must be principiante, medio or avanzado")
	}
	update.City = plainTextPtr(update.City)
	update.Bio = plainTextPtr(update.Bio)

	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if !update.IsEmpty() {
		s.logger.Info("profile updated", "user_id", id)
	}
	return user, nil
}

func (s *IdentityService) issue(ctx context.Context, user *model.User) (*AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Session: session}, nil
}
