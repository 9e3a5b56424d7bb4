package handler

import (
	"log/slog"
	"net/http"

	"github.com/chessmeet/chessmeet/internal/auth"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/service"
)

// AuthHandler manages sign-up, the three login paths and logout.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create a password account, log it in
//   - HandleLogin    → email + password
//   - HandleSession  → trade an external OAuth session id for a local session
//   - HandleLogout   → revoke the session, clear the cookie
//   - HandleMe       → the currently logged-in user
//
// Every successful login sets the session cookie AND returns the token in
// the body, so non-browser clients can send it as a Bearer header.
type AuthHandler struct {
	identity   *service.IdentityService
	cookies    auth.CookieWriter
	cookieName string
	logger     *slog.Logger
}

func NewAuthHandler(identity *service.IdentityService, cookies auth.CookieWriter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:   identity,
		cookies:    cookies,
		cookieName: cookies.Name,
		logger:     logger,
	}
}

type registerRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	UserType   string  `json:"user_type" validate:"omitempty,oneof=user club"`
	SkillLevel *string `json:"skill_level" validate:"omitempty,oneof=principiante medio avanzado"`
	City       *string `json:"city"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

// authResponse is the user record plus the issued token.
type authResponse struct {
	*model.User
	SessionToken string `json:"session_token"`
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	in := service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		UserType: model.UserType(req.UserType),
		City:     req.City,
	}
	if req.SkillLevel != nil {
		level := model.SkillLevel(*req.SkillLevel)
		in.SkillLevel = &level
	}

	res, err := h.identity.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithSession(w, res)
}

// HandleLogin checks email and password.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithSession(w, res)
}

// HandleSession completes the external OAuth login.
//
// HTTP: POST /api/auth/session
// REQUEST BODY: {"session_id": "..."}
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.identity.ExchangeExternalSession(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondWithSession(w, res)
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, res *service.AuthResult) {
	h.cookies.Set(w, res.Session.Token)
	writeJSON(w, http.StatusOK, authResponse{User: res.User, SessionToken: res.Session.Token})
}

// HandleLogout revokes whichever session the request carries and clears the
// cookie. It succeeds even without a session.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r, h.cookieName); token != "" {
		if err := h.identity.Logout(r.Context(), token); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	h.cookies.Clear(w)
	writeMessage(w, "Logged out")
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /api/auth/me, GET /api/users/me
// Auth: Required (RequireAuth puts the user in the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// currentUser returns the user RequireAuth resolved. On routes wrapped by
// OptionalAuth it may be nil.
func currentUser(r *http.Request) *model.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}
