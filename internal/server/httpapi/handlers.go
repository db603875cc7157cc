package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/dmitrijs2005/bellwether/internal/logging"
	"github.com/dmitrijs2005/bellwether/internal/server/auth"
	"github.com/dmitrijs2005/bellwether/internal/server/models"
)

// UserService is what the handlers need from services.UserService.
type UserService interface {
	Authenticator
	Register(ctx context.Context, userName, password string) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*auth.IssuedToken, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Password length limits are configured on the credential service, which
// reports violations as common.ErrInvalidArgument.
type credentialsRequest struct {
	UserName string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,nefield=CurrentPassword"`
}

type userResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Jti       string    `json:"jti"`
}

// Handler serves the user and token endpoints.
type Handler struct {
	users        UserService
	tokenName    string
	secureCookie bool
	logger       logging.Logger
}

// NewHandler builds a Handler. The token cookie is named tokenName and
// marked Secure when secureCookie is set.
func NewHandler(users UserService, tokenName string, secureCookie bool, logger logging.Logger) *Handler {
	return &Handler{users: users, tokenName: tokenName, secureCookie: secureCookie, logger: logger}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Register creates a user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.users.Register(r.Context(), req.UserName, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, toUserResponse(u))
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "conflict", "username is taken")
	case errors.Is(err, common.ErrInvalidArgument):
		writeBadRequest(w, err.Error(), nil)
	default:
		h.logger.Error(r.Context(), "register failed", "error", err)
		writeInternal(w)
	}
}

// Token checks credentials and answers with a signed token, also set as an
// HttpOnly cookie.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	tok, err := h.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeUnauthorized(w, "invalid username or password")
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err)
		writeInternal(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.tokenName,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     tok.Token,
		TokenType: "Bearer",
		ExpiresAt: tok.ExpiresAt,
		Jti:       tok.ID,
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.UserID == "" {
		writeUnauthorized(w, rejectMessage)
		return
	}

	u, err := h.users.GetUser(r.Context(), claims.UserID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toUserResponse(u))
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	default:
		h.logger.Error(r.Context(), "get user failed", "error", err)
		writeInternal(w)
	}
}

// ChangePassword replaces the authenticated user's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.UserID == "" {
		writeUnauthorized(w, rejectMessage)
		return
	}

	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.users.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", "current password is incorrect")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, common.ErrInvalidArgument):
		writeBadRequest(w, err.Error(), nil)
	default:
		h.logger.Error(r.Context(), "change password failed", "error", err)
		writeInternal(w)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSON(w, r, dst)
	if err == nil {
		return true
	}

	var rerr *requestError
	if errors.As(err, &rerr) {
		writeBadRequest(w, rerr.msg, rerr.fields)
		return false
	}
	h.logger.Error(r.Context(), "request decoding failed", "error", err)
	writeInternal(w)
	return false
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, UserName: u.UserName, CreatedAt: u.CreatedAt}
}
