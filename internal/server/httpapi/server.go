// Package httpapi exposes the account service over a JSON HTTP API. Routing
// uses the standard mux with Go 1.22 method patterns; authentication is a
// Bearer access token, and refresh tokens travel in an HttpOnly cookie.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopapi/accountsvc/internal/logging"
	"github.com/shopapi/accountsvc/internal/server/config"
	"github.com/shopapi/accountsvc/internal/server/models"
	"github.com/shopapi/accountsvc/internal/server/services"
)

// UserService is the slice of the account service the HTTP layer needs.
type UserService interface {
	Authenticate(ctx context.Context, username, password, ip string) (*services.AuthResponse, error)
	RefreshToken(ctx context.Context, token, ip string) (*services.AuthResponse, error)
	RevokeToken(ctx context.Context, token, ip string) error
	OwnsToken(ctx context.Context, userID, token string) (bool, error)
	AuthenticateWithThirdParty(ctx context.Context, providerType models.ProviderType, providerKey, ip string) (*services.AuthResponse, error)
	Register(ctx context.Context, req services.RegisterRequest, origin string) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email, origin string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Update(ctx context.Context, userID string, req services.UpdateRequest) error
	GetByID(ctx context.Context, userID string) (*services.Profile, error)
	GetRefreshTokens(ctx context.Context, userID string) ([]*models.RefreshToken, error)
	GetRole(ctx context.Context, userID string) (models.Role, error)
	GetAll(ctx context.Context) ([]services.Profile, error)
}

// AvatarService hands out presigned profile-image URLs.
type AvatarService interface {
	GetUploadURL(ctx context.Context) (string, string, error)
	GetDownloadURL(ctx context.Context, userID string) (string, error)
}

// Server bundles the handlers and builds the route table.
type Server struct {
	logger  logging.Logger
	users   UserService
	avatars AvatarService
	config  *config.Config
}

func NewServer(logger logging.Logger, users UserService, avatars AvatarService, cfg *config.Config) *Server {
	return &Server{
		logger:  logger,
		users:   users,
		avatars: avatars,
		config:  cfg,
	}
}

// Handler assembles the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/accounts/authenticate", s.handleAuthenticate)
	mux.HandleFunc("POST /api/accounts/third-party", s.handleThirdParty)
	mux.HandleFunc("POST /api/accounts/refresh-token", s.handleRefreshToken)
	mux.HandleFunc("POST /api/accounts/register", s.handleRegister)
	mux.HandleFunc("POST /api/accounts/verify-email", s.handleVerifyEmail)
	mux.HandleFunc("POST /api/accounts/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /api/accounts/reset-password", s.handleResetPassword)

	requireAuth := authenticate(s.logger, []byte(s.config.SecretKey))
	mux.Handle("POST /api/accounts/revoke-token", requireAuth(http.HandlerFunc(s.handleRevokeToken)))
	mux.Handle("GET /api/accounts", requireAuth(http.HandlerFunc(s.handleGetAll)))
	mux.Handle("GET /api/accounts/{id}", requireAuth(http.HandlerFunc(s.handleGetByID)))
	mux.Handle("PUT /api/accounts/{id}", requireAuth(http.HandlerFunc(s.handleUpdate)))
	mux.Handle("GET /api/accounts/{id}/refresh-tokens", requireAuth(http.HandlerFunc(s.handleRefreshTokens)))
	mux.Handle("POST /api/accounts/avatar-upload", requireAuth(http.HandlerFunc(s.handleAvatarUpload)))
	mux.Handle("GET /api/accounts/{id}/avatar", requireAuth(http.HandlerFunc(s.handleAvatar)))

	var h http.Handler = mux
	h = requestLog(s.logger)(h)
	h = recovery(s.logger)(h)
	return h
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
