package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopapi/accountsvc/internal/common"
	"github.com/shopapi/accountsvc/internal/server/models"
	"github.com/shopapi/accountsvc/internal/server/services"
)

// refreshCookieName is the HttpOnly cookie carrying the refresh token. The
// browser presents it automatically on refresh and revoke calls so scripts
// never touch the token.
const refreshCookieName = "refreshToken"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.users.Authenticate(ctx, req.Username, req.Password, clientIP(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(ctx, "user authenticated", "user_id", resp.Profile.ID)
	s.setRefreshCookie(w, resp.RefreshToken)
	writeJSON(w, http.StatusOK, authenticateResponse{
		profileResponse: newProfileResponse(resp.Profile),
		AccessToken:     resp.AccessToken,
	})
}

func (s *Server) handleThirdParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req thirdPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.users.AuthenticateWithThirdParty(ctx, models.ProviderType(req.Provider), req.Key, clientIP(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(ctx, "third-party sign-in", "user_id", resp.Profile.ID, "provider", req.Provider)
	s.setRefreshCookie(w, resp.RefreshToken)
	writeJSON(w, http.StatusOK, authenticateResponse{
		profileResponse: newProfileResponse(resp.Profile),
		AccessToken:     resp.AccessToken,
	})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := s.refreshTokenFromRequest(r, nil)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	resp, err := s.users.RefreshToken(ctx, token, clientIP(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setRefreshCookie(w, resp.RefreshToken)
	writeJSON(w, http.StatusOK, authenticateResponse{
		profileResponse: newProfileResponse(resp.Profile),
		AccessToken:     resp.AccessToken,
	})
}

func (s *Server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req revokeTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	token := s.refreshTokenFromRequest(r, &req)
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	// Owner or admin only.
	requesterID, _ := UserIDFromContext(ctx)
	owns, err := s.users.OwnsToken(ctx, requesterID, token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !owns {
		role, err := s.users.GetRole(ctx, requesterID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if role != models.RoleAdmin {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	if err := s.users.RevokeToken(ctx, token, clientIP(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(ctx, "refresh token revoked", "user_id", requesterID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Token revoked"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.users.Register(ctx, services.RegisterRequest{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	}, r.Header.Get("Origin"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Message: "Registration successful, please check your email for verification instructions",
	})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.users.VerifyEmail(r.Context(), req.Token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Verification successful, you can now login"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.users.ForgotPassword(r.Context(), req.Email, r.Header.Get("Origin")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Please check your email for password reset instructions",
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.users.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successful, you can now login"})
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requesterID, _ := UserIDFromContext(ctx)
	role, err := s.users.GetRole(ctx, requesterID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if role != models.RoleAdmin {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	all, err := s.users.GetAll(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]profileResponse, 0, len(all))
	for _, p := range all {
		out = append(out, newProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if !s.requesterIsOwnerOrAdmin(w, r, id) {
		return
	}

	profile, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(*profile))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if !s.requesterIsOwnerOrAdmin(w, r, id) {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.users.Update(ctx, id, services.UpdateRequest{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Phone:     req.Phone,
		ImageURL:  req.ImageURL,
		Birthday:  req.Birthday,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	profile, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(*profile))
}

func (s *Server) handleRefreshTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if !s.requesterIsOwnerOrAdmin(w, r, id) {
		return
	}

	tokens, err := s.users.GetRefreshTokens(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]refreshTokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, newRefreshTokenResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.avatars.GetUploadURL(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "presigning avatar upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, avatarUploadResponse{Key: key, URL: url})
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	url, err := s.avatars.GetDownloadURL(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error(r.Context(), "presigning avatar download failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if url == "" {
		writeError(w, http.StatusNotFound, "no avatar")
		return
	}
	writeJSON(w, http.StatusOK, avatarResponse{URL: url})
}

// requesterIsOwnerOrAdmin writes the error response itself when the check
// fails.
func (s *Server) requesterIsOwnerOrAdmin(w http.ResponseWriter, r *http.Request, targetID string) bool {
	requesterID, _ := UserIDFromContext(r.Context())
	if requesterID == targetID {
		return true
	}
	role, err := s.users.GetRole(r.Context(), requesterID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return false
	}
	if role != models.RoleAdmin {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

// refreshTokenFromRequest prefers an explicit body token over the cookie.
func (s *Server) refreshTokenFromRequest(r *http.Request, body *revokeTokenRequest) string {
	if body != nil && body.Token != "" {
		return body.Token
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/accounts",
		Expires:  time.Now().Add(s.config.RefreshTokenValidityDuration),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// writeServiceError maps service error kinds to HTTP statuses. Anything
// unmapped is a 500 with a generic body.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrVerificationFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
