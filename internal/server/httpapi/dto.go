package httpapi

import (
	"time"

	"github.com/shopapi/accountsvc/internal/server/models"
	"github.com/shopapi/accountsvc/internal/server/services"
)

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type thirdPartyRequest struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

type registerRequest struct {
	Firstname string `json:"firstName"`
	Lastname  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type revokeTokenRequest struct {
	Token string `json:"token"`
}

type updateRequest struct {
	Firstname string `json:"firstName"`
	Lastname  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	ImageURL  string `json:"imageUrl"`
	Birthday  *int64 `json:"birthday"`
}

type profileResponse struct {
	ID         string `json:"id"`
	Firstname  string `json:"firstName"`
	Lastname   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ImageURL   string `json:"imageUrl"`
	Birthday   *int64 `json:"birthday,omitempty"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

type authenticateResponse struct {
	profileResponse
	AccessToken string `json:"jwtToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type refreshTokenResponse struct {
	Token           string     `json:"token"`
	Expires         time.Time  `json:"expires"`
	Created         time.Time  `json:"created"`
	CreatedByIP     string     `json:"createdByIp,omitempty"`
	Revoked         *time.Time `json:"revoked,omitempty"`
	RevokedByIP     string     `json:"revokedByIp,omitempty"`
	ReplacedByToken string     `json:"replacedByToken,omitempty"`
	IsActive        bool       `json:"isActive"`
}

type avatarUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type avatarResponse struct {
	URL string `json:"url"`
}

func newRefreshTokenResponse(t *models.RefreshToken) refreshTokenResponse {
	return refreshTokenResponse{
		Token:           t.Token,
		Expires:         t.Expires,
		Created:         t.Created,
		CreatedByIP:     t.CreatedByIP,
		Revoked:         t.Revoked,
		RevokedByIP:     t.RevokedByIP,
		ReplacedByToken: t.ReplacedByToken,
		IsActive:        t.IsActive(),
	}
}

func newProfileResponse(p services.Profile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		Firstname:  p.Firstname,
		Lastname:   p.Lastname,
		Email:      p.Email,
		Phone:      p.Phone,
		ImageURL:   p.ImageURL,
		Birthday:   p.Birthday,
		Role:       string(p.Role),
		IsVerified: p.IsVerified,
	}
}
