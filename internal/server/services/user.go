// Package services contains the server-side business logic. This file
// implements UserService, the account state machine: password and third-party
// authentication, refresh-token rotation with revocation chains, registration
// with email verification, and password reset.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopapi/accountsvc/internal/common"
	"github.com/shopapi/accountsvc/internal/dbx"
	"github.com/shopapi/accountsvc/internal/logging"
	"github.com/shopapi/accountsvc/internal/passwords"
	"github.com/shopapi/accountsvc/internal/server/auth"
	"github.com/shopapi/accountsvc/internal/server/config"
	"github.com/shopapi/accountsvc/internal/server/email"
	"github.com/shopapi/accountsvc/internal/server/models"
	"github.com/shopapi/accountsvc/internal/server/repositories/repomanager"
	"github.com/shopapi/accountsvc/internal/validation"
)

// refreshTokenBytes is the entropy of a refresh token: 40 random bytes,
// rendered as 80 hex characters.
const refreshTokenBytes = 40

// resetTokenValidity is how long a password-reset token stays redeemable.
const resetTokenValidity = 15 * time.Minute

// Profile is the caller-facing projection of a User. It never carries
// credential material.
type Profile struct {
	ID         string
	Firstname  string
	Lastname   string
	Email      string
	Phone      string
	ImageURL   string
	Birthday   *int64
	Role       models.Role
	IsVerified bool
}

// NewProfile maps a User to its Profile explicitly, field by field.
func NewProfile(user *models.User) Profile {
	return Profile{
		ID:         user.ID,
		Firstname:  user.Firstname,
		Lastname:   user.Lastname,
		Email:      user.Email,
		Phone:      user.Phone,
		ImageURL:   user.ImageURL,
		Birthday:   user.Birthday,
		Role:       user.Role,
		IsVerified: user.IsVerified(),
	}
}

// AuthResponse bundles a freshly issued token pair with the owner's profile.
type AuthResponse struct {
	AccessToken  string
	RefreshToken string
	Profile      Profile
}

// RegisterRequest carries the registration fields. Email is optional; a user
// registered without one can only be verified out of band.
type RegisterRequest struct {
	Firstname string
	Lastname  string
	Email     string
	Username  string
	Password  string
}

// UpdateRequest carries a partial profile update. Zero-valued fields are
// no-ops, not clears.
type UpdateRequest struct {
	Firstname string
	Lastname  string
	Email     string
	Phone     string
	ImageURL  string
	Birthday  *int64
}

// UserService orchestrates authentication and account lifecycle operations.
// Every operation acquires its repositories per call via the repository
// manager; multi-write operations run inside a dbx.WithTx scope so token
// rotation never persists half-way.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	sender                       email.Sender
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	refreshTokenTTL              time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, sender email.Sender, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		logger:                       logger,
		sender:                       sender,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		refreshTokenTTL:              cfg.RefreshTokenTTL,
	}
}

// Authenticate verifies a username/password pair and, on success, issues an
// access token and a fresh refresh token. Unknown username, unverified user
// and wrong password all collapse into ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password, ip string) (*AuthResponse, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrInternal
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, account.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrInternal
	}
	if !user.IsVerified() {
		return nil, common.ErrInvalidCredentials
	}

	ok, err := passwords.Verify(password, account.PasswordHash, account.PasswordSalt)
	if err != nil {
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user, ip)
}

// RefreshToken rotates a refresh token: the presented token is revoked with a
// pointer to its replacement, a new token is created, stale tokens are
// pruned, all within one transaction. A revoked token presented again is a
// replay and fails with ErrInvalidToken.
func (s *UserService) RefreshToken(ctx context.Context, token, ip string) (*AuthResponse, error) {
	current, err := s.repomanager.RefreshTokens(s.db).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}
	if !current.IsActive() {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}

	next, err := s.newRefreshToken(user.ID, ip)
	if err != nil {
		return nil, common.ErrInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		if err := repo.Revoke(ctx, current.Token, time.Now().UTC(), ip, next.Token); err != nil {
			// Zero rows revoked: a concurrent refresh won the race.
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if err := repo.Create(ctx, next); err != nil {
			return err
		}
		return repo.DeleteStale(ctx, user.ID, time.Now().UTC().Add(-s.refreshTokenTTL))
	}); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}

	access, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &AuthResponse{AccessToken: access, RefreshToken: next.Token, Profile: NewProfile(user)}, nil
}

// RevokeToken marks a refresh token revoked (logout). Unknown, expired and
// already-revoked tokens fail with ErrInvalidToken. Ownership is checked by
// the transport layer; see OwnsToken.
func (s *UserService) RevokeToken(ctx context.Context, token, ip string) error {
	current, err := s.repomanager.RefreshTokens(s.db).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrInternal
	}
	if !current.IsActive() {
		return common.ErrInvalidToken
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.RefreshTokens(tx).Revoke(ctx, token, time.Now().UTC(), ip, "")
	}); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrInternal
	}
	return nil
}

// OwnsToken reports whether the refresh token belongs to userID. Used by the
// transport layer to enforce the revoke authorization rule (owner or admin).
func (s *UserService) OwnsToken(ctx context.Context, userID, token string) (bool, error) {
	current, err := s.repomanager.RefreshTokens(s.db).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, common.ErrInternal
	}
	return current.UserID == userID, nil
}

// AuthenticateWithThirdParty resolves a provider identity to a local user,
// lazily creating the user and the link on first sign-in, then issues tokens
// exactly as Authenticate does. Third-party users are verified immediately:
// the provider vouches for the email address.
func (s *UserService) AuthenticateWithThirdParty(ctx context.Context, providerType models.ProviderType, providerKey, ip string) (*AuthResponse, error) {
	if strings.TrimSpace(providerKey) == "" {
		return nil, fmt.Errorf("%w: provider key is required", common.ErrValidation)
	}
	if !providerType.Valid() {
		return nil, fmt.Errorf("%w: provider type is invalid", common.ErrValidation)
	}

	id := models.ProviderID(providerType, providerKey)

	provider, err := s.repomanager.Providers(s.db).GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		provider, err = s.registerProvider(ctx, providerType, providerKey)
	}
	if err != nil {
		return nil, common.ErrInternal
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, provider.UserID)
	if err != nil {
		return nil, common.ErrInternal
	}

	return s.issueTokens(ctx, user, ip)
}

// registerProvider creates the user and the identity link in one
// transaction. If a concurrent first sign-in beat us to the insert, the
// existing link wins and is returned.
func (s *UserService) registerProvider(ctx context.Context, providerType models.ProviderType, providerKey string) (*models.AuthenticationProvider, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:       newID(),
		Role:     models.RoleUser,
		Created:  now,
		Verified: &now,
	}
	provider := &models.AuthenticationProvider{
		ID:           models.ProviderID(providerType, providerKey),
		ProviderType: providerType,
		KeyProvided:  providerKey,
		UserID:       user.ID,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Providers(tx).Create(ctx, provider)
	})
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return s.repomanager.Providers(s.db).GetByID(ctx, provider.ID)
		}
		return nil, err
	}
	return provider, nil
}

// Register creates a pending user plus its credential record and dispatches
// a verification email. The user cannot authenticate until VerifyEmail.
func (s *UserService) Register(ctx context.Context, req RegisterRequest, origin string) error {
	if err := validation.ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return err
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return err
	}

	taken, err := s.repomanager.Accounts(s.db).UsernameExists(ctx, req.Username)
	if err != nil {
		return common.ErrInternal
	}
	if taken {
		return fmt.Errorf("%w: that username is already taken", common.ErrValidation)
	}
	if req.Email != "" {
		used, err := s.repomanager.Users(s.db).EmailExists(ctx, req.Email)
		if err != nil {
			return common.ErrInternal
		}
		if used {
			return fmt.Errorf("%w: this email is already used in another account", common.ErrValidation)
		}
	}

	verificationToken, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return common.ErrInternal
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:                newID(),
		Firstname:         req.Firstname,
		Lastname:          req.Lastname,
		Email:             req.Email,
		Role:              models.RoleUser,
		Created:           now,
		VerificationToken: verificationToken,
	}

	hash, salt := passwords.HashWithRandomSalt(req.Password)
	account := &models.UserAccount{
		ID:           models.AccountIDForUser(user.ID),
		UserID:       user.ID,
		Username:     req.Username,
		PasswordHash: hash,
		PasswordSalt: salt,
		Created:      now,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Accounts(tx).Create(ctx, account)
	}); err != nil {
		if errors.Is(err, common.ErrValidation) {
			return err
		}
		return common.ErrInternal
	}

	s.sendVerificationEmail(ctx, user, origin)
	return nil
}

// VerifyEmail redeems a verification token: the token is cleared and the
// user's verified timestamp set. Unknown tokens fail with
// ErrVerificationFailed.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrVerificationFailed
		}
		return common.ErrInternal
	}

	now := time.Now().UTC()
	user.VerificationToken = ""
	user.Verified = &now

	if err := repo.Update(ctx, user); err != nil {
		return common.ErrInternal
	}
	return nil
}

// ForgotPassword sets a short-lived reset token and mails it. An unknown
// email silently succeeds so the endpoint cannot be used to enumerate
// accounts.
func (s *UserService) ForgotPassword(ctx context.Context, emailAddr, origin string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return common.ErrInternal
	}

	resetToken, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return common.ErrInternal
	}
	expires := time.Now().UTC().Add(resetTokenValidity)
	user.ResetToken = resetToken
	user.ResetTokenExpires = &expires

	if err := repo.Update(ctx, user); err != nil {
		return common.ErrInternal
	}

	s.sendPasswordResetEmail(ctx, user, origin)
	return nil
}

// ResetPassword redeems a reset token. The token must match and be
// unexpired; the linked credential record must exist. On success the
// password is rehashed with a fresh salt and the reset token cleared, in one
// transaction.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByActiveResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrInternal
	}

	account, err := s.repomanager.Accounts(s.db).GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrInternal
	}

	hash, salt := passwords.HashWithRandomSalt(newPassword)
	now := time.Now().UTC()
	user.ResetToken = ""
	user.ResetTokenExpires = nil
	user.PasswordReset = &now

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).UpdatePassword(ctx, account.ID, hash, salt); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Update(ctx, user)
	}); err != nil {
		return common.ErrInternal
	}
	return nil
}

// Update applies a partial profile update. Zero-valued request fields leave
// the stored value untouched.
func (s *UserService) Update(ctx context.Context, userID string, req UpdateRequest) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInternal
	}

	if req.Firstname != "" {
		user.Firstname = req.Firstname
	}
	if req.Lastname != "" {
		user.Lastname = req.Lastname
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.ImageURL != "" {
		user.ImageURL = req.ImageURL
	}
	if req.Birthday != nil {
		user.Birthday = req.Birthday
	}
	now := time.Now().UTC()
	user.Updated = &now

	if err := repo.Update(ctx, user); err != nil {
		return common.ErrInternal
	}
	return nil
}

// GetByID returns a user's profile.
func (s *UserService) GetByID(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	profile := NewProfile(user)
	return &profile, nil
}

// GetRole returns a user's role without exposing the rest of the record.
func (s *UserService) GetRole(ctx context.Context, userID string) (models.Role, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		return "", common.ErrInternal
	}
	return user.Role, nil
}

// GetRefreshTokens returns the user's refresh-token rows, oldest first,
// including revoked and expired ones so the chain is visible.
func (s *UserService) GetRefreshTokens(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	tokens, err := s.repomanager.RefreshTokens(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternal
	}
	return tokens, nil
}

// GetAll returns all user profiles.
func (s *UserService) GetAll(ctx context.Context) ([]Profile, error) {
	all, err := s.repomanager.Users(s.db).GetAll(ctx)
	if err != nil {
		return nil, common.ErrInternal
	}
	result := make([]Profile, 0, len(all))
	for _, user := range all {
		result = append(result, NewProfile(user))
	}
	return result, nil
}

// --- helpers below ---

// newID generates a 32-character user id.
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func (s *UserService) newRefreshToken(userID, ip string) (*models.RefreshToken, error) {
	value, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &models.RefreshToken{
		Token:       value,
		UserID:      userID,
		Expires:     now.Add(s.refreshTokenValidityDuration),
		Created:     now,
		CreatedByIP: ip,
	}, nil
}

// issueTokens generates an access/refresh pair for user, appends the refresh
// token and prunes stale ones in one transaction.
func (s *UserService) issueTokens(ctx context.Context, user *models.User, ip string) (*AuthResponse, error) {
	access, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	refresh, err := s.newRefreshToken(user.ID, ip)
	if err != nil {
		return nil, common.ErrInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		if err := repo.Create(ctx, refresh); err != nil {
			return err
		}
		return repo.DeleteStale(ctx, user.ID, time.Now().UTC().Add(-s.refreshTokenTTL))
	}); err != nil {
		return nil, common.ErrInternal
	}

	return &AuthResponse{AccessToken: access, RefreshToken: refresh.Token, Profile: NewProfile(user)}, nil
}
