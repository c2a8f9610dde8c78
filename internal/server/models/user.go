// Package models defines the persistent entities of the account service.
package models

import "time"

// Role enumerates user authorization levels.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the identity record. Credentials live in UserAccount, third-party
// identity links in AuthenticationProvider. The refresh-token list is loaded
// and persisted together with the user: the user aggregate is the unit of
// persistence for token mutations.
type User struct {
	ID                string
	Firstname         string
	Lastname          string
	Email             string
	Phone             string
	ImageURL          string
	Birthday          *int64 // unix seconds, nil when unset
	Role              Role
	Created           time.Time
	Updated           *time.Time
	VerificationToken string
	Verified          *time.Time
	ResetToken        string
	ResetTokenExpires *time.Time
	PasswordReset     *time.Time
	RefreshTokens     []*RefreshToken
}

// IsVerified reports whether the user completed email verification.
func (u *User) IsVerified() bool { return u.Verified != nil }

// Fullname joins the name fields for display purposes.
func (u *User) Fullname() string {
	if u.Firstname == "" {
		return u.Lastname
	}
	if u.Lastname == "" {
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

// OwnsToken reports whether token belongs to this user's refresh-token list.
func (u *User) OwnsToken(token string) bool {
	return u.FindToken(token) != nil
}

// FindToken returns the refresh token with the given value, or nil.
func (u *User) FindToken(token string) *RefreshToken {
	for _, t := range u.RefreshTokens {
		if t.Token == token {
			return t
		}
	}
	return nil
}
