package models

import "time"

// RefreshToken is a long-lived opaque credential. A token is created on
// login/refresh/third-party login and dies either explicitly (logout) or
// implicitly when a refresh replaces it; ReplacedByToken then points at its
// successor, forming the revocation chain used to detect replays.
type RefreshToken struct {
	Token           string
	UserID          string
	Expires         time.Time
	Created         time.Time
	CreatedByIP     string
	Revoked         *time.Time
	RevokedByIP     string
	ReplacedByToken string
}

// IsExpired reports whether the token has passed its expiry.
func (t *RefreshToken) IsExpired() bool {
	return !t.Expires.After(time.Now().UTC())
}

// IsActive reports whether the token may still be redeemed: not revoked and
// not expired.
func (t *RefreshToken) IsActive() bool {
	return t.Revoked == nil && !t.IsExpired()
}
