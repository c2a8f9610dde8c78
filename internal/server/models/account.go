package models

import "time"

// UserAccount is the credential record, one-to-one with User. The ID derives
// from the user id ("AC" prefix); Username is globally unique.
type UserAccount struct {
	ID           string
	UserID       string
	Username     string
	PasswordHash string
	PasswordSalt string
	Created      time.Time
}

// AccountIDPrefix prefixes every UserAccount id.
const AccountIDPrefix = "AC"

// AccountIDForUser derives the credential-record id for a user id.
func AccountIDForUser(userID string) string {
	return AccountIDPrefix + userID
}
