// Package validation checks user-supplied registration fields before they
// reach the service layer.
package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopapi/accountsvc/internal/common"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 255
)

// ValidateUsername requires a non-blank username within length bounds.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	if len(username) < MinUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters long", common.ErrValidation, MinUsernameLen)
	}
	if len(username) > MaxUsernameLen {
		return fmt.Errorf("%w: username must not exceed %d characters", common.ErrValidation, MaxUsernameLen)
	}
	return nil
}

// ValidatePassword requires a non-blank password.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

// ValidateEmail checks email syntax. An empty email is allowed; registration
// without an email simply skips verification mail delivery.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: that email is invalid", common.ErrValidation)
	}
	return nil
}
