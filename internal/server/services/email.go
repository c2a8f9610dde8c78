package services

import (
	"context"
	"fmt"

	"github.com/shopapi/accountsvc/internal/server/models"
)

// sendVerificationEmail mails the verification link. When the register call
// carries a frontend origin the mail links straight into it; otherwise the
// body shows the raw token for use against the verify endpoint. The user is
// already persisted at this point, so a delivery failure is logged and
// swallowed rather than surfaced to the caller.
func (s *UserService) sendVerificationEmail(ctx context.Context, user *models.User, origin string) {
	if user.Email == "" {
		return
	}

	var body string
	if origin != "" {
		url := fmt.Sprintf("%s/account/verify-email?token=%s", origin, user.VerificationToken)
		body = fmt.Sprintf(`<p>Please click the below link to verify your email address:</p>
<p><a href=%q>%s</a></p>`, url, url)
	} else {
		body = fmt.Sprintf(`<p>Please use the below token to verify your email address with the <code>/accounts/verify-email</code> endpoint:</p>
<p><code>%s</code></p>`, user.VerificationToken)
	}

	if err := s.sender.Send(ctx, user.Email, "Sign-up Verification - Verify Email", body); err != nil {
		s.logger.Error(ctx, "sending verification email failed", "user_id", user.ID, "error", err)
	}
}

// sendPasswordResetEmail mails the reset link. Same origin rules and same
// log-and-swallow failure handling as sendVerificationEmail. The body names
// the validity window so the recipient knows the link is short-lived.
func (s *UserService) sendPasswordResetEmail(ctx context.Context, user *models.User, origin string) {
	var body string
	if origin != "" {
		url := fmt.Sprintf("%s/account/reset-password?token=%s", origin, user.ResetToken)
		body = fmt.Sprintf(`<p>Please click the below link to reset your password, the link will be valid for %d minutes:</p>
<p><a href=%q>%s</a></p>`, int(resetTokenValidity.Minutes()), url, url)
	} else {
		body = fmt.Sprintf(`<p>Please use the below token to reset your password with the <code>/accounts/reset-password</code> endpoint, the token will be valid for %d minutes:</p>
<p><code>%s</code></p>`, int(resetTokenValidity.Minutes()), user.ResetToken)
	}

	if err := s.sender.Send(ctx, user.Email, "Sign-up Verification - Reset Password", body); err != nil {
		s.logger.Error(ctx, "sending password reset email failed", "user_id", user.ID, "error", err)
	}
}
