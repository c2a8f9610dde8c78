// Package email delivers account mail (verification, password reset).
// Delivery is fire-and-forget from the service's perspective: failures are
// logged by the caller, never returned to the end user.
package email

import "context"

// Sender sends a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
