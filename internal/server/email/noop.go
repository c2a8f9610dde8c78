package email

import "context"

// NoopSender discards mail. Used when no SMTP relay is configured and in
// tests; the service still logs the dispatch attempt.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}
