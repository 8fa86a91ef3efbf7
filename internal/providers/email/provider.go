package email

import "context"

// Provider delivers transactional mail. Templates live under templates/ and are
// addressed by file name without the .html suffix.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, to []string, templateName string, data interface{}) error
}
