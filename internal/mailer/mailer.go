// Package mailer defines the mail-transport collaborator and its AWS SES
// implementation. The dispatch loop only depends on the interface.
package mailer

import "context"

// Mailer delivers one email. Implementations may fail per message; the
// dispatcher treats any error as a per-recipient delivery failure.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
