// Package mailer delivers transactional email. The reset flow only hands
// it a recipient and a plaintext token; building and sending the message
// is this package's whole job.
package mailer

import "context"

// Mailer sends application email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}
