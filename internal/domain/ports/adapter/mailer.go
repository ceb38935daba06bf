package adapter

import "context"

// Mailer delivers the access-code email. Failure to deliver never rolls back
// fulfillment; callers log it as requiring manual follow-up.
type Mailer interface {
	Configured() bool
	// SendAccessCode mails the code and purchased service list to the buyer.
	SendAccessCode(ctx context.Context, to, code string, services []string) error
}
