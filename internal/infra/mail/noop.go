package mail

import (
	"context"
	"fmt"

	"tlangau-server/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*Noop)(nil)

// Noop stands in when SMTP credentials are absent.
type Noop struct{}

func (Noop) Configured() bool { return false }

func (Noop) SendAccessCode(context.Context, string, string, []string) error {
	return fmt.Errorf("mailer not configured")
}
