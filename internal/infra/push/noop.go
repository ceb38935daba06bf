package push

import (
	"context"
	"fmt"

	"tlangau-server/internal/domain/ports/adapter"
)

var _ adapter.PushSender = (*Noop)(nil)

// Noop stands in when Firebase credentials are absent.
type Noop struct{}

func (Noop) Configured() bool { return false }

func (Noop) Send(context.Context, adapter.PushMessage) (string, error) {
	return "", fmt.Errorf("push sender not configured")
}

func (Noop) SendEach(context.Context, []adapter.PushMessage) (*adapter.PushResult, error) {
	return nil, fmt.Errorf("push sender not configured")
}
