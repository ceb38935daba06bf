package adapter

import "context"

// PushMessage is one topic-addressed push notification.
type PushMessage struct {
	Topic string
	Data  map[string]string
	Title string
	Body  string
	// TTLSeconds bounds redelivery; zero means the transport default.
	TTLSeconds int
}

// PushResult reports per-message delivery outcome for a batch send.
type PushResult struct {
	Sent       int
	Failed     int
	MessageIDs []string
}

// PushSender dispatches push notifications to subscribed clients.
type PushSender interface {
	Configured() bool
	Send(ctx context.Context, msg PushMessage) (string, error)
	SendEach(ctx context.Context, msgs []PushMessage) (*PushResult, error)
}
