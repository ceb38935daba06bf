package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/infra/metrics"
)

var _ adapter.PushSender = (*FCMSender)(nil)

// FCMSender dispatches topic notifications through Firebase Cloud Messaging.
// A transient send error gets one retry; topic-addressed messages are fire
// and forget beyond that.
type FCMSender struct {
	client *messaging.Client
	log    zerolog.Logger
}

func NewFCMSender(ctx context.Context, cfg *config.PushConfig, logger zerolog.Logger) (*FCMSender, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	default:
		return nil, fmt.Errorf("no firebase credentials configured")
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &FCMSender{
		client: client,
		log:    logger.With().Str("component", "push").Logger(),
	}, nil
}

func (s *FCMSender) Configured() bool { return s.client != nil }

func (s *FCMSender) Send(ctx context.Context, msg adapter.PushMessage) (string, error) {
	fm := toFCMMessage(msg)
	var id string
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		id, err = s.client.Send(ctx, fm)
		if err == nil {
			metrics.IncPushSend("single", "ok")
			return id, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	metrics.IncPushSend("single", "error")
	return "", fmt.Errorf("fcm send to %q: %w", msg.Topic, err)
}

func (s *FCMSender) SendEach(ctx context.Context, msgs []adapter.PushMessage) (*adapter.PushResult, error) {
	if len(msgs) == 0 {
		return &adapter.PushResult{}, nil
	}
	batch := make([]*messaging.Message, 0, len(msgs))
	for _, m := range msgs {
		batch = append(batch, toFCMMessage(m))
	}
	resp, err := s.client.SendEach(ctx, batch)
	if err != nil {
		metrics.IncPushSend("batch", "error")
		return nil, fmt.Errorf("fcm batch send: %w", err)
	}
	out := &adapter.PushResult{Sent: resp.SuccessCount, Failed: resp.FailureCount}
	for _, r := range resp.Responses {
		if r.Success {
			out.MessageIDs = append(out.MessageIDs, r.MessageID)
		} else if r.Error != nil {
			s.log.Warn().Err(r.Error).Msg("batch message failed")
		}
	}
	metrics.IncPushSend("batch", "ok")
	return out, nil
}

// toFCMMessage builds a data message with notification fields duplicated
// into the per-platform sections so foreground and background handlers on
// every client see the same payload.
func toFCMMessage(m adapter.PushMessage) *messaging.Message {
	ttl := time.Duration(m.TTLSeconds) * time.Second
	msg := &messaging.Message{
		Topic: m.Topic,
		Data:  m.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{ContentAvailable: true},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"Urgency": "high"},
		},
	}
	if m.TTLSeconds > 0 {
		msg.Android.TTL = &ttl
	}
	if m.Title != "" || m.Body != "" {
		msg.Notification = &messaging.Notification{Title: m.Title, Body: m.Body}
		msg.APNS.Payload.Aps.Alert = &messaging.ApsAlert{Title: m.Title, Body: m.Body}
		msg.APNS.Payload.Aps.ContentAvailable = false
		msg.Webpush.Notification = &messaging.WebpushNotification{Title: m.Title, Body: m.Body}
	}
	return msg
}
