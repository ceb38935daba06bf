package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/ports/adapter"
)

// Compile-time check
var _ NotifyUseCase = (*notifyUC)(nil)

const (
	ringTTLSeconds    = 300
	messageTTLSeconds = 2419200 // four weeks, matching the client retention window
)

// RingRequest addresses one ring alert at a topic.
type RingRequest struct {
	FCMTopicName string
	BundleName   string
	TopicName    string
	RingType     string // "wet" (default) or "dry"
}

// MessageRequest addresses a text message, optionally with attachments, at
// one or more topics.
type MessageRequest struct {
	FCMTopicNames     []string
	BundleName        string
	MessageText       string
	AttachmentURL     string
	DocumentURL       string
	DocumentName      string
	AudioURL          string
	AudioDuration     string
	LocationLatitude  string
	LocationLongitude string
	LocationAddress   string
	IsBroadcast       bool
}

// SendOutcome reports delivery detail for a notification dispatch.
type SendOutcome struct {
	Sent       int
	Failed     int
	MessageIDs []string
}

type NotifyUseCase interface {
	// SendRing dispatches a high-priority ring alert to a single topic.
	SendRing(ctx context.Context, req *RingRequest) (*SendOutcome, error)
	// SendMessage dispatches a message to the addressed topics. Callers gate
	// the required service (message vs broadcast) before invoking.
	SendMessage(ctx context.Context, req *MessageRequest) (*SendOutcome, error)
}

type notifyUC struct {
	push adapter.PushSender
	log  zerolog.Logger
}

func NewNotifyUseCase(push adapter.PushSender, logger zerolog.Logger) *notifyUC {
	return &notifyUC{
		push: push,
		log:  logger.With().Str("component", "notify-uc").Logger(),
	}
}

func (u *notifyUC) SendRing(ctx context.Context, req *RingRequest) (*SendOutcome, error) {
	if req.FCMTopicName == "" || req.BundleName == "" || req.TopicName == "" {
		return nil, fmt.Errorf("%w: fcmTopicName, bundleName and topicName are required", domain.ErrInvalidArgument)
	}
	ringType := req.RingType
	if ringType == "" {
		ringType = "wet"
	}

	body := req.TopicName + " - Ṭawihthei"
	if ringType == "dry" {
		body = req.TopicName + " - Ṭawihthei lo"
	}

	id, err := u.push.Send(ctx, adapter.PushMessage{
		Topic: req.FCMTopicName,
		Data: map[string]string{
			"type":       "ring",
			"ringType":   ringType,
			"priority":   "high",
			"timestamp":  nowMillis(),
			"bundleName": req.BundleName,
			"topicName":  req.TopicName,
		},
		Title:      "Ring Alert: " + req.BundleName,
		Body:       body,
		TTLSeconds: ringTTLSeconds,
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("bundle", req.BundleName).Str("topic", req.TopicName).
		Str("ring_type", ringType).Msg("ring sent")
	return &SendOutcome{Sent: 1, MessageIDs: []string{id}}, nil
}

func (u *notifyUC) SendMessage(ctx context.Context, req *MessageRequest) (*SendOutcome, error) {
	if len(req.FCMTopicNames) == 0 || req.BundleName == "" || req.MessageText == "" {
		return nil, fmt.Errorf("%w: fcmTopicName(s), bundleName and messageText are required", domain.ErrInvalidArgument)
	}

	data := map[string]string{
		"type":        "message",
		"messageText": req.MessageText,
		"priority":    "high",
		"timestamp":   nowMillis(),
		"bundleName":  req.BundleName,
		"topicName":   req.BundleName,
	}
	setIfPresent(data, "attachmentUrl", req.AttachmentURL)
	setIfPresent(data, "documentUrl", req.DocumentURL)
	setIfPresent(data, "documentName", req.DocumentName)
	setIfPresent(data, "audioUrl", req.AudioURL)
	setIfPresent(data, "audioDuration", req.AudioDuration)
	setIfPresent(data, "locationLatitude", req.LocationLatitude)
	setIfPresent(data, "locationLongitude", req.LocationLongitude)
	setIfPresent(data, "locationAddress", req.LocationAddress)

	preview := req.MessageText
	if len(preview) > 100 {
		preview = preview[:97] + "..."
	}

	msgs := make([]adapter.PushMessage, 0, len(req.FCMTopicNames))
	for _, topic := range req.FCMTopicNames {
		msgs = append(msgs, adapter.PushMessage{
			Topic:      topic,
			Data:       data,
			Title:      req.BundleName,
			Body:       preview,
			TTLSeconds: messageTTLSeconds,
		})
	}

	if len(msgs) == 1 {
		id, err := u.push.Send(ctx, msgs[0])
		if err != nil {
			return nil, err
		}
		u.log.Info().Str("bundle", req.BundleName).Msg("message sent")
		return &SendOutcome{Sent: 1, MessageIDs: []string{id}}, nil
	}

	res, err := u.push.SendEach(ctx, msgs)
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("bundle", req.BundleName).
		Int("sent", res.Sent).Int("failed", res.Failed).Msg("message batch sent")
	return &SendOutcome{Sent: res.Sent, Failed: res.Failed, MessageIDs: res.MessageIDs}, nil
}

func setIfPresent(data map[string]string, key, value string) {
	if value != "" {
		data[key] = value
	}
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
