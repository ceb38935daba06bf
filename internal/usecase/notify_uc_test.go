//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/usecase"
)

func TestSendRing(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches a high-priority ring to the topic", func(t *testing.T) {
		push := &mockPush{}
		uc := usecase.NewNotifyUseCase(push, newTestLogger())

		out, err := uc.SendRing(ctx, &usecase.RingRequest{
			FCMTopicName: "bundle_a_topic_1",
			BundleName:   "Bundle A",
			TopicName:    "Topic 1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Sent != 1 || len(out.MessageIDs) != 1 {
			t.Fatalf("outcome = %+v", out)
		}
		msg := push.sent[0]
		if msg.Topic != "bundle_a_topic_1" {
			t.Fatalf("topic = %q", msg.Topic)
		}
		if msg.Data["type"] != "ring" || msg.Data["ringType"] != "wet" {
			t.Fatalf("data = %v", msg.Data)
		}
		if msg.TTLSeconds != 300 {
			t.Fatalf("ttl = %d, want 300", msg.TTLSeconds)
		}
	})

	t.Run("dry ring changes the alert body", func(t *testing.T) {
		push := &mockPush{}
		uc := usecase.NewNotifyUseCase(push, newTestLogger())

		if _, err := uc.SendRing(ctx, &usecase.RingRequest{
			FCMTopicName: "t", BundleName: "B", TopicName: "T", RingType: "dry",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if push.sent[0].Data["ringType"] != "dry" {
			t.Fatalf("data = %v", push.sent[0].Data)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		uc := usecase.NewNotifyUseCase(&mockPush{}, newTestLogger())
		_, err := uc.SendRing(ctx, &usecase.RingRequest{FCMTopicName: "t"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("single topic uses a direct send", func(t *testing.T) {
		push := &mockPush{}
		uc := usecase.NewNotifyUseCase(push, newTestLogger())

		out, err := uc.SendMessage(ctx, &usecase.MessageRequest{
			FCMTopicNames: []string{"topic_1"},
			BundleName:    "Bundle A",
			MessageText:   "hello",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Sent != 1 {
			t.Fatalf("outcome = %+v", out)
		}
		if push.sent[0].Data["messageText"] != "hello" {
			t.Fatalf("data = %v", push.sent[0].Data)
		}
	})

	t.Run("multiple topics fan out as a batch", func(t *testing.T) {
		push := &mockPush{}
		uc := usecase.NewNotifyUseCase(push, newTestLogger())

		out, err := uc.SendMessage(ctx, &usecase.MessageRequest{
			FCMTopicNames: []string{"t1", "t2", "t3"},
			BundleName:    "Bundle A",
			MessageText:   "hello all",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Sent != 3 {
			t.Fatalf("sent = %d, want 3", out.Sent)
		}
		if len(push.sent) != 3 {
			t.Fatalf("pushed = %d, want 3", len(push.sent))
		}
	})

	t.Run("long message text is truncated in the preview only", func(t *testing.T) {
		push := &mockPush{}
		uc := usecase.NewNotifyUseCase(push, newTestLogger())

		long := make([]byte, 150)
		for i := range long {
			long[i] = 'x'
		}
		if _, err := uc.SendMessage(ctx, &usecase.MessageRequest{
			FCMTopicNames: []string{"t1"},
			BundleName:    "B",
			MessageText:   string(long),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		msg := push.sent[0]
		if len(msg.Body) != 100 {
			t.Fatalf("preview length = %d, want 100", len(msg.Body))
		}
		if len(msg.Data["messageText"]) != 150 {
			t.Fatalf("payload text length = %d, want 150", len(msg.Data["messageText"]))
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		uc := usecase.NewNotifyUseCase(&mockPush{}, newTestLogger())
		_, err := uc.SendMessage(ctx, &usecase.MessageRequest{BundleName: "B"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})
}
