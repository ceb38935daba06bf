//go:build !integration

package postgres

import (
	"testing"
	"time"

	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
)

func TestNormalizeDocument(t *testing.T) {
	t.Run("backfills canonical fields from legacy spellings", func(t *testing.T) {
		doc := repository.Document{
			"code":      "A1B2C3D4E5F6",
			"orderId":   "order_1",
			"expiresAt": "2026-01-01T00:00:00Z",
			"usedAt":    "2025-12-01T10:00:00Z",
		}
		got := NormalizeDocument("access_codes", doc)

		if got["order_id"] != "order_1" {
			t.Fatalf("order_id = %v", got["order_id"])
		}
		if got["expires_at"] != "2026-01-01T00:00:00Z" {
			t.Fatalf("expires_at = %v", got["expires_at"])
		}
		if got["used_at"] != "2025-12-01T10:00:00Z" {
			t.Fatalf("used_at = %v", got["used_at"])
		}
		// legacy spellings stay in place
		if got["orderId"] != "order_1" {
			t.Fatalf("legacy orderId removed: %v", got)
		}
	})

	t.Run("never overwrites a canonical field", func(t *testing.T) {
		doc := repository.Document{
			"order_id": "order_new",
			"orderId":  "order_legacy",
		}
		got := NormalizeDocument("orders", doc)
		if got["order_id"] != "order_new" {
			t.Fatalf("order_id = %v, want order_new", got["order_id"])
		}
	})

	t.Run("nil document stays nil", func(t *testing.T) {
		if got := NormalizeDocument("orders", nil); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})

	t.Run("legacy access code round-trips into the model", func(t *testing.T) {
		doc := repository.Document{
			"code":      "A1B2C3D4E5F6",
			"orderId":   "order_1",
			"email":     "buyer@example.com",
			"used":      false,
			"createdAt": "2025-12-01T00:00:00Z",
			"expiresAt": "2025-12-31T00:00:00Z",
		}
		var code model.AccessCode
		if err := decodeDoc(NormalizeDocument("access_codes", doc), &code); err != nil {
			t.Fatal(err)
		}
		if code.OrderID != "order_1" || code.Email != "buyer@example.com" {
			t.Fatalf("decoded = %+v", code)
		}
		want := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		if !code.ExpiresAt.Equal(want) {
			t.Fatalf("ExpiresAt = %v, want %v", code.ExpiresAt, want)
		}
		// Codes without a services field grant the full catalog.
		if got := code.EffectiveServices(); len(got) != len(model.ValidServiceIDs()) {
			t.Fatalf("EffectiveServices() = %v", got)
		}
	})

	t.Run("model encode emits canonical fields only", func(t *testing.T) {
		o := &model.Order{
			OrderID:   "order_2",
			Email:     "buyer@example.com",
			Amount:    2000,
			Status:    model.OrderStatusPending,
			Services:  []string{"ring"},
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		doc, err := encodeDoc(o)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := doc["orderId"]; ok {
			t.Fatal("encode produced a legacy field")
		}
		if doc["order_id"] != "order_2" {
			t.Fatalf("order_id = %v", doc["order_id"])
		}
	})
}
