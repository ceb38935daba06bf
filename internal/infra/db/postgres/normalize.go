package postgres

import "tlangau-server/internal/domain/ports/repository"

// legacyAliases maps canonical snake_case fields to the camelCase spelling
// older records used. Normalization is read-time only: the canonical field
// is populated from the alias when absent, the alias is never removed.
var legacyAliases = map[string]string{
	"order_id":           "orderId",
	"payment_id":         "paymentId",
	"payment_request_id": "paymentRequestId",
	"expires_at":         "expiresAt",
	"created_at":         "createdAt",
	"updated_at":         "updatedAt",
	"used_by_account":    "usedByAccount",
	"used_by_email":      "usedByEmail",
	"used_at":            "usedAt",
}

// NormalizeDocument backfills canonical fields from their legacy spellings.
// New write paths emit canonical fields only; this keeps old rows readable.
func NormalizeDocument(collection string, doc repository.Document) repository.Document {
	if doc == nil {
		return nil
	}
	for canonical, alias := range legacyAliases {
		if _, ok := doc[canonical]; ok {
			continue
		}
		if v, ok := doc[alias]; ok {
			doc[canonical] = v
		}
	}
	return doc
}
