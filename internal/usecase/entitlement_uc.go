package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
	"tlangau-server/internal/infra/cache"
	"tlangau-server/internal/infra/metrics"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

const entitlementCacheTTL = 5 * time.Minute

// RedeemResult is the successful outcome of redeeming an access code.
type RedeemResult struct {
	Code      string
	ExpiresAt time.Time
	Services  []string // purchased plus always-free
}

// CodeInfo is the read-only view of a user's most recent code.
type CodeInfo struct {
	Code      string
	Used      bool
	ExpiresAt time.Time
	Services  []string
}

type EntitlementUseCase interface {
	// Redeem validates the code in a fixed order (exists, not expired, not
	// used, account never used any code, email binding) and marks it used.
	// The first failing check wins and nothing is mutated on failure.
	Redeem(ctx context.Context, code, email, accountID string) (*RedeemResult, error)
	// Resolve returns the caller's current entitlement, served from a short
	// TTL cache over the latest unexpired code for the email.
	Resolve(ctx context.Context, email string) (*model.Entitlement, error)
	// Info looks up the most recent code for an email without mutating it.
	Info(ctx context.Context, email string) (*CodeInfo, error)
}

type entitlementUC struct {
	codes        repository.AccessCodeRepository
	entitlements *cache.TTL[*model.Entitlement]
	now          func() time.Time
	log          zerolog.Logger
}

func NewEntitlementUseCase(codes repository.AccessCodeRepository, logger zerolog.Logger) *entitlementUC {
	return &entitlementUC{
		codes:        codes,
		entitlements: cache.NewTTL[*model.Entitlement]("entitlement", entitlementCacheTTL, nil),
		now:          time.Now,
		log:          logger.With().Str("component", "entitlement-uc").Logger(),
	}
}

func (u *entitlementUC) Redeem(ctx context.Context, codeStr, email, accountID string) (*RedeemResult, error) {
	codeStr = strings.ToUpper(strings.TrimSpace(codeStr))
	email = strings.ToLower(strings.TrimSpace(email))
	if accountID == "" {
		accountID = email
	}

	code, err := u.codes.FindByCode(ctx, codeStr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncRedemption("not_found")
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	if code.Expired(u.now()) {
		metrics.IncRedemption("expired")
		return nil, domain.ErrCodeExpired
	}
	if code.Used {
		metrics.IncRedemption("already_used")
		return nil, domain.ErrCodeAlreadyUsed
	}
	used, err := u.codes.AccountHasUsedCode(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("check account code usage: %w", err)
	}
	if used {
		metrics.IncRedemption("account_reuse")
		return nil, domain.ErrAccountUsedCode
	}
	if code.Email != email {
		metrics.IncRedemption("email_mismatch")
		return nil, domain.ErrEmailMismatch
	}

	if err := u.codes.MarkUsed(ctx, code.Code, email, accountID, u.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark code used: %w", err)
	}
	// Drop any stale cached entitlement so the redemption is visible now.
	u.entitlements.Delete(email)
	metrics.IncRedemption("ok")
	u.log.Info().Str("email", email).Str("order_id", code.OrderID).Msg("access code redeemed")

	return &RedeemResult{
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt,
		Services:  model.WithFreeServices(code.EffectiveServices()),
	}, nil
}

func (u *entitlementUC) Resolve(ctx context.Context, email string) (*model.Entitlement, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if ent, ok := u.entitlements.Get(email); ok {
		return ent, nil
	}

	// Any unexpired code bound to the email grants access; redemption state
	// only matters for Redeem, not for authorization.
	code, err := u.codes.FindLatestByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if code.Expired(u.now()) {
		return nil, domain.ErrCodeExpired
	}

	ent := &model.Entitlement{
		Email:     email,
		Services:  model.WithFreeServices(code.EffectiveServices()),
		ExpiresAt: code.ExpiresAt,
	}
	u.entitlements.Set(email, ent)
	return ent, nil
}

func (u *entitlementUC) Info(ctx context.Context, email string) (*CodeInfo, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code, err := u.codes.FindLatestByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &CodeInfo{
		Code:      code.Code,
		Used:      code.Used,
		ExpiresAt: code.ExpiresAt,
		Services:  model.WithFreeServices(code.EffectiveServices()),
	}, nil
}
