package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

// Statistics is the aggregate admin dashboard view.
type Statistics struct {
	TotalOrders      int     `json:"totalOrders"`
	SuccessfulOrders int     `json:"successfulOrders"`
	PendingOrders    int     `json:"pendingOrders"`
	FailedOrders     int     `json:"failedOrders"`
	TotalRevenue     float64 `json:"totalRevenue"` // major units
	UniqueUsers      int     `json:"uniqueUsers"`
	TotalCodes       int     `json:"totalCodes"`
	UsedCodes        int     `json:"usedCodes"`
	UnusedCodes      int     `json:"unusedCodes"`
}

// UserSummary is one synthesized per-user row, derived from order history.
type UserSummary struct {
	Email            string    `json:"email"`
	TotalOrders      int       `json:"totalOrders"`
	SuccessfulOrders int       `json:"successfulOrders"`
	TotalSpent       float64   `json:"totalSpent"` // major units
	FirstOrder       time.Time `json:"firstOrder"`
	LastOrder        time.Time `json:"lastOrder"`
}

// UserDeletion reports what a bulk user-data delete removed.
type UserDeletion struct {
	OrdersDeleted int `json:"ordersDeleted"`
	CodesDeleted  int `json:"codesDeleted"`
}

type AdminUseCase interface {
	ListOrders(ctx context.Context) ([]*model.Order, error)
	ListAccessCodes(ctx context.Context) ([]*model.AccessCode, error)
	DeleteAccessCode(ctx context.Context, code string) error
	// DeleteOrder removes the order and cascades to its access codes.
	DeleteOrder(ctx context.Context, orderID string) error
	// DeleteUserData removes every order and code for the email.
	DeleteUserData(ctx context.Context, email string) (*UserDeletion, error)
	Statistics(ctx context.Context) (*Statistics, error)
	ListUsers(ctx context.Context) ([]*UserSummary, error)
	// ResendEmail re-sends the user's most recent access code by mail and
	// returns the code so the operator can relay it manually if mail fails.
	ResendEmail(ctx context.Context, email string) (string, error)
	ListBundles(ctx context.Context) ([]*model.Bundle, error)
	DeleteBundle(ctx context.Context, bundleID string) error
	DeleteTopic(ctx context.Context, bundleID, topicID string) error
}

type adminUC struct {
	orders  repository.OrderRepository
	codes   repository.AccessCodeRepository
	bundles repository.BundleRepository
	mailer  adapter.Mailer
	log     zerolog.Logger
}

func NewAdminUseCase(
	orders repository.OrderRepository,
	codes repository.AccessCodeRepository,
	bundles repository.BundleRepository,
	mailer adapter.Mailer,
	logger zerolog.Logger,
) *adminUC {
	return &adminUC{
		orders:  orders,
		codes:   codes,
		bundles: bundles,
		mailer:  mailer,
		log:     logger.With().Str("component", "admin-uc").Logger(),
	}
}

func (u *adminUC) ListOrders(ctx context.Context) ([]*model.Order, error) {
	return u.orders.ListAll(ctx)
}

func (u *adminUC) ListAccessCodes(ctx context.Context) ([]*model.AccessCode, error) {
	return u.codes.ListAll(ctx)
}

func (u *adminUC) DeleteAccessCode(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := u.codes.Delete(ctx, code); err != nil {
		return err
	}
	u.log.Info().Str("code", code).Msg("access code deleted")
	return nil
}

func (u *adminUC) DeleteOrder(ctx context.Context, orderID string) error {
	if err := u.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	deleted, err := u.codes.DeleteByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cascade delete codes for %s: %w", orderID, err)
	}
	u.log.Info().Str("order_id", orderID).Int("codes_deleted", deleted).Msg("order deleted")
	return nil
}

func (u *adminUC) DeleteUserData(ctx context.Context, email string) (*UserDeletion, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ordersDeleted, err := u.orders.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("delete orders for %s: %w", email, err)
	}
	codesDeleted, err := u.codes.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("delete codes for %s: %w", email, err)
	}
	if ordersDeleted == 0 && codesDeleted == 0 {
		return nil, domain.ErrNotFound
	}
	u.log.Info().Str("email", email).
		Int("orders_deleted", ordersDeleted).Int("codes_deleted", codesDeleted).
		Msg("user data deleted")
	return &UserDeletion{OrdersDeleted: ordersDeleted, CodesDeleted: codesDeleted}, nil
}

func (u *adminUC) Statistics(ctx context.Context) (*Statistics, error) {
	orders, err := u.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := u.codes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalOrders: len(orders), TotalCodes: len(codes)}
	uniqueEmails := make(map[string]bool)
	for _, o := range orders {
		switch o.Status {
		case model.OrderStatusSuccess:
			stats.SuccessfulOrders++
			stats.TotalRevenue += float64(o.Amount) / 100
		case model.OrderStatusPending:
			stats.PendingOrders++
		case model.OrderStatusFailed:
			stats.FailedOrders++
		}
		if o.Email != "" {
			uniqueEmails[strings.ToLower(o.Email)] = true
		}
	}
	stats.UniqueUsers = len(uniqueEmails)
	for _, c := range codes {
		if c.Used {
			stats.UsedCodes++
		} else {
			stats.UnusedCodes++
		}
	}
	return stats, nil
}

func (u *adminUC) ListUsers(ctx context.Context) ([]*UserSummary, error) {
	orders, err := u.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string]*UserSummary)
	for _, o := range orders {
		if o.Email == "" {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(o.Email))
		s, ok := byEmail[email]
		if !ok {
			s = &UserSummary{Email: email, FirstOrder: o.CreatedAt, LastOrder: o.CreatedAt}
			byEmail[email] = s
		}
		s.TotalOrders++
		if o.Status == model.OrderStatusSuccess {
			s.SuccessfulOrders++
			s.TotalSpent += float64(o.Amount) / 100
		}
		if !o.CreatedAt.IsZero() {
			if o.CreatedAt.Before(s.FirstOrder) {
				s.FirstOrder = o.CreatedAt
			}
			if o.CreatedAt.After(s.LastOrder) {
				s.LastOrder = o.CreatedAt
			}
		}
	}

	users := make([]*UserSummary, 0, len(byEmail))
	for _, s := range byEmail {
		users = append(users, s)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].LastOrder.After(users[j].LastOrder) })
	return users, nil
}

func (u *adminUC) ResendEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code, err := u.codes.FindLatestByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := u.mailer.SendAccessCode(ctx, email, code.Code, code.EffectiveServices()); err != nil {
		if errors.Is(err, context.Canceled) {
			return code.Code, err
		}
		return code.Code, fmt.Errorf("resend email: %w", err)
	}
	u.log.Info().Str("email", email).Msg("access code email resent")
	return code.Code, nil
}

func (u *adminUC) ListBundles(ctx context.Context) ([]*model.Bundle, error) {
	return u.bundles.ListAll(ctx)
}

func (u *adminUC) DeleteBundle(ctx context.Context, bundleID string) error {
	if err := u.bundles.Delete(ctx, bundleID); err != nil {
		return err
	}
	u.log.Info().Str("bundle_id", bundleID).Msg("bundle deleted")
	return nil
}

func (u *adminUC) DeleteTopic(ctx context.Context, bundleID, topicID string) error {
	if err := u.bundles.DeleteTopic(ctx, bundleID, topicID); err != nil {
		return err
	}
	u.log.Info().Str("bundle_id", bundleID).Str("topic_id", topicID).Msg("topic deleted")
	return nil
}
