package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
)

// Compile-time check
var _ PollUseCase = (*pollUC)(nil)

type PollUseCase interface {
	Create(ctx context.Context, question string, options []string, createdBy string, expiresAt *time.Time, durationType string) (*model.Poll, error)
	List(ctx context.Context) ([]*model.Poll, error)
	Get(ctx context.Context, pollID string) (*model.Poll, error)
	// Vote is first-wins per voter; counters are bumped atomically in the store.
	Vote(ctx context.Context, pollID string, optionID int, voterEmail string) error
	VoterChoice(ctx context.Context, pollID, voterEmail string) (int, error)
	Close(ctx context.Context, pollID string, publishResults bool) error
	Delete(ctx context.Context, pollID string) error
}

type pollUC struct {
	polls repository.PollRepository
	now   func() time.Time
	log   zerolog.Logger
}

func NewPollUseCase(polls repository.PollRepository, logger zerolog.Logger) *pollUC {
	return &pollUC{
		polls: polls,
		now:   time.Now,
		log:   logger.With().Str("component", "poll-uc").Logger(),
	}
}

func (u *pollUC) Create(ctx context.Context, question string, options []string, createdBy string, expiresAt *time.Time, durationType string) (*model.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" || len(options) < 2 {
		return nil, fmt.Errorf("%w: a poll needs a question and at least two options", domain.ErrInvalidArgument)
	}
	opts := make([]model.PollOption, 0, len(options))
	for i, text := range options {
		opts = append(opts, model.PollOption{ID: i, Text: strings.TrimSpace(text)})
	}
	p := &model.Poll{
		ID:           "poll_" + ulid.MustNew(ulid.Now(), rand.Reader).String(),
		Question:     question,
		Options:      opts,
		Voters:       map[string]int{},
		CreatedBy:    createdBy,
		CreatedAt:    u.now().UTC(),
		ExpiresAt:    expiresAt,
		DurationType: durationType,
		Status:       "active",
	}
	if err := u.polls.Create(ctx, p); err != nil {
		return nil, err
	}
	u.log.Info().Str("poll_id", p.ID).Msg("poll created")
	return p, nil
}

func (u *pollUC) List(ctx context.Context) ([]*model.Poll, error) {
	return u.polls.ListAll(ctx)
}

func (u *pollUC) Get(ctx context.Context, pollID string) (*model.Poll, error) {
	return u.polls.FindByID(ctx, pollID)
}

func (u *pollUC) Vote(ctx context.Context, pollID string, optionID int, voterEmail string) error {
	p, err := u.polls.FindByID(ctx, pollID)
	if err != nil {
		return err
	}
	if p.Status != "active" {
		return fmt.Errorf("%w: poll is closed", domain.ErrInvalidArgument)
	}
	if p.ExpiresAt != nil && u.now().After(*p.ExpiresAt) {
		return fmt.Errorf("%w: poll has expired", domain.ErrInvalidArgument)
	}
	if optionID < 0 || optionID >= len(p.Options) {
		return fmt.Errorf("%w: unknown option", domain.ErrInvalidArgument)
	}
	return u.polls.Vote(ctx, pollID, optionID, voterEmail)
}

func (u *pollUC) VoterChoice(ctx context.Context, pollID, voterEmail string) (int, error) {
	return u.polls.VoterChoice(ctx, pollID, voterEmail)
}

func (u *pollUC) Close(ctx context.Context, pollID string, publishResults bool) error {
	return u.polls.Update(ctx, pollID, repository.Document{
		"status":          "closed",
		"publish_results": publishResults,
	})
}

func (u *pollUC) Delete(ctx context.Context, pollID string) error {
	return u.polls.Delete(ctx, pollID)
}
