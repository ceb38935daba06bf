package repository

import (
	"context"

	"tlangau-server/internal/domain/model"
)

// PollRepository is the contract for the community poll feature. Vote
// counters go through the store's atomic increment, never read-modify-write.
type PollRepository interface {
	Create(ctx context.Context, p *model.Poll) error
	FindByID(ctx context.Context, pollID string) (*model.Poll, error)
	ListAll(ctx context.Context) ([]*model.Poll, error)
	// Vote records the voter's choice and atomically bumps the option and
	// total counters. Returns domain.ErrAlreadyVoted on a repeat vote.
	Vote(ctx context.Context, pollID string, optionID int, voterEmail string) error
	// VoterChoice returns the option the voter picked, or domain.ErrNotFound.
	VoterChoice(ctx context.Context, pollID, voterEmail string) (int, error)
	Update(ctx context.Context, pollID string, partial Document) error
	Delete(ctx context.Context, pollID string) error
}
