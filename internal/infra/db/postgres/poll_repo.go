package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.PollRepository = (*pollRepo)(nil)

type pollRepo struct {
	store repository.DocumentStore
}

func NewPollRepo(store repository.DocumentStore) repository.PollRepository {
	return &pollRepo{store: store}
}

func (r *pollRepo) Create(ctx context.Context, p *model.Poll) error {
	if p.Voters == nil {
		p.Voters = map[string]int{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = "active"
	}
	doc, err := encodeDoc(p)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, repository.CollectionPolls, p.ID, doc)
}

func (r *pollRepo) FindByID(ctx context.Context, pollID string) (*model.Poll, error) {
	doc, err := r.store.Get(ctx, repository.CollectionPolls, pollID)
	if err != nil {
		return nil, err
	}
	var p model.Poll
	if err := decodeDoc(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pollRepo) ListAll(ctx context.Context) ([]*model.Poll, error) {
	docs, err := r.store.List(ctx, repository.CollectionPolls)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Poll, 0, len(docs))
	for _, d := range docs {
		var p model.Poll
		if err := decodeDoc(d, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, nil
}

// Vote records the choice first-wins, then bumps the counters. The
// conditional write on the voter entry is the race guard; the counter bumps
// run only after it succeeds, so a repeat vote never double-counts.
func (r *pollRepo) Vote(ctx context.Context, pollID string, optionID int, voterEmail string) error {
	err := r.store.SetIfAbsentPath(ctx, repository.CollectionPolls, pollID,
		[]string{"voters", voterKey(voterEmail)}, optionID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.ErrAlreadyVoted
		}
		return err
	}
	// Option ids double as slots in the options array.
	optPath := []string{"options", strconv.Itoa(optionID), "votes"}
	if err := r.store.Increment(ctx, repository.CollectionPolls, pollID, optPath, 1); err != nil {
		return fmt.Errorf("bump option counter: %w", err)
	}
	if err := r.store.Increment(ctx, repository.CollectionPolls, pollID, []string{"total_votes"}, 1); err != nil {
		return fmt.Errorf("bump total counter: %w", err)
	}
	return nil
}

func (r *pollRepo) VoterChoice(ctx context.Context, pollID, voterEmail string) (int, error) {
	p, err := r.FindByID(ctx, pollID)
	if err != nil {
		return 0, err
	}
	choice, ok := p.Voters[voterKey(voterEmail)]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return choice, nil
}

func (r *pollRepo) Update(ctx context.Context, pollID string, partial repository.Document) error {
	partial["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return r.store.Patch(ctx, repository.CollectionPolls, pollID, partial)
}

func (r *pollRepo) Delete(ctx context.Context, pollID string) error {
	return r.store.Delete(ctx, repository.CollectionPolls, pollID)
}

// voterKey normalizes the voter identity used in the voters map.
func voterKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
