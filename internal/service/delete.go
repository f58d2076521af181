package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/events"
	"github.com/and161185/activities/internal/repository"
)

// Delete removes an existing activity.
type Delete struct {
	repo repository.Repository
	pub  events.Publisher
	log  *zap.Logger
}

// NewDelete constructs the Delete handler.
func NewDelete(repo repository.Repository, pub events.Publisher, log *zap.Logger) *Delete {
	return &Delete{repo: repo, pub: pub, log: log}
}

// Handle checks existence, then removes and commits.
func (h *Delete) Handle(ctx context.Context, c DeleteCommand) (Ack, error) {
	if f := requireID(c.ID); f != nil {
		return Ack{}, f
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		return Ack{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.FindByID(ctx, c.ID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Ack{}, notFound(c.ID)
		}
		return Ack{}, err
	}
	if err := tx.Remove(ctx, c.ID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Ack{}, notFound(c.ID)
		}
		return Ack{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Ack{}, notFound(c.ID)
		}
		return Ack{}, err
	}

	publish(ctx, h.pub, h.log, events.Event{Type: events.ActivityDeleted, ActivityID: c.ID})
	return Ack{}, nil
}
