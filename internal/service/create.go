package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/activities/internal/convert"
	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/events"
	"github.com/and161185/activities/internal/repository"
)

// Create adds a new activity under its client-assigned id.
type Create struct {
	repo repository.Repository
	pub  events.Publisher
	log  *zap.Logger
}

// NewCreate constructs the Create handler.
func NewCreate(repo repository.Repository, pub events.Publisher, log *zap.Logger) *Create {
	return &Create{repo: repo, pub: pub, log: log}
}

// Handle validates the payload, rejects taken ids and commits the new entity.
func (h *Create) Handle(ctx context.Context, c CreateCommand) (Ack, error) {
	if fields := validateActivity(c.Activity); fields != nil {
		return Ack{}, invalid(fields)
	}
	a := convert.FromActivityDTO(c.Activity)

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		return Ack{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	switch _, err := tx.FindByID(ctx, a.ID); {
	case err == nil:
		return Ack{}, conflict(a.ID)
	case !errors.Is(err, errs.ErrNotFound):
		return Ack{}, err
	}

	if err := tx.Add(ctx, a); err != nil {
		return Ack{}, h.mapWrite(a.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Ack{}, h.mapWrite(a.ID, err)
	}

	dto := convert.ToActivityDTO(a)
	publish(ctx, h.pub, h.log, events.Event{Type: events.ActivityCreated, ActivityID: a.ID, Activity: &dto})
	return Ack{}, nil
}

// mapWrite turns a lost insert race into Conflict.
func (h *Create) mapWrite(id string, err error) error {
	if errors.Is(err, errs.ErrAlreadyExists) {
		return conflict(id)
	}
	return err
}
