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

// Edit replaces the descriptive fields of an existing activity. Concurrent
// edits are last-write-wins.
type Edit struct {
	repo repository.Repository
	pub  events.Publisher
	log  *zap.Logger
}

// NewEdit constructs the Edit handler.
func NewEdit(repo repository.Repository, pub events.Publisher, log *zap.Logger) *Edit {
	return &Edit{repo: repo, pub: pub, log: log}
}

// Handle validates the payload, checks existence and commits the replacement.
// Attendees are kept unless the payload carries them.
func (h *Edit) Handle(ctx context.Context, c EditCommand) (Ack, error) {
	dto := c.Activity
	if dto.ID == "" {
		dto.ID = c.ID
	}
	if c.ID != "" && dto.ID != c.ID {
		return Ack{}, invalid(map[string]string{"id": "id does not match the addressed activity"})
	}
	if fields := validateActivity(dto); fields != nil {
		return Ack{}, invalid(fields)
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		return Ack{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := tx.FindByID(ctx, dto.ID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Ack{}, notFound(dto.ID)
		}
		return Ack{}, err
	}

	next := convert.FromActivityDTO(dto)
	if dto.Attendees == nil {
		next.Attendees = current.Attendees
	}

	if err := tx.Update(ctx, next); err != nil {
		return Ack{}, h.mapWrite(dto.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Ack{}, h.mapWrite(dto.ID, err)
	}

	out := convert.ToActivityDTO(next)
	publish(ctx, h.pub, h.log, events.Event{Type: events.ActivityUpdated, ActivityID: next.ID, Activity: &out})
	return Ack{}, nil
}

// mapWrite reports an activity removed after the existence check as NotFound.
func (h *Edit) mapWrite(id string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return notFound(id)
	}
	return err
}
