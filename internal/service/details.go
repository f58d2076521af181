package service

import (
	"context"
	"errors"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/convert"
	"github.com/and161185/activities/internal/errs"
	"github.com/and161185/activities/internal/repository"
)

// Details returns a single activity.
type Details struct {
	repo repository.Repository
}

// NewDetails constructs the Details handler.
func NewDetails(repo repository.Repository) *Details { return &Details{repo: repo} }

// Handle looks the activity up by id.
func (h *Details) Handle(ctx context.Context, q DetailsQuery) (api.ActivityDTO, error) {
	if f := requireID(q.ID); f != nil {
		return api.ActivityDTO{}, f
	}
	a, err := h.repo.FindByID(ctx, q.ID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return api.ActivityDTO{}, notFound(q.ID)
		}
		return api.ActivityDTO{}, err
	}
	return convert.ToActivityDTO(*a), nil
}
