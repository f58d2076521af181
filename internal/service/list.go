package service

import (
	"context"
	"sort"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/convert"
	"github.com/and161185/activities/internal/model"
	"github.com/and161185/activities/internal/repository"
)

// List returns every activity ordered by date, then id.
type List struct {
	repo repository.Repository
}

// NewList constructs the List handler.
func NewList(repo repository.Repository) *List { return &List{repo: repo} }

// Handle returns the ordered collection; an empty store yields an empty slice.
func (h *List) Handle(ctx context.Context, _ ListQuery) ([]api.ActivityDTO, error) {
	all, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return model.Before(all[i], all[j]) })
	return convert.ToActivityDTOs(all), nil
}
