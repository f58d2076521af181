// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/activities/internal/model"
)

// Repository provides read access to activities and opens units of work for changes.
type Repository interface {
	// FindByID returns the activity or errs.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Activity, error)

	// ListAll returns every activity ordered by date, then id.
	ListAll(ctx context.Context) ([]model.Activity, error)

	// Begin opens a unit of work. The caller must end it with Commit or Rollback.
	Begin(ctx context.Context) (Tx, error)
}

// Tx stages changes and persists them atomically on Commit.
type Tx interface {
	// FindByID returns the activity as seen by this unit of work or errs.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Activity, error)

	// Add stages a new activity.
	Add(ctx context.Context, a model.Activity) error

	// Update stages a full replacement of an existing activity.
	Update(ctx context.Context, a model.Activity) error

	// Remove stages deletion of an activity by id.
	Remove(ctx context.Context, id string) error

	// Commit persists the staged change set. It returns errs.ErrAlreadyExists
	// when an added id is taken, errs.ErrNotFound when an updated or removed id
	// is gone, and errs.ErrNothingChanged when nothing was written. Backends
	// that detect a conflict earlier may return the same errors from Add,
	// Update or Remove.
	Commit(ctx context.Context) error

	// Rollback discards staged changes. It is safe to call after Commit.
	Rollback(ctx context.Context) error
}
