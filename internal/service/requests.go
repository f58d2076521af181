package service

import "github.com/and161185/activities/internal/api"

// DetailsQuery asks for one activity.
type DetailsQuery struct{ ID string }

// ListQuery asks for every activity ordered by date.
type ListQuery struct{}

// CreateCommand adds an activity with a client-assigned id.
type CreateCommand struct{ Activity api.ActivityDTO }

// EditCommand replaces the descriptive fields of the activity with ID.
// An empty Activity.ID takes ID.
type EditCommand struct {
	ID       string
	Activity api.ActivityDTO
}

// DeleteCommand removes the activity with ID.
type DeleteCommand struct{ ID string }

// Ack acknowledges a successful mutation.
type Ack struct{}

func requireID(id string) *Failure {
	if id == "" {
		return invalid(map[string]string{"id": "id is required"})
	}
	return nil
}
