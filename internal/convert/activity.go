// Package convert maps durable entities to transport records and back.
package convert

import (
	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/model"
)

// --- Activity (server -> client) ---

// ToActivityDTO converts a domain activity to its wire record.
func ToActivityDTO(a model.Activity) api.ActivityDTO {
	return api.ActivityDTO{
		ID:          a.ID,
		Title:       a.Title,
		Category:    a.Category,
		Description: a.Description,
		Date:        api.NewTimestamp(a.Date),
		City:        a.City,
		Venue:       a.Venue,
		Attendees:   ToAttendeeDTOs(a.Attendees),
	}
}

// ToActivityDTOs converts a slice, preserving order. Never returns nil so an
// empty collection encodes as [].
func ToActivityDTOs(as []model.Activity) []api.ActivityDTO {
	out := make([]api.ActivityDTO, 0, len(as))
	for _, a := range as {
		out = append(out, ToActivityDTO(a))
	}
	return out
}

// ToAttendeeDTOs converts attendees; nil stays nil.
func ToAttendeeDTOs(in []model.Attendee) []api.AttendeeDTO {
	if in == nil {
		return nil
	}
	out := make([]api.AttendeeDTO, 0, len(in))
	for _, at := range in {
		out = append(out, api.AttendeeDTO{
			Username:    at.Username,
			DisplayName: at.DisplayName,
			Image:       at.Image,
			IsHost:      at.IsHost,
		})
	}
	return out
}

// --- Activity (client -> server) ---

// FromActivityDTO converts a wire record to a domain activity. The date is
// normalised to UTC and truncated to api.Precision.
func FromActivityDTO(d api.ActivityDTO) model.Activity {
	return model.Activity{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Date:        d.Date.UTC().Truncate(api.Precision),
		City:        d.City,
		Venue:       d.Venue,
		Attendees:   FromAttendeeDTOs(d.Attendees),
	}
}

// FromAttendeeDTOs converts attendees; nil stays nil.
func FromAttendeeDTOs(in []api.AttendeeDTO) []model.Attendee {
	if in == nil {
		return nil
	}
	out := make([]model.Attendee, 0, len(in))
	for _, at := range in {
		out = append(out, model.Attendee{
			Username:    at.Username,
			DisplayName: at.DisplayName,
			Image:       at.Image,
			IsHost:      at.IsHost,
		})
	}
	return out
}
