package service

import (
	"strings"
	"unicode/utf8"

	"github.com/and161185/activities/internal/api"
)

const (
	maxIDLen    = 64
	maxTitleLen = 100

	// RFC 3339 and the sqlite text layout hold four-digit years only
	minYear = 1
	maxYear = 9999
)

// validateActivity checks required fields and limits and returns field -> message.
// A nil map means the payload is valid.
func validateActivity(a api.ActivityDTO) map[string]string {
	fields := map[string]string{}
	required := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			fields[name] = name + " is required"
		}
	}

	required("id", a.ID)
	required("title", a.Title)
	required("description", a.Description)
	required("category", a.Category)
	required("city", a.City)
	required("venue", a.Venue)
	switch y := a.Date.UTC().Year(); {
	case a.Date.IsZero():
		fields["date"] = "date is required"
	case y < minYear || y > maxYear:
		fields["date"] = "date must be between years 1 and 9999"
	}

	if _, ok := fields["id"]; !ok && utf8.RuneCountInString(a.ID) > maxIDLen {
		fields["id"] = "id must be at most 64 characters"
	}
	if _, ok := fields["title"]; !ok && utf8.RuneCountInString(a.Title) > maxTitleLen {
		fields["title"] = "title must be at most 100 characters"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func invalid(fields map[string]string) *Failure {
	return badRequest("validation failed", fields)
}
