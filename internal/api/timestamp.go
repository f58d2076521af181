package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a point in time that is written as RFC 3339 and read leniently:
// besides RFC 3339 it accepts the zone-less forms produced by HTML datetime
// inputs ("2006-01-02T15:04") and plain dates, all interpreted as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Precision is the finest date resolution every storage backend keeps.
const Precision = time.Microsecond

// NewTimestamp wraps t normalised to UTC and truncated to Precision.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t.UTC().Truncate(Precision)} }

// ParseTimestamp parses s with the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid date %q", s)
}

// MarshalJSON writes the zero value as an empty string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Truncate(Precision).Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts null, "" and any of the accepted layouts.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
