// Package api holds the transport records shared by the HTTP server and client.
package api

// ActivityDTO is the flat wire representation of an activity. A null or
// absent attendees list on edit keeps the stored attendees; an empty list
// clears them.
type ActivityDTO struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Date        Timestamp     `json:"date"`
	City        string        `json:"city"`
	Venue       string        `json:"venue"`
	Attendees   []AttendeeDTO `json:"attendees"`
}

// AttendeeDTO is the wire representation of an activity participant.
type AttendeeDTO struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Image       string `json:"image,omitempty"`
	IsHost      bool   `json:"isHost"`
}

// Clone returns a copy that shares no slices with a.
func (a ActivityDTO) Clone() ActivityDTO {
	if a.Attendees != nil {
		a.Attendees = append(make([]AttendeeDTO, 0, len(a.Attendees)), a.Attendees...)
	}
	return a
}
