package types

import "time"

// SignRequest is the body of POST /v1/sign.  Token is whatever the user typed
// or the reader emitted.  Time is an optional 24-hour "HH:MM" on today's date;
// Timestamp is an optional full durable timestamp and wins over Time.
type SignRequest struct {
	Token     string `json:"token" validate:"required"`
	Action    string `json:"action,omitempty" validate:"omitempty,oneof=IN OUT in out"`
	Time      string `json:"time,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ScanRequest is the body of POST /v1/scan.
type ScanRequest struct {
	CardID string `json:"card_id" validate:"required"`
}

type SignResponse struct {
	OK         bool      `json:"ok"`
	Mode       Mode      `json:"mode"`
	Event      EventView `json:"event"`
	ServerTime string    `json:"server_time"`
}

// EventView is the wire shape of an event.
type EventView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Action    Kind   `json:"action"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

func NewEventView(e Event) EventView {
	return EventView{
		ID:        e.ID,
		Name:      e.Person,
		Action:    e.Kind,
		Timestamp: FormatTimestamp(e.Timestamp),
		Date:      e.Date(),
		Time:      FormatClock(e.Timestamp),
	}
}

// AddEventRequest is the admin "add" form.
type AddEventRequest struct {
	Name      string `json:"name" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=IN OUT in out"`
	Timestamp string `json:"timestamp" validate:"required"`
}

// EditEventRequest replaces an event's timestamp.
type EditEventRequest struct {
	Timestamp string `json:"timestamp" validate:"required"`
}

type LinkCardRequest struct {
	CardID string `json:"card_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type AddPersonRequest struct {
	Name string `json:"name" validate:"required"`
}

// FilterView echoes the filter a listing was produced with so the caller
// can re-issue it after a mutation.
type FilterView struct {
	Type     string `json:"filter_type"`
	Date     string `json:"date,omitempty"`
	WeekDate string `json:"week_date,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`

	// Days lists the Monday..Friday date keys of a week filter.
	Days []string `json:"days,omitempty"`
}

type EventsResponse struct {
	Filter FilterView  `json:"filter"`
	Dates  []string    `json:"dates"`
	Events []EventView `json:"events"`
}

type PairView struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

type RowView struct {
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	DisplayDate string     `json:"display_date"`
	Pairs       []PairView `json:"pairs"`
}

type RowsResponse struct {
	Filter FilterView `json:"filter"`
	Rows   []RowView  `json:"rows"`
}

type CardsResponse struct {
	Cards []CardLink `json:"cards"`
}

type PeopleResponse struct {
	People []string `json:"people"`
}

type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewSignResponse builds the success body for a recorded event.
func NewSignResponse(e Event, mode Mode, now time.Time) SignResponse {
	return SignResponse{
		OK:         true,
		Mode:       mode,
		Event:      NewEventView(e),
		ServerTime: FormatTimestamp(now),
	}
}
