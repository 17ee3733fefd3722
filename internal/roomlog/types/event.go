package types

import (
	"strings"
	"time"
)

// Kind is the direction of a sign event.  The string values match the
// durable document ("IN" / "OUT").
type Kind string

const (
	SignIn  Kind = "IN"
	SignOut Kind = "OUT"
)

func (k Kind) Valid() bool { return k == SignIn || k == SignOut }

// Opposite returns the kind that must follow k to keep a person's history
// alternating.
func (k Kind) Opposite() Kind {
	if k == SignIn {
		return SignOut
	}
	return SignIn
}

// ParseKind accepts the wire spellings used by forms and devices.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN", "SIGNIN", "SIGN_IN":
		return SignIn, true
	case "OUT", "SIGNOUT", "SIGN_OUT":
		return SignOut, true
	}
	return "", false
}

// Mode records how the kind of an event was decided.
type Mode string

const (
	// ModeAuto: the token resolved through a card link and the engine
	// picked the kind.
	ModeAuto Mode = "auto"
	// ModeManual: the token was a typed name.
	ModeManual Mode = "manual"
)

type Event struct {
	ID        string    `json:"id"`
	Person    string    `json:"name"`
	Timestamp time.Time `json:"-"`
	Kind      Kind      `json:"action"`
}

// Date returns the calendar date key ("2006-01-02") of the event.
func (e Event) Date() string { return DateKey(e.Timestamp) }

type CardLink struct {
	CardID string `json:"card_id"`
	Person string `json:"name"`
}
