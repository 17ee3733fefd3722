package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// Scope bounds which of a person's events count as neighbors.
type Scope string

const (
	// ScopeAll checks a person's whole history.
	ScopeAll Scope = "all"
	// ScopeDay only checks events on the same calendar date, so a missed
	// sign-out does not carry over into the next day.
	ScopeDay Scope = "day"
)

// ParseScope falls back to ScopeAll for unknown values.
func ParseScope(s string) Scope {
	if Scope(strings.ToLower(strings.TrimSpace(s))) == ScopeDay {
		return ScopeDay
	}
	return ScopeAll
}

// SignEngine decides and validates the kind of an event for a person at a
// given timestamp, against that person's events in the log.  The decision
// depends only on the log contents and the timestamp, never on the wall
// clock.
type SignEngine struct {
	scope Scope
}

func NewSignEngine(scope Scope) *SignEngine {
	if scope != ScopeDay {
		scope = ScopeAll
	}
	return &SignEngine{scope: scope}
}

func (e *SignEngine) Scope() Scope { return e.scope }

// Classify returns the kind an event for person at ts must have: the opposite
// of the preceding event, or SignIn when there is none.
func (e *SignEngine) Classify(log *EventLog, person string, ts time.Time) types.Kind {
	prev, _ := e.neighbors(log, person, ts)
	if prev == nil {
		return types.SignIn
	}
	return prev.Kind.Opposite()
}

// Check validates that an event of kind for person at ts keeps the
// alternation intact on both sides of its position.
func (e *SignEngine) Check(log *EventLog, person string, ts time.Time, kind types.Kind) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	prev, next := e.neighbors(log, person, ts)

	required := types.SignIn
	if prev != nil {
		required = prev.Kind.Opposite()
	}
	if kind != required {
		return &SequenceError{Person: person, At: ts, Requested: kind, Required: required}
	}
	if next != nil && next.Kind == kind {
		return &SequenceError{Person: person, At: ts, Requested: kind, Required: required, Conflict: true}
	}
	return nil
}

// checkGap validates the slot gone left behind: its former neighbors must
// not share a kind.
func (e *SignEngine) checkGap(log *EventLog, gone entry) error {
	prev, next := log.around(gone)
	if prev == nil || next == nil || prev.Kind != next.Kind {
		return nil
	}
	if e.scope == ScopeDay && prev.Date() != next.Date() {
		return nil
	}
	return &SequenceError{
		Person:    gone.ev.Person,
		At:        gone.ev.Timestamp,
		Requested: gone.ev.Kind,
		Required:  gone.ev.Kind,
		Gap:       true,
	}
}

// Submit classifies (explicit == "") or validates (explicit set) an event
// for person at ts and inserts it into the log.
func (e *SignEngine) Submit(log *EventLog, person string, ts time.Time, explicit types.Kind) (types.Event, error) {
	person = strings.TrimSpace(person)
	if person == "" {
		return types.Event{}, ErrInvalidPerson
	}

	kind := explicit
	if kind == "" {
		kind = e.Classify(log, person, ts)
	}
	if err := e.Check(log, person, ts, kind); err != nil {
		return types.Event{}, err
	}

	ev := types.Event{
		ID:        uuid.NewString(),
		Person:    person,
		Timestamp: ts,
		Kind:      kind,
	}
	log.Insert(ev)
	return ev, nil
}

func (e *SignEngine) neighbors(log *EventLog, person string, ts time.Time) (prev, next *types.Event) {
	prev, next = log.neighbors(person, ts)
	if e.scope == ScopeDay {
		day := types.DateKey(ts)
		if prev != nil && prev.Date() != day {
			prev = nil
		}
		if next != nil && next.Date() != day {
			next = nil
		}
	}
	return prev, next
}
