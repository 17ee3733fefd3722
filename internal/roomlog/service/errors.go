package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

var (
	ErrEmptyToken    = errors.New("a name or card is required")
	ErrInvalidPerson = errors.New("name is required")
	ErrInvalidCardID = errors.New("card_id is required")
	ErrInvalidKind   = errors.New("action must be IN or OUT")
	ErrEventNotFound = errors.New("event not found")

	// Matched with errors.Is against the typed errors below.
	ErrUnregisteredCard = errors.New("card not registered")
	ErrInvalidSequence  = errors.New("invalid sign sequence")
	ErrDuplicateCard    = errors.New("card already linked")

	// ErrPersistence wraps document store failures.  The mutation that
	// produced it has not been applied.
	ErrPersistence = errors.New("persist room log")
)

// UnregisteredCardError: the token looks like a card but no link exists.
type UnregisteredCardError struct {
	CardID string
}

func (e *UnregisteredCardError) Error() string {
	return "RFID card not registered. Please contact administrator."
}

func (e *UnregisteredCardError) Is(target error) bool { return target == ErrUnregisteredCard }

// SequenceError: the requested kind contradicts the person's state at At.
type SequenceError struct {
	Person    string
	At        time.Time
	Requested types.Kind
	Required  types.Kind

	// Conflict is set when the kind matches the state before At but a later
	// event of the same kind follows it.
	Conflict bool

	// Gap is set when moving the event away from At would leave two events
	// of the opposite kind adjacent.
	Gap bool
}

func (e *SequenceError) Error() string {
	at := types.FormatClock(e.At)
	switch {
	case e.Gap:
		return fmt.Sprintf("%s's %s at %s cannot be moved because it would leave two %s events in a row.",
			e.Person, e.Requested, at, e.Requested.Opposite())
	case e.Conflict:
		return fmt.Sprintf("%s cannot sign %s at %s because it conflicts with a later %s.",
			e.Person, e.Requested, at, e.Requested)
	case e.Requested == types.SignOut:
		return fmt.Sprintf("%s cannot sign OUT at %s because they are not signed IN at that time.",
			e.Person, at)
	default:
		return fmt.Sprintf("%s is already signed IN at %s and cannot sign in again at that time.",
			e.Person, at)
	}
}

func (e *SequenceError) Is(target error) bool { return target == ErrInvalidSequence }

// DuplicateCardError: the card is linked to another person.
type DuplicateCardError struct {
	CardID   string
	LinkedTo string
}

func (e *DuplicateCardError) Error() string {
	return fmt.Sprintf("card %s is already linked to %s; unlink it first", e.CardID, e.LinkedTo)
}

func (e *DuplicateCardError) Is(target error) bool { return target == ErrDuplicateCard }
