package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/roomlog/internal/observability"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store/memory"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// state is everything the ledger persists.
type state struct {
	registry *Registry
	log      *EventLog
}

func newState() *state {
	return &state{registry: NewRegistry(), log: NewEventLog()}
}

func (s *state) clone() *state {
	return &state{registry: s.registry.clone(), log: s.log.clone()}
}

func (s *state) document() store.Document {
	doc := store.Document{
		People: s.registry.People(),
	}
	for _, l := range s.registry.Links() {
		doc.Cards = append(doc.Cards, store.CardRecord{CardID: l.CardID, Person: l.Person})
	}
	for _, e := range s.log.Events() {
		doc.Events = append(doc.Events, store.EventRecord{
			ID:        e.ID,
			Person:    e.Person,
			Timestamp: types.FormatTimestamp(e.Timestamp),
			Kind:      string(e.Kind),
		})
	}
	return doc
}

// LedgerOptions configures NewLedger.  Zero values pick defaults: a memory
// store, a resolver with the built-in card shape, ScopeAll, the local time
// zone and time.Now.
type LedgerOptions struct {
	Store    store.DocumentStore
	Resolver *Resolver
	Engine   *SignEngine
	Location *time.Location
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// Ledger owns the identity registry and the event log.  Every mutation runs
// under one mutex: the current state is cloned, the change is applied to the
// clone, the clone is written to the document store and only then becomes
// the current state.  A failed write therefore leaves memory matching disk.
type Ledger struct {
	mu    sync.Mutex
	state *state

	docs     store.DocumentStore
	resolver *Resolver
	engine   *SignEngine
	loc      *time.Location
	clock    func() time.Time
	logger   zerolog.Logger
}

func NewLedger(opts LedgerOptions) *Ledger {
	l := &Ledger{
		state:    newState(),
		docs:     opts.Store,
		resolver: opts.Resolver,
		engine:   opts.Engine,
		loc:      opts.Location,
		clock:    opts.Clock,
		logger:   opts.Logger.With().Str("component", "ledger").Logger(),
	}
	if l.docs == nil {
		l.docs = memory.New()
	}
	if l.resolver == nil {
		l.resolver = NewResolver(nil)
	}
	if l.engine == nil {
		l.engine = NewSignEngine(ScopeAll)
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.clock == nil {
		l.clock = time.Now
	}
	return l
}

func (l *Ledger) Location() *time.Location { return l.loc }

// Now is the current minute in the ledger's time zone.
func (l *Ledger) Now() time.Time {
	return l.clock().In(l.loc).Truncate(time.Minute)
}

// Load replaces the in-memory state with the stored document.  Events are
// re-sorted on insertion, so out-of-order documents are tolerated; equal
// timestamps keep document order.  Malformed records fail the load rather
// than being dropped on the next save.
func (l *Ledger) Load(ctx context.Context) error {
	doc, err := l.docs.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}

	next := newState()
	for _, p := range doc.People {
		if err := next.registry.AddPerson(p); err != nil {
			return fmt.Errorf("stored person %q: %w", p, err)
		}
	}
	for _, c := range doc.Cards {
		if err := next.registry.LinkCard(c.CardID, c.Person); err != nil {
			return fmt.Errorf("stored card %q: %w", c.CardID, err)
		}
	}

	seen := make(map[string]struct{}, len(doc.Events))
	for i, rec := range doc.Events {
		ts, err := types.ParseTimestamp(rec.Timestamp, l.loc)
		if err != nil {
			return fmt.Errorf("stored event %d: %w", i, err)
		}
		kind, ok := types.ParseKind(rec.Kind)
		if !ok {
			return fmt.Errorf("stored event %d: invalid kind %q", i, rec.Kind)
		}
		person := strings.TrimSpace(rec.Person)
		if err := next.registry.AddPerson(person); err != nil {
			return fmt.Errorf("stored event %d: %w", i, err)
		}

		id := rec.ID
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}

		next.log.Insert(types.Event{ID: id, Person: person, Timestamp: ts, Kind: kind})
	}

	l.mu.Lock()
	l.state = next
	l.mu.Unlock()

	l.logger.Info().
		Int("events", next.log.Len()).
		Int("cards", len(doc.Cards)).
		Int("people", len(next.registry.People())).
		Str("sequence_scope", string(l.engine.Scope())).
		Msg("room log loaded")
	return nil
}

// mutate applies fn to a clone of the state and persists it.  fn reports
// whether it changed anything; unchanged clones are discarded without a write.
func (l *Ledger) mutate(ctx context.Context, op string, fn func(s *state) (bool, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.clone()
	changed, err := fn(next)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	start := time.Now()
	if err := l.docs.Save(ctx, next.document()); err != nil {
		observability.PersistLatency().WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		l.logger.Error().Err(err).Str("op", op).Msg("persist failed; change discarded")
		return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
	}
	observability.PersistLatency().WithLabelValues(op, "ok").Observe(time.Since(start).Seconds())

	l.state = next
	return nil
}

// SubmitRequest is one sign submission.  Kind is optional: empty lets the
// engine decide.  A zero At means now.
type SubmitRequest struct {
	Token string
	Kind  types.Kind
	At    time.Time
}

type SubmitResult struct {
	Event types.Event
	Mode  types.Mode
}

// Submit resolves the token, classifies or validates the event at its own
// timestamp and records it.
func (l *Ledger) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	at := l.normalize(req.At)

	var res SubmitResult
	err := l.mutate(ctx, "submit", func(s *state) (bool, error) {
		r, err := l.resolver.Resolve(s.registry, req.Token)
		if err != nil {
			return false, err
		}
		ev, err := l.engine.Submit(s.log, r.Person, at, req.Kind)
		if err != nil {
			return false, err
		}
		if err := s.registry.AddPerson(r.Person); err != nil {
			return false, err
		}
		res = SubmitResult{Event: ev, Mode: r.Mode}
		return true, nil
	})
	if err != nil {
		l.reject(err)
		return SubmitResult{}, err
	}

	l.recorded(res.Event, res.Mode)
	return res, nil
}

// Scan handles a card read: the card must be linked, and the kind is always
// decided by the engine at the current minute.
func (l *Ledger) Scan(ctx context.Context, cardID string) (SubmitResult, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		l.reject(ErrInvalidCardID)
		return SubmitResult{}, ErrInvalidCardID
	}
	at := l.Now()

	var res SubmitResult
	err := l.mutate(ctx, "scan", func(s *state) (bool, error) {
		person, ok := s.registry.ResolveCard(cardID)
		if !ok {
			return false, &UnregisteredCardError{CardID: cardID}
		}
		ev, err := l.engine.Submit(s.log, person, at, "")
		if err != nil {
			return false, err
		}
		res = SubmitResult{Event: ev, Mode: types.ModeAuto}
		return true, nil
	})
	if err != nil {
		l.reject(err)
		return SubmitResult{}, err
	}

	l.recorded(res.Event, res.Mode)
	return res, nil
}

// Classify reports the kind an event for person at ts would be given.  It
// does not modify anything.
func (l *Ledger) Classify(person string, ts time.Time) types.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Classify(l.state.log, strings.TrimSpace(person), l.normalize(ts))
}

// AddEvent is the admin "add" operation: an explicit kind at an explicit
// timestamp, validated like a manual sign.
func (l *Ledger) AddEvent(ctx context.Context, person string, kind types.Kind, ts time.Time) (types.Event, error) {
	if !kind.Valid() {
		return types.Event{}, ErrInvalidKind
	}
	at := l.normalize(ts)

	var ev types.Event
	err := l.mutate(ctx, "add", func(s *state) (bool, error) {
		var err error
		ev, err = l.engine.Submit(s.log, person, at, kind)
		if err != nil {
			return false, err
		}
		return true, s.registry.AddPerson(ev.Person)
	})
	if err != nil {
		l.reject(err)
		return types.Event{}, err
	}

	l.recorded(ev, types.ModeManual)
	return ev, nil
}

// EditEvent moves an event to a new timestamp, re-validating it there.
func (l *Ledger) EditEvent(ctx context.Context, id string, ts time.Time) (types.Event, error) {
	at := l.normalize(ts)

	var ev types.Event
	err := l.mutate(ctx, "edit", func(s *state) (bool, error) {
		var err error
		ev, err = s.log.Edit(l.engine, strings.TrimSpace(id), at)
		return err == nil, err
	})
	if err != nil {
		l.reject(err)
		return types.Event{}, err
	}

	l.logger.Info().Str("event_id", ev.ID).Str("name", ev.Person).
		Str("timestamp", types.FormatTimestamp(ev.Timestamp)).Msg("event edited")
	return ev, nil
}

// DeleteEvent removes an event.  Deletion is always allowed; the person's
// remaining history is not repaired.
func (l *Ledger) DeleteEvent(ctx context.Context, id string) (types.Event, error) {
	var ev types.Event
	err := l.mutate(ctx, "delete", func(s *state) (bool, error) {
		var err error
		ev, err = s.log.Delete(strings.TrimSpace(id))
		return err == nil, err
	})
	if err != nil {
		return types.Event{}, err
	}

	l.logger.Info().Str("event_id", ev.ID).Str("name", ev.Person).Msg("event deleted")
	return ev, nil
}

func (l *Ledger) LinkCard(ctx context.Context, cardID, person string) error {
	err := l.mutate(ctx, "link_card", func(s *state) (bool, error) {
		before := len(s.registry.Links())
		if err := s.registry.LinkCard(cardID, person); err != nil {
			return false, err
		}
		return len(s.registry.Links()) != before, nil
	})
	if err != nil {
		return err
	}
	l.logger.Info().Str("card_id", strings.TrimSpace(cardID)).Str("name", strings.TrimSpace(person)).Msg("card linked")
	return nil
}

// UnlinkCard removes a card link.  Unlinking an unknown card is a no-op; the
// bool reports whether a link existed.  Events are never touched.
func (l *Ledger) UnlinkCard(ctx context.Context, cardID string) (bool, error) {
	var removed bool
	err := l.mutate(ctx, "unlink_card", func(s *state) (bool, error) {
		removed = s.registry.UnlinkCard(cardID)
		return removed, nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		l.logger.Info().Str("card_id", strings.TrimSpace(cardID)).Msg("card unlinked")
	}
	return removed, nil
}

func (l *Ledger) AddPerson(ctx context.Context, name string) error {
	return l.mutate(ctx, "add_person", func(s *state) (bool, error) {
		if s.registry.HasPerson(strings.TrimSpace(name)) {
			return false, nil
		}
		return true, s.registry.AddPerson(name)
	})
}

// ResolveCard looks up a card link.
func (l *Ledger) ResolveCard(cardID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.registry.ResolveCard(cardID)
}

func (l *Ledger) Links() []types.CardLink {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.registry.Links()
}

func (l *Ledger) People() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.registry.People()
}

// Events returns a consistent snapshot of the log in chronological order.
func (l *Ledger) Events() []types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.log.Events()
}

func (l *Ledger) Event(id string) (types.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.log.Get(strings.TrimSpace(id))
}

func (l *Ledger) normalize(ts time.Time) time.Time {
	if ts.IsZero() {
		return l.Now()
	}
	return ts.In(l.loc).Truncate(time.Minute)
}

func (l *Ledger) recorded(ev types.Event, mode types.Mode) {
	observability.SignEvents().WithLabelValues(string(ev.Kind), string(mode)).Inc()
	l.logger.Info().
		Str("event_id", ev.ID).
		Str("name", ev.Person).
		Str("action", string(ev.Kind)).
		Str("mode", string(mode)).
		Str("timestamp", types.FormatTimestamp(ev.Timestamp)).
		Msg("sign event recorded")
}

func (l *Ledger) reject(err error) {
	observability.SignRejected().WithLabelValues(RejectReason(err)).Inc()
}

// RejectReason returns a short machine reason for err.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrUnregisteredCard):
		return "unregistered_card"
	case errors.Is(err, ErrInvalidSequence):
		return "invalid_sequence"
	case errors.Is(err, ErrDuplicateCard):
		return "duplicate_card"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrEmptyToken), errors.Is(err, ErrInvalidPerson),
		errors.Is(err, ErrInvalidCardID), errors.Is(err, ErrInvalidKind):
		return "bad_request"
	default:
		return "internal"
	}
}
