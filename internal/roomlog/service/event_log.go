package service

import (
	"sort"
	"time"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// entry pairs an event with its insertion sequence, which breaks timestamp
// ties.
type entry struct {
	ev  types.Event
	seq uint64
}

func (a entry) less(b entry) bool {
	if a.ev.Timestamp.Equal(b.ev.Timestamp) {
		return a.seq < b.seq
	}
	return a.ev.Timestamp.Before(b.ev.Timestamp)
}

// EventLog is the ordered collection of sign events.  Entries are kept sorted
// by (timestamp, insertion sequence) both globally and per person, so
// neighbor lookups are binary searches.  It is not safe for concurrent use;
// the Ledger guards it.
type EventLog struct {
	entries  []entry
	byPerson map[string][]entry
	byID     map[string]entry
	nextSeq  uint64
}

func NewEventLog() *EventLog {
	return &EventLog{
		byPerson: make(map[string][]entry),
		byID:     make(map[string]entry),
	}
}

func (l *EventLog) Len() int { return len(l.entries) }

// Insert places ev at its sorted position, after any events with the same
// timestamp.  The caller is responsible for sequencing checks.
func (l *EventLog) Insert(ev types.Event) {
	l.nextSeq++
	l.insertEntry(entry{ev: ev, seq: l.nextSeq})
}

func (l *EventLog) insertEntry(e entry) {
	l.entries = insertSorted(l.entries, e)
	l.byPerson[e.ev.Person] = insertSorted(l.byPerson[e.ev.Person], e)
	l.byID[e.ev.ID] = e
}

// Get returns the event with id.
func (l *EventLog) Get(id string) (types.Event, bool) {
	e, ok := l.byID[id]
	return e.ev, ok
}

// Delete removes the event with id.  Neighbors are not re-validated: a gap
// in a person's alternation is left as is.
func (l *EventLog) Delete(id string) (types.Event, error) {
	e, ok := l.byID[id]
	if !ok {
		return types.Event{}, ErrEventNotFound
	}
	l.removeEntry(e)
	return e.ev, nil
}

func (l *EventLog) removeEntry(e entry) {
	l.entries = removeSorted(l.entries, e)
	rest := removeSorted(l.byPerson[e.ev.Person], e)
	if len(rest) == 0 {
		delete(l.byPerson, e.ev.Person)
	} else {
		l.byPerson[e.ev.Person] = rest
	}
	delete(l.byID, e.ev.ID)
}

// Edit moves the event with id to ts.  The event is taken out, checked by the
// engine at its new position with its own kind and re-inserted as the newest
// of any equal timestamps.  The move is rejected when it would leave two
// events of the same kind adjacent at the old position.  On a failed check
// the log is left exactly as it was.
func (l *EventLog) Edit(engine *SignEngine, id string, ts time.Time) (types.Event, error) {
	old, ok := l.byID[id]
	if !ok {
		return types.Event{}, ErrEventNotFound
	}

	l.removeEntry(old)
	if err := engine.Check(l, old.ev.Person, ts, old.ev.Kind); err != nil {
		l.insertEntry(old)
		return types.Event{}, err
	}

	ev := old.ev
	ev.Timestamp = ts
	l.Insert(ev)

	if err := engine.checkGap(l, old); err != nil {
		l.removeEntry(l.byID[id])
		l.nextSeq--
		l.insertEntry(old)
		return types.Event{}, err
	}
	return ev, nil
}

// Events returns a copy of the log in chronological order.
func (l *EventLog) Events() []types.Event {
	out := make([]types.Event, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.ev
	}
	return out
}

// PersonEvents returns person's events in chronological order.
func (l *EventLog) PersonEvents(person string) []types.Event {
	list := l.byPerson[person]
	out := make([]types.Event, len(list))
	for i, e := range list {
		out[i] = e.ev
	}
	return out
}

// neighbors returns person's events immediately before and after the
// position a new event at ts would take (after equal timestamps).
func (l *EventLog) neighbors(person string, ts time.Time) (prev, next *types.Event) {
	list := l.byPerson[person]
	pos := sort.Search(len(list), func(i int) bool {
		return list[i].ev.Timestamp.After(ts)
	})
	if pos > 0 {
		p := list[pos-1].ev
		prev = &p
	}
	if pos < len(list) {
		n := list[pos].ev
		next = &n
	}
	return prev, next
}

// around returns person's events immediately before and after the slot e
// occupied.  e itself must no longer be in the log.
func (l *EventLog) around(e entry) (prev, next *types.Event) {
	list := l.byPerson[e.ev.Person]
	pos := sort.Search(len(list), func(i int) bool { return e.less(list[i]) })
	if pos > 0 {
		p := list[pos-1].ev
		prev = &p
	}
	if pos < len(list) {
		n := list[pos].ev
		next = &n
	}
	return prev, next
}

func (l *EventLog) clone() *EventLog {
	c := &EventLog{
		entries:  append([]entry(nil), l.entries...),
		byPerson: make(map[string][]entry, len(l.byPerson)),
		byID:     make(map[string]entry, len(l.byID)),
		nextSeq:  l.nextSeq,
	}
	for p, list := range l.byPerson {
		c.byPerson[p] = append([]entry(nil), list...)
	}
	for id, e := range l.byID {
		c.byID[id] = e
	}
	return c
}

func insertSorted(list []entry, e entry) []entry {
	pos := sort.Search(len(list), func(i int) bool { return e.less(list[i]) })
	list = append(list, entry{})
	copy(list[pos+1:], list[pos:])
	list[pos] = e
	return list
}

func removeSorted(list []entry, e entry) []entry {
	pos := sort.Search(len(list), func(i int) bool { return !list[i].less(e) })
	if pos < len(list) && list[pos].ev.ID == e.ev.ID {
		return append(list[:pos], list[pos+1:]...)
	}
	return list
}
