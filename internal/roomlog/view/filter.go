// Package view derives display and export projections from a snapshot of
// the event log.  Everything here is a pure function of its inputs; the
// current filter selection belongs to the caller.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

type FilterType string

const (
	FilterTypeAll FilterType = "all"
	FilterDate    FilterType = "date"
	FilterWeek    FilterType = "week"
)

// Filter selects events.  Date is used by FilterDate and WeekDate (any day
// of the week) by FilterWeek; both are calendar dates in the log's zone.
type Filter struct {
	Type     FilterType
	Date     time.Time
	WeekDate time.Time
}

// ParseFilter builds a filter from query values.  An explicit date or week
// date implies its filter type; a date or week type without a value
// defaults to today.
func ParseFilter(filterType, date, weekDate string, today time.Time) (Filter, error) {
	ft := FilterType(strings.ToLower(strings.TrimSpace(filterType)))
	date = strings.TrimSpace(date)
	weekDate = strings.TrimSpace(weekDate)
	loc := today.Location()

	if ft == "" || ft == FilterTypeAll {
		switch {
		case date != "":
			ft = FilterDate
		case weekDate != "":
			ft = FilterWeek
		default:
			ft = FilterTypeAll
		}
	}

	switch ft {
	case FilterDate:
		if date == "" {
			return Filter{Type: FilterDate, Date: startOfDay(today)}, nil
		}
		d, err := types.ParseDate(date, loc)
		if err != nil {
			return Filter{}, err
		}
		return Filter{Type: FilterDate, Date: d}, nil
	case FilterWeek:
		if weekDate == "" {
			return Filter{Type: FilterWeek, WeekDate: startOfDay(today)}, nil
		}
		d, err := types.ParseDate(weekDate, loc)
		if err != nil {
			return Filter{}, err
		}
		return Filter{Type: FilterWeek, WeekDate: d}, nil
	default:
		return Filter{Type: FilterTypeAll}, nil
	}
}

// Apply returns the events selected by f, newest first, for admin display.
func (f Filter) Apply(events []types.Event) []types.Event {
	switch f.Type {
	case FilterDate:
		return FilterByDate(events, f.Date)
	case FilterWeek:
		return FilterByWorkWeek(events, f.WeekDate)
	default:
		return FilterAll(events)
	}
}

// Select returns the events selected by f in chronological order, which is
// what ToDayRows expects.
func (f Filter) Select(events []types.Event) []types.Event {
	return reversed(f.Apply(events))
}

// View renders f for echoing back to the caller.
func (f Filter) View() types.FilterView {
	v := types.FilterView{Type: string(f.Type)}
	switch f.Type {
	case FilterDate:
		v.Date = types.DateKey(f.Date)
	case FilterWeek:
		mon, fri := WorkWeek(f.WeekDate)
		v.WeekDate = types.DateKey(f.WeekDate)
		v.From = types.DateKey(mon)
		v.To = types.DateKey(fri)
		v.Days = WeekDates(f.WeekDate)
	}
	if v.Type == "" {
		v.Type = string(FilterTypeAll)
	}
	return v
}

// FilterByDate returns the events on date's calendar day, newest first.
func FilterByDate(events []types.Event, date time.Time) []types.Event {
	key := types.DateKey(date)
	return newestFirst(events, func(e types.Event) bool { return e.Date() == key })
}

// FilterByWorkWeek returns the events from Monday to Friday of the week
// containing anyDate, newest first.
func FilterByWorkWeek(events []types.Event, anyDate time.Time) []types.Event {
	mon, fri := WorkWeek(anyDate)
	from, to := types.DateKey(mon), types.DateKey(fri)
	return newestFirst(events, func(e types.Event) bool {
		d := e.Date()
		return d >= from && d <= to
	})
}

// FilterAll returns every event, newest first.
func FilterAll(events []types.Event) []types.Event {
	return newestFirst(events, func(types.Event) bool { return true })
}

// WorkWeek returns the Monday and Friday of the week containing d.  Saturday
// and Sunday belong to the week that started on the preceding Monday.
func WorkWeek(d time.Time) (monday, friday time.Time) {
	day := startOfDay(d)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	monday = day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 4)
}

// WeekDates returns the Monday..Friday date keys of the week containing d.
func WeekDates(d time.Time) []string {
	mon, _ := WorkWeek(d)
	out := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		out = append(out, types.DateKey(mon.AddDate(0, 0, i)))
	}
	return out
}

// Dates returns the distinct event dates, newest first.
func Dates(events []types.Event) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		d := e.Date()
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// newestFirst keeps the events matching keep, sorted by timestamp
// descending.  Equal timestamps come out in reverse input order, so log-order
// input yields newest-inserted first.
func newestFirst(events []types.Event, keep func(types.Event) bool) []types.Event {
	out := make([]types.Event, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		if keep(events[i]) {
			out = append(out, events[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func reversed(events []types.Event) []types.Event {
	out := make([]types.Event, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
