package view

import (
	"sort"
	"time"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// PairsPerRow is how many (in, out) pairs fit on one sign-in sheet row.
const PairsPerRow = 4

// Pair is one visit.  A zero In or Out is an empty slot: a sign-out with no
// matching sign-in, or a sign-in with no sign-out yet.
type Pair struct {
	In  time.Time
	Out time.Time
}

// Row is one person's pairs for one date.  A person with more than
// PairsPerRow pairs on a date gets continuation rows.
type Row struct {
	Person string
	Date   string // "2006-01-02"
	Pairs  []Pair
}

// ToDayRows groups events into per-(person, date) rows of in/out pairs.
// Events are expected in chronological order (see Filter.Select); they are
// stably re-sorted by timestamp in case they are not.  Rows appear in the
// order of each group's first event.  Broken alternation never fails: a
// sign-in following an open sign-in closes the first with an empty out-slot,
// and a sign-out with no open sign-in gets an empty in-slot.
func ToDayRows(events []types.Event) []Row {
	sorted := append([]types.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	type key struct{ person, date string }
	var order []key
	groups := make(map[key][]types.Event)
	for _, e := range sorted {
		k := key{e.Person, e.Date()}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	var rows []Row
	for _, k := range order {
		pairs := pairUp(groups[k])
		for i := 0; i < len(pairs); i += PairsPerRow {
			end := i + PairsPerRow
			if end > len(pairs) {
				end = len(pairs)
			}
			rows = append(rows, Row{
				Person: k.person,
				Date:   k.date,
				Pairs:  append([]Pair(nil), pairs[i:end]...),
			})
		}
	}
	return rows
}

func pairUp(events []types.Event) []Pair {
	var (
		pairs []Pair
		open  *time.Time
	)
	for _, e := range events {
		switch e.Kind {
		case types.SignIn:
			if open != nil {
				pairs = append(pairs, Pair{In: *open})
			}
			ts := e.Timestamp
			open = &ts
		case types.SignOut:
			if open != nil {
				pairs = append(pairs, Pair{In: *open, Out: e.Timestamp})
				open = nil
			} else {
				pairs = append(pairs, Pair{Out: e.Timestamp})
			}
		}
	}
	if open != nil {
		pairs = append(pairs, Pair{In: *open})
	}
	return pairs
}

// Columns is the export header: name, date and four in/out pairs.
var Columns = []string{
	"Name", "Date",
	"Time In", "Time Out",
	"Time In", "Time Out",
	"Time In", "Time Out",
	"Time In", "Time Out",
}

// Cells renders the row as the ten export cells.  Dates look like "Apr. 15",
// times like "9:05 AM"; empty slots are "".
func (r Row) Cells() []string {
	cells := make([]string, len(Columns))
	cells[0] = r.Person
	cells[1] = types.FormatDisplayDate(r.Date)
	for i, p := range r.Pairs {
		if i >= PairsPerRow {
			break
		}
		cells[2+2*i] = clock(p.In)
		cells[3+2*i] = clock(p.Out)
	}
	return cells
}

// View converts the row to its wire shape.
func (r Row) View() types.RowView {
	v := types.RowView{
		Name:        r.Person,
		Date:        r.Date,
		DisplayDate: types.FormatDisplayDate(r.Date),
		Pairs:       make([]types.PairView, 0, len(r.Pairs)),
	}
	for _, p := range r.Pairs {
		v.Pairs = append(v.Pairs, types.PairView{In: clock(p.In), Out: clock(p.Out)})
	}
	return v
}

// RowsByDate splits rows per date, preserving order within each date.
func RowsByDate(rows []Row) map[string][]Row {
	out := make(map[string][]Row)
	for _, r := range rows {
		out[r.Date] = append(out[r.Date], r)
	}
	return out
}

func clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return types.FormatClock(t)
}

// Views converts rows to their wire shape.
func Views(rows []Row) []types.RowView {
	out := make([]types.RowView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.View())
	}
	return out
}

// Today returns the day rows for the date of now.
func Today(events []types.Event, now time.Time) []Row {
	return ToDayRows(reversed(FilterByDate(events, now)))
}
