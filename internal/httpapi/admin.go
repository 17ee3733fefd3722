package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/export"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/view"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// filterFromQuery reads filter_type, date and week_date.  It writes a 400 and
// returns false when a date does not parse.
func (s *Server) filterFromQuery(w http.ResponseWriter, r *http.Request) (view.Filter, bool) {
	q := r.URL.Query()
	f, err := view.ParseFilter(q.Get("filter_type"), q.Get("date"), q.Get("week_date"), s.ledger.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_filter", err.Error())
		return view.Filter{}, false
	}
	return f, true
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	all := s.ledger.Events()
	selected := f.Apply(all)

	views := make([]types.EventView, 0, len(selected))
	for _, e := range selected {
		views = append(views, types.NewEventView(e))
	}
	writeJSON(w, http.StatusOK, types.EventsResponse{
		Filter: f.View(),
		Dates:  view.Dates(all),
		Events: views,
	})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req types.AddEventRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	kind, ok := types.ParseKind(req.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", service.ErrInvalidKind.Error())
		return
	}
	ts, err := types.ParseTimestamp(req.Timestamp, s.ledger.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_timestamp", err.Error())
		return
	}

	ev, err := s.ledger.AddEvent(r.Context(), req.Name, kind, ts)
	if err != nil {
		s.writeServiceError(w, r, "add_event", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.NewEventView(ev))
}

func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.EditEventRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ts, err := types.ParseTimestamp(req.Timestamp, s.ledger.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_timestamp", err.Error())
		return
	}

	ev, err := s.ledger.EditEvent(r.Context(), id, ts)
	if err != nil {
		s.writeServiceError(w, r, "edit_event", err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewEventView(ev))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.ledger.DeleteEvent(r.Context(), id); err != nil {
		s.writeServiceError(w, r, "delete_event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	rows := view.ToDayRows(f.Select(s.ledger.Events()))
	writeJSON(w, http.StatusOK, types.RowsResponse{Filter: f.View(), Rows: view.Views(rows)})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", xlsxContentType, export.WriteXLSX)
}

// export renders the filtered day rows into a buffer first so a writer error
// still yields a clean 500 instead of a truncated download.
func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, []view.Row) error) {
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	rows := view.ToDayRows(f.Select(s.ledger.Events()))

	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		s.writeServiceError(w, r, "export_"+ext, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(f, ext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func exportName(f view.Filter, ext string) string {
	v := f.View()
	switch f.Type {
	case view.FilterDate:
		return fmt.Sprintf("room_logs_%s.%s", v.Date, ext)
	case view.FilterWeek:
		return fmt.Sprintf("room_logs_%s_to_%s.%s", v.From, v.To, ext)
	default:
		return "room_logs." + ext
	}
}
