package httpapi

import (
	"net/http"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/view"
)

// handleSign accepts a typed name or reader token.  Kiosk pages post it as a
// form; scripts post JSON.
func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req types.SignRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_form", "invalid form body")
			return
		}
		req = types.SignRequest{
			Token:     r.PostForm.Get("token"),
			Action:    r.PostForm.Get("action"),
			Time:      r.PostForm.Get("time"),
			Timestamp: r.PostForm.Get("timestamp"),
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	} else if !s.decodeJSON(w, r, &req) {
		return
	}

	var kind types.Kind
	if req.Action != "" {
		k, ok := types.ParseKind(req.Action)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", service.ErrInvalidKind.Error())
			return
		}
		kind = k
	}

	at, err := s.requestTime(req.Time, req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_timestamp", err.Error())
		return
	}

	res, err := s.ledger.Submit(r.Context(), service.SubmitRequest{Token: req.Token, Kind: kind, At: at})
	if err != nil {
		s.writeServiceError(w, r, "sign", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.NewSignResponse(res.Event, res.Mode, s.ledger.Now()))
}

// handleScan records a card read.  Body is JSON {card_id} or, with
// Content-Type application/x-protobuf, a google.protobuf.StringValue; the
// protobuf reply is a google.protobuf.Struct.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if isProtobuf(r) {
		var in wrapperspb.StringValue
		if err := readProto(r, &in); err != nil {
			http.Error(w, "bad protobuf", http.StatusBadRequest)
			return
		}
		res, err := s.ledger.Scan(r.Context(), in.GetValue())
		if err != nil {
			s.writeServiceError(w, r, "scan", err)
			return
		}
		out, err := types.SignResponseStruct(types.NewSignResponse(res.Event, res.Mode, s.ledger.Now()))
		if err != nil {
			s.writeServiceError(w, r, "scan", err)
			return
		}
		writeProto(w, http.StatusCreated, out)
		return
	}

	var req types.ScanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := s.ledger.Scan(r.Context(), req.CardID)
	if err != nil {
		s.writeServiceError(w, r, "scan", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.NewSignResponse(res.Event, res.Mode, s.ledger.Now()))
}

func (s *Server) handleToday(w http.ResponseWriter, _ *http.Request) {
	now := s.ledger.Now()
	f := view.Filter{Type: view.FilterDate, Date: now}
	writeJSON(w, http.StatusOK, types.RowsResponse{
		Filter: f.View(),
		Rows:   view.Views(view.Today(s.ledger.Events(), now)),
	})
}

// requestTime resolves the optional client time.  A full timestamp wins over
// a clock time on today's date; neither means now.
func (s *Server) requestTime(clock, timestamp string) (time.Time, error) {
	if ts := strings.TrimSpace(timestamp); ts != "" {
		return types.ParseTimestamp(ts, s.ledger.Location())
	}
	if c := strings.TrimSpace(clock); c != "" {
		return types.ParseClock(c, s.ledger.Now())
	}
	return time.Time{}, nil
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}
