package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, types.ErrorResponse{OK: false, Error: code, Message: msg})
}

// errorStatus maps service errors to an HTTP status and machine code.  Every
// domain error is user-facing; only storage and unknown errors are 5xx.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnregisteredCard):
		return http.StatusNotFound, "unregistered_card"
	case errors.Is(err, service.ErrInvalidSequence):
		return http.StatusConflict, "invalid_sequence"
	case errors.Is(err, service.ErrDuplicateCard):
		return http.StatusConflict, "duplicate_card"
	case errors.Is(err, service.ErrEventNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrEmptyToken),
		errors.Is(err, service.ErrInvalidPerson),
		errors.Is(err, service.ErrInvalidCardID),
		errors.Is(err, service.ErrInvalidKind):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrPersistence):
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes err as a user message, or logs it and hides the
// detail when it is a server fault.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, code, "unexpected server error")
		return
	}
	writeError(w, status, code, err.Error())
}

// decodeJSON decodes a strict JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}
