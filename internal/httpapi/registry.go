package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

func (s *Server) handleListPeople(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.PeopleResponse{People: s.ledger.People()})
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req types.AddPersonRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.ledger.AddPerson(r.Context(), req.Name); err != nil {
		s.writeServiceError(w, r, "add_person", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.PeopleResponse{People: s.ledger.People()})
}

func (s *Server) handleListCards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.CardsResponse{Cards: s.ledger.Links()})
}

func (s *Server) handleLinkCard(w http.ResponseWriter, r *http.Request) {
	var req types.LinkCardRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.ledger.LinkCard(r.Context(), req.CardID, req.Name); err != nil {
		s.writeServiceError(w, r, "link_card", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.CardLink{CardID: strings.TrimSpace(req.CardID), Person: strings.TrimSpace(req.Name)})
}

func (s *Server) handleUnlinkCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	removed, err := s.ledger.UnlinkCard(r.Context(), cardID)
	if err != nil {
		s.writeServiceError(w, r, "unlink_card", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not_found", "card not linked")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
