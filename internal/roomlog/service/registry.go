package service

import (
	"strings"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// Registry maps card IDs to canonical person names and keeps the list of
// known people.  It is not safe for concurrent use; the Ledger guards it.
type Registry struct {
	people []string
	known  map[string]struct{}

	links []types.CardLink
	cards map[string]string // card_id -> person
}

func NewRegistry() *Registry {
	return &Registry{
		known: make(map[string]struct{}),
		cards: make(map[string]string),
	}
}

// AddPerson registers name.  Adding a known name is a no-op.
func (r *Registry) AddPerson(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidPerson
	}
	if _, ok := r.known[name]; ok {
		return nil
	}
	r.known[name] = struct{}{}
	r.people = append(r.people, name)
	return nil
}

func (r *Registry) HasPerson(name string) bool {
	_, ok := r.known[name]
	return ok
}

// People returns the known names in insertion order.
func (r *Registry) People() []string {
	return append([]string(nil), r.people...)
}

// LinkCard links cardID to personName, creating the person if needed.
// Linking a card to the person it already belongs to succeeds without change.
func (r *Registry) LinkCard(cardID, personName string) error {
	cardID = strings.TrimSpace(cardID)
	personName = strings.TrimSpace(personName)
	if cardID == "" {
		return ErrInvalidCardID
	}
	if personName == "" {
		return ErrInvalidPerson
	}

	if owner, ok := r.cards[cardID]; ok {
		if owner == personName {
			return nil
		}
		return &DuplicateCardError{CardID: cardID, LinkedTo: owner}
	}

	if err := r.AddPerson(personName); err != nil {
		return err
	}
	r.cards[cardID] = personName
	r.links = append(r.links, types.CardLink{CardID: cardID, Person: personName})
	return nil
}

// UnlinkCard removes the link for cardID.  Unlinking an unknown card is not
// an error; the return value reports whether a link was removed.
func (r *Registry) UnlinkCard(cardID string) bool {
	cardID = strings.TrimSpace(cardID)
	if _, ok := r.cards[cardID]; !ok {
		return false
	}
	delete(r.cards, cardID)
	for i, l := range r.links {
		if l.CardID == cardID {
			r.links = append(r.links[:i], r.links[i+1:]...)
			break
		}
	}
	return true
}

// ResolveCard returns the person linked to cardID.
func (r *Registry) ResolveCard(cardID string) (string, bool) {
	p, ok := r.cards[strings.TrimSpace(cardID)]
	return p, ok
}

// Links returns the card links in insertion order.
func (r *Registry) Links() []types.CardLink {
	return append([]types.CardLink(nil), r.links...)
}

func (r *Registry) clone() *Registry {
	c := &Registry{
		people: append([]string(nil), r.people...),
		known:  make(map[string]struct{}, len(r.known)),
		links:  append([]types.CardLink(nil), r.links...),
		cards:  make(map[string]string, len(r.cards)),
	}
	for k := range r.known {
		c.known[k] = struct{}{}
	}
	for k, v := range r.cards {
		c.cards[k] = v
	}
	return c
}
