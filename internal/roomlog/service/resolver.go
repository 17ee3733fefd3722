package service

import (
	"regexp"
	"strings"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// Resolution is the outcome of resolving a raw token.
type Resolution struct {
	Person string
	Mode   types.Mode
	CardID string // set in ModeAuto
}

// Resolver turns typed names and scanned card IDs into canonical people.
// A token equal to a linked card always wins; any other card-shaped token is
// rejected rather than recorded under a bogus name.
type Resolver struct {
	pattern *regexp.Regexp
}

// NewResolver returns a resolver.  A nil pattern selects the built-in card
// shape rule (see LooksLikeCard).
func NewResolver(pattern *regexp.Regexp) *Resolver {
	return &Resolver{pattern: pattern}
}

func (r *Resolver) Resolve(reg *Registry, raw string) (Resolution, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Resolution{}, ErrEmptyToken
	}

	if person, ok := reg.ResolveCard(s); ok {
		return Resolution{Person: person, Mode: types.ModeAuto, CardID: s}, nil
	}
	if r.IsCardShaped(s) {
		return Resolution{}, &UnregisteredCardError{CardID: s}
	}
	return Resolution{Person: s, Mode: types.ModeManual}, nil
}

func (r *Resolver) IsCardShaped(s string) bool {
	if r.pattern != nil {
		return r.pattern.MatchString(s)
	}
	return LooksLikeCard(s)
}

// LooksLikeCard is the default card shape: 6 to 32 hex digits including at
// least one decimal digit.  Keystroke readers emit either decimal or hex UIDs;
// the digit requirement keeps all-letter names like "Deadbeef" out.
func LooksLikeCard(s string) bool {
	if len(s) < 6 || len(s) > 32 {
		return false
	}
	digit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return digit
}
