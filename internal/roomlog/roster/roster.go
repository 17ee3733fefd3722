// Package roster imports people and card links from a YAML file:
//
//	people:
//	  - Alice
//	  - Bob
//	cards:
//	  - card_id: "0012345678"
//	    person: Bob
package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
)

type Card struct {
	CardID string `yaml:"card_id"`
	Person string `yaml:"person"`
}

type Roster struct {
	People []string `yaml:"people"`
	Cards  []Card   `yaml:"cards"`
}

// Target is what a roster is applied to; *service.Ledger satisfies it.
type Target interface {
	AddPerson(ctx context.Context, name string) error
	LinkCard(ctx context.Context, cardID, person string) error
}

func Parse(r io.Reader) (Roster, error) {
	var ro Roster
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ro); err != nil && !errors.Is(err, io.EOF) {
		return Roster{}, fmt.Errorf("parse roster: %w", err)
	}
	return ro, nil
}

func LoadFile(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return Roster{}, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Result counts what Apply did.
type Result struct {
	People  int
	Linked  int
	Skipped int
}

// Apply registers every person, then links every card.  A card already
// linked to someone else is logged and skipped; storage errors abort.
func Apply(ctx context.Context, t Target, ro Roster, logger zerolog.Logger) (Result, error) {
	var res Result
	for _, p := range ro.People {
		if err := t.AddPerson(ctx, p); err != nil {
			if errors.Is(err, service.ErrInvalidPerson) {
				res.Skipped++
				continue
			}
			return res, err
		}
		res.People++
	}

	for _, c := range ro.Cards {
		err := t.LinkCard(ctx, c.CardID, c.Person)
		switch {
		case err == nil:
			res.Linked++
		case errors.Is(err, service.ErrDuplicateCard),
			errors.Is(err, service.ErrInvalidCardID),
			errors.Is(err, service.ErrInvalidPerson):
			logger.Warn().Err(err).Str("card_id", c.CardID).Str("name", c.Person).Msg("roster card skipped")
			res.Skipped++
		default:
			return res, err
		}
	}
	return res, nil
}
