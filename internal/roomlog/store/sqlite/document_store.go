package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/roomlog/internal/db"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store"
)

// DocumentStore keeps the room log in three tables.  Save rewrites all of
// them inside one transaction on the single writer, so a failed write leaves
// the previous document in place.
type DocumentStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDocumentStore(db *sql.DB, writer *dbpkg.Worker) *DocumentStore {
	return &DocumentStore{db: db, writer: writer}
}

func (s *DocumentStore) Load(ctx context.Context) (store.Document, error) {
	var doc store.Document

	people, err := s.db.QueryContext(ctx, `
SELECT name FROM people ORDER BY position, name;
`)
	if err != nil {
		return store.Document{}, fmt.Errorf("Load people: %w", err)
	}
	for people.Next() {
		var name string
		if err := people.Scan(&name); err != nil {
			people.Close()
			return store.Document{}, fmt.Errorf("Load people scan: %w", err)
		}
		doc.People = append(doc.People, name)
	}
	if err := closeRows(people); err != nil {
		return store.Document{}, fmt.Errorf("Load people: %w", err)
	}

	cards, err := s.db.QueryContext(ctx, `
SELECT card_id, person_name FROM card_links ORDER BY position, card_id;
`)
	if err != nil {
		return store.Document{}, fmt.Errorf("Load card_links: %w", err)
	}
	for cards.Next() {
		var rec store.CardRecord
		if err := cards.Scan(&rec.CardID, &rec.Person); err != nil {
			cards.Close()
			return store.Document{}, fmt.Errorf("Load card_links scan: %w", err)
		}
		doc.Cards = append(doc.Cards, rec)
	}
	if err := closeRows(cards); err != nil {
		return store.Document{}, fmt.Errorf("Load card_links: %w", err)
	}

	events, err := s.db.QueryContext(ctx, `
SELECT event_id, person_name, timestamp, kind FROM sign_events ORDER BY position;
`)
	if err != nil {
		return store.Document{}, fmt.Errorf("Load sign_events: %w", err)
	}
	for events.Next() {
		var rec store.EventRecord
		if err := events.Scan(&rec.ID, &rec.Person, &rec.Timestamp, &rec.Kind); err != nil {
			events.Close()
			return store.Document{}, fmt.Errorf("Load sign_events scan: %w", err)
		}
		doc.Events = append(doc.Events, rec)
	}
	if err := closeRows(events); err != nil {
		return store.Document{}, fmt.Errorf("Load sign_events: %w", err)
	}

	return doc, nil
}

func (s *DocumentStore) Save(ctx context.Context, doc store.Document) error {
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Children first so the people delete never trips a foreign key.
		for _, table := range []string{"sign_events", "card_links", "people"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+";"); err != nil {
				return fmt.Errorf("Save clear %s: %w", table, err)
			}
		}

		for _, name := range doc.People {
			if err := ensurePerson(ctx, tx, name, nowMs); err != nil {
				return err
			}
		}

		for i, c := range doc.Cards {
			if err := ensurePerson(ctx, tx, c.Person, nowMs); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO card_links(card_id, person_name, position) VALUES (?, ?, ?);
`, c.CardID, c.Person, i); err != nil {
				return fmt.Errorf("Save insert card %s: %w", c.CardID, err)
			}
		}

		for i, e := range doc.Events {
			if err := ensurePerson(ctx, tx, e.Person, nowMs); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO sign_events(event_id, person_name, timestamp, kind, position)
VALUES (?, ?, ?, ?, ?);
`, e.ID, e.Person, e.Timestamp, e.Kind, i); err != nil {
				return fmt.Errorf("Save insert event %s: %w", e.ID, err)
			}
		}

		return nil
	})
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
