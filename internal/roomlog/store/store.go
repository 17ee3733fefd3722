package store

import "context"

// EventRecord is the durable shape of one sign event.  Timestamp uses the
// "YYYY-MM-DD H:MM AM/PM" format.
type EventRecord struct {
	ID        string `json:"id"`
	Person    string `json:"person"`
	Timestamp string `json:"timestamp"`
	Kind      string `json:"kind"`
}

// CardRecord is the durable shape of a card link.
type CardRecord struct {
	CardID string `json:"card_id"`
	Person string `json:"person"`
}

// Document is the full durable state.  Events are stored in log order so
// that equal timestamps keep their insertion order across a reload; Cards and
// People are stored in insertion order.
type Document struct {
	Events []EventRecord `json:"events"`
	Cards  []CardRecord  `json:"cards"`
	People []string      `json:"people"`
}

// DocumentStore reads and rewrites the whole document.  Save must be atomic:
// either the new document is durable or the previous one is left intact.
type DocumentStore interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}
