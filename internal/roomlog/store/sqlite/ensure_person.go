package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// ensurePerson guarantees a people row exists for name so that foreign-key
// constraints from card_links and sign_events are satisfied.  New rows are
// appended after the current highest position.
//
// Must be called inside an existing transaction.
func ensurePerson(ctx context.Context, tx *sql.Tx, name string, nowMs int64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO people(name, position, created_at_ms)
VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM people), ?);
`, name, nowMs); err != nil {
		return fmt.Errorf("ensurePerson %s: %w", name, err)
	}
	return nil
}
