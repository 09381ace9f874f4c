package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upValuePosition, downValuePosition)
}

// upValuePosition adds an explicit position to nested values so their write order no longer
// depends on rowid ordering. Existing rows are numbered per subsection in rowid order.
func upValuePosition(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `ALTER TABLE settings ADD COLUMN position INTEGER NOT NULL DEFAULT 0`)
	if err != nil {
		return fmt.Errorf("adding position column : %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, section, lower(subsection) FROM settings ORDER BY rowid ASC`)
	if err != nil {
		return fmt.Errorf("getting all rows: %w", err)
	}

	type rowPosition struct {
		id       string
		position int
	}
	var positions []rowPosition
	counters := make(map[string]int)
	for rows.Next() {
		var id, section, subsection string
		if err := rows.Scan(&id, &section, &subsection); err != nil {
			rows.Close()
			return fmt.Errorf("scanning row: %w", err)
		}
		group := section + "\x00" + subsection
		positions = append(positions, rowPosition{id: id, position: counters[group]})
		counters[group]++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating rows: %w", err)
	}
	rows.Close()

	for _, p := range positions {
		_, err := tx.ExecContext(ctx, `UPDATE settings SET position = ? WHERE id = ?`, p.position, p.id)
		if err != nil {
			return fmt.Errorf("updating row %s : %w", p.id, err)
		}
	}
	return nil
}

func downValuePosition(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `ALTER TABLE settings DROP COLUMN position`); err != nil {
		return fmt.Errorf("dropping position column for rollback: %w", err)
	}
	return nil
}
