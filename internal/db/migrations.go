package db

import (
	"context"
	"fmt"
)

// legacyColumnRenames maps old snapshot column names to their current names.
// Earlier builds stored the combined pacing metric as pace_pct and the
// budget-burn metric as budget_used_pct.
var legacyColumnRenames = map[string]string{
	"pace_pct":        "combined_pct",
	"budget_used_pct": "budget_burn",
}

// migrateLegacySchema renames legacy columns in place so historical values
// survive schema changes, then normalizes timestamp formats.
func (db *DB) migrateLegacySchema() error {
	cols, err := db.tableColumns("poll_snapshots")
	if err != nil {
		return err
	}

	for old, current := range legacyColumnRenames {
		if !cols[old] || cols[current] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE poll_snapshots RENAME COLUMN %s TO %s", old, current)
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("failed to rename column %s: %w", old, err)
		}
	}

	return db.fixLegacyTimeFormats()
}

func (db *DB) tableColumns(table string) (map[string]bool, error) {
	rows, err := db.QueryContext(context.Background(), fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table info for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// fixLegacyTimeFormats truncates timestamps written by older builds in Go's
// default time.Time string form, which SQLite's date functions cannot parse.
func (db *DB) fixLegacyTimeFormats() error {
	queries := []string{
		`UPDATE poll_snapshots
		 SET timestamp = SUBSTR(timestamp, 1, 19)
		 WHERE length(timestamp) > 19 AND timestamp LIKE '% UTC'`,

		`UPDATE session_starts
		 SET timestamp = SUBSTR(timestamp, 1, 19)
		 WHERE length(timestamp) > 19 AND timestamp LIKE '% UTC'`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to fix legacy time formats: %w", err)
		}
	}

	return nil
}
