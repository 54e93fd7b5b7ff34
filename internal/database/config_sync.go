package database

import (
	"context"
	"fmt"
	"time"

	"aerolease/internal/config"
)

// SyncCatalogFromConfig applies aircraft.yaml to the database.
// It upserts aircraft, replaces their booked dates, and marks missing aircraft inactive.
func (db *DB) SyncCatalogFromConfig(ctx context.Context, cfg *config.AircraftConfig) error {
	if cfg == nil {
		return fmt.Errorf("aircraft config is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	seen := make(map[string]struct{})

	for i, a := range cfg.Aircraft {
		// Preserve created_at if the aircraft already exists.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO aircraft (id, name, min_lease, max_lease, position, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, COALESCE((SELECT created_at FROM aircraft WHERE id = ?), ?), ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				min_lease = excluded.min_lease,
				max_lease = excluded.max_lease,
				position = excluded.position,
				is_active = 1,
				updated_at = excluded.updated_at`,
			a.ID, a.Name, a.MinLease, a.MaxLease, i, a.ID, now, now,
		)
		if err != nil {
			return fmt.Errorf("sync aircraft %s: %w", a.ID, err)
		}
		seen[a.ID] = struct{}{}

		if _, err := tx.ExecContext(ctx, `DELETE FROM aircraft_booked_dates WHERE aircraft_id = ?`, a.ID); err != nil {
			return fmt.Errorf("clear booked dates for %s: %w", a.ID, err)
		}
		for _, d := range a.BookedDates {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO aircraft_booked_dates (aircraft_id, date) VALUES (?, ?)`, a.ID, d); err != nil {
				return fmt.Errorf("sync booked date %s for %s: %w", d, a.ID, err)
			}
		}
	}

	// Deactivate aircraft that disappeared from config.
	rows, err := tx.QueryContext(ctx, `SELECT id FROM aircraft WHERE is_active = 1`)
	if err != nil {
		return err
	}
	var missing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range missing {
		if _, err := tx.ExecContext(ctx, `UPDATE aircraft SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
			return fmt.Errorf("deactivate aircraft %s: %w", id, err)
		}
	}

	return tx.Commit()
}
