package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"aerolease/internal/models"
)

type aircraftRow struct {
	id       string
	name     string
	minLease int
	maxLease int
}

// LoadCatalog reads the active aircraft and their booked dates.
func (db *DB) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, min_lease, max_lease
		FROM aircraft
		WHERE is_active = 1
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query aircraft: %w", err)
	}
	defer rows.Close()

	var list []aircraftRow
	for rows.Next() {
		var r aircraftRow
		if err := rows.Scan(&r.id, &r.name, &r.minLease, &r.maxLease); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	booked, err := db.bookedDates(ctx)
	if err != nil {
		return nil, err
	}

	aircraft := make([]*models.Aircraft, 0, len(list))
	for _, r := range list {
		a, err := models.NewAircraft(r.id, r.name, r.minLease, r.maxLease, booked[r.id])
		if err != nil {
			return nil, err
		}
		aircraft = append(aircraft, a)
	}
	return models.NewCatalog(aircraft...)
}

func (db *DB) bookedDates(ctx context.Context) (map[string][]civil.Date, error) {
	rows, err := db.QueryContext(ctx, `SELECT aircraft_id, date FROM aircraft_booked_dates`)
	if err != nil {
		return nil, fmt.Errorf("query booked dates: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]civil.Date)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		d, err := civil.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("aircraft %s: booked date %q: %w", id, raw, err)
		}
		out[id] = append(out[id], d)
	}
	return out, rows.Err()
}
