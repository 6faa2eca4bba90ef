package database

import (
	"context"
	"fmt"
	"time"
)

var _ DayRepository = (*DayRepo)(nil)

// DayRepo handles database operations for calendar days
type DayRepo struct {
	db *DB
}

func NewDayRepo(db *DB) *DayRepo {
	return &DayRepo{db: db}
}

// Upsert inserts a day or refreshes its activity flag, event count and
// updated_at. created_at is kept from the first insert.
func (r *DayRepo) Upsert(ctx context.Context, day Day, ts time.Time) error {
	stamp := formatTimestamp(ts)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_days (date, day, month, year, has_activity, events_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			has_activity = excluded.has_activity,
			events_count = excluded.events_count,
			updated_at = excluded.updated_at
	`, day.Date, day.Day, day.Month, day.Year, boolToInt(day.HasActivity), day.EventCount, stamp, stamp)

	if err != nil {
		return fmt.Errorf("failed to upsert day %s: %w", day.Date, err)
	}

	return nil
}

func (r *DayRepo) ListByMonth(ctx context.Context, year, month int) ([]Day, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, day, month, year, has_activity, events_count, created_at, updated_at
		FROM calendar_days
		WHERE year = ? AND month = ?
		ORDER BY day ASC
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get days: %w", err)
	}
	defer rows.Close()

	days := []Day{}
	for rows.Next() {
		var day Day
		var hasActivity int
		var createdAt, updatedAt string
		err := rows.Scan(&day.Date, &day.Day, &day.Month, &day.Year, &hasActivity, &day.EventCount, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day row: %w", err)
		}
		day.HasActivity = hasActivity != 0
		day.CreatedAt = parseTimestamp(createdAt)
		day.UpdatedAt = parseTimestamp(updatedAt)
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day rows: %w", err)
	}

	return days, nil
}

func (r *DayRepo) CountByMonth(ctx context.Context, year, month int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_days WHERE year = ? AND month = ?", year, month).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count days: %w", err)
	}
	return count, nil
}
