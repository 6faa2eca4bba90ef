package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

var _ EventRepository = (*EventRepo)(nil)

// EventRepo handles database operations for screening events
type EventRepo struct {
	db *DB
}

func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) DeleteByDate(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE date = ?", date)
	if err != nil {
		return fmt.Errorf("failed to delete events for %s: %w", date, err)
	}
	return nil
}

// Insert writes an event; a row with the same id is overwritten
// wholesale, including created_at.
func (r *EventRepo) Insert(ctx context.Context, event Event, ts time.Time) error {
	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags for event %d: %w", event.ID, err)
	}

	stamp := formatTimestamp(ts)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calendar_events (
			id, title, genre, region, film_year, runtime, show_mode, show_type, price,
			listed_at, sales_at, starts_at, venue, activity, has_activity, tags, cover_image,
			date, day, month, year, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			genre = excluded.genre,
			region = excluded.region,
			film_year = excluded.film_year,
			runtime = excluded.runtime,
			show_mode = excluded.show_mode,
			show_type = excluded.show_type,
			price = excluded.price,
			listed_at = excluded.listed_at,
			sales_at = excluded.sales_at,
			starts_at = excluded.starts_at,
			venue = excluded.venue,
			activity = excluded.activity,
			has_activity = excluded.has_activity,
			tags = excluded.tags,
			cover_image = excluded.cover_image,
			date = excluded.date,
			day = excluded.day,
			month = excluded.month,
			year = excluded.year,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, event.ID, event.Title, event.Genre, event.Region, event.FilmYear, event.Runtime,
		event.ShowMode, event.ShowType, event.Price, event.ListedAt, event.SalesAt, event.StartsAt,
		event.Venue, event.Activity, boolToInt(event.HasActivity), string(tagsJSON), event.CoverImage,
		event.Date, event.Day, event.Month, event.Year, stamp, stamp)

	if err != nil {
		return fmt.Errorf("failed to upsert event %d: %w", event.ID, err)
	}

	return nil
}

func (r *EventRepo) ListByMonth(ctx context.Context, year, month int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, genre, region, film_year, runtime, show_mode, show_type, price,
		       listed_at, sales_at, starts_at, venue, activity, has_activity, tags, cover_image,
		       date, day, month, year, created_at, updated_at
		FROM calendar_events
		WHERE year = ? AND month = ?
		ORDER BY starts_at ASC, id ASC
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var event Event
		var hasActivity int
		var tagsJSON, createdAt, updatedAt string
		err := rows.Scan(
			&event.ID, &event.Title, &event.Genre, &event.Region, &event.FilmYear, &event.Runtime,
			&event.ShowMode, &event.ShowType, &event.Price, &event.ListedAt, &event.SalesAt, &event.StartsAt,
			&event.Venue, &event.Activity, &hasActivity, &tagsJSON, &event.CoverImage,
			&event.Date, &event.Day, &event.Month, &event.Year, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &event.Tags); err != nil {
			event.Tags = []string{}
		}
		event.HasActivity = hasActivity != 0
		event.CreatedAt = parseTimestamp(createdAt)
		event.UpdatedAt = parseTimestamp(updatedAt)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

func (r *EventRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}
