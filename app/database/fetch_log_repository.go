package database

import (
	"context"
	"fmt"
)

var _ FetchLogRepository = (*FetchLogRepo)(nil)

// FetchLogRepo appends and lists fetch audit records. Rows are never
// updated or deleted.
type FetchLogRepo struct {
	db *DB
}

func NewFetchLogRepo(db *DB) *FetchLogRepo {
	return &FetchLogRepo{db: db}
}

func (r *FetchLogRepo) Append(ctx context.Context, log FetchLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fetch_logs (status, year, month, message, events_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.Status, log.Year, log.Month, log.Message, log.EventCount, formatTimestamp(log.CreatedAt))

	if err != nil {
		return fmt.Errorf("failed to append fetch log: %w", err)
	}

	return nil
}

func (r *FetchLogRepo) Recent(ctx context.Context, limit int) ([]FetchLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, year, month, message, events_count, created_at
		FROM fetch_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch logs: %w", err)
	}
	defer rows.Close()

	logs := []FetchLog{}
	for rows.Next() {
		var log FetchLog
		var createdAt string
		if err := rows.Scan(&log.ID, &log.Status, &log.Year, &log.Month, &log.Message, &log.EventCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch log row: %w", err)
		}
		log.CreatedAt = parseTimestamp(createdAt)
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch log rows: %w", err)
	}

	return logs, nil
}
