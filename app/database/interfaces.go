package database

import (
	"context"
	"time"
)

type DayRepository interface {
	Upsert(ctx context.Context, day Day, ts time.Time) error
	ListByMonth(ctx context.Context, year, month int) ([]Day, error)
	CountByMonth(ctx context.Context, year, month int) (int, error)
}

type EventRepository interface {
	DeleteByDate(ctx context.Context, date string) error
	Insert(ctx context.Context, event Event, ts time.Time) error
	ListByMonth(ctx context.Context, year, month int) ([]Event, error)
	Count(ctx context.Context) (int, error)
}

type FetchLogRepository interface {
	Append(ctx context.Context, log FetchLog) error
	Recent(ctx context.Context, limit int) ([]FetchLog, error)
}
