package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/cfa-cal/app/database"
)

// Reconciler merges a fetched batch into day and event storage. It is not
// transactional: a failure midway leaves earlier dates written.
type Reconciler struct {
	days   database.DayRepository
	events database.EventRepository
	logs   database.FetchLogRepository
	now    func() time.Time
}

func NewReconciler(days database.DayRepository, events database.EventRepository, logs database.FetchLogRepository) *Reconciler {
	return &Reconciler{
		days:   days,
		events: events,
		logs:   logs,
		now:    time.Now,
	}
}

// Store reports whether the whole batch was written. An empty batch is
// rejected without touching storage.
func (r *Reconciler) Store(ctx context.Context, batch Batch) bool {
	_, ok := r.storeBatch(ctx, batch)
	return ok
}

// storeBatch is Store plus the number of events written.
func (r *Reconciler) storeBatch(ctx context.Context, batch Batch) (int, bool) {
	if len(batch.Days) == 0 {
		slog.Warn("Rejected empty calendar batch", "month", batchLabel(batch))
		return 0, false
	}

	ts := r.now().UTC()

	stored, err := r.store(ctx, batch, ts)
	if err != nil {
		slog.Error("Failed to store calendar batch", "month", batchLabel(batch), "error", err)
		r.appendLog(ctx, database.FetchLog{
			Status:    database.FetchStatusError,
			Year:      batch.Year,
			Month:     batch.Month,
			Message:   err.Error(),
			CreatedAt: ts,
		})
		return stored, false
	}

	r.appendLog(ctx, database.FetchLog{
		Status:     database.FetchStatusSuccess,
		Year:       batch.Year,
		Month:      batch.Month,
		Message:    storedMessage(stored),
		EventCount: stored,
		CreatedAt:  ts,
	})

	slog.Info("Stored calendar batch", "month", batchLabel(batch), "days", len(batch.Days), "events", stored)

	return stored, true
}

// dateClearer deletes the events of a batch date the first time that date
// is written to, so dates the batch never reaches keep their events.
type dateClearer struct {
	events  database.EventRepository
	pending map[string]bool
}

func (c *dateClearer) clear(ctx context.Context, date string) error {
	if !c.pending[date] {
		return nil
	}
	if err := c.events.DeleteByDate(ctx, date); err != nil {
		return err
	}
	delete(c.pending, date)
	return nil
}

func (r *Reconciler) store(ctx context.Context, batch Batch, ts time.Time) (int, error) {
	dates := make([]string, len(batch.Days))
	clearer := &dateClearer{events: r.events, pending: map[string]bool{}}
	for i, day := range batch.Days {
		date, ok := batch.dayDate(int(day.Day))
		if !ok {
			slog.Warn("Skipping day outside of batch month", "month", batchLabel(batch), "day", day.Day)
			continue
		}
		dates[i] = date
		clearer.pending[date] = true
	}

	stored := 0
	for i, day := range batch.Days {
		if dates[i] == "" {
			continue
		}

		if err := clearer.clear(ctx, dates[i]); err != nil {
			return stored, err
		}

		record := toDay(batch, day, dates[i])
		if err := r.days.Upsert(ctx, record, ts); err != nil {
			return stored, err
		}

		for _, e := range day.Screen {
			event := toEvent(e, record)
			if err := clearer.clear(ctx, event.Date); err != nil {
				return stored, err
			}
			if err := r.events.Insert(ctx, event, ts); err != nil {
				return stored, fmt.Errorf("day %s: %w", record.Date, err)
			}
			stored++
		}
	}

	return stored, nil
}

func (r *Reconciler) appendLog(ctx context.Context, log database.FetchLog) {
	if err := r.logs.Append(ctx, log); err != nil {
		slog.Error("Failed to write fetch log", "status", log.Status, "error", err)
	}
}
