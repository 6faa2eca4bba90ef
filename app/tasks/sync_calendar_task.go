package tasks

import (
	"context"
	"log/slog"
)

// SyncCalendarTask runs one sync cycle. The sync variant only fetches when
// stored data is stale; the refresh variant always fetches.
type SyncCalendarTask struct {
	Task
	syncer CalendarSyncer
}

func NewSyncCalendarTask(syncer CalendarSyncer) *SyncCalendarTask {
	return &SyncCalendarTask{
		Task:   NewTask(TaskTypeSyncCalendar),
		syncer: syncer,
	}
}

func NewRefreshCalendarTask(syncer CalendarSyncer) *SyncCalendarTask {
	return &SyncCalendarTask{
		Task:   NewTask(TaskTypeRefreshCalendar),
		syncer: syncer,
	}
}

func (t *SyncCalendarTask) Execute(ctx context.Context) error {
	slog.Debug("Task started", "type", string(t.Type), "id", t.ID)

	result := t.syncer.Sync
	if t.Type == TaskTypeRefreshCalendar {
		result = t.syncer.Refresh
	}

	res := result(ctx)
	if !res.OK() {
		return res.Err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"state", string(res.State),
		"events", res.Events,
		"duration", t.GetDuration())

	return nil
}
