package tasks

import (
	"context"

	"github.com/lysyi3m/cfa-cal/app/calendar"
)

// TaskSchedulerInterface is used by main to run background calendar syncs.
//
//	scheduler, err := NewScheduler(syncer, "0 */6 * * *", 1)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type CalendarSyncer interface {
	Sync(ctx context.Context) calendar.Result
	Refresh(ctx context.Context) calendar.Result
}
