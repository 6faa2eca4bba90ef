package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskQueueSize = 16
	taskTimeout   = 5 * time.Minute
)

// Scheduler runs calendar tasks on a small worker pool. A staleness-gated
// sync is queued at start and a forced refresh on every cron tick. Failed
// tasks are not retried; the next tick or request tries again.
type Scheduler struct {
	syncer      CalendarSyncer
	cron        *cron.Cron
	refreshSpec string
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(syncer CalendarSyncer, refreshSpec string, workerCount int) (*Scheduler, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	c := cron.New(cron.WithLocation(time.Local))
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		syncer:      syncer,
		cron:        c,
		refreshSpec: refreshSpec,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
	}

	if refreshSpec != "" {
		_, err := c.AddFunc(refreshSpec, s.enqueueRefresh)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", refreshSpec, err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if err := s.EnqueueTask(NewSyncCalendarTask(s.syncer)); err != nil {
		slog.Warn("Failed to enqueue SyncCalendarTask", "error", err)
	}

	s.cron.Start()
	slog.Info("Scheduler started", "workers", s.workerCount, "refresh_cron", s.refreshSpec)
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueRefresh() {
	if err := s.EnqueueTask(NewRefreshCalendarTask(s.syncer)); err != nil {
		slog.Warn("Failed to enqueue RefreshCalendarTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}
}
