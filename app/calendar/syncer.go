package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/kv"
	"github.com/lysyi3m/cfa-cal/app/upstream"
)

const StalenessWindow = 12 * time.Hour

type State string

const (
	StateFresh    State = "fresh"
	StateStale    State = "stale"
	StateFetching State = "fetching"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Result is the outcome of one sync invocation. Failed results carry one of
// the package's sentinel errors in Err.
type Result struct {
	State  State
	Events int
	Err    error
}

func (r Result) OK() bool {
	return r.State == StateFresh || r.State == StateDone
}

type TokenSource interface {
	GetValidToken(ctx context.Context) *upstream.Credential
	Authenticate(ctx context.Context) (*upstream.Credential, error)
}

type CalendarFetcher interface {
	FetchCalendar(ctx context.Context, token string, year, month int) (*upstream.CalendarResponse, error)
}

// lastFetch is the persisted shape of the last_fetch key.
type lastFetch struct {
	Time int64 `json:"time"` // unix ms
}

// MonthView is the stored schedule of one month.
type MonthView struct {
	Year   int              `json:"year"`
	Month  int              `json:"month"`
	Days   []database.Day   `json:"days"`
	Events []database.Event `json:"events"`
}

// Syncer decides when to fetch the upstream schedule and runs the fetch
// and reconcile cycle. All state lives in the stores it is given.
type Syncer struct {
	tokens     TokenSource
	fetcher    CalendarFetcher
	reconciler *Reconciler
	days       database.DayRepository
	events     database.EventRepository
	store      kv.Store
	now        func() time.Time
}

func NewSyncer(tokens TokenSource, fetcher CalendarFetcher, reconciler *Reconciler, days database.DayRepository, events database.EventRepository, store kv.Store) *Syncer {
	return &Syncer{
		tokens:     tokens,
		fetcher:    fetcher,
		reconciler: reconciler,
		days:       days,
		events:     events,
		store:      store,
		now:        time.Now,
	}
}

// SetClock replaces the time source of the syncer and its reconciler.
func (s *Syncer) SetClock(now func() time.Time) {
	s.now = now
	s.reconciler.now = now
}

// CurrentYearMonth is computed in the local time zone.
func (s *Syncer) CurrentYearMonth() (int, int) {
	now := s.now().In(time.Local)
	return now.Year(), int(now.Month())
}

// ShouldUpdate reports whether stored data is stale: never fetched, last
// fetched more than StalenessWindow ago, or nothing stored for the current
// month. Read errors count as stale.
func (s *Syncer) ShouldUpdate(ctx context.Context) bool {
	var last lastFetch
	found, err := kv.GetJSON(ctx, s.store, kv.KeyLastFetch, &last)
	if err != nil {
		slog.Warn("Failed to read last fetch time", "error", err)
		return true
	}
	if !found || last.Time == 0 {
		return true
	}

	if s.now().Sub(time.UnixMilli(last.Time)) > StalenessWindow {
		return true
	}

	year, month := s.CurrentYearMonth()
	count, err := s.days.CountByMonth(ctx, year, month)
	if err != nil {
		slog.Warn("Failed to count stored days", "error", err)
		return true
	}

	return count == 0
}

// Sync runs a fetch cycle only when stored data is stale.
func (s *Syncer) Sync(ctx context.Context) Result {
	if !s.ShouldUpdate(ctx) {
		slog.Debug("Calendar data is fresh, skipping fetch")
		return Result{State: StateFresh}
	}
	slog.Info("Calendar data is stale", "state", StateStale)
	return s.run(ctx)
}

// Refresh runs a fetch cycle regardless of staleness.
func (s *Syncer) Refresh(ctx context.Context) Result {
	return s.run(ctx)
}

func (s *Syncer) run(ctx context.Context) Result {
	year, month := s.CurrentYearMonth()
	slog.Info("Syncing calendar", "state", StateFetching, "year", year, "month", month)

	cred := s.tokens.GetValidToken(ctx)
	if cred == nil {
		var err error
		cred, err = s.tokens.Authenticate(ctx)
		if err != nil {
			return s.fail(fmt.Errorf("%w: %w", ErrAuthentication, err))
		}
	}

	resp, err := s.fetcher.FetchCalendar(ctx, cred.Token, year, month)
	if err != nil || !resp.Valid() {
		if !upstream.Unauthorized(resp, err) {
			return s.fail(fetchError(resp, err))
		}

		slog.Info("Upstream rejected token, re-authenticating")
		cred, err = s.tokens.Authenticate(ctx)
		if err != nil {
			return s.fail(fmt.Errorf("%w: %w", ErrAuthentication, err))
		}

		resp, err = s.fetcher.FetchCalendar(ctx, cred.Token, year, month)
		if err != nil || !resp.Valid() {
			return s.fail(fetchError(resp, err))
		}
	}

	batch := NewBatch(year, month, resp)
	if len(batch.Days) == 0 {
		return s.fail(ErrNoData)
	}

	stored, ok := s.reconciler.storeBatch(ctx, batch)
	if !ok {
		return s.fail(ErrStorage)
	}

	if err := kv.PutJSON(ctx, s.store, kv.KeyLastFetch, lastFetch{Time: s.now().UnixMilli()}); err != nil {
		slog.Error("Failed to record last fetch time", "error", err)
	}

	return Result{State: StateDone, Events: stored}
}

func (s *Syncer) fail(err error) Result {
	slog.Error("Calendar sync failed", "error", err)
	return Result{State: StateFailed, Err: err}
}

func fetchError(resp *upstream.CalendarResponse, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	if resp == nil {
		return ErrUpstreamFetch
	}
	return fmt.Errorf("%w: status=%d msg=%s", ErrUpstreamFetch, resp.Status, resp.Msg)
}

// CurrentMonth returns the stored days and events of the current month.
func (s *Syncer) CurrentMonth(ctx context.Context) (MonthView, error) {
	year, month := s.CurrentYearMonth()
	view := MonthView{Year: year, Month: month, Days: []database.Day{}, Events: []database.Event{}}

	days, err := s.days.ListByMonth(ctx, year, month)
	if err != nil {
		return view, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(days) == 0 {
		return view, nil
	}

	events, err := s.events.ListByMonth(ctx, year, month)
	if err != nil {
		return view, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	view.Days = days
	view.Events = events
	return view, nil
}

// LastFetch returns the time of the last successful fetch, if any.
func (s *Syncer) LastFetch(ctx context.Context) (time.Time, bool, error) {
	var last lastFetch
	found, err := kv.GetJSON(ctx, s.store, kv.KeyLastFetch, &last)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	return time.UnixMilli(last.Time), true, nil
}
