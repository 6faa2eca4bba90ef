package api

import (
	"context"
	"time"

	"github.com/lysyi3m/cfa-cal/app/calendar"
	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/feed"
	"github.com/lysyi3m/cfa-cal/app/venue"
)

type CalendarService interface {
	Sync(ctx context.Context) calendar.Result
	Refresh(ctx context.Context) calendar.Result
	CurrentMonth(ctx context.Context) (calendar.MonthView, error)
	LastFetch(ctx context.Context) (time.Time, bool, error)
}

var _ CalendarService = (*calendar.Syncer)(nil)

type GeneratorInterface interface {
	Run(events []database.Event, filter feed.Filter, calName string) ([]byte, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type VenueDirectory interface {
	Title(regionCode, venueCode, hallCode string) string
	Table() *venue.Table
}

var _ VenueDirectory = (*venue.TreeResolver)(nil)

type Handler struct {
	calendar     CalendarService
	generator    GeneratorInterface
	venues       VenueDirectory
	eventRepo    database.EventRepository
	fetchLogRepo database.FetchLogRepository
	baseURL      string
}

type venueHall struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Feed string `json:"feed"`
}

type venueInfo struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Location string      `json:"location"`
	Geo      venue.Geo   `json:"geo"`
	Feed     string      `json:"feed"`
	Halls    []venueHall `json:"halls"`
}

type regionInfo struct {
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Feed   string      `json:"feed"`
	Venues []venueInfo `json:"venues"`
}
