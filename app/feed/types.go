package feed

import (
	"errors"
	"fmt"

	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/venue"
)

const ContentType = "text/calendar; charset=utf-8"

var ErrNoEvents = errors.New("no events to export")

// ValidationError reports an event the calendar encoder cannot represent.
type ValidationError struct {
	EventID int64
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event %d: %s", e.EventID, e.Reason)
}

// Filter selects events by resolved venue codes. Empty fields match
// anything.
type Filter struct {
	RegionCode string
	VenueCode  string
	HallCode   string
}

func (f Filter) Matches(m venue.Match) bool {
	return (f.RegionCode == "" || f.RegionCode == m.RegionCode) &&
		(f.VenueCode == "" || f.VenueCode == m.VenueCode) &&
		(f.HallCode == "" || f.HallCode == m.HallCode)
}

// Entry is an event paired with its resolved venue.
type Entry struct {
	Event database.Event
	Venue venue.Match
}
