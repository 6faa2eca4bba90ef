package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/lysyi3m/cfa-cal/app/calendar"
	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/venue"
)

const (
	productID     = "cfa-cal/ics"
	uidDomain     = "cfa-cal"
	organizerName = "cfa-cal"
	searchURL     = "https://search.douban.com/movie/subject_search?search_text="
)

type Generator struct {
	filterer       *Filterer
	organizerEmail string
	now            func() time.Time
}

func NewGenerator(resolver venue.Resolver, organizerEmail string) *Generator {
	return &Generator{
		filterer:       NewFilterer(resolver),
		organizerEmail: organizerEmail,
		now:            time.Now,
	}
}

// Run encodes the events accepted by filter as an iCalendar document.
// Events without a parseable start time are left out.
func (g *Generator) Run(events []database.Event, filter Filter, calName string) ([]byte, error) {
	entries := g.filterer.Run(events, filter)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(calName)

	stamp := g.now().UTC()
	written := 0
	for _, entry := range entries {
		start, ok := calendar.ParseStart(entry.Event.StartsAt)
		if !ok {
			slog.Debug("Dropping event without start time", "id", entry.Event.ID, "starts_at", entry.Event.StartsAt)
			continue
		}

		if err := validate(entry.Event); err != nil {
			return nil, err
		}

		g.writeEvent(cal, entry, start, stamp)
		written++
	}

	if written == 0 {
		return nil, ErrNoEvents
	}

	return []byte(cal.Serialize()), nil
}

func (g *Generator) writeEvent(cal *ical.Calendar, entry Entry, start, stamp time.Time) {
	e := entry.Event

	event := cal.AddEvent(uid(e.ID))
	event.SetDtStampTime(stamp)
	event.SetStartAt(start.UTC())
	if minutes, ok := runtimeMinutes(e.Runtime); ok {
		event.SetProperty(ical.ComponentProperty(ical.PropertyDuration), fmt.Sprintf("PT%dM", minutes))
	}

	event.SetSummary(e.Title)
	event.SetDescription(description(e))
	event.SetLocation(entry.Venue.Location)
	event.SetProperty(ical.ComponentPropertyGeo, fmt.Sprintf("%f;%f", entry.Venue.Geo.Lat, entry.Venue.Geo.Lon))
	event.SetURL(searchURL + strings.ReplaceAll(url.QueryEscape(e.Title), "+", "%20"))
	event.SetStatus(ical.ObjectStatusTentative)
	event.SetOrganizer("mailto:"+g.organizerEmail, ical.WithCN(organizerName))
}

func validate(e database.Event) error {
	if e.ID <= 0 {
		return &ValidationError{EventID: e.ID, Reason: "missing uid"}
	}
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{EventID: e.ID, Reason: "missing title"}
	}
	return nil
}

func uid(id int64) string {
	return strconv.FormatInt(id, 10) + "@" + uidDomain
}

// description is "genre[ / region]" with the activity note on its own line.
func description(e database.Event) string {
	var b strings.Builder
	b.WriteString(e.Genre)
	if e.Region != "" {
		b.WriteString(" / ")
		b.WriteString(e.Region)
	}
	if e.Activity != "" {
		b.WriteString("\n")
		b.WriteString(e.Activity)
	}
	return b.String()
}

func runtimeMinutes(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
