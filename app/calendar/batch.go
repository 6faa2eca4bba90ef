package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/upstream"
)

// Upstream start times are wall-clock times in China Standard Time.
var upstreamZone = time.FixedZone("UTC+8", 8*60*60)

var startLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// Batch is one month of schedule as returned by the upstream. Year and
// Month are the requested ones and date every day entry.
type Batch struct {
	Year  int
	Month int
	Count int
	Days  []upstream.DayData
}

func NewBatch(year, month int, resp *upstream.CalendarResponse) Batch {
	batch := Batch{Year: year, Month: month}
	if resp != nil && resp.Data != nil {
		batch.Count = resp.Data.Count
		batch.Days = resp.Data.List
	}
	return batch
}

func (b Batch) dayDate(day int) (string, bool) {
	t := time.Date(b.Year, time.Month(b.Month), day, 0, 0, 0, 0, time.UTC)
	if day < 1 || t.Month() != time.Month(b.Month) {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// ParseStart reads an upstream start timestamp as UTC+8 wall clock.
func ParseStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, upstreamZone); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toDay(b Batch, day upstream.DayData, date string) database.Day {
	return database.Day{
		Date:        date,
		Day:         int(day.Day),
		Month:       b.Month,
		Year:        b.Year,
		HasActivity: day.HaveActivity.Bool(),
		EventCount:  len(day.Screen),
	}
}

func toEvent(e upstream.EventData, fallback database.Day) database.Event {
	event := database.Event{
		ID:          int64(e.ID),
		Title:       e.ShowName,
		Genre:       e.FilmType,
		Region:      e.FilmArea,
		FilmYear:    e.FilmYear.String(),
		Runtime:     e.ScreenTimeLen.String(),
		ShowMode:    e.ShowMode,
		ShowType:    e.ShowType,
		Price:       e.ShowPrice.String(),
		ListedAt:    e.ScreenUpTime,
		SalesAt:     e.ScreenSalesTime,
		StartsAt:    e.ScreenStartTime,
		Venue:       e.ScreenCinema,
		Activity:    e.Activity,
		HasActivity: e.HaveActivity.Bool(),
		Tags:        e.Tags,
		CoverImage:  e.CoverImg1,
		Date:        fallback.Date,
		Day:         fallback.Day,
		Month:       fallback.Month,
		Year:        fallback.Year,
	}

	// An event can start just past midnight of its day bucket.
	if start, ok := ParseStart(e.ScreenStartTime); ok {
		event.Date = start.Format(time.DateOnly)
		event.Day = start.Day()
		event.Month = int(start.Month())
		event.Year = start.Year()
	}

	return event
}

func storedMessage(n int) string {
	return "Successfully stored " + strconv.Itoa(n) + " events"
}

func batchLabel(b Batch) string {
	return fmt.Sprintf("%04d-%02d", b.Year, b.Month)
}
