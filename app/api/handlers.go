package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/feed"
)

const (
	feedFileName         = "calendar.ics"
	defaultFetchLogLimit = 20
	maxFetchLogLimit     = 100
)

func NewHandler(calendar CalendarService, generator GeneratorInterface, venues VenueDirectory,
	eventRepo database.EventRepository, fetchLogRepo database.FetchLogRepository, baseURL string) *Handler {
	return &Handler{
		calendar:     calendar,
		generator:    generator,
		venues:       venues,
		eventRepo:    eventRepo,
		fetchLogRepo: fetchLogRepo,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// GetCalendar syncs when data is stale, then returns the stored month.
// A failed sync is logged and the stored data is served anyway.
func (h *Handler) GetCalendar(c *gin.Context) {
	ctx := c.Request.Context()

	if result := h.calendar.Sync(ctx); !result.OK() {
		slog.Warn("Serving stored calendar after failed sync", "error", result.Err)
	}

	view, err := h.calendar.CurrentMonth(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "current_month", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) RefreshCalendar(c *gin.Context) {
	result := h.calendar.Refresh(c.Request.Context())
	if !result.OK() {
		message := "calendar refresh failed"
		if result.Err != nil {
			message = result.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Calendar data refreshed successfully",
		"events":  result.Events,
	})
}

// GetFeed serves calendar.ics under zero to three venue path segments:
// [region[/venue[/hall]]]/calendar.ics.
func (h *Handler) GetFeed(c *gin.Context) {
	h.serveFeed(c, c.Param("path"))
}

// NoRoute serves feed paths at the root as well, otherwise 404.
func (h *Handler) NoRoute(c *gin.Context) {
	if c.Request.Method == http.MethodGet && strings.HasSuffix(c.Request.URL.Path, "/"+feedFileName) {
		h.serveFeed(c, c.Request.URL.Path)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (h *Handler) serveFeed(c *gin.Context, path string) {
	filter, ok := parseFeedPath(path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	view, err := h.calendar.CurrentMonth(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "current_month", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	calName := h.venues.Title(filter.RegionCode, filter.VenueCode, filter.HallCode)
	data, err := h.generator.Run(view.Events, filter, calName)
	if err != nil {
		var validationErr *feed.ValidationError
		if errors.Is(err, feed.ErrNoEvents) || errors.As(err, &validationErr) {
			slog.Warn("Calendar feed not generated", "filter", path, "error", err)
		} else {
			slog.Error("ICS generation error", "filter", path, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+feedFileName+`"`)
	c.Data(http.StatusOK, feed.ContentType, data)
}

// parseFeedPath turns "/beijing/xiaoxitian/calendar.ics" into a filter.
func parseFeedPath(path string) (feed.Filter, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || len(segments) > 4 || segments[len(segments)-1] != feedFileName {
		return feed.Filter{}, false
	}

	codes := segments[:len(segments)-1]
	for _, code := range codes {
		if code == "" {
			return feed.Filter{}, false
		}
	}

	var filter feed.Filter
	if len(codes) > 0 {
		filter.RegionCode = codes[0]
	}
	if len(codes) > 1 {
		filter.VenueCode = codes[1]
	}
	if len(codes) > 2 {
		filter.HallCode = codes[2]
	}
	return filter, true
}

func (h *Handler) ListVenues(c *gin.Context) {
	table := h.venues.Table()

	regions := make([]regionInfo, 0, len(table.Regions))
	for _, region := range table.Regions {
		r := regionInfo{
			Code:   region.Code,
			Name:   region.Name,
			Feed:   h.feedURL(region.Code),
			Venues: make([]venueInfo, 0, len(region.Venues)),
		}

		for _, v := range region.Venues {
			info := venueInfo{
				Code:     v.Code,
				Name:     v.Name,
				Location: v.Location,
				Feed:     h.feedURL(region.Code, v.Code),
				Halls:    make([]venueHall, 0, len(v.Halls)),
			}
			info.Geo.Lat = v.Lat
			info.Geo.Lon = v.Lng

			for _, hall := range v.Halls {
				info.Halls = append(info.Halls, venueHall{
					Code: hall.Code,
					Name: hall.Name,
					Feed: h.feedURL(region.Code, v.Code, hall.Code),
				})
			}
			r.Venues = append(r.Venues, info)
		}
		regions = append(regions, r)
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":    h.feedURL(),
		"regions": regions,
	})
}

func (h *Handler) feedURL(codes ...string) string {
	parts := append([]string{h.baseURL, "ics"}, codes...)
	return strings.Join(append(parts, feedFileName), "/")
}

func (h *Handler) ListFetchLogs(c *gin.Context) {
	limit := defaultFetchLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(n, maxFetchLogLimit)
	}

	logs, err := h.fetchLogRepo.Recent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_fetch_logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fetch_logs": logs,
		"total":      len(logs),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if eventCount, err := h.eventRepo.Count(ctx); err == nil {
		health["events"] = eventCount
	}

	if last, found, err := h.calendar.LastFetch(ctx); err == nil && found {
		health["last_fetch"] = last.In(time.Local).Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}
