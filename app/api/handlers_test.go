package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/cfa-cal/app/calendar"
	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/feed"
	"github.com/lysyi3m/cfa-cal/app/venue"
)

type mockCalendar struct {
	view       calendar.MonthView
	viewErr    error
	syncResult calendar.Result
	refresh    calendar.Result
	lastFetch  time.Time
	syncCalls  int
}

func (m *mockCalendar) Sync(ctx context.Context) calendar.Result {
	m.syncCalls++
	return m.syncResult
}

func (m *mockCalendar) Refresh(ctx context.Context) calendar.Result {
	return m.refresh
}

func (m *mockCalendar) CurrentMonth(ctx context.Context) (calendar.MonthView, error) {
	return m.view, m.viewErr
}

func (m *mockCalendar) LastFetch(ctx context.Context) (time.Time, bool, error) {
	return m.lastFetch, !m.lastFetch.IsZero(), nil
}

type testServer struct {
	engine   *gin.Engine
	calendar *mockCalendar
	logs     *database.FetchLogRepo
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	table, err := venue.Load("")
	if err != nil {
		t.Fatalf("Failed to load venues: %v", err)
	}
	resolver := venue.NewTreeResolver(table)

	mock := &mockCalendar{
		syncResult: calendar.Result{State: calendar.StateFresh},
		view: calendar.MonthView{
			Year:  2025,
			Month: 7,
			Days:  []database.Day{{Date: "2025-07-01", Day: 1, Month: 7, Year: 2025, EventCount: 2}},
			Events: []database.Event{
				{ID: 1, Title: "Spring in a Small Town", Genre: "Drama", StartsAt: "2025-07-01 20:00:00", Venue: "小西天艺术影院 1号厅"},
				{ID: 2, Title: "Street Angel", Genre: "Romance", StartsAt: "2025-07-01 14:00:00", Venue: "江南分馆 2号厅"},
			},
		},
	}

	logs := database.NewFetchLogRepo(db)
	handler := NewHandler(mock, feed.NewGenerator(resolver, "contact@example.com"), resolver,
		database.NewEventRepo(db), logs, "https://cal.example.com/")

	return &testServer{
		engine:   NewServer(handler, apiKey),
		calendar: mock,
		logs:     logs,
	}
}

func (s *testServer) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestGetCalendar(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/api/calendar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if s.calendar.syncCalls != 1 {
		t.Errorf("Expected one sync attempt, got %d", s.calendar.syncCalls)
	}

	var body calendar.MonthView
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(body.Days) != 1 || len(body.Events) != 2 {
		t.Errorf("Unexpected body: %+v", body)
	}
}

func TestGetCalendarServesStoredDataAfterFailedSync(t *testing.T) {
	s := newTestServer(t, "")
	s.calendar.syncResult = calendar.Result{State: calendar.StateFailed, Err: calendar.ErrUpstreamFetch}

	w := s.do(http.MethodGet, "/api/calendar", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 despite failed sync, got %d", w.Code)
	}
}

func TestGetCalendarStorageError(t *testing.T) {
	s := newTestServer(t, "")
	s.calendar.viewErr = errors.New("database is locked")

	w := s.do(http.MethodGet, "/api/calendar", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"database is locked"`) {
		t.Errorf("Expected error body, got %s", w.Body.String())
	}
}

func TestRefreshCalendar(t *testing.T) {
	s := newTestServer(t, "")

	s.calendar.refresh = calendar.Result{State: calendar.StateDone, Events: 12}
	w := s.do(http.MethodPost, "/api/calendar/refresh", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("Expected success, got %d %s", w.Code, w.Body.String())
	}

	s.calendar.refresh = calendar.Result{State: calendar.StateFailed, Err: calendar.ErrAuthentication}
	w = s.do(http.MethodGet, "/api/calendar/refresh", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) || !strings.Contains(w.Body.String(), "authentication failed") {
		t.Errorf("Unexpected failure body: %s", w.Body.String())
	}
}

func TestRefreshRequiresAPIKey(t *testing.T) {
	s := newTestServer(t, "secret-key")
	s.calendar.refresh = calendar.Result{State: calendar.StateDone}

	if w := s.do(http.MethodPost, "/api/calendar/refresh", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/calendar/refresh", map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/calendar/refresh", map[string]string{"Authorization": "Bearer secret-key"}); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer key, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/calendar", nil); w.Code != http.StatusOK {
		t.Errorf("Expected calendar to stay public, got %d", w.Code)
	}
}

func TestGetFeed(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/ics/calendar.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != feed.ContentType {
		t.Errorf("Expected calendar content type, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="calendar.ics"` {
		t.Errorf("Unexpected content disposition: %s", cd)
	}
	if strings.Count(w.Body.String(), "BEGIN:VEVENT") != 2 {
		t.Errorf("Expected 2 events in unfiltered feed")
	}
	if !strings.Contains(w.Body.String(), "X-WR-CALNAME:CFA Calendar") {
		t.Error("Expected default calendar name")
	}
}

func TestGetFeedFiltered(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/ics/beijing/xiaoxitian/1/calendar.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "UID:1@cfa-cal") || strings.Contains(body, "UID:2@cfa-cal") {
		t.Error("Expected only the Xiaoxitian hall 1 event")
	}
	if !strings.Contains(body, "X-WR-CALNAME:北京市 小西天 1号厅") {
		t.Error("Expected calendar name from venue codes")
	}

	w = s.do(http.MethodGet, "/suzhou/calendar.ics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "UID:2@cfa-cal") {
		t.Errorf("Expected root-level feed path to work, got %d", w.Code)
	}
}

func TestGetFeedErrors(t *testing.T) {
	s := newTestServer(t, "")

	if w := s.do(http.MethodGet, "/ics/a/b/c/d/calendar.ics", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for too many segments, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/ics/beijing/feed.xml", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for wrong file name, got %d", w.Code)
	}

	w := s.do(http.MethodGet, "/ics/shanghai/calendar.ics", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 for empty feed, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), feed.ErrNoEvents.Error()) {
		t.Errorf("Expected encoder message, got %s", w.Body.String())
	}
}

func TestParseFeedPath(t *testing.T) {
	cases := []struct {
		path string
		want feed.Filter
		ok   bool
	}{
		{"/calendar.ics", feed.Filter{}, true},
		{"/beijing/calendar.ics", feed.Filter{RegionCode: "beijing"}, true},
		{"/beijing/baiziwan/calendar.ics", feed.Filter{RegionCode: "beijing", VenueCode: "baiziwan"}, true},
		{"/beijing/baiziwan/1/calendar.ics", feed.Filter{RegionCode: "beijing", VenueCode: "baiziwan", HallCode: "1"}, true},
		{"/beijing//calendar.ics", feed.Filter{}, false},
		{"/", feed.Filter{}, false},
		{"/beijing", feed.Filter{}, false},
	}

	for _, tc := range cases {
		got, ok := parseFeedPath(tc.path)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseFeedPath(%q) = %+v, %v; want %+v, %v", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestListVenues(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/api/venues", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Feed    string       `json:"feed"`
		Regions []regionInfo `json:"regions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}

	if body.Feed != "https://cal.example.com/ics/calendar.ics" {
		t.Errorf("Unexpected root feed URL: %s", body.Feed)
	}
	if len(body.Regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(body.Regions))
	}
	hall := body.Regions[0].Venues[0].Halls[1]
	if hall.Feed != "https://cal.example.com/ics/beijing/xiaoxitian/2/calendar.ics" {
		t.Errorf("Unexpected hall feed URL: %s", hall.Feed)
	}
}

func TestListFetchLogs(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.logs.Append(ctx, database.FetchLog{Status: database.FetchStatusSuccess, Year: 2025, Month: 7, CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	w := s.do(http.MethodGet, "/api/fetch-logs?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"total":2`) {
		t.Errorf("Expected 2 logs, got %s", w.Body.String())
	}

	if w := s.do(http.MethodGet, "/api/fetch-logs?limit=zero", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	s := newTestServer(t, "")
	s.calendar.lastFetch = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	w := s.do(http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["events"] != float64(0) {
		t.Errorf("Expected 0 stored events, got %v", body["events"])
	}
	if _, ok := body["last_fetch"]; !ok {
		t.Error("Expected last_fetch in health response")
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("Expected JSON 404, got %d %s", w.Code, w.Body.String())
	}
}
