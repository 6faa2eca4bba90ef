package database

import (
	"time"
)

// Day is the per-date aggregate row of the screening calendar.
type Day struct {
	Date        string    `json:"date"` // YYYY-MM-DD
	Day         int       `json:"day"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	HasActivity bool      `json:"has_activity"`
	EventCount  int       `json:"events_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is a single screening, keyed by the upstream screen id.
type Event struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Genre       string   `json:"genre"`
	Region      string   `json:"region"` // country/region of origin
	FilmYear    string   `json:"film_year"`
	Runtime     string   `json:"runtime"` // minutes, as sent upstream
	ShowMode    string   `json:"show_mode"`
	ShowType    string   `json:"show_type"`
	Price       string   `json:"price"`
	ListedAt    string   `json:"listed_at"`
	SalesAt     string   `json:"sales_at"`
	StartsAt    string   `json:"starts_at"` // local UTC+8 wall clock
	Venue       string   `json:"venue"`     // free-text cinema and hall
	Activity    string   `json:"activity"`
	HasActivity bool     `json:"has_activity"`
	Tags        []string `json:"tags"`
	CoverImage  string   `json:"cover_image"`

	Date      string    `json:"date"`
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FetchLog is an append-only audit record of one reconciliation.
type FetchLog struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Message    string    `json:"message"`
	EventCount int       `json:"events_count"`
	CreatedAt  time.Time `json:"created_at"`
}
