package upstream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	loginSuccessCode = "410001"
	statusOK         = 200
)

// FlexString accepts JSON strings, numbers and booleans. The schedule API
// is not consistent about quoting scalar fields.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// Bool reports whether the value reads as "true" or a non-zero number.
func (s FlexString) Bool() bool {
	v := strings.TrimSpace(strings.ToLower(string(s)))
	if v == "true" {
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n != 0
}

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
	if err != nil {
		return err
	}
	*n = FlexInt(v)
	return nil
}

type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type LoginData struct {
	Token       string `json:"token"`
	ExpiresTime int64  `json:"expires_time"` // unix seconds
}

type LoginResponse struct {
	Status     int        `json:"status"`
	Msg        string     `json:"msg"`
	Code       FlexString `json:"code"`
	Data       *LoginData `json:"data"`
	HTTPStatus int        `json:"-"`
}

// Successful requires the success status, the success code and a token
// payload together.
func (r *LoginResponse) Successful() bool {
	return r != nil &&
		r.Status == statusOK &&
		r.Code.String() == loginSuccessCode &&
		r.Data != nil &&
		r.Data.Token != ""
}

type CalendarRequest struct {
	Year       string `json:"year"`
	Month      string `json:"month"` // zero-padded
	CinemaCode string `json:"cinema_code"`
}

type EventData struct {
	ID              FlexInt    `json:"id"`
	ShowName        string     `json:"show_name"`
	FilmArea        string     `json:"film_area"`
	FilmType        string     `json:"film_type"`
	FilmYear        FlexString `json:"film_year"`
	ScreenTimeLen   FlexString `json:"screen_time_len"`
	ShowMode        string     `json:"show_mode"`
	ShowType        string     `json:"show_type"`
	ShowPrice       FlexString `json:"show_price"`
	ScreenUpTime    string     `json:"screen_up_time"`
	ScreenSalesTime string     `json:"screen_sales_time"`
	ScreenStartTime string     `json:"screen_start_time"`
	ScreenCinema    string     `json:"screen_cinema"`
	Activity        string     `json:"activity"`
	HaveActivity    FlexString `json:"have_activity"`
	Tags            []string   `json:"tags"`
	CoverImg1       string     `json:"cover_img1"`
}

type DayData struct {
	Day          FlexInt     `json:"day"`
	Screen       []EventData `json:"screen"`
	HaveActivity FlexString  `json:"have_activity"`
}

type CalendarData struct {
	List     []DayData `json:"list"`
	Count    int       `json:"count"`
	DataType string    `json:"data_type"`
}

type CalendarResponse struct {
	Status     int           `json:"status"`
	Msg        string        `json:"msg"`
	Data       *CalendarData `json:"data"`
	HTTPStatus int           `json:"-"`
}

// Valid reports a structurally usable response. An empty list is valid.
func (r *CalendarResponse) Valid() bool {
	return r != nil &&
		r.Status == statusOK &&
		r.Data != nil &&
		r.Data.List != nil
}
