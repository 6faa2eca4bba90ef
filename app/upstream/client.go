package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	loginPath    = "/api/login"
	calendarPath = "/api/v3/movie/getCalendar"
)

// StatusError is returned when the upstream body could not be decoded.
// Code carries the HTTP status so authorization failures stay visible.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream HTTP %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether a failed calendar fetch looks like a rejected
// token, judged by the body status or the HTTP status.
func Unauthorized(resp *CalendarResponse, err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return isAuthStatus(statusErr.Code)
	}
	if resp == nil {
		return false
	}
	return isAuthStatus(resp.Status) || isAuthStatus(resp.HTTPStatus)
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Login(ctx context.Context, account, password string) (*LoginResponse, error) {
	var resp LoginResponse
	code, err := c.post(ctx, loginPath, "", LoginRequest{Account: account, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	resp.HTTPStatus = code
	return &resp, nil
}

// FetchCalendar requests the schedule of one month for every cinema.
func (c *Client) FetchCalendar(ctx context.Context, token string, year, month int) (*CalendarResponse, error) {
	req := CalendarRequest{
		Year:       fmt.Sprintf("%d", year),
		Month:      fmt.Sprintf("%02d", month),
		CinemaCode: "",
	}

	var resp CalendarResponse
	code, err := c.post(ctx, calendarPath, token, req, &resp)
	if err != nil {
		return nil, err
	}
	resp.HTTPStatus = code
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload any, dst any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return resp.StatusCode, nil
}
