package calendar

import "errors"

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrUpstreamFetch  = errors.New("failed to fetch calendar from upstream")
	ErrStorage        = errors.New("failed to store calendar data")
	ErrNoData         = errors.New("no calendar data")
)
