package scraper

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL marks input that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrScrapeForbidden marks a URL rejected by the domain policy or robots.txt.
	ErrScrapeForbidden = errors.New("scrape forbidden")
	// ErrFetchFailed marks network, timeout and non-2xx failures.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrScrapeFailed marks a pipeline that failed after the policy gate.
	ErrScrapeFailed = errors.New("scrape failed")
	// ErrParseFailure is reserved for catastrophic parser failures.
	ErrParseFailure = errors.New("parse failure")
)

// ForbiddenReason names the gate that rejected a URL.
type ForbiddenReason string

const (
	// ReasonBlocklist means the host matched the deny list.
	ReasonBlocklist ForbiddenReason = "blocklist"
	// ReasonRobots means robots.txt disallows the path.
	ReasonRobots ForbiddenReason = "robots"
)

// ForbiddenError is returned when scraping a host is not permitted.
type ForbiddenError struct {
	Host   string
	Reason ForbiddenReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("scraping %s is forbidden (%s)", e.Host, e.Reason)
}

// Unwrap lets errors.Is match ErrScrapeForbidden.
func (e *ForbiddenError) Unwrap() error {
	return ErrScrapeForbidden
}

// Outcome labels used for metrics and logs.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid_url"
	OutcomeForbidden = "forbidden"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// OutcomeOf maps an error returned by Service to an outcome label.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidURL):
		return OutcomeInvalid
	case errors.Is(err, ErrScrapeForbidden):
		return OutcomeForbidden
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}
