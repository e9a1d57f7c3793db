package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Pipeline error taxonomy.
var (
	ErrNetwork          = errors.New("network error")
	ErrRateLimited      = errors.New("rate limited")
	ErrEmptyScript      = errors.New("script is empty")
	ErrCacheIO          = errors.New("script cache I/O failure")
	ErrExecution        = errors.New("failed to start script")
	ErrChecksumMismatch = errors.New("checksum does not match known good hash")
)

// FetchError describes a failed GET. It matches ErrRateLimited for 403/429
// and ErrNetwork otherwise.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	}
	return fmt.Sprintf("HTTP request failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is classify the failure without inspecting messages.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.RateLimited()
	case ErrNetwork:
		return !e.RateLimited()
	}
	return false
}

// RateLimited reports whether the origin refused with 403 or 429.
func (e *FetchError) RateLimited() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}
