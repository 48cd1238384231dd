package fetch

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout reports that a page navigated but the required elements never
// appeared within the allotted wait. Callers treat it as a soft failure.
var ErrTimeout = errors.New("fetch: required element timeout")

// Fetcher renders a URL and returns the page HTML once any of the wait
// selectors is present.
type Fetcher interface {
	Fetch(ctx context.Context, url string, waitSelectors []string, timeout time.Duration) (string, error)
}

// Session is one interactive browser tab, used by the inquiry sequencer.
// A session must never be shared across concurrent navigations.
type Session interface {
	Navigate(url string) error
	// ClickFirst tries the selectors in order and clicks the first present
	// element, returning which selector matched.
	ClickFirst(selectors []string) (matched string, ok bool, err error)
	// FillFirst tries the selectors in order and types value into the first
	// present field.
	FillFirst(selectors []string, value string) (ok bool, err error)
	Close() error
}

// Browser opens interactive sessions. Acquiring a session is the only
// operation whose failure is fatal to a run.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}
