package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Kind classifies why an acquisition failed.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindBlocked      Kind = "blocked"
	KindTimeout      Kind = "timeout"
	KindEmptyResult  Kind = "empty-result"
	KindInvalidQuery Kind = "invalid-query"
)

// FetchError is returned for transport failures and non-2xx responses.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Elapsed    time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s fetching %s", e.Kind, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	msg += fmt.Sprintf(" after %v", e.Elapsed.Round(time.Millisecond))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewError builds a FetchError that did not come from a completed request.
func NewError(kind Kind, url string, err error) *FetchError {
	return &FetchError{Kind: kind, URL: url, Err: err}
}

// Classify maps any error to a failure kind. Unknown errors count as network failures.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	return KindNetwork
}

// statusKind classifies a non-2xx status code.
func statusKind(status int) Kind {
	switch status {
	case 401, 403, 407, 429, 999:
		return KindBlocked
	default:
		return KindNetwork
	}
}
