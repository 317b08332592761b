package model

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// Snapshot is a point-in-time read of a product page.
type Snapshot struct {
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	Available bool   `json:"available"`
	URL       string `json:"url"`
}

//go:generate go run golang.org/x/tools/cmd/stringer -type=FetchErrorKind -linecomment

type FetchErrorKind int

const (
	FetchErrorUnknown     FetchErrorKind = iota // unknown
	FetchErrorInvalidURL                        // invalid_url
	FetchErrorHTTP                              // http_error
	FetchErrorRateLimited                       // rate_limited
	FetchErrorParse                             // parse_error
	FetchErrorTimeout                           // timeout
)

// FetchError is the only error a snapshot source returns.
type FetchError struct {
	Kind    FetchErrorKind
	Message string
	URL     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func NewFetchError(kind FetchErrorKind, url string, format string, v ...any) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, v...), URL: url}
}

// AsFetchError returns err as a *FetchError, classifying foreign errors by their cause.
func AsFetchError(err error, url string) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchError(FetchErrorTimeout, url, "%v", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewFetchError(FetchErrorTimeout, url, "%v", err)
	}
	return NewFetchError(FetchErrorUnknown, url, "%v", err)
}
