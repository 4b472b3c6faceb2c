package sources

import (
	"context"
	"errors"
	"fmt"
	"net"

	"countrycatalog/pkg/platform/sentinel"
)

// ErrorCategory normalizes why a source could not be used.
type ErrorCategory string

const (
	// ErrorTimeout indicates the source did not answer within the bounded timeout
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorTransport indicates the request never produced a response
	ErrorTransport ErrorCategory = "transport"

	// ErrorBadStatus indicates a non-success HTTP status
	ErrorBadStatus ErrorCategory = "bad_status"

	// ErrorBadData indicates the response body could not be decoded
	ErrorBadData ErrorCategory = "bad_data"
)

// UnavailableError reports that one external source could not be fetched.
// It matches sentinel.ErrUnavailable under errors.Is.
type UnavailableError struct {
	Source     string
	Host       string
	Category   ErrorCategory
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("source %s unavailable [%s]: status %d", e.Source, e.Category, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("source %s unavailable [%s]: %v", e.Source, e.Category, e.Err)
	}
	return fmt.Sprintf("source %s unavailable [%s]", e.Source, e.Category)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == sentinel.ErrUnavailable
}

// Origin names where the data was expected from: the upstream host when
// known, otherwise the source name.
func (e *UnavailableError) Origin() string {
	if e.Host != "" {
		return e.Host
	}
	return e.Source
}

// AsUnavailable extracts an UnavailableError from err.
func AsUnavailable(err error) (*UnavailableError, bool) {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

func unavailable(source string, category ErrorCategory, err error) *UnavailableError {
	return &UnavailableError{Source: source, Category: category, Err: err}
}

func classifyTransportError(source string, err error) *UnavailableError {
	if errors.Is(err, context.DeadlineExceeded) {
		return unavailable(source, ErrorTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return unavailable(source, ErrorTimeout, err)
	}
	return unavailable(source, ErrorTransport, err)
}
