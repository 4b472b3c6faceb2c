package refresh

import (
	"errors"
	"fmt"
)

// ErrRefreshInProgress is returned when another pass holds the refresh lock.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// SourceUnavailableError aborts a pass during the fetch stage. No store
// mutation has happened when it is returned.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("refresh aborted: %s source unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// InternalError reports an unexpected failure in a stage after fetching.
// Upserts completed before the failure are kept.
type InternalError struct {
	Stage State
	Saved int
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("refresh failed during %s after %d saved: %v", e.Stage, e.Saved, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
