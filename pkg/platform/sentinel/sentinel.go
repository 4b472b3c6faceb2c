package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and source clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the catalog store
//   - ErrAlreadyUsed: a single-flight slot is already held
//   - ErrUnavailable: an external source or backing service cannot be reached
//
// For validation errors (bad query parameters), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
