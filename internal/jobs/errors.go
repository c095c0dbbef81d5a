package jobs

import "errors"

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = errors.New("job not found")

// ErrInvalidState is returned when an operation does not apply to the
// job's current status, e.g. cancelling a job that already started.
var ErrInvalidState = errors.New("invalid job state")
