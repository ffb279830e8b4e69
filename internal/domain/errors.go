package domain

import "errors"

// ErrNotFound is returned by repo, api, and service functions when the
// requested resource does not exist locally or on the backend.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing title, rating out of range, trip without markers).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrPermission is returned when the user denied a permission the operation
// needs (location access) or the backend rejected the credentials.
// Handlers should map this to HTTP 403.
var ErrPermission = errors.New("permission denied")

// ErrOffline marks transport-level failures: the backend could not be
// reached at all, as opposed to answering with an error status.
var ErrOffline = errors.New("backend unreachable")
