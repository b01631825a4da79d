package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, e.g. registering an email twice.
var ErrDuplicate = errors.New("duplicate record")

// ErrModified is returned when a conditional sub-collection update found
// the stored value changed since it was read. Callers reload and retry.
var ErrModified = errors.New("concurrently modified")
