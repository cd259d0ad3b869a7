package repository

import "errors"

// ErrNotFound is returned when a requested setting is not stored.
// Match and hand lookups return a kinded errors.NotFound instead so the
// message reaches the API unchanged.
var ErrNotFound = errors.New("record not found")
