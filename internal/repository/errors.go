// Package repository defines the data access layer for displays and
// their hardware models, plus the sentinel errors shared by both
// repositories.  Higher layers use the sentinels to tell a missing row,
// which is a normal outcome in this application, apart from a failed
// statement.
package repository

import "errors"

// ErrDisplayNotFound is returned when no display matches a serial number.
var ErrDisplayNotFound = errors.New("digital display not found")

// ErrModelNotFound is returned when no model matches a model number.
var ErrModelNotFound = errors.New("model not found")
