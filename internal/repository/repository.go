package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint
var ErrDuplicate = errors.New("already exists")
