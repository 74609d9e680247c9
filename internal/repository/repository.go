// Package repository contains metadata persistence abstractions.
// Implementations live in subpackages (sidecar, postgres) inside this directory.
package repository

import "errors"

// ErrNotFound is returned when no metadata record exists for an id.
var ErrNotFound = errors.New("metadata not found")
