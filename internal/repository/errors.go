// Package repository defines sentinel error values shared by the
// repositories. Handlers translate them into HTTP statuses. Note that
// ErrProductNotFound covers both a genuinely absent row and a row owned by
// someone else: single-item reads and writes are always scoped to the
// caller, so a non-owner can never learn that another user's product
// exists.
package repository

import "errors"

// ErrEmailExists is returned when an insert or update collides with the
// unique email index. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user row matches the lookup.
// Handlers translate this into HTTP 404.
var ErrUserNotFound = errors.New("user not found")

// ErrProductNotFound is returned when no visible product row matches the
// id+owner pair. Handlers translate this into HTTP 404 with a single
// message for "absent" and "not yours".
var ErrProductNotFound = errors.New("product not found")
