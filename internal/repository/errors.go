// Package repository implements data access over MySQL with hand-written
// parameterized queries.  Sentinel errors defined here let handlers map
// failures to HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a looked-up row does not exist.  Handlers
// translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting or updating a user would violate
// the unique email constraint.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid is returned when a password-reset token has no matching
// unexpired row.  A consumed, replaced or aged-out token is indistinguishable
// from one that never existed.
var ErrTokenInvalid = errors.New("invalid or expired reset token")
