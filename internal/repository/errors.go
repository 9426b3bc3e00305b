// Package repository implements MySQL persistence for rooms,
// reservations, users and refresh tokens.  Engine-facing not-found
// conditions are translated into the booking package's sentinel
// errors at the Store boundary; the values below cover failures that
// belong to the repository layer itself.
package repository

import "errors"

// ErrEmailExists is returned when registering a user with an email
// address that is already taken.  Handlers should translate this into
// an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
