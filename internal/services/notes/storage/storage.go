// Package storage defines the persistence errors shared by notekeep stores.
//
// Record types and store contracts live with their consumers (account and
// note); this package only carries the sentinels every backend reports so
// services can classify failures without importing a driver.
package storage

import (
	"github.com/louisbranch/notekeep/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing, or is not visible to
// the caller.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// ErrEmailTaken indicates an account already exists for the email.
var ErrEmailTaken = errors.New(errors.CodeConflict, "email already in use")
