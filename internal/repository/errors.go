// Package repository defines error types that are reused across the store
// implementations. These sentinel values let the service layer tell a
// missing record from a uniqueness violation or a lost state race without
// knowing which database sits underneath.
package repository

import "errors"

// ErrNotFound is returned when no record matches the requested id, email or
// serial number.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would break a unique
// index (users.email, laptops.serial_number).
var ErrDuplicate = errors.New("duplicate key")

// ErrStateChanged is returned by SwapState when the laptop no longer is in
// the expected state, i.e. another request moved it first.
var ErrStateChanged = errors.New("laptop state changed")

// ErrReferenced is returned when a user cannot be removed because a laptop
// still names them as holder.
var ErrReferenced = errors.New("record is referenced")
