package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrAlreadyCancelled = errors.New("reservation is not in booked state")

	ErrConflict = errors.New("reservation id already exists")

	ErrStorageTimeout = errors.New("storage operation timed out")

	ErrLockUnavailable = errors.New("resource lock could not be acquired")
)
