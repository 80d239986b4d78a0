package errors

import "errors"

var (
	ErrNotFound = errors.New("resource not found")

	ErrRetired = errors.New("resource is retired")

	ErrInsufficientCapacity = errors.New("insufficient capacity")

	ErrDuplicateID = errors.New("resource id already exists")

	ErrStorageTimeout = errors.New("storage operation timed out")
)
