package store

import "errors"

var (
	// ErrDBClosed is returned when trying to operate on a closed store
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned when a key doesn't exist in the store
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnknownBatchOp is returned for a batch operation of unknown type
	ErrUnknownBatchOp = errors.New("unknown batch operation type")
)
