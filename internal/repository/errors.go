package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateIdentity indicates a concurrent create already inserted
	// the same identity. Callers treat it as "fetch existing".
	ErrDuplicateIdentity = errors.New("repository: duplicate identity")
	// ErrStoreUnavailable indicates no live store connection exists.
	ErrStoreUnavailable = errors.New("repository: store unavailable")
)
