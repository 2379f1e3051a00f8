package store

import "errors"

var (
	ErrMetaKeyNotFound = errors.New("vault meta key not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrEntryConflict   = errors.New("entry with the same uid already exists")
)
