package domain

import "errors"

var (
	ErrInvalidConfig       = errors.New("invalid_config")
	ErrEmptyReferenceSet   = errors.New("empty_reference_set")
	ErrIntegrityViolation  = errors.New("integrity_violation")
	ErrStoreNotFound       = errors.New("store_not_found")
	ErrInterchangeNotFound = errors.New("interchange_not_found")
)
