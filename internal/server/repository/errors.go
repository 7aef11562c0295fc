package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrAlreadyApplied   = errors.New("already applied to this job")
	ErrAlreadyWithdrawn = errors.New("application already withdrawn")
)
