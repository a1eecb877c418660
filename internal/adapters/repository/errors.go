package repository

import "errors"

// Sentinel kinds for store errors. Missing records are reported with
// errs.ErrNotFound so domain callers can match them.
var (
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrDuplicateScore = errors.New("score id already stored")
	ErrInvalidRecord  = errors.New("invalid record")
)
