package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrBadVector   = errors.New("db: malformed vector blob")
)

// Op constants map to Redis command names for error context.
const (
	OpScan = "SCAN"
	OpGet  = "GET"
	OpMGet = "MGET"
	OpSet  = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
