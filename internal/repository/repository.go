package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrCorruptHistory marks a history file that exists but cannot be decoded.
var ErrCorruptHistory = errors.New("attendance history is corrupt")

// PersistenceError is returned for every failed read or write of the history.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("attendance history %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Repository interface {
	// AppendRecord adds record to the end of its month's history.
	AppendRecord(ctx context.Context, record AttendanceRecord) error
	// LoadMonth returns the month's records in append order, or an empty slice if none exist.
	LoadMonth(ctx context.Context, month MonthKey) ([]AttendanceRecord, error)
}
