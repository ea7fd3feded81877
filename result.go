package oci

import (
	"database/sql/driver"
	"errors"
)

// ErrLastInsertID is returned by Result.LastInsertId; Oracle has no session-level identity value
var ErrLastInsertID = errors.New("oci: LastInsertId is not supported, select the sequence or identity value instead")

// Result implements driver.Result for INSERT, UPDATE, DELETE operations
type Result struct {
	rowsAffected int64
}

// LastInsertId always fails with ErrLastInsertID
func (r *Result) LastInsertId() (int64, error) {
	return 0, ErrLastInsertID
}

// RowsAffected returns the number of rows affected by the query
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// Ensure Result implements driver.Result
var _ driver.Result = (*Result)(nil)
