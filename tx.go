package oci

import (
	"database/sql/driver"
)

// Tx implements driver.Tx for transaction support
type Tx struct {
	conn *Conn
}

// Commit commits the transaction.
// Statements run afterwards are committed individually again.
func (t *Tx) Commit() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()

	if !t.conn.inTx {
		return nil // Already committed or rolled back
	}
	t.conn.inTx = false
	if err := t.conn.conn.Commit(); err != nil {
		return t.conn.badConn(err)
	}
	return nil
}

// Rollback rolls back the transaction.
// Statements run afterwards are committed individually again.
func (t *Tx) Rollback() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()

	if !t.conn.inTx {
		return nil // Already committed or rolled back
	}
	t.conn.inTx = false
	if err := t.conn.conn.Rollback(); err != nil {
		return t.conn.badConn(err)
	}
	return nil
}

// Ensure Tx implements driver.Tx
var _ driver.Tx = (*Tx)(nil)
