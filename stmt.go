package oci

import (
	"context"
	"database/sql/driver"
	"fmt"
)

// Stmt implements driver.Stmt for prepared statements
type Stmt struct {
	conn         *Conn
	stmt         *Statement
	query        string
	placeholders *Placeholders
	closed       bool
}

// Close closes the statement
func (s *Stmt) Close() error {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.stmt.Close(); err != nil {
		return err
	}
	s.closed = true
	return nil
}

// NumInput returns the number of distinct placeholders. A name used
// several times in the statement takes one argument.
func (s *Stmt) NumInput() int {
	return s.placeholders.Count()
}

// Exec executes a prepared statement (deprecated, use ExecContext)
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), namedValues(args))
}

// ExecContext executes a prepared statement with context
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if s.closed {
		return nil, driver.ErrBadConn
	}
	if err := s.bindParams(args); err != nil {
		return nil, err
	}
	n, err := s.stmt.Execute()
	if err != nil {
		return nil, s.conn.badConn(err)
	}
	if err := s.conn.autoCommit(); err != nil {
		return nil, s.conn.badConn(err)
	}
	return &Result{rowsAffected: int64(n)}, nil
}

// Query executes a prepared query (deprecated, use QueryContext)
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), namedValues(args))
}

// QueryContext executes a prepared query with context
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	if s.closed {
		return nil, driver.ErrBadConn
	}
	if err := s.bindParams(args); err != nil {
		return nil, err
	}
	rs, err := s.stmt.Query()
	if err != nil {
		return nil, s.conn.badConn(err)
	}
	return newRows(s, rs), nil
}

func namedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		named[i] = driver.NamedValue{
			Ordinal: i + 1,
			Value:   arg,
		}
	}
	return named
}

// bindParams binds arguments by name. Positional arguments take the name of the
// placeholder at the same first-appearance index, so a repeated name is bound once.
func (s *Stmt) bindParams(args []driver.NamedValue) error {
	for _, arg := range args {
		if arg.Name != "" {
			if s.placeholders.Index(arg.Name) < 0 {
				return &ParameterError{Name: arg.Name, Message: "no such placeholder in statement"}
			}
			if err := s.stmt.Bind(":"+arg.Name, arg.Value); err != nil {
				return err
			}
			continue
		}

		idx := arg.Ordinal - 1
		if idx < 0 || idx >= s.placeholders.Count() {
			return &ParameterError{Message: fmt.Sprintf("argument %d has no placeholder (statement has %d)", arg.Ordinal, s.placeholders.Count())}
		}
		if err := s.stmt.Bind(":"+s.placeholders.Names[idx], arg.Value); err != nil {
			return err
		}
	}
	return nil
}

// Ensure Stmt implements the required interfaces
var (
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtExecContext  = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
)
