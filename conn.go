package oci

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
)

// Conn implements driver.Conn on top of a Connection.
// mu is shared by every Conn of a Connector, since they share an error handle.
type Conn struct {
	conn   *Connection
	mu     *sync.Mutex
	inTx   bool
	closed bool
}

// Connection returns the underlying connection, for use inside sql.Conn.Raw
func (c *Conn) Connection() *Connection {
	return c.conn
}

// Prepare prepares a statement for execution
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext prepares a statement with context support
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, driver.ErrBadConn
	}
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, c.badConn(err)
	}
	return &Stmt{
		conn:         c,
		stmt:         stmt,
		query:        query,
		placeholders: ParsePlaceholders(query),
	}, nil
}

// badConn marks err as driver.ErrBadConn when the server is gone, so the pool discards the connection
func (c *Conn) badConn(err error) error {
	if IsConnectionError(err) {
		return fmt.Errorf("%w: %v", driver.ErrBadConn, err)
	}
	return err
}

// Close closes the connection
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.inTx {
		// Oracle commits an open transaction on a clean logoff
		if err := c.conn.Rollback(); err != nil {
			logger().Error().Err(err).Msg("rolling back open transaction on close")
		}
		c.inTx = false
	}
	if err := c.conn.Close(); err != nil {
		return err
	}
	c.closed = true
	return nil
}

// Begin starts a new transaction (deprecated, use BeginTx)
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a new transaction. Oracle starts transactions implicitly, so this only
// switches off the commit after each statement and applies the requested mode.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, driver.ErrBadConn
	}
	if c.inTx {
		return nil, errors.New("already in a transaction")
	}

	var mode string
	switch sql.IsolationLevel(opts.Isolation) {
	case sql.LevelDefault, sql.LevelReadCommitted:
		if opts.ReadOnly {
			mode = "SET TRANSACTION READ ONLY"
		}
	case sql.LevelSerializable, sql.LevelSnapshot:
		if opts.ReadOnly {
			return nil, errors.New("read-only serializable transactions are not supported")
		}
		mode = "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE"
	default:
		return nil, fmt.Errorf("isolation level %v is not supported", sql.IsolationLevel(opts.Isolation))
	}
	if mode != "" {
		if _, err := c.execLocked(mode); err != nil {
			return nil, c.badConn(err)
		}
	}

	c.inTx = true
	return &Tx{conn: c}, nil
}

// execLocked prepares, executes and releases a statement without binds. Called with c.mu held.
func (c *Conn) execLocked(query string) (uint64, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return 0, err
	}
	n, err := stmt.Execute()
	return n, errors.Join(err, stmt.Close())
}

// autoCommit commits after a statement run outside a transaction. Called with c.mu held.
func (c *Conn) autoCommit() error {
	if c.inTx {
		return nil
	}
	return c.conn.Commit()
}

// Ping verifies the connection is still alive
func (c *Conn) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return driver.ErrBadConn
	}
	if err := c.conn.Ping(); err != nil {
		if IsConnectionError(err) {
			return driver.ErrBadConn
		}
		return err
	}
	return nil
}

// ExecContext executes a query without returning rows
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	stmt, err := c.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	return stmt.(*Stmt).ExecContext(ctx, args)
}

// QueryContext executes a query that returns rows
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	stmt, err := c.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.(*Stmt).QueryContext(ctx, args)
	if err != nil {
		stmt.Close()
		return nil, err
	}
	// The statement is closed together with the rows
	rows.(*Rows).closeStmt = true
	return rows, nil
}

// ResetSession is called before a connection is reused
func (c *Conn) ResetSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return driver.ErrBadConn
	}

	// If still in a transaction, the connection is in a bad state
	if c.inTx {
		return driver.ErrBadConn
	}

	return nil
}

// IsValid returns true if the connection is valid
func (c *Conn) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.conn.closed()
}

// CheckNamedValue accepts every value; conversion happens when binding
func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	return nil
}

// Ensure Conn implements the required interfaces
var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.SessionResetter    = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
)
