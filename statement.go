package oci

import (
	"fmt"
	"runtime"

	"github.com/slingdata-io/goci/native"
)

// PrepareOption configures Connection.Prepare
type PrepareOption func(*prepareOptions)

type prepareOptions struct {
	key    string
	syntax Syntax
}

// WithCacheKey tags the statement in the session statement cache.
// The cache is enabled by connecting with AuthStmtCache.
func WithCacheKey(key string) PrepareOption {
	return func(o *prepareOptions) {
		o.key = key
	}
}

// WithSyntax selects the SQL dialect. The default is SyntaxNative.
func WithSyntax(s Syntax) PrepareOption {
	return func(o *prepareOptions) {
		o.syntax = s
	}
}

// bindSlot keeps a bound value and its indicator alive and pinned while the
// statement may still read them
type bindSlot struct {
	value  bindValue
	ind    int16
	pinner runtime.Pinner
}

func (b *bindSlot) pin() {
	b.pinner.Pin(b)
	if len(b.value.data) > 0 {
		b.pinner.Pin(&b.value.data[0])
	}
}

// Statement is a prepared SQL statement. It is released back to the statement cache by Close.
type Statement struct {
	conn   *Connection
	res    resource
	sql    string
	key    string
	binds  map[any]*bindSlot
	rowset *RowSet
}

// Prepare prepares sql on the connection
func (c *Connection) Prepare(sql string, opts ...PrepareOption) (*Statement, error) {
	if c.closed() {
		return nil, ErrClosed
	}
	o := prepareOptions{syntax: SyntaxNative}
	for _, opt := range opts {
		opt(&o)
	}

	errh := c.errh()
	raw, st := c.lib.StmtPrepare2(c.svc.raw, errh, sql, o.key, uint32(o.syntax), native.OCI_DEFAULT)
	if err := check(c.lib, st, errh, "OCIStmtPrepare2"); err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}

	c.stmts++
	return &Statement{
		conn:  c,
		res:   resource{lib: c.lib, raw: raw, typ: uint32(native.OCI_HTYPE_STMT)},
		sql:   sql,
		key:   o.key,
		binds: make(map[any]*bindSlot),
	}, nil
}

// SQL returns the statement text
func (s *Statement) SQL() string {
	return s.sql
}

// Connection returns the connection the statement was prepared on
func (s *Statement) Connection() *Connection {
	return s.conn
}

func (s *Statement) ready() error {
	if s.res.Closed() || s.conn.closed() {
		return ErrClosed
	}
	if s.rowset != nil {
		return fmt.Errorf("statement has an open row set: %w", ErrBusy)
	}
	return nil
}

// StmtType returns the OCI_STMT_* kind reported by the server
func (s *Statement) StmtType() (uint16, error) {
	return getAttr[uint16](&s.res, native.OCI_ATTR_STMT_TYPE, s.conn.errh())
}

// SetPrefetchRows sets how many rows the client fetches ahead per round trip
func (s *Statement) SetPrefetchRows(n uint32) error {
	return setAttr(&s.res, native.OCI_ATTR_PREFETCH_ROWS, n, s.conn.errh())
}

// Bind binds value to a placeholder. col is a 0-based position (int) or a placeholder
// name (string) passed as written in the SQL, e.g. ":id". A nil value binds NULL.
// The value is retained until the statement is closed or the placeholder is bound again.
func (s *Statement) Bind(col any, value any) error {
	if err := s.ready(); err != nil {
		return err
	}
	bv, err := toDB(s.conn, value)
	if err != nil {
		return err
	}
	slot := &bindSlot{value: bv}
	if bv.null {
		slot.ind = -1
	}
	slot.pin()

	errh := s.conn.errh()
	var st native.Status
	switch c := col.(type) {
	case int:
		if c < 0 {
			slot.pinner.Unpin()
			return fmt.Errorf("%w: bind position %d", ErrInvalidColumn, c)
		}
		_, st = s.res.lib.BindByPos(s.res.raw, errh, uint32(c+1), bv.data, bv.ty, &slot.ind)
	case string:
		_, st = s.res.lib.BindByName(s.res.raw, errh, c, bv.data, bv.ty, &slot.ind)
	default:
		slot.pinner.Unpin()
		return fmt.Errorf("oci: bind column must be int or string, got %T", col)
	}
	if err := check(s.res.lib, st, errh, "OCIBind"); err != nil {
		slot.pinner.Unpin()
		return fmt.Errorf("binding %v: %w", col, err)
	}

	if old, ok := s.binds[col]; ok {
		old.pinner.Unpin()
	}
	s.binds[col] = slot
	return nil
}

// Execute runs a statement that returns no rows and reports the number of rows affected
func (s *Statement) Execute() (uint64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	errh := s.conn.errh()
	st := s.res.lib.StmtExecute(s.conn.svc.raw, s.res.raw, errh, 1, 0, native.OCI_DEFAULT)
	if err := check(s.res.lib, st, errh, "OCIStmtExecute"); err != nil {
		return 0, err
	}
	n, err := getAttr[uint32](&s.res, native.OCI_ATTR_ROW_COUNT, errh)
	return uint64(n), err
}

// Query executes a SELECT and returns its rows.
// Only one row set can be open per statement; close it before querying again.
func (s *Statement) Query() (*RowSet, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	lib, errh := s.res.lib, s.conn.errh()

	// Zero iterations executes without fetching, leaving the rows to prefetch and Next
	if err := check(lib, lib.StmtExecute(s.conn.svc.raw, s.res.raw, errh, 0, 0, native.OCI_DEFAULT), errh, "OCIStmtExecute"); err != nil {
		return nil, err
	}
	cols, err := s.describe()
	if err != nil {
		return nil, err
	}
	rs, err := newRowSet(s, cols)
	if err != nil {
		return nil, err
	}
	s.rowset = rs
	return rs, nil
}

// describe reads the select-list metadata of an executed query
func (s *Statement) describe() ([]Column, error) {
	lib, errh := s.res.lib, s.conn.errh()
	count, err := getAttr[uint32](&s.res, native.OCI_ATTR_PARAM_COUNT, errh)
	if err != nil {
		return nil, fmt.Errorf("reading column count: %w", err)
	}

	cols := make([]Column, count)
	for i := range cols {
		raw, st := lib.ParamGet(s.res.raw, s.res.typ, errh, uint32(i+1))
		if err := check(lib, st, errh, "OCIParamGet"); err != nil {
			return nil, fmt.Errorf("describing column %d: %w", i, err)
		}
		param := adoptDescriptor(lib, raw, native.OCI_DTYPE_PARAM, s.conn.env.env)
		cols[i], err = readColumn(param, i, errh)
		param.Close()
		if err != nil {
			return nil, fmt.Errorf("describing column %d: %w", i, err)
		}
	}
	return cols, nil
}

// Close releases the statement. It fails with ErrBusy while a row set is open.
// The native release call failing is not recoverable and panics.
func (s *Statement) Close() error {
	if s.res.Closed() {
		return nil
	}
	if s.rowset != nil {
		return fmt.Errorf("closing statement with an open row set: %w", ErrBusy)
	}
	errh := s.conn.errh()
	if st := s.res.lib.StmtRelease(s.res.raw, errh, s.key, native.OCI_DEFAULT); st != native.OCI_SUCCESS {
		panic(fmt.Sprintf("oci: OCIStmtRelease: %v", decode(s.res.lib, st, errh)))
	}
	s.res.release()
	for _, slot := range s.binds {
		slot.pinner.Unpin()
	}
	s.binds = nil
	s.conn.stmts--
	return nil
}
