package oci

import (
	"database/sql/driver"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// Rows implements driver.Rows for result set iteration
type Rows struct {
	stmt      *Stmt
	rs        *RowSet
	columns   []string
	closed    bool
	closeStmt bool // Whether to close the statement when rows are closed
}

func newRows(stmt *Stmt, rs *RowSet) *Rows {
	cols := rs.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return &Rows{stmt: stmt, rs: rs, columns: names}
}

// Columns returns the column names
func (r *Rows) Columns() []string {
	return r.columns
}

// Close closes the rows iterator
func (r *Rows) Close() error {
	r.stmt.conn.mu.Lock()
	defer r.stmt.conn.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.rs.Close(); err != nil {
		return err
	}
	if r.closeStmt && !r.stmt.closed {
		if err := r.stmt.stmt.Close(); err != nil {
			return err
		}
		r.stmt.closed = true
	}
	return nil
}

// Next fetches the next row into dest
func (r *Rows) Next(dest []driver.Value) error {
	r.stmt.conn.mu.Lock()
	defer r.stmt.conn.mu.Unlock()

	if r.closed {
		return io.EOF
	}
	row, err := r.rs.Next()
	if err != nil {
		return r.stmt.conn.badConn(err)
	}
	if row == nil {
		return io.EOF
	}
	for i := range dest {
		v, err := row.Value(i)
		if err != nil {
			return err
		}
		if dest[i], err = driverValue(v); err != nil {
			return fmt.Errorf("column %d (%s): %w", i, r.columns[i], err)
		}
	}
	return nil
}

// driverValue converts a Row.Value result to one of the driver.Value types.
// Decimals and intervals become their text form, LOBs are read completely.
func driverValue(v any) (driver.Value, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String(), nil
	case IntervalDS:
		return x.String(), nil
	case IntervalYM:
		return x.String(), nil
	case *Blob:
		return readLob(x.loc, OpenReadOnly)
	case *Clob:
		b, err := readLob(x.loc, OpenReadOnly)
		return string(b), err
	case *BFile:
		return readLob(x.loc, native.OCI_FILE_READONLY)
	}
	return v, nil
}

func readLob(loc *lobLocator, mode OpenMode) ([]byte, error) {
	r, err := newLobReader(loc, mode)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	return data, err
}

// ColumnTypeScanType returns the Go type Next stores for a column
func (r *Rows) ColumnTypeScanType(index int) reflect.Type {
	cols := r.rs.Columns()
	if index < 0 || index >= len(cols) {
		return reflect.TypeOf(new(interface{})).Elem()
	}

	c := cols[index]
	switch c.Type {
	case native.SQLT_NUM, native.SQLT_VNU:
		if c.Scale == 0 && c.Precision > 0 && c.Precision <= 18 {
			return reflect.TypeOf(int64(0))
		}
		return reflect.TypeOf(new(interface{})).Elem()
	case native.SQLT_INT, native.SQLT_UIN:
		return reflect.TypeOf(int64(0))
	case native.SQLT_FLT, native.SQLT_BFLOAT, native.SQLT_BDOUBLE, native.SQLT_IBFLOAT, native.SQLT_IBDOUBLE:
		return reflect.TypeOf(float64(0))
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_VCS, native.SQLT_AVC, native.SQLT_STR, native.SQLT_LNG,
		native.SQLT_RID, native.SQLT_RDD, native.SQLT_CLOB, native.SQLT_INTERVAL_DS, native.SQLT_INTERVAL_YM:
		return reflect.TypeOf("")
	case native.SQLT_BIN, native.SQLT_VBI, native.SQLT_LBI, native.SQLT_BLOB, native.SQLT_BFILEE, native.SQLT_CFILEE:
		return reflect.TypeOf([]byte{})
	case native.SQLT_DAT, native.SQLT_DATE, native.SQLT_TIMESTAMP, native.SQLT_TIMESTAMP_TZ, native.SQLT_TIMESTAMP_LTZ:
		return reflect.TypeOf(time.Time{})
	default:
		return reflect.TypeOf(new(interface{})).Elem()
	}
}

// ColumnTypeDatabaseTypeName returns the database type name
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	cols := r.rs.Columns()
	if index < 0 || index >= len(cols) {
		return ""
	}
	return cols[index].DatabaseTypeName()
}

// ColumnTypeLength returns the length of a column
func (r *Rows) ColumnTypeLength(index int) (length int64, ok bool) {
	cols := r.rs.Columns()
	if index < 0 || index >= len(cols) {
		return 0, false
	}
	// Only return length for variable-length types
	switch cols[index].Type {
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_VCS, native.SQLT_AVC, native.SQLT_BIN, native.SQLT_VBI:
		return int64(cols[index].Size), true
	}
	return 0, false
}

// ColumnTypePrecisionScale returns the precision and scale for NUMBER columns
func (r *Rows) ColumnTypePrecisionScale(index int) (precision, scale int64, ok bool) {
	cols := r.rs.Columns()
	if index < 0 || index >= len(cols) {
		return 0, 0, false
	}
	switch cols[index].Type {
	case native.SQLT_NUM, native.SQLT_VNU:
		return int64(cols[index].Precision), int64(cols[index].Scale), true
	default:
		return 0, 0, false
	}
}

// Ensure Rows implements the required interfaces
var (
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
	_ driver.RowsColumnTypeLength           = (*Rows)(nil)
	_ driver.RowsColumnTypePrecisionScale   = (*Rows)(nil)
)
