package oci

import (
	"fmt"
	"iter"
	"runtime"
	"strings"

	"github.com/slingdata-io/goci/native"
)

// Column describes one select-list item of a query
type Column struct {
	Pos       int
	Type      Type
	Name      string
	Size      uint16
	Precision int16
	Scale     int8
}

// BindType is the wire type a column is defined with for fetching.
// NUMBER is fetched as VARNUM, ROWID and LONG as text.
func (c Column) BindType() Type {
	switch c.Type {
	case native.SQLT_NUM:
		return native.SQLT_VNU
	case native.SQLT_RID, native.SQLT_RDD, native.SQLT_LNG:
		return native.SQLT_CHR
	}
	return c.Type
}

// DatabaseTypeName returns the Oracle SQL name of the column type
func (c Column) DatabaseTypeName() string {
	return TypeName(c.Type)
}

func readColumn(param *Descriptor, pos int, errh native.Handle) (Column, error) {
	r := &param.resource
	ty, err := getAttr[uint16](r, native.OCI_ATTR_DATA_TYPE, errh)
	if err != nil {
		return Column{}, err
	}
	name, err := getAttrString(r, native.OCI_ATTR_NAME, errh)
	if err != nil {
		return Column{}, err
	}
	size, err := getAttr[uint16](r, native.OCI_ATTR_DATA_SIZE, errh)
	if err != nil {
		return Column{}, err
	}
	precision, err := getAttr[int16](r, native.OCI_ATTR_PRECISION, errh)
	if err != nil {
		return Column{}, err
	}
	scale, err := getAttr[int8](r, native.OCI_ATTR_SCALE, errh)
	if err != nil {
		return Column{}, err
	}
	return Column{Pos: pos, Type: Type(ty), Name: name, Size: size, Precision: precision, Scale: scale}, nil
}

// Fetch buffer sizes for columns whose described size does not bound the fetched value
const (
	maxCharWidth = 4
	longBufSize  = 32768
	rowidBufSize = 128
)

func bufferSize(c Column) int {
	switch c.BindType() {
	case native.SQLT_VNU:
		return native.NumberSize
	case native.SQLT_DAT:
		return datSize
	case native.SQLT_BFLOAT, native.SQLT_IBFLOAT:
		return 4
	case native.SQLT_BDOUBLE, native.SQLT_IBDOUBLE:
		return 8
	}
	switch c.Type {
	case native.SQLT_LNG:
		return longBufSize
	case native.SQLT_RID, native.SQLT_RDD:
		return rowidBufSize
	case native.SQLT_CHR, native.SQLT_AFC:
		return max(int(c.Size)*maxCharWidth, 1)
	}
	return max(int(c.Size), 1)
}

// defineBuffer receives one column of the current row. Descriptor-backed columns
// keep the descriptor reference in ref and expose its bytes as the buffer.
type defineBuffer struct {
	col   Column
	ty    Type
	data  []byte
	desc  *Descriptor
	ref   native.Handle
	ind   int16
	rlen  uint16
	rcode uint16
}

// raw returns the fetched bytes of the current row
func (b *defineBuffer) raw() []byte {
	if b.desc != nil {
		return b.data
	}
	return b.data[:min(int(b.rlen), len(b.data))]
}

// RowSet iterates the rows of an executed query. It is single-pass; only one
// row set can be open per statement.
type RowSet struct {
	stmt   *Statement
	cols   []Column
	bufs   []*defineBuffer
	pinner runtime.Pinner
	row    int
	done   bool
	closed bool
}

func newRowSet(s *Statement, cols []Column) (_ *RowSet, err error) {
	rs := &RowSet{stmt: s, cols: cols, bufs: make([]*defineBuffer, len(cols))}
	defer func() {
		if err != nil {
			rs.release()
		}
	}()

	lib, errh := s.res.lib, s.conn.errh()
	for i, c := range cols {
		b := &defineBuffer{col: c, ty: c.BindType()}
		if kind, ok := b.ty.Descriptor(); ok {
			if b.desc, err = allocDescriptor(lib, s.conn.env.env, kind, errh); err != nil {
				return nil, fmt.Errorf("defining column %d: %w", i, err)
			}
			b.ref = b.desc.raw
			b.data = anyBytes(&b.ref)
		} else {
			b.data = make([]byte, bufferSize(c))
		}
		rs.bufs[i] = b
		rs.pinner.Pin(b)
		rs.pinner.Pin(&b.data[0])

		_, st := lib.DefineByPos(s.res.raw, errh, uint32(i+1), b.data, b.ty, &b.ind, &b.rlen, &b.rcode)
		if err = check(lib, st, errh, "OCIDefineByPos"); err != nil {
			return nil, fmt.Errorf("defining column %d (%s): %w", i, c.Name, err)
		}
	}
	return rs, nil
}

// Columns returns the select-list description
func (rs *RowSet) Columns() []Column {
	return rs.cols
}

// Next fetches the next row. At the end of the result it returns nil, nil, and keeps
// doing so on further calls. The returned row is valid until the next call to Next or Close.
func (rs *RowSet) Next() (*Row, error) {
	if rs.closed {
		return nil, ErrClosed
	}
	if rs.done {
		return nil, nil
	}
	s := rs.stmt
	lib, errh := s.res.lib, s.conn.errh()

	st := lib.StmtFetch2(s.res.raw, errh, 1, native.OCI_FETCH_NEXT, 0, native.OCI_DEFAULT)
	switch st {
	case native.OCI_SUCCESS:
		rs.row++
		return &Row{rs: rs, row: rs.row}, nil
	case native.OCI_SUCCESS_WITH_INFO:
		rs.row++
		infos := diagRecords(lib, errh, native.OCI_HTYPE_ERROR)
		logger().Debug().Int("row", rs.row).Interface("infos", infos).Msg("fetch returned info")
		return &Row{rs: rs, row: rs.row, infos: infos}, nil
	case native.OCI_NO_DATA:
		rs.done = true
		return nil, nil
	}

	err := decode(lib, st, errh)
	if IsFault(err, codeFetchOutOfSequence) {
		rs.done = true
		return nil, nil
	}
	return nil, fmt.Errorf("fetching row %d: %w", rs.row+1, err)
}

// All iterates the remaining rows. Iteration stops after the first error.
func (rs *RowSet) All() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := rs.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if row == nil || !yield(row, nil) {
				return
			}
		}
	}
}

func (rs *RowSet) release() {
	for _, b := range rs.bufs {
		if b != nil && b.desc != nil {
			b.desc.Close()
		}
	}
	rs.pinner.Unpin()
}

// Close frees the define buffers and makes the statement available for the next query
func (rs *RowSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.release()
	rs.closed, rs.done = true, true
	if rs.stmt.rowset == rs {
		rs.stmt.rowset = nil
	}
	return nil
}

// column resolves a 0-based index or a column name. Names match exactly first,
// then case-insensitively.
func (rs *RowSet) column(col any) (*defineBuffer, error) {
	switch c := col.(type) {
	case int:
		if c >= 0 && c < len(rs.bufs) {
			return rs.bufs[c], nil
		}
	case string:
		for _, b := range rs.bufs {
			if b.col.Name == c {
				return b, nil
			}
		}
		for _, b := range rs.bufs {
			if strings.EqualFold(b.col.Name, c) {
				return b, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidColumn, col)
}

// Row is the current row of a RowSet
type Row struct {
	rs    *RowSet
	row   int
	infos []Info
}

// Info returns the diagnostics the fetch of this row succeeded with, if any
func (r *Row) Info() []Info {
	return r.infos
}

func (r *Row) buffer(col any) (*defineBuffer, error) {
	if r.rs.closed || r.row != r.rs.row {
		return nil, fmt.Errorf("row %d is no longer current: %w", r.row, ErrClosed)
	}
	return r.rs.column(col)
}

// Get converts the column col into the variable dest points to.
// It returns false without touching dest when the value is NULL.
func (r *Row) Get(col any, dest any) (bool, error) {
	b, err := r.buffer(col)
	if err != nil {
		return false, err
	}
	if b.ind < 0 {
		return false, nil
	}
	if err := fromDB(b.ty, b.raw(), r.rs.stmt.conn, dest); err != nil {
		return false, fmt.Errorf("column %d (%s): %w", b.col.Pos, b.col.Name, err)
	}
	r.attach(dest)
	return true, nil
}

// Value returns the column converted to the natural Go type of its wire type, or nil for NULL
func (r *Row) Value(col any) (any, error) {
	b, err := r.buffer(col)
	if err != nil {
		return nil, err
	}
	if b.ind < 0 {
		return nil, nil
	}
	v, err := defaultValue(b.ty, b.raw(), r.rs.stmt.conn)
	if err != nil {
		return nil, fmt.Errorf("column %d (%s): %w", b.col.Pos, b.col.Name, err)
	}
	r.attach(v)
	return v, nil
}

// attach ties a LOB read from the define buffer to this row, so it stops working
// once the row set moves on
func (r *Row) attach(v any) {
	var loc *lobLocator
	switch x := v.(type) {
	case *Blob:
		loc = x.loc
	case *Clob:
		loc = x.loc
	case *BFile:
		loc = x.loc
	}
	if loc != nil && loc.desc == nil {
		loc.row = r
	}
}

// Get reads column col of row as a T. It returns nil for NULL.
func Get[T any](row *Row, col any) (*T, error) {
	v := new(T)
	ok, err := row.Get(col, v)
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}
