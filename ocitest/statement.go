package ocitest

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slingdata-io/goci/native"
)

// Column describes a select-list item of a registered query
type Column struct {
	Name      string
	Type      native.Type
	Size      uint16
	Precision int16
	Scale     int8
}

// size is the described byte size; zero means the default size of the type
func (c Column) size() uint16 {
	if c.Size > 0 {
		return c.Size
	}
	switch c.Type {
	case native.SQLT_NUM, native.SQLT_VNU:
		return native.NumberSize
	case native.SQLT_DAT:
		return 7
	case native.SQLT_BFLOAT, native.SQLT_IBFLOAT:
		return 4
	case native.SQLT_BDOUBLE, native.SQLT_IBDOUBLE, native.SQLT_INT, native.SQLT_UIN:
		return 8
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_BIN:
		return 4000
	}
	return 86
}

// Result is what a statement produces when executed.
//
// Row values are converted to the define type of their column: integers, floats, decimals
// and numeric strings for NUMBER; strings and byte slices for text and RAW; time.Time for
// DATE and TIMESTAMP; time.Duration for INTERVAL DAY TO SECOND; YearMonth for
// INTERVAL YEAR TO MONTH; byte slices, strings or *Lob for LOBs and File for BFILE.
// A nil value is NULL.
type Result struct {
	Columns []Column
	Rows    [][]any
	// RowCount is reported for statements that return no rows
	RowCount uint64
	// RowInfo makes the fetch of the 0-based row succeed with info records
	RowInfo map[int][]Record
	// Err makes the execution fail
	Err *Record
}

// Execution is a statement execution with the values bound at that time
type Execution struct {
	SQL    string
	Iters  uint32
	ByPos  map[int]any
	ByName map[string]any
}

type bind struct {
	value []byte
	ty    native.Type
	ind   *int16
}

type define struct {
	value []byte
	ty    native.Type
	ind   *int16
	rlen  *uint16
	rcode *uint16
}

type statement struct {
	sql    string
	key    string
	result *Result
	byPos  map[uint32]bind
	byName map[string]bind
	define map[uint32]define

	executed bool
	query    bool
	next     int
	noData   bool
	rowCount uint64
}

// normalize folds case and whitespace so registered SQL matches what is prepared
func normalize(sql string) string {
	return strings.Join(strings.Fields(strings.ToLower(sql)), " ")
}

var statementKinds = map[string]uint16{
	"select":  native.OCI_STMT_SELECT,
	"with":    native.OCI_STMT_SELECT,
	"update":  native.OCI_STMT_UPDATE,
	"delete":  native.OCI_STMT_DELETE,
	"insert":  native.OCI_STMT_INSERT,
	"create":  native.OCI_STMT_CREATE,
	"drop":    native.OCI_STMT_DROP,
	"alter":   native.OCI_STMT_ALTER,
	"begin":   native.OCI_STMT_BEGIN,
	"declare": native.OCI_STMT_DECLARE,
	"call":    native.OCI_STMT_CALL,
	"merge":   native.OCI_STMT_MERGE,
}

func (s *statement) stmtType() uint16 {
	fields := strings.Fields(strings.ToLower(s.sql))
	if len(fields) == 0 {
		return native.OCI_STMT_UNKNOWN
	}
	word := strings.TrimLeft(fields[0], "(")
	return statementKinds[word]
}

// DualQuery is answered without registration
const DualQuery = "select 1 from dual"

// Register sets the result of every statement whose text matches sql, ignoring case and
// whitespace differences
func (l *Library) Register(sql string, r Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[normalize(sql)] = &r
}

// Executions returns the executions so far, in order
func (l *Library) Executions() []Execution {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Execution(nil), l.executions...)
}

func (l *Library) lookup(sql string) (*Result, bool) {
	key := normalize(sql)
	if r, ok := l.results[key]; ok {
		return r, true
	}
	if key == DualQuery {
		return &Result{
			Columns: []Column{{Name: "1", Type: native.SQLT_NUM, Scale: -127}},
			Rows:    [][]any{{1}},
		}, true
	}
	return &Result{}, false
}

func (l *Library) stmtHandle(h native.Handle) *statement {
	v := l.handleOf(h, native.OCI_HTYPE_STMT)
	if v == nil {
		return nil
	}
	return v.stmt
}

// =============================================================================
// Prepare, bind, execute
// =============================================================================

func (l *Library) StmtPrepare2(svc, errh native.Handle, sql, key string, syntax, mode uint32) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("StmtPrepare2", errh); ok {
		return 0, st
	}
	if l.session(svc) == nil {
		return 0, l.fail(errh, 3114, "not connected to ORACLE")
	}
	if strings.TrimSpace(sql) == "" {
		return 0, l.fail(errh, 900, "invalid SQL statement")
	}
	h := l.newHandle(native.OCI_HTYPE_STMT, svc)
	l.handles[h].stmt = &statement{
		sql:    sql,
		key:    key,
		byPos:  make(map[uint32]bind),
		byName: make(map[string]bind),
		define: make(map[uint32]define),
	}
	return h, native.OCI_SUCCESS
}

func (l *Library) StmtRelease(stmt, errh native.Handle, key string, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("StmtRelease", errh); ok {
		return st
	}
	if l.stmtHandle(stmt) == nil {
		return native.OCI_INVALID_HANDLE
	}
	delete(l.handles, stmt)
	l.frees++
	return native.OCI_SUCCESS
}

func placeholderName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, ":"))
}

func (l *Library) BindByPos(stmt, errh native.Handle, pos uint32, value []byte, ty native.Type, ind *int16) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("BindByPos", errh); ok {
		return 0, st
	}
	s := l.stmtHandle(stmt)
	if s == nil {
		return 0, native.OCI_INVALID_HANDLE
	}
	if pos == 0 || !strings.Contains(s.sql, ":") {
		return 0, l.fail(errh, 1036, "illegal variable name/number")
	}
	s.byPos[pos] = bind{value: value, ty: ty, ind: ind}
	return stmt + native.Handle(pos), native.OCI_SUCCESS
}

func (l *Library) BindByName(stmt, errh native.Handle, name string, value []byte, ty native.Type, ind *int16) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("BindByName", errh); ok {
		return 0, st
	}
	s := l.stmtHandle(stmt)
	if s == nil {
		return 0, native.OCI_INVALID_HANDLE
	}
	n := placeholderName(name)
	if n == "" || !strings.Contains(strings.ToLower(s.sql), ":"+n) {
		return 0, l.fail(errh, 1036, "illegal variable name/number")
	}
	s.byName[n] = bind{value: value, ty: ty, ind: ind}
	return stmt + 1, native.OCI_SUCCESS
}

func (l *Library) DefineByPos(stmt, errh native.Handle, pos uint32, value []byte, ty native.Type, ind *int16, rlen, rcode *uint16) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("DefineByPos", errh); ok {
		return 0, st
	}
	s := l.stmtHandle(stmt)
	if s == nil {
		return 0, native.OCI_INVALID_HANDLE
	}
	if !s.executed || !s.query || pos == 0 || int(pos) > len(s.result.Columns) {
		return 0, l.fail(errh, 1007, "variable not in select list")
	}
	s.define[pos] = define{value: value, ty: ty, ind: ind, rlen: rlen, rcode: rcode}
	return stmt + native.Handle(pos), native.OCI_SUCCESS
}

func (l *Library) StmtExecute(svc, stmt, errh native.Handle, iters, rowoff, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("StmtExecute", errh); ok {
		return st
	}
	s := l.stmtHandle(stmt)
	if s == nil {
		return native.OCI_INVALID_HANDLE
	}
	if l.session(svc) == nil {
		return l.fail(errh, 3114, "not connected to ORACLE")
	}

	query := s.stmtType() == native.OCI_STMT_SELECT
	if !query && iters == 0 {
		return l.fail(errh, 24333, "zero iteration count")
	}
	result, ok := l.lookup(s.sql)
	if query && !ok {
		return l.fail(errh, 942, "table or view does not exist")
	}
	if result.Err != nil {
		return l.fail(errh, result.Err.Code, "%s", result.Err.Message)
	}
	if query && iters > 0 && len(s.define) == 0 {
		return l.fail(errh, 24374, "define not done before fetch or execute and fetch")
	}

	l.executions = append(l.executions, l.capture(s, iters))
	s.result, s.executed, s.query = result, true, query
	s.next, s.noData = 0, false
	s.rowCount = 0
	if !query {
		s.rowCount = result.RowCount
	}
	return native.OCI_SUCCESS
}

// capture decodes the bound values
func (l *Library) capture(s *statement, iters uint32) Execution {
	e := Execution{SQL: s.sql, Iters: iters, ByPos: make(map[int]any), ByName: make(map[string]any)}
	for pos, b := range s.byPos {
		e.ByPos[int(pos)] = l.bound(b)
	}
	for name, b := range s.byName {
		e.ByName[name] = l.bound(b)
	}
	return e
}

func (l *Library) bound(b bind) any {
	if b.ind != nil && *b.ind < 0 {
		return nil
	}
	v := b.value
	switch b.ty {
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_STR:
		return string(v)
	case native.SQLT_BIN, native.SQLT_LBI:
		return append([]byte(nil), v...)
	case native.SQLT_INT:
		i, _ := getInt(v, true)
		return i
	case native.SQLT_UIN:
		_, u := getInt(v, false)
		return u
	case native.SQLT_BFLOAT:
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(v)))
	case native.SQLT_BDOUBLE:
		return math.Float64frombits(binary.NativeEndian.Uint64(v))
	case native.SQLT_VNU:
		var num native.Number
		copy(num[:], v)
		if d, err := decodeNumber(&num); err == nil {
			return d
		}
		return append([]byte(nil), v...)
	case native.SQLT_DAT:
		if t, ok := decodeDat(v); ok {
			return t
		}
	case native.SQLT_BLOB, native.SQLT_CLOB, native.SQLT_BFILEE, native.SQLT_CFILEE:
		if d := l.descriptors[handleFromBytes(v)]; d != nil {
			if d.lob != nil {
				return d.lob
			}
			if d.file != nil {
				return *d.file
			}
		}
	}
	return append([]byte(nil), v...)
}

// =============================================================================
// Fetch
// =============================================================================

func (l *Library) StmtFetch2(stmt, errh native.Handle, nrows uint32, orientation uint16, offset int32, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("StmtFetch2", errh); ok {
		return st
	}
	s := l.stmtHandle(stmt)
	if s == nil {
		return native.OCI_INVALID_HANDLE
	}
	if !s.executed {
		return l.fail(errh, 24338, "statement handle not executed")
	}
	if !s.query {
		return l.fail(errh, 24374, "define not done before fetch or execute and fetch")
	}
	if orientation != native.OCI_FETCH_NEXT || nrows != 1 {
		return l.fail(errh, 24391, "invalid fetch operation")
	}
	if s.next >= len(s.result.Rows) {
		if !s.noData {
			s.noData = true
			return native.OCI_NO_DATA
		}
		return l.fail(errh, 1002, "fetch out of sequence")
	}

	row := s.result.Rows[s.next]
	for i, col := range s.result.Columns {
		def, ok := s.define[uint32(i+1)]
		if !ok {
			return l.fail(errh, 24374, "define not done before fetch or execute and fetch")
		}
		var v any
		if i < len(row) {
			v = row[i]
		}
		if err := l.fill(def, col, v); err != nil {
			return l.fail(errh, 932, "inconsistent datatypes: %v", err)
		}
	}
	s.next++
	s.rowCount++

	if infos := s.result.RowInfo[s.next-1]; len(infos) > 0 {
		l.setRecords(errh, infos...)
		return native.OCI_SUCCESS_WITH_INFO
	}
	return native.OCI_SUCCESS
}

// fill writes v into a define buffer in the wire format of the define type
func (l *Library) fill(def define, col Column, v any) error {
	setLen := func(n int) {
		if def.rlen != nil {
			*def.rlen = uint16(n)
		}
	}
	if def.rcode != nil {
		*def.rcode = 0
	}
	if v == nil {
		if def.ind != nil {
			*def.ind = -1
		}
		setLen(0)
		return nil
	}
	if def.ind != nil {
		*def.ind = 0
	}

	buf := def.value
	switch def.ty {
	case native.SQLT_CHR, native.SQLT_AFC, native.SQLT_BIN:
		var data []byte
		switch x := v.(type) {
		case string:
			data = []byte(x)
		case []byte:
			data = x
		case time.Time:
			data = []byte(x.Format("2006-01-02 15:04:05"))
		default:
			data = []byte(fmt.Sprint(x))
		}
		n := copy(buf, data)
		if n < len(data) && def.rcode != nil {
			*def.rcode = 1406
		}
		setLen(n)
	case native.SQLT_VNU:
		d, err := toDecimal(v)
		if err != nil {
			return err
		}
		num := encodeNumber(d)
		copy(buf, num[:])
		setLen(native.NumberSize)
	case native.SQLT_INT, native.SQLT_UIN:
		d, err := toDecimal(v)
		if err != nil {
			return err
		}
		putInt(buf, d.IntPart())
		setLen(len(buf))
	case native.SQLT_BFLOAT, native.SQLT_IBFLOAT:
		d, err := toDecimal(v)
		if err != nil {
			return err
		}
		f, _ := d.Float64()
		binary.NativeEndian.PutUint32(buf, math.Float32bits(float32(f)))
		setLen(4)
	case native.SQLT_BDOUBLE, native.SQLT_IBDOUBLE:
		d, err := toDecimal(v)
		if err != nil {
			return err
		}
		f, _ := d.Float64()
		binary.NativeEndian.PutUint64(buf, math.Float64bits(f))
		setLen(8)
	case native.SQLT_DAT:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("%T is not a date", v)
		}
		copy(buf, encodeDat(t))
		setLen(7)
	default:
		kind, ok := def.ty.Descriptor()
		if !ok {
			return fmt.Errorf("unsupported define type %s", def.ty)
		}
		d := l.descriptors[handleFromBytes(buf)]
		if d == nil || d.kind != kind {
			return fmt.Errorf("no %s descriptor in define buffer", kind)
		}
		if err := l.setDescriptor(d, col, v); err != nil {
			return err
		}
		setLen(native.PointerSize)
	}
	return nil
}

// setDescriptor stores v as the value a descriptor refers to
func (l *Library) setDescriptor(d *descriptor, col Column, v any) error {
	switch d.kind {
	case native.OCI_DTYPE_LOB:
		switch x := v.(type) {
		case *Lob:
			d.lob = x
		case []byte:
			d.lob = &Lob{Data: append([]byte(nil), x...), Character: col.Type == native.SQLT_CLOB}
		case string:
			d.lob = &Lob{Data: []byte(x), Character: true}
		default:
			return fmt.Errorf("%T is not a LOB", v)
		}
	case native.OCI_DTYPE_FILE:
		f, ok := v.(File)
		if !ok {
			return fmt.Errorf("%T is not a file", v)
		}
		d.file = &f
	case native.OCI_DTYPE_INTERVAL_DS:
		if _, ok := v.(time.Duration); !ok {
			return fmt.Errorf("%T is not a day to second interval", v)
		}
		d.value = v
	case native.OCI_DTYPE_INTERVAL_YM:
		if _, ok := v.(YearMonth); !ok {
			return fmt.Errorf("%T is not a year to month interval", v)
		}
		d.value = v
	default:
		if _, ok := v.(time.Time); !ok {
			return fmt.Errorf("%T is not a timestamp", v)
		}
		d.value = v
	}
	return nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return decimal.NewFromString(fmt.Sprint(x))
	case uint8:
		return decimal.NewFromInt(int64(x)), nil
	case uint16:
		return decimal.NewFromInt(int64(x)), nil
	case uint32:
		return decimal.NewFromInt(int64(x)), nil
	case uint64:
		return decimal.NewFromString(fmt.Sprint(x))
	case float32:
		return decimal.NewFromFloat32(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case bool:
		if x {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case string:
		return decimal.NewFromString(x)
	}
	return decimal.Decimal{}, fmt.Errorf("%T is not a number", v)
}
