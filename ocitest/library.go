// Package ocitest provides an in-memory implementation of native.Native for tests.
//
// Library keeps a registry of every handle and descriptor it hands out, so tests can
// check that nothing leaked, and answers statements from results registered with
// Register. Oracle NUMBER values are encoded and decoded the way the client library does.
package ocitest

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/slingdata-io/goci/native"
)

// Record is one diagnostic record on an error handle
type Record struct {
	Code    int32
	Message string
}

// Fault is a status injected into the next call of an operation.
// A zero Status means OCI_ERROR.
type Fault struct {
	Status  native.Status
	Code    int32
	Message string
}

type handle struct {
	kind    native.HandleKind
	parent  native.Handle
	records []Record
	attrs   map[native.Attr][]byte
	refs    map[native.Attr]native.Handle

	attached bool
	begun    bool
	stmt     *statement
}

type descriptor struct {
	kind native.DescriptorKind

	column *Column
	value  any
	lob    *Lob
	file   *File
	open   bool
	// piecewise LOB stream position, 0-based
	pos       uint64
	streaming bool
}

// Library is a fake OCI client library. The zero value is not usable; use New.
type Library struct {
	mu sync.Mutex

	next        native.Handle
	handles     map[native.Handle]*handle
	descriptors map[native.Handle]*descriptor
	allocs      int
	frees       int

	faults     map[string][]Fault
	calls      []string
	results    map[string]*Result
	executions []Execution
	files      map[string][]byte
	users      map[string]string

	sessions   int
	commits    int
	rollbacks  int
	terminated bool

	// Client is reported by ClientVersion
	Client [5]int32
	// Release and Banner are reported by ServerRelease
	Release uint32
	Banner  string
}

var _ native.Native = (*Library)(nil)

// Default versions reported by a new Library: client 23.5.0.24.7, server 19.3.0.0.0
const (
	DefaultRelease = 19<<24 | 3<<20
	DefaultBanner  = "Oracle Database 19c Enterprise Edition Release 19.0.0.0.0 - Production"
)

// New returns an empty fake library
func New() *Library {
	return &Library{
		next:        0x1000,
		handles:     make(map[native.Handle]*handle),
		descriptors: make(map[native.Handle]*descriptor),
		faults:      make(map[string][]Fault),
		results:     make(map[string]*Result),
		files:       make(map[string][]byte),
		Client:      [5]int32{23, 5, 0, 24, 7},
		Release:     DefaultRelease,
		Banner:      DefaultBanner,
	}
}

// =============================================================================
// Test controls
// =============================================================================

// AddUser restricts RDBMS logins to the registered users. Without users every login succeeds.
func (l *Library) AddUser(username, password string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.users == nil {
		l.users = make(map[string]string)
	}
	l.users[strings.ToUpper(username)] = password
}

// Inject queues f for the next call of op, named after the Native method (e.g. "StmtExecute").
// The call returns the fault status without doing anything else.
func (l *Library) Inject(op string, f Fault) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults[op] = append(l.faults[op], f)
}

// FailNext makes the next call of op fail with ORA-code
func (l *Library) FailNext(op string, code int32, message string) {
	l.Inject(op, Fault{Status: native.OCI_ERROR, Code: code, Message: message})
}

// Calls returns the operations called so far, in order
func (l *Library) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// CallCount returns how often op was called
func (l *Library) CallCount(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Allocs returns the number of handles and descriptors allocated so far
func (l *Library) Allocs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allocs
}

// Frees returns the number of handles and descriptors freed so far
func (l *Library) Frees() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frees
}

// Live returns the number of handles and descriptors not yet freed
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles) + len(l.descriptors)
}

// Leaks describes every handle and descriptor not yet freed
func (l *Library) Leaks() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var leaks []string
	for h, v := range l.handles {
		leaks = append(leaks, fmt.Sprintf("%s handle %#x", v.kind, uintptr(h)))
	}
	for d, v := range l.descriptors {
		leaks = append(leaks, fmt.Sprintf("%s descriptor %#x", v.kind, uintptr(d)))
	}
	sort.Strings(leaks)
	return leaks
}

// Sessions returns the number of sessions begun and not ended
func (l *Library) Sessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessions
}

// Commits returns the number of commits
func (l *Library) Commits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commits
}

// Rollbacks returns the number of rollbacks
func (l *Library) Rollbacks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rollbacks
}

// Terminated reports whether Terminate was called
func (l *Library) Terminated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terminated
}

// =============================================================================
// Internals
// =============================================================================

// enter records the call, clears the error handle and applies an injected fault.
// It returns true when the call must return the status right away.
func (l *Library) enter(op string, errh native.Handle) (native.Status, bool) {
	l.calls = append(l.calls, op)
	if h := l.handles[errh]; h != nil {
		h.records = nil
	}
	queue := l.faults[op]
	if len(queue) == 0 {
		return native.OCI_SUCCESS, false
	}
	f := queue[0]
	l.faults[op] = queue[1:]
	st := f.Status
	if st == 0 {
		st = native.OCI_ERROR
	}
	if f.Code != 0 {
		l.setRecords(errh, Record{Code: f.Code, Message: f.Message})
	}
	return st, true
}

func (l *Library) setRecords(errh native.Handle, records ...Record) {
	h := l.handles[errh]
	if h == nil {
		return
	}
	h.records = make([]Record, len(records))
	for i, r := range records {
		h.records[i] = Record{Code: r.Code, Message: fmt.Sprintf("ORA-%05d: %s\n", r.Code, r.Message)}
	}
}

// fail sets ORA-code on the error handle and returns OCI_ERROR
func (l *Library) fail(errh native.Handle, code int32, format string, args ...any) native.Status {
	l.setRecords(errh, Record{Code: code, Message: fmt.Sprintf(format, args...)})
	return native.OCI_ERROR
}

func (l *Library) newHandle(kind native.HandleKind, parent native.Handle) native.Handle {
	l.next += 0x10
	l.handles[l.next] = &handle{
		kind:   kind,
		parent: parent,
		attrs:  make(map[native.Attr][]byte),
		refs:   make(map[native.Attr]native.Handle),
	}
	l.allocs++
	return l.next
}

func (l *Library) newDescriptor(kind native.DescriptorKind) native.Handle {
	l.next += 0x10
	l.descriptors[l.next] = &descriptor{kind: kind}
	l.allocs++
	return l.next
}

func (l *Library) handleOf(h native.Handle, kind native.HandleKind) *handle {
	v := l.handles[h]
	if v == nil || v.kind != kind {
		return nil
	}
	return v
}

// session returns the session attached to a service context, or nil
func (l *Library) session(svc native.Handle) *handle {
	s := l.handleOf(svc, native.OCI_HTYPE_SVCCTX)
	if s == nil {
		return nil
	}
	sess := l.handleOf(s.refs[native.OCI_ATTR_SESSION], native.OCI_HTYPE_SESSION)
	if sess == nil || !sess.begun {
		return nil
	}
	return sess
}

func putInt(dst []byte, v int64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.NativeEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.NativeEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.NativeEndian.PutUint64(dst, uint64(v))
	}
}

func getInt(src []byte, signed bool) (int64, uint64) {
	var u uint64
	switch len(src) {
	case 1:
		u = uint64(src[0])
		if signed {
			return int64(int8(src[0])), u
		}
	case 2:
		u = uint64(binary.NativeEndian.Uint16(src))
		if signed {
			return int64(int16(u)), u
		}
	case 4:
		u = uint64(binary.NativeEndian.Uint32(src))
		if signed {
			return int64(int32(u)), u
		}
	case 8:
		u = binary.NativeEndian.Uint64(src)
	}
	return int64(u), u
}

func handleFromBytes(b []byte) native.Handle {
	if len(b) != native.PointerSize {
		return 0
	}
	if native.PointerSize == 8 {
		return native.Handle(binary.NativeEndian.Uint64(b))
	}
	return native.Handle(binary.NativeEndian.Uint32(b))
}

// =============================================================================
// Environment, handles and descriptors
// =============================================================================

// EnvNlsCreate creates an environment. Zero character set ids mean AL32UTF8 and AL16UTF16.
func (l *Library) EnvNlsCreate(mode uint32, charset, ncharset uint16) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("EnvNlsCreate", 0); ok {
		return 0, st
	}
	if l.terminated {
		return 0, native.OCI_ERROR
	}
	if charset == 0 {
		charset = 873
	}
	if ncharset == 0 {
		ncharset = 2000
	}
	h := l.newHandle(native.OCI_HTYPE_ENV, 0)
	env := l.handles[h]
	env.attrs[native.OCI_ATTR_ENV_CHARSET_ID] = binary.NativeEndian.AppendUint16(nil, charset)
	env.attrs[native.OCI_ATTR_ENV_NCHARSET_ID] = binary.NativeEndian.AppendUint16(nil, ncharset)
	return h, native.OCI_SUCCESS
}

func (l *Library) Terminate(mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("Terminate", 0); ok {
		return st
	}
	l.terminated = true
	return native.OCI_SUCCESS
}

func (l *Library) HandleAlloc(parent native.Handle, kind native.HandleKind) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("HandleAlloc", 0); ok {
		return 0, st
	}
	if l.handleOf(parent, native.OCI_HTYPE_ENV) == nil {
		return 0, native.OCI_INVALID_HANDLE
	}
	return l.newHandle(kind, parent), native.OCI_SUCCESS
}

func (l *Library) HandleFree(h native.Handle, kind native.HandleKind) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("HandleFree", 0); ok {
		return st
	}
	if l.handleOf(h, kind) == nil {
		return native.OCI_INVALID_HANDLE
	}
	delete(l.handles, h)
	l.frees++
	return native.OCI_SUCCESS
}

func (l *Library) DescriptorAlloc(env native.Handle, kind native.DescriptorKind) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("DescriptorAlloc", 0); ok {
		return 0, st
	}
	if l.handleOf(env, native.OCI_HTYPE_ENV) == nil {
		return 0, native.OCI_INVALID_HANDLE
	}
	return l.newDescriptor(kind), native.OCI_SUCCESS
}

func (l *Library) DescriptorFree(d native.Handle, kind native.DescriptorKind) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("DescriptorFree", 0); ok {
		return st
	}
	v := l.descriptors[d]
	if v == nil || v.kind != kind {
		return native.OCI_INVALID_HANDLE
	}
	delete(l.descriptors, d)
	l.frees++
	return native.OCI_SUCCESS
}

// =============================================================================
// Attributes and diagnostics
// =============================================================================

func (l *Library) AttrGet(target native.Handle, targetType uint32, attr native.Attr, value []byte, errh native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("AttrGet", errh); ok {
		return st
	}

	if d := l.descriptors[target]; d != nil && uint32(d.kind) == targetType {
		if d.kind != native.OCI_DTYPE_PARAM || d.column == nil {
			return l.fail(errh, 24315, "illegal attribute type")
		}
		c := d.column
		switch attr {
		case native.OCI_ATTR_DATA_TYPE:
			putInt(value, int64(c.Type))
		case native.OCI_ATTR_DATA_SIZE:
			putInt(value, int64(c.size()))
		case native.OCI_ATTR_PRECISION:
			putInt(value, int64(c.Precision))
		case native.OCI_ATTR_SCALE:
			putInt(value, int64(c.Scale))
		default:
			return l.fail(errh, 24315, "illegal attribute type")
		}
		return native.OCI_SUCCESS
	}

	h := l.handles[target]
	if h == nil || uint32(h.kind) != targetType {
		return native.OCI_INVALID_HANDLE
	}
	if h.stmt != nil {
		s := h.stmt
		switch attr {
		case native.OCI_ATTR_STMT_TYPE:
			putInt(value, int64(s.stmtType()))
			return native.OCI_SUCCESS
		case native.OCI_ATTR_ROW_COUNT:
			putInt(value, int64(s.rowCount))
			return native.OCI_SUCCESS
		case native.OCI_ATTR_PARAM_COUNT:
			if !s.executed {
				return l.fail(errh, 24338, "statement handle not executed")
			}
			putInt(value, int64(len(s.result.Columns)))
			return native.OCI_SUCCESS
		}
	}
	v, ok := h.attrs[attr]
	if !ok {
		return l.fail(errh, 24315, "illegal attribute type")
	}
	copy(value, v)
	return native.OCI_SUCCESS
}

func (l *Library) AttrGetText(target native.Handle, targetType uint32, attr native.Attr, errh native.Handle) (string, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("AttrGetText", errh); ok {
		return "", st
	}
	if d := l.descriptors[target]; d != nil && uint32(d.kind) == targetType {
		if d.column != nil && attr == native.OCI_ATTR_NAME {
			return d.column.Name, native.OCI_SUCCESS
		}
		return "", l.fail(errh, 24315, "illegal attribute type")
	}
	h := l.handles[target]
	if h == nil || uint32(h.kind) != targetType {
		return "", native.OCI_INVALID_HANDLE
	}
	v, ok := h.attrs[attr]
	if !ok {
		return "", l.fail(errh, 24315, "illegal attribute type")
	}
	return string(v), native.OCI_SUCCESS
}

func (l *Library) AttrSet(target native.Handle, targetType uint32, attr native.Attr, value []byte, errh native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("AttrSet", errh); ok {
		return st
	}
	h := l.handles[target]
	if h == nil || uint32(h.kind) != targetType {
		return native.OCI_INVALID_HANDLE
	}
	h.attrs[attr] = append([]byte(nil), value...)
	return native.OCI_SUCCESS
}

func (l *Library) AttrSetHandle(target native.Handle, targetType uint32, attr native.Attr, value native.Handle, errh native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("AttrSetHandle", errh); ok {
		return st
	}
	h := l.handles[target]
	if h == nil || uint32(h.kind) != targetType || l.handles[value] == nil {
		return native.OCI_INVALID_HANDLE
	}
	h.refs[attr] = value
	return native.OCI_SUCCESS
}

// ParamGet returns a parameter descriptor for a column of an executed query
func (l *Library) ParamGet(target native.Handle, targetType uint32, errh native.Handle, pos uint32) (native.Handle, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("ParamGet", errh); ok {
		return 0, st
	}
	h := l.handles[target]
	if h == nil || h.stmt == nil || uint32(h.kind) != targetType {
		return 0, native.OCI_INVALID_HANDLE
	}
	s := h.stmt
	if !s.executed {
		return 0, l.fail(errh, 24338, "statement handle not executed")
	}
	if pos < 1 || int(pos) > len(s.result.Columns) {
		return 0, l.fail(errh, 24334, "no descriptor for this position")
	}
	d := l.newDescriptor(native.OCI_DTYPE_PARAM)
	col := s.result.Columns[pos-1]
	l.descriptors[d].column = &col
	return d, native.OCI_SUCCESS
}

// ErrorGet reads a record set by the last failing call on the handle
func (l *Library) ErrorGet(h native.Handle, record uint32, kind native.HandleKind) (int32, string, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.handleOf(h, kind)
	if v == nil {
		return 0, "", native.OCI_INVALID_HANDLE
	}
	if record < 1 || int(record) > len(v.records) {
		return 0, "", native.OCI_NO_DATA
	}
	r := v.records[record-1]
	return r.Code, r.Message, native.OCI_SUCCESS
}

// =============================================================================
// Server and session
// =============================================================================

func (l *Library) ServerAttach(srv, errh native.Handle, dblink string, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("ServerAttach", errh); ok {
		return st
	}
	s := l.handleOf(srv, native.OCI_HTYPE_SERVER)
	if s == nil {
		return native.OCI_INVALID_HANDLE
	}
	if s.attached {
		return l.fail(errh, 24309, "already connected to a server")
	}
	s.attached = true
	s.attrs[native.OCI_ATTR_SERVER] = []byte(dblink)
	return native.OCI_SUCCESS
}

func (l *Library) ServerDetach(srv, errh native.Handle, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("ServerDetach", errh); ok {
		return st
	}
	s := l.handleOf(srv, native.OCI_HTYPE_SERVER)
	if s == nil {
		return native.OCI_INVALID_HANDLE
	}
	if !s.attached {
		return l.fail(errh, 24327, "need explicit attach before authenticating a user")
	}
	s.attached = false
	return native.OCI_SUCCESS
}

func (l *Library) SessionBegin(svc, errh, session native.Handle, credentials uint32, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("SessionBegin", errh); ok {
		return st
	}
	s := l.handleOf(svc, native.OCI_HTYPE_SVCCTX)
	sess := l.handleOf(session, native.OCI_HTYPE_SESSION)
	if s == nil || sess == nil {
		return native.OCI_INVALID_HANDLE
	}
	srv := l.handleOf(s.refs[native.OCI_ATTR_SERVER], native.OCI_HTYPE_SERVER)
	if srv == nil || !srv.attached {
		return l.fail(errh, 24327, "need explicit attach before authenticating a user")
	}

	switch credentials {
	case native.OCI_CRED_RDBMS:
		user := string(sess.attrs[native.OCI_ATTR_USERNAME])
		pass := string(sess.attrs[native.OCI_ATTR_PASSWORD])
		if user == "" {
			return l.fail(errh, 1017, "invalid username/password; logon denied")
		}
		if l.users != nil {
			if want, ok := l.users[strings.ToUpper(user)]; !ok || want != pass {
				return l.fail(errh, 1017, "invalid username/password; logon denied")
			}
		}
	case native.OCI_CRED_EXT:
	default:
		return l.fail(errh, 24300, "bad value for mode")
	}
	sess.begun = true
	l.sessions++
	return native.OCI_SUCCESS
}

func (l *Library) SessionEnd(svc, errh, session native.Handle, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("SessionEnd", errh); ok {
		return st
	}
	sess := l.handleOf(session, native.OCI_HTYPE_SESSION)
	if sess == nil || l.handleOf(svc, native.OCI_HTYPE_SVCCTX) == nil {
		return native.OCI_INVALID_HANDLE
	}
	if !sess.begun {
		return l.fail(errh, 1012, "not logged on")
	}
	sess.begun = false
	l.sessions--
	return native.OCI_SUCCESS
}

func (l *Library) ServerRelease(h, errh native.Handle, kind native.HandleKind) (string, uint32, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("ServerRelease", errh); ok {
		return "", 0, st
	}
	if l.handleOf(h, kind) == nil {
		return "", 0, native.OCI_INVALID_HANDLE
	}
	if kind == native.OCI_HTYPE_SVCCTX && l.session(h) == nil {
		return "", 0, l.fail(errh, 3114, "not connected to ORACLE")
	}
	return l.Banner, l.Release, native.OCI_SUCCESS
}

func (l *Library) ClientVersion() (major, minor, update, patch, portUpdate int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.Client
	return c[0], c[1], c[2], c[3], c[4]
}

func (l *Library) Ping(svc, errh native.Handle, mode uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("Ping", errh); ok {
		return st
	}
	if l.session(svc) == nil {
		return l.fail(errh, 3114, "not connected to ORACLE")
	}
	return native.OCI_SUCCESS
}

// Break ends every piecewise LOB operation in progress
func (l *Library) Break(h, errh native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("Break", errh); ok {
		return st
	}
	for _, d := range l.descriptors {
		d.streaming = false
	}
	return native.OCI_SUCCESS
}

func (l *Library) Reset(h, errh native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("Reset", errh); ok {
		return st
	}
	return native.OCI_SUCCESS
}

func (l *Library) TransCommit(svc, errh native.Handle, flags uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("TransCommit", errh); ok {
		return st
	}
	if l.session(svc) == nil {
		return l.fail(errh, 3114, "not connected to ORACLE")
	}
	l.commits++
	return native.OCI_SUCCESS
}

func (l *Library) TransRollback(svc, errh native.Handle, flags uint32) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("TransRollback", errh); ok {
		return st
	}
	if l.session(svc) == nil {
		return l.fail(errh, 3114, "not connected to ORACLE")
	}
	l.rollbacks++
	return native.OCI_SUCCESS
}
