package oci

import (
	"errors"
	"fmt"
	"io"

	"github.com/slingdata-io/goci/native"
)

// OpenMode is the access mode of an opened LOB
type OpenMode = native.LobOpenMode

const (
	OpenReadOnly      = native.OCI_LOB_READONLY
	OpenReadWrite     = native.OCI_LOB_READWRITE
	OpenWriteOnly     = native.OCI_LOB_WRITEONLY
	OpenAppendOnly    = native.OCI_LOB_APPENDONLY
	OpenFullOverwrite = native.OCI_LOB_FULLOVERWRITE
)

// lobLocator is the implementation shared by Blob, Clob and BFile.
// A locator read from a row is borrowed from the row set's define buffer and stays valid
// until the row set advances or closes; temporary and file locators own their descriptor.
type lobLocator struct {
	conn      *Connection
	desc      *Descriptor
	raw       native.Handle
	temporary bool
	csid      uint16
	form      native.CharsetForm
	// row is set for borrowed locators
	row *Row
}

func borrowLocator(conn *Connection, raw native.Handle, form native.CharsetForm) *lobLocator {
	return &lobLocator{conn: conn, raw: raw, form: form}
}

func newLocator(conn *Connection, kind native.DescriptorKind) (*lobLocator, error) {
	if conn.closed() {
		return nil, ErrClosed
	}
	desc, err := allocDescriptor(conn.lib, conn.env.env, kind, conn.errh())
	if err != nil {
		return nil, err
	}
	return &lobLocator{conn: conn, desc: desc, raw: desc.raw, form: native.SQLCS_IMPLICIT}, nil
}

func (l *lobLocator) ready() error {
	if l.raw == 0 || l.conn.closed() {
		return ErrClosed
	}
	if r := l.row; r != nil && (r.rs.closed || r.row != r.rs.row) {
		return fmt.Errorf("LOB of row %d is no longer current: %w", r.row, ErrClosed)
	}
	return nil
}

func (l *lobLocator) check(st native.Status, op string) error {
	return check(l.conn.lib, st, l.conn.errh(), op)
}

func (l *lobLocator) args() (native.Native, native.Handle, native.Handle) {
	return l.conn.lib, l.conn.svc.raw, l.conn.errh()
}

func (l *lobLocator) length() (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	lib, svc, errh := l.args()
	n, st := lib.LobGetLength(svc, errh, l.raw)
	return n, l.check(st, "OCILobGetLength2")
}

func (l *lobLocator) capacity() (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	lib, svc, errh := l.args()
	n, st := lib.LobGetStorageLimit(svc, errh, l.raw)
	return n, l.check(st, "OCILobGetStorageLimit")
}

func (l *lobLocator) chunkSize() (uint32, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	lib, svc, errh := l.args()
	n, st := lib.LobGetChunkSize(svc, errh, l.raw)
	return n, l.check(st, "OCILobGetChunkSize")
}

func (l *lobLocator) trim(length uint64) error {
	if err := l.ready(); err != nil {
		return err
	}
	lib, svc, errh := l.args()
	return l.check(lib.LobTrim(svc, errh, l.raw, length), "OCILobTrim2")
}

func (l *lobLocator) erase(offset, count uint64) (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	lib, svc, errh := l.args()
	n, st := lib.LobErase(svc, errh, l.raw, count, offset+1)
	return n, l.check(st, "OCILobErase2")
}

func (l *lobLocator) open(mode OpenMode) error {
	if err := l.ready(); err != nil {
		return err
	}
	lib, svc, errh := l.args()
	return l.check(lib.LobOpen(svc, errh, l.raw, mode), "OCILobOpen")
}

func (l *lobLocator) close() error {
	if err := l.ready(); err != nil {
		return err
	}
	lib, svc, errh := l.args()
	return l.check(lib.LobClose(svc, errh, l.raw), "OCILobClose")
}

func (l *lobLocator) isOpen() (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	lib, svc, errh := l.args()
	open, st := lib.LobIsOpen(svc, errh, l.raw)
	return open, l.check(st, "OCILobIsOpen")
}

func (l *lobLocator) isTemporary() (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	lib, errh := l.conn.lib, l.conn.errh()
	temp, st := lib.LobIsTemporary(l.conn.env.env.raw, errh, l.raw)
	return temp, l.check(st, "OCILobIsTemporary")
}

func (l *lobLocator) createTemporary(ty native.LobType) error {
	lib, svc, errh := l.args()
	st := lib.LobCreateTemporary(svc, errh, l.raw, 0, native.SQLCS_IMPLICIT, ty, true, native.OCI_DURATION_SESSION)
	if err := l.check(st, "OCILobCreateTemporary"); err != nil {
		return err
	}
	l.temporary = true
	l.conn.temps[l] = struct{}{}
	return nil
}

func (l *lobLocator) freeTemporary() error {
	if !l.temporary {
		return nil
	}
	l.temporary = false
	delete(l.conn.temps, l)
	lib, svc, errh := l.args()
	return l.check(lib.LobFreeTemporary(svc, errh, l.raw), "OCILobFreeTemporary")
}

// free releases the temporary LOB and the owned descriptor. Borrowed locators are only detached.
func (l *lobLocator) free() error {
	var err error
	if l.temporary && !l.conn.closed() {
		err = l.freeTemporary()
	}
	l.desc.Close()
	l.raw = 0
	return err
}

// readAt reads len(p) bytes starting at the 0-based offset in one piece
func (l *lobLocator) readAt(p []byte, off int64) (int, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, fmt.Errorf("oci: negative LOB offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	lib, svc, errh := l.args()
	n, st := lib.LobRead(svc, errh, l.raw, uint64(off)+1, p, native.OCI_ONE_PIECE, l.csid, l.form)
	if err := l.check(st, "OCILobRead2"); err != nil && !errors.Is(err, ErrNoData) {
		return int(n), err
	}
	if int(n) < len(p) {
		return int(n), io.EOF
	}
	return int(n), nil
}

// writeAt writes p starting at the 0-based offset in one piece
func (l *lobLocator) writeAt(p []byte, off int64) (int, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, fmt.Errorf("oci: negative LOB offset %d", off)
	}
	lib, svc, errh := l.args()
	n, st := lib.LobWrite(svc, errh, l.raw, uint64(off)+1, p, native.OCI_ONE_PIECE, l.csid, l.form)
	if err := l.check(st, "OCILobWrite2"); err != nil {
		return int(n), err
	}
	if int(n) < len(p) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}

// finish ends a streaming read or write. A stream that did not reach the last piece
// is cancelled with OCIBreak and OCIReset before the LOB is closed.
func (l *lobLocator) finish(piece native.Piece) error {
	if err := l.ready(); err != nil {
		return err
	}
	lib, svc, errh := l.args()
	if piece != native.OCI_LAST_PIECE {
		if err := l.check(lib.Break(svc, errh), "OCIBreak"); err != nil {
			return err
		}
		if err := l.check(lib.Reset(svc, errh), "OCIReset"); err != nil {
			return err
		}
	}
	return l.close()
}

// =============================================================================
// Streaming
// =============================================================================

// LobReader streams a LOB from the start. It is created by NewReader and must be closed.
type LobReader struct {
	loc   *lobLocator
	piece native.Piece
	done  bool
}

func newLobReader(l *lobLocator, mode OpenMode) (*LobReader, error) {
	if err := l.open(mode); err != nil {
		return nil, err
	}
	return &LobReader{loc: l, piece: native.OCI_FIRST_PIECE}, nil
}

// Read implements io.Reader
func (r *LobReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, ErrClosed
	}
	if r.piece == native.OCI_LAST_PIECE {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.loc.ready(); err != nil {
		return 0, err
	}
	lib, svc, errh := r.loc.args()
	n, st := lib.LobRead(svc, errh, r.loc.raw, 1, p, r.piece, r.loc.csid, r.loc.form)
	switch err := decode(lib, st, errh); {
	case err == nil:
		r.piece = native.OCI_LAST_PIECE
	case errors.Is(err, ErrNeedData):
		r.piece = native.OCI_NEXT_PIECE
	case errors.Is(err, ErrNoData):
		r.piece = native.OCI_LAST_PIECE
		return 0, io.EOF
	default:
		return int(n), err
	}
	if n == 0 && r.piece == native.OCI_LAST_PIECE {
		return 0, io.EOF
	}
	return int(n), nil
}

// Close cancels an unfinished stream and closes the LOB
func (r *LobReader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.loc.finish(r.piece)
}

// LobWriter streams data into a LOB from the start. The data is only complete after Close.
type LobWriter struct {
	loc     *lobLocator
	piece   native.Piece
	pending []byte
	started bool
	done    bool
}

func newLobWriter(l *lobLocator) (*LobWriter, error) {
	if err := l.open(OpenWriteOnly); err != nil {
		return nil, err
	}
	return &LobWriter{loc: l, piece: native.OCI_FIRST_PIECE}, nil
}

// send writes buf as the given piece and advances the piece state
func (w *LobWriter) send(buf []byte, piece native.Piece) error {
	if err := w.loc.ready(); err != nil {
		return err
	}
	lib, svc, errh := w.loc.args()
	_, st := lib.LobWrite(svc, errh, w.loc.raw, 1, buf, piece, w.loc.csid, w.loc.form)
	switch err := decode(lib, st, errh); {
	case err == nil:
		w.piece = native.OCI_LAST_PIECE
	case errors.Is(err, ErrNeedData):
		w.started = true
		w.piece = native.OCI_NEXT_PIECE
	default:
		return err
	}
	return nil
}

// Write implements io.Writer. The latest chunk is held back so that Close can send it as the last piece.
func (w *LobWriter) Write(p []byte) (int, error) {
	if w.done || w.piece == native.OCI_LAST_PIECE {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if w.pending != nil {
		if err := w.send(w.pending, w.piece); err != nil {
			return 0, err
		}
	}
	w.pending = append(w.pending[:0], p...)
	return len(p), nil
}

// Close sends the held chunk as the last piece and closes the LOB
func (w *LobWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	var sendErr error
	switch {
	case w.pending == nil:
		// Nothing was written
		w.piece = native.OCI_LAST_PIECE
	case w.started:
		sendErr = w.send(w.pending, native.OCI_LAST_PIECE)
	default:
		sendErr = w.send(w.pending, native.OCI_ONE_PIECE)
	}
	w.pending = nil
	return errors.Join(sendErr, w.loc.finish(w.piece))
}

// =============================================================================
// Blob
// =============================================================================

// Blob is a binary large object locator
type Blob struct {
	loc *lobLocator
}

// NewBlob creates a temporary BLOB that lives until Free or the end of the session
func (c *Connection) NewBlob() (*Blob, error) {
	loc, err := newLocator(c, native.OCI_DTYPE_LOB)
	if err != nil {
		return nil, err
	}
	if err := loc.createTemporary(native.OCI_TEMP_BLOB); err != nil {
		loc.free()
		return nil, err
	}
	return &Blob{loc: loc}, nil
}

// Len returns the number of bytes in the LOB
func (b *Blob) Len() (uint64, error) { return b.loc.length() }

// Capacity returns the maximum number of bytes the LOB can hold
func (b *Blob) Capacity() (uint64, error) { return b.loc.capacity() }

// ChunkSize returns the chunk size reads and writes should be multiples of
func (b *Blob) ChunkSize() (uint32, error) { return b.loc.chunkSize() }

// Trim shortens the LOB to length bytes
func (b *Blob) Trim(length uint64) error { return b.loc.trim(length) }

// Erase zero-fills count bytes from the 0-based offset and returns the number erased
func (b *Blob) Erase(offset, count uint64) (uint64, error) { return b.loc.erase(offset, count) }

// Open opens the LOB so that index updates are deferred until Close
func (b *Blob) Open(mode OpenMode) error { return b.loc.open(mode) }

// Close closes a LOB opened with Open
func (b *Blob) Close() error { return b.loc.close() }

// IsOpen reports whether the LOB is open
func (b *Blob) IsOpen() (bool, error) { return b.loc.isOpen() }

// IsTemporary reports whether the LOB is a temporary LOB
func (b *Blob) IsTemporary() (bool, error) { return b.loc.isTemporary() }

// ReadAt implements io.ReaderAt
func (b *Blob) ReadAt(p []byte, off int64) (int, error) { return b.loc.readAt(p, off) }

// WriteAt implements io.WriterAt
func (b *Blob) WriteAt(p []byte, off int64) (int, error) { return b.loc.writeAt(p, off) }

// NewReader opens the LOB read-only and streams it from the start
func (b *Blob) NewReader() (*LobReader, error) { return newLobReader(b.loc, OpenReadOnly) }

// NewWriter opens the LOB write-only and streams into it from the start
func (b *Blob) NewWriter() (*LobWriter, error) { return newLobWriter(b.loc) }

// Free releases a temporary LOB and its locator. Locators read from rows need no Free.
func (b *Blob) Free() error { return b.loc.free() }

// =============================================================================
// Clob
// =============================================================================

// Clob is a character large object locator. Data is read and written as AL32UTF8 and
// offsets and lengths count bytes.
type Clob struct {
	loc *lobLocator
}

// NewClob creates a temporary CLOB that lives until Free or the end of the session
func (c *Connection) NewClob() (*Clob, error) {
	loc, err := newLocator(c, native.OCI_DTYPE_LOB)
	if err != nil {
		return nil, err
	}
	loc.csid = uint16(CharsetAL32UTF8)
	if err := loc.createTemporary(native.OCI_TEMP_CLOB); err != nil {
		loc.free()
		return nil, err
	}
	return &Clob{loc: loc}, nil
}

// National reports whether the locator is an NCLOB
func (c *Clob) National() bool { return c.loc.form == native.SQLCS_NCHAR }

// Len returns the length of the LOB
func (c *Clob) Len() (uint64, error) { return c.loc.length() }

// Capacity returns the maximum length the LOB can hold
func (c *Clob) Capacity() (uint64, error) { return c.loc.capacity() }

// ChunkSize returns the chunk size reads and writes should be multiples of
func (c *Clob) ChunkSize() (uint32, error) { return c.loc.chunkSize() }

// Trim shortens the LOB to length
func (c *Clob) Trim(length uint64) error { return c.loc.trim(length) }

// Erase blank-fills count characters from the 0-based offset and returns the number erased
func (c *Clob) Erase(offset, count uint64) (uint64, error) { return c.loc.erase(offset, count) }

// Open opens the LOB so that index updates are deferred until Close
func (c *Clob) Open(mode OpenMode) error { return c.loc.open(mode) }

// Close closes a LOB opened with Open
func (c *Clob) Close() error { return c.loc.close() }

// IsOpen reports whether the LOB is open
func (c *Clob) IsOpen() (bool, error) { return c.loc.isOpen() }

// IsTemporary reports whether the LOB is a temporary LOB
func (c *Clob) IsTemporary() (bool, error) { return c.loc.isTemporary() }

// ReadAt implements io.ReaderAt
func (c *Clob) ReadAt(p []byte, off int64) (int, error) { return c.loc.readAt(p, off) }

// WriteAt implements io.WriterAt
func (c *Clob) WriteAt(p []byte, off int64) (int, error) { return c.loc.writeAt(p, off) }

// NewReader opens the LOB read-only and streams it from the start
func (c *Clob) NewReader() (*LobReader, error) { return newLobReader(c.loc, OpenReadOnly) }

// NewWriter opens the LOB write-only and streams into it from the start
func (c *Clob) NewWriter() (*LobWriter, error) { return newLobWriter(c.loc) }

// Free releases a temporary LOB and its locator
func (c *Clob) Free() error { return c.loc.free() }

// =============================================================================
// BFile
// =============================================================================

// BFile is a locator of a read-only file stored outside the database
type BFile struct {
	loc *lobLocator
}

// NewBFile allocates a file locator pointing at name in the directory object dir
func (c *Connection) NewBFile(dir, name string) (*BFile, error) {
	loc, err := newLocator(c, native.OCI_DTYPE_FILE)
	if err != nil {
		return nil, err
	}
	f := &BFile{loc: loc}
	if err := f.SetFileName(dir, name); err != nil {
		loc.free()
		return nil, err
	}
	return f, nil
}

// SetFileName points the locator at name in the directory object dir
func (f *BFile) SetFileName(dir, name string) error {
	if err := f.loc.ready(); err != nil {
		return err
	}
	conn := f.loc.conn
	raw := f.loc.raw
	st := conn.lib.LobFileSetName(conn.env.env.raw, conn.errh(), &raw, dir, name)
	if err := f.loc.check(st, "OCILobFileSetName"); err != nil {
		return err
	}
	f.loc.raw = raw
	if f.loc.desc != nil {
		f.loc.desc.raw = raw
	}
	return nil
}

// Exists reports whether the file exists on the server
func (f *BFile) Exists() (bool, error) {
	if err := f.loc.ready(); err != nil {
		return false, err
	}
	lib, svc, errh := f.loc.args()
	ok, st := lib.LobFileExists(svc, errh, f.loc.raw)
	return ok, f.loc.check(st, "OCILobFileExists")
}

// Len returns the size of the file in bytes
func (f *BFile) Len() (uint64, error) { return f.loc.length() }

// Open opens the file for reading
func (f *BFile) Open() error { return f.loc.open(native.OCI_FILE_READONLY) }

// Close closes a file opened with Open
func (f *BFile) Close() error { return f.loc.close() }

// IsOpen reports whether the file is open
func (f *BFile) IsOpen() (bool, error) { return f.loc.isOpen() }

// ReadAt implements io.ReaderAt. The file must be open.
func (f *BFile) ReadAt(p []byte, off int64) (int, error) { return f.loc.readAt(p, off) }

// NewReader opens the file and streams it from the start
func (f *BFile) NewReader() (*LobReader, error) {
	return newLobReader(f.loc, native.OCI_FILE_READONLY)
}

// Free releases a locator created by NewBFile
func (f *BFile) Free() error { return f.loc.free() }
