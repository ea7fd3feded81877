package ocitest

import (
	"github.com/slingdata-io/goci/native"
)

// Lob is the value a LOB locator refers to
type Lob struct {
	Data      []byte
	Character bool
	Temporary bool
	open      bool
}

// File names a BFILE in a directory object
type File struct {
	Dir  string
	Name string
}

// Lob storage parameters reported by the fake
const (
	ChunkSize    = 8132
	StorageLimit = (1<<32 - 1) * ChunkSize
)

// AddFile makes name in the directory object dir readable through BFILE locators
func (l *Library) AddFile(dir, name string, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[dir+"/"+name] = data
}

// TemporaryLobs returns the number of temporary LOBs created and not freed
func (l *Library) TemporaryLobs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, d := range l.descriptors {
		if d.lob != nil && d.lob.Temporary {
			n++
		}
	}
	return n
}

// locator resolves a LOB or file locator. For files it returns the file contents.
func (l *Library) locator(errh, loc native.Handle) (*descriptor, native.Status) {
	d := l.descriptors[loc]
	if d == nil {
		return nil, native.OCI_INVALID_HANDLE
	}
	switch {
	case d.lob != nil:
		return d, native.OCI_SUCCESS
	case d.file != nil:
		if _, ok := l.files[d.file.Dir+"/"+d.file.Name]; !ok {
			return nil, l.fail(errh, 22288, "file or LOB operation FILEOPEN failed: No such file or directory")
		}
		return d, native.OCI_SUCCESS
	}
	return nil, l.fail(errh, 22275, "invalid LOB locator specified")
}

func (l *Library) contents(d *descriptor) []byte {
	if d.file != nil {
		return l.files[d.file.Dir+"/"+d.file.Name]
	}
	return d.lob.Data
}

func (l *Library) LobGetLength(svc, errh, loc native.Handle) (uint64, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobGetLength", errh); ok {
		return 0, st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return 0, st
	}
	return uint64(len(l.contents(d))), native.OCI_SUCCESS
}

func (l *Library) LobGetStorageLimit(svc, errh, loc native.Handle) (uint64, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobGetStorageLimit", errh); ok {
		return 0, st
	}
	if _, st := l.locator(errh, loc); st != native.OCI_SUCCESS {
		return 0, st
	}
	return StorageLimit, native.OCI_SUCCESS
}

func (l *Library) LobGetChunkSize(svc, errh, loc native.Handle) (uint32, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobGetChunkSize", errh); ok {
		return 0, st
	}
	if _, st := l.locator(errh, loc); st != native.OCI_SUCCESS {
		return 0, st
	}
	return ChunkSize, native.OCI_SUCCESS
}

func (l *Library) LobTrim(svc, errh, loc native.Handle, length uint64) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobTrim", errh); ok {
		return st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return st
	}
	if d.file != nil {
		return l.fail(errh, 22286, "insufficient privileges on file or directory to perform FILEWRITE operation")
	}
	if length > uint64(len(d.lob.Data)) {
		return l.fail(errh, 22926, "specified trim length is greater than current LOB value's length")
	}
	d.lob.Data = d.lob.Data[:length]
	return native.OCI_SUCCESS
}

// LobErase fills with zero bytes, or spaces for character LOBs. offset is 1-based.
func (l *Library) LobErase(svc, errh, loc native.Handle, amount, offset uint64) (uint64, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobErase", errh); ok {
		return 0, st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return 0, st
	}
	if d.file != nil {
		return 0, l.fail(errh, 22286, "insufficient privileges on file or directory to perform FILEWRITE operation")
	}
	if offset == 0 {
		return 0, l.fail(errh, 24801, "illegal parameter value in OCI lob function")
	}
	data := d.lob.Data
	if offset > uint64(len(data)) {
		return 0, native.OCI_SUCCESS
	}
	fill := byte(0)
	if d.lob.Character {
		fill = ' '
	}
	n := uint64(0)
	for i := offset - 1; i < uint64(len(data)) && n < amount; i++ {
		data[i] = fill
		n++
	}
	return n, native.OCI_SUCCESS
}

// LobRead reads from the 1-based offset. Piecewise reads continue from where the
// previous piece ended and report OCI_NEED_DATA until the last piece.
func (l *Library) LobRead(svc, errh, loc native.Handle, offset uint64, buf []byte, piece native.Piece, csid uint16, csfrm native.CharsetForm) (uint64, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobRead", errh); ok {
		return 0, st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return 0, st
	}
	if d.file != nil && !d.open {
		return 0, l.fail(errh, 22289, "cannot perform FILEREAD operation on an unopened file or LOB")
	}
	if offset == 0 {
		return 0, l.fail(errh, 24801, "illegal parameter value in OCI lob function")
	}
	data := l.contents(d)

	switch piece {
	case native.OCI_ONE_PIECE:
		if offset > uint64(len(data)) {
			return 0, native.OCI_NO_DATA
		}
		return uint64(copy(buf, data[offset-1:])), native.OCI_SUCCESS
	case native.OCI_FIRST_PIECE:
		d.pos, d.streaming = offset-1, true
	case native.OCI_NEXT_PIECE:
		if !d.streaming {
			return 0, l.fail(errh, 24804, "operation not allowed: piecewise read was not started or was cancelled")
		}
	default:
		return 0, l.fail(errh, 24801, "illegal parameter value in OCI lob function")
	}

	if d.pos >= uint64(len(data)) {
		d.streaming = false
		return 0, native.OCI_NO_DATA
	}
	n := uint64(copy(buf, data[d.pos:]))
	d.pos += n
	if d.pos < uint64(len(data)) {
		return n, native.OCI_NEED_DATA
	}
	d.streaming = false
	return n, native.OCI_SUCCESS
}

// LobWrite writes at the 1-based offset, extending the LOB as needed. Piecewise writes
// append each piece after the previous one and report OCI_NEED_DATA until the last piece.
func (l *Library) LobWrite(svc, errh, loc native.Handle, offset uint64, buf []byte, piece native.Piece, csid uint16, csfrm native.CharsetForm) (uint64, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobWrite", errh); ok {
		return 0, st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return 0, st
	}
	if d.file != nil {
		return 0, l.fail(errh, 22286, "insufficient privileges on file or directory to perform FILEWRITE operation")
	}
	if offset == 0 {
		return 0, l.fail(errh, 24801, "illegal parameter value in OCI lob function")
	}

	var at uint64
	switch piece {
	case native.OCI_ONE_PIECE:
		at = offset - 1
	case native.OCI_FIRST_PIECE:
		at, d.streaming = offset-1, true
	case native.OCI_NEXT_PIECE, native.OCI_LAST_PIECE:
		if !d.streaming {
			return 0, l.fail(errh, 24804, "operation not allowed: piecewise write was not started or was cancelled")
		}
		at = d.pos
	default:
		return 0, l.fail(errh, 24801, "illegal parameter value in OCI lob function")
	}

	lob := d.lob
	if gap := int(at) - len(lob.Data); gap > 0 {
		fill := byte(0)
		if lob.Character {
			fill = ' '
		}
		for range gap {
			lob.Data = append(lob.Data, fill)
		}
	}
	end := int(at) + len(buf)
	if end > len(lob.Data) {
		lob.Data = append(lob.Data, make([]byte, end-len(lob.Data))...)
	}
	copy(lob.Data[at:], buf)
	d.pos = uint64(end)

	switch piece {
	case native.OCI_FIRST_PIECE, native.OCI_NEXT_PIECE:
		return uint64(len(buf)), native.OCI_NEED_DATA
	case native.OCI_LAST_PIECE:
		d.streaming = false
	}
	return uint64(len(buf)), native.OCI_SUCCESS
}

func (l *Library) LobOpen(svc, errh, loc native.Handle, mode native.LobOpenMode) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobOpen", errh); ok {
		return st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return st
	}
	if d.file != nil {
		if mode != native.OCI_FILE_READONLY {
			return l.fail(errh, 22286, "insufficient privileges on file or directory to perform FILEWRITE operation")
		}
		if d.open {
			return l.fail(errh, 22293, "LOB already opened in the same transaction")
		}
		d.open = true
		return native.OCI_SUCCESS
	}
	if d.lob.open {
		return l.fail(errh, 22293, "LOB already opened in the same transaction")
	}
	d.lob.open = true
	return native.OCI_SUCCESS
}

func (l *Library) LobClose(svc, errh, loc native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobClose", errh); ok {
		return st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return st
	}
	d.streaming = false
	if d.file != nil {
		if !d.open {
			return l.fail(errh, 22289, "cannot perform operation on an unopened file or LOB")
		}
		d.open = false
		return native.OCI_SUCCESS
	}
	if !d.lob.open {
		return l.fail(errh, 22289, "cannot perform operation on an unopened file or LOB")
	}
	d.lob.open = false
	return native.OCI_SUCCESS
}

func (l *Library) LobIsOpen(svc, errh, loc native.Handle) (bool, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobIsOpen", errh); ok {
		return false, st
	}
	d, st := l.locator(errh, loc)
	if st != native.OCI_SUCCESS {
		return false, st
	}
	if d.file != nil {
		return d.open, native.OCI_SUCCESS
	}
	return d.lob.open, native.OCI_SUCCESS
}

func (l *Library) LobCreateTemporary(svc, errh, loc native.Handle, csid uint16, csfrm native.CharsetForm, ty native.LobType, cache bool, duration native.Duration) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobCreateTemporary", errh); ok {
		return st
	}
	if l.session(svc) == nil {
		return l.fail(errh, 3114, "not connected to ORACLE")
	}
	d := l.descriptors[loc]
	if d == nil || d.kind != native.OCI_DTYPE_LOB {
		return native.OCI_INVALID_HANDLE
	}
	if ty != native.OCI_TEMP_BLOB && ty != native.OCI_TEMP_CLOB {
		return l.fail(errh, 24801, "illegal parameter value in OCI lob function")
	}
	d.lob = &Lob{Character: ty == native.OCI_TEMP_CLOB, Temporary: true}
	return native.OCI_SUCCESS
}

func (l *Library) LobFreeTemporary(svc, errh, loc native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobFreeTemporary", errh); ok {
		return st
	}
	d := l.descriptors[loc]
	if d == nil {
		return native.OCI_INVALID_HANDLE
	}
	if d.lob == nil || !d.lob.Temporary {
		return l.fail(errh, 22275, "invalid LOB locator specified")
	}
	d.lob.Temporary = false
	d.lob = nil
	return native.OCI_SUCCESS
}

func (l *Library) LobIsTemporary(env, errh, loc native.Handle) (bool, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobIsTemporary", errh); ok {
		return false, st
	}
	if l.handleOf(env, native.OCI_HTYPE_ENV) == nil {
		return false, native.OCI_INVALID_HANDLE
	}
	d := l.descriptors[loc]
	if d == nil {
		return false, native.OCI_INVALID_HANDLE
	}
	return d.lob != nil && d.lob.Temporary, native.OCI_SUCCESS
}

func (l *Library) LobFileSetName(env, errh native.Handle, loc *native.Handle, dir, name string) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobFileSetName", errh); ok {
		return st
	}
	if l.handleOf(env, native.OCI_HTYPE_ENV) == nil {
		return native.OCI_INVALID_HANDLE
	}
	if *loc == 0 {
		*loc = l.newDescriptor(native.OCI_DTYPE_FILE)
	}
	d := l.descriptors[*loc]
	if d == nil || d.kind != native.OCI_DTYPE_FILE {
		return native.OCI_INVALID_HANDLE
	}
	if dir == "" || name == "" {
		return l.fail(errh, 22285, "non-existent directory or file for FILEOPEN operation")
	}
	d.file = &File{Dir: dir, Name: name}
	d.lob, d.open = nil, false
	return native.OCI_SUCCESS
}

func (l *Library) LobFileExists(svc, errh, loc native.Handle) (bool, native.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.enter("LobFileExists", errh); ok {
		return false, st
	}
	d := l.descriptors[loc]
	if d == nil || d.file == nil {
		return false, native.OCI_INVALID_HANDLE
	}
	_, ok := l.files[d.file.Dir+"/"+d.file.Name]
	return ok, native.OCI_SUCCESS
}
