package native

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	ociLib   uintptr
	initOnce sync.Once
	initErr  error
)

// Size of the message buffer handed to OCIErrorGet
const errorBufferSize = 3072

// OCI function pointers - populated by purego
var (
	ociEnvNlsCreate              func(envp *Handle, mode uint32, ctxp, malocfp, ralocfp, mfreefp, xtramemSz, usrmempp uintptr, charset, ncharset uint16) Status
	ociTerminate                 func(mode uint32) Status
	ociHandleAlloc               func(parent Handle, hndlpp *Handle, htype uint32, xtramemSz, usrmempp uintptr) Status
	ociHandleFree                func(hndlp Handle, htype uint32) Status
	ociDescriptorAlloc           func(parent Handle, descpp *Handle, dtype uint32, xtramemSz, usrmempp uintptr) Status
	ociDescriptorFree            func(descp Handle, dtype uint32) Status
	ociAttrGet                   func(trgthndlp Handle, trghndltyp uint32, attributep unsafe.Pointer, sizep *uint32, attrtype uint32, errhp Handle) Status
	ociAttrSet                   func(trgthndlp Handle, trghndltyp uint32, attributep unsafe.Pointer, size uint32, attrtype uint32, errhp Handle) Status
	ociAttrSetHandle             func(trgthndlp Handle, trghndltyp uint32, attributep Handle, size uint32, attrtype uint32, errhp Handle) Status
	ociParamGet                  func(hndlp Handle, htype uint32, errhp Handle, parmdpp *Handle, pos uint32) Status
	ociErrorGet                  func(hndlp Handle, recordno uint32, sqlstate uintptr, errcodep *int32, bufp *byte, bufsiz uint32, htype uint32) Status
	ociServerAttach              func(srvhp, errhp Handle, dblink *byte, dblinkLen int32, mode uint32) Status
	ociServerDetach              func(srvhp, errhp Handle, mode uint32) Status
	ociSessionBegin              func(svchp, errhp, usrhp Handle, credt, mode uint32) Status
	ociSessionEnd                func(svchp, errhp, usrhp Handle, mode uint32) Status
	ociServerRelease             func(hndlp, errhp Handle, bufp *byte, bufsz uint32, hndltype uint8, version *uint32) Status
	ociClientVersion             func(major, minor, update, patch, portUpdate *int32)
	ociPing                      func(svchp, errhp Handle, mode uint32) Status
	ociBreak                     func(hndlp, errhp Handle) Status
	ociReset                     func(hndlp, errhp Handle) Status
	ociTransCommit               func(svchp, errhp Handle, flags uint32) Status
	ociTransRollback             func(svchp, errhp Handle, flags uint32) Status
	ociStmtPrepare2              func(svchp Handle, stmthp *Handle, errhp Handle, stmttext *byte, stmtLen uint32, key *byte, keyLen uint32, language, mode uint32) Status
	ociStmtRelease               func(stmthp, errhp Handle, key *byte, keyLen uint32, mode uint32) Status
	ociStmtExecute               func(svchp, stmtp, errhp Handle, iters, rowoff uint32, snapIn, snapOut uintptr, mode uint32) Status
	ociStmtFetch2                func(stmtp, errhp Handle, nrows uint32, orientation uint16, fetchOffset int32, mode uint32) Status
	ociBindByPos                 func(stmtp Handle, bindpp *Handle, errhp Handle, position uint32, valuep unsafe.Pointer, valueSz int32, dty uint16, indp *int16, alenp, rcodep *uint16, maxarrLen uint32, curelep *uint32, mode uint32) Status
	ociBindByName                func(stmtp Handle, bindpp *Handle, errhp Handle, placeholder *byte, placehLen int32, valuep unsafe.Pointer, valueSz int32, dty uint16, indp *int16, alenp, rcodep *uint16, maxarrLen uint32, curelep *uint32, mode uint32) Status
	ociDefineByPos               func(stmtp Handle, defnpp *Handle, errhp Handle, position uint32, valuep unsafe.Pointer, valueSz int32, dty uint16, indp *int16, rlenp, rcodep *uint16, mode uint32) Status
	ociNumberToInt               func(errhp Handle, number *Number, rslLength, rslFlag uint32, rsl unsafe.Pointer) Status
	ociNumberFromInt             func(errhp Handle, inum unsafe.Pointer, inumLength, inumSFlag uint32, number *Number) Status
	ociNumberToReal              func(errhp Handle, number *Number, rslLength uint32, rsl unsafe.Pointer) Status
	ociNumberToText              func(errhp Handle, number *Number, fmt *byte, fmtLength uint32, nlsParams *byte, nlsPLength uint32, bufSize *uint32, buf *byte) Status
	ociDateTimeGetDate           func(hndl, errhp, datetime Handle, yr *int16, mnth, dy *uint8) Status
	ociDateTimeGetTime           func(hndl, errhp, datetime Handle, hr, mm, ss *uint8, fsec *uint32) Status
	ociDateTimeGetTimeZoneOffset func(hndl, errhp, datetime Handle, hr, mm *int8) Status
	ociIntervalGetYearMonth      func(hndl, errhp Handle, yr, mnth *int32, interval Handle) Status
	ociIntervalGetDaySecond      func(hndl, errhp Handle, dy, hr, mm, ss, fsec *int32, interval Handle) Status
	ociIntervalToNumber          func(hndl, errhp, interval Handle, number *Number) Status
	ociLobGetLength2             func(svchp, errhp, locp Handle, lenp *uint64) Status
	ociLobGetStorageLimit        func(svchp, errhp, locp Handle, limitp *uint64) Status
	ociLobGetChunkSize           func(svchp, errhp, locp Handle, chunksizep *uint32) Status
	ociLobTrim2                  func(svchp, errhp, locp Handle, newlen uint64) Status
	ociLobErase2                 func(svchp, errhp, locp Handle, amount *uint64, offset uint64) Status
	ociLobRead2                  func(svchp, errhp, locp Handle, byteAmtp, charAmtp *uint64, offset uint64, bufp unsafe.Pointer, bufl uint64, piece uint8, ctxp, cbfp uintptr, csid uint16, csfrm uint8) Status
	ociLobWrite2                 func(svchp, errhp, locp Handle, byteAmtp, charAmtp *uint64, offset uint64, bufp unsafe.Pointer, buflen uint64, piece uint8, ctxp, cbfp uintptr, csid uint16, csfrm uint8) Status
	ociLobOpen                   func(svchp, errhp, locp Handle, mode uint8) Status
	ociLobClose                  func(svchp, errhp, locp Handle) Status
	ociLobIsOpen                 func(svchp, errhp, locp Handle, flag *int32) Status
	ociLobCreateTemporary        func(svchp, errhp, locp Handle, csid uint16, csfrm, lobtype uint8, cache int32, duration uint16) Status
	ociLobFreeTemporary          func(svchp, errhp, locp Handle) Status
	ociLobIsTemporary            func(envhp, errhp, locp Handle, flag *int32) Status
	ociLobFileSetName            func(envhp, errhp Handle, filepp *Handle, dirAlias *byte, dLength uint16, filename *byte, fLength uint16) Status
	ociLobFileExists             func(svchp, errhp, filep Handle, flag *int32) Status
)

// LibraryPath returns the platform-specific OCI library path.
// GOCI_LIBRARY_PATH overrides it; otherwise ORACLE_HOME is searched before the bare library name.
func LibraryPath() string {
	if path := os.Getenv("GOCI_LIBRARY_PATH"); path != "" {
		return path
	}

	name, dir := "libclntsh.so", "lib"
	switch runtime.GOOS {
	case "windows":
		name, dir = "oci.dll", "bin"
	case "darwin":
		name = "libclntsh.dylib"
	}

	if home := os.Getenv("ORACLE_HOME"); home != "" {
		for _, p := range []string{filepath.Join(home, dir, name), filepath.Join(home, name)} {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return name // Let the dynamic loader search standard paths
}

// Load loads the OCI library found by LibraryPath and returns it.
// If loading fails, set GOCI_LIBRARY_PATH or ORACLE_HOME to point at the client installation.
func Load() (Native, error) {
	return LoadFrom(LibraryPath())
}

// LoadFrom loads the OCI library at libPath. The library is loaded once per process;
// later calls return the first result whatever path they pass.
func LoadFrom(libPath string) (Native, error) {
	initOnce.Do(func() {
		// Platform-specific loading lives in lib_unix.go and lib_windows.go
		ociLib, initErr = loadOCILibrary(libPath)
		if initErr != nil {
			initErr = fmt.Errorf("failed to load OCI library %q: %w (set GOCI_LIBRARY_PATH or ORACLE_HOME to override)", libPath, initErr)
			return
		}

		// Environment and handles
		purego.RegisterLibFunc(&ociEnvNlsCreate, ociLib, "OCIEnvNlsCreate")
		purego.RegisterLibFunc(&ociTerminate, ociLib, "OCITerminate")
		purego.RegisterLibFunc(&ociHandleAlloc, ociLib, "OCIHandleAlloc")
		purego.RegisterLibFunc(&ociHandleFree, ociLib, "OCIHandleFree")
		purego.RegisterLibFunc(&ociDescriptorAlloc, ociLib, "OCIDescriptorAlloc")
		purego.RegisterLibFunc(&ociDescriptorFree, ociLib, "OCIDescriptorFree")
		purego.RegisterLibFunc(&ociAttrGet, ociLib, "OCIAttrGet")
		purego.RegisterLibFunc(&ociAttrSet, ociLib, "OCIAttrSet")
		purego.RegisterLibFunc(&ociAttrSetHandle, ociLib, "OCIAttrSet")
		purego.RegisterLibFunc(&ociParamGet, ociLib, "OCIParamGet")
		purego.RegisterLibFunc(&ociErrorGet, ociLib, "OCIErrorGet")

		// Server and session
		purego.RegisterLibFunc(&ociServerAttach, ociLib, "OCIServerAttach")
		purego.RegisterLibFunc(&ociServerDetach, ociLib, "OCIServerDetach")
		purego.RegisterLibFunc(&ociSessionBegin, ociLib, "OCISessionBegin")
		purego.RegisterLibFunc(&ociSessionEnd, ociLib, "OCISessionEnd")
		purego.RegisterLibFunc(&ociServerRelease, ociLib, "OCIServerRelease")
		purego.RegisterLibFunc(&ociClientVersion, ociLib, "OCIClientVersion")
		purego.RegisterLibFunc(&ociPing, ociLib, "OCIPing")
		purego.RegisterLibFunc(&ociBreak, ociLib, "OCIBreak")
		purego.RegisterLibFunc(&ociReset, ociLib, "OCIReset")
		purego.RegisterLibFunc(&ociTransCommit, ociLib, "OCITransCommit")
		purego.RegisterLibFunc(&ociTransRollback, ociLib, "OCITransRollback")

		// Statements
		purego.RegisterLibFunc(&ociStmtPrepare2, ociLib, "OCIStmtPrepare2")
		purego.RegisterLibFunc(&ociStmtRelease, ociLib, "OCIStmtRelease")
		purego.RegisterLibFunc(&ociStmtExecute, ociLib, "OCIStmtExecute")
		purego.RegisterLibFunc(&ociStmtFetch2, ociLib, "OCIStmtFetch2")
		purego.RegisterLibFunc(&ociBindByPos, ociLib, "OCIBindByPos")
		purego.RegisterLibFunc(&ociBindByName, ociLib, "OCIBindByName")
		purego.RegisterLibFunc(&ociDefineByPos, ociLib, "OCIDefineByPos")

		// Numbers, datetimes and intervals
		purego.RegisterLibFunc(&ociNumberToInt, ociLib, "OCINumberToInt")
		purego.RegisterLibFunc(&ociNumberFromInt, ociLib, "OCINumberFromInt")
		purego.RegisterLibFunc(&ociNumberToReal, ociLib, "OCINumberToReal")
		purego.RegisterLibFunc(&ociNumberToText, ociLib, "OCINumberToText")
		purego.RegisterLibFunc(&ociDateTimeGetDate, ociLib, "OCIDateTimeGetDate")
		purego.RegisterLibFunc(&ociDateTimeGetTime, ociLib, "OCIDateTimeGetTime")
		purego.RegisterLibFunc(&ociDateTimeGetTimeZoneOffset, ociLib, "OCIDateTimeGetTimeZoneOffset")
		purego.RegisterLibFunc(&ociIntervalGetYearMonth, ociLib, "OCIIntervalGetYearMonth")
		purego.RegisterLibFunc(&ociIntervalGetDaySecond, ociLib, "OCIIntervalGetDaySecond")
		purego.RegisterLibFunc(&ociIntervalToNumber, ociLib, "OCIIntervalToNumber")

		// LOB locators
		purego.RegisterLibFunc(&ociLobGetLength2, ociLib, "OCILobGetLength2")
		purego.RegisterLibFunc(&ociLobGetStorageLimit, ociLib, "OCILobGetStorageLimit")
		purego.RegisterLibFunc(&ociLobGetChunkSize, ociLib, "OCILobGetChunkSize")
		purego.RegisterLibFunc(&ociLobTrim2, ociLib, "OCILobTrim2")
		purego.RegisterLibFunc(&ociLobErase2, ociLib, "OCILobErase2")
		purego.RegisterLibFunc(&ociLobRead2, ociLib, "OCILobRead2")
		purego.RegisterLibFunc(&ociLobWrite2, ociLib, "OCILobWrite2")
		purego.RegisterLibFunc(&ociLobOpen, ociLib, "OCILobOpen")
		purego.RegisterLibFunc(&ociLobClose, ociLib, "OCILobClose")
		purego.RegisterLibFunc(&ociLobIsOpen, ociLib, "OCILobIsOpen")
		purego.RegisterLibFunc(&ociLobCreateTemporary, ociLib, "OCILobCreateTemporary")
		purego.RegisterLibFunc(&ociLobFreeTemporary, ociLib, "OCILobFreeTemporary")
		purego.RegisterLibFunc(&ociLobIsTemporary, ociLib, "OCILobIsTemporary")
		purego.RegisterLibFunc(&ociLobFileSetName, ociLib, "OCILobFileSetName")
		purego.RegisterLibFunc(&ociLobFileExists, ociLib, "OCILobFileExists")
	})
	if initErr != nil {
		return nil, initErr
	}
	return library{}, nil
}

// library implements Native over the symbols registered by Load
type library struct{}

// bytesPtr returns a pointer to the first byte of b, or nil for an empty slice
func bytesPtr(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

// textPtr returns a pointer to the bytes of s without copying, or nil for an empty string
func textPtr(s string) *byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.StringData(s)
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (library) EnvNlsCreate(mode uint32, charset, ncharset uint16) (Handle, Status) {
	var env Handle
	st := ociEnvNlsCreate(&env, mode, 0, 0, 0, 0, 0, 0, charset, ncharset)
	return env, st
}

func (library) Terminate(mode uint32) Status {
	return ociTerminate(mode)
}

func (library) HandleAlloc(parent Handle, kind HandleKind) (Handle, Status) {
	var h Handle
	st := ociHandleAlloc(parent, &h, uint32(kind), 0, 0)
	return h, st
}

func (library) HandleFree(h Handle, kind HandleKind) Status {
	return ociHandleFree(h, uint32(kind))
}

func (library) DescriptorAlloc(env Handle, kind DescriptorKind) (Handle, Status) {
	var d Handle
	st := ociDescriptorAlloc(env, &d, uint32(kind), 0, 0)
	return d, st
}

func (library) DescriptorFree(d Handle, kind DescriptorKind) Status {
	return ociDescriptorFree(d, uint32(kind))
}

func (library) AttrGet(target Handle, targetType uint32, attr Attr, value []byte, errh Handle) Status {
	size := uint32(len(value))
	return ociAttrGet(target, targetType, unsafe.Pointer(bytesPtr(value)), &size, uint32(attr), errh)
}

func (library) AttrGetText(target Handle, targetType uint32, attr Attr, errh Handle) (string, Status) {
	var text *byte
	var size uint32
	st := ociAttrGet(target, targetType, unsafe.Pointer(&text), &size, uint32(attr), errh)
	if !IsSuccess(st) || text == nil {
		return "", st
	}
	// The library owns the text; copy it out before the next call can reuse it
	return strings.Clone(unsafe.String(text, int(size))), st
}

func (library) AttrSet(target Handle, targetType uint32, attr Attr, value []byte, errh Handle) Status {
	return ociAttrSet(target, targetType, unsafe.Pointer(bytesPtr(value)), uint32(len(value)), uint32(attr), errh)
}

func (library) AttrSetHandle(target Handle, targetType uint32, attr Attr, value Handle, errh Handle) Status {
	return ociAttrSetHandle(target, targetType, value, 0, uint32(attr), errh)
}

func (library) ParamGet(target Handle, targetType uint32, errh Handle, pos uint32) (Handle, Status) {
	var param Handle
	st := ociParamGet(target, targetType, errh, &param, pos)
	return param, st
}

func (library) ErrorGet(h Handle, record uint32, kind HandleKind) (int32, string, Status) {
	var code int32
	buf := make([]byte, errorBufferSize)
	st := ociErrorGet(h, record, 0, &code, &buf[0], uint32(len(buf)), uint32(kind))
	if st != OCI_SUCCESS {
		return 0, "", st
	}
	msg := buf
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		msg = buf[:i]
	}
	return code, strings.TrimRight(string(msg), "\n"), st
}

func (library) ServerAttach(srv, errh Handle, dblink string, mode uint32) Status {
	return ociServerAttach(srv, errh, textPtr(dblink), int32(len(dblink)), mode)
}

func (library) ServerDetach(srv, errh Handle, mode uint32) Status {
	return ociServerDetach(srv, errh, mode)
}

func (library) SessionBegin(svc, errh, session Handle, credentials, mode uint32) Status {
	return ociSessionBegin(svc, errh, session, credentials, mode)
}

func (library) SessionEnd(svc, errh, session Handle, mode uint32) Status {
	return ociSessionEnd(svc, errh, session, mode)
}

func (library) ServerRelease(h, errh Handle, kind HandleKind) (string, uint32, Status) {
	buf := make([]byte, 1024)
	var release uint32
	st := ociServerRelease(h, errh, &buf[0], uint32(len(buf)), uint8(kind), &release)
	if !IsSuccess(st) {
		return "", 0, st
	}
	banner := buf
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		banner = buf[:i]
	}
	return string(banner), release, st
}

func (library) ClientVersion() (major, minor, update, patch, portUpdate int32) {
	ociClientVersion(&major, &minor, &update, &patch, &portUpdate)
	return
}

func (library) Ping(svc, errh Handle, mode uint32) Status {
	return ociPing(svc, errh, mode)
}

func (library) Break(h, errh Handle) Status {
	return ociBreak(h, errh)
}

func (library) Reset(h, errh Handle) Status {
	return ociReset(h, errh)
}

func (library) TransCommit(svc, errh Handle, flags uint32) Status {
	return ociTransCommit(svc, errh, flags)
}

func (library) TransRollback(svc, errh Handle, flags uint32) Status {
	return ociTransRollback(svc, errh, flags)
}

func (library) StmtPrepare2(svc, errh Handle, sql, key string, syntax, mode uint32) (Handle, Status) {
	var stmt Handle
	st := ociStmtPrepare2(svc, &stmt, errh, textPtr(sql), uint32(len(sql)), textPtr(key), uint32(len(key)), syntax, mode)
	return stmt, st
}

func (library) StmtRelease(stmt, errh Handle, key string, mode uint32) Status {
	return ociStmtRelease(stmt, errh, textPtr(key), uint32(len(key)), mode)
}

func (library) StmtExecute(svc, stmt, errh Handle, iters, rowoff, mode uint32) Status {
	return ociStmtExecute(svc, stmt, errh, iters, rowoff, 0, 0, mode)
}

func (library) StmtFetch2(stmt, errh Handle, nrows uint32, orientation uint16, offset int32, mode uint32) Status {
	return ociStmtFetch2(stmt, errh, nrows, orientation, offset, mode)
}

func (library) BindByPos(stmt, errh Handle, pos uint32, value []byte, ty Type, ind *int16) (Handle, Status) {
	var bind Handle
	st := ociBindByPos(stmt, &bind, errh, pos, unsafe.Pointer(bytesPtr(value)), int32(len(value)), uint16(ty), ind, nil, nil, 0, nil, OCI_DEFAULT)
	return bind, st
}

func (library) BindByName(stmt, errh Handle, name string, value []byte, ty Type, ind *int16) (Handle, Status) {
	var bind Handle
	st := ociBindByName(stmt, &bind, errh, textPtr(name), int32(len(name)), unsafe.Pointer(bytesPtr(value)), int32(len(value)), uint16(ty), ind, nil, nil, 0, nil, OCI_DEFAULT)
	return bind, st
}

func (library) DefineByPos(stmt, errh Handle, pos uint32, value []byte, ty Type, ind *int16, rlen, rcode *uint16) (Handle, Status) {
	var def Handle
	st := ociDefineByPos(stmt, &def, errh, pos, unsafe.Pointer(bytesPtr(value)), int32(len(value)), uint16(ty), ind, rlen, rcode, OCI_DEFAULT)
	return def, st
}

func (library) NumberToInt(errh Handle, num *Number, out []byte, signed bool) Status {
	sign := OCI_NUMBER_UNSIGNED
	if signed {
		sign = OCI_NUMBER_SIGNED
	}
	return ociNumberToInt(errh, num, uint32(len(out)), sign, unsafe.Pointer(bytesPtr(out)))
}

func (library) NumberFromInt(errh Handle, in []byte, signed bool, num *Number) Status {
	sign := OCI_NUMBER_UNSIGNED
	if signed {
		sign = OCI_NUMBER_SIGNED
	}
	return ociNumberFromInt(errh, unsafe.Pointer(bytesPtr(in)), uint32(len(in)), sign, num)
}

func (library) NumberToReal(errh Handle, num *Number, out []byte) Status {
	return ociNumberToReal(errh, num, uint32(len(out)), unsafe.Pointer(bytesPtr(out)))
}

func (library) NumberToText(errh Handle, num *Number, format string, buf []byte) (int, Status) {
	size := uint32(len(buf))
	st := ociNumberToText(errh, num, textPtr(format), uint32(len(format)), nil, 0, &size, bytesPtr(buf))
	return int(size), st
}

func (library) DateTimeGetDate(h, errh, dt Handle) (year int16, month, day uint8, st Status) {
	st = ociDateTimeGetDate(h, errh, dt, &year, &month, &day)
	return
}

func (library) DateTimeGetTime(h, errh, dt Handle) (hour, minute, second uint8, fsec uint32, st Status) {
	st = ociDateTimeGetTime(h, errh, dt, &hour, &minute, &second, &fsec)
	return
}

func (library) DateTimeGetTimeZoneOffset(h, errh, dt Handle) (hour, minute int8, st Status) {
	st = ociDateTimeGetTimeZoneOffset(h, errh, dt, &hour, &minute)
	return
}

func (library) IntervalGetYearMonth(h, errh, iv Handle) (year, month int32, st Status) {
	st = ociIntervalGetYearMonth(h, errh, &year, &month, iv)
	return
}

func (library) IntervalGetDaySecond(h, errh, iv Handle) (day, hour, minute, second, fsec int32, st Status) {
	st = ociIntervalGetDaySecond(h, errh, &day, &hour, &minute, &second, &fsec, iv)
	return
}

func (library) IntervalToNumber(h, errh, iv Handle, num *Number) Status {
	return ociIntervalToNumber(h, errh, iv, num)
}

func (library) LobGetLength(svc, errh, loc Handle) (uint64, Status) {
	var n uint64
	st := ociLobGetLength2(svc, errh, loc, &n)
	return n, st
}

func (library) LobGetStorageLimit(svc, errh, loc Handle) (uint64, Status) {
	var n uint64
	st := ociLobGetStorageLimit(svc, errh, loc, &n)
	return n, st
}

func (library) LobGetChunkSize(svc, errh, loc Handle) (uint32, Status) {
	var n uint32
	st := ociLobGetChunkSize(svc, errh, loc, &n)
	return n, st
}

func (library) LobTrim(svc, errh, loc Handle, length uint64) Status {
	return ociLobTrim2(svc, errh, loc, length)
}

func (library) LobErase(svc, errh, loc Handle, amount, offset uint64) (uint64, Status) {
	st := ociLobErase2(svc, errh, loc, &amount, offset)
	return amount, st
}

func (library) LobRead(svc, errh, loc Handle, offset uint64, buf []byte, piece Piece, csid uint16, csfrm CharsetForm) (uint64, Status) {
	n := uint64(len(buf))
	if piece != OCI_ONE_PIECE {
		// Zero selects streaming mode, which reads until the end of the LOB
		n = 0
	}
	st := ociLobRead2(svc, errh, loc, &n, nil, offset, unsafe.Pointer(bytesPtr(buf)), uint64(len(buf)), uint8(piece), 0, 0, csid, uint8(csfrm))
	return n, st
}

func (library) LobWrite(svc, errh, loc Handle, offset uint64, buf []byte, piece Piece, csid uint16, csfrm CharsetForm) (uint64, Status) {
	n := uint64(len(buf))
	if piece != OCI_ONE_PIECE {
		// Streaming writes announce an unknown total length
		n = 0
	}
	st := ociLobWrite2(svc, errh, loc, &n, nil, offset, unsafe.Pointer(bytesPtr(buf)), uint64(len(buf)), uint8(piece), 0, 0, csid, uint8(csfrm))
	return n, st
}

func (library) LobOpen(svc, errh, loc Handle, mode LobOpenMode) Status {
	return ociLobOpen(svc, errh, loc, uint8(mode))
}

func (library) LobClose(svc, errh, loc Handle) Status {
	return ociLobClose(svc, errh, loc)
}

func (library) LobIsOpen(svc, errh, loc Handle) (bool, Status) {
	var f int32
	st := ociLobIsOpen(svc, errh, loc, &f)
	return f != 0, st
}

func (library) LobCreateTemporary(svc, errh, loc Handle, csid uint16, csfrm CharsetForm, ty LobType, cache bool, duration Duration) Status {
	return ociLobCreateTemporary(svc, errh, loc, csid, uint8(csfrm), uint8(ty), flag(cache), uint16(duration))
}

func (library) LobFreeTemporary(svc, errh, loc Handle) Status {
	return ociLobFreeTemporary(svc, errh, loc)
}

func (library) LobIsTemporary(env, errh, loc Handle) (bool, Status) {
	var f int32
	st := ociLobIsTemporary(env, errh, loc, &f)
	return f != 0, st
}

func (library) LobFileSetName(env, errh Handle, loc *Handle, dir, name string) Status {
	return ociLobFileSetName(env, errh, loc, textPtr(dir), uint16(len(dir)), textPtr(name), uint16(len(name)))
}

func (library) LobFileExists(svc, errh, loc Handle) (bool, Status) {
	var f int32
	st := ociLobFileExists(svc, errh, loc, &f)
	return f != 0, st
}

// Ensure library implements Native
var _ Native = library{}
