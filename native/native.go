// Package native is the boundary to the Oracle Call Interface client library.
//
// Native lists every OCI entry point the oci package uses. Load returns the implementation
// backed by libclntsh through purego; tests substitute an in-memory library.
// Every method returns the raw OCI status; decoding it is the caller's job.
package native

// Native is the OCI client library as seen by this module.
type Native interface {
	// Environment
	EnvNlsCreate(mode uint32, charset, ncharset uint16) (Handle, Status)
	Terminate(mode uint32) Status

	// Handles and descriptors
	HandleAlloc(parent Handle, kind HandleKind) (Handle, Status)
	HandleFree(h Handle, kind HandleKind) Status
	DescriptorAlloc(env Handle, kind DescriptorKind) (Handle, Status)
	DescriptorFree(d Handle, kind DescriptorKind) Status

	// Attributes. targetType is a HandleKind or DescriptorKind value.
	// AttrGet fills value, whose length is the attribute width.
	AttrGet(target Handle, targetType uint32, attr Attr, value []byte, errh Handle) Status
	AttrGetText(target Handle, targetType uint32, attr Attr, errh Handle) (string, Status)
	AttrSet(target Handle, targetType uint32, attr Attr, value []byte, errh Handle) Status
	AttrSetHandle(target Handle, targetType uint32, attr Attr, value Handle, errh Handle) Status
	ParamGet(target Handle, targetType uint32, errh Handle, pos uint32) (Handle, Status)

	// ErrorGet reads the diagnostic record with 1-based index record.
	ErrorGet(h Handle, record uint32, kind HandleKind) (code int32, message string, st Status)

	// Server and session
	ServerAttach(srv, errh Handle, dblink string, mode uint32) Status
	ServerDetach(srv, errh Handle, mode uint32) Status
	SessionBegin(svc, errh, session Handle, credentials uint32, mode uint32) Status
	SessionEnd(svc, errh, session Handle, mode uint32) Status
	ServerRelease(h, errh Handle, kind HandleKind) (banner string, release uint32, st Status)
	ClientVersion() (major, minor, update, patch, portUpdate int32)
	Ping(svc, errh Handle, mode uint32) Status
	Break(h, errh Handle) Status
	Reset(h, errh Handle) Status
	TransCommit(svc, errh Handle, flags uint32) Status
	TransRollback(svc, errh Handle, flags uint32) Status

	// Statements. The buffers passed to BindByPos, BindByName and DefineByPos are retained
	// by the library until the statement is executed or released.
	StmtPrepare2(svc, errh Handle, sql, key string, syntax, mode uint32) (Handle, Status)
	StmtRelease(stmt, errh Handle, key string, mode uint32) Status
	StmtExecute(svc, stmt, errh Handle, iters, rowoff, mode uint32) Status
	StmtFetch2(stmt, errh Handle, nrows uint32, orientation uint16, offset int32, mode uint32) Status
	BindByPos(stmt, errh Handle, pos uint32, value []byte, ty Type, ind *int16) (Handle, Status)
	BindByName(stmt, errh Handle, name string, value []byte, ty Type, ind *int16) (Handle, Status)
	DefineByPos(stmt, errh Handle, pos uint32, value []byte, ty Type, ind *int16, rlen, rcode *uint16) (Handle, Status)

	// Numbers. The integer width is len(out) or len(in).
	NumberToInt(errh Handle, num *Number, out []byte, signed bool) Status
	NumberFromInt(errh Handle, in []byte, signed bool, num *Number) Status
	NumberToReal(errh Handle, num *Number, out []byte) Status
	NumberToText(errh Handle, num *Number, format string, buf []byte) (int, Status)

	// Datetimes and intervals. h is the environment or session handle.
	DateTimeGetDate(h, errh, dt Handle) (year int16, month, day uint8, st Status)
	DateTimeGetTime(h, errh, dt Handle) (hour, minute, second uint8, fsec uint32, st Status)
	DateTimeGetTimeZoneOffset(h, errh, dt Handle) (hour, minute int8, st Status)
	IntervalGetYearMonth(h, errh, iv Handle) (year, month int32, st Status)
	IntervalGetDaySecond(h, errh, iv Handle) (day, hour, minute, second, fsec int32, st Status)
	IntervalToNumber(h, errh, iv Handle, num *Number) Status

	// LOB locators. Offsets are 1-based.
	LobGetLength(svc, errh, loc Handle) (uint64, Status)
	LobGetStorageLimit(svc, errh, loc Handle) (uint64, Status)
	LobGetChunkSize(svc, errh, loc Handle) (uint32, Status)
	LobTrim(svc, errh, loc Handle, length uint64) Status
	LobErase(svc, errh, loc Handle, amount, offset uint64) (uint64, Status)
	LobRead(svc, errh, loc Handle, offset uint64, buf []byte, piece Piece, csid uint16, csfrm CharsetForm) (uint64, Status)
	LobWrite(svc, errh, loc Handle, offset uint64, buf []byte, piece Piece, csid uint16, csfrm CharsetForm) (uint64, Status)
	LobOpen(svc, errh, loc Handle, mode LobOpenMode) Status
	LobClose(svc, errh, loc Handle) Status
	LobIsOpen(svc, errh, loc Handle) (bool, Status)
	LobCreateTemporary(svc, errh, loc Handle, csid uint16, csfrm CharsetForm, ty LobType, cache bool, duration Duration) Status
	LobFreeTemporary(svc, errh, loc Handle) Status
	LobIsTemporary(env, errh, loc Handle) (bool, Status)
	LobFileSetName(env, errh Handle, loc *Handle, dir, name string) Status
	LobFileExists(svc, errh, loc Handle) (bool, Status)
}
