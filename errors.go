package oci

import (
	"errors"
	"fmt"
	"strings"

	"github.com/slingdata-io/goci/native"
)

// Kind classifies the status returned by a native call
type Kind int

const (
	KindUnknown Kind = iota
	KindInfo
	KindNeedData
	KindNoData
	KindFault
	KindInvalidHandle
	KindStillExecuting
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindNeedData:
		return "need data"
	case KindNoData:
		return "no data"
	case KindFault:
		return "fault"
	case KindInvalidHandle:
		return "invalid handle"
	case KindStillExecuting:
		return "still executing"
	default:
		return "unknown"
	}
}

// Info is one diagnostic record read from an error handle
type Info struct {
	Code    int32
	Message string
}

// String returns the message in the ORA-NNNNN form. Messages from the client library
// already carry the prefix.
func (i Info) String() string {
	msg := strings.TrimRight(i.Message, "\n")
	if strings.HasPrefix(msg, "ORA-") {
		return msg
	}
	return fmt.Sprintf("ORA-%05d: %s", i.Code, msg)
}

// DbError is a non-success status from the native library together with the diagnostics
// read from the error handle. Code and Message are set for KindFault, Infos for KindInfo.
type DbError struct {
	Kind    Kind
	Status  native.Status
	Code    int32
	Message string
	Infos   []Info
}

// Error implements the error interface
func (e *DbError) Error() string {
	switch e.Kind {
	case KindFault:
		return Info{Code: e.Code, Message: e.Message}.String()
	case KindInfo:
		if len(e.Infos) == 0 {
			return "oci: success with info"
		}
		parts := make([]string, len(e.Infos))
		for i, info := range e.Infos {
			parts[i] = info.String()
		}
		return strings.Join(parts, "; ")
	case KindUnknown:
		return fmt.Sprintf("oci: unexpected status %s", native.FormatStatus(e.Status))
	default:
		return "oci: " + e.Kind.String()
	}
}

// Is reports whether target is a *DbError of the same kind.
// A target with a non-zero Code also has to match the code.
func (e *DbError) Is(target error) bool {
	t, ok := target.(*DbError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == 0 || t.Code == e.Code)
}

// Sentinels for errors.Is
var (
	ErrNoData         = &DbError{Kind: KindNoData, Status: native.OCI_NO_DATA}
	ErrNeedData       = &DbError{Kind: KindNeedData, Status: native.OCI_NEED_DATA}
	ErrInvalidHandle  = &DbError{Kind: KindInvalidHandle, Status: native.OCI_INVALID_HANDLE}
	ErrStillExecuting = &DbError{Kind: KindStillExecuting, Status: native.OCI_STILL_EXECUTING}
)

var (
	// ErrClosed is returned by any operation on a handle, connection or statement after Close
	ErrClosed = errors.New("oci: use of closed resource")
	// ErrBusy is returned when closing or reusing a resource that still has live dependents
	ErrBusy = errors.New("oci: resource has live dependents")
	// ErrInvalidColumn is returned when a column index or name does not resolve
	ErrInvalidColumn = errors.New("oci: invalid column")
	// ErrTerminateNotAcknowledged is returned by Terminate without TerminateAcknowledged
	ErrTerminateNotAcknowledged = errors.New("oci: terminate requires TerminateAcknowledged")
)

// Oracle error codes the library reacts to
const (
	codeFetchOutOfSequence = 1002
	codeNumericOverflow    = 1426
)

// ConversionError reports a wire type that cannot be converted to the requested Go type
type ConversionError struct {
	Type   native.Type
	Target string
}

func (e *ConversionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("oci: cannot convert from wire type %s", e.Type)
	}
	return fmt.Sprintf("oci: cannot convert wire type %s to %s", e.Type, e.Target)
}

// OverflowError reports a raw value larger than the buffer it is copied into
type OverflowError struct {
	Extracted int
	Capacity  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("oci: value of %d bytes overflows capacity of %d bytes", e.Extracted, e.Capacity)
}

// decode maps a native status to an error, reading diagnostics from the error handle errh
func decode(lib native.Native, st native.Status, errh native.Handle) error {
	return decodeFrom(lib, st, errh, native.OCI_HTYPE_ERROR)
}

// decodeFrom is decode for diagnostics held by a handle of another kind, the environment
// handle when the error handle does not exist yet
func decodeFrom(lib native.Native, st native.Status, h native.Handle, kind native.HandleKind) error {
	switch st {
	case native.OCI_SUCCESS:
		return nil
	case native.OCI_SUCCESS_WITH_INFO:
		return &DbError{Kind: KindInfo, Status: st, Infos: diagRecords(lib, h, kind)}
	case native.OCI_NEED_DATA:
		return &DbError{Kind: KindNeedData, Status: st}
	case native.OCI_NO_DATA:
		return &DbError{Kind: KindNoData, Status: st}
	case native.OCI_ERROR:
		e := &DbError{Kind: KindFault, Status: st}
		if h != 0 {
			code, msg, rst := lib.ErrorGet(h, 1, kind)
			if rst == native.OCI_SUCCESS {
				e.Code, e.Message = code, strings.TrimRight(msg, "\n")
			}
		}
		return e
	case native.OCI_INVALID_HANDLE:
		return &DbError{Kind: KindInvalidHandle, Status: st}
	case native.OCI_STILL_EXECUTING:
		return &DbError{Kind: KindStillExecuting, Status: st}
	default:
		return &DbError{Kind: KindUnknown, Status: st}
	}
}

// diagRecords retrieves all diagnostic records for a handle
func diagRecords(lib native.Native, h native.Handle, kind native.HandleKind) []Info {
	if h == 0 {
		return nil
	}
	var records []Info
	for i := uint32(1); ; i++ {
		code, msg, st := lib.ErrorGet(h, i, kind)
		if st != native.OCI_SUCCESS {
			break
		}
		records = append(records, Info{Code: code, Message: strings.TrimRight(msg, "\n")})
	}
	return records
}

// check is decode for calls whose warnings do not change the outcome.
// Info diagnostics are logged and the call counts as successful.
func check(lib native.Native, st native.Status, errh native.Handle, op string) error {
	err := decode(lib, st, errh)
	if err == nil {
		return nil
	}
	var dbErr *DbError
	if errors.As(err, &dbErr) && dbErr.Kind == KindInfo {
		logger().Debug().Str("op", op).Str("info", dbErr.Error()).Msg("call succeeded with info")
		return nil
	}
	return err
}

// IsFault reports whether err is a fault carrying the Oracle error code
func IsFault(err error, code int32) bool {
	var dbErr *DbError
	return errors.As(err, &dbErr) && dbErr.Kind == KindFault && dbErr.Code == code
}

// IsConnectionError reports whether err indicates a lost or unreachable server
func IsConnectionError(err error) bool {
	var dbErr *DbError
	if !errors.As(err, &dbErr) || dbErr.Kind != KindFault {
		return false
	}
	switch dbErr.Code {
	case 3113, 3114, 3135, 12170, 12514, 12537, 12541, 12543, 28547:
		return true
	}
	return false
}
