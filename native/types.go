package native

import (
	"fmt"
	"unsafe"
)

// OCI opaque pointer
type Handle uintptr

// OCI return code (sword)
type Status int32

// Handle type identifiers (OCI_HTYPE_*)
type HandleKind uint32

// Descriptor type identifiers (OCI_DTYPE_*)
type DescriptorKind uint32

// Attribute identifiers (OCI_ATTR_*)
type Attr uint32

// Wire data types (SQLT_*)
type Type uint16

// NumberSize is the byte size of an OCINumber.
const NumberSize = 22

// Number is the OCINumber packed decimal: a length byte followed by up to 21 bytes of
// exponent and base-100 mantissa.
type Number [NumberSize]byte

// PointerSize is the size of a native pointer, used to validate descriptor slots in fetch buffers.
const PointerSize = int(unsafe.Sizeof(uintptr(0)))

// Null handle constant
const OCI_NULL_HANDLE Handle = 0

// Return codes
const (
	OCI_SUCCESS           Status = 0
	OCI_SUCCESS_WITH_INFO Status = 1
	OCI_NEED_DATA         Status = 99
	OCI_NO_DATA           Status = 100
	OCI_ERROR             Status = -1
	OCI_INVALID_HANDLE    Status = -2
	OCI_STILL_EXECUTING   Status = -3123
)

// Handle types
const (
	OCI_HTYPE_ENV            HandleKind = 1
	OCI_HTYPE_ERROR          HandleKind = 2
	OCI_HTYPE_SVCCTX         HandleKind = 3
	OCI_HTYPE_STMT           HandleKind = 4
	OCI_HTYPE_BIND           HandleKind = 5
	OCI_HTYPE_DEFINE         HandleKind = 6
	OCI_HTYPE_DESCRIBE       HandleKind = 7
	OCI_HTYPE_SERVER         HandleKind = 8
	OCI_HTYPE_SESSION        HandleKind = 9
	OCI_HTYPE_TRANS          HandleKind = 10
	OCI_HTYPE_COMPLEXOBJECT  HandleKind = 11
	OCI_HTYPE_SUBSCRIPTION   HandleKind = 13
	OCI_HTYPE_DIRPATH_CTX    HandleKind = 14
	OCI_HTYPE_DIRPATH_COLUMN HandleKind = 15
	OCI_HTYPE_DIRPATH_STREAM HandleKind = 16
	OCI_HTYPE_PROC           HandleKind = 17
	OCI_HTYPE_DIRPATH_FN_CTX HandleKind = 18
	OCI_HTYPE_CPOOL          HandleKind = 26
	OCI_HTYPE_SPOOL          HandleKind = 27
	OCI_HTYPE_ADMIN          HandleKind = 28
)

// Descriptor types
const (
	OCI_DTYPE_LOB               DescriptorKind = 50
	OCI_DTYPE_SNAP              DescriptorKind = 51
	OCI_DTYPE_RSET              DescriptorKind = 52
	OCI_DTYPE_PARAM             DescriptorKind = 53
	OCI_DTYPE_ROWID             DescriptorKind = 54
	OCI_DTYPE_COMPLEXOBJECTCOMP DescriptorKind = 55
	OCI_DTYPE_FILE              DescriptorKind = 56
	OCI_DTYPE_AQENQ_OPTIONS     DescriptorKind = 57
	OCI_DTYPE_AQDEQ_OPTIONS     DescriptorKind = 58
	OCI_DTYPE_AQMSG_PROPERTIES  DescriptorKind = 59
	OCI_DTYPE_AQAGENT           DescriptorKind = 60
	OCI_DTYPE_LOCATOR           DescriptorKind = 61
	OCI_DTYPE_INTERVAL_YM       DescriptorKind = 62
	OCI_DTYPE_INTERVAL_DS       DescriptorKind = 63
	OCI_DTYPE_AQNFY_DESCRIPTOR  DescriptorKind = 64
	OCI_DTYPE_DATE              DescriptorKind = 65
	OCI_DTYPE_TIME              DescriptorKind = 66
	OCI_DTYPE_TIME_TZ           DescriptorKind = 67
	OCI_DTYPE_TIMESTAMP         DescriptorKind = 68
	OCI_DTYPE_TIMESTAMP_TZ      DescriptorKind = 69
	OCI_DTYPE_TIMESTAMP_LTZ     DescriptorKind = 70
	OCI_DTYPE_UCB               DescriptorKind = 71
	OCI_DTYPE_SRVDN             DescriptorKind = 72
	OCI_DTYPE_SIGNATURE         DescriptorKind = 73
)

// Attributes.
// OCI_ATTR_SCALE and OCI_ATTR_SERVER share the value 6; scale is read from a parameter
// descriptor and server is set on a service context, so the target type disambiguates them.
const (
	OCI_ATTR_DATA_SIZE       Attr = 1
	OCI_ATTR_DATA_TYPE       Attr = 2
	OCI_ATTR_NAME            Attr = 4
	OCI_ATTR_PRECISION       Attr = 5
	OCI_ATTR_SCALE           Attr = 6
	OCI_ATTR_SERVER          Attr = 6
	OCI_ATTR_SESSION         Attr = 7
	OCI_ATTR_ROW_COUNT       Attr = 9
	OCI_ATTR_PREFETCH_ROWS   Attr = 11
	OCI_ATTR_PARAM_COUNT     Attr = 18
	OCI_ATTR_USERNAME        Attr = 22
	OCI_ATTR_PASSWORD        Attr = 23
	OCI_ATTR_STMT_TYPE       Attr = 24
	OCI_ATTR_ENV_CHARSET_ID  Attr = 31
	OCI_ATTR_ENV_NCHARSET_ID Attr = 262
)

// Statement types reported by OCI_ATTR_STMT_TYPE
const (
	OCI_STMT_UNKNOWN uint16 = 0
	OCI_STMT_SELECT  uint16 = 1
	OCI_STMT_UPDATE  uint16 = 2
	OCI_STMT_DELETE  uint16 = 3
	OCI_STMT_INSERT  uint16 = 4
	OCI_STMT_CREATE  uint16 = 5
	OCI_STMT_DROP    uint16 = 6
	OCI_STMT_ALTER   uint16 = 7
	OCI_STMT_BEGIN   uint16 = 8
	OCI_STMT_DECLARE uint16 = 9
	OCI_STMT_CALL    uint16 = 10
	OCI_STMT_MERGE   uint16 = 16
)

// Fetch orientation
const (
	OCI_FETCH_CURRENT  uint16 = 0x01
	OCI_FETCH_NEXT     uint16 = 0x02
	OCI_FETCH_FIRST    uint16 = 0x04
	OCI_FETCH_LAST     uint16 = 0x08
	OCI_FETCH_PRIOR    uint16 = 0x10
	OCI_FETCH_ABSOLUTE uint16 = 0x20
	OCI_FETCH_RELATIVE uint16 = 0x40
)

// Number conversion flags
const (
	OCI_NUMBER_UNSIGNED uint32 = 0
	OCI_NUMBER_SIGNED   uint32 = 2
)

// Credential types for OCISessionBegin
const (
	OCI_CRED_RDBMS uint32 = 1
	OCI_CRED_EXT   uint32 = 2
)

// Default mode for every call taking a mode argument
const OCI_DEFAULT uint32 = 0

// LOB piece markers
type Piece uint8

const (
	OCI_ONE_PIECE   Piece = 0
	OCI_FIRST_PIECE Piece = 1
	OCI_NEXT_PIECE  Piece = 2
	OCI_LAST_PIECE  Piece = 3
)

// LOB character set forms
type CharsetForm uint8

const (
	SQLCS_IMPLICIT CharsetForm = 1
	SQLCS_NCHAR    CharsetForm = 2
	SQLCS_EXPLICIT CharsetForm = 3
	SQLCS_FLEXIBLE CharsetForm = 4
	SQLCS_LIT_NULL CharsetForm = 5
)

// LOB open modes
type LobOpenMode uint8

const (
	OCI_LOB_READONLY      LobOpenMode = 1
	OCI_LOB_READWRITE     LobOpenMode = 2
	OCI_LOB_WRITEONLY     LobOpenMode = 3
	OCI_LOB_APPENDONLY    LobOpenMode = 4
	OCI_LOB_FULLOVERWRITE LobOpenMode = 5
	OCI_FILE_READONLY     LobOpenMode = 1
)

// Temporary LOB types
type LobType uint8

const (
	OCI_TEMP_BLOB LobType = 1
	OCI_TEMP_CLOB LobType = 2
)

// Object durations
type Duration uint16

const (
	OCI_DURATION_PROCESS   Duration = 5
	OCI_DURATION_NEXT      Duration = 6
	OCI_DURATION_DEFAULT   Duration = 8
	OCI_DURATION_NULL      Duration = 9
	OCI_DURATION_SESSION   Duration = 10
	OCI_DURATION_TRANS     Duration = 11
	OCI_DURATION_CALL      Duration = 12
	OCI_DURATION_STATEMENT Duration = 13
)

// Wire data types
const (
	SQLT_CHR           Type = 1
	SQLT_NUM           Type = 2
	SQLT_INT           Type = 3
	SQLT_FLT           Type = 4
	SQLT_STR           Type = 5
	SQLT_VNU           Type = 6
	SQLT_PDN           Type = 7
	SQLT_LNG           Type = 8
	SQLT_VCS           Type = 9
	SQLT_NON           Type = 10
	SQLT_RID           Type = 11
	SQLT_DAT           Type = 12
	SQLT_VBI           Type = 15
	SQLT_BFLOAT        Type = 21
	SQLT_BDOUBLE       Type = 22
	SQLT_BIN           Type = 23
	SQLT_LBI           Type = 24
	SQLT_UIN           Type = 68
	SQLT_SLS           Type = 91
	SQLT_LVC           Type = 94
	SQLT_LVB           Type = 95
	SQLT_AFC           Type = 96
	SQLT_AVC           Type = 97
	SQLT_IBFLOAT       Type = 100
	SQLT_IBDOUBLE      Type = 101
	SQLT_CUR           Type = 102
	SQLT_RDD           Type = 104
	SQLT_LAB           Type = 105
	SQLT_OSL           Type = 106
	SQLT_NTY           Type = 108
	SQLT_REF           Type = 110
	SQLT_CLOB          Type = 112
	SQLT_BLOB          Type = 113
	SQLT_BFILEE        Type = 114
	SQLT_CFILEE        Type = 115
	SQLT_RSET          Type = 116
	SQLT_NCO           Type = 122
	SQLT_VST           Type = 155
	SQLT_ODT           Type = 156
	SQLT_DATE          Type = 184
	SQLT_TIME          Type = 185
	SQLT_TIME_TZ       Type = 186
	SQLT_TIMESTAMP     Type = 187
	SQLT_TIMESTAMP_TZ  Type = 188
	SQLT_INTERVAL_YM   Type = 189
	SQLT_INTERVAL_DS   Type = 190
	SQLT_TIMESTAMP_LTZ Type = 232
	SQLT_PNTY          Type = 241
	SQLT_REC           Type = 250
	SQLT_TAB           Type = 251
	SQLT_BOL           Type = 252
)

// String returns the OCI name of the wire type without the SQLT_ prefix
func (t Type) String() string {
	switch t {
	case SQLT_CHR:
		return "CHR"
	case SQLT_NUM:
		return "NUM"
	case SQLT_INT:
		return "INT"
	case SQLT_FLT:
		return "FLT"
	case SQLT_STR:
		return "STR"
	case SQLT_VNU:
		return "VNU"
	case SQLT_PDN:
		return "PDN"
	case SQLT_LNG:
		return "LNG"
	case SQLT_VCS:
		return "VCS"
	case SQLT_NON:
		return "NON"
	case SQLT_RID:
		return "RID"
	case SQLT_DAT:
		return "DAT"
	case SQLT_VBI:
		return "VBI"
	case SQLT_BFLOAT:
		return "BFLOAT"
	case SQLT_BDOUBLE:
		return "BDOUBLE"
	case SQLT_BIN:
		return "BIN"
	case SQLT_LBI:
		return "LBI"
	case SQLT_UIN:
		return "UIN"
	case SQLT_SLS:
		return "SLS"
	case SQLT_LVC:
		return "LVC"
	case SQLT_LVB:
		return "LVB"
	case SQLT_AFC:
		return "AFC"
	case SQLT_AVC:
		return "AVC"
	case SQLT_IBFLOAT:
		return "IBFLOAT"
	case SQLT_IBDOUBLE:
		return "IBDOUBLE"
	case SQLT_CUR:
		return "CUR"
	case SQLT_RDD:
		return "RDD"
	case SQLT_LAB:
		return "LAB"
	case SQLT_OSL:
		return "OSL"
	case SQLT_NTY:
		return "NTY"
	case SQLT_REF:
		return "REF"
	case SQLT_CLOB:
		return "CLOB"
	case SQLT_BLOB:
		return "BLOB"
	case SQLT_BFILEE:
		return "BFILEE"
	case SQLT_CFILEE:
		return "CFILEE"
	case SQLT_RSET:
		return "RSET"
	case SQLT_NCO:
		return "NCO"
	case SQLT_VST:
		return "VST"
	case SQLT_ODT:
		return "ODT"
	case SQLT_DATE:
		return "DATE"
	case SQLT_TIME:
		return "TIME"
	case SQLT_TIME_TZ:
		return "TIME_TZ"
	case SQLT_TIMESTAMP:
		return "TIMESTAMP"
	case SQLT_TIMESTAMP_TZ:
		return "TIMESTAMP_TZ"
	case SQLT_INTERVAL_YM:
		return "INTERVAL_YM"
	case SQLT_INTERVAL_DS:
		return "INTERVAL_DS"
	case SQLT_TIMESTAMP_LTZ:
		return "TIMESTAMP_LTZ"
	case SQLT_PNTY:
		return "PNTY"
	case SQLT_REC:
		return "REC"
	case SQLT_TAB:
		return "TAB"
	case SQLT_BOL:
		return "BOL"
	default:
		return fmt.Sprintf("Type(%d)", uint16(t))
	}
}

// Descriptor returns the descriptor kind backing a fetch buffer of this wire type,
// or false if values of the type are stored inline.
func (t Type) Descriptor() (DescriptorKind, bool) {
	switch t {
	case SQLT_DATE:
		return OCI_DTYPE_DATE, true
	case SQLT_TIMESTAMP:
		return OCI_DTYPE_TIMESTAMP, true
	case SQLT_TIMESTAMP_TZ:
		return OCI_DTYPE_TIMESTAMP_TZ, true
	case SQLT_TIMESTAMP_LTZ:
		return OCI_DTYPE_TIMESTAMP_LTZ, true
	case SQLT_INTERVAL_YM:
		return OCI_DTYPE_INTERVAL_YM, true
	case SQLT_INTERVAL_DS:
		return OCI_DTYPE_INTERVAL_DS, true
	case SQLT_CLOB, SQLT_BLOB:
		return OCI_DTYPE_LOB, true
	case SQLT_BFILEE, SQLT_CFILEE:
		return OCI_DTYPE_FILE, true
	}
	return 0, false
}

func (k HandleKind) String() string {
	switch k {
	case OCI_HTYPE_ENV:
		return "Env"
	case OCI_HTYPE_ERROR:
		return "Error"
	case OCI_HTYPE_SVCCTX:
		return "SvcCtx"
	case OCI_HTYPE_STMT:
		return "Stmt"
	case OCI_HTYPE_BIND:
		return "Bind"
	case OCI_HTYPE_DEFINE:
		return "Define"
	case OCI_HTYPE_DESCRIBE:
		return "Describe"
	case OCI_HTYPE_SERVER:
		return "Server"
	case OCI_HTYPE_SESSION:
		return "Session"
	case OCI_HTYPE_TRANS:
		return "Trans"
	case OCI_HTYPE_COMPLEXOBJECT:
		return "ComplexObject"
	case OCI_HTYPE_SUBSCRIPTION:
		return "Subscription"
	case OCI_HTYPE_DIRPATH_CTX:
		return "DirPathCtx"
	case OCI_HTYPE_DIRPATH_COLUMN:
		return "DirPathColArray"
	case OCI_HTYPE_DIRPATH_STREAM:
		return "DirPathStream"
	case OCI_HTYPE_PROC:
		return "Process"
	case OCI_HTYPE_DIRPATH_FN_CTX:
		return "DirPathFuncCtx"
	case OCI_HTYPE_CPOOL:
		return "CPool"
	case OCI_HTYPE_SPOOL:
		return "SPool"
	case OCI_HTYPE_ADMIN:
		return "Admin"
	default:
		return fmt.Sprintf("HandleKind(%d)", uint32(k))
	}
}

func (k DescriptorKind) String() string {
	switch k {
	case OCI_DTYPE_LOB:
		return "Lob"
	case OCI_DTYPE_SNAP:
		return "Snapshot"
	case OCI_DTYPE_RSET:
		return "ResultSet"
	case OCI_DTYPE_PARAM:
		return "Param"
	case OCI_DTYPE_ROWID:
		return "RowID"
	case OCI_DTYPE_COMPLEXOBJECTCOMP:
		return "ComplexObjectComp"
	case OCI_DTYPE_FILE:
		return "File"
	case OCI_DTYPE_LOCATOR:
		return "Locator"
	case OCI_DTYPE_INTERVAL_YM:
		return "IntervalYM"
	case OCI_DTYPE_INTERVAL_DS:
		return "IntervalDS"
	case OCI_DTYPE_DATE:
		return "Date"
	case OCI_DTYPE_TIME:
		return "Time"
	case OCI_DTYPE_TIME_TZ:
		return "TimeTZ"
	case OCI_DTYPE_TIMESTAMP:
		return "Timestamp"
	case OCI_DTYPE_TIMESTAMP_TZ:
		return "TimestampTZ"
	case OCI_DTYPE_TIMESTAMP_LTZ:
		return "TimestampLTZ"
	case OCI_DTYPE_UCB:
		return "UserCallback"
	case OCI_DTYPE_SRVDN:
		return "ServerDN"
	case OCI_DTYPE_SIGNATURE:
		return "Signature"
	default:
		return fmt.Sprintf("DescriptorKind(%d)", uint32(k))
	}
}

// IsSuccess checks if an OCI return code indicates success
func IsSuccess(st Status) bool {
	return st == OCI_SUCCESS || st == OCI_SUCCESS_WITH_INFO
}

// FormatStatus returns a string representation of an OCI return code
func FormatStatus(st Status) string {
	switch st {
	case OCI_SUCCESS:
		return "OCI_SUCCESS"
	case OCI_SUCCESS_WITH_INFO:
		return "OCI_SUCCESS_WITH_INFO"
	case OCI_NEED_DATA:
		return "OCI_NEED_DATA"
	case OCI_NO_DATA:
		return "OCI_NO_DATA"
	case OCI_ERROR:
		return "OCI_ERROR"
	case OCI_INVALID_HANDLE:
		return "OCI_INVALID_HANDLE"
	case OCI_STILL_EXECUTING:
		return "OCI_STILL_EXECUTING"
	default:
		return fmt.Sprintf("Status(%d)", int32(st))
	}
}
