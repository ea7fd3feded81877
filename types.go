package oci

import (
	"fmt"
	"math"
	"time"

	"github.com/slingdata-io/goci/native"
)

// Type is the OCI wire type tag of a column or bind value
type Type = native.Type

// =============================================================================
// Environment and session modes
// =============================================================================

// CreateMode is the bit set passed to OCIEnvNlsCreate
type CreateMode uint32

const (
	CreateDefault                CreateMode = 0
	CreateThreaded               CreateMode = 1 << 0
	CreateObject                 CreateMode = 1 << 1
	CreateEvents                 CreateMode = 1 << 2
	CreateNoUcb                  CreateMode = 1 << 6
	CreateEnvNoMutex             CreateMode = 1 << 7
	CreateSuppressNlsValidation  CreateMode = 1 << 20
	CreateNCharLiteralReplaceOn  CreateMode = 1 << 22
	CreateNCharLiteralReplaceOff CreateMode = 1 << 23
	CreateEnableNlsValidation    CreateMode = 1 << 24
)

// AttachMode selects how the server handle is attached
type AttachMode uint32

const (
	AttachDefault AttachMode = 0
	// AttachPooled attaches through a connection pool created outside this package
	AttachPooled AttachMode = 1 << 9
)

// AuthMode is the bit set passed to OCISessionBegin
type AuthMode uint32

const (
	AuthDefault    AuthMode = 0
	AuthMigrate    AuthMode = 1 << 0
	AuthSysDba     AuthMode = 1 << 1
	AuthSysOper    AuthMode = 1 << 2
	AuthPrelimAuth AuthMode = 1 << 3
	AuthStmtCache  AuthMode = 1 << 6
)

// Syntax is the SQL dialect a statement is parsed with
type Syntax uint32

const (
	SyntaxNative  Syntax = 1
	SyntaxV7      Syntax = 2
	SyntaxForeign Syntax = math.MaxUint32
)

// Charset is an Oracle character set id. Zero means the NLS_LANG setting.
type Charset uint16

const (
	CharsetDefault   Charset = 0
	CharsetUS7ASCII  Charset = 1
	CharsetUTF8      Charset = 871
	CharsetAL32UTF8  Charset = 873
	CharsetAL16UTF16 Charset = 2000
)

// InitParams configures NewEnvironment
type InitParams struct {
	Mode     CreateMode
	Charset  Charset
	NCharset Charset
}

// Credentials selects how a session authenticates. It is Rdbms or External.
type Credentials interface {
	credentialMode() uint32
}

// Rdbms authenticates with a database user name and password
type Rdbms struct {
	Username string
	Password string
}

func (Rdbms) credentialMode() uint32 { return native.OCI_CRED_RDBMS }

// External authenticates with credentials held outside the database, e.g. OS authentication or a wallet
type External struct{}

func (External) credentialMode() uint32 { return native.OCI_CRED_EXT }

// ConnectParams configures Environment.Connect
type ConnectParams struct {
	DBLink      string
	AttachMode  AttachMode
	Credentials Credentials
	AuthMode    AuthMode
}

// =============================================================================
// Interval types
// =============================================================================

// IntervalYM is an INTERVAL YEAR TO MONTH value. Both fields carry the sign.
type IntervalYM struct {
	Years  int32
	Months int32
}

func (i IntervalYM) String() string {
	if i.Years < 0 || i.Months < 0 {
		return fmt.Sprintf("-%d-%02d", -i.Years, -i.Months)
	}
	return fmt.Sprintf("+%d-%02d", i.Years, i.Months)
}

// IntervalDS is an INTERVAL DAY TO SECOND value. All fields carry the sign.
type IntervalDS struct {
	Days        int32
	Hours       int32
	Minutes     int32
	Seconds     int32
	Nanoseconds int32
}

// Negative reports whether any component is negative
func (i IntervalDS) Negative() bool {
	return i.Days < 0 || i.Hours < 0 || i.Minutes < 0 || i.Seconds < 0 || i.Nanoseconds < 0
}

// Duration converts the interval to a time.Duration, keeping the sign
func (i IntervalDS) Duration() time.Duration {
	return time.Duration(i.Days)*24*time.Hour +
		time.Duration(i.Hours)*time.Hour +
		time.Duration(i.Minutes)*time.Minute +
		time.Duration(i.Seconds)*time.Second +
		time.Duration(i.Nanoseconds)
}

func (i IntervalDS) String() string {
	sign, a := "+", i
	if i.Negative() {
		sign = "-"
		a = IntervalDS{-i.Days, -i.Hours, -i.Minutes, -i.Seconds, -i.Nanoseconds}
	}
	return fmt.Sprintf("%s%d %02d:%02d:%02d.%09d", sign, a.Days, a.Hours, a.Minutes, a.Seconds, a.Nanoseconds)
}
