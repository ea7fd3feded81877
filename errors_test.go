package oci

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slingdata-io/goci/native"
	"github.com/slingdata-io/goci/ocitest"
)

// =============================================================================
// Status Decoding Tests (errors.go)
// =============================================================================

func TestDecode_Statuses(t *testing.T) {
	lib := ocitest.New()

	tests := []struct {
		status native.Status
		kind   Kind
		target error
	}{
		{native.OCI_NEED_DATA, KindNeedData, ErrNeedData},
		{native.OCI_NO_DATA, KindNoData, ErrNoData},
		{native.OCI_INVALID_HANDLE, KindInvalidHandle, ErrInvalidHandle},
		{native.OCI_STILL_EXECUTING, KindStillExecuting, ErrStillExecuting},
		{native.Status(42), KindUnknown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := decode(lib, tt.status, 0)
			var dbErr *DbError
			require.True(t, errors.As(err, &dbErr))
			assert.Equal(t, tt.kind, dbErr.Kind)
			assert.Equal(t, tt.status, dbErr.Status)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}

	assert.NoError(t, decode(lib, native.OCI_SUCCESS, 0))
}

func TestDecode_FaultReadsRecord(t *testing.T) {
	lib, conn := newTestConn(t)
	lib.FailNext("TransCommit", 2091, "transaction rolled back")

	err := conn.Commit()
	var dbErr *DbError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, KindFault, dbErr.Kind)
	assert.Equal(t, int32(2091), dbErr.Code)
	assert.Equal(t, "ORA-02091: transaction rolled back", dbErr.Message)
	assert.Equal(t, "ORA-02091: transaction rolled back", err.Error())

	assert.ErrorIs(t, err, &DbError{Kind: KindFault})
	assert.ErrorIs(t, err, &DbError{Kind: KindFault, Code: 2091})
	assert.NotErrorIs(t, err, &DbError{Kind: KindFault, Code: 1})
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestCheck_InfoIsSuccess(t *testing.T) {
	lib, conn := newTestConn(t)
	lib.Inject("Ping", ocitest.Fault{Status: native.OCI_SUCCESS_WITH_INFO, Code: 28002, Message: "the password will expire within 7 days"})

	require.NoError(t, conn.Ping())

	lib.Inject("Ping", ocitest.Fault{Status: native.OCI_SUCCESS_WITH_INFO, Code: 28002, Message: "the password will expire within 7 days"})
	err := decode(lib, lib.Ping(conn.svc.raw, conn.errh(), native.OCI_DEFAULT), conn.errh())
	var dbErr *DbError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, KindInfo, dbErr.Kind)
	require.Len(t, dbErr.Infos, 1)
	assert.Equal(t, int32(28002), dbErr.Infos[0].Code)
	assert.Equal(t, "ORA-28002: the password will expire within 7 days", err.Error())
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Code: 1403, Message: "no data found"}, "ORA-01403: no data found"},
		{Info{Code: 1403, Message: "ORA-01403: no data found\n"}, "ORA-01403: no data found"},
		{Info{Code: 24345, Message: "A Truncation or null fetch error occurred"}, "ORA-24345: A Truncation or null fetch error occurred"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.info.String())
	}
}

func TestDbError_Messages(t *testing.T) {
	assert.Equal(t, "oci: no data", ErrNoData.Error())
	assert.Equal(t, "oci: success with info", (&DbError{Kind: KindInfo}).Error())
	assert.Contains(t, (&DbError{Kind: KindUnknown, Status: 42}).Error(), "unexpected status")

	multi := &DbError{Kind: KindInfo, Infos: []Info{{Code: 1, Message: "a"}, {Code: 2, Message: "b"}}}
	assert.Equal(t, "ORA-00001: a; ORA-00002: b", multi.Error())
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&DbError{Kind: KindFault, Code: 3113}, true},
		{fmt.Errorf("wrapped: %w", &DbError{Kind: KindFault, Code: 12541}), true},
		{&DbError{Kind: KindFault, Code: 942}, false},
		{&DbError{Kind: KindNoData, Code: 3113}, false},
		{errors.New("other"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsConnectionError(tt.err), "%v", tt.err)
	}
}

func TestConversionErrors(t *testing.T) {
	assert.Equal(t, "oci: cannot convert wire type CHR to int64", (&ConversionError{Type: native.SQLT_CHR, Target: "int64"}).Error())
	assert.Equal(t, "oci: cannot convert from wire type BLOB", (&ConversionError{Type: native.SQLT_BLOB}).Error())
	assert.Equal(t, "oci: value of 22 bytes overflows capacity of 21 bytes", (&OverflowError{Extracted: 22, Capacity: 21}).Error())
}
