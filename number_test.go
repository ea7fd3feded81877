package oci

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/constraints"

	"github.com/slingdata-io/goci/native"
	"github.com/slingdata-io/goci/ocitest"
)

// =============================================================================
// Number Tests (number.go)
// =============================================================================

func roundTrip[I constraints.Integer](t *testing.T, conn *Connection, values ...I) {
	t.Helper()
	for _, v := range values {
		n, err := NewNumber(conn, v)
		require.NoError(t, err)

		raw := n.Native()
		var got I
		require.NoError(t, fromDB(native.SQLT_VNU, raw[:], conn, &got), "value %v", v)
		assert.Equal(t, v, got)

		got = 0
		require.NoError(t, fromDB(native.SQLT_NUM, n.Bytes(), conn, &got), "value %v", v)
		assert.Equal(t, v, got)
	}
}

func TestNumber_IntegerRoundTrip(t *testing.T) {
	_, conn := newTestConn(t)

	t.Run("int8", func(t *testing.T) { roundTrip[int8](t, conn, math.MinInt8, -1, 0, math.MaxInt8) })
	t.Run("int16", func(t *testing.T) { roundTrip[int16](t, conn, math.MinInt16, -1, 0, math.MaxInt16) })
	t.Run("int32", func(t *testing.T) { roundTrip[int32](t, conn, math.MinInt32, -1, 0, math.MaxInt32) })
	t.Run("int64", func(t *testing.T) { roundTrip[int64](t, conn, math.MinInt64, -1, 0, math.MaxInt64) })
	t.Run("int", func(t *testing.T) { roundTrip[int](t, conn, math.MinInt, -1, 0, math.MaxInt) })
	t.Run("uint8", func(t *testing.T) { roundTrip[uint8](t, conn, 0, 1, math.MaxUint8) })
	t.Run("uint16", func(t *testing.T) { roundTrip[uint16](t, conn, 0, 1, math.MaxUint16) })
	t.Run("uint32", func(t *testing.T) { roundTrip[uint32](t, conn, 0, 1, math.MaxUint32) })
	t.Run("uint64", func(t *testing.T) { roundTrip[uint64](t, conn, 0, 1, math.MaxUint64) })
}

func TestNumber_Conversions(t *testing.T) {
	_, conn := newTestConn(t)
	n, err := NewNumber(conn, int64(-12345))
	require.NoError(t, err)

	i, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), i)

	f, err := n.Float64()
	require.NoError(t, err)
	assert.Equal(t, float64(-12345), f)

	d, err := n.Decimal()
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(-12345)))
	assert.Equal(t, "-12345", n.String())
}

func TestNumber_Unbound(t *testing.T) {
	var n Number
	_, err := n.Int64()
	assert.Error(t, err)
	assert.Contains(t, n.String(), "Number(")
}

func TestNumber_NarrowingOverflow(t *testing.T) {
	_, conn := newTestConn(t)
	n, err := NewNumber(conn, 300)
	require.NoError(t, err)

	var small int8
	err = fromDB(native.SQLT_VNU, n.raw[:], conn, &small)
	assert.True(t, IsFault(err, 22053))
	assert.Zero(t, small)

	var unsigned uint32
	neg, err := NewNumber(conn, -1)
	require.NoError(t, err)
	err = fromDB(native.SQLT_VNU, neg.raw[:], conn, &unsigned)
	assert.True(t, IsFault(err, 22053))
}

func TestNumberFromWire_Overflow(t *testing.T) {
	tests := []struct {
		ty       Type
		size     int
		capacity int
	}{
		{native.SQLT_NUM, 22, 21},
		{native.SQLT_VNU, 23, 22},
	}

	for _, tt := range tests {
		t.Run(tt.ty.String(), func(t *testing.T) {
			_, err := numberFromWire(tt.ty, make([]byte, tt.size))
			var overflow *OverflowError
			require.ErrorAs(t, err, &overflow)
			assert.Equal(t, tt.size, overflow.Extracted)
			assert.Equal(t, tt.capacity, overflow.Capacity)
		})
	}

	_, err := numberFromWire(native.SQLT_CHR, []byte("1"))
	var conv *ConversionError
	assert.ErrorAs(t, err, &conv)
}

func TestNumber_FetchedValues(t *testing.T) {
	lib, conn := newTestConn(t)
	cols := []ocitest.Column{
		{Name: "I", Type: native.SQLT_NUM, Precision: 10},
		{Name: "D", Type: native.SQLT_NUM, Precision: 10, Scale: 2},
		{Name: "BIG", Type: native.SQLT_NUM, Precision: 38},
	}
	row := firstRow(t, lib, conn, "select i, d, big from numbers", cols,
		42, decimal.RequireFromString("-3.25"), decimal.RequireFromString("123456789012345678901234567890"))

	v, err := row.Value("I")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = row.Value("D")
	require.NoError(t, err)
	assert.Equal(t, "-3.25", v.(decimal.Decimal).String())

	v, err = row.Value("BIG")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", v.(decimal.Decimal).String())

	var f float64
	ok, err := row.Get("D", &f)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -3.25, f)

	var truncated int
	_, err = row.Get("D", &truncated)
	require.NoError(t, err)
	assert.Equal(t, -3, truncated)

	var overflow int64
	_, err = row.Get("BIG", &overflow)
	assert.True(t, IsFault(err, 22053))

	var b bool
	_, err = row.Get("I", &b)
	require.NoError(t, err)
	assert.True(t, b)

	var num Number
	_, err = row.Get("I", &num)
	require.NoError(t, err)
	assert.Equal(t, "42", num.String())
}
