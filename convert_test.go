package oci

import (
	"database/sql/driver"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slingdata-io/goci/native"
	"github.com/slingdata-io/goci/ocitest"
)

// =============================================================================
// Encoding Tests (convert.go)
// =============================================================================

type status int32

type celsius float64

type point struct{ X, Y int }

type upper string

func (u upper) Value() (driver.Value, error) {
	return "UPPER:" + string(u), nil
}

// offlineConn is enough of a connection to decode inline wire values
func offlineConn() *Connection {
	return &Connection{env: &Environment{err: &Handle{}}}
}

func TestToDB_Types(t *testing.T) {
	n := int32(7)
	var nilPtr *int64

	tests := []struct {
		name  string
		input any
		ty    Type
		size  int
		null  bool
	}{
		{"nil", nil, native.SQLT_CHR, 0, true},
		{"string", "hello", native.SQLT_CHR, 5, false},
		{"empty string", "", native.SQLT_CHR, 0, false},
		{"bytes", []byte{1, 2, 3}, native.SQLT_BIN, 3, false},
		{"nil bytes", []byte(nil), native.SQLT_BIN, 0, true},
		{"int", 42, native.SQLT_INT, 8, false},
		{"int8", int8(-1), native.SQLT_INT, 1, false},
		{"int16", int16(-1), native.SQLT_INT, 2, false},
		{"int32", int32(-1), native.SQLT_INT, 4, false},
		{"uint", uint(1), native.SQLT_UIN, 8, false},
		{"uint16", uint16(1), native.SQLT_UIN, 2, false},
		{"bool", true, native.SQLT_INT, 1, false},
		{"float32", float32(1.5), native.SQLT_BFLOAT, 4, false},
		{"float64", 1.5, native.SQLT_BDOUBLE, 8, false},
		{"decimal", decimal.RequireFromString("1.25"), native.SQLT_CHR, 4, false},
		{"time", time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC), native.SQLT_DAT, 7, false},
		{"civil date", civil.Date{Year: 2024, Month: 6, Day: 15}, native.SQLT_DAT, 7, false},
		{"pointer", &n, native.SQLT_INT, 4, false},
		{"nil pointer", nilPtr, native.SQLT_CHR, 0, true},
		{"named int", status(3), native.SQLT_INT, 8, false},
		{"named float", celsius(21.5), native.SQLT_BDOUBLE, 8, false},
		{"valuer", upper("x"), native.SQLT_CHR, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bv, err := toDB(nil, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.ty, bv.ty)
			assert.Equal(t, tt.null, bv.null)
			assert.Len(t, bv.data, tt.size)
		})
	}
}

func TestToDB_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"struct", point{1, 2}},
		{"map", map[string]int{"a": 1}},
		{"channel", make(chan int)},
		{"date before year 1", time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"date after 9999", civil.DateTime{Date: civil.Date{Year: 10000, Month: 1, Day: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toDB(nil, tt.input)
			assert.Error(t, err)
		})
	}
}

func TestEncodeDate_RoundTrip(t *testing.T) {
	tests := []civil.DateTime{
		{Date: civil.Date{Year: 1, Month: 1, Day: 1}},
		{Date: civil.Date{Year: 1999, Month: 12, Day: 31}, Time: civil.Time{Hour: 23, Minute: 59, Second: 59}},
		{Date: civil.Date{Year: 2024, Month: 2, Day: 29}, Time: civil.Time{Hour: 12, Minute: 30}},
		{Date: civil.Date{Year: 9999, Month: 12, Day: 31}, Time: civil.Time{Hour: 23, Minute: 59, Second: 59}},
	}

	for _, dt := range tests {
		t.Run(dt.String(), func(t *testing.T) {
			raw, err := encodeDate(dt)
			require.NoError(t, err)
			d, err := decodeDat(raw)
			require.NoError(t, err)
			assert.Equal(t, dt, d.civil())
		})
	}
}

func TestEncodeDate_DropsFraction(t *testing.T) {
	raw, err := encodeDate(civil.DateTime{Date: civil.Date{Year: 2024, Month: 1, Day: 2}, Time: civil.Time{Second: 5, Nanosecond: 999}})
	require.NoError(t, err)
	assert.Equal(t, []byte{120, 124, 1, 2, 1, 1, 6}, raw)
}

// =============================================================================
// Decoding Tests (convert.go)
// =============================================================================

func TestDecode_Rejections(t *testing.T) {
	conn := offlineConn()

	tests := []struct {
		name string
		ty   Type
		raw  []byte
		dest any
	}{
		{"binary to string", native.SQLT_BIN, []byte{1}, new(string)},
		{"invalid utf8", native.SQLT_CHR, []byte{0xff, 0xfe}, new(string)},
		{"string to bytes", native.SQLT_CHR, []byte("a"), new([]byte)},
		{"int width mismatch", native.SQLT_INT, []byte{1, 0}, new(int32)},
		{"signed int to unsigned", native.SQLT_INT, make([]byte, 8), new(uint64)},
		{"string to int", native.SQLT_CHR, []byte("1"), new(int64)},
		{"float width mismatch", native.SQLT_BDOUBLE, make([]byte, 4), new(float64)},
		{"string to bool", native.SQLT_CHR, []byte("1"), new(bool)},
		{"date to string", native.SQLT_DAT, make([]byte, 7), new(string)},
		{"short date", native.SQLT_DAT, make([]byte, 6), new(time.Time)},
		{"string to time", native.SQLT_CHR, []byte("2024"), new(time.Time)},
		{"string to duration", native.SQLT_CHR, []byte("1h"), new(time.Duration)},
		{"number to blob", native.SQLT_VNU, make([]byte, 22), new(Blob)},
		{"unsupported destination", native.SQLT_CHR, []byte("a"), new(point)},
		{"short locator", native.SQLT_TIMESTAMP, []byte{1}, new(time.Time)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromDB(tt.ty, tt.raw, conn, tt.dest)
			var conv *ConversionError
			assert.ErrorAs(t, err, &conv)
		})
	}
}

func TestDecode_NonPointer(t *testing.T) {
	var s point
	err := fromDB(native.SQLT_BIN, []byte{1}, offlineConn(), s)
	assert.Error(t, err)
}

func TestDecode_Inline(t *testing.T) {
	conn := offlineConn()
	le := binary.NativeEndian

	t.Run("varchar payloads", func(t *testing.T) {
		vcs := make([]byte, 2, 8)
		le.PutUint16(vcs, 3)
		vcs = append(vcs, "abc"...)

		for _, tc := range []struct {
			ty  Type
			raw []byte
		}{
			{native.SQLT_CHR, []byte("abc")},
			{native.SQLT_VCS, vcs},
			{native.SQLT_STR, []byte("abc\x00junk")},
			{native.SQLT_AVC, []byte("abc\x00")},
		} {
			var s string
			require.NoError(t, fromDB(tc.ty, tc.raw, conn, &s))
			assert.Equal(t, "abc", s)
		}
	})

	t.Run("varchar overflow", func(t *testing.T) {
		raw := make([]byte, 4)
		le.PutUint16(raw, 10)
		var s string
		var overflow *OverflowError
		assert.ErrorAs(t, fromDB(native.SQLT_VCS, raw, conn, &s), &overflow)
	})

	t.Run("integers", func(t *testing.T) {
		var i16 int16
		raw := make([]byte, 2)
		le.PutUint16(raw, uint16(0xFFFE))
		require.NoError(t, fromDB(native.SQLT_INT, raw, conn, &i16))
		assert.Equal(t, int16(-2), i16)

		var u32 uint32
		raw = make([]byte, 4)
		le.PutUint32(raw, math.MaxUint32)
		require.NoError(t, fromDB(native.SQLT_UIN, raw, conn, &u32))
		assert.Equal(t, uint32(math.MaxUint32), u32)
	})

	t.Run("floats", func(t *testing.T) {
		raw := make([]byte, 4)
		le.PutUint32(raw, math.Float32bits(2.5))
		var f64 float64
		require.NoError(t, fromDB(native.SQLT_BFLOAT, raw, conn, &f64))
		assert.Equal(t, 2.5, f64)

		raw = make([]byte, 8)
		le.PutUint64(raw, math.Float64bits(-0.125))
		var f32 float32
		require.NoError(t, fromDB(native.SQLT_BDOUBLE, raw, conn, &f32))
		assert.Equal(t, float32(-0.125), f32)
	})

	t.Run("byte arrays", func(t *testing.T) {
		var short [2]byte
		require.NoError(t, fromDB(native.SQLT_BIN, []byte{1, 2, 3}, conn, &short))
		assert.Equal(t, [2]byte{1, 2}, short)

		long := [4]byte{9, 9, 9, 9}
		require.NoError(t, fromDB(native.SQLT_BIN, []byte{1, 2}, conn, &long))
		assert.Equal(t, [4]byte{1, 2, 0, 0}, long)
	})

	t.Run("bool", func(t *testing.T) {
		var b bool
		require.NoError(t, fromDB(native.SQLT_INT, []byte{0}, conn, &b))
		assert.False(t, b)
		require.NoError(t, fromDB(native.SQLT_UIN, []byte{0, 1}, conn, &b))
		assert.True(t, b)
	})

	t.Run("date", func(t *testing.T) {
		raw := []byte{120, 124, 6, 15, 15, 31, 46}
		var tm time.Time
		require.NoError(t, fromDB(native.SQLT_DAT, raw, conn, &tm))
		assert.Equal(t, time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC), tm)

		var d civil.Date
		require.NoError(t, fromDB(native.SQLT_DAT, raw, conn, &d))
		assert.Equal(t, civil.Date{Year: 2024, Month: 6, Day: 15}, d)

		var ct civil.Time
		require.NoError(t, fromDB(native.SQLT_DAT, raw, conn, &ct))
		assert.Equal(t, civil.Time{Hour: 14, Minute: 30, Second: 45}, ct)
	})
}

// celsiusReading decodes itself from a BINARY_DOUBLE column
type celsiusReading struct {
	value float64
	ty    Type
}

func (c *celsiusReading) FromDB(ty Type, raw []byte, conn *Connection) error {
	c.ty = ty
	v, err := decodeFloat[float64](conn.numCodec(), ty, raw)
	c.value = v
	return err
}

func TestDecode_FromDBInterface(t *testing.T) {
	raw := make([]byte, 8)
	binary.NativeEndian.PutUint64(raw, math.Float64bits(36.6))

	var c celsiusReading
	require.NoError(t, fromDB(native.SQLT_BDOUBLE, raw, offlineConn(), &c))
	assert.Equal(t, 36.6, c.value)
	assert.Equal(t, native.SQLT_BDOUBLE, c.ty)
}

// =============================================================================
// Fetched Descriptor Values
// =============================================================================

func TestFetch_DateTimes(t *testing.T) {
	lib, conn := newTestConn(t)
	zone := time.FixedZone("", -(5*3600 + 30*60))
	ts := time.Date(2024, 3, 10, 8, 15, 30, 123456789, time.UTC)
	tz := time.Date(2024, 3, 10, 8, 15, 30, 500, zone)

	cols := []ocitest.Column{
		{Name: "DAT", Type: native.SQLT_DAT},
		{Name: "TS", Type: native.SQLT_TIMESTAMP},
		{Name: "TSTZ", Type: native.SQLT_TIMESTAMP_TZ},
		{Name: "DS", Type: native.SQLT_INTERVAL_DS},
		{Name: "YM", Type: native.SQLT_INTERVAL_YM},
		{Name: "NEG", Type: native.SQLT_INTERVAL_DS},
	}
	row := firstRow(t, lib, conn, "select dat, ts, tstz, ds, ym, neg from times", cols,
		ts.Truncate(time.Second), ts, tz, 36*time.Hour+90*time.Second, ocitest.YearMonth{Years: 1, Months: 6}, -90*time.Minute)

	got, err := Get[time.Time](row, "DAT")
	require.NoError(t, err)
	assert.Equal(t, ts.Truncate(time.Second), *got)

	got, err = Get[time.Time](row, "TS")
	require.NoError(t, err)
	assert.Equal(t, ts, *got)
	assert.Equal(t, time.UTC, got.Location())

	got, err = Get[time.Time](row, "TSTZ")
	require.NoError(t, err)
	assert.True(t, tz.Equal(*got))
	_, offset := got.Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)

	var dt civil.DateTime
	_, err = row.Get("TS", &dt)
	require.NoError(t, err)
	assert.Equal(t, civil.DateTimeOf(ts), dt)

	d, err := Get[time.Duration](row, "DS")
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour+90*time.Second, *d)

	days, err := Get[decimal.Decimal](row, "DS")
	require.NoError(t, err)
	assert.Equal(t, "1.5010416666666667", days.StringFixed(16))

	ym, err := Get[IntervalYM](row, "YM")
	require.NoError(t, err)
	assert.Equal(t, IntervalYM{Years: 1, Months: 6}, *ym)
	assert.Equal(t, "+1-06", ym.String())

	years, err := Get[decimal.Decimal](row, "YM")
	require.NoError(t, err)
	assert.Equal(t, "1.5", years.String())

	// Negative intervals do not convert to time.Duration
	_, err = Get[time.Duration](row, "NEG")
	var conv *ConversionError
	assert.ErrorAs(t, err, &conv)

	neg, err := Get[IntervalDS](row, "NEG")
	require.NoError(t, err)
	assert.True(t, neg.Negative())
	assert.Equal(t, -90*time.Minute, neg.Duration())
	assert.Equal(t, "-0 01:30:00.000000000", neg.String())

	v, err := row.Value("DS")
	require.NoError(t, err)
	assert.Equal(t, IntervalDS{Days: 1, Hours: 12, Minutes: 1, Seconds: 30}, v)
}
