package ocitest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slingdata-io/goci/native"
)

// =============================================================================
// NUMBER encoding
// =============================================================================

func TestEncodeNumber_KnownBytes(t *testing.T) {
	tests := []struct {
		value string
		bytes []byte
	}{
		{"0", []byte{0x80}},
		{"1", []byte{0xC1, 0x02}},
		{"100", []byte{0xC2, 0x02}},
		{"123", []byte{0xC2, 0x02, 0x18}},
		{"0.5", []byte{0xC0, 0x33}},
		{"-1", []byte{0x3E, 0x64, 0x66}},
		{"-123", []byte{0x3D, 0x64, 0x4E, 0x66}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			num := EncodeNumber(decimal.RequireFromString(tt.value))
			assert.Equal(t, byte(len(tt.bytes)), num[0])
			assert.Equal(t, tt.bytes, num[1:1+len(tt.bytes)])
		})
	}
}

func TestNumber_RoundTrip(t *testing.T) {
	values := []string{
		"0", "1", "-1", "99", "-99", "100", "0.01", "-0.01", "3.14159",
		"127", "-128", "32767", "-32768", "2147483647", "-2147483648",
		"9223372036854775807", "-9223372036854775808", "18446744073709551615",
		"12345678901234567890123456789012345678", "1e-100", "-7.5e50",
	}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			want := decimal.RequireFromString(v)
			got, err := DecodeNumber(EncodeNumber(want))
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}
}

func TestDecodeNumber_Invalid(t *testing.T) {
	var num native.Number
	_, err := DecodeNumber(num)
	assert.Error(t, err)

	num[0] = 22
	_, err = DecodeNumber(num)
	assert.Error(t, err)
}

// =============================================================================
// Integer conversion
// =============================================================================

func TestLibrary_NumberToIntRange(t *testing.T) {
	lib := New()
	env, st := lib.EnvNlsCreate(0, 0, 0)
	require.Equal(t, native.OCI_SUCCESS, st)
	errh, st := lib.HandleAlloc(env, native.OCI_HTYPE_ERROR)
	require.Equal(t, native.OCI_SUCCESS, st)

	tests := []struct {
		name   string
		value  string
		width  int
		signed bool
		ok     bool
	}{
		{"int8 max", "127", 1, true, true},
		{"int8 overflow", "128", 1, true, false},
		{"uint8 max", "255", 1, false, true},
		{"uint8 negative", "-1", 1, false, false},
		{"int16 min", "-32768", 2, true, true},
		{"int64 overflow", "9223372036854775808", 8, true, false},
		{"uint64 max", "18446744073709551615", 8, false, true},
		{"truncated", "2.9", 4, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num := EncodeNumber(decimal.RequireFromString(tt.value))
			out := make([]byte, tt.width)
			st := lib.NumberToInt(errh, &num, out, tt.signed)
			if !tt.ok {
				require.Equal(t, native.OCI_ERROR, st)
				code, msg, _ := lib.ErrorGet(errh, 1, native.OCI_HTYPE_ERROR)
				assert.Equal(t, int32(22053), code)
				assert.Contains(t, msg, "ORA-22053")
				return
			}
			require.Equal(t, native.OCI_SUCCESS, st)

			var back native.Number
			require.Equal(t, native.OCI_SUCCESS, lib.NumberFromInt(errh, out, tt.signed, &back))
			got, err := DecodeNumber(back)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.value).Truncate(0).Equal(got))
		})
	}
}

func TestLibrary_InjectedFault(t *testing.T) {
	lib := New()
	env, _ := lib.EnvNlsCreate(0, 0, 0)
	errh, _ := lib.HandleAlloc(env, native.OCI_HTYPE_ERROR)

	lib.FailNext("NumberToText", 1722, "invalid number")
	num := EncodeNumber(decimal.NewFromInt(7))
	_, st := lib.NumberToText(errh, &num, "TM9", make([]byte, 8))
	assert.Equal(t, native.OCI_ERROR, st)
	code, _, _ := lib.ErrorGet(errh, 1, native.OCI_HTYPE_ERROR)
	assert.Equal(t, int32(1722), code)

	n, st := lib.NumberToText(errh, &num, "TM9", make([]byte, 8))
	assert.Equal(t, native.OCI_SUCCESS, st)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, lib.CallCount("NumberToText"))

	lib.HandleFree(errh, native.OCI_HTYPE_ERROR)
	lib.HandleFree(env, native.OCI_HTYPE_ENV)
	assert.Empty(t, lib.Leaks())
}
