package oci

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slingdata-io/goci/ocitest"
)

// =============================================================================
// Version Tests (version.go)
// =============================================================================

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"19", Version{Major: 19}},
		{"19.3", Version{Major: 19, Minor: 3}},
		{"19.3.0.0.0", Version{Major: 19, Minor: 3}},
		{"23.5.0.24.7", Version{23, 5, 0, 24, 7}},
		{"0.0.0.0.0", Version{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestParseVersion_Errors(t *testing.T) {
	_, err := ParseVersion("1.2.3.4.5.6")
	assert.ErrorIs(t, err, ErrVersionParts)

	tests := []struct {
		input string
		part  int
	}{
		{"", 0},
		{"a.1", 0},
		{"19..3", 1},
		{"19.3.-1", 2},
		{"19.3.0.99999999999", 3},
		{"19.3.0.0.x", 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseVersion(tt.input)
			var partErr *VersionPartError
			require.ErrorAs(t, err, &partErr)
			assert.Equal(t, tt.part, partErr.Part)
			assert.Contains(t, err.Error(), "version part")
		})
	}

	_, err = ParseVersion("19.3.0.99999999999")
	assert.ErrorIs(t, err, strconv.ErrRange)
}

func TestVersion_StringRoundTrip(t *testing.T) {
	v := Version{21, 13, 0, 0, 1}
	assert.Equal(t, "21.13.0.0.1", v.String())

	parsed, err := ParseVersion(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestVersion_Less(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"19.3", "19.4", true},
		{"19.4", "19.3", false},
		{"19.3", "19.3", false},
		{"12.2.0.1", "19", true},
		{"19.3.0.0.1", "19.3.0.0.2", true},
		{"23", "19.99", false},
	}

	for _, tt := range tests {
		a, err := ParseVersion(tt.a)
		require.NoError(t, err)
		b, err := ParseVersion(tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, a.Less(b), "%s < %s", tt.a, tt.b)
	}
}

func TestServerVersion_Unpack(t *testing.T) {
	tests := []struct {
		release uint32
		want    Version
	}{
		{19<<24 | 3<<20, Version{Major: 19, Minor: 3}},
		{23<<24 | 5<<20 | 1<<12 | 2<<8 | 7, Version{23, 5, 1, 2, 7}},
		{0xFFFFFFFF, Version{255, 15, 255, 15, 255}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, serverVersion(tt.release))
	}
}

func TestConnection_Versions(t *testing.T) {
	lib, conn := newTestConn(t)

	v, banner, err := conn.ServerVersion()
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 19, Minor: 3}, v)
	assert.Equal(t, ocitest.DefaultBanner, banner)

	assert.Equal(t, Version{23, 5, 0, 24, 7}, conn.ClientVersion())
	assert.Equal(t, conn.ClientVersion(), conn.Environment().ClientVersion())

	lib.Release = 21<<24 | 13<<20
	v, _, err = conn.ServerVersion()
	require.NoError(t, err)
	assert.Equal(t, "21.13.0.0.0", v.String())
	assert.True(t, v.Less(conn.ClientVersion()))
}
