package oci

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Tests (config.go)
// =============================================================================

const sampleConfig = `
library: /opt/oracle/instantclient/libclntsh.so
environment:
  mode: [threaded, OBJECT]
  charset: 873
  ncharset: 2000
connection:
  dblink: //db.example.com:1521/ORCLPDB1
  username: scott
  password: tiger
  pooled: true
  auth: [stmtcache, sysdba]
log:
  level: debug
  format: console
`

// clearConfigEnv makes sure overrides from the test process do not leak into a test
func clearConfigEnv(t *testing.T) {
	for _, name := range []string{EnvUsername, EnvPassword, EnvDBLink, EnvLibraryPath} {
		if v, ok := os.LookupEnv(name); ok {
			os.Unsetenv(name)
			t.Cleanup(func() { os.Setenv(name, v) })
		}
	}
}

func TestParseConfig(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "/opt/oracle/instantclient/libclntsh.so", cfg.Library)

	ip, err := cfg.InitParams()
	require.NoError(t, err)
	assert.Equal(t, InitParams{Mode: CreateThreaded | CreateObject, Charset: CharsetAL32UTF8, NCharset: CharsetAL16UTF16}, ip)

	cp, err := cfg.ConnectParams()
	require.NoError(t, err)
	assert.Equal(t, ConnectParams{
		DBLink:      "//db.example.com:1521/ORCLPDB1",
		AttachMode:  AttachPooled,
		Credentials: Rdbms{Username: "scott", Password: "tiger"},
		AuthMode:    AuthStmtCache | AuthSysDba,
	}, cp)

	lc := cfg.Logger()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "console", lc.Format)
	assert.Equal(t, "rfc3339", lc.TimeFormat)
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvUsername, "hr")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvDBLink, "//other:1521/XE")
	t.Setenv(EnvLibraryPath, "/usr/lib/oracle/libclntsh.so")

	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "hr", cfg.Connection.Username)
	assert.Equal(t, "secret", cfg.Connection.Password)
	assert.Equal(t, "//other:1521/XE", cfg.Connection.DBLink)
	assert.Equal(t, "/usr/lib/oracle/libclntsh.so", cfg.Library)
}

func TestParseConfig_External(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := ParseConfig([]byte("connection:\n  dblink: //localhost/XE\n  external: true\n"))
	require.NoError(t, err)

	cp, err := cfg.ConnectParams()
	require.NoError(t, err)
	assert.Equal(t, External{}, cp.Credentials)
	assert.Equal(t, AttachDefault, cp.AttachMode)
	assert.Equal(t, AuthDefault, cp.AuthMode)

	lc := cfg.Logger()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestParseConfig_Invalid(t *testing.T) {
	clearConfigEnv(t)

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "connection: [", "yaml"},
		{"unknown mode", "environment:\n  mode: [turbo]\nconnection:\n  username: a\n", `unknown environment mode "turbo"`},
		{"unknown auth", "connection:\n  username: a\n  auth: [root]\n", `unknown auth mode "root"`},
		{"missing username", "connection:\n  password: x\n", "username is required"},
		{"external with password", "connection:\n  external: true\n  password: x\n", "external authentication"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "goci.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "scott", cfg.Connection.Username)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("connection: {}\n"), 0o600))
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
