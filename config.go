package oci

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	logging "github.com/slingdata-io/goci/internal/logger"
)

// Environment variables that override values loaded from a config file
const (
	EnvUsername    = "GOCI_USERNAME"
	EnvPassword    = "GOCI_PASSWORD"
	EnvDBLink      = "GOCI_DBLINK"
	EnvLibraryPath = "GOCI_LIBRARY_PATH"
)

// Config is the file form of the settings needed to load the client library,
// create an environment and open a connection.
//
//	library: /opt/oracle/instantclient/libclntsh.so
//	environment:
//	  mode: [threaded]
//	  charset: 873
//	connection:
//	  dblink: //localhost:1521/FREEPDB1
//	  username: scott
//	  password: tiger
//	  auth: [stmtcache]
//	log:
//	  level: debug
//	  format: console
type Config struct {
	// Library is the path of libclntsh. Empty means the default lookup of native.Load.
	Library     string            `yaml:"library"`
	Environment EnvironmentConfig `yaml:"environment"`
	Connection  ConnectionConfig  `yaml:"connection"`
	Log         LogConfig         `yaml:"log"`
}

// EnvironmentConfig maps to InitParams
type EnvironmentConfig struct {
	Mode     []string `yaml:"mode"`
	Charset  uint16   `yaml:"charset"`
	NCharset uint16   `yaml:"ncharset"`
}

// ConnectionConfig maps to ConnectParams
type ConnectionConfig struct {
	DBLink   string `yaml:"dblink"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// External authenticates without a password; Username and Password must be empty
	External bool     `yaml:"external"`
	Pooled   bool     `yaml:"pooled"`
	Auth     []string `yaml:"auth"`
}

// LogConfig maps to logging.Config
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var createModes = map[string]CreateMode{
	"threaded":                CreateThreaded,
	"object":                  CreateObject,
	"events":                  CreateEvents,
	"no_ucb":                  CreateNoUcb,
	"env_no_mutex":            CreateEnvNoMutex,
	"suppress_nls_validation": CreateSuppressNlsValidation,
	"ncharlit_replace_on":     CreateNCharLiteralReplaceOn,
	"ncharlit_replace_off":    CreateNCharLiteralReplaceOff,
	"enable_nls_validation":   CreateEnableNlsValidation,
}

var authModes = map[string]AuthMode{
	"migrate":   AuthMigrate,
	"sysdba":    AuthSysDba,
	"sysoper":   AuthSysOper,
	"prelim":    AuthPrelimAuth,
	"stmtcache": AuthStmtCache,
}

// LoadConfig reads a YAML config file and applies the GOCI_* environment overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML config data and applies the GOCI_* environment overrides
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvUsername); ok {
		c.Connection.Username = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		c.Connection.Password = v
	}
	if v, ok := os.LookupEnv(EnvDBLink); ok {
		c.Connection.DBLink = v
	}
	if v, ok := os.LookupEnv(EnvLibraryPath); ok {
		c.Library = v
	}
}

// Validate checks mode names and the credential combination
func (c *Config) Validate() error {
	if _, err := c.InitParams(); err != nil {
		return err
	}
	if _, err := c.ConnectParams(); err != nil {
		return err
	}
	return nil
}

// InitParams converts the environment section
func (c *Config) InitParams() (InitParams, error) {
	p := InitParams{Charset: Charset(c.Environment.Charset), NCharset: Charset(c.Environment.NCharset)}
	for _, name := range c.Environment.Mode {
		m, ok := createModes[strings.ToLower(name)]
		if !ok {
			return InitParams{}, fmt.Errorf("unknown environment mode %q", name)
		}
		p.Mode |= m
	}
	return p, nil
}

// ConnectParams converts the connection section
func (c *Config) ConnectParams() (ConnectParams, error) {
	cc := c.Connection
	p := ConnectParams{DBLink: cc.DBLink}
	if cc.Pooled {
		p.AttachMode = AttachPooled
	}
	for _, name := range cc.Auth {
		m, ok := authModes[strings.ToLower(name)]
		if !ok {
			return ConnectParams{}, fmt.Errorf("unknown auth mode %q", name)
		}
		p.AuthMode |= m
	}

	switch {
	case cc.External && (cc.Username != "" || cc.Password != ""):
		return ConnectParams{}, fmt.Errorf("external authentication does not take a username or password")
	case cc.External:
		p.Credentials = External{}
	case cc.Username == "":
		return ConnectParams{}, fmt.Errorf("username is required unless external is set")
	default:
		p.Credentials = Rdbms{Username: cc.Username, Password: cc.Password}
	}
	return p, nil
}

// Logger converts the log section. Empty fields keep the logger defaults.
func (c *Config) Logger() *logging.Config {
	lc := logging.DefaultConfig()
	if c.Log.Level != "" {
		lc.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}
