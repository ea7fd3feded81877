package oci

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/slingdata-io/goci/native"
)

// Connector implements driver.Connector. All connections it opens share one Environment,
// and with it one error handle, so their calls are serialized by a single mutex.
type Connector struct {
	driver     *Driver
	library    string
	initParams InitParams
	params     ConnectParams

	mu       sync.Mutex
	lib      native.Native
	env      *Environment
	ownedEnv bool
}

// ConnectorOption configures a Connector
type ConnectorOption func(*Connector)

// WithLogger sets the package logger
func WithLogger(l zerolog.Logger) ConnectorOption {
	return func(c *Connector) {
		SetLogger(l)
	}
}

// WithLibrary uses lib instead of loading the client library
func WithLibrary(lib native.Native) ConnectorOption {
	return func(c *Connector) {
		c.lib = lib
	}
}

// WithEnvironment opens connections on env instead of creating one.
// The connector does not close an environment passed this way.
func WithEnvironment(env *Environment) ConnectorOption {
	return func(c *Connector) {
		c.env = env
		c.lib = env.Native()
	}
}

// NewConnector returns a connector for the settings in cfg
func NewConnector(cfg *Config, opts ...ConnectorOption) (*Connector, error) {
	initParams, err := cfg.InitParams()
	if err != nil {
		return nil, err
	}
	params, err := cfg.ConnectParams()
	if err != nil {
		return nil, err
	}
	c := &Connector{
		driver:     &Driver{},
		library:    cfg.Library,
		initParams: initParams,
		params:     params,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// environment creates the shared environment on first use. Called with c.mu held.
func (c *Connector) environment() (*Environment, error) {
	if c.env != nil {
		return c.env, nil
	}
	if c.lib == nil {
		var err error
		if c.library != "" {
			c.lib, err = native.LoadFrom(c.library)
		} else {
			c.lib, err = native.Load()
		}
		if err != nil {
			return nil, err
		}
	}
	env, err := NewEnvironment(c.lib, c.initParams)
	if err != nil {
		return nil, err
	}
	c.env, c.ownedEnv = env, true
	return env, nil
}

// Connect establishes a new connection to the database
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	env, err := c.environment()
	if err != nil {
		return nil, err
	}
	conn, err := env.Connect(c.params)
	if err != nil {
		if IsConnectionError(err) {
			return nil, fmt.Errorf("%w: %v", driver.ErrBadConn, err)
		}
		return nil, err
	}
	return &Conn{conn: conn, mu: &c.mu}, nil
}

// Driver returns the underlying Driver
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// Close closes the environment if the connector created it. database/sql calls it from DB.Close.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env == nil || !c.ownedEnv {
		return nil
	}
	if err := c.env.Close(); err != nil {
		return err
	}
	c.env = nil
	return nil
}

// Ensure Connector implements driver.Connector
var _ driver.Connector = (*Connector)(nil)
