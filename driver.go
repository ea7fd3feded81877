package oci

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"

	logging "github.com/slingdata-io/goci/internal/logger"
)

func init() {
	sql.Register("oci", &Driver{})
}

// Driver implements the database/sql/driver.Driver interface
type Driver struct {
	mu sync.Mutex
	// connectors used by Open, one per config path
	connectors map[string]*Connector
}

// Open opens a new connection to the database.
// The name is the path of a YAML config file, see Config.
//
// database/sql only calls Open for drivers without OpenConnector. Connections opened
// this way share one Connector, and with it one Environment, per name for the life of
// the process, since the client library cannot create environments over and over.
func (d *Driver) Open(name string) (driver.Conn, error) {
	c, err := d.connector(name)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

func (d *Driver) connector(name string) (*Connector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.connectors[name]; ok {
		return c, nil
	}
	c, err := d.newConnector(name)
	if err != nil {
		return nil, err
	}
	if d.connectors == nil {
		d.connectors = make(map[string]*Connector)
	}
	d.connectors[name] = c
	return c, nil
}

// OpenConnector loads the config file and returns a Connector for it.
// This implements driver.DriverContext so the environment is shared by the pool
// and closed by DB.Close.
func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	c, err := d.newConnector(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *Driver) newConnector(name string) (*Connector, error) {
	cfg, err := LoadConfig(name)
	if err != nil {
		return nil, err
	}
	c, err := NewConnector(cfg, WithLogger(logging.New(cfg.Logger())))
	if err != nil {
		return nil, err
	}
	c.driver = d
	return c, nil
}

// Ensure Driver implements the required interfaces
var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
)
