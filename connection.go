package oci

import (
	"errors"
	"fmt"

	"github.com/slingdata-io/goci/native"
)

// Connection is an attached server with an open user session.
// It owns the server, service context and session handles and tears them down in
// reverse order of construction.
type Connection struct {
	env          *Environment
	lib          native.Native
	server       *Handle
	attachMode   AttachMode
	attached     bool
	svc          *Handle
	session      *Handle
	sessionBegun bool
	stmts        int
	temps        map[*lobLocator]struct{}
}

// Connect attaches to the server named by params.DBLink and begins a session.
// A failure at any step frees everything allocated before it.
func (e *Environment) Connect(params ConnectParams) (_ *Connection, err error) {
	if e.env.Closed() {
		return nil, ErrClosed
	}
	creds := params.Credentials
	if creds == nil {
		creds = External{}
	}

	c := &Connection{env: e, lib: e.lib, attachMode: params.AttachMode, temps: make(map[*lobLocator]struct{})}
	defer func() {
		if err != nil {
			if terr := c.teardown(); terr != nil {
				logger().Error().Err(terr).Msg("cleanup after failed connect")
			}
		}
	}()
	errh := e.errh()

	if c.server, err = allocHandle(e.lib, e.env, native.OCI_HTYPE_SERVER, errh); err != nil {
		return nil, err
	}
	if err = check(e.lib, e.lib.ServerAttach(c.server.raw, errh, params.DBLink, uint32(params.AttachMode)), errh, "OCIServerAttach"); err != nil {
		return nil, fmt.Errorf("attaching to %q: %w", params.DBLink, err)
	}
	c.attached = true

	if c.svc, err = allocHandle(e.lib, e.env, native.OCI_HTYPE_SVCCTX, errh); err != nil {
		return nil, err
	}
	if err = setAttrHandle(&c.svc.resource, native.OCI_ATTR_SERVER, c.server, errh); err != nil {
		return nil, fmt.Errorf("setting server on service context: %w", err)
	}

	if c.session, err = allocHandle(e.lib, e.env, native.OCI_HTYPE_SESSION, errh); err != nil {
		return nil, err
	}
	if rdbms, ok := creds.(Rdbms); ok {
		if err = setAttrString(&c.session.resource, native.OCI_ATTR_USERNAME, rdbms.Username, errh); err != nil {
			return nil, fmt.Errorf("setting username: %w", err)
		}
		if err = setAttrString(&c.session.resource, native.OCI_ATTR_PASSWORD, rdbms.Password, errh); err != nil {
			return nil, fmt.Errorf("setting password: %w", err)
		}
	}
	st := e.lib.SessionBegin(c.svc.raw, errh, c.session.raw, creds.credentialMode(), uint32(params.AuthMode))
	if err = check(e.lib, st, errh, "OCISessionBegin"); err != nil {
		return nil, fmt.Errorf("beginning session: %w", err)
	}
	c.sessionBegun = true

	if err = setAttrHandle(&c.svc.resource, native.OCI_ATTR_SESSION, c.session, errh); err != nil {
		return nil, fmt.Errorf("setting session on service context: %w", err)
	}

	e.conns++
	logger().Debug().Str("dblink", params.DBLink).Uint32("auth_mode", uint32(params.AuthMode)).Msg("connected")
	return c, nil
}

// teardown ends the session, detaches the server and frees the handles, in that order.
// It copes with a partially constructed connection.
func (c *Connection) teardown() error {
	var errs []error
	errh := c.env.errh()

	for loc := range c.temps {
		if err := loc.freeTemporary(); err != nil {
			errs = append(errs, fmt.Errorf("freeing temporary LOB: %w", err))
		}
	}
	if c.sessionBegun {
		if err := check(c.lib, c.lib.SessionEnd(c.svc.raw, errh, c.session.raw, native.OCI_DEFAULT), errh, "OCISessionEnd"); err != nil {
			errs = append(errs, fmt.Errorf("ending session: %w", err))
		}
		c.sessionBegun = false
	}
	if c.attached {
		if err := check(c.lib, c.lib.ServerDetach(c.server.raw, errh, native.OCI_DEFAULT), errh, "OCIServerDetach"); err != nil {
			errs = append(errs, fmt.Errorf("detaching server: %w", err))
		}
		c.attached = false
	}
	c.session.Close()
	c.svc.Close()
	c.server.Close()
	return errors.Join(errs...)
}

// Close ends the session and detaches from the server.
// It fails with ErrBusy while statements prepared on the connection are open.
// Teardown errors are joined and returned after every handle has been freed.
func (c *Connection) Close() error {
	if c.closed() {
		return nil
	}
	if c.stmts > 0 {
		return fmt.Errorf("closing connection with %d open statements: %w", c.stmts, ErrBusy)
	}
	err := c.teardown()
	c.env.conns--
	if err != nil {
		logger().Error().Err(err).Msg("connection teardown")
		return err
	}
	logger().Debug().Msg("connection closed")
	return nil
}

func (c *Connection) closed() bool {
	return c.svc.Closed()
}

func (c *Connection) errh() native.Handle {
	return c.env.errh()
}

func (c *Connection) numCodec() numCodec {
	return c.env.numCodec()
}

// Environment returns the environment the connection was created from
func (c *Connection) Environment() *Environment {
	return c.env
}

// Ping makes a round trip to the server
func (c *Connection) Ping() error {
	if c.closed() {
		return ErrClosed
	}
	return check(c.lib, c.lib.Ping(c.svc.raw, c.errh(), native.OCI_DEFAULT), c.errh(), "OCIPing")
}

// Commit commits the current transaction
func (c *Connection) Commit() error {
	if c.closed() {
		return ErrClosed
	}
	return check(c.lib, c.lib.TransCommit(c.svc.raw, c.errh(), native.OCI_DEFAULT), c.errh(), "OCITransCommit")
}

// Rollback rolls back the current transaction
func (c *Connection) Rollback() error {
	if c.closed() {
		return ErrClosed
	}
	return check(c.lib, c.lib.TransRollback(c.svc.raw, c.errh(), native.OCI_DEFAULT), c.errh(), "OCITransRollback")
}

// Break interrupts the call currently running on the connection from another goroutine
func (c *Connection) Break() error {
	if c.closed() {
		return ErrClosed
	}
	return check(c.lib, c.lib.Break(c.svc.raw, c.errh()), c.errh(), "OCIBreak")
}

// ServerVersion returns the server release and its banner
func (c *Connection) ServerVersion() (Version, string, error) {
	if c.closed() {
		return Version{}, "", ErrClosed
	}
	banner, release, st := c.lib.ServerRelease(c.svc.raw, c.errh(), native.OCI_HTYPE_SVCCTX)
	if err := check(c.lib, st, c.errh(), "OCIServerRelease"); err != nil {
		return Version{}, "", err
	}
	return serverVersion(release), banner, nil
}

// ClientVersion returns the version of the client library
func (c *Connection) ClientVersion() Version {
	return ClientVersion(c.lib)
}
