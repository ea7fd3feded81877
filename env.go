package oci

import (
	"fmt"
	"sync/atomic"

	"github.com/slingdata-io/goci/native"
)

// environmentsClosed counts closed environments in this process
var environmentsClosed atomic.Int32

// Environment owns the OCI environment and error handles and is the root of every
// other resource. The error handle is shared by all connections, statements and LOBs
// created from it, so an Environment and its descendants must be used from one goroutine
// at a time.
//
// Oracle client libraries do not support creating a new environment after all previous
// ones were freed in the same process; create one Environment and keep it for the
// lifetime of the program.
type Environment struct {
	lib   native.Native
	env   *Handle
	err   *Handle
	mode  CreateMode
	conns int
}

// NewEnvironment creates an OCI environment with its error handle
func NewEnvironment(lib native.Native, params InitParams) (*Environment, error) {
	if n := environmentsClosed.Load(); n > 0 {
		logger().Warn().Int32("closed", n).Msg("creating an environment after a previous one was closed is not supported by the client library")
	}

	raw, st := lib.EnvNlsCreate(uint32(params.Mode), uint16(params.Charset), uint16(params.NCharset))
	if st != native.OCI_SUCCESS {
		err := decodeFrom(lib, st, raw, native.OCI_HTYPE_ENV)
		if raw != 0 {
			lib.HandleFree(raw, native.OCI_HTYPE_ENV)
		}
		return nil, fmt.Errorf("creating environment: %w", err)
	}
	env := adoptHandle(lib, raw, native.OCI_HTYPE_ENV, nil)

	// Errors of the error handle allocation itself are read from the environment
	errRaw, st := lib.HandleAlloc(env.raw, native.OCI_HTYPE_ERROR)
	if st != native.OCI_SUCCESS {
		err := decodeFrom(lib, st, env.raw, native.OCI_HTYPE_ENV)
		env.Close()
		return nil, fmt.Errorf("allocating error handle: %w", err)
	}

	e := &Environment{
		lib:  lib,
		env:  env,
		err:  adoptHandle(lib, errRaw, native.OCI_HTYPE_ERROR, env),
		mode: params.Mode,
	}
	logger().Debug().Uint32("mode", uint32(params.Mode)).Uint16("charset", uint16(params.Charset)).Msg("environment created")
	return e, nil
}

// Native returns the library the environment was created with
func (e *Environment) Native() native.Native {
	return e.lib
}

// errh returns the raw error handle shared by all descendants
func (e *Environment) errh() native.Handle {
	return e.err.raw
}

func (e *Environment) numCodec() numCodec {
	return numCodec{lib: e.lib, errh: e.err.raw}
}

// Charsets returns the character set ids the environment was created with
func (e *Environment) Charsets() (charset, ncharset Charset, err error) {
	cs, err := getAttr[uint16](&e.env.resource, native.OCI_ATTR_ENV_CHARSET_ID, e.errh())
	if err != nil {
		return 0, 0, err
	}
	ncs, err := getAttr[uint16](&e.env.resource, native.OCI_ATTR_ENV_NCHARSET_ID, e.errh())
	if err != nil {
		return 0, 0, err
	}
	return Charset(cs), Charset(ncs), nil
}

// ClientVersion returns the version of the loaded client library
func (e *Environment) ClientVersion() Version {
	return ClientVersion(e.lib)
}

// Close frees the error and environment handles.
// It fails with ErrBusy while connections created from the environment are open.
func (e *Environment) Close() error {
	if e.env.Closed() {
		return nil
	}
	if e.conns > 0 {
		return fmt.Errorf("closing environment with %d open connections: %w", e.conns, ErrBusy)
	}
	// The error handle is the only child left once every connection and LOB is closed
	if n := e.env.children - 1; n > 0 {
		return fmt.Errorf("closing environment with %d live descriptors: %w", n, ErrBusy)
	}
	e.err.Close()
	e.env.Close()
	environmentsClosed.Add(1)
	logger().Debug().Msg("environment closed")
	return nil
}

// TerminateAck must be passed to Terminate to confirm the process-wide effect
type TerminateAck bool

// TerminateAcknowledged confirms that no OCI environment will be used afterwards in this process
const TerminateAcknowledged TerminateAck = true

// Terminate closes the environment and then detaches the process from the client library,
// releasing its shared memory. No environment can be used in the process afterwards.
func (e *Environment) Terminate(ack TerminateAck) error {
	if !ack {
		return ErrTerminateNotAcknowledged
	}
	if err := e.Close(); err != nil {
		return err
	}
	logger().Warn().Msg("terminating OCI for this process")
	if st := e.lib.Terminate(native.OCI_DEFAULT); st != native.OCI_SUCCESS {
		return fmt.Errorf("terminating: %w", decode(e.lib, st, 0))
	}
	return nil
}
