package oci

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/slingdata-io/goci/native"
)

// Version is a client or server release, e.g. 19.3.0.0.0
type Version struct {
	Major      int32
	Minor      int32
	Update     int32
	Patch      int32
	PortUpdate int32
}

// String prints the five parts separated by dots, in the form ParseVersion accepts
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d.%d", v.Major, v.Minor, v.Update, v.Patch, v.PortUpdate)
}

// Less reports whether v is an earlier release than o
func (v Version) Less(o Version) bool {
	a := [5]int32{v.Major, v.Minor, v.Update, v.Patch, v.PortUpdate}
	b := [5]int32{o.Major, o.Minor, o.Update, o.Patch, o.PortUpdate}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ErrVersionParts is returned by ParseVersion for more than five parts
var ErrVersionParts = errors.New("oci: version has more than 5 parts")

// VersionPartError reports a part of a version string that is not a non-negative integer
type VersionPartError struct {
	Part int
	Err  error
}

func (e *VersionPartError) Error() string {
	return fmt.Sprintf("oci: version part %d: %v", e.Part, e.Err)
}

func (e *VersionPartError) Unwrap() error {
	return e.Err
}

// ParseVersion parses one to five dot-separated non-negative integers. Missing parts are zero.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) > 5 {
		return Version{}, ErrVersionParts
	}
	var v [5]int32
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err == nil && n < 0 {
			err = fmt.Errorf("negative value %d", n)
		}
		if err != nil {
			return Version{}, &VersionPartError{Part: i, Err: err}
		}
		v[i] = int32(n)
	}
	return Version{Major: v[0], Minor: v[1], Update: v[2], Patch: v[3], PortUpdate: v[4]}, nil
}

// ClientVersion returns the version of the client library
func ClientVersion(lib native.Native) Version {
	major, minor, update, patch, port := lib.ClientVersion()
	return Version{Major: major, Minor: minor, Update: update, Patch: patch, PortUpdate: port}
}

// serverVersion unpacks the release number returned by OCIServerRelease
func serverVersion(release uint32) Version {
	return Version{
		Major:      int32(release >> 24 & 0xFF),
		Minor:      int32(release >> 20 & 0x0F),
		Update:     int32(release >> 12 & 0xFF),
		Patch:      int32(release >> 8 & 0x0F),
		PortUpdate: int32(release & 0xFF),
	}
}
