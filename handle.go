package oci

import (
	"fmt"
	"unsafe"

	"github.com/slingdata-io/goci/native"
)

// resource is the part shared by handles and descriptors: the native reference,
// its type code for attribute calls and the live-children accounting.
type resource struct {
	lib      native.Native
	raw      native.Handle
	typ      uint32
	parent   *resource
	children int
}

func (r *resource) adopt(parent *resource) {
	r.parent = parent
	if parent != nil {
		parent.children++
	}
}

func (r *resource) release() {
	r.raw = 0
	if r.parent != nil {
		r.parent.children--
		r.parent = nil
	}
}

// Raw returns the native reference, or 0 after Close
func (r *resource) Raw() native.Handle {
	return r.raw
}

// Closed reports whether the resource has been freed
func (r *resource) Closed() bool {
	return r.raw == 0
}

// Handle is an exclusively owned OCI handle. It is freed exactly once by Close.
type Handle struct {
	resource
	kind native.HandleKind
}

func allocHandle(lib native.Native, parent *Handle, kind native.HandleKind, errh native.Handle) (*Handle, error) {
	if parent.Closed() {
		return nil, ErrClosed
	}
	raw, st := lib.HandleAlloc(parent.raw, kind)
	if st != native.OCI_SUCCESS {
		return nil, fmt.Errorf("allocating %s handle: %w", kind, decode(lib, st, errh))
	}
	return adoptHandle(lib, raw, kind, parent), nil
}

// adoptHandle takes ownership of a handle created by another native call
func adoptHandle(lib native.Native, raw native.Handle, kind native.HandleKind, parent *Handle) *Handle {
	h := &Handle{resource: resource{lib: lib, raw: raw, typ: uint32(kind)}, kind: kind}
	if parent != nil {
		h.adopt(&parent.resource)
	}
	return h
}

// Kind returns the handle type
func (h *Handle) Kind() native.HandleKind {
	return h.kind
}

// Close frees the handle. Closing twice is a no-op.
// It panics if the handle still has children or the native free call fails.
func (h *Handle) Close() {
	if h == nil || h.raw == 0 {
		return
	}
	if h.children > 0 {
		panic(fmt.Sprintf("oci: freeing %s handle with %d live children", h.kind, h.children))
	}
	if st := h.lib.HandleFree(h.raw, h.kind); st != native.OCI_SUCCESS {
		panic(fmt.Sprintf("oci: OCIHandleFree(%s) returned %s", h.kind, native.FormatStatus(st)))
	}
	h.release()
}

// Descriptor is an exclusively owned OCI descriptor, allocated against the environment
type Descriptor struct {
	resource
	kind native.DescriptorKind
}

func allocDescriptor(lib native.Native, env *Handle, kind native.DescriptorKind, errh native.Handle) (*Descriptor, error) {
	if env.Closed() {
		return nil, ErrClosed
	}
	raw, st := lib.DescriptorAlloc(env.raw, kind)
	if st != native.OCI_SUCCESS {
		return nil, fmt.Errorf("allocating %s descriptor: %w", kind, decode(lib, st, errh))
	}
	return adoptDescriptor(lib, raw, kind, env), nil
}

// adoptDescriptor takes ownership of a descriptor returned by ParamGet
func adoptDescriptor(lib native.Native, raw native.Handle, kind native.DescriptorKind, parent *Handle) *Descriptor {
	d := &Descriptor{resource: resource{lib: lib, raw: raw, typ: uint32(kind)}, kind: kind}
	if parent != nil {
		d.adopt(&parent.resource)
	}
	return d
}

// Kind returns the descriptor type
func (d *Descriptor) Kind() native.DescriptorKind {
	return d.kind
}

// Close frees the descriptor. Closing twice is a no-op.
func (d *Descriptor) Close() {
	if d == nil || d.raw == 0 {
		return
	}
	if st := d.lib.DescriptorFree(d.raw, d.kind); st != native.OCI_SUCCESS {
		panic(fmt.Sprintf("oci: OCIDescriptorFree(%s) returned %s", d.kind, native.FormatStatus(st)))
	}
	d.release()
}

// scalar is a fixed-size attribute value
type scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func bytesOf[T scalar](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func getAttr[T scalar](r *resource, attr native.Attr, errh native.Handle) (T, error) {
	var v T
	if r.raw == 0 {
		return v, ErrClosed
	}
	st := r.lib.AttrGet(r.raw, r.typ, attr, bytesOf(&v), errh)
	return v, check(r.lib, st, errh, "OCIAttrGet")
}

func setAttr[T scalar](r *resource, attr native.Attr, value T, errh native.Handle) error {
	if r.raw == 0 {
		return ErrClosed
	}
	st := r.lib.AttrSet(r.raw, r.typ, attr, bytesOf(&value), errh)
	return check(r.lib, st, errh, "OCIAttrSet")
}

func getAttrString(r *resource, attr native.Attr, errh native.Handle) (string, error) {
	if r.raw == 0 {
		return "", ErrClosed
	}
	s, st := r.lib.AttrGetText(r.raw, r.typ, attr, errh)
	return s, check(r.lib, st, errh, "OCIAttrGet")
}

func setAttrString(r *resource, attr native.Attr, value string, errh native.Handle) error {
	if r.raw == 0 {
		return ErrClosed
	}
	st := r.lib.AttrSet(r.raw, r.typ, attr, unsafe.Slice(unsafe.StringData(value), len(value)), errh)
	return check(r.lib, st, errh, "OCIAttrSet")
}

func setAttrHandle(r *resource, attr native.Attr, value *Handle, errh native.Handle) error {
	if r.raw == 0 || value.Closed() {
		return ErrClosed
	}
	st := r.lib.AttrSetHandle(r.raw, r.typ, attr, value.raw, errh)
	return check(r.lib, st, errh, "OCIAttrSet")
}
