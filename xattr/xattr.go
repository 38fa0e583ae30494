// Package xattr reads and writes extended file attributes.
//
// Names are Go strings and values are byte slices; neither is interpreted as
// text. Every failure is returned as an *Error whose Kind is one of a closed
// set of symbolic causes, with numeric and textual fallbacks for OS codes
// outside that set.
//
// Calls block for the duration of the underlying syscall and hold no state
// between calls, so they are safe for concurrent use. Concurrent writers to
// the same name race exactly as the raw syscalls do.
package xattr

import (
	"github.com/tigrawap/goxattr/ops"
)

const (
	opList   = "listxattr"
	opHas    = "hasxattr"
	opGet    = "getxattr"
	opSet    = "setxattr"
	opRemove = "removexattr"
)

// List returns the attribute names of path in the order the OS reports them.
func List(path string) ([]string, error) {
	buf, err := ops.List(path)
	if err != nil {
		return nil, newError(opList, path, "", err)
	}
	return SplitNames(buf), nil
}

// Has reports whether name is set on path. It reads and discards the value,
// so it costs as much as Get.
func Has(path, name string) (bool, error) {
	_, err := ops.Get(path, name)
	if err == nil {
		return true, nil
	}
	e := newError(opHas, path, name, err)
	if e.Kind == AttributeNotFound {
		return false, nil
	}
	return false, e
}

// Get returns the value of name on path. A missing attribute is reported as
// AttributeNotFound; an empty value is a non-nil empty slice.
func Get(path, name string) ([]byte, error) {
	value, err := ops.Get(path, name)
	if err != nil {
		return nil, newError(opGet, path, name, err)
	}
	return ToExternal(value), nil
}

// Set creates name on path or replaces its value.
func Set(path, name string, value []byte) error {
	if err := ops.Setxattr(path, name, value, 0); err != nil {
		return newError(opSet, path, name, err)
	}
	return nil
}

// Remove deletes name from path. Removing a missing attribute fails with
// AttributeNotFound.
func Remove(path, name string) error {
	if err := ops.Removexattr(path, name); err != nil {
		return newError(opRemove, path, name, err)
	}
	return nil
}

// NativeLayerAvailable is a liveness probe for the syscall layer. It is
// always true once the package is linked; platforms without xattr support
// still load and report NotSupported from every operation.
func NativeLayerAvailable() bool {
	return true
}
