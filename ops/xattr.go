// Package ops binds the platform extended attribute syscalls.
//
// Every function returns the raw OS error (a syscall.Errno on supported
// platforms) so callers can translate it themselves.
package ops

import (
	"errors"
	"syscall"
)

// initialSize is used when a size probe reports zero but a later read does not.
const initialSize = 256

// Getxattr reads name into data, a nil data returns the value size.
func Getxattr(path string, name string, data []byte) (int, error) {
	return getxattr(path, name, data)
}

// Setxattr creates or replaces name on path.
func Setxattr(path string, name string, data []byte, flags int) error {
	return setxattr(path, name, data, flags)
}

// Listxattr reads the NUL-terminated name list into data, a nil data
// returns the list size.
func Listxattr(path string, data []byte) (int, error) {
	return listxattr(path, data)
}

func Removexattr(path string, name string) error {
	return removexattr(path, name)
}

// Get returns the whole value of name. The returned slice may have spare
// capacity and is owned by the caller.
func Get(path string, name string) ([]byte, error) {
	return readAll(func(buf []byte) (int, error) {
		return Getxattr(path, name, buf)
	})
}

// List returns the raw NUL-terminated name list of path.
func List(path string) ([]byte, error) {
	return readAll(func(buf []byte) (int, error) {
		return Listxattr(path, buf)
	})
}

// readAll probes the size with an empty buffer, then reads, growing the
// buffer whenever the value changed size in between.
func readAll(read func([]byte) (int, error)) ([]byte, error) {
	size, err := read(nil)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	for {
		n, err := read(buf)
		switch {
		case err == nil && n <= len(buf):
			return buf[:n], nil
		case err == nil:
			// a zero-sized buffer is a size probe, the value grew meanwhile
			buf = make([]byte, n)
		case errors.Is(err, syscall.ERANGE):
			size = len(buf) * 2
			if size == 0 {
				size = initialSize
			}
			buf = make([]byte, size)
		default:
			return nil, err
		}
	}
}
