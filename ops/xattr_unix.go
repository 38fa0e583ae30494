//go:build linux || darwin || freebsd || netbsd

package ops

import "golang.org/x/sys/unix"

// Supported reports whether this platform has xattr syscalls.
const Supported = true

func getxattr(path string, name string, data []byte) (int, error) {
	return unix.Getxattr(path, name, data)
}

func setxattr(path string, name string, data []byte, flags int) error {
	return unix.Setxattr(path, name, data, flags)
}

func removexattr(path string, name string) error {
	return unix.Removexattr(path, name)
}

func listxattr(path string, data []byte) (int, error) {
	return unix.Listxattr(path, data)
}
