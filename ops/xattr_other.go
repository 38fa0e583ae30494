//go:build !linux && !darwin && !freebsd && !netbsd

package ops

import "syscall"

const Supported = false

// ENOATTR is never reported here, every call fails with ENOTSUP.
const ENOATTR = syscall.ENODATA

func getxattr(path string, name string, data []byte) (int, error) {
	return 0, syscall.ENOTSUP
}

func setxattr(path string, name string, data []byte, flags int) error {
	return syscall.ENOTSUP
}

func removexattr(path string, name string) error {
	return syscall.ENOTSUP
}

func listxattr(path string, data []byte) (int, error) {
	return 0, syscall.ENOTSUP
}
