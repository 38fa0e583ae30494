//go:build linux || darwin || freebsd || netbsd

package main

import (
	"golang.org/x/sys/unix"
)

// mknod creates an empty regular file for --mkfiles
func mknod(filename string) error {
	return unix.Mknod(filename, unix.S_IFREG|0666, 0)
}
