//go:build darwin || freebsd || netbsd

package ops

import "golang.org/x/sys/unix"

// ENOATTR is what the platform reports for a missing attribute.
const ENOATTR = unix.ENOATTR
