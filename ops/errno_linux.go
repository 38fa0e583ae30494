package ops

import "golang.org/x/sys/unix"

// ENOATTR is what the platform reports for a missing attribute.
// Linux has no distinct ENOATTR and uses ENODATA.
const ENOATTR = unix.ENODATA
