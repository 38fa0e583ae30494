package xattr

import "bytes"

// ToExternal returns a caller-owned copy of b sized exactly to len(b).
// Bytes are copied verbatim, NULs and invalid UTF-8 included, and the result
// is never nil.
func ToExternal(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// SplitNames splits a NUL-terminated name list as returned by listxattr(2).
// Each name is copied out of buf; empty entries are dropped.
func SplitNames(buf []byte) []string {
	names := make([]string, 0, bytes.Count(buf, []byte{0}))
	for len(buf) > 0 {
		i := bytes.IndexByte(buf, 0)
		if i < 0 {
			i = len(buf)
		}
		if i > 0 {
			names = append(names, string(ToExternal(buf[:i])))
		}
		if i == len(buf) {
			break
		}
		buf = buf[i+1:]
	}
	return names
}
