package xattr

import (
	"errors"
	"fmt"
	"strconv"
	"syscall"

	"github.com/tigrawap/goxattr/ops"
)

// Kind is the symbolic cause of a failed attribute operation.
type Kind int

const (
	_ Kind = iota
	PermissionDenied
	NotFound
	ArgumentListTooLong
	TryAgain
	BadAddress
	NoSpace
	ResultTooLarge
	AttributeNotFound
	NotSupported
	QuotaExceeded
	// NumericFallback carries an errno with no symbolic mapping.
	NumericFallback
	// MessageFallback carries the OS message of an error without an errno.
	MessageFallback
)

var kindSymbols = [...]string{
	PermissionDenied:    "eperm",
	NotFound:            "enoent",
	ArgumentListTooLong: "e2big",
	TryAgain:            "eagain",
	BadAddress:          "efault",
	NoSpace:             "enospc",
	ResultTooLarge:      "erange",
	AttributeNotFound:   "enoattr",
	NotSupported:        "enotsup",
	QuotaExceeded:       "edquot",
	NumericFallback:     "numeric",
	MessageFallback:     "message",
}

func (k Kind) String() string {
	if k <= 0 || int(k) >= len(kindSymbols) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindSymbols[k]
}

var errnoKinds = make(map[syscall.Errno]Kind)

func init() {
	for _, m := range []struct {
		errno syscall.Errno
		kind  Kind
	}{
		{syscall.EPERM, PermissionDenied},
		{syscall.EACCES, PermissionDenied},
		{syscall.ENOENT, NotFound},
		{syscall.E2BIG, ArgumentListTooLong},
		{syscall.EAGAIN, TryAgain},
		{syscall.EFAULT, BadAddress},
		{syscall.ENOSPC, NoSpace},
		{syscall.ERANGE, ResultTooLarge},
		{ops.ENOATTR, AttributeNotFound},
		{syscall.ENOTSUP, NotSupported},
		{syscall.EOPNOTSUPP, NotSupported},
		{syscall.EDQUOT, QuotaExceeded},
	} {
		errnoKinds[m.errno] = m.kind
	}
}

// ErrorKind is a translated OS failure. Code holds the errno whenever the OS
// reported one, symbolic kinds included.
type ErrorKind struct {
	Kind    Kind
	Code    int
	Message string
}

// String renders the symbol, the decimal code for NumericFallback or the OS
// text for MessageFallback.
func (k ErrorKind) String() string {
	switch k.Kind {
	case NumericFallback:
		return strconv.Itoa(k.Code)
	case MessageFallback:
		return k.Message
	}
	return k.Kind.String()
}

// Translate maps an OS error onto an ErrorKind. It never fails.
func Translate(err error) ErrorKind {
	if err == nil {
		return ErrorKind{Kind: MessageFallback}
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if kind, ok := errnoKinds[errno]; ok {
			return ErrorKind{Kind: kind, Code: int(errno)}
		}
		return ErrorKind{Kind: NumericFallback, Code: int(errno)}
	}
	return ErrorKind{Kind: MessageFallback, Message: err.Error()}
}

// Error records a failed operation together with its translated kind.
type Error struct {
	Op   string
	Path string
	Name string
	ErrorKind
	Err error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.ErrorKind)
	}
	return fmt.Sprintf("%s %s %q: %s", e.Op, e.Path, e.Name, e.ErrorKind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether the OS asked to try again. Operations never
// retry on their own.
func (e *Error) Temporary() bool {
	return e.Kind == TryAgain
}

func newError(op, path, name string, err error) *Error {
	return &Error{
		Op:        op,
		Path:      path,
		Name:      name,
		ErrorKind: Translate(err),
		Err:       err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsAttributeNotFound(err error) bool {
	return KindOf(err) == AttributeNotFound
}

func IsNotSupported(err error) bool {
	return KindOf(err) == NotSupported
}
