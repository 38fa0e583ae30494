package xattr

import (
	"errors"
	"strings"
)

// errEmptyName rejects the bare prefix as a name, it could never be listed.
var errEmptyName = errors.New("empty attribute name")

// Namespace is a view of the attributes whose names start with a fixed
// prefix, e.g. "user.myapp.". Names passed in and returned are relative to
// the prefix. The empty Namespace is a plain pass-through.
type Namespace string

func (ns Namespace) name(op, path, name string) (string, error) {
	if ns != "" && name == "" {
		return "", newError(op, path, string(ns), errEmptyName)
	}
	return string(ns) + name, nil
}

// List returns the names under the prefix with the prefix stripped. Names
// equal to the bare prefix are skipped.
func (ns Namespace) List(path string) ([]string, error) {
	names, err := List(path)
	if err != nil || ns == "" {
		return names, err
	}
	scoped := names[:0]
	for _, n := range names {
		if len(n) > len(ns) && strings.HasPrefix(n, string(ns)) {
			scoped = append(scoped, n[len(ns):])
		}
	}
	return scoped, nil
}

func (ns Namespace) Has(path, name string) (bool, error) {
	full, err := ns.name(opHas, path, name)
	if err != nil {
		return false, err
	}
	return Has(path, full)
}

func (ns Namespace) Get(path, name string) ([]byte, error) {
	full, err := ns.name(opGet, path, name)
	if err != nil {
		return nil, err
	}
	return Get(path, full)
}

// Set fails with an empty name in a non-empty Namespace.
func (ns Namespace) Set(path, name string, value []byte) error {
	full, err := ns.name(opSet, path, name)
	if err != nil {
		return err
	}
	return Set(path, full, value)
}

func (ns Namespace) Remove(path, name string) error {
	full, err := ns.name(opRemove, path, name)
	if err != nil {
		return err
	}
	return Remove(path, full)
}
