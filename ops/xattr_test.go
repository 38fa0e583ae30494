package ops

import (
	"errors"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeValue emulates a getxattr(2) style call against a value that can
// change between calls.
type fakeValue struct {
	values [][]byte
	calls  int
}

func (f *fakeValue) read(buf []byte) (int, error) {
	v := f.values[len(f.values)-1]
	if f.calls < len(f.values) {
		v = f.values[f.calls]
	}
	f.calls++
	if len(buf) == 0 {
		return len(v), nil
	}
	if len(buf) < len(v) {
		return 0, syscall.ERANGE
	}
	return copy(buf, v), nil
}

func TestReadAll(t *testing.T) {
	for _, test := range []struct {
		name   string
		values [][]byte
		want   []byte
	}{
		{"stable", [][]byte{[]byte("abc")}, []byte("abc")},
		{"empty", [][]byte{{}}, []byte{}},
		{"binary", [][]byte{{0, 0xff, 0, 'a'}}, []byte{0, 0xff, 0, 'a'}},
		{"grew after probe", [][]byte{[]byte("ab"), []byte("abcdefgh")}, []byte("abcdefgh")},
		{"grew from empty", [][]byte{{}, []byte("abcd")}, []byte("abcd")},
		{"shrank after probe", [][]byte{[]byte("abcdef"), []byte("a")}, []byte("a")},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := &fakeValue{values: test.values}
			got, err := readAll(f.read)
			if err != nil {
				t.Fatalf("readAll: %v", err)
			}
			if got == nil {
				t.Fatal("readAll returned nil slice")
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadAllError(t *testing.T) {
	calls := 0
	_, err := readAll(func(buf []byte) (int, error) {
		calls++
		if calls == 1 {
			return 4, nil
		}
		return 0, syscall.EACCES
	})
	if err != syscall.EACCES {
		t.Fatalf("got %v, want EACCES", err)
	}
}

func TestReadAllProbeError(t *testing.T) {
	_, err := readAll(func(buf []byte) (int, error) {
		return 0, ENOATTR
	})
	if err != ENOATTR {
		t.Fatalf("got %v, want %v", err, ENOATTR)
	}
}

func TestGetMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	want := syscall.ENOENT
	if !Supported {
		want = syscall.ENOTSUP
	}
	if _, err := Getxattr(path, "user.a", nil); !errors.Is(err, want) {
		t.Errorf("Getxattr err = %v, want %v", err, want)
	}
	if _, err := Get(path, "user.a"); !errors.Is(err, want) {
		t.Errorf("Get err = %v, want %v", err, want)
	}
	if _, err := Listxattr(path, nil); !errors.Is(err, want) {
		t.Errorf("Listxattr err = %v, want %v", err, want)
	}
	if _, err := List(path); !errors.Is(err, want) {
		t.Errorf("List err = %v, want %v", err, want)
	}
}
