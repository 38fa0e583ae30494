package xattr

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	pxattr "github.com/pkg/xattr"
)

const testNS = Namespace("user.goxattr.test.")

// testFile creates an empty file in a directory that supports user xattrs.
// GOXATTR_TEST_DIR overrides the location when the default temp dir does not.
func testFile(t *testing.T) string {
	t.Helper()
	dir := os.Getenv("GOXATTR_TEST_DIR")
	if dir == "" {
		dir = t.TempDir()
	} else {
		var err error
		dir, err = os.MkdirTemp(dir, "goxattr-")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.RemoveAll(dir) })
	}
	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := testNS.Set(path, "probe", []byte{1}); err != nil {
		switch KindOf(err) {
		case NotSupported, PermissionDenied:
			t.Skipf("user xattrs unavailable in %s: %v", dir, err)
		}
		t.Fatal(err)
	}
	if err := testNS.Remove(path, "probe"); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRoundTrip(t *testing.T) {
	path := testFile(t)
	for _, value := range [][]byte{
		[]byte("plain text"),
		{0},
		{0, 0, 0},
		{'a', 0, 'b', 0},
		{0xff, 0xfe, 0xfd, 0x80},
		[]byte("\xc3\x28 invalid utf8"),
		make([]byte, 4000),
	} {
		if err := testNS.Set(path, "value", value); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := testNS.Get(path, "value")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if diff := cmp.Diff(value, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
		if cap(got) != len(value) {
			t.Errorf("cap = %d, want exact size %d", cap(got), len(value))
		}

		oracle, err := pxattr.Get(path, string(testNS)+"value")
		if err != nil {
			t.Fatalf("pkg/xattr Get: %v", err)
		}
		if diff := cmp.Diff(value, oracle); diff != "" {
			t.Errorf("stored bytes differ from what was set (-want +got):\n%s", diff)
		}
	}
}

func TestGetValueWrittenElsewhere(t *testing.T) {
	path := testFile(t)
	value := []byte{0, 1, 2, 0, 0xff}
	if err := pxattr.Set(path, string(testNS)+"foreign", value); err != nil {
		t.Fatalf("pkg/xattr Set: %v", err)
	}
	got, err := testNS.Get(path, "foreign")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(value, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAbsentAfterRemove(t *testing.T) {
	path := testFile(t)
	if err := testNS.Set(path, "gone", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := testNS.Remove(path, "gone"); err != nil {
		t.Fatal(err)
	}
	_, err := testNS.Get(path, "gone")
	if !IsAttributeNotFound(err) {
		t.Fatalf("Get after Remove: got %v, want AttributeNotFound", err)
	}
}

func TestHasMatchesGet(t *testing.T) {
	path := testFile(t)
	if err := testNS.Set(path, "present", nil); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"present", "absent"} {
		has, err := testNS.Has(path, name)
		if err != nil {
			t.Fatalf("Has(%q): %v", name, err)
		}
		_, getErr := testNS.Get(path, name)
		if has != (getErr == nil) {
			t.Errorf("Has(%q) = %v but Get error = %v", name, has, getErr)
		}
	}

	_, err := Has(filepath.Join(path, "nope"), "user.x")
	if err == nil {
		t.Fatal("Has on a missing path succeeded")
	}
}

func TestListCompleteness(t *testing.T) {
	path := testFile(t)
	names, err := testNS.List(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("fresh file lists %q", names)
	}

	want := []string{"a", "b", "c\xff", "with space"}
	for _, n := range want {
		if err := testNS.Set(path, n, []byte(n)); err != nil {
			t.Fatal(err)
		}
	}
	names, err = testNS.List(path)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(names)
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	all, err := List(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range want {
		found := false
		for _, a := range all {
			if a == string(testNS)+n {
				found = true
			}
		}
		if !found {
			t.Errorf("List is missing %q", string(testNS)+n)
		}
	}
}

func TestMissingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")
	checks := map[string]error{}
	_, checks["list"] = List(path)
	_, checks["has"] = Has(path, "user.a")
	_, checks["get"] = Get(path, "user.a")
	checks["set"] = Set(path, "user.a", []byte("v"))
	checks["remove"] = Remove(path, "user.a")
	for op, err := range checks {
		if KindOf(err) != NotFound {
			t.Errorf("%s on missing path: got %v, want NotFound", op, err)
		}
	}
}

func TestMissingAttribute(t *testing.T) {
	path := testFile(t)
	if _, err := testNS.Get(path, "never-set"); !IsAttributeNotFound(err) {
		t.Errorf("Get: got %v, want AttributeNotFound", err)
	}
	for i := 0; i < 2; i++ {
		if err := testNS.Remove(path, "never-set"); !IsAttributeNotFound(err) {
			t.Errorf("Remove #%d: got %v, want AttributeNotFound", i+1, err)
		}
	}
}

func TestOverwrite(t *testing.T) {
	path := testFile(t)
	if err := testNS.Set(path, "k", []byte("first value, long")); err != nil {
		t.Fatal(err)
	}
	if err := testNS.Set(path, "k", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, err := testNS.Get(path, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Errorf("got %q, want %q", got, "v2")
	}
}

func TestZeroLengthValue(t *testing.T) {
	path := testFile(t)
	if err := testNS.Set(path, "empty", []byte{}); err != nil {
		t.Fatal(err)
	}
	got, err := testNS.Get(path, "empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want non-nil empty slice", got)
	}
	has, err := testNS.Has(path, "empty")
	if err != nil || !has {
		t.Errorf("Has = %v, %v; want true", has, err)
	}
}

func TestConcurrentOperations(t *testing.T) {
	path := testFile(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			for j := 0; j < 50; j++ {
				if err := testNS.Set(path, name, []byte{byte(j)}); err != nil {
					t.Error(err)
					return
				}
				if _, err := testNS.Get(path, name); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	names, err := testNS.List(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 8 {
		t.Errorf("listed %d names, want 8: %q", len(names), names)
	}
}

func TestNamespaceRejectsEmptyName(t *testing.T) {
	path := testFile(t)
	if err := Set(path, "user.goxattr.outside", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := Set(path, string(testNS), []byte("bare")); err != nil {
		t.Fatal(err)
	}

	if err := testNS.Set(path, "", []byte("hidden")); KindOf(err) != MessageFallback {
		t.Errorf("Set with empty name err = %v, want empty attribute name", err)
	}
	if _, err := testNS.Get(path, ""); KindOf(err) != MessageFallback {
		t.Errorf("Get with empty name err = %v", err)
	}
	if present, err := testNS.Has(path, ""); present || KindOf(err) != MessageFallback {
		t.Errorf("Has with empty name = %v, %v", present, err)
	}
	if err := testNS.Remove(path, ""); KindOf(err) != MessageFallback {
		t.Errorf("Remove with empty name err = %v", err)
	}
	if value, err := Get(path, string(testNS)); err != nil || string(value) != "bare" {
		t.Errorf("bare prefix attribute changed: %q, %v", value, err)
	}

	names, err := testNS.List(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{}, names); diff != "" {
		t.Errorf("List should hide names outside the prefix and the bare prefix (-want +got):\n%s", diff)
	}
}

func TestNamespacePassThrough(t *testing.T) {
	path := testFile(t)
	if err := Namespace("").Set(path, string(testNS)+"raw", []byte("x")); err != nil {
		t.Fatal(err)
	}
	names, err := Namespace("").List(path)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range names {
		if n == string(testNS)+"raw" {
			found = true
		}
	}
	if !found {
		t.Errorf("empty namespace should list full names, got %q", names)
	}
}

func TestNativeLayerAvailable(t *testing.T) {
	if !NativeLayerAvailable() {
		t.Fatal("NativeLayerAvailable() = false")
	}
}
