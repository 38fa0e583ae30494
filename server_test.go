package main

import (
	"encoding/json"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/tigrawap/goxattr/xattr"
)

const testNS = xattr.Namespace("user.goxattr.test.")

// testFile creates an empty file with working user xattrs, see the xattr
// package tests for GOXATTR_TEST_DIR.
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
		switch xattr.KindOf(err) {
		case xattr.NotSupported, xattr.PermissionDenied:
			t.Skipf("user xattrs unavailable in %s: %v", dir, err)
		}
		t.Fatal(err)
	}
	if err := testNS.Remove(path, "probe"); err != nil {
		t.Fatal(err)
	}
	return path
}

type bridgeClient struct {
	t      *testing.T
	client *fasthttp.Client
}

func startBridge(t *testing.T, ns xattr.Namespace) *bridgeClient {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: newBridge(ns).handle}
	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return &bridgeClient{
		t: t,
		client: &fasthttp.Client{
			Dial: func(addr string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}
}

type bridgeResponse struct {
	status int
	body   []byte
	header string
}

func (c *bridgeClient) do(method, route string, query url.Values, body []byte) bridgeResponse {
	c.t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://bridge" + route + "?" + query.Encode())
	req.Header.SetMethod(method)
	if body != nil {
		req.SetBody(body)
	}
	if err := c.client.Do(req, resp); err != nil {
		c.t.Fatalf("%s %s: %v", method, route, err)
	}
	return bridgeResponse{
		status: resp.StatusCode(),
		body:   append([]byte(nil), resp.Body()...),
		header: string(resp.Header.Peek(headerError)),
	}
}

func target(path, name string) url.Values {
	return url.Values{"path": {path}, "name": {name}}
}

func TestBridgeLifecycle(t *testing.T) {
	path := testFile(t)
	c := startBridge(t, testNS)
	value := []byte{0, 'v', 0xff, 0}

	if r := c.do("HEAD", routeAttr, target(path, "k"), nil); r.status != fasthttp.StatusNotFound {
		t.Fatalf("HEAD before set = %d, want 404", r.status)
	}
	if r := c.do("PUT", routeAttr, target(path, "k"), value); r.status != fasthttp.StatusNoContent {
		t.Fatalf("PUT = %d %s", r.status, r.body)
	}
	if r := c.do("HEAD", routeAttr, target(path, "k"), nil); r.status != fasthttp.StatusOK {
		t.Fatalf("HEAD after set = %d, want 200", r.status)
	}
	r := c.do("GET", routeAttr, target(path, "k"), nil)
	if r.status != fasthttp.StatusOK {
		t.Fatalf("GET = %d %s", r.status, r.body)
	}
	if diff := cmp.Diff(value, r.body); diff != "" {
		t.Errorf("GET body mismatch (-want +got):\n%s", diff)
	}

	r = c.do("GET", routeList, url.Values{"path": {path}}, nil)
	if r.status != fasthttp.StatusOK {
		t.Fatalf("list = %d %s", r.status, r.body)
	}
	var doc namesDocument
	if err := json.Unmarshal(r.body, &doc); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(namesDocument{Names: [][]byte{[]byte("k")}}, doc); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	if r := c.do("DELETE", routeAttr, target(path, "k"), nil); r.status != fasthttp.StatusNoContent {
		t.Fatalf("DELETE = %d %s", r.status, r.body)
	}
	r = c.do("GET", routeAttr, target(path, "k"), nil)
	if r.status != fasthttp.StatusNotFound || r.header != "enoattr" {
		t.Fatalf("GET after delete = %d %q, want 404 enoattr", r.status, r.header)
	}
	var errDoc errorDocument
	if err := json.Unmarshal(r.body, &errDoc); err != nil {
		t.Fatal(err)
	}
	if errDoc.Kind != "enoattr" || errDoc.Op != "getxattr" || errDoc.Code == 0 {
		t.Errorf("error document = %+v", errDoc)
	}
}

func TestBridgeErrors(t *testing.T) {
	c := startBridge(t, testNS)
	missing := filepath.Join(t.TempDir(), "missing")

	for _, test := range []struct {
		method string
		route  string
		query  url.Values
		status int
		header string
	}{
		{"GET", routeAttr, url.Values{"path": {missing}}, fasthttp.StatusBadRequest, ""},
		{"GET", routeAttr, url.Values{"name": {"k"}}, fasthttp.StatusBadRequest, ""},
		{"GET", routeList, url.Values{}, fasthttp.StatusBadRequest, ""},
		{"POST", routeAttr, target(missing, "k"), fasthttp.StatusMethodNotAllowed, ""},
		{"PUT", routeList, url.Values{"path": {missing}}, fasthttp.StatusMethodNotAllowed, ""},
		{"GET", "/nope", url.Values{}, fasthttp.StatusNotFound, ""},
		{"GET", routeAttr, target(missing, "k"), fasthttp.StatusNotFound, "enoent"},
		{"GET", routeList, url.Values{"path": {missing}}, fasthttp.StatusNotFound, "enoent"},
		{"DELETE", routeAttr, target(missing, "k"), fasthttp.StatusNotFound, "enoent"},
	} {
		r := c.do(test.method, test.route, test.query, nil)
		if r.status != test.status || r.header != test.header {
			t.Errorf("%s %s?%s = %d %q, want %d %q", test.method, test.route, test.query.Encode(),
				r.status, r.header, test.status, test.header)
		}
	}
}

func TestBridgeHealthAndMetrics(t *testing.T) {
	c := startBridge(t, "")

	r := c.do("GET", routeHealth, url.Values{}, nil)
	var health healthDocument
	if err := json.Unmarshal(r.body, &health); err != nil {
		t.Fatal(err)
	}
	if r.status != fasthttp.StatusOK || !health.Native {
		t.Errorf("health = %d %+v", r.status, health)
	}

	c.do("GET", routeList, url.Values{"path": {filepath.Join(t.TempDir(), "missing")}}, nil)
	r = c.do("GET", routeMetrics, url.Values{}, nil)
	if r.status != fasthttp.StatusOK {
		t.Fatalf("metrics = %d", r.status)
	}
	if !strings.Contains(string(r.body), `goxattr_ops_total{op="list",status="enoent"}`) {
		t.Errorf("metrics miss failed list:\n%s", r.body)
	}
}

func TestStatusFor(t *testing.T) {
	for kind, want := range map[xattr.Kind]int{
		xattr.NotFound:            404,
		xattr.AttributeNotFound:   404,
		xattr.PermissionDenied:    403,
		xattr.NotSupported:        501,
		xattr.NoSpace:             507,
		xattr.QuotaExceeded:       507,
		xattr.ArgumentListTooLong: 413,
		xattr.ResultTooLarge:      413,
		xattr.TryAgain:            503,
		xattr.BadAddress:          500,
		xattr.NumericFallback:     500,
		xattr.MessageFallback:     500,
		0:                         500,
	} {
		if got := statusFor(kind); got != want {
			t.Errorf("statusFor(%v) = %d, want %d", kind, got, want)
		}
	}
}
