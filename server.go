package main

import (
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/tigrawap/goxattr/ops"
	"github.com/tigrawap/goxattr/xattr"
)

const (
	routeList    = "/v1/attrs"
	routeAttr    = "/v1/attr"
	routeHealth  = "/v1/health"
	routeMetrics = "/metrics"

	headerError = "X-Xattr-Error"
)

// errorDocument is the body of every failed bridge request.
type errorDocument struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Op    string `json:"op,omitempty"`
	Code  int    `json:"code,omitempty"`
}

// bridge exposes the attribute operations over HTTP. Every request runs on
// its own goroutine, so a slow filesystem only blocks its own caller.
type bridge struct {
	ns      xattr.Namespace
	metrics fasthttp.RequestHandler
}

func newBridge(ns xattr.Namespace) *bridge {
	return &bridge{ns: ns, metrics: metricsHandler()}
}

func (b *bridge) handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	switch string(ctx.Path()) {
	case routeList:
		if !ctx.IsGet() {
			methodNotAllowed(ctx)
			break
		}
		b.list(ctx)
	case routeAttr:
		switch {
		case ctx.IsHead():
			b.has(ctx)
		case ctx.IsGet():
			b.get(ctx)
		case ctx.IsPut():
			b.set(ctx)
		case ctx.IsDelete():
			b.remove(ctx)
		default:
			methodNotAllowed(ctx)
		}
	case routeHealth:
		writeJSON(ctx, fasthttp.StatusOK, healthDocument{Native: xattr.NativeLayerAvailable(), Supported: ops.Supported})
	case routeMetrics:
		b.metrics(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
	log.Debugf("%s %s -> %d in %v", ctx.Method(), ctx.RequestURI(), ctx.Response.StatusCode(), time.Since(start))
}

func (b *bridge) list(ctx *fasthttp.RequestCtx) {
	path, ok := requireArg(ctx, "path")
	if !ok {
		return
	}
	start := time.Now()
	names, err := b.ns.List(path)
	observe("list", start, 0, err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, newNamesDocument(names))
}

func (b *bridge) has(ctx *fasthttp.RequestCtx) {
	path, name, ok := requireTarget(ctx)
	if !ok {
		return
	}
	start := time.Now()
	present, err := b.ns.Has(path, name)
	observe("has", start, 0, err)
	switch {
	case err != nil:
		writeError(ctx, err)
	case present:
		ctx.SetStatusCode(fasthttp.StatusOK)
	default:
		ctx.Response.Header.Set(headerError, xattr.AttributeNotFound.String())
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (b *bridge) get(ctx *fasthttp.RequestCtx) {
	path, name, ok := requireTarget(ctx)
	if !ok {
		return
	}
	start := time.Now()
	value, err := b.ns.Get(path, name)
	observe("get", start, len(value), err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetContentType("application/octet-stream")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(value)
}

func (b *bridge) set(ctx *fasthttp.RequestCtx) {
	path, name, ok := requireTarget(ctx)
	if !ok {
		return
	}
	value := ctx.PostBody()
	start := time.Now()
	err := b.ns.Set(path, name, value)
	observe("set", start, len(value), err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (b *bridge) remove(ctx *fasthttp.RequestCtx) {
	path, name, ok := requireTarget(ctx)
	if !ok {
		return
	}
	start := time.Now()
	err := b.ns.Remove(path, name)
	observe("remove", start, 0, err)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func requireArg(ctx *fasthttp.RequestCtx, key string) (string, bool) {
	v := ctx.QueryArgs().Peek(key)
	if len(v) == 0 {
		ctx.Error("missing query argument "+key, fasthttp.StatusBadRequest)
		return EmptyString, false
	}
	return string(v), true
}

func requireTarget(ctx *fasthttp.RequestCtx) (path string, name string, ok bool) {
	if path, ok = requireArg(ctx, "path"); !ok {
		return
	}
	name, ok = requireArg(ctx, "name")
	return
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

// statusFor maps an error kind onto the closest HTTP status.
func statusFor(kind xattr.Kind) int {
	switch kind {
	case xattr.NotFound, xattr.AttributeNotFound:
		return fasthttp.StatusNotFound
	case xattr.PermissionDenied:
		return fasthttp.StatusForbidden
	case xattr.NotSupported:
		return fasthttp.StatusNotImplemented
	case xattr.NoSpace, xattr.QuotaExceeded:
		return fasthttp.StatusInsufficientStorage
	case xattr.ArgumentListTooLong, xattr.ResultTooLarge:
		return fasthttp.StatusRequestEntityTooLarge
	case xattr.TryAgain:
		return fasthttp.StatusServiceUnavailable
	}
	return fasthttp.StatusInternalServerError
}

func writeError(ctx *fasthttp.RequestCtx, err error) {
	doc := errorDocument{Error: err.Error(), Kind: "other"}
	var e *xattr.Error
	if errors.As(err, &e) {
		doc = errorDocument{Error: e.ErrorKind.String(), Kind: e.Kind.String(), Op: e.Op, Code: e.Code}
	}
	log.Debugf("Bridge request failed: %v", err)
	ctx.Response.Header.Set(headerError, doc.Error)
	writeJSON(ctx, statusFor(xattr.KindOf(err)), doc)
}
