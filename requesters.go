package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tigrawap/goxattr/utils"
	"github.com/tigrawap/goxattr/xattr"
)

type nullRequester struct {
}

func (n *nullRequester) request(responses chan *Response, request *Request) {
	responses <- &Response{request: request, latency: time.Nanosecond}
}

// sleepRequester fakes a filesystem that degrades with concurrency
type sleepRequester struct {
	state *OPState
	db    chan int
}

func (requester *sleepRequester) request(responses chan *Response, request *Request) {
	if utils.Intn(10000)-int(requester.state.getInFlight()) < 0 {
		responses <- &Response{request: request, err: errors.New("Bad response")}
		return
	}
	start := time.Now()
	requester.db <- 0
	time.Sleep(time.Duration(utils.Intn(200)) * time.Millisecond)
	<-requester.db
	responses <- &Response{request: request, latency: time.Since(start)}
}

func newSleepRequester(state *OPState) *sleepRequester {
	return &sleepRequester{
		state: state,
		db:    make(chan int, 10),
	}
}

// ensureFile creates path, and its directory, when it does not exist yet
func ensureFile(path string) error {
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := mknod(path); err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// attrOp is one timed attribute operation against a target
type attrOp func(ns xattr.Namespace, target attrTarget) (size int, err error)

var attrOps = map[string]attrOp{
	"set": func(ns xattr.Namespace, t attrTarget) (int, error) {
		value := requestersConfig.payloadGetter.Get()
		return len(value), ns.Set(t.path, t.name, value)
	},
	"get": func(ns xattr.Namespace, t attrTarget) (int, error) {
		value, err := ns.Get(t.path, t.name)
		return len(value), err
	},
	"has": func(ns xattr.Namespace, t attrTarget) (int, error) {
		present, err := ns.Has(t.path, t.name)
		if err == nil && !present {
			err = &xattr.Error{Op: "hasxattr", Path: t.path, Name: t.name, ErrorKind: xattr.ErrorKind{Kind: xattr.AttributeNotFound}}
		}
		return 0, err
	},
	"list": func(ns xattr.Namespace, t attrTarget) (int, error) {
		_, err := ns.List(t.path)
		return 0, err
	},
	"remove": func(ns xattr.Namespace, t attrTarget) (int, error) {
		return 0, ns.Remove(t.path, t.name)
	},
}

var allMetaOps = []string{"get", "has", "list", "remove", "set"}

// xattrRequester runs one operation per request, picking it by weight
type xattrRequester struct {
	ns      xattr.Namespace
	ops     []string
	weights []int
	total   int
	mkfiles bool
}

func newXattrRequester(ns xattr.Namespace, weighted metaOps, mkfiles bool) *xattrRequester {
	r := xattrRequester{ns: ns, mkfiles: mkfiles}
	for _, op := range weighted {
		r.total += op.weight
		r.ops = append(r.ops, op.op)
		r.weights = append(r.weights, r.total)
	}
	return &r
}

func (r *xattrRequester) pick() string {
	if len(r.ops) == 1 {
		return r.ops[0]
	}
	roll := utils.Intn(r.total)
	for i, w := range r.weights {
		if roll < w {
			return r.ops[i]
		}
	}
	return r.ops[len(r.ops)-1]
}

func (r *xattrRequester) request(responses chan *Response, request *Request) {
	opName := r.pick()
	target := request.getTarget()
	if r.mkfiles && opName == "set" {
		if err := ensureFile(target.path); err != nil {
			log.Debugf("Creating %s: %v", target.path, err)
		}
	}
	start := time.Now()
	size, err := attrOps[opName](r.ns, target)
	latency := time.Since(start)
	observe(opName, start, size, err)
	responses <- &Response{request: request, latency: latency, err: err, size: size, op: opName}
}

type metaOp struct {
	op     string
	weight int
}
type metaOps []metaOp

func (m *metaOps) String() string {
	parts := make([]string, 0, len(*m))
	for _, op := range *m {
		parts = append(parts, op.op+":"+strconv.Itoa(op.weight))
	}
	return strings.Join(parts, ",")
}

func (m *metaOps) Type() string {
	return "metaOps"
}

func (m *metaOps) Set(value string) error {
	for _, weightedOp := range strings.Split(value, ",") {
		parts := strings.Split(weightedOp, ":")
		op := strings.TrimSpace(parts[0])
		if op == EmptyString {
			return pkgerrors.New("op cannot be empty string")
		}
		if _, ok := attrOps[op]; !ok {
			return pkgerrors.Errorf("unknown op %q, known: %s", op, strings.Join(allMetaOps, ","))
		}
		weight := 1
		var err error
		switch len(parts) {
		case 1:
		case 2:
			weight, err = strconv.Atoi(parts[1])
			if err != nil || weight < 1 {
				return pkgerrors.Errorf("could not parse weight of %s", op)
			}
		default:
			return pkgerrors.Errorf("could not parse %q, multiple ':' specified", weightedOp)
		}
		*m = append(*m, metaOp{op, weight})
	}
	return nil
}
