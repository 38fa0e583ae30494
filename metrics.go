package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/tigrawap/goxattr/xattr"
)

const statusOK = "ok"

var (
	registry = prometheus.NewRegistry()

	OpCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goxattr_ops_total",
		Help: "Number of attribute operations by outcome",
	},
		[]string{"op", "status"},
	)
	OpDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goxattr_op_duration_nanoseconds",
		Help:    "Duration of attribute operations in nanoseconds",
		Buckets: prometheus.ExponentialBuckets(64, 2, 25),
	},
		[]string{"op"},
	)
	ValueBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goxattr_value_bytes_total",
		Help: "Attribute value bytes read or written",
	},
		[]string{"op"},
	)
)

func init() {
	registry.MustRegister(OpCounter, OpDurations, ValueBytes)
	registry.MustRegister(collectors.NewGoCollector())
}

// statusLabel keeps label cardinality bounded: fallbacks collapse into
// "numeric" and "message".
func statusLabel(err error) string {
	if err == nil {
		return statusOK
	}
	if kind := xattr.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "other"
}

// errorDetail is the finest error description, used in reports.
func errorDetail(err error) string {
	var e *xattr.Error
	if errors.As(err, &e) {
		return e.ErrorKind.String()
	}
	return statusLabel(err)
}

func observe(op string, start time.Time, size int, err error) {
	OpCounter.WithLabelValues(op, statusLabel(err)).Inc()
	OpDurations.WithLabelValues(op).Observe(float64(time.Since(start).Nanoseconds()))
	if err == nil && size > 0 {
		ValueBytes.WithLabelValues(op).Add(float64(size))
	}
}

func metricsHandler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		DisableCompression: true,
	}))
}

// setMetrics serves /metrics for the duration of a benchmark.
func setMetrics() {
	if !config.prometheus {
		return
	}
	handler := metricsHandler()
	go func() {
		err := fasthttp.ListenAndServe(config.listen, func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) == "/metrics" {
				handler(ctx)
				return
			}
			ctx.Error("not found", fasthttp.StatusNotFound)
		})
		if err != nil {
			log.Errorf("Metrics listener on %s: %v", config.listen, err)
		}
	}()
}

// dumpMetrics writes every goxattr metric that recorded something.
func dumpMetrics(w io.Writer) {
	metrics, err := registry.Gather()
	if err != nil {
		fmt.Fprintln(w, "Error gathering metrics:", err)
		return
	}

	encoder := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, m := range metrics {
		if !strings.HasPrefix(m.GetName(), "goxattr_") || !hasSamples(m) {
			continue
		}
		if err := encoder.Encode(m); err != nil {
			fmt.Fprintln(w, "Error encoding metric:", err)
		}
	}
}

func hasSamples(m *io_prometheus_client.MetricFamily) bool {
	for _, metric := range m.Metric {
		switch m.GetType() {
		case io_prometheus_client.MetricType_COUNTER:
			if metric.Counter.GetValue() != 0 {
				return true
			}
		case io_prometheus_client.MetricType_GAUGE:
			if metric.Gauge.GetValue() != 0 {
				return true
			}
		case io_prometheus_client.MetricType_HISTOGRAM:
			if metric.Histogram.GetSampleCount() != 0 {
				return true
			}
		case io_prometheus_client.MetricType_SUMMARY:
			if metric.Summary.GetSampleCount() != 0 {
				return true
			}
		case io_prometheus_client.MetricType_UNTYPED:
			if metric.Untyped.GetValue() != 0 {
				return true
			}
		}
	}
	return false
}
