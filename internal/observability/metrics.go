package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/cmdharness/internal/harness"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdharness",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdharness",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	linesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdharness",
			Subsystem: "harness",
			Name:      "lines_total",
			Help:      "Completed input lines by resolved command and outcome.",
		},
		[]string{"node", "command", "outcome"},
	)
	lineBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdharness",
			Subsystem: "harness",
			Name:      "line_bytes_total",
			Help:      "Bytes accumulated into completed lines, terminators excluded.",
		},
		[]string{"node"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdharness",
			Subsystem: "harness",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from line completion to handler return.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, linesDispatched, lineBytes, dispatchDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDispatch counts one completed line. Unresolved lines carry an empty
// command label so raw operator input never becomes a label value.
func RecordDispatch(node string, d harness.Dispatch) {
	RegisterMetrics()
	linesDispatched.WithLabelValues(node, d.Command, d.Outcome).Inc()
	lineBytes.WithLabelValues(node).Add(float64(d.Bytes))
	dispatchDuration.WithLabelValues(node, d.Outcome).Observe(d.Elapsed.Seconds())
}

// DispatchRecorder feeds harness dispatches into the metrics above.
type DispatchRecorder struct {
	Node string
}

func (r DispatchRecorder) ObserveDispatch(d harness.Dispatch) {
	RecordDispatch(r.Node, d)
}
