package store

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// CountOp increments the operation counter for the given engine and
// operation ("create", "children", "stat", "delete").
func CountOp(engine, op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`oplock_store_ops_total{engine=%q,op=%q}`, engine, op)).Inc()
}

// CountError increments the error counter for the given engine and operation.
func CountError(engine, op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`oplock_store_errors_total{engine=%q,op=%q}`, engine, op)).Inc()
}

// WriteMetrics dumps all collected counters in Prometheus text format.
// The CLI calls this on exit in verbose mode.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
