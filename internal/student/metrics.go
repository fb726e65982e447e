package student

import (
	"errors"

	"github.com/leg100/roster/internal"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	createOp = "create"
	getOp    = "get"
	updateOp = "update"
	deleteOp = "delete"
)

type metrics struct {
	operations *prometheus.CounterVec
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Subsystem: "student",
			Name:      "operations_total",
			Help:      "Total number of student operations, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	if err := r.Register(m.operations); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.operations = already.ExistingCollector.(*prometheus.CounterVec)
	}
	return m, nil
}

func (m *metrics) observe(op string, err error) {
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, internal.ErrResourceNotFound):
		return "not_found"
	case errors.Is(err, internal.ErrResourceAlreadyExists):
		return "conflict"
	default:
		return "error"
	}
}
