package aggregates

import (
	"strings"
	"time"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/observability"
)

// Hooks receives the outcome of each aggregate write. op is the
// "Canvas.CreateVersion" style name passed to executeWrite.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// aggregateMetrics is the part of observability.Metrics the hooks write to.
type aggregateMetrics interface {
	ObserveAggregateOperation(operation, status string, dur time.Duration)
	IncAggregateConflict(operation string)
	IncAggregateRetry(operation string)
}

type metricsHooks struct {
	metrics  aggregateMetrics
	contract domainagg.Contract
}

// NewObservabilityHooks reports canvas writes to Prometheus. A nil registry
// yields no-op hooks.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics, contract: domainagg.CanvasAggregateContract}
}

func (h metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(h.label(op), status, dur)
}

func (h metricsHooks) IncConflict(op string) { h.metrics.IncAggregateConflict(h.label(op)) }

func (h metricsHooks) IncRetry(op string) { h.metrics.IncAggregateRetry(h.label(op)) }

// label keeps the operation label set to the contract's write ops so a
// mistyped op cannot grow series without bound.
func (h metricsHooks) label(op string) string {
	op = strings.TrimSpace(op)
	_, method, ok := strings.Cut(op, ".")
	if !ok || !h.contract.IsWriteOp(method) {
		return "other"
	}
	return op
}
