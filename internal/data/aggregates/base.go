package aggregates

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"gorm.io/gorm"
)

const (
	DefaultMaxAttempts = 3
	defaultBackoffBase = 15 * time.Millisecond
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks

	// MaxAttempts bounds retries of conflicting/transient writes. <=0 uses DefaultMaxAttempts.
	MaxAttempts int
	// Backoff returns the pause before attempt n+1. nil uses jittered exponential backoff.
	Backoff func(attempt int) time.Duration
	Now     func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.Backoff == nil {
		d.Backoff = jitteredBackoff
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeWriteWithRetry reruns the whole transaction while it fails with a
// conflict or a transient error, up to deps.MaxAttempts times. Each attempt is
// a fresh transaction, so nothing from a failed attempt survives.
func executeWriteWithRetry(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	var err error
	for attempt := 1; attempt <= deps.MaxAttempts; attempt++ {
		err = executeWrite(ctx, deps, op, fn)
		if err == nil || !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return MapError(op, ctx.Err())
		}
		if attempt == deps.MaxAttempts {
			break
		}
		deps.Log.Debug("retrying aggregate write", "op", op, "attempt", attempt, "code", string(domainagg.CodeOf(err)))
		if wait := deps.Backoff(attempt); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return MapError(op, ctx.Err())
			case <-t.C:
			}
		}
	}
	deps.Log.Warn("aggregate write gave up", "op", op, "attempts", deps.MaxAttempts, "error", err)
	return err
}

func retryable(err error) bool {
	return domainagg.IsCode(err, domainagg.CodeConflict) || domainagg.IsCode(err, domainagg.CodeRetryable)
}

func jitteredBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := defaultBackoffBase << (attempt - 1)
	return base + rand.N(base)
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
