package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "Canvas.test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != "success" {
		t.Fatalf("operations: %+v", hooks.Operations)
	}
}

func TestExecuteWriteMapsTypedStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code domainagg.ErrorCode
	}{
		{"invariant", InvariantError("broken"), domainagg.CodeInvariantViolation},
		{"forbidden", domainagg.NewError(domainagg.CodeForbidden, "op", "not a member", nil), domainagg.CodeForbidden},
		{"storage", errors.New("disk on fire"), domainagg.CodeStorage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "Canvas.test", func(_ dbctx.Context) error {
				return tc.err
			})
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: want=%s got=%v", tc.code, err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(tc.code) {
				t.Fatalf("status: %+v", hooks.Operations)
			}
		})
	}
}

func TestExecuteWriteTracksConflictAndRetryCounters(t *testing.T) {
	hooks := &spyHooks{}
	_ = executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "Canvas.test.conflict", func(_ dbctx.Context) error {
		return ConflictError("version taken")
	})
	_ = executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "Canvas.test.retry", func(_ dbctx.Context) error {
		return RetryableError("lock timeout")
	})
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "Canvas.test.conflict" {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
	if len(hooks.Retries) != 1 || hooks.Retries[0] != "Canvas.test.retry" {
		t.Fatalf("retry hooks: %+v", hooks.Retries)
	}
}

func TestExecuteWriteWithRetrySucceedsAfterConflicts(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	err := executeWriteWithRetry(context.Background(), BaseDeps{
		Runner:      spyTxRunner{},
		Hooks:       hooks,
		MaxAttempts: 3,
		Backoff:     noBackoff,
	}, "Canvas.test.retry", func(_ dbctx.Context) error {
		calls++
		if calls < 3 {
			return ConflictError("version taken")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("want success on third attempt, got=%v", err)
	}
	if calls != 3 {
		t.Fatalf("attempts: want=3 got=%d", calls)
	}
	if len(hooks.Conflicts) != 2 {
		t.Fatalf("conflicts: want=2 got=%d", len(hooks.Conflicts))
	}
}

func TestExecuteWriteWithRetryGivesUpWithConflict(t *testing.T) {
	calls := 0
	err := executeWriteWithRetry(context.Background(), BaseDeps{
		Runner:      spyTxRunner{},
		MaxAttempts: 3,
		Backoff:     noBackoff,
	}, "Canvas.test.exhaust", func(_ dbctx.Context) error {
		calls++
		return ConflictError("version taken")
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict after exhausting attempts, got=%v", err)
	}
	if calls != 3 {
		t.Fatalf("attempts: want=3 got=%d", calls)
	}
}

func TestExecuteWriteWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := executeWriteWithRetry(context.Background(), BaseDeps{
		Runner:  spyTxRunner{},
		Backoff: noBackoff,
	}, "Canvas.test.notfound", func(_ dbctx.Context) error {
		calls++
		return domainagg.NewError(domainagg.CodeNotFound, "op", "project 9 not found", nil)
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) || calls != 1 {
		t.Fatalf("want single not_found attempt, got calls=%d err=%v", calls, err)
	}
}

func TestExecuteWriteWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := executeWriteWithRetry(ctx, BaseDeps{
		Runner:      spyTxRunner{},
		MaxAttempts: 5,
		Backoff:     func(int) time.Duration { return time.Hour },
	}, "Canvas.test.cancel", func(_ dbctx.Context) error {
		calls++
		cancel()
		return ConflictError("version taken")
	})
	if err == nil || calls != 1 {
		t.Fatalf("cancel should stop retries: calls=%d err=%v", calls, err)
	}
}

func TestJitteredBackoffGrows(t *testing.T) {
	for attempt := 1; attempt <= 3; attempt++ {
		base := defaultBackoffBase << (attempt - 1)
		got := jitteredBackoff(attempt)
		if got < base || got >= 2*base {
			t.Fatalf("attempt %d: want [%s,%s) got=%s", attempt, base, 2*base, got)
		}
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(ConflictError("x")); got != string(domainagg.CodeConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
}

func noBackoff(int) time.Duration { return 0 }

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}
