package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

// InjectedTxRunner injects transaction failures around an optional real runner.
// With Inner set, a commit failure is raised inside the transaction, so the
// database rolls back everything the body wrote.
type InjectedTxRunner struct {
	mu sync.Mutex

	Inner aggregates.TxRunner

	FailBegin  error
	FailCommit error
	// FailFirst makes the first FailFirstN attempts return FailFirst before the body runs.
	FailFirst  error
	FailFirstN int

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	attempt := r.BeginCalls
	failBegin, failCommit := r.FailBegin, r.FailCommit
	failFirst, failFirstN := r.FailFirst, r.FailFirstN
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failFirst != nil && attempt <= failFirstN {
		r.count(&r.RollbackCalls)
		return failFirst
	}

	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		return failCommit
	}

	var err error
	if r.Inner != nil {
		err = r.Inner.InTx(ctx, body)
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}
	if err != nil {
		r.count(&r.RollbackCalls)
		return err
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
