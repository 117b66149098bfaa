package aggregates

import (
	"context"
	"testing"
	"time"

	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
)

type observedOp struct {
	Name   string
	Status string
}

type spyHooks struct {
	Operations []observedOp
	Conflicts  []string
	Retries    []string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, observedOp{Name: name, Status: status})
}
func (h *spyHooks) IncConflict(name string) { h.Conflicts = append(h.Conflicts, name) }
func (h *spyHooks) IncRetry(name string)    { h.Retries = append(h.Retries, name) }

// spyTxRunner invokes the write fn without a real transaction.
type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}

	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != "success" {
		t.Fatalf("operation status: want=success got=%s", hooks.Operations[0].Status)
	}
}

func TestExecuteWriteMapsTaggedErrors(t *testing.T) {
	cases := []struct {
		name     string
		inner    error
		wantCode domainagg.ErrorCode
	}{
		{"validation", ValidationError("bad input"), domainagg.CodeValidation},
		{"not_found", NotFoundError("missing row"), domainagg.CodeNotFound},
		{"invariant", InvariantError("invariant broken"), domainagg.CodeInvariantViolation},
		{"conflict", ConflictError("stale version"), domainagg.CodeConflict},
		{"precondition", PreconditionError("row disabled"), domainagg.CodePreconditionFailed},
		{"retryable", RetryableError("lock timeout"), domainagg.CodeRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{
				Runner: spyTxRunner{},
				Hooks:  hooks,
			}, "aggregate.test."+tc.name, func(_ dbctx.Context) error {
				return tc.inner
			})
			if err == nil {
				t.Fatalf("expected error")
			}
			if !domainagg.IsCode(err, tc.wantCode) {
				t.Fatalf("expected code %s, got=%v", tc.wantCode, err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(tc.wantCode) {
				t.Fatalf("unexpected op status: %+v", hooks.Operations)
			}
		})
	}
}

func TestExecuteWriteTracksConflictAndRetryCounters(t *testing.T) {
	hooks := &spyHooks{}
	_ = executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.conflict", func(_ dbctx.Context) error {
		return ConflictError("stale version")
	})
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "aggregate.test.conflict" {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
	if len(hooks.Retries) != 0 {
		t.Fatalf("retry hooks should be empty, got=%+v", hooks.Retries)
	}

	hooks = &spyHooks{}
	_ = executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.retry", func(_ dbctx.Context) error {
		return RetryableError("temporary lock timeout")
	})
	if len(hooks.Retries) != 1 || hooks.Retries[0] != "aggregate.test.retry" {
		t.Fatalf("retry hooks: %+v", hooks.Retries)
	}
	if len(hooks.Conflicts) != 0 {
		t.Fatalf("conflict hooks should be empty, got=%+v", hooks.Conflicts)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(MapError("op", InvariantError("x"))); got != string(domainagg.CodeInvariantViolation) {
		t.Fatalf("invariant status: got=%s", got)
	}
	if got := aggregateErrorStatus(ConflictError("x")); got != string(domainagg.CodeConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
}
