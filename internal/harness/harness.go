package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/attune/internal/cache"
	"github.com/roach88/attune/internal/config"
	"github.com/roach88/attune/internal/engine"
	"github.com/roach88/attune/internal/store"
	"github.com/roach88/attune/internal/testutil"
)

// Harness is the scenario execution engine. It runs scenarios against a
// real engine with a frozen clock and sequential outcome ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.FixedClock
	seq    int64
}

// Option configures a harness run.
type Option func(*runConfig)

type runConfig struct {
	cfg    config.Config
	logger *zap.Logger
}

// WithConfig runs the engine under cfg instead of config.Default().
func WithConfig(cfg config.Config) Option {
	return func(rc *runConfig) { rc.cfg = cfg }
}

// WithLogger sets the engine logger. Runs are silent by default.
func WithLogger(l *zap.Logger) Option {
	return func(rc *runConfig) { rc.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with an in-memory
// reading cache for isolation. Outcome ids are "outcome-1", "outcome-2",
// ... in logging order.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute setup steps (each must succeed)
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions against the trace and final state
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	rc := runConfig{cfg: config.Default(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&rc)
	}

	now, err := scenario.start()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewFixedClock(now)
	engineOpts := append(engine.ConfigOptions(rc.cfg),
		engine.WithCache(cache.NewMemory(rc.cfg.Cache.MemoryEntries)),
		engine.WithClock(clock),
		engine.WithIDGenerator(testutil.NewSequenceGenerator("outcome")),
		engine.WithLogger(rc.logger),
	)
	eng := engine.New(st, engineOpts...)
	defer eng.Close()

	h := &Harness{
		store:  st,
		engine: eng,
		clock:  clock,
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// next returns the next trace sequence number.
func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

// invoke runs one operation and appends its invocation and completion to
// the trace. Engine failures are returned as opErr and recorded as
// completion cases; err is set only when the step itself is broken
// (malformed args, unserializable result) and aborts the run.
func (h *Harness) invoke(ctx context.Context, name string, args map[string]any, result *Result) (outcomeCase string, shaped any, opErr, err error) {
	result.AddInvocationTrace(name, args, h.next())

	out, opErr := actions[name](ctx, h, args)
	var argErr *argsError
	if errors.As(opErr, &argErr) {
		return "", nil, nil, fmt.Errorf("%s: %w", name, opErr)
	}

	outcomeCase = CaseOK
	if opErr != nil {
		outcomeCase = caseFor(opErr)
		shaped = errorResult(opErr)
	} else if shaped, err = jsonShape(out); err != nil {
		return "", nil, nil, fmt.Errorf("%s: %w", name, err)
	}

	result.AddCompletionTrace(name, outcomeCase, shaped, h.next())
	return outcomeCase, shaped, opErr, nil
}

// executeSetup runs all setup steps. Any failed step aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		_, _, opErr, err := h.invoke(ctx, step.Action, step.Args, result)
		if err == nil {
			err = opErr
		}
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
	}
	return nil
}

// executeFlow runs all flow steps and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		gotCase, got, opErr, err := h.invoke(ctx, step.Invoke, step.Args, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		if step.Expect == nil {
			continue
		}

		if gotCase != step.Expect.Case {
			msg := fmt.Sprintf("flow[%d] %s: expected case %q, got %q", i, step.Invoke, step.Expect.Case, gotCase)
			if opErr != nil {
				msg += fmt.Sprintf(" (%v)", opErr)
			}
			result.AddError(msg)
			continue
		}
		if len(step.Expect.Result) > 0 && !subsetMatch(got, step.Expect.Result) {
			result.AddError(fmt.Sprintf("flow[%d] %s: result %v does not match expected %v", i, step.Invoke, got, step.Expect.Result))
		}
	}
	return nil
}
