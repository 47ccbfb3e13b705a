package runner

import (
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/metrics"
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

var _ Unit = (*LeafUnit)(nil)

// LeafUnit drives the invocation pipeline of a single leaf
type LeafUnit struct {
	unitBase

	leaf     *types.Leaf
	pipeline Command
}

func newLeafUnit(leaf *types.Leaf, opts *Options) *LeafUnit {
	u := &LeafUnit{
		unitBase: newUnitBase(leaf, opts),
		leaf:     leaf,
	}
	if leaf.Eligibility().IsRunnable() {
		u.pipeline = buildPipeline(leaf, opts.Decorators)
	} else {
		u.pipeline = skipCommand(leaf)
	}
	return u
}

// Execute implements Unit
func (u *LeafUnit) Execute(parent *ExecutionContext) *types.TestResult {
	if !u.begin() {
		return u.result
	}
	ec, span := u.start(parent, "test")

	budget := u.leaf.Properties().GetInt(types.PropertyTimeout, ec.TestCaseTimeout)
	if budget > 0 && u.leaf.Eligibility().IsRunnable() {
		u.runWithTimeout(ec, time.Duration(budget)*time.Millisecond)
	} else {
		runCommand(u.pipeline, ec)
	}

	u.finish(ec, span)
	return u.result
}

func (u *LeafUnit) skip(parent *ExecutionContext, state types.OutcomeState, message string) *types.TestResult {
	return u.skipNode(parent, state, message, nil)
}

// runWithTimeout runs the pipeline on a worker goroutine against a private
// result. If the worker outlives the budget its context is cancelled, it is
// joined for at most the termination grace and the unit's result is then
// overwritten with a timeout failure, even if the worker completed in the
// meantime.
func (u *LeafUnit) runWithTimeout(ec *ExecutionContext, budget time.Duration) {
	work := types.NewTestResult(u.leaf)
	ec.CurrentResult = work
	done := make(chan struct{})
	go func() {
		defer close(done)
		runCommand(u.pipeline, ec)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-done:
		ec.CurrentResult = u.result
		u.result.SetResult(work.State, work.Message, work.StackTrace)
		return
	case <-timer.C:
	}

	ec.cancel()
	if !join(done, u.opts.TerminationGrace) {
		ec.Logger().Error("Abandoning test worker that ignored cancellation", "grace", u.opts.TerminationGrace)
	}
	ec.Logger().Warn("Test exceeded timeout", "timeout", budget)
	metrics.RecordTestTimeout(u.leaf.FullName())
	u.result.SetResult(types.Failure, fmt.Sprintf(timeoutMessageFormat, budget.Milliseconds()), "")
}

// join waits for done, for at most grace unless grace is negative
func join(done <-chan struct{}, grace time.Duration) bool {
	if grace < 0 {
		<-done
		return true
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// runCommand runs cmd, converting a panic raised outside the innermost
// command into an Error result
func runCommand(cmd Command, ec *ExecutionContext) {
	result := ec.CurrentResult
	defer func() {
		if r := recover(); r != nil {
			classifyPanic(ec, r).applyTo(result)
		}
	}()
	cmd(ec)
}
