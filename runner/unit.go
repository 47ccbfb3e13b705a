package runner

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UnitState is the lifecycle of an execution unit. It only moves forward.
type UnitState int32

const (
	Ready UnitState = iota
	Waiting
	Complete
)

// String implements the Stringer interface for UnitState
func (s UnitState) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Waiting:
		return "Waiting"
	case Complete:
		return "Complete"
	default:
		return fmt.Sprintf("UnitState(%d)", int32(s))
	}
}

// Unit is the transient scheduling wrapper around one test node for a single
// run. A unit executes at most once; further calls to Execute return the
// existing result without running anything.
type Unit interface {
	Test() types.TestNode
	Result() *types.TestResult
	State() UnitState
	// Execute runs the unit under a context derived from parent and returns
	// its finished result. No signal escapes Execute.
	Execute(parent *ExecutionContext) *types.TestResult
	// Done is closed once the unit is Complete
	Done() <-chan struct{}

	// skip completes the unit, and its descendants, with a synthetic
	// outcome instead of running it
	skip(parent *ExecutionContext, state types.OutcomeState, message string) *types.TestResult
	setCompleted(fn func(*types.TestResult))
}

// NewUnit wraps node in a SuiteUnit or a LeafUnit
func NewUnit(node types.TestNode, opts Options) Unit {
	opts = opts.withDefaults()
	return newUnit(node, &opts)
}

func newUnit(node types.TestNode, opts *Options) Unit {
	switch n := node.(type) {
	case *types.Suite:
		return newSuiteUnit(n, opts)
	case *types.Leaf:
		return newLeafUnit(n, opts)
	default:
		panic(fmt.Sprintf("unsupported test node type %T", node))
	}
}

// unitBase holds the lifecycle shared by leaf and suite units
type unitBase struct {
	node   types.TestNode
	result *types.TestResult
	opts   *Options

	state     atomic.Int32
	done      chan struct{}
	completed func(*types.TestResult)
}

func newUnitBase(node types.TestNode, opts *Options) unitBase {
	return unitBase{
		node:   node,
		result: types.NewTestResult(node),
		opts:   opts,
		done:   make(chan struct{}),
	}
}

func (u *unitBase) Test() types.TestNode                    { return u.node }
func (u *unitBase) Result() *types.TestResult               { return u.result }
func (u *unitBase) State() UnitState                        { return UnitState(u.state.Load()) }
func (u *unitBase) Done() <-chan struct{}                   { return u.done }
func (u *unitBase) setCompleted(fn func(*types.TestResult)) { u.completed = fn }

// begin moves the unit from Ready to Waiting, reporting false if it was
// already started
func (u *unitBase) begin() bool {
	if u.state.CompareAndSwap(int32(Ready), int32(Waiting)) {
		return true
	}
	u.opts.Log.Warn("Execution unit already started", "test", u.node.FullName(), "state", u.State())
	return false
}

// start derives the unit's context, opens its span and notifies the listener
func (u *unitBase) start(parent *ExecutionContext, kind string) (*ExecutionContext, trace.Span) {
	ctx, span := u.opts.Tracer.Start(parent.Context(), fmt.Sprintf("%s %s", kind, u.node.FullName()),
		trace.WithAttributes(
			attribute.String("test.id", u.node.ID()),
			attribute.String("test.eligibility", u.node.Eligibility().String()),
		))
	ec := parent.Derive(ctx, u.node, u.result)
	ec.Listener.TestStarted(u.node)
	u.result.StartTime = ec.StartTime
	ec.Logger().Debug("Test started", "kind", kind)
	return ec, span
}

// finish finalizes the result, notifies the listener, restores the parent
// context and marks the unit Complete
func (u *unitBase) finish(ec *ExecutionContext, span trace.Span) {
	u.result.EndTime = time.Now()
	u.result.Duration = u.result.EndTime.Sub(u.result.StartTime)
	u.result.AssertCount = ec.AssertCount()

	ec.Logger().Debug("Test finished", "outcome", u.result.State, "duration", u.result.Duration)
	ec.Listener.TestFinished(u.result)
	ec.Restore()

	if span != nil {
		span.SetAttributes(attribute.String("test.outcome", u.result.State.String()))
		if u.result.State.Status == types.StatusFailed {
			span.SetStatus(codes.Error, u.result.Message)
		}
		span.End()
	}

	u.state.Store(int32(Complete))
	close(u.done)
	if u.completed != nil {
		u.completed(u.result)
	}
}

// skipNode completes the unit with a synthetic result. children, when set,
// completes the unit's descendants the same way.
func (u *unitBase) skipNode(parent *ExecutionContext, state types.OutcomeState, message string, children func(ec *ExecutionContext)) *types.TestResult {
	if !u.begin() {
		return u.result
	}
	ec := parent.Derive(parent.Context(), u.node, u.result)
	ec.Listener.TestStarted(u.node)
	u.result.StartTime = ec.StartTime
	u.result.SetResult(state, message, "")
	if children != nil {
		children(ec)
	}
	u.finish(ec, nil)
	return u.result
}
