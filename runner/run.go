package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Options configures how a test tree is executed
type Options struct {
	// Filter selects the children each suite expands; nil accepts all
	Filter types.Filter
	// Decorators are added to the pipeline of every runnable leaf
	Decorators []Decorator
	// DefaultTimeout is the budget of leaves without a Timeout property;
	// zero runs leaves without a budget
	DefaultTimeout time.Duration
	// TerminationGrace bounds the join of a timed-out worker. Zero uses
	// DefaultTerminationGrace and a negative value waits indefinitely.
	TerminationGrace time.Duration
	WorkDir          string
	Log              log.Logger
	Tracer           trace.Tracer
}

func (o Options) withDefaults() Options {
	if o.Filter == nil {
		o.Filter = types.EmptyFilter
	}
	if o.TerminationGrace == 0 {
		o.TerminationGrace = DefaultTerminationGrace
	}
	if o.Log == nil {
		o.Log = log.New()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer("test runner")
	}
	return o
}

// Run executes the tree below root depth-first and returns its result tree.
// Listener notifications are serialized and properly nested.
func Run(ctx context.Context, root *types.Suite, listener types.Listener, opts Options) (*types.TestResult, error) {
	if root == nil {
		return nil, fmt.Errorf("root suite is required")
	}
	opts = opts.withDefaults()
	if listener == nil {
		listener = types.NullListener{}
	}

	ec := NewExecutionContext(ctx, &syncListener{inner: listener}, opts)
	defer ec.Restore()

	opts.Log.Debug("Running test tree", "root", root.FullName(), "tests", root.CountTestCases(opts.Filter))
	unit := newUnit(root, &opts)
	return unit.Execute(ec), nil
}

// syncListener serializes notifications to a listener that may also be
// reached from other goroutines
type syncListener struct {
	mu    sync.Mutex
	inner types.Listener
}

func (l *syncListener) TestStarted(node types.TestNode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.TestStarted(node)
}

func (l *syncListener) TestFinished(result *types.TestResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.TestFinished(result)
}
