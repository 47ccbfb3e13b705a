package runner

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
)

var _ types.TestContext = (*ExecutionContext)(nil)

// ExecutionContext is the run-time environment of one branch of the test
// tree. Every unit derives its own context from its parent's and restores the
// parent when it completes, merging its assertion count back. A context is
// never shared between siblings.
type ExecutionContext struct {
	parent *ExecutionContext

	CurrentResult *types.TestResult
	Listener      types.Listener
	StartTime     time.Time
	// TestCaseTimeout is the default per-leaf budget in milliseconds, zero
	// meaning unlimited
	TestCaseTimeout int

	ctx         context.Context
	cancel      context.CancelFunc
	currentTest types.TestNode
	fixture     any
	workDir     string
	log         log.Logger

	assertCount atomic.Int64

	mu         sync.Mutex
	assertions []types.AssertionResult
}

// NewExecutionContext creates the root context of a run. Cancellation of ctx
// does not reach the tests; only timeouts cancel a running leaf.
func NewExecutionContext(ctx context.Context, listener types.Listener, opts Options) *ExecutionContext {
	opts = opts.withDefaults()
	if listener == nil {
		listener = types.NullListener{}
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &ExecutionContext{
		Listener:        listener,
		StartTime:       time.Now(),
		TestCaseTimeout: int(opts.DefaultTimeout.Milliseconds()),
		ctx:             runCtx,
		cancel:          cancel,
		workDir:         opts.WorkDir,
		log:             opts.Log,
	}
}

// Derive creates the child context used to execute node
func (ec *ExecutionContext) Derive(ctx context.Context, node types.TestNode, result *types.TestResult) *ExecutionContext {
	if ctx == nil {
		ctx = ec.ctx
	}
	childCtx, cancel := context.WithCancel(ctx)
	return &ExecutionContext{
		parent:          ec,
		CurrentResult:   result,
		Listener:        ec.Listener,
		StartTime:       time.Now(),
		TestCaseTimeout: ec.TestCaseTimeout,
		ctx:             childCtx,
		cancel:          cancel,
		currentTest:     node,
		fixture:         ec.fixture,
		workDir:         ec.workDir,
		log:             ec.log.New("test", node.FullName()),
	}
}

// Restore releases the context, adds its assertion count to the parent and
// returns the parent
func (ec *ExecutionContext) Restore() *ExecutionContext {
	ec.cancel()
	if ec.parent != nil {
		ec.parent.assertCount.Add(ec.assertCount.Load())
	}
	return ec.parent
}

// Parent returns the context this one was derived from
func (ec *ExecutionContext) Parent() *ExecutionContext { return ec.parent }

func (ec *ExecutionContext) Context() context.Context    { return ec.ctx }
func (ec *ExecutionContext) CurrentTest() types.TestNode { return ec.currentTest }
func (ec *ExecutionContext) Fixture() any                { return ec.fixture }
func (ec *ExecutionContext) WorkDirectory() string       { return ec.workDir }
func (ec *ExecutionContext) Logger() log.Logger          { return ec.log }
func (ec *ExecutionContext) IncrementAssertCount()       { ec.assertCount.Add(1) }
func (ec *ExecutionContext) AssertCount() int            { return int(ec.assertCount.Load()) }

// CheckCancelled raises the cancellation signal once the context is done
func (ec *ExecutionContext) CheckCancelled() {
	if err := ec.ctx.Err(); err != nil {
		panic(types.NewCancellation("Test cancelled: %v", err))
	}
}

// RecordAssertion implements types.TestContext
func (ec *ExecutionContext) RecordAssertion(result types.AssertionResult) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.assertions = append(ec.assertions, result)
}

// Assertions returns a copy of the recorded assertion results
func (ec *ExecutionContext) Assertions() []types.AssertionResult {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]types.AssertionResult, len(ec.assertions))
	copy(out, ec.assertions)
	return out
}

func (ec *ExecutionContext) clearAssertions() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.assertions = nil
}

func (ec *ExecutionContext) setFixture(instance any) { ec.fixture = instance }

// applyProperties applies the context mutations requested by a node's
// properties: a timeout override and a working directory.
func (ec *ExecutionContext) applyProperties(node types.TestNode) {
	props := node.Properties()
	ec.TestCaseTimeout = props.GetInt(types.PropertyTimeout, ec.TestCaseTimeout)
	if dir := props.GetString(types.PropertyWorkDirectory, ""); dir != "" {
		if !filepath.IsAbs(dir) && ec.workDir != "" {
			dir = filepath.Join(ec.workDir, dir)
		}
		ec.workDir = dir
	}
}
