package runner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// Command runs one step of a leaf's invocation pipeline against the context's
// current result and returns it
type Command func(ec *ExecutionContext) *types.TestResult

// CommandStage orders decorators into bands around per-test setup/teardown
type CommandStage int

const (
	StageBelowSetUpTearDown CommandStage = iota
	StageSetUpTearDown
	StageAboveSetUpTearDown
)

// Decorator wraps a command with additional behaviour. Decorators are applied
// innermost-first, ordered by Stage and then by Priority.
type Decorator interface {
	Stage() CommandStage
	Priority() int
	Decorate(next Command) Command
}

// StageDecorator is a Decorator built from a wrapping function
type StageDecorator struct {
	At    CommandStage
	Order int
	Wrap  func(next Command) Command
}

func (d StageDecorator) Stage() CommandStage           { return d.At }
func (d StageDecorator) Priority() int                 { return d.Order }
func (d StageDecorator) Decorate(next Command) Command { return d.Wrap(next) }

// buildPipeline composes the invocation pipeline of a runnable leaf
func buildPipeline(leaf *types.Leaf, custom []Decorator) Command {
	decorators := append(builtinDecorators(leaf), custom...)
	sort.SliceStable(decorators, func(i, j int) bool {
		if decorators[i].Stage() != decorators[j].Stage() {
			return decorators[i].Stage() < decorators[j].Stage()
		}
		return decorators[i].Priority() < decorators[j].Priority()
	})

	cmd := testMethodCommand(leaf)
	for _, d := range decorators {
		cmd = d.Decorate(cmd)
	}
	return cmd
}

func builtinDecorators(leaf *types.Leaf) []Decorator {
	var decorators []Decorator
	var fixture *types.Fixture
	if leaf.Parent() != nil {
		fixture = leaf.Parent().Fixture
	}
	if fixture != nil && (len(fixture.SetUp) > 0 || len(fixture.TearDown) > 0) {
		decorators = append(decorators, setUpTearDown{fixture: fixture})
	}
	if fixture != nil && fixture.InstancePerTest && fixture.New != nil {
		decorators = append(decorators, fixtureInstance{fixture: fixture})
	}
	props := leaf.Properties()
	if props.ContainsKey(types.PropertyWorkDirectory) || props.ContainsKey(types.PropertyTimeout) {
		decorators = append(decorators, contextMutation{node: leaf})
	}
	return decorators
}

// testMethodCommand is the innermost command: it invokes the leaf's method
// and classifies whatever it raised.
func testMethodCommand(leaf *types.Leaf) Command {
	return func(ec *ExecutionContext) *types.TestResult {
		result := ec.CurrentResult
		value, sig := invoke(ec, leaf.Method, leaf.Arguments)
		if sig == nil {
			sig = resultOf(ec, leaf, value)
		}
		sig.applyTo(result)
		return result
	}
}

// skipCommand replaces the pipeline of a leaf that is not runnable
func skipCommand(node types.TestNode) Command {
	return func(ec *ExecutionContext) *types.TestResult {
		result := ec.CurrentResult
		result.SetResult(
			node.Eligibility().OutcomeState(),
			node.Properties().GetString(types.PropertySkipReason, ""),
			node.Properties().GetString(types.PropertyProviderStackTrace, ""),
		)
		return result
	}
}

// setUpTearDown runs the fixture's SetUp methods before the test and its
// TearDown methods after it, whatever the outcome.
type setUpTearDown struct {
	fixture *types.Fixture
}

func (setUpTearDown) Stage() CommandStage { return StageSetUpTearDown }
func (setUpTearDown) Priority() int       { return 0 }

func (s setUpTearDown) Decorate(next Command) Command {
	return func(ec *ExecutionContext) *types.TestResult {
		result := ec.CurrentResult
		if sig := runMethods(ec, s.fixture.SetUp); sig != nil {
			sig.applyTo(result)
		} else {
			result = next(ec)
		}
		if sig := runMethods(ec, s.fixture.TearDown); sig != nil {
			recordTearDownFailure(ec, result, tearDownPrefix, sig)
		}
		return result
	}
}

// fixtureInstance constructs a fresh fixture instance around a single test
type fixtureInstance struct {
	fixture *types.Fixture
}

func (fixtureInstance) Stage() CommandStage { return StageAboveSetUpTearDown }
func (fixtureInstance) Priority() int       { return 0 }

func (f fixtureInstance) Decorate(next Command) Command {
	return func(ec *ExecutionContext) *types.TestResult {
		result := ec.CurrentResult
		instance, sig := newFixtureInstance(ec, f.fixture)
		if sig != nil {
			sig.applyTo(result)
			return result
		}
		ec.setFixture(instance)
		result = next(ec)
		if sig := disposeFixtureInstance(ec, f.fixture, instance); sig != nil {
			recordTearDownFailure(ec, result, tearDownPrefix, sig)
		}
		return result
	}
}

// contextMutation applies the node's Timeout and WorkDirectory properties to
// the context the test body sees
type contextMutation struct {
	node types.TestNode
}

func (contextMutation) Stage() CommandStage { return StageAboveSetUpTearDown }
func (contextMutation) Priority() int       { return 100 }

func (c contextMutation) Decorate(next Command) Command {
	return func(ec *ExecutionContext) *types.TestResult {
		ec.applyProperties(c.node)
		return next(ec)
	}
}

// runMethods invokes fixture methods in order, stopping at the first signal
func runMethods(ec *ExecutionContext, methods []types.Method) *outcome {
	for _, m := range methods {
		if _, sig := invoke(ec, m, nil); sig != nil {
			return sig
		}
	}
	return nil
}

func newFixtureInstance(ec *ExecutionContext, fixture *types.Fixture) (any, *outcome) {
	instance, sig := invoke(ec, func(types.TestContext, ...any) (any, error) {
		return fixture.New()
	}, nil)
	return instance, sig
}

func disposeFixtureInstance(ec *ExecutionContext, fixture *types.Fixture, instance any) *outcome {
	if fixture.Dispose == nil {
		return nil
	}
	_, sig := invoke(ec, func(types.TestContext, ...any) (any, error) {
		return nil, fixture.Dispose(instance)
	}, nil)
	return sig
}

// recordTearDownFailure reports a teardown signal. A result that has not
// already failed becomes an Error; otherwise the message is appended.
// Non-failure signals raised in teardown leave the result as it is.
func recordTearDownFailure(ec *ExecutionContext, result *types.TestResult, prefix string, sig *outcome) {
	if sig.state.Status != types.StatusFailed {
		ec.Logger().Debug("Ignoring non-failure signal from teardown",
			"test", result.Test.FullName(), "stage", strings.TrimSuffix(prefix, " : "), "outcome", sig.state)
		return
	}
	if result.State.Status != types.StatusFailed {
		result.SetResult(types.Error, prefix+sig.message, sig.trace)
		return
	}
	result.Message = fmt.Sprintf("%s\n%s%s", result.Message, prefix, sig.message)
	if sig.trace != "" {
		result.StackTrace = fmt.Sprintf("%s\n--%s\n%s", result.StackTrace, prefix, sig.trace)
	}
}
