package runner

import (
	"sync"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

var _ Unit = (*SuiteUnit)(nil)

// SuiteUnit expands a suite into child units, runs them one at a time in
// declared order and aggregates their results
type SuiteUnit struct {
	unitBase

	suite *types.Suite

	mu      sync.Mutex
	pending sync.WaitGroup
	units   []Unit
}

func newSuiteUnit(suite *types.Suite, opts *Options) *SuiteUnit {
	return &SuiteUnit{
		unitBase: newUnitBase(suite, opts),
		suite:    suite,
	}
}

// Children returns the child units created when the suite was executed
func (u *SuiteUnit) Children() []Unit {
	return u.units
}

// Execute implements Unit
func (u *SuiteUnit) Execute(parent *ExecutionContext) *types.TestResult {
	if !u.begin() {
		return u.result
	}
	ec, span := u.start(parent, "suite")
	ec.applyProperties(u.suite)
	u.expand()

	if !u.suite.Eligibility().IsRunnable() {
		skipCommand(u.suite)(ec)
		u.skipChildren(ec)
		u.pending.Wait()
		u.finish(ec, span)
		return u.result
	}

	// seed with the suite-level setup outcome
	u.result.SetResult(types.Success, "", "")
	instance := u.oneTimeSetUp(ec)
	if u.result.State.Status == types.StatusPassed {
		for _, child := range u.units {
			child.Execute(ec)
		}
	} else {
		u.skipChildren(ec)
	}
	u.pending.Wait()
	u.oneTimeTearDown(ec, instance)

	u.finish(ec, span)
	return u.result
}

func (u *SuiteUnit) skip(parent *ExecutionContext, state types.OutcomeState, message string) *types.TestResult {
	return u.skipNode(parent, state, message, func(ec *ExecutionContext) {
		u.expand()
		for _, child := range u.units {
			child.skip(ec, state, message)
		}
		u.pending.Wait()
	})
}

// expand wraps every child accepted by the filter, in declared order
func (u *SuiteUnit) expand() {
	for _, child := range u.suite.Children() {
		if !u.opts.Filter.Pass(child) {
			continue
		}
		unit := newUnit(child, u.opts)
		unit.setCompleted(u.childCompleted)
		u.units = append(u.units, unit)
	}
	u.pending.Add(len(u.units))
}

// childCompleted attaches a finished child result to the suite result
func (u *SuiteUnit) childCompleted(result *types.TestResult) {
	u.mu.Lock()
	u.result.AddChild(result)
	u.mu.Unlock()
	u.pending.Done()
}

// skipChildren gives every child a copy of the suite's own outcome without
// invoking any of them
func (u *SuiteUnit) skipChildren(ec *ExecutionContext) {
	state, message := u.result.State, u.result.Message
	for _, child := range u.units {
		child.skip(ec, state, message)
	}
}

// oneTimeSetUp builds the shared fixture instance and runs the OneTimeSetUp
// methods. A signal from either becomes the suite's result.
func (u *SuiteUnit) oneTimeSetUp(ec *ExecutionContext) any {
	fixture := u.suite.Fixture
	if fixture == nil {
		return nil
	}
	var instance any
	if fixture.New != nil && !fixture.InstancePerTest {
		var sig *outcome
		if instance, sig = newFixtureInstance(ec, fixture); sig != nil {
			sig.applyTo(u.result)
			return nil
		}
		ec.setFixture(instance)
	}
	if sig := runMethods(ec, fixture.OneTimeSetUp); sig != nil {
		sig.applyTo(u.result)
		ec.Logger().Warn("OneTimeSetUp failed", "outcome", sig.state, "message", sig.message)
	}
	return instance
}

func (u *SuiteUnit) oneTimeTearDown(ec *ExecutionContext, instance any) {
	fixture := u.suite.Fixture
	if fixture == nil {
		return
	}
	if sig := runMethods(ec, fixture.OneTimeTearDown); sig != nil {
		recordTearDownFailure(ec, u.result, oneTimeTearDownPrefix, sig)
	}
	if instance != nil {
		if sig := disposeFixtureInstance(ec, fixture, instance); sig != nil {
			recordTearDownFailure(ec, u.result, oneTimeTearDownPrefix, sig)
		}
	}
}
