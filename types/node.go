package types

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// Eligibility is the pre-execution classification of a test node, fixed by
// whatever discovered the node.
type Eligibility int

const (
	Runnable Eligibility = iota
	Explicit
	SkippedEligibility
	IgnoredEligibility
	NotRunnableEligibility
)

// String implements the Stringer interface for Eligibility
func (e Eligibility) String() string {
	switch e {
	case Runnable:
		return "Runnable"
	case Explicit:
		return "Explicit"
	case SkippedEligibility:
		return "Skipped"
	case IgnoredEligibility:
		return "Ignored"
	case NotRunnableEligibility:
		return "NotRunnable"
	default:
		return fmt.Sprintf("Eligibility(%d)", int(e))
	}
}

// IsRunnable reports whether nodes with this eligibility are executed normally
func (e Eligibility) IsRunnable() bool {
	return e == Runnable || e == Explicit
}

// OutcomeState returns the synthesized state for a node that is not executed
func (e Eligibility) OutcomeState() OutcomeState {
	switch e {
	case SkippedEligibility:
		return Skipped
	case IgnoredEligibility:
		return Ignored
	case NotRunnableEligibility:
		return NotRunnable
	default:
		return Inconclusive
	}
}

// TestContext is the view of the running execution context handed to test
// bodies, setup and teardown methods.
type TestContext interface {
	// Context is cancelled when the test exceeds its timeout
	Context() context.Context
	// CheckCancelled raises the cancellation signal once Context is done
	CheckCancelled()
	Fixture() any
	WorkDirectory() string
	Logger() log.Logger
	CurrentTest() TestNode
	IncrementAssertCount()
	AssertCount() int
	// RecordAssertion keeps a non-fatal assertion result; failures and
	// warnings decide the outcome of a body that completes without a signal.
	RecordAssertion(result AssertionResult)
}

// Method is the invocable body of a leaf or a fixture method. A returned value
// is compared against the leaf's expected result when one is declared; a
// returned error or a panic is classified as a signal.
type Method func(t TestContext, args ...any) (any, error)

// TestNode is an element of the static test tree
type TestNode interface {
	ID() string
	Name() string
	FullName() string
	Eligibility() Eligibility
	Properties() *PropertyBag
	Parent() *Suite
	IsSuite() bool

	setParent(parent *Suite)
}

type node struct {
	id          string
	name        string
	eligibility Eligibility
	properties  *PropertyBag
	parent      *Suite
}

func newNode(ids IDGenerator, name string) node {
	return node{
		id:         ids.NextID(),
		name:       name,
		properties: NewPropertyBag(),
	}
}

func (n *node) ID() string               { return n.id }
func (n *node) Name() string             { return n.name }
func (n *node) Eligibility() Eligibility { return n.eligibility }
func (n *node) Properties() *PropertyBag { return n.properties }
func (n *node) Parent() *Suite           { return n.parent }
func (n *node) setParent(parent *Suite)  { n.parent = parent }

// FullName returns the dotted path from the root suite to this node
func (n *node) FullName() string {
	if n.parent == nil {
		return n.name
	}
	return n.parent.FullName() + "." + n.name
}

// SetEligibility records the eligibility of the node and, when given, the
// reason that is reported for nodes that do not run.
func (n *node) SetEligibility(e Eligibility, reason string) {
	n.eligibility = e
	if reason != "" {
		n.properties.Set(PropertySkipReason, reason)
	}
}

// MarkNotRunnable flags the node as structurally invalid
func (n *node) MarkNotRunnable(reason, trace string) {
	n.SetEligibility(NotRunnableEligibility, reason)
	if trace != "" {
		n.properties.Set(PropertyProviderStackTrace, trace)
	}
}

// Leaf is a directly invocable test
type Leaf struct {
	node

	Method            Method
	Arguments         []any
	ExpectedResult    any
	HasExpectedResult bool
}

// NewLeaf creates a leaf test. A leaf without a method is not runnable.
func NewLeaf(ids IDGenerator, name string, method Method, args ...any) *Leaf {
	l := &Leaf{
		node:      newNode(ids, name),
		Method:    method,
		Arguments: args,
	}
	if method == nil {
		l.MarkNotRunnable("No test method was provided", "")
	}
	return l
}

// Expect declares the value the method must return
func (l *Leaf) Expect(value any) *Leaf {
	l.ExpectedResult = value
	l.HasExpectedResult = true
	return l
}

// IsSuite implements TestNode
func (l *Leaf) IsSuite() bool { return false }

// Fixture holds the optional lifecycle hooks shared by the tests of a suite
type Fixture struct {
	// New constructs the fixture instance exposed through TestContext.Fixture
	New     func() (any, error)
	Dispose func(instance any) error

	SetUp           []Method
	TearDown        []Method
	OneTimeSetUp    []Method
	OneTimeTearDown []Method

	// InstancePerTest constructs a fresh instance around every leaf instead
	// of once for the whole suite.
	InstancePerTest bool
}

// Suite owns an ordered list of child nodes
type Suite struct {
	node

	Fixture  *Fixture
	children []TestNode
}

// NewSuite creates an empty suite
func NewSuite(ids IDGenerator, name string) *Suite {
	return &Suite{node: newNode(ids, name)}
}

// NewFixture creates a suite carrying fixture hooks
func NewFixture(ids IDGenerator, name string, fixture *Fixture) *Suite {
	s := NewSuite(ids, name)
	s.Fixture = fixture
	return s
}

// Add appends children in declaration order and takes ownership of them
func (s *Suite) Add(children ...TestNode) *Suite {
	for _, child := range children {
		child.setParent(s)
		s.children = append(s.children, child)
	}
	return s
}

// Children returns the children in declaration order
func (s *Suite) Children() []TestNode {
	return s.children
}

// IsSuite implements TestNode
func (s *Suite) IsSuite() bool { return true }

// CountTestCases returns the number of leaves beneath s accepted by filter
func (s *Suite) CountTestCases(filter Filter) int {
	count := 0
	for _, child := range s.children {
		if filter != nil && !filter.Pass(child) {
			continue
		}
		if sub, ok := child.(*Suite); ok {
			count += sub.CountTestCases(filter)
		} else {
			count++
		}
	}
	return count
}
