package types

import (
	"time"
)

// Messages set on a suite result when a child changes its outcome
const (
	ChildErrorsMessage  = "One or more child tests had errors"
	ChildIgnoredMessage = "One or more child tests were ignored"
)

// ResultCounts tallies leaf outcomes beneath a suite result
type ResultCounts struct {
	Passed       int
	Failed       int
	Warnings     int
	Skipped      int
	Inconclusive int
}

// Total returns the number of leaves counted
func (c ResultCounts) Total() int {
	return c.Passed + c.Failed + c.Warnings + c.Skipped + c.Inconclusive
}

func (c *ResultCounts) add(other ResultCounts) {
	c.Passed += other.Passed
	c.Failed += other.Failed
	c.Warnings += other.Warnings
	c.Skipped += other.Skipped
	c.Inconclusive += other.Inconclusive
}

// TestResult is the outcome record of one executed test node. A leaf result
// derives its counts from its own state; a suite result keeps running
// counters that always equal the sum of its attached children.
type TestResult struct {
	Test        TestNode
	State       OutcomeState
	Message     string
	StackTrace  string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	AssertCount int
	Children    []*TestResult

	counts ResultCounts
}

// NewTestResult creates an inconclusive result for node
func NewTestResult(node TestNode) *TestResult {
	return &TestResult{
		Test:  node,
		State: Inconclusive,
	}
}

// IsSuite reports whether this is a suite result
func (r *TestResult) IsSuite() bool {
	return r.Test != nil && r.Test.IsSuite()
}

// SetResult replaces the state, message and stack trace
func (r *TestResult) SetResult(state OutcomeState, message, stackTrace string) {
	r.State = state
	r.Message = message
	r.StackTrace = stackTrace
}

// Counts returns the leaf tallies represented by this result
func (r *TestResult) Counts() ResultCounts {
	if r.IsSuite() {
		return r.counts
	}
	var c ResultCounts
	switch r.State.Status {
	case StatusPassed:
		c.Passed = 1
	case StatusFailed:
		c.Failed = 1
	case StatusWarning:
		c.Warnings = 1
	case StatusSkipped:
		c.Skipped = 1
	default:
		c.Inconclusive = 1
	}
	return c
}

func (r *TestResult) PassCount() int         { return r.Counts().Passed }
func (r *TestResult) FailCount() int         { return r.Counts().Failed }
func (r *TestResult) WarningCount() int      { return r.Counts().Warnings }
func (r *TestResult) SkipCount() int         { return r.Counts().Skipped }
func (r *TestResult) InconclusiveCount() int { return r.Counts().Inconclusive }
func (r *TestResult) TotalCount() int        { return r.Counts().Total() }

// AddChild attaches a finished child result and folds its outcome into this
// suite result.
func (r *TestResult) AddChild(child *TestResult) {
	r.Children = append(r.Children, child)
	r.AssertCount += child.AssertCount
	r.counts.add(child.Counts())

	switch child.State.Status {
	case StatusPassed:
		if r.State.Status == StatusInconclusive {
			r.SetResult(Success, "", "")
		}
	case StatusFailed:
		if r.State.Status != StatusFailed {
			r.SetResult(Failure, ChildErrorsMessage, "")
		}
	case StatusSkipped:
		switch child.State.Label {
		case LabelInvalid:
			if r.State != NotRunnable && r.State.Status != StatusFailed {
				r.SetResult(Failure, ChildErrorsMessage, "")
			}
		case LabelIgnored:
			if r.State.Status == StatusInconclusive || r.State.Status == StatusPassed {
				r.SetResult(Ignored, ChildIgnoredMessage, "")
			}
		}
	}
}

// Walk visits r and every descendant depth-first. Returning false from visit
// stops the descent below that result.
func (r *TestResult) Walk(visit func(*TestResult) bool) {
	if !visit(r) {
		return
	}
	for _, child := range r.Children {
		child.Walk(visit)
	}
}
