package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafResult(ids IDGenerator, name string, state OutcomeState, asserts int) *TestResult {
	r := NewTestResult(NewLeaf(ids, name, func(TestContext, ...any) (any, error) { return nil, nil }))
	r.State = state
	r.AssertCount = asserts
	return r
}

func TestTestResult_AddChild(t *testing.T) {
	tests := []struct {
		name        string
		parent      OutcomeState
		child       OutcomeState
		wantState   OutcomeState
		wantMessage string
	}{
		{"pass flips inconclusive", Inconclusive, Success, Success, ""},
		{"pass keeps warning", Warning, Success, Warning, ""},
		{"failure fails passed parent", Success, Failure, Failure, ChildErrorsMessage},
		{"error fails parent", Success, Error, Failure, ChildErrorsMessage},
		{"failure keeps existing failure", Error, Failure, Error, ""},
		{"ignored flips passed", Success, Ignored, Ignored, ChildIgnoredMessage},
		{"ignored flips inconclusive", Inconclusive, Ignored, Ignored, ChildIgnoredMessage},
		{"ignored keeps failure", Failure, Ignored, Failure, ""},
		{"plain skip changes nothing", Success, Skipped, Success, ""},
		{"skipped invalid fails parent", Success, NewOutcomeState(StatusSkipped, LabelInvalid), Failure, ChildErrorsMessage},
		{"skipped invalid keeps not runnable", NotRunnable, NewOutcomeState(StatusSkipped, LabelInvalid), NotRunnable, ""},
		{"inconclusive changes nothing", Success, Inconclusive, Success, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := NewSequenceIDs("t-", 0)
			parent := NewTestResult(NewSuite(ids, "S"))
			parent.State = tt.parent

			parent.AddChild(leafResult(ids, "child", tt.child, 0))

			assert.Equal(t, tt.wantState, parent.State)
			assert.Equal(t, tt.wantMessage, parent.Message)
			assert.Len(t, parent.Children, 1)
		})
	}
}

func TestTestResult_CountsSumChildren(t *testing.T) {
	ids := NewSequenceIDs("t-", 0)
	root := NewTestResult(NewSuite(ids, "root"))
	inner := NewTestResult(NewSuite(ids, "inner"))

	inner.AddChild(leafResult(ids, "a", Success, 2))
	inner.AddChild(leafResult(ids, "b", Warning, 1))
	root.AddChild(inner)
	root.AddChild(leafResult(ids, "c", Failure, 3))
	root.AddChild(leafResult(ids, "d", Ignored, 0))
	root.AddChild(leafResult(ids, "e", Inconclusive, 0))

	var sum ResultCounts
	for _, child := range root.Children {
		sum.add(child.Counts())
	}
	require.Equal(t, sum, root.Counts())
	assert.Equal(t, 1, root.PassCount())
	assert.Equal(t, 1, root.WarningCount())
	assert.Equal(t, 1, root.FailCount())
	assert.Equal(t, 1, root.SkipCount())
	assert.Equal(t, 1, root.InconclusiveCount())
	assert.Equal(t, 5, root.TotalCount())
	assert.Equal(t, 6, root.AssertCount)
	assert.Equal(t, Failure, root.State)
}

func TestTestResult_LeafCountsFollowState(t *testing.T) {
	ids := NewSequenceIDs("t-", 0)
	r := leafResult(ids, "a", Success, 0)
	assert.Equal(t, 1, r.PassCount())

	r.SetResult(Failure, "boom", "")
	assert.Equal(t, 0, r.PassCount())
	assert.Equal(t, 1, r.FailCount())
	assert.Equal(t, "boom", r.Message)
}

func TestTestResult_Walk(t *testing.T) {
	ids := NewSequenceIDs("t-", 0)
	root := NewTestResult(NewSuite(ids, "root"))
	inner := NewTestResult(NewSuite(ids, "inner"))
	inner.AddChild(leafResult(ids, "a", Success, 0))
	root.AddChild(inner)
	root.AddChild(leafResult(ids, "b", Success, 0))

	var names []string
	root.Walk(func(r *TestResult) bool {
		names = append(names, r.Test.Name())
		return r.Test.Name() != "inner"
	})
	assert.Equal(t, []string{"root", "inner", "b"}, names)
}
