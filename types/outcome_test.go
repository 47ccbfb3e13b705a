package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeState_Equals(t *testing.T) {
	tests := []struct {
		name  string
		state OutcomeState
		other any
		want  bool
	}{
		{"same labelled state", Error, NewOutcomeState(StatusFailed, LabelError), true},
		{"different label", Error, NotRunnable, false},
		{"default label equals empty label", NewOutcomeState(StatusPassed), NewOutcomeState(StatusPassed, ""), true},
		{"pointer to equal state", Failure, &OutcomeState{Status: StatusFailed}, true},
		{"nil pointer", Failure, (*OutcomeState)(nil), false},
		{"different type", Failure, "Failed", false},
		{"status only comparison", Failure, StatusFailed, false},
		{"same status different label", Skipped, Ignored, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Equals(tt.other))
		})
	}
}

func TestOutcomeState_String(t *testing.T) {
	assert.Equal(t, "Passed", Success.String())
	assert.Equal(t, "Failed:Error", Error.String())
	assert.Equal(t, "Failed:Invalid", NotRunnable.String())
	assert.Equal(t, "Skipped:Ignored", Ignored.String())
	assert.Equal(t, "Inconclusive", Inconclusive.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestEligibility_OutcomeState(t *testing.T) {
	assert.Equal(t, Skipped, SkippedEligibility.OutcomeState())
	assert.Equal(t, Ignored, IgnoredEligibility.OutcomeState())
	assert.Equal(t, NotRunnable, NotRunnableEligibility.OutcomeState())
	assert.True(t, Runnable.IsRunnable())
	assert.True(t, Explicit.IsRunnable())
	assert.False(t, IgnoredEligibility.IsRunnable())
}
