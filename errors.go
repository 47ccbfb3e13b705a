package testengine

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include plan errors, missing test directories, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError carries the root result of a run whose outcome is a
// failure (exit code 1)
type TestFailureError struct {
	RunID  string
	Result *types.TestResult
}

func (e *TestFailureError) Error() string {
	if e.Result == nil {
		return fmt.Sprintf("test failure in run %s", e.RunID)
	}
	counts := e.Result.Counts()
	msg := fmt.Sprintf("test failure in run %s: %s: %d of %d tests failed",
		e.RunID, e.Result.State, counts.Failed, counts.Total())
	if e.Result.Message != "" {
		msg += " (" + e.Result.Message + ")"
	}
	return msg
}

// Counts returns the leaf counts of the failed run
func (e *TestFailureError) Counts() types.ResultCounts {
	if e.Result == nil {
		return types.ResultCounts{}
	}
	return e.Result.Counts()
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(runID string, result *types.TestResult) *TestFailureError {
	return &TestFailureError{RunID: runID, Result: result}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
