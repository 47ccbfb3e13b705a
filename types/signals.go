package types

import (
	"fmt"
	"runtime"
)

// Signals are raised by test bodies, either returned as errors or thrown with
// panic, and classified by the invocation pipeline into an OutcomeState.

const maxSignalDepth = 64

type signal struct {
	message string
	callers []uintptr
}

func newSignal(format string, args ...any) signal {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	pcs := make([]uintptr, maxSignalDepth)
	// skip runtime.Callers, newSignal and the exported constructor
	n := runtime.Callers(3, pcs)
	return signal{message: msg, callers: pcs[:n]}
}

// Error implements the error interface
func (s *signal) Error() string { return s.message }

// Callers returns the program counters captured where the signal was raised
func (s *signal) Callers() []uintptr { return s.callers }

// FailureSignal reports a failed assertion
type FailureSignal struct{ signal }

// IgnoreSignal asks for the running test to be reported as ignored
type IgnoreSignal struct{ signal }

// InconclusiveSignal reports that the test could not decide its outcome
type InconclusiveSignal struct{ signal }

// SuccessSignal ends the test immediately as passed
type SuccessSignal struct{ signal }

// CancellationSignal is raised when a running test is forcibly cancelled
type CancellationSignal struct{ signal }

// NewFailure returns an assertion-failure signal
func NewFailure(format string, args ...any) *FailureSignal {
	return &FailureSignal{newSignal(format, args...)}
}

// NewIgnore returns an ignore signal
func NewIgnore(format string, args ...any) *IgnoreSignal {
	return &IgnoreSignal{newSignal(format, args...)}
}

// NewInconclusive returns an inconclusive signal
func NewInconclusive(format string, args ...any) *InconclusiveSignal {
	return &InconclusiveSignal{newSignal(format, args...)}
}

// NewSuccess returns a success-override signal
func NewSuccess(format string, args ...any) *SuccessSignal {
	return &SuccessSignal{newSignal(format, args...)}
}

// NewCancellation returns a forced-cancellation signal
func NewCancellation(format string, args ...any) *CancellationSignal {
	return &CancellationSignal{newSignal(format, args...)}
}

// Fail stops the calling test with an assertion failure
func Fail(format string, args ...any) {
	panic(&FailureSignal{newSignal(format, args...)})
}

// Ignore stops the calling test and reports it as ignored
func Ignore(format string, args ...any) {
	panic(&IgnoreSignal{newSignal(format, args...)})
}

// MarkInconclusive stops the calling test with an inconclusive outcome
func MarkInconclusive(format string, args ...any) {
	panic(&InconclusiveSignal{newSignal(format, args...)})
}

// Pass stops the calling test and reports it as passed
func Pass(format string, args ...any) {
	panic(&SuccessSignal{newSignal(format, args...)})
}

// AssertionResult is a non-fatal assertion outcome recorded by a test body
type AssertionResult struct {
	Status     Status
	Message    string
	StackTrace string
}
