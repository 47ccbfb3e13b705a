package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/stretchr/testify/assert"
)

const modulePath = "github.com/ethereum-optimism/infra/op-testengine"

// Frames from these packages are elided from reported stack traces, except
// for frames that live in their _test.go files.
var frameworkPackages = []string{
	modulePath + "/runner.",
	modulePath + "/types.",
}

// outcome is a classified signal
type outcome struct {
	state   types.OutcomeState
	message string
	trace   string
}

func (o *outcome) applyTo(result *types.TestResult) {
	result.SetResult(o.state, o.message, o.trace)
}

// invoke calls method and classifies a returned error or a panic. The
// returned outcome is nil when the method completed without a signal.
func invoke(ec *ExecutionContext, method types.Method, args []any) (value any, sig *outcome) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			sig = classifyPanic(ec, r)
		}
	}()

	value, err := method(ec, args...)
	if err != nil {
		return nil, classify(ec, err, nil)
	}
	return value, nil
}

func classifyPanic(ec *ExecutionContext, r any) *outcome {
	// skip runtime.Callers, classifyPanic and the deferred recover func
	pcs := make([]uintptr, 64)
	n := runtime.Callers(3, pcs)
	panicSite := pcs[:n]

	if err, ok := r.(error); ok {
		return classify(ec, err, panicSite)
	}
	return &outcome{
		state:   types.Error,
		message: fmt.Sprintf("panic : %v", r),
		trace:   formatTrace(panicSite),
	}
}

// classify maps an error to an outcome in fixed priority order. panicSite is
// the stack of the panic that carried err, if any.
func classify(ec *ExecutionContext, err error, panicSite []uintptr) *outcome {
	var (
		cancelled    *types.CancellationSignal
		failure      *types.FailureSignal
		ignore       *types.IgnoreSignal
		inconclusive *types.InconclusiveSignal
		success      *types.SuccessSignal
	)
	switch {
	case errors.As(err, &cancelled):
		return &outcome{types.Cancelled, cancelled.Error(), formatTrace(cancelled.Callers())}
	case errors.Is(err, context.Canceled) && ec.Context().Err() != nil:
		return &outcome{types.Cancelled, err.Error(), formatTrace(panicSite)}
	case errors.As(err, &failure):
		return &outcome{types.Failure, failure.Error(), formatTrace(failure.Callers())}
	case errors.As(err, &ignore):
		return &outcome{types.Ignored, ignore.Error(), formatTrace(ignore.Callers())}
	case errors.As(err, &inconclusive):
		return &outcome{types.Inconclusive, inconclusive.Error(), formatTrace(inconclusive.Callers())}
	case errors.As(err, &success):
		ec.clearAssertions()
		return &outcome{types.Success, success.Error(), ""}
	default:
		return &outcome{types.Error, errorMessage(err), formatTrace(panicSite)}
	}
}

// errorMessage formats an unexpected error with its wrapped chain
func errorMessage(err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%T : %s", err, err.Error())
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		fmt.Fprintf(&sb, "\n  ----> %T : %s", inner, inner.Error())
	}
	return sb.String()
}

func formatTrace(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if !isFrameworkFrame(frame) {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func isFrameworkFrame(frame runtime.Frame) bool {
	if strings.HasPrefix(frame.Function, "runtime.") || frame.Function == "" {
		return true
	}
	if strings.HasSuffix(frame.File, "_test.go") {
		return false
	}
	for _, pkg := range frameworkPackages {
		if strings.HasPrefix(frame.Function, pkg) {
			return true
		}
	}
	return false
}

// resultOf decides the outcome of a body that completed without a signal from
// the expected value and the recorded assertion results.
func resultOf(ec *ExecutionContext, leaf *types.Leaf, value any) *outcome {
	if leaf.HasExpectedResult && !assert.ObjectsAreEqual(leaf.ExpectedResult, value) {
		return &outcome{
			state:   types.Failure,
			message: fmt.Sprintf("  Expected: %v\n  But was:  %v", leaf.ExpectedResult, value),
		}
	}
	return fromAssertions(ec.Assertions())
}

func fromAssertions(assertions []types.AssertionResult) *outcome {
	var failures, warnings []types.AssertionResult
	for _, a := range assertions {
		switch a.Status {
		case types.StatusFailed:
			failures = append(failures, a)
		case types.StatusWarning:
			warnings = append(warnings, a)
		}
	}
	switch {
	case len(failures) > 0:
		return &outcome{types.Failure, assertionMessage(append(failures, warnings...)), failures[0].StackTrace}
	case len(warnings) > 0:
		return &outcome{types.Warning, assertionMessage(warnings), warnings[0].StackTrace}
	default:
		return &outcome{state: types.Success}
	}
}

func assertionMessage(results []types.AssertionResult) string {
	if len(results) == 1 {
		return results[0].Message
	}
	var sb strings.Builder
	sb.WriteString("Multiple failures or warnings in test:")
	for i, r := range results {
		fmt.Fprintf(&sb, "\n  %d) %s", i+1, r.Message)
	}
	return sb.String()
}
