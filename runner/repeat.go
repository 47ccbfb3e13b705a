package runner

import (
	"fmt"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// repeatPriority places Repeat outside a per-test fixture instance and inside
// the context mutation stage, so every iteration gets fresh setup and
// teardown while the leaf's timeout covers all of them.
const repeatPriority = 50

// Repeat returns a decorator that runs every leaf iterations times to shake
// out flaky tests. All iterations run; the leaf takes the outcome of the
// first iteration that did not pass, with a message naming how many failed.
func Repeat(iterations int) Decorator {
	return StageDecorator{
		At:    StageAboveSetUpTearDown,
		Order: repeatPriority,
		Wrap: func(next Command) Command {
			if iterations <= 1 {
				return next
			}
			return func(ec *ExecutionContext) *types.TestResult {
				return repeat(ec, next, iterations)
			}
		},
	}
}

func repeat(ec *ExecutionContext, next Command, iterations int) *types.TestResult {
	result := ec.CurrentResult
	var (
		firstBad *types.TestResult
		bad      int
	)
	for i := 1; i <= iterations; i++ {
		result.SetResult(types.Inconclusive, "", "")
		ec.clearAssertions()
		next(ec)
		ec.Logger().Debug("Iteration finished", "iteration", i, "iterations", iterations, "outcome", result.State)

		if result.State.Status == types.StatusPassed {
			continue
		}
		bad++
		if firstBad == nil {
			firstBad = &types.TestResult{State: result.State, Message: result.Message, StackTrace: result.StackTrace}
		}
		if result.State == types.Cancelled {
			break
		}
	}

	if firstBad == nil {
		return result
	}
	message := fmt.Sprintf("%d of %d iterations did not pass", bad, iterations)
	if firstBad.Message != "" {
		message += ": " + firstBad.Message
	}
	ec.Logger().Warn("Repeated test is unstable", "failed", bad, "iterations", iterations, "outcome", firstBad.State)
	result.SetResult(firstBad.State, message, firstBad.StackTrace)
	return result
}
