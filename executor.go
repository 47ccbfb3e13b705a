package testengine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-testengine/logging"
	"github.com/ethereum-optimism/infra/op-testengine/metrics"
	"github.com/ethereum-optimism/infra/op-testengine/registry"
	"github.com/ethereum-optimism/infra/op-testengine/reporting"
	"github.com/ethereum-optimism/infra/op-testengine/runner"
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// TestExecutor is responsible for running tests.
type TestExecutor interface {
	RunTests(ctx context.Context, runID string) (*types.TestResult, error)
}

// DefaultTestExecutor builds a fresh test tree from the registry for every
// run and executes it with the file, log and metrics listeners attached.
type DefaultTestExecutor struct {
	registry *registry.Registry
	config   *Config
	logger   log.Logger
}

// NewDefaultTestExecutor creates a new DefaultTestExecutor.
func NewDefaultTestExecutor(reg *registry.Registry, config *Config) *DefaultTestExecutor {
	return &DefaultTestExecutor{
		registry: reg,
		config:   config,
		logger:   config.Log,
	}
}

// RunTests runs all tests and returns the root result.
func (e *DefaultTestExecutor) RunTests(ctx context.Context, runID string) (*types.TestResult, error) {
	e.logger.Info("Running all tests...", "run_id", runID)

	root, err := e.registry.BuildTree(types.NewSequenceIDs("", 0))
	if err != nil {
		return nil, fmt.Errorf("failed to build test tree: %w", err)
	}
	filter, err := e.config.Filter()
	if err != nil {
		return nil, err
	}

	fileLogger, err := logging.NewFileLogger(e.config.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	sink := logging.NewSinkListener(fileLogger, runID, e.logger)

	listeners := types.MultiListener{
		logging.NewLogListener(e.logger),
		metrics.NewListener(runID),
		sink,
	}
	if e.config.ShowProgress {
		progress := runner.NewProgressListener(e.logger, e.config.ProgressInterval, root.CountTestCases(filter))
		defer progress.Stop()
		listeners = append(listeners, progress)
	}

	var decorators []runner.Decorator
	if e.config.Repeat > 1 {
		decorators = append(decorators, runner.Repeat(e.config.Repeat))
	}

	result, err := runner.Run(ctx, root, listeners, runner.Options{
		Filter:           filter,
		Decorators:       decorators,
		DefaultTimeout:   e.config.DefaultTimeout,
		TerminationGrace: e.config.TerminationGrace,
		WorkDir:          e.config.TestDir,
		Log:              e.logger,
	})
	if err != nil {
		_ = sink.Close()
		e.logger.Error("Error running tests", "error", err)
		return nil, err
	}

	summary, err := reporting.NewTextSummaryFormatter(true).Format(reporting.BuildReport(result, runID))
	if err == nil {
		err = fileLogger.LogSummary(summary, runID)
	}
	if err != nil {
		e.logger.Error("Failed to write run summary", "error", err)
	}
	if err := sink.Close(); err != nil {
		return nil, fmt.Errorf("failed to complete result logs: %w", err)
	}

	e.logger.Info("Test run completed", "run_id", runID, "outcome", result.State, "logs", fileLogger.GetBaseDir())
	return result, nil
}
