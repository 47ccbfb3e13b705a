package testengine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-testengine/exitcodes"
	"github.com/ethereum-optimism/infra/op-testengine/registry"
	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// engine implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &engine{}

// engine runs the planned test tree on a schedule and reports every run.
type engine struct {
	ctx       context.Context
	config    *Config
	version   string
	executor  TestExecutor
	scheduler TestScheduler
	formatter ResultFormatter
	reporter  MetricsReporter

	mu     sync.Mutex
	result *types.TestResult
	runID  string

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*engine, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating test engine with config",
		"testDir", config.TestDir,
		"plan", config.PlanFile,
		"gate", config.TargetGate,
		"gateless", config.GatelessMode,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	reg, err := registry.NewRegistry(registry.Config{
		Log:          config.Log,
		PlanFile:     config.PlanFile,
		TestDir:      config.TestDir,
		GoBinary:     config.GoBinary,
		Gate:         config.TargetGate,
		GatelessMode: config.GatelessMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	config.Log.Info("testengine.New: created registry", "gates", len(reg.Gates()))

	return &engine{
		ctx:              ctx,
		config:           config,
		version:          version,
		executor:         NewDefaultTestExecutor(reg, config),
		scheduler:        NewDefaultTestScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter:        NewConsoleResultFormatter(config.Log),
		reporter:         NewDefaultMetricsReporter(),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the tests immediately and then at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (e *engine) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			e.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	e.ctx = ctx
	if e.config.RunOnce {
		e.config.Log.Info("Starting op-testengine in run-once mode", "version", e.version)
	} else {
		e.config.Log.Info("Starting op-testengine in continuous mode", "version", e.version, "interval", e.config.RunInterval)
	}

	e.scheduler.RegisterCallback(e.runTests)
	if err := e.scheduler.Start(ctx); err != nil {
		e.config.Log.Error("Runtime error running tests", "error", err)
		if IsRuntimeError(err) {
			return err
		}
		return NewRuntimeError(err)
	}

	if !e.config.RunOnce {
		e.config.Log.Debug("op-testengine started successfully")
		return nil
	}

	e.config.Log.Info("Tests completed, exiting (run-once mode)")
	if result := e.LastResult(); result != nil && result.State.Status == types.StatusFailed {
		e.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
		return NewTestFailureError(e.LastRunID(), result)
	}

	go e.shutdownCallback(nil)
	return nil
}

// runTests performs one scheduled run
func (e *engine) runTests() error {
	runID := uuid.New().String()
	result, err := e.executor.RunTests(e.ctx, runID)
	if err != nil {
		return NewRuntimeError(err)
	}

	e.mu.Lock()
	e.result = result
	e.runID = runID
	e.mu.Unlock()

	if err := e.formatter.FormatResults(result, runID); err != nil {
		e.config.Log.Warn("Failed to print results", "error", err)
	}
	e.reporter.ReportResults(runID, result)
	e.config.Log.Info("Test run finished", "run_id", runID, "outcome", result.State)
	return nil
}

// LastResult returns the root result of the most recent run, or nil
func (e *engine) LastResult() *types.TestResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// LastRunID returns the id of the most recent run
func (e *engine) LastRunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Stop stops scheduling further runs.
// Stop implements the cliapp.Lifecycle interface.
func (e *engine) Stop(ctx context.Context) error {
	e.config.Log.Info("Stopping op-testengine")
	if err := e.scheduler.Stop(); err != nil {
		return err
	}
	e.config.Log.Info("op-testengine stopped successfully")
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (e *engine) Stopped() bool {
	return e.scheduler.Stopped()
}

// WaitForShutdown blocks until the scheduler goroutines have terminated.
func (e *engine) WaitForShutdown(ctx context.Context) error {
	return e.scheduler.WaitForShutdown(ctx)
}
