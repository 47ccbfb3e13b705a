package testengine

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-testengine/flags"
	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	TestDir          string
	PlanFile         string
	TargetGate       string
	GatelessMode     bool
	GoBinary         string
	RunInterval      time.Duration // Interval between test runs
	RunOnce          bool          // Indicates if the service should exit after one test run
	DefaultTimeout   time.Duration // Budget of tests without their own timeout
	TerminationGrace time.Duration // How long a timed out test may take to stop
	TestFilter       string        // Regular expression matched against full test names
	Categories       []string
	Repeat           int    // Iterations per test, flake-shake when above 1
	LogDir           string // Directory to store test logs
	ShowProgress     bool
	ProgressInterval time.Duration
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, testDir string, planFile string, gate string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if testDir == "" {
		return nil, errors.New("test directory is required")
	}

	// Without a plan and a gate every test package below testDir runs
	gatelessMode := planFile == "" && gate == ""
	if gate != "" && planFile == "" {
		return nil, errors.New("plan file is required when a gate is selected")
	}

	var absPlanFile string
	if planFile != "" {
		var err error
		absPlanFile, err = filepath.Abs(planFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for plan file '%s': %w", planFile, err)
		}
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}

	absTestDir, err := filepath.Abs(testDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	cfg := &Config{
		TestDir:          absTestDir,
		PlanFile:         absPlanFile,
		TargetGate:       gate,
		GatelessMode:     gatelessMode,
		GoBinary:         ctx.String(flags.GoBinary.Name),
		RunInterval:      runInterval,
		RunOnce:          runInterval == 0,
		DefaultTimeout:   ctx.Duration(flags.DefaultTimeout.Name),
		TerminationGrace: ctx.Duration(flags.TerminationGrace.Name),
		TestFilter:       ctx.String(flags.TestFilter.Name),
		Categories:       ctx.StringSlice(flags.Categories.Name),
		Repeat:           ctx.Int(flags.Repeat.Name),
		LogDir:           logDir,
		ShowProgress:     ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		Log:              log,
	}
	if cfg.Repeat < 1 {
		return nil, fmt.Errorf("repeat must be at least 1, got %d", cfg.Repeat)
	}
	if _, err := cfg.Filter(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Filter combines the name and category selections into one filter. A node
// passes only when it passes every configured selection.
func (c *Config) Filter() (types.Filter, error) {
	var filters []types.Filter
	if c.TestFilter != "" {
		f, err := types.NewNameFilter(c.TestFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid test filter '%s': %w", c.TestFilter, err)
		}
		filters = append(filters, f)
	}
	if len(c.Categories) > 0 {
		filters = append(filters, types.NewCategoryFilter(c.Categories...))
	}

	switch len(filters) {
	case 0:
		return types.EmptyFilter, nil
	case 1:
		return filters[0], nil
	}
	return types.FilterFunc(func(node types.TestNode) bool {
		for _, f := range filters {
			if !f.Pass(node) {
				return false
			}
		}
		return true
	}), nil
}
