package registry

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/runner"
	"github.com/ethereum-optimism/infra/op-testengine/testlist"
	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

const (
	// RootSuiteName names the root of a tree built from every gate in the plan
	RootSuiteName = "plan"
	// GatelessGateID is the gate synthesized when running without a plan
	GatelessGateID = "gateless"
)

// Registry loads a test plan and turns it into test trees
type Registry struct {
	config Config
	plan   *types.PlanConfig
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log      log.Logger
	PlanFile string
	// TestDir is the module directory that go test runs in
	TestDir  string
	GoBinary string
	// Gate restricts the tree to a single gate when set
	Gate string
	// GatelessMode runs every test package below TestDir without a plan
	GatelessMode bool
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.PlanFile == "" && !cfg.GatelessMode {
		return nil, fmt.Errorf("test plan file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}

	if cfg.GatelessMode {
		if err := r.discoverGateless(); err != nil {
			return nil, fmt.Errorf("failed to discover test packages: %w", err)
		}
		return r, nil
	}

	if err := r.loadPlan(cfg.PlanFile); err != nil {
		return nil, fmt.Errorf("failed to load test plan: %w", err)
	}
	if cfg.Gate != "" && r.gate(cfg.Gate) == nil {
		return nil, fmt.Errorf("gate %q not found in %s", cfg.Gate, cfg.PlanFile)
	}

	cfg.Log.Debug("Registry loaded", "gates", len(r.plan.Gates))

	return r, nil
}

// loadPlan reads the plan and resolves gate inheritance
func (r *Registry) loadPlan(cfgPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := r.validateGateInheritance(plan); err != nil {
		return fmt.Errorf("failed to resolve gate inheritance: %w", err)
	}

	r.plan = plan
	return nil
}

// discoverGateless synthesizes a single gate holding every test package
// below the test directory. A trailing "/..." on TestDir is accepted.
func (r *Registry) discoverGateless() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	testDir := strings.TrimSuffix(r.config.TestDir, "/...")
	if testDir == "" {
		testDir = "."
	}
	r.config.TestDir = testDir

	packages, err := testlist.FindTestPackages(".", testDir)
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		return fmt.Errorf("no test packages found in %s", testDir)
	}

	gate := types.GateConfig{ID: GatelessGateID, Description: "All test packages in " + testDir}
	for _, pkg := range packages {
		gate.Tests = append(gate.Tests, types.TestConfig{Package: pkg, RunAll: true})
	}
	r.plan = &types.PlanConfig{Gates: []types.GateConfig{gate}}
	r.config.Gate = GatelessGateID

	r.config.Log.Debug("Discovered test packages", "dir", testDir, "packages", len(packages))
	return nil
}

// validateGateInheritance checks gate inheritance resolution
func (r *Registry) validateGateInheritance(plan *types.PlanConfig) error {
	gateMap := make(map[string]types.GateConfig)
	for _, gate := range plan.Gates {
		if _, dup := gateMap[gate.ID]; dup {
			return fmt.Errorf("duplicate gate %q", gate.ID)
		}
		gateMap[gate.ID] = gate
	}

	for _, gate := range plan.Gates {
		if err := r.checkCircularInheritance(gate.ID, gate.Inherits, gateMap, make(map[string]bool)); err != nil {
			return fmt.Errorf("circular inheritance detected: %w", err)
		}
	}

	for i := range plan.Gates {
		if err := plan.Gates[i].ResolveInherited(gateMap); err != nil {
			return fmt.Errorf("invalid gate inheritance: %w", err)
		}
	}

	return nil
}

// checkCircularInheritance detects circular dependencies in gate inheritance
func (r *Registry) checkCircularInheritance(currentID string, inherits []string, gateMap map[string]types.GateConfig, visited map[string]bool) error {
	if visited[currentID] {
		return fmt.Errorf("circular inheritance detected at gate %s", currentID)
	}

	visited[currentID] = true
	defer delete(visited, currentID)

	for _, inheritedID := range inherits {
		inherited, exists := gateMap[inheritedID]
		if !exists {
			return fmt.Errorf("gate %s inherits from non-existent gate %s", currentID, inheritedID)
		}

		if err := r.checkCircularInheritance(inheritedID, inherited.Inherits, gateMap, visited); err != nil {
			return err
		}
	}

	return nil
}

// Gates returns the resolved gates of the plan
func (r *Registry) Gates() []types.GateConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plan.Gates
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

func (r *Registry) gate(id string) *types.GateConfig {
	for i := range r.plan.Gates {
		if r.plan.Gates[i].ID == id {
			return &r.plan.Gates[i]
		}
	}
	return nil
}

// BuildTree builds a fresh test tree from the plan. With a configured gate
// the gate itself is the root; otherwise every gate hangs below a root suite.
// Node ids are drawn from ids, which the caller owns.
func (r *Registry) BuildTree(ids types.IDGenerator) (*types.Suite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b := &treeBuilder{
		ids:      ids,
		log:      r.config.Log,
		testDir:  r.config.TestDir,
		goBinary: r.config.GoBinary,
		timeouts: r.plan.Metadata.Timeouts,
	}

	var root *types.Suite
	if r.config.Gate != "" {
		root = b.gate(r.gate(r.config.Gate))
	} else {
		root = types.NewSuite(ids, RootSuiteName)
		for i := range r.plan.Gates {
			root.Add(b.gate(&r.plan.Gates[i]))
		}
	}

	if r.config.TestDir != "" {
		dir, err := filepath.Abs(r.config.TestDir)
		if err != nil {
			return nil, fmt.Errorf("resolving test directory: %w", err)
		}
		root.Properties().Set(types.PropertyWorkDirectory, dir)
	}

	r.config.Log.Debug("Built test tree", "root", root.Name(), "tests", root.CountTestCases(types.EmptyFilter))
	return root, nil
}

// loadConfig loads a test plan from a file
func loadConfig(path string) (*types.PlanConfig, error) {
	log.Debug("Reading test plan file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg types.PlanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

type treeBuilder struct {
	ids      types.IDGenerator
	log      log.Logger
	testDir  string
	goBinary string
	timeouts map[string]time.Duration
}

func (b *treeBuilder) gate(g *types.GateConfig) *types.Suite {
	suite := types.NewSuite(b.ids, g.ID)
	if g.Description != "" {
		suite.Properties().Set(types.PropertyDescription, g.Description)
	}
	if timeout, ok := b.timeouts[g.ID]; ok && g.Timeout == nil {
		suite.Properties().Set(types.PropertyTimeout, int(timeout.Milliseconds()))
	}
	g.NodeOptions.Apply(suite)

	names := make([]string, 0, len(g.Suites))
	for name := range g.Suites {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := g.Suites[name]
		child := types.NewSuite(b.ids, name)
		if cfg.Description != "" {
			child.Properties().Set(types.PropertyDescription, cfg.Description)
		}
		cfg.NodeOptions.Apply(child)
		b.addTests(child, cfg.Tests)
		suite.Add(child)
	}

	b.addTests(suite, g.Tests)
	return suite
}

func (b *treeBuilder) addTests(parent *types.Suite, tests []types.TestConfig) {
	for _, cfg := range tests {
		var node types.Configurable
		switch {
		case cfg.Name != "" && !cfg.RunAll:
			node = b.leaf(cfg.Package, cfg.Name)
		case strings.HasSuffix(cfg.Package, "/..."):
			node = b.packageTree(cfg)
		default:
			node = b.packageSuite(cfg.DisplayName(), cfg.Package)
		}
		if timeout, ok := b.timeouts[cfg.Key()]; ok && cfg.Timeout == nil {
			node.Properties().Set(types.PropertyTimeout, int(timeout.Milliseconds()))
		}
		cfg.NodeOptions.Apply(node)
		parent.Add(node)
	}
}

func (b *treeBuilder) leaf(pkg, name string) *types.Leaf {
	method := runner.GoTest{GoBinary: b.goBinary, Package: pkg, Name: name}.Method()
	leaf := types.NewLeaf(b.ids, name, method)
	leaf.Properties().Set(types.PropertyPackage, pkg)
	return leaf
}

// packageSuite expands a package into one leaf per test function. A package
// whose tests cannot be listed becomes a not runnable suite.
func (b *treeBuilder) packageSuite(name, pkg string) *types.Suite {
	suite := types.NewSuite(b.ids, name)
	suite.Properties().Set(types.PropertyPackage, pkg)

	funcs, err := testlist.FindTestFunctions(pkg, b.testDir)
	if err != nil {
		b.log.Warn("Failed to list package tests", "package", pkg, "err", err)
		suite.MarkNotRunnable(fmt.Sprintf("Failed to list tests in %s: %v", pkg, err), "")
		return suite
	}
	if len(funcs) == 0 {
		suite.MarkNotRunnable(fmt.Sprintf("No tests found in %s", pkg), "")
		return suite
	}
	for _, fn := range funcs {
		suite.Add(b.leaf(pkg, fn.Name))
	}
	return suite
}

// packageTree expands a "pkg/..." pattern into one suite per test package
func (b *treeBuilder) packageTree(cfg types.TestConfig) *types.Suite {
	pattern := strings.TrimSuffix(cfg.Package, "/...")
	suite := types.NewSuite(b.ids, path.Base(pattern))
	suite.Properties().Set(types.PropertyPackage, cfg.Package)

	packages, err := b.findPackages(pattern)
	if err != nil {
		b.log.Warn("Failed to find test packages", "pattern", cfg.Package, "err", err)
		suite.MarkNotRunnable(fmt.Sprintf("Failed to find test packages in %s: %v", cfg.Package, err), "")
		return suite
	}
	for _, pkg := range packages {
		suite.Add(b.packageSuite(strings.TrimPrefix(pkg, "./"), pkg))
	}
	return suite
}

func (b *treeBuilder) findPackages(pattern string) ([]string, error) {
	if pattern == "." || strings.HasPrefix(pattern, "./") {
		return testlist.FindTestPackages(pattern, b.testDir)
	}
	dir, err := testlist.PackageDir(pattern, b.testDir)
	if err != nil {
		return nil, err
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return testlist.FindTestPackages(dir, b.testDir)
}
