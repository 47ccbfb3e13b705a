package testengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testengine/logging"
	"github.com/ethereum-optimism/infra/op-testengine/registry"
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// The plan only contains nodes that never reach `go test`: a skipped test and
// a package without tests.
const executorPlan = `
gates:
  - id: smoke
    description: "Smoke gate"
    tests:
      - name: TestDeposit
        package: ./bridge
        skip: "needs a devnet"
      - package: ./empty
        run_all: true
`

func writeExecutorModule(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":                "module example.com/smoke\n\ngo 1.22\n",
		"bridge/bridge_test.go": "package bridge\n\nimport \"testing\"\n\nfunc TestDeposit(t *testing.T) {}\n",
		"empty/doc.go":          "package empty\n",
		"plan.yaml":             executorPlan,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestDefaultTestExecutor_RunTests(t *testing.T) {
	dir := writeExecutorModule(t)
	cfg := &Config{
		TestDir:    dir,
		PlanFile:   filepath.Join(dir, "plan.yaml"),
		TargetGate: "smoke",
		GoBinary:   "go",
		LogDir:     filepath.Join(dir, "logs"),
		Log:        log.New(),
	}
	reg, err := registry.NewRegistry(registry.Config{
		Log:      cfg.Log,
		PlanFile: cfg.PlanFile,
		TestDir:  cfg.TestDir,
		GoBinary: cfg.GoBinary,
		Gate:     cfg.TargetGate,
	})
	require.NoError(t, err)

	executor := NewDefaultTestExecutor(reg, cfg)
	result, err := executor.RunTests(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, "smoke", result.Test.Name())
	assert.Equal(t, types.StatusFailed, result.State.Status)
	assert.Equal(t, types.ChildErrorsMessage, result.Message)
	require.Len(t, result.Children, 2)
	assert.Equal(t, types.Skipped, result.Children[0].State)
	assert.Equal(t, "needs a devnet", result.Children[0].Message)
	assert.Equal(t, types.NotRunnable, result.Children[1].State)
	assert.Contains(t, result.Children[1].Message, "No tests found")

	runDir := filepath.Join(cfg.LogDir, logging.RunDirectoryPrefix+"run-1")
	for _, name := range []string{logging.ResultsFilename, logging.SummaryFilename, logging.AllLogsFilename} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}
	summary, err := os.ReadFile(filepath.Join(runDir, logging.SummaryFilename))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "run-1")
}

func TestDefaultTestExecutor_NameFilter(t *testing.T) {
	dir := writeExecutorModule(t)
	cfg := &Config{
		TestDir:    dir,
		PlanFile:   filepath.Join(dir, "plan.yaml"),
		TargetGate: "smoke",
		TestFilter: "Deposit",
		LogDir:     filepath.Join(dir, "logs"),
		Log:        log.New(),
	}
	reg, err := registry.NewRegistry(registry.Config{
		Log:      cfg.Log,
		PlanFile: cfg.PlanFile,
		TestDir:  cfg.TestDir,
		Gate:     cfg.TargetGate,
	})
	require.NoError(t, err)

	result, err := NewDefaultTestExecutor(reg, cfg).RunTests(context.Background(), "run-2")
	require.NoError(t, err)
	require.Len(t, result.Children, 1)
	assert.Equal(t, "TestDeposit", result.Children[0].Test.Name())
	assert.Equal(t, types.Success, result.State)
}
