package testengine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-testengine/flags"
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// newConfig parses args with the real flag set and builds a Config from them
func newConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg    *Config
		cfgErr error
	)
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.New(),
				ctx.String(flags.TestDir.Name),
				ctx.String(flags.Plan.Name),
				ctx.String(flags.Gate.Name))
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"op-testengine"}, args...)))
	return cfg, cfgErr
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := newConfig(t,
		"--testdir", dir,
		"--plan", filepath.Join(dir, "plan.yaml"),
		"--gate", "smoke",
		"--run-interval", "30m",
		"--default-timeout", "2m",
		"--run", "Deposit",
		"--category", "bridge",
		"--repeat", "3",
		"--logdir", filepath.Join(dir, "logs"))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.TestDir)
	assert.Equal(t, filepath.Join(dir, "plan.yaml"), cfg.PlanFile)
	assert.Equal(t, "smoke", cfg.TargetGate)
	assert.False(t, cfg.GatelessMode)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Minute, cfg.RunInterval)
	assert.Equal(t, 2*time.Minute, cfg.DefaultTimeout)
	assert.Equal(t, time.Second, cfg.TerminationGrace)
	assert.Equal(t, "Deposit", cfg.TestFilter)
	assert.Equal(t, []string{"bridge"}, cfg.Categories)
	assert.Equal(t, 3, cfg.Repeat)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir)
	assert.Equal(t, "go", cfg.GoBinary)
}

func TestNewConfig_Gateless(t *testing.T) {
	cfg, err := newConfig(t, "--testdir", t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.GatelessMode)
	assert.True(t, cfg.RunOnce)
	assert.True(t, filepath.IsAbs(cfg.LogDir))
}

func TestNewConfig_Errors(t *testing.T) {
	_, err := newConfig(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags")

	_, err = newConfig(t, "--testdir", t.TempDir(), "--gate", "smoke")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan file is required")

	_, err = newConfig(t, "--testdir", t.TempDir(), "--repeat", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeat must be at least 1")

	_, err = newConfig(t, "--testdir", t.TempDir(), "--run", "([")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid test filter")
}

func TestConfigFilter(t *testing.T) {
	ids := types.NewSequenceIDs("", 0)
	deposit := types.NewLeaf(ids, "TestDeposit", nil)
	deposit.Properties().Add(types.PropertyCategory, "bridge")
	withdraw := types.NewLeaf(ids, "TestWithdraw", nil)
	withdraw.Properties().Add(types.PropertyCategory, "bridge")
	fee := types.NewLeaf(ids, "TestDepositFee", nil)
	types.NewSuite(ids, "root").Add(deposit, withdraw, fee)

	cases := []struct {
		name   string
		cfg    Config
		passed []types.TestNode
	}{
		{"none", Config{}, []types.TestNode{deposit, withdraw, fee}},
		{"name", Config{TestFilter: "Deposit"}, []types.TestNode{deposit, fee}},
		{"category", Config{Categories: []string{"bridge"}}, []types.TestNode{deposit, withdraw}},
		{"both", Config{TestFilter: "Deposit", Categories: []string{"bridge"}}, []types.TestNode{deposit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := tc.cfg.Filter()
			require.NoError(t, err)
			var passed []types.TestNode
			for _, n := range []types.TestNode{deposit, withdraw, fee} {
				if f.Pass(n) {
					passed = append(passed, n)
				}
			}
			assert.Equal(t, tc.passed, passed)
		})
	}
}
