package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testengine "github.com/ethereum-optimism/infra/op-testengine"
	"github.com/ethereum-optimism/infra/op-testengine/exitcodes"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitcodes.Success},
		{"runtime error", testengine.NewRuntimeError(errors.New("plan not found")), exitcodes.RuntimeErr},
		{"wrapped runtime error", fmt.Errorf("start: %w", testengine.NewRuntimeError(errors.New("boom"))), exitcodes.RuntimeErr},
		{"test failure", testengine.NewTestFailureError("run-1", nil), exitcodes.TestFailure},
		{"unknown error", errors.New("unknown"), exitcodes.TestFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()
	assert.Equal(t, "op-testengine", app.Name)
	require.NotNil(t, app.Action)

	names := map[string]bool{}
	for _, f := range app.Flags {
		names[f.Names()[0]] = true
	}
	for _, name := range []string{"testdir", "plan", "gate", "run", "category", "default-timeout", "termination-grace"} {
		assert.True(t, names[name], "missing flag %s", name)
	}
}
