package runner

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaky fails on the listed calls, counting from one
func flaky(calls *atomic.Int32, failOn ...int32) types.Method {
	return func(types.TestContext, ...any) (any, error) {
		n := calls.Add(1)
		for _, f := range failOn {
			if n == f {
				types.Fail("flaked on call %d", n)
			}
		}
		return nil, nil
	}
}

func runRepeated(t *testing.T, iterations int, suite *types.Suite) *types.TestResult {
	t.Helper()
	opts := testOptions()
	opts.Decorators = []Decorator{Repeat(iterations)}
	result, err := Run(context.Background(), suite, nil, opts)
	require.NoError(t, err)
	return result
}

func TestRepeat_AllPass(t *testing.T) {
	var calls atomic.Int32
	ids := types.NewSequenceIDs("", 0)
	suite := types.NewSuite(ids, "S").Add(types.NewLeaf(ids, "A", counting(&calls)))

	result := runRepeated(t, 5, suite)
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, types.Success, result.Children[0].State)
	assert.Equal(t, 1, result.PassCount())
}

func TestRepeat_Flaky(t *testing.T) {
	var calls atomic.Int32
	ids := types.NewSequenceIDs("", 0)
	suite := types.NewSuite(ids, "S").Add(types.NewLeaf(ids, "A", flaky(&calls, 2, 4)))

	result := runRepeated(t, 5, suite)
	leaf := result.Children[0]
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, types.Failure, leaf.State)
	assert.Equal(t, "2 of 5 iterations did not pass: flaked on call 2", leaf.Message)
	assert.Equal(t, types.Failure, result.State)
}

func TestRepeat_SetUpPerIteration(t *testing.T) {
	var setups, body atomic.Int32
	ids := types.NewSequenceIDs("", 0)
	suite := types.NewFixture(ids, "S", &types.Fixture{
		SetUp: []types.Method{counting(&setups)},
	}).Add(types.NewLeaf(ids, "A", counting(&body)))

	runRepeated(t, 3, suite)
	assert.Equal(t, int32(3), setups.Load())
	assert.Equal(t, int32(3), body.Load())
}

func TestRepeat_SingleIterationIsPlain(t *testing.T) {
	var calls atomic.Int32
	ids := types.NewSequenceIDs("", 0)
	suite := types.NewSuite(ids, "S").Add(types.NewLeaf(ids, "A", flaky(&calls, 1)))

	result := runRepeated(t, 1, suite)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "flaked on call 1", result.Children[0].Message)
}
