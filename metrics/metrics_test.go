package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
}

func TestRecordErrorDetails(t *testing.T) {
	// Test with nil error
	RecordErrorDetails("test", nil)

	// Test with actual error
	RecordErrorDetails("test", errors.New("sample error"))
}

func TestRecordTest(t *testing.T) {
	RecordTest("run1", "root.TestFoo", "test", types.Success)
	RecordTest("run1", "root.TestFoo", "test", types.Success)
	RecordTest("run1", "root.TestBar", "test", types.Error)

	assert.Equal(t, 2.0, testutil.ToFloat64(testsTotal.WithLabelValues("run1", "root.TestFoo", "test", "Passed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(testsTotal.WithLabelValues("run1", "root.TestBar", "test", "Failed", "Error")))
}

func TestRecordTestTimeout(t *testing.T) {
	RecordTestTimeout("root.TestSlow")
	assert.Equal(t, 1.0, testutil.ToFloat64(testTimeoutsTotal.WithLabelValues("root.TestSlow")))
}

func TestListenerAndRecordRun(t *testing.T) {
	ids := types.NewSequenceIDs("m-", 0)
	suite := types.NewSuite(ids, "metrics")
	leaf := types.NewLeaf(ids, "TestOne", func(types.TestContext, ...any) (any, error) { return nil, nil })
	suite.Add(leaf)

	leafResult := types.NewTestResult(leaf)
	leafResult.State = types.Failure
	suiteResult := types.NewTestResult(suite)
	suiteResult.AddChild(leafResult)
	suiteResult.Duration = 2 * time.Second

	l := NewListener("run2")
	l.TestStarted(leaf)
	l.TestFinished(leafResult)
	l.TestFinished(suiteResult)

	assert.Equal(t, 1.0, testutil.ToFloat64(testsTotal.WithLabelValues("run2", "metrics.TestOne", "test", "Failed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(testsTotal.WithLabelValues("run2", "metrics", "suite", "Failed", "")))

	RecordRun("run2", suiteResult)
	assert.Equal(t, 1.0, testutil.ToFloat64(runResults.WithLabelValues("run2", "Failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(runTestCounts.WithLabelValues("run2", "Failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(runTestCounts.WithLabelValues("run2", "total")))
	assert.Equal(t, 2.0, testutil.ToFloat64(runDuration.WithLabelValues("run2")))
}
