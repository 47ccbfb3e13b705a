package testengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

func TestDefaultMetricsReporter_ReportResults(t *testing.T) {
	reporter := NewDefaultMetricsReporter()
	assert.NotPanics(t, func() {
		reporter.ReportResults("reporter-run-1", leafResult(types.Success))
		reporter.ReportResults("reporter-run-2", leafResult(types.Failure))
		reporter.ReportResults("reporter-run-3", nil)
	})
}
