package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "testengine"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of executed tests by outcome",
	}, []string{
		"run_id",
		"name",
		"type",
		"status",
		"label",
	})

	testTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_timeouts_total",
		Help:      "Count of tests that exceeded their timeout",
	}, []string{
		"name",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Outcome of test runs",
	}, []string{
		"run_id",
		"result",
	})

	runTestCounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests",
		Help:      "Number of tests in a run by status",
	}, []string{
		"run_id",
		"status",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of test runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordTest counts one finished test node
func RecordTest(runID string, name string, kind string, state types.OutcomeState) {
	if Debug {
		log.Debug("metric inc",
			"m", "tests_total",
			"run_id", runID,
			"name", name,
			"type", kind,
			"outcome", state)
	}
	testsTotal.WithLabelValues(runID, name, kind, state.Status.String(), state.Label).Inc()
}

// RecordTestTimeout counts a leaf that exceeded its timeout budget
func RecordTestTimeout(name string) {
	testTimeoutsTotal.WithLabelValues(name).Inc()
}

// RecordRun records the outcome and leaf counts of a finished run
func RecordRun(runID string, result *types.TestResult) {
	runResults.WithLabelValues(runID, result.State.String()).Set(1)
	counts := result.Counts()
	runTestCounts.WithLabelValues(runID, "total").Add(float64(counts.Total()))
	runTestCounts.WithLabelValues(runID, types.StatusPassed.String()).Add(float64(counts.Passed))
	runTestCounts.WithLabelValues(runID, types.StatusFailed.String()).Add(float64(counts.Failed))
	runTestCounts.WithLabelValues(runID, types.StatusWarning.String()).Add(float64(counts.Warnings))
	runTestCounts.WithLabelValues(runID, types.StatusSkipped.String()).Add(float64(counts.Skipped))
	runTestCounts.WithLabelValues(runID, types.StatusInconclusive.String()).Add(float64(counts.Inconclusive))
	runDuration.WithLabelValues(runID).Set(result.Duration.Seconds())
}
