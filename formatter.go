package testengine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-testengine/reporting"
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

const resultsTitle = "Test Results"

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(result *types.TestResult, runID string) error
}

// ConsoleResultFormatter renders the result tree as a table.
type ConsoleResultFormatter struct {
	logger log.Logger
	writer reporting.ReportWriter
}

// NewConsoleResultFormatter creates a formatter printing to stdout.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		writer: reporting.NewStdoutWriter(),
	}
}

// FormatResults formats and displays the test results.
func (f *ConsoleResultFormatter) FormatResults(result *types.TestResult, runID string) error {
	if result == nil {
		return fmt.Errorf("no result to format")
	}
	f.logger.Info("Printing results...")
	gen := reporting.NewReportGenerator(reporting.NewTableFormatter(resultsTitle, true), f.writer)
	return gen.GenerateFromResult(result, runID)
}
