package reporting

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum-optimism/infra/op-testengine/ui"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// StatusDisplay represents display information for an outcome
type StatusDisplay struct {
	Text   string // Human-readable status text
	Symbol string // Single character used in tree output
}

// getStatusDisplay returns the display form of a status and its label
func getStatusDisplay(status types.Status, label string) StatusDisplay {
	switch status {
	case types.StatusPassed:
		return StatusDisplay{Text: "PASS", Symbol: "✓"}
	case types.StatusFailed:
		switch label {
		case types.LabelError:
			return StatusDisplay{Text: "ERROR", Symbol: "⚠"}
		case types.LabelInvalid:
			return StatusDisplay{Text: "INVALID", Symbol: "⚠"}
		case types.LabelCancelled:
			return StatusDisplay{Text: "CANCELLED", Symbol: "✗"}
		}
		return StatusDisplay{Text: "FAIL", Symbol: "✗"}
	case types.StatusSkipped:
		if label == types.LabelIgnored {
			return StatusDisplay{Text: "IGNORED", Symbol: "⊝"}
		}
		return StatusDisplay{Text: "SKIP", Symbol: "⊝"}
	case types.StatusWarning:
		return StatusDisplay{Text: "WARN", Symbol: "!"}
	default:
		return StatusDisplay{Text: "INCONCLUSIVE", Symbol: "?"}
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

func formatPassRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// ReportFormatter defines the interface for different report output formats
type ReportFormatter interface {
	Format(data *ReportData) (string, error)
}

// ReportWriter defines the interface for writing reports to various destinations
type ReportWriter interface {
	Write(content string) error
}

// FileWriter writes reports to a file
type FileWriter struct {
	path string
}

// NewFileWriter creates a new file writer
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write writes the content to the file
func (fw *FileWriter) Write(content string) error {
	return os.WriteFile(fw.path, []byte(content), 0644)
}

// StdoutWriter writes reports to stdout
type StdoutWriter struct{}

// NewStdoutWriter creates a new stdout writer
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{}
}

// Write writes the content to stdout
func (sw *StdoutWriter) Write(content string) error {
	_, err := fmt.Print(content)
	return err
}

// TableFormatter formats reports as ASCII tables
type TableFormatter struct {
	showIndividualTests bool
	title               string
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string, showIndividualTests bool) *TableFormatter {
	return &TableFormatter{
		showIndividualTests: showIndividualTests,
		title:               title,
	}
}

// Format formats the report data as an ASCII table
func (tf *TableFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (%s)", tf.title, data.DurationText))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Message",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Message", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	if data.Root != nil {
		tf.addNode(t, data.Root, nil)
	}

	switch {
	case data.HasFailures:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case data.Stats.Skipped > 0 || data.Stats.Warnings > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		data.DurationText,
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Failed,
		data.Stats.Skipped,
		getStatusDisplay(data.Status, "").Text,
		data.PassRateText,
	})

	t.Render()
	return buf.String(), nil
}

// addNode appends the row for n and recurses into its children
func (tf *TableFormatter) addNode(t table.Writer, n *ReportNode, parentIsLast []bool) {
	if !n.IsSuite && !tf.showIndividualTests {
		return
	}

	name := ui.BuildTreePrefix(n.Depth, n.IsLast(), parentIsLast) + n.Name
	status := getStatusDisplay(n.Status, n.Label).Text

	if n.IsSuite {
		t.AppendRow(table.Row{
			"Suite",
			name,
			formatDuration(n.Duration),
			n.Stats.Total,
			n.Stats.Passed,
			n.Stats.Failed,
			n.Stats.Skipped,
			status,
			"",
		})
		var childParents []bool
		if n.Depth > 0 {
			childParents = append(append(childParents, parentIsLast...), n.IsLast())
		}
		for _, child := range n.Children {
			tf.addNode(t, child, childParents)
		}
		if n.Depth == 1 {
			t.AppendSeparator()
		}
		return
	}

	t.AppendRow(table.Row{
		"Test",
		name,
		formatDuration(n.Duration),
		1,
		boolToInt(n.Status == types.StatusPassed),
		boolToInt(n.Status == types.StatusFailed),
		boolToInt(n.Status == types.StatusSkipped),
		status,
		firstLine(n.Message + n.Reason),
	})
}

// boolToInt converts a boolean to int for table display
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// TextSummaryFormatter formats reports as plain text summaries
type TextSummaryFormatter struct {
	includeDetails bool
}

// NewTextSummaryFormatter creates a new text summary formatter
func NewTextSummaryFormatter(includeDetails bool) *TextSummaryFormatter {
	return &TextSummaryFormatter{
		includeDetails: includeDetails,
	}
}

// Format formats the report data as a text summary
func (tsf *TextSummaryFormatter) Format(data *ReportData) (string, error) {
	var summary strings.Builder

	fmt.Fprintf(&summary, "TEST SUMMARY\n")
	fmt.Fprintf(&summary, "============\n")
	fmt.Fprintf(&summary, "Run ID: %s\n", data.RunID)
	fmt.Fprintf(&summary, "Time: %s\n", data.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&summary, "Duration: %s\n", data.DurationText)
	fmt.Fprintf(&summary, "Outcome: %s\n\n", data.Outcome)

	fmt.Fprintf(&summary, "Results:\n")
	fmt.Fprintf(&summary, "  Total:        %d\n", data.Stats.Total)
	fmt.Fprintf(&summary, "  Passed:       %d\n", data.Stats.Passed)
	fmt.Fprintf(&summary, "  Failed:       %d\n", data.Stats.Failed)
	fmt.Fprintf(&summary, "  Warnings:     %d\n", data.Stats.Warnings)
	fmt.Fprintf(&summary, "  Skipped:      %d\n", data.Stats.Skipped)
	fmt.Fprintf(&summary, "  Inconclusive: %d\n", data.Stats.Inconclusive)
	fmt.Fprintf(&summary, "  Asserts:      %d\n", data.Asserts)
	fmt.Fprintf(&summary, "  Pass rate:    %s\n\n", data.PassRateText)

	if len(data.FailedTests) > 0 {
		fmt.Fprintf(&summary, "Failed tests:\n")
		for _, test := range data.FailedTests {
			fmt.Fprintf(&summary, "  - %s [%s]\n", test.FullName, getStatusDisplay(test.Status, test.Label).Text)
			if tsf.includeDetails && test.Message != "" {
				fmt.Fprintf(&summary, "%s\n", indent(test.Message, "      "))
			}
		}
		fmt.Fprintf(&summary, "\n")
	}

	if tsf.includeDetails && len(data.SkippedTests) > 0 {
		fmt.Fprintf(&summary, "Skipped tests:\n")
		for _, test := range data.SkippedTests {
			fmt.Fprintf(&summary, "  - %s", test.FullName)
			if test.Reason != "" {
				fmt.Fprintf(&summary, " (%s)", test.Reason)
			}
			fmt.Fprintf(&summary, "\n")
		}
		fmt.Fprintf(&summary, "\n")
	}

	return summary.String(), nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

// ReportGenerator combines a formatter and a writer
type ReportGenerator struct {
	formatter ReportFormatter
	writer    ReportWriter
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(formatter ReportFormatter, writer ReportWriter) *ReportGenerator {
	return &ReportGenerator{
		formatter: formatter,
		writer:    writer,
	}
}

// GenerateFromResult builds the report for a finished run and writes it
func (rg *ReportGenerator) GenerateFromResult(result *types.TestResult, runID string) error {
	return rg.GenerateReport(BuildReport(result, runID))
}

// GenerateReport generates a report from pre-built report data
func (rg *ReportGenerator) GenerateReport(reportData *ReportData) error {
	content, err := rg.formatter.Format(reportData)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	if err := rg.writer.Write(content); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
