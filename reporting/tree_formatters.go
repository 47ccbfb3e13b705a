package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/op-testengine/ui"
)

// TreeTextFormatter formats the result tree as plain text
type TreeTextFormatter struct {
	includeSuites  bool
	includeStats   bool
	includeDetails bool
}

// NewTreeTextFormatter creates a new tree-based text formatter
func NewTreeTextFormatter(includeSuites, includeStats, includeDetails bool) *TreeTextFormatter {
	return &TreeTextFormatter{
		includeSuites:  includeSuites,
		includeStats:   includeStats,
		includeDetails: includeDetails,
	}
}

// Format formats the report as an indented tree
func (f *TreeTextFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("Test Results Summary\n")
	buf.WriteString(strings.Repeat("=", 50) + "\n\n")

	if f.includeStats {
		fmt.Fprintf(&buf, "Run ID: %s\n", data.RunID)
		fmt.Fprintf(&buf, "Duration: %s\n", data.DurationText)
		fmt.Fprintf(&buf, "Total Tests: %d\n", data.Stats.Total)
		fmt.Fprintf(&buf, "Passed: %d\n", data.Stats.Passed)
		fmt.Fprintf(&buf, "Failed: %d\n", data.Stats.Failed)
		fmt.Fprintf(&buf, "Skipped: %d\n", data.Stats.Skipped)
		fmt.Fprintf(&buf, "Pass Rate: %s\n", data.PassRateText)
		fmt.Fprintf(&buf, "Status: %s\n", strings.ToUpper(data.Outcome))
		buf.WriteString("\n")
	}

	buf.WriteString("Test Hierarchy:\n")
	buf.WriteString(strings.Repeat("-", 30) + "\n")

	if data.Root != nil {
		f.writeNode(&buf, data.Root, nil)
	}

	if len(data.FailedTests) > 0 {
		buf.WriteString("\nFailed Tests:\n")
		buf.WriteString(strings.Repeat("-", 20) + "\n")
		for _, n := range data.FailedTests {
			fmt.Fprintf(&buf, "- %s", n.FullName)
			if f.includeDetails && n.Message != "" {
				fmt.Fprintf(&buf, " (Error: %s)", firstLine(n.Message))
			}
			buf.WriteString("\n")
		}
	}

	return buf.String(), nil
}

// writeNode writes n and its visible descendants
func (f *TreeTextFormatter) writeNode(buf *bytes.Buffer, n *ReportNode, parentIsLast []bool) {
	if !n.IsSuite || f.includeSuites {
		prefix := ui.BuildTreePrefix(n.Depth, f.isLastVisible(n), parentIsLast)
		line := fmt.Sprintf("%s%s %s", prefix, getStatusDisplay(n.Status, n.Label).Symbol, n.Name)

		if n.IsSuite {
			if f.includeStats {
				line += fmt.Sprintf(" [%d tests, %d passed, %d failed]", n.Stats.Total, n.Stats.Passed, n.Stats.Failed)
			}
		} else {
			line += fmt.Sprintf(" (%s)", formatDuration(n.Duration))
		}
		buf.WriteString(line + "\n")

		if f.includeDetails {
			detail := n.Message
			if detail == "" {
				detail = n.Reason
			}
			if detail != "" {
				pad := strings.Repeat(" ", len([]rune(prefix))+2)
				fmt.Fprintf(buf, "%s%s\n", pad, firstLine(detail))
			}
		}
	}

	var childParents []bool
	if n.Depth > 0 {
		childParents = append(append(childParents, parentIsLast...), f.isLastVisible(n))
	}
	for _, child := range n.Children {
		f.writeNode(buf, child, childParents)
	}
}

// isLastVisible reports whether no later sibling of n is printed
func (f *TreeTextFormatter) isLastVisible(n *ReportNode) bool {
	if n.Parent == nil {
		return true
	}
	siblings := n.Parent.Children
	for i := len(siblings) - 1; i >= 0; i-- {
		s := siblings[i]
		if s == n {
			return true
		}
		if f.includeSuites || !s.IsSuite || len(s.Children) > 0 {
			return false
		}
	}
	return true
}
