package reporting

import (
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// ReportStats contains aggregated leaf statistics for a node or a run
type ReportStats struct {
	Total        int
	Passed       int
	Failed       int
	Warnings     int
	Skipped      int
	Inconclusive int
	PassRate     float64
}

func newReportStats(c types.ResultCounts) ReportStats {
	stats := ReportStats{
		Total:        c.Total(),
		Passed:       c.Passed,
		Failed:       c.Failed,
		Warnings:     c.Warnings,
		Skipped:      c.Skipped,
		Inconclusive: c.Inconclusive,
	}
	if stats.Total > 0 {
		stats.PassRate = float64(stats.Passed) / float64(stats.Total) * 100
	}
	return stats
}

// ReportNode is one record of the result tree
type ReportNode struct {
	// Identity
	ID       string
	Name     string
	FullName string
	IsSuite  bool
	Depth    int

	// Outcome
	Status   types.Status
	Label    string
	Duration time.Duration
	Asserts  int

	// Message and StackTrace are kept for failed records
	Message    string
	StackTrace string
	// Reason explains skipped, ignored and inconclusive records
	Reason string

	// Stats is only populated for suites
	Stats ReportStats

	Parent   *ReportNode `json:"-"`
	Children []*ReportNode
}

// Outcome returns the display form of the node's outcome state
func (n *ReportNode) Outcome() string {
	return types.NewOutcomeState(n.Status, n.Label).String()
}

// IsLast reports whether n is the last child of its parent
func (n *ReportNode) IsLast() bool {
	if n.Parent == nil {
		return true
	}
	siblings := n.Parent.Children
	return siblings[len(siblings)-1] == n
}

// Walk visits n and its descendants depth-first until visit returns false
func (n *ReportNode) Walk(visit func(*ReportNode) bool) {
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// ReportData contains all the structured data needed for any report format
type ReportData struct {
	// Run Information
	RunID        string
	Timestamp    time.Time
	Duration     time.Duration
	DurationText string

	// Overall Statistics
	Status       types.Status
	Outcome      string
	Stats        ReportStats
	PassRateText string
	HasFailures  bool
	Asserts      int

	// Hierarchical Data
	Root *ReportNode

	// Flat Lists
	AllTests     []*ReportNode // All leaves in tree order
	FailedTests  []*ReportNode // Only failed leaves
	SkippedTests []*ReportNode

	FailedTestNames []string
}

// BuildReport converts the result tree of a run into ReportData
func BuildReport(result *types.TestResult, runID string) *ReportData {
	data := &ReportData{
		RunID:     runID,
		Timestamp: result.StartTime,
		Duration:  result.Duration,
		Status:    result.State.Status,
		Outcome:   result.State.String(),
		Stats:     newReportStats(result.Counts()),
		Asserts:   result.AssertCount,
	}
	data.DurationText = formatDuration(data.Duration)
	data.PassRateText = formatPassRate(data.Stats.PassRate)
	data.HasFailures = result.State.Status == types.StatusFailed
	data.Root = buildNode(result, nil, 0)

	data.Root.Walk(func(n *ReportNode) bool {
		if n.IsSuite {
			return true
		}
		data.AllTests = append(data.AllTests, n)
		switch n.Status {
		case types.StatusFailed:
			data.FailedTests = append(data.FailedTests, n)
			data.FailedTestNames = append(data.FailedTestNames, n.FullName)
		case types.StatusSkipped:
			data.SkippedTests = append(data.SkippedTests, n)
		}
		return true
	})
	return data
}

func buildNode(result *types.TestResult, parent *ReportNode, depth int) *ReportNode {
	n := &ReportNode{
		ID:       result.Test.ID(),
		Name:     result.Test.Name(),
		FullName: result.Test.FullName(),
		IsSuite:  result.IsSuite(),
		Depth:    depth,
		Status:   result.State.Status,
		Label:    result.State.Label,
		Duration: result.Duration,
		Asserts:  result.AssertCount,
		Parent:   parent,
	}

	switch result.State.Status {
	case types.StatusFailed:
		n.Message = result.Message
		n.StackTrace = result.StackTrace
	case types.StatusSkipped, types.StatusInconclusive, types.StatusWarning:
		n.Reason = result.Message
	}

	if n.IsSuite {
		n.Stats = newReportStats(result.Counts())
		for _, child := range result.Children {
			n.Children = append(n.Children, buildNode(child, n, depth+1))
		}
	}
	return n
}
