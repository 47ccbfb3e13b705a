package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum-optimism/infra/op-testengine/ui"
)

const boxWidth = 73

// AllLogsFileSink writes every finished leaf to a single all.log file
type AllLogsFileSink struct {
	logger *FileLogger
}

// Consume appends a boxed block describing the record to all.log
func (s *AllLogsFileSink) Consume(result *types.TestResult, runID string) error {
	if result.IsSuite() {
		return nil
	}
	path, err := s.logger.fileForRunID(runID, AllLogsFilename)
	if err != nil {
		return err
	}
	writer, err := s.logger.getAsyncWriter(path)
	if err != nil {
		return err
	}

	var content strings.Builder
	content.WriteString("\n")
	content.WriteString(ui.BuildBoxHeader("TEST: "+result.Test.Name(), boxWidth))
	content.WriteString(ui.BuildBoxLine("Outcome:  "+result.State.String(), boxWidth))
	content.WriteString(ui.BuildBoxLine("Path:     "+result.Test.FullName(), boxWidth))
	content.WriteString(ui.BuildBoxLine("Duration: "+formatDuration(result.Duration), boxWidth))
	content.WriteString(ui.BuildBoxLine(fmt.Sprintf("Asserts:  %d", result.AssertCount), boxWidth))
	content.WriteString(ui.BuildBoxLine("Time:     "+result.EndTime.Format(time.RFC3339), boxWidth))
	content.WriteString(ui.BuildBoxFooter(boxWidth))
	content.WriteString("\n")

	if result.Message != "" {
		fmt.Fprintf(&content, "MESSAGE:\n")
		fmt.Fprintf(&content, "~~~~~~~~\n")
		fmt.Fprintf(&content, "%s\n\n", indentText(result.Message, "  "))
	}
	if result.StackTrace != "" {
		fmt.Fprintf(&content, "STACK TRACE:\n")
		fmt.Fprintf(&content, "~~~~~~~~~~~~\n")
		fmt.Fprintf(&content, "%s\n", indentText(result.StackTrace, "  "))
	}

	return writer.Write([]byte(content.String()))
}

// Complete is a no-op for AllLogsFileSink
func (s *AllLogsFileSink) Complete(runID string) error {
	return nil
}

// indentText adds indentation to each non-empty line
func indentText(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// PerTestFileSink creates a dedicated log file for each leaf in the passed or
// failed directory of the run.
type PerTestFileSink struct {
	logger    *FileLogger
	mu        sync.Mutex
	processed map[string]bool
}

// Consume writes the record of a leaf to its own file, once per leaf
func (s *PerTestFileSink) Consume(result *types.TestResult, runID string) error {
	if result.IsSuite() {
		return nil
	}
	baseDir, err := s.logger.GetDirectoryForRunID(runID)
	if err != nil {
		return err
	}

	targetDir := filepath.Join(baseDir, "passed")
	if result.State.Status == types.StatusFailed {
		targetDir = filepath.Join(baseDir, "failed")
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", targetDir, err)
	}
	path := filepath.Join(targetDir, testFilename(result.Test)+".log")

	s.mu.Lock()
	if s.processed == nil {
		s.processed = make(map[string]bool)
	}
	if s.processed[path] {
		s.mu.Unlock()
		return nil
	}
	s.processed[path] = true
	s.mu.Unlock()

	var content strings.Builder
	fmt.Fprintf(&content, "Test:     %s\n", result.Test.FullName())
	fmt.Fprintf(&content, "ID:       %s\n", result.Test.ID())
	fmt.Fprintf(&content, "Outcome:  %s\n", result.State)
	fmt.Fprintf(&content, "Duration: %s\n", formatDuration(result.Duration))
	if pkg, ok := result.Test.Properties().Get(types.PropertyPackage); ok {
		fmt.Fprintf(&content, "Package:  %v\n", pkg)
	}
	if result.Message != "" {
		fmt.Fprintf(&content, "\n%s\n", result.Message)
	}
	if result.StackTrace != "" {
		fmt.Fprintf(&content, "\n%s\n", result.StackTrace)
	}

	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		return fmt.Errorf("failed to write test log %s: %w", path, err)
	}
	return nil
}

// Complete is a no-op for PerTestFileSink
func (s *PerTestFileSink) Complete(runID string) error {
	return nil
}

// testFilename prefixes the node name with its parent so leaves with the same
// name in different suites do not collide.
func testFilename(node types.TestNode) string {
	name := node.Name()
	if parent := node.Parent(); parent != nil {
		name = parent.Name() + "_" + name
	}
	return safeFilename(name + "_" + node.ID())
}

// ResultRecord is the JSON form of one finished record
type ResultRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"fullname"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Label       string    `json:"label,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMs  int64     `json:"duration_ms"`
	AssertCount int       `json:"asserts"`
	Message     string    `json:"message,omitempty"`
	StackTrace  string    `json:"stack_trace,omitempty"`
	Passed      int       `json:"passed,omitempty"`
	Failed      int       `json:"failed,omitempty"`
	Warnings    int       `json:"warnings,omitempty"`
	Skipped     int       `json:"skipped,omitempty"`
}

// NewResultRecord flattens result into a ResultRecord
func NewResultRecord(result *types.TestResult) ResultRecord {
	record := ResultRecord{
		ID:          result.Test.ID(),
		Name:        result.Test.Name(),
		FullName:    result.Test.FullName(),
		Type:        "test",
		Status:      result.State.Status.String(),
		Label:       result.State.Label,
		StartTime:   result.StartTime,
		EndTime:     result.EndTime,
		DurationMs:  result.Duration.Milliseconds(),
		AssertCount: result.AssertCount,
		Message:     result.Message,
		StackTrace:  result.StackTrace,
	}
	if result.IsSuite() {
		counts := result.Counts()
		record.Type = "suite"
		record.Passed = counts.Passed
		record.Failed = counts.Failed
		record.Warnings = counts.Warnings
		record.Skipped = counts.Skipped
	}
	return record
}

// JSONLinesSink writes one JSON object per finished record to results.jsonl
type JSONLinesSink struct {
	logger *FileLogger
}

// Consume appends the record as a single JSON line
func (s *JSONLinesSink) Consume(result *types.TestResult, runID string) error {
	path, err := s.logger.fileForRunID(runID, ResultsFilename)
	if err != nil {
		return err
	}
	writer, err := s.logger.getAsyncWriter(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(NewResultRecord(result))
	if err != nil {
		return fmt.Errorf("failed to marshal result %s: %w", result.Test.FullName(), err)
	}
	return writer.Write(append(data, '\n'))
}

// Complete is a no-op for JSONLinesSink; the file is closed by the FileLogger
func (s *JSONLinesSink) Complete(runID string) error {
	return nil
}
