package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	consumed  []string
	completed []string
	err       error
}

func (s *recordingSink) Consume(result *types.TestResult, runID string) error {
	s.consumed = append(s.consumed, runID+"/"+result.Test.FullName())
	return s.err
}

func (s *recordingSink) Complete(runID string) error {
	s.completed = append(s.completed, runID)
	return nil
}

func TestSinkListener(t *testing.T) {
	sink := &recordingSink{}
	l := NewSinkListener(sink, "run-1", log.New())

	_, records := sampleRun()
	l.TestStarted(records[0].Test)
	for _, r := range records {
		l.TestFinished(r)
	}
	require.NoError(t, l.Close())

	assert.Equal(t, []string{
		"run-1/bridge.TestDeposit",
		"run-1/bridge.TestWithdraw",
		"run-1/bridge",
	}, sink.consumed)
	assert.Equal(t, []string{"run-1"}, sink.completed)
}

func TestSinkListener_LogsSinkErrors(t *testing.T) {
	var out bytes.Buffer
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(&out, log.LevelDebug, false))
	sink := &recordingSink{err: errors.New("disk full")}

	_, records := sampleRun()
	NewSinkListener(sink, "run-2", logger).TestFinished(records[0])

	assert.Contains(t, out.String(), "Failed to record test result")
	assert.Contains(t, out.String(), "disk full")
}

func TestSinkListener_FileLogger(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run-3")
	require.NoError(t, err)

	l := NewSinkListener(logger, "run-3", log.New())
	_, records := sampleRun()
	for _, r := range records {
		l.TestFinished(r)
	}
	require.NoError(t, l.Close())
	assert.FileExists(t, logger.GetBaseDir()+"/"+ResultsFilename)
}

func TestLogListener(t *testing.T) {
	var out bytes.Buffer
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(&out, log.LevelDebug, false))
	l := NewLogListener(logger)

	_, records := sampleRun()
	l.TestStarted(records[0].Test)
	l.TestFinished(records[0])
	l.TestFinished(records[1])

	logs := out.String()
	assert.Contains(t, logs, "Test started")
	assert.Contains(t, logs, "test=bridge.TestDeposit")
	assert.Contains(t, logs, "WARN")
	assert.Contains(t, logs, "balance mismatch")
}
