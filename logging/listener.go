package logging

import (
	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
)

var (
	_ types.Listener = (*LogListener)(nil)
	_ types.Listener = (*SinkListener)(nil)
)

// LogListener forwards execution events to a logger
type LogListener struct {
	log log.Logger
}

// NewLogListener creates a listener that logs to logger
func NewLogListener(logger log.Logger) *LogListener {
	return &LogListener{log: logger}
}

func (l *LogListener) TestStarted(node types.TestNode) {
	l.log.Debug("Test started", "test", node.FullName(), "id", node.ID())
}

func (l *LogListener) TestFinished(result *types.TestResult) {
	fields := []any{
		"test", result.Test.FullName(),
		"outcome", result.State,
		"duration", result.Duration,
	}
	switch result.State.Status {
	case types.StatusFailed:
		l.log.Warn("Test finished", append(fields, "message", result.Message)...)
	case types.StatusSkipped, types.StatusWarning, types.StatusInconclusive:
		l.log.Info("Test finished", append(fields, "message", result.Message)...)
	default:
		l.log.Debug("Test finished", fields...)
	}
}

// SinkListener hands every finished record to a ResultSink. Sink errors are
// logged and do not interrupt the run.
type SinkListener struct {
	sink  ResultSink
	runID string
	log   log.Logger
}

// NewSinkListener creates a listener feeding sink under runID
func NewSinkListener(sink ResultSink, runID string, logger log.Logger) *SinkListener {
	return &SinkListener{sink: sink, runID: runID, log: logger}
}

func (l *SinkListener) TestStarted(types.TestNode) {}

func (l *SinkListener) TestFinished(result *types.TestResult) {
	if err := l.sink.Consume(result, l.runID); err != nil {
		l.log.Error("Failed to record test result", "test", result.Test.FullName(), "err", err)
	}
}

// Close completes the sink once the run is over
func (l *SinkListener) Close() error {
	return l.sink.Complete(l.runID)
}
