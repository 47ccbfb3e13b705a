package metrics

import (
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

var _ types.Listener = (*Listener)(nil)

// Listener records every finished test node in Prometheus
type Listener struct {
	runID string
}

// NewListener creates a metrics listener for one run
func NewListener(runID string) *Listener {
	return &Listener{runID: runID}
}

func (l *Listener) TestStarted(types.TestNode) {}

func (l *Listener) TestFinished(result *types.TestResult) {
	kind := "test"
	if result.IsSuite() {
		kind = "suite"
	}
	RecordTest(l.runID, result.Test.FullName(), kind, result.State)
}
