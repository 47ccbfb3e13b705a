package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-testengine/types"
	"github.com/ethereum/go-ethereum/log"
)

var _ types.Listener = (*ProgressListener)(nil)

// ProgressListener logs suite boundaries as they happen and periodically
// reports how far the run has progressed
type ProgressListener struct {
	logger log.Logger
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once
	mu     sync.RWMutex

	totalTests     int
	completedTests int
	suites         []string
	suiteStart     map[string]time.Time

	// Track currently running tests
	runningTests map[string]time.Time // test name -> start time
}

// NewProgressListener creates a listener that reports progress every
// updateInterval. totalTests is the number of leaves expected in the run.
func NewProgressListener(logger log.Logger, updateInterval time.Duration, totalTests int) *ProgressListener {
	if updateInterval == 0 {
		updateInterval = 30 * time.Second
	}

	p := &ProgressListener{
		logger:       logger,
		ticker:       time.NewTicker(updateInterval),
		stopCh:       make(chan struct{}),
		totalTests:   totalTests,
		suiteStart:   make(map[string]time.Time),
		runningTests: make(map[string]time.Time),
	}

	go p.progressReporter()

	return p
}

// TestStarted implements types.Listener
func (p *ProgressListener) TestStarted(node types.TestNode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if node.IsSuite() {
		p.suites = append(p.suites, node.Name())
		p.suiteStart[node.ID()] = time.Now()
		p.logger.Info("Starting suite", "suite", node.FullName())
		return
	}
	p.runningTests[node.FullName()] = time.Now()
	p.logger.Debug("Test started", "test", node.FullName(), "runningTests", len(p.runningTests))
}

// TestFinished implements types.Listener
func (p *ProgressListener) TestFinished(result *types.TestResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	node := result.Test
	if node.IsSuite() {
		if len(p.suites) > 0 {
			p.suites = p.suites[:len(p.suites)-1]
		}
		duration := time.Since(p.suiteStart[node.ID()]).Truncate(time.Millisecond)
		delete(p.suiteStart, node.ID())
		p.logger.Info("Completed suite", "suite", node.FullName(), "outcome", result.State,
			"passed", result.PassCount(), "failed", result.FailCount(), "skipped", result.SkipCount(),
			"duration", duration)
		return
	}

	delete(p.runningTests, node.FullName())
	p.completedTests++
	p.logger.Debug("Test completed", "test", node.FullName(), "outcome", result.State,
		"completed", p.completedTests, "total", p.totalTests)
}

// Stop stops the periodic reports
func (p *ProgressListener) Stop() {
	p.once.Do(func() {
		p.ticker.Stop()
		close(p.stopCh)
	})
}

// progressReporter runs in a goroutine and periodically reports progress
func (p *ProgressListener) progressReporter() {
	for {
		select {
		case <-p.ticker.C:
			p.reportProgress()
		case <-p.stopCh:
			return
		}
	}
}

func (p *ProgressListener) reportProgress() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var percentComplete float64
	if p.totalTests > 0 {
		percentComplete = float64(p.completedTests) * 100.0 / float64(p.totalTests)
	}

	p.logger.Info("Progress update",
		"suite", strings.Join(p.suites, "/"),
		"completed", p.completedTests,
		"total", p.totalTests,
		"percent", fmt.Sprintf("%.1f%%", percentComplete),
		"numRunning", len(p.runningTests),
		"longestRunning", formatRunningTests(p.runningTests, 3),
	)
}

// formatRunningTests lists the longest running tests first
func formatRunningTests(runningTests map[string]time.Time, maxShow int) string {
	if len(runningTests) == 0 {
		return ""
	}

	type runningTest struct {
		name     string
		duration time.Duration
	}

	running := make([]runningTest, 0, len(runningTests))
	now := time.Now()
	for name, start := range runningTests {
		running = append(running, runningTest{name: name, duration: now.Sub(start)})
	}
	sort.Slice(running, func(i, j int) bool {
		return running[i].duration > running[j].duration
	})

	var parts []string
	for i, t := range running {
		if i >= maxShow {
			parts = append(parts, fmt.Sprintf("+%d more", len(running)-maxShow))
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%v)", t.name, t.duration.Truncate(time.Second)))
	}
	return strings.Join(parts, ", ")
}
