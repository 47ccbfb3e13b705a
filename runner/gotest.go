package runner

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum-optimism/infra/op-testengine/types"
)

// TestEvent is one line of go test -json output
type TestEvent struct {
	Time        time.Time // Time the event occurred
	Action      string    // run, pause, cont, pass, fail, skip, output, build-output, build-fail
	Package     string    // The package being tested
	ImportPath  string    // Set on build events
	Test        string    // The test function name, empty for package events
	Output      string    // Output text (may be empty)
	Elapsed     float64   // Elapsed time in seconds for the specific action
	FailedBuild string    // Set on a package fail event when the package did not build
}

// GoTest describes a go test invocation backing a leaf. An empty Name runs
// the whole package.
type GoTest struct {
	GoBinary string
	Package  string
	Name     string
	Env      []string
}

// Method returns the leaf method that runs the go test in the context's work
// directory. A failing test raises a failure signal carrying its output, a
// skipped test raises an ignore signal and a build failure is reported as an
// ordinary error.
func (g GoTest) Method() types.Method {
	return func(t types.TestContext, _ ...any) (any, error) {
		return nil, g.run(t)
	}
}

func (g GoTest) args() []string {
	args := []string{TestCommand, JSONFlag, CountFlag, DisableCacheCount, g.Package}
	if g.Name != "" {
		args = append(args, RunFlag, fmt.Sprintf("^%s$", g.Name))
	}
	return args
}

func (g GoTest) run(t types.TestContext) error {
	goBinary := g.GoBinary
	if goBinary == "" {
		goBinary = DefaultGoBinary
	}

	cmd := exec.CommandContext(t.Context(), goBinary, g.args()...)
	cmd.Dir = t.WorkDirectory()
	if len(g.Env) > 0 {
		cmd.Env = append(cmd.Environ(), g.Env...)
	}
	stdout := newTailBuffer(defaultOutputTailBytes)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	t.Logger().Debug("Running go test", "package", g.Package, "test", g.Name, "dir", cmd.Dir)
	runErr := cmd.Run()
	t.CheckCancelled()

	summary := summarize(stdout.String(), g.Name)
	for i := 0; i < summary.finished; i++ {
		t.IncrementAssertCount()
	}

	if summary.buildFailed {
		output := summary.buildReason()
		if output == "" {
			output = cleanOutput(stderr.String())
		}
		return fmt.Errorf("test compilation failed: %s", output)
	}

	switch summary.status {
	case ActionPass:
		return nil
	case ActionSkip:
		return types.NewIgnore("%s", summary.reason())
	case ActionFail:
		return types.NewFailure("%s", summary.reason())
	}

	// go before 1.24 prints compiler errors to stderr only
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && exitErr.ExitCode() == 2 {
		return fmt.Errorf("test compilation failed: %s", cleanOutput(stderr.String()))
	}
	if runErr != nil {
		return fmt.Errorf("failed to run go test: %w", runErr)
	}
	return types.NewInconclusive("no result reported for %s", g.Package)
}

// testSummary is the outcome of one go test run as seen in its event stream
type testSummary struct {
	status      string
	finished    int
	output      []string
	buildFailed bool
	buildOutput []string
}

func (s testSummary) reason() string {
	return cleanOutput(strings.Join(s.output, ""))
}

func (s testSummary) buildReason() string {
	return cleanOutput(strings.Join(s.buildOutput, ""))
}

// summarize reads go test -json output. The outcome is taken from the events
// of the named test, or from the package events when name is empty.
func summarize(stream, name string) testSummary {
	var s testSummary
	scanner := bufio.NewScanner(strings.NewReader(stream))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event TestEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		isMain := event.Test == name
		switch event.Action {
		case ActionPass, ActionFail, ActionSkip:
			if event.Test != "" {
				s.finished++
			}
			if isMain {
				s.status = event.Action
			}
			if event.FailedBuild != "" {
				s.buildFailed = true
			}
		case ActionOutput:
			if event.Test == "" && strings.Contains(event.Output, buildFailedMarker) {
				s.buildFailed = true
			}
			if event.Test != "" && !isNoise(event.Output) {
				s.output = append(s.output, event.Output)
			}
		case ActionBuildOutput:
			s.buildOutput = append(s.buildOutput, event.Output)
		case ActionBuildFail:
			s.buildFailed = true
		}
	}
	return s
}

// isNoise reports go test framing lines that carry no information
func isNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"=== RUN", "=== PAUSE", "=== CONT", "--- PASS", "PASS", "ok "} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return trimmed == ""
}

func cleanOutput(s string) string {
	return strings.TrimSpace(stripansi.Strip(s))
}
