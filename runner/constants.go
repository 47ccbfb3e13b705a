package runner

import "time"

const (
	// DefaultTerminationGrace bounds how long a timed-out test worker is
	// waited for after its context has been cancelled
	DefaultTerminationGrace = time.Second

	// DefaultGoBinary is used by GoTest when no binary is configured
	DefaultGoBinary = "go"

	// go test command arguments
	TestCommand       = "test"
	JSONFlag          = "-json"
	RunFlag           = "-run"
	CountFlag         = "-count"
	DisableCacheCount = "1"

	// go test -json actions, see cmd/test2json
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"

	// build events reported by go test -json since go 1.24
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"

	buildFailedMarker = "[build failed]"

	timeoutMessageFormat  = "Test exceeded Timeout value of %dms"
	tearDownPrefix        = "TearDown : "
	oneTimeTearDownPrefix = "OneTimeTearDown : "
)
