// Package exitcodes defines the exit codes of op-testengine.
package exitcodes

// In run-once mode the process exits with:
//
// * Success (0): the root outcome of the run is not a failure
// * TestFailure (1): the root outcome of the run is a failure
// * RuntimeErr (2): the run could not be performed, eg. an unreadable plan
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
