// Package runner executes a test tree.
//
// The main components are:
//   - ExecutionContext: the per-branch run-time environment handed down the tree
//   - Unit: LeafUnit and SuiteUnit, the one-shot scheduling wrappers around nodes
//   - Command and Decorator: the invocation pipeline built around each leaf
//   - GoTest: a leaf method that runs a go test function or package
//   - ProgressListener: periodic console progress reporting
//
// Children run one at a time in declared order. The only other goroutine is
// the worker that time-boxes a leaf with a timeout budget.
package runner
