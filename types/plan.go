package types

import (
	"strings"
	"time"
)

// PlanConfig is the YAML test plan consumed by the registry
type PlanConfig struct {
	Gates    []GateConfig `yaml:"gates"`
	Metadata struct {
		Timeouts map[string]time.Duration `yaml:"timeouts"`
	} `yaml:"metadata"`
}

// NodeOptions carries the per-node settings shared by gates, suites and tests
type NodeOptions struct {
	// Skip, when non-empty, is the reason the node is skipped
	Skip string `yaml:"skip,omitempty"`
	// Ignore, when non-empty, is the reason the node is ignored
	Ignore     string         `yaml:"ignore,omitempty"`
	Explicit   bool           `yaml:"explicit,omitempty"`
	Categories []string       `yaml:"categories,omitempty"`
	Timeout    *time.Duration `yaml:"timeout,omitempty"`
}

// Configurable is a tree node whose eligibility can be set while building
type Configurable interface {
	TestNode
	SetEligibility(e Eligibility, reason string)
}

// Apply copies the options onto a tree node's eligibility and properties
func (o NodeOptions) Apply(n Configurable) {
	switch {
	case o.Ignore != "":
		n.SetEligibility(IgnoredEligibility, o.Ignore)
	case o.Skip != "":
		n.SetEligibility(SkippedEligibility, o.Skip)
	case o.Explicit:
		n.SetEligibility(Explicit, "")
	}
	for _, c := range o.Categories {
		n.Properties().Add(PropertyCategory, c)
	}
	if o.Timeout != nil {
		n.Properties().Set(PropertyTimeout, int(o.Timeout.Milliseconds()))
	}
}

// SuiteConfig represents a collection of related tests
type SuiteConfig struct {
	Description string       `yaml:"description"`
	Tests       []TestConfig `yaml:"tests"`
	NodeOptions `yaml:",inline"`
}

// TestConfig names a go test function, or a whole package when RunAll is set
type TestConfig struct {
	Name        string `yaml:"name,omitempty"`
	Package     string `yaml:"package"`
	RunAll      bool   `yaml:"run_all,omitempty"`
	NodeOptions `yaml:",inline"`
}

// Key identifies the test within a gate for de-duplication
func (t TestConfig) Key() string {
	if t.Name == "" {
		return t.Package
	}
	return t.Package + ":" + t.Name
}

// DisplayName returns the test name, or a short package name for package
// entries.
func (t TestConfig) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	parts := strings.Split(t.Package, "/")
	return parts[len(parts)-1]
}
