package types

import "fmt"

// GateConfig is the top level grouping of a plan. A gate may inherit the
// tests and suites of other gates.
type GateConfig struct {
	ID          string                 `yaml:"id"`
	Description string                 `yaml:"description"`
	Inherits    []string               `yaml:"inherits,omitempty"`
	Tests       []TestConfig           `yaml:"tests,omitempty"`
	Suites      map[string]SuiteConfig `yaml:"suites,omitempty"`
	NodeOptions `yaml:",inline"`
}

// ResolveInherited merges the tests and suites of every gate listed in
// Inherits into g, recursively. The gate's own entries win: a parent suite is
// only taken when the child has none of that name, and tests are
// de-duplicated on their package:name key.
func (g *GateConfig) ResolveInherited(gates map[string]GateConfig) error {
	return g.resolve(gates, make(map[string]bool))
}

func (g *GateConfig) resolve(gates map[string]GateConfig, visiting map[string]bool) error {
	if len(g.Inherits) == 0 {
		return nil
	}

	suites := make(map[string]SuiteConfig, len(g.Suites))
	for name, s := range g.Suites {
		suites[name] = s
	}
	seen := make(map[string]bool)
	tests := appendUnique(nil, g.Tests, seen)

	for _, parentID := range g.Inherits {
		if visiting[parentID] {
			return fmt.Errorf("circular inheritance detected for gate %q", parentID)
		}
		parent, ok := gates[parentID]
		if !ok {
			return fmt.Errorf("gate %q inherits from non-existent gate %q", g.ID, parentID)
		}

		visiting[parentID] = true
		if err := parent.resolve(gates, visiting); err != nil {
			return fmt.Errorf("resolving inheritance for parent gate %q: %w", parentID, err)
		}
		visiting[parentID] = false

		for name, s := range parent.Suites {
			if _, exists := suites[name]; !exists {
				suites[name] = s
			}
		}
		tests = appendUnique(tests, parent.Tests, seen)
	}

	g.Suites = suites
	g.Tests = tests
	return nil
}

func appendUnique(dst, src []TestConfig, seen map[string]bool) []TestConfig {
	for _, t := range src {
		if seen[t.Key()] {
			continue
		}
		seen[t.Key()] = true
		dst = append(dst, t)
	}
	return dst
}
