package types

import (
	"regexp"
	"slices"
)

// Filter decides which children a suite expands into execution units
type Filter interface {
	Pass(node TestNode) bool
}

// FilterFunc adapts a function to the Filter interface
type FilterFunc func(node TestNode) bool

// Pass implements Filter
func (f FilterFunc) Pass(node TestNode) bool { return f(node) }

// EmptyFilter accepts every node
var EmptyFilter Filter = FilterFunc(func(TestNode) bool { return true })

// NameFilter accepts nodes whose full name matches a pattern, along with their
// ancestors and descendants so matched tests remain reachable.
type NameFilter struct {
	pattern *regexp.Regexp
}

// NewNameFilter compiles pattern into a NameFilter
func NewNameFilter(pattern string) (*NameFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &NameFilter{pattern: re}, nil
}

// Pass implements Filter
func (f *NameFilter) Pass(node TestNode) bool {
	return matchHierarchy(node, func(n TestNode) bool {
		return f.pattern.MatchString(n.FullName())
	})
}

// CategoryFilter accepts nodes carrying any of the given categories
type CategoryFilter struct {
	categories []string
}

// NewCategoryFilter creates a filter for the given categories
func NewCategoryFilter(categories ...string) *CategoryFilter {
	return &CategoryFilter{categories: categories}
}

// Pass implements Filter
func (f *CategoryFilter) Pass(node TestNode) bool {
	return matchHierarchy(node, func(n TestNode) bool {
		for _, v := range n.Properties().GetAll(PropertyCategory) {
			if s, ok := v.(string); ok && slices.Contains(f.categories, s) {
				return true
			}
		}
		return false
	})
}

// matchHierarchy reports whether node, one of its ancestors or one of its
// descendants satisfies match.
func matchHierarchy(node TestNode, match func(TestNode) bool) bool {
	if match(node) {
		return true
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return true
		}
	}
	return matchDescendant(node, match)
}

func matchDescendant(node TestNode, match func(TestNode) bool) bool {
	suite, ok := node.(*Suite)
	if !ok {
		return false
	}
	for _, child := range suite.Children() {
		if match(child) || matchDescendant(child, match) {
			return true
		}
	}
	return false
}
