package types

import (
	"fmt"
	"strconv"
	"sync"
)

// Property keys consumed by the engine
const (
	PropertyTimeout            = "Timeout"
	PropertySkipReason         = "_SKIPREASON"
	PropertyProviderStackTrace = "_PROVIDERSTACKTRACE"
	PropertyCategory           = "Category"
	PropertyWorkDirectory      = "WorkDirectory"
	PropertyDescription        = "Description"
	PropertyPackage            = "Package"
)

// PropertyBag maps a key to an ordered list of values
type PropertyBag struct {
	mu     sync.RWMutex
	keys   []string
	values map[string][]any
}

// NewPropertyBag creates an empty property bag
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{values: make(map[string][]any)}
}

// Add appends a value to the list stored under key
func (p *PropertyBag) Add(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], value)
}

// Set replaces any values stored under key with a single value
func (p *PropertyBag) Set(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = []any{value}
}

// Get returns the first value stored under key
func (p *PropertyBag) Get(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	vals := p.values[key]
	if len(vals) == 0 {
		return nil, false
	}
	return vals[0], true
}

// GetAll returns a copy of every value stored under key
func (p *PropertyBag) GetAll(key string) []any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	vals := p.values[key]
	out := make([]any, len(vals))
	copy(out, vals)
	return out
}

// ContainsKey reports whether at least one value is stored under key
func (p *PropertyBag) ContainsKey(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.values[key]) > 0
}

// Keys returns the keys in insertion order
func (p *PropertyBag) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// GetString returns the first value under key formatted as a string, or def
func (p *PropertyBag) GetString(key string, def string) string {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetInt returns the first value under key as an int, or def when it is
// missing or not numeric
func (p *PropertyBag) GetInt(key string, def int) int {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}
