package types

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out identifiers for test nodes. It is owned by whatever
// builds the tree, so ids are unique per tree rather than per process.
type IDGenerator interface {
	NextID() string
}

// SequenceIDs produces ids of the form "<prefix><n>" with n increasing
type SequenceIDs struct {
	prefix string
	next   atomic.Int64
}

// NewSequenceIDs creates a generator whose first id uses start
func NewSequenceIDs(prefix string, start int64) *SequenceIDs {
	s := &SequenceIDs{prefix: prefix}
	s.next.Store(start)
	return s
}

// NextID implements IDGenerator
func (s *SequenceIDs) NextID() string {
	n := s.next.Add(1) - 1
	return fmt.Sprintf("%s%d", s.prefix, n)
}
