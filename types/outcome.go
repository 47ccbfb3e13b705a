package types

import "fmt"

// Status is the coarse classification of a completed test execution
type Status int

const (
	StatusInconclusive Status = iota
	StatusPassed
	StatusWarning
	StatusFailed
	StatusSkipped
)

// String implements the Stringer interface for Status
func (s Status) String() string {
	switch s {
	case StatusInconclusive:
		return "Inconclusive"
	case StatusPassed:
		return "Passed"
	case StatusWarning:
		return "Warning"
	case StatusFailed:
		return "Failed"
	case StatusSkipped:
		return "Skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Well-known labels refining a Status
const (
	LabelError     = "Error"
	LabelInvalid   = "Invalid"
	LabelIgnored   = "Ignored"
	LabelCancelled = "Cancelled"
)

// OutcomeState is an immutable (Status, Label) pair. Two states are equal
// when both fields are equal, so the == operator can be used directly.
type OutcomeState struct {
	Status Status
	Label  string
}

// Fixed outcome states used throughout the engine
var (
	Inconclusive = OutcomeState{Status: StatusInconclusive}
	Success      = OutcomeState{Status: StatusPassed}
	Warning      = OutcomeState{Status: StatusWarning}
	Failure      = OutcomeState{Status: StatusFailed}
	Error        = OutcomeState{Status: StatusFailed, Label: LabelError}
	NotRunnable  = OutcomeState{Status: StatusFailed, Label: LabelInvalid}
	Skipped      = OutcomeState{Status: StatusSkipped}
	Ignored      = OutcomeState{Status: StatusSkipped, Label: LabelIgnored}
	Cancelled    = OutcomeState{Status: StatusFailed, Label: LabelCancelled}
)

// NewOutcomeState creates a state with the given status and an optional label
func NewOutcomeState(status Status, label ...string) OutcomeState {
	state := OutcomeState{Status: status}
	if len(label) > 0 {
		state.Label = label[0]
	}
	return state
}

// Equals reports whether other is an OutcomeState (or pointer to one) with the
// same status and label. Values of any other type are never equal.
func (o OutcomeState) Equals(other any) bool {
	switch v := other.(type) {
	case OutcomeState:
		return o == v
	case *OutcomeState:
		return v != nil && o == *v
	default:
		return false
	}
}

// String returns "{Status}" or "{Status}:{Label}" when a label is present
func (o OutcomeState) String() string {
	if o.Label == "" {
		return o.Status.String()
	}
	return o.Status.String() + ":" + o.Label
}
