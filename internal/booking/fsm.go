// Package booking implements the aircraft booking wizard: its steps, the
// session carried between requests and the submission flow.
package booking

import "fmt"

// Step is a page of the booking wizard.
type Step int

const (
	StepAircraft Step = iota + 1
	StepDates
	StepContact
	StepSubmitted
)

// wizardSteps is the number of user-visible steps.
const wizardSteps = 3

func (s Step) String() string {
	switch s {
	case StepAircraft:
		return "aircraft"
	case StepDates:
		return "dates"
	case StepContact:
		return "contact"
	case StepSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepAircraft && s <= StepSubmitted
}

// Progress is the width of the progress bar in percent.
func (s Step) Progress() int {
	if s >= StepSubmitted {
		return 100
	}
	if s < StepAircraft {
		return 0
	}
	return int(s) * 100 / wizardSteps
}

// FSM holds the allowed wizard transitions.
type FSM struct {
	transitions map[Step][]Step
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[Step][]Step{
			StepAircraft:  {StepDates},
			StepDates:     {StepContact, StepAircraft},
			StepContact:   {StepSubmitted, StepDates, StepAircraft},
			StepSubmitted: {StepAircraft},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to Step) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the session to the given step if allowed. Staying on
// the current step is always allowed.
func (f *FSM) Transition(session *Session, to Step) error {
	if session.Step == to {
		return nil
	}
	if !f.CanTransition(session.Step, to) {
		return &TransitionError{From: session.Step, To: to}
	}
	session.Step = to
	return nil
}
