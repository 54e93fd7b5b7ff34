package booking

import (
	"errors"
	"fmt"

	"aerolease/internal/calendar"
)

var (
	ErrSessionNotFound  = errors.New("booking session not found")
	ErrUnknownAircraft  = errors.New("unknown aircraft")
	ErrNoAircraft       = errors.New("please select an aircraft")
	ErrUnknownLeaseType = errors.New("unknown lease type")
	ErrMissingContact   = errors.New("please fill in all required contact details")
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrTermsNotAccepted = errors.New("please accept the terms and conditions")
)

// StepError is a submission failure together with the wizard step the user
// is sent back to.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TransitionError is returned for a step change the wizard does not allow.
type TransitionError struct {
	From Step
	To   Step
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from step %s to %s", e.From, e.To)
}

// Error codes returned by Code in addition to the calendar codes.
const (
	CodeSessionNotFound  = "session_not_found"
	CodeUnknownAircraft  = "unknown_aircraft"
	CodeNoAircraft       = "no_aircraft"
	CodeUnknownLeaseType = "unknown_lease_type"
	CodeMissingContact   = "missing_contact"
	CodeInvalidEmail     = "invalid_email"
	CodeTermsNotAccepted = "terms_not_accepted"
	CodeInvalidStep      = "invalid_step"
)

var codes = map[error]string{
	ErrSessionNotFound:  CodeSessionNotFound,
	ErrUnknownAircraft:  CodeUnknownAircraft,
	ErrNoAircraft:       CodeNoAircraft,
	ErrUnknownLeaseType: CodeUnknownLeaseType,
	ErrMissingContact:   CodeMissingContact,
	ErrInvalidEmail:     CodeInvalidEmail,
	ErrTermsNotAccepted: CodeTermsNotAccepted,
}

// Code classifies err. Calendar errors keep their calendar code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if code := calendar.Code(err); code != "" {
		return code
	}
	var te *TransitionError
	if errors.As(err, &te) {
		return CodeInvalidStep
	}
	for target, code := range codes {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}

// StepOf returns the step a failed submission points to, if any.
func StepOf(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return 0, false
}
