// internal/workflow/outcome.go
package workflow

import "errors"

// OK is a successful outcome.
func OK() Outcome { return Outcome{Status: Success} }

// FromError maps err onto an outcome: nil is success, anything else a failure
// whose reason is the error text.
func FromError(err error, recoverable bool) Outcome {
	if err == nil {
		return OK()
	}
	return Outcome{Status: Failure, Reason: err.Error(), Recoverable: recoverable, Err: err}
}

// Fatal fails the run on a non-nil err.
func Fatal(err error) Outcome { return FromError(err, false) }

// Soft records a non-nil err and lets the run continue.
func Soft(err error) Outcome { return FromError(err, true) }

// Assert fails the run with msg unless cond holds.
func Assert(cond bool, msg string) Outcome {
	if cond {
		return OK()
	}
	return Fatal(errors.New(msg))
}

// Checklist is a set of independent checks, such as section visibility.
type Checklist interface {
	Passed() bool
	Err() error
}

// Check turns a checklist into a soft outcome.
func Check(c Checklist) Outcome {
	if c.Passed() {
		return OK()
	}
	err := c.Err()
	if err == nil {
		err = errors.New("checklist failed")
	}
	return Soft(err)
}
