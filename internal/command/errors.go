package command

import (
	"fmt"
	"strings"
)

// BadArgumentError means an argument was present but could not be converted.
type BadArgumentError struct {
	Param  string
	Value  string
	Reason string
}

func (e *BadArgumentError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("Converting to %q failed for parameter %q.", e.Value, e.Param)
}

// MissingArgumentError means a required argument was absent.
type MissingArgumentError struct {
	Param string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s is a required argument that is missing.", e.Param)
}

// TooManyArgumentsError means the command received arguments it doesn't take.
type TooManyArgumentsError struct {
	Extra []string
}

func (e *TooManyArgumentsError) Error() string {
	return fmt.Sprintf("Too many arguments passed: %s", strings.Join(e.Extra, " "))
}

// CheckFailure means the invoker is not allowed to run the command.
type CheckFailure struct {
	Reason string
}

func (e *CheckFailure) Error() string {
	return "check failed: " + e.Reason
}
