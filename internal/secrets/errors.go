package secrets

import "fmt"

// UnsupportedSchemeError means the bot token named a scheme no resolver
// handles.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("bot token: no resolver for %s:// (known: %s)", e.Scheme, joinSchemes())
}

// InvalidReferenceError means a bot token reference could not be parsed.
type InvalidReferenceError struct {
	Reference string
	Reason    string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("bot token reference %q is malformed: %s", e.Reference, e.Reason)
}

// NotFoundError means the backend answered but holds nothing under the
// reference.
type NotFoundError struct {
	Reference string
	Backend   string
}

func (e *NotFoundError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("bot token %s resolved to nothing", e.Reference)
	}
	return fmt.Sprintf("bot token %s not found in %s", e.Reference, e.Backend)
}

// BackendError is a backend failing to answer. Fix, when set, is a hint
// printed under the message.
type BackendError struct {
	Backend   string
	Reference string
	Reason    string
	Fix       string
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s could not read bot token", e.Backend)
	if e.Reference != "" {
		msg += " " + e.Reference
	}
	msg += ": " + e.Reason
	if e.Fix != "" {
		msg += "\n\n  " + e.Fix
	}
	return msg
}
