package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
)

// EnvResolver reads env://NAME from the process environment.
type EnvResolver struct{}

// Scheme returns "env".
func (EnvResolver) Scheme() string { return "env" }

// Resolve returns the variable's value. A set but empty variable counts as
// missing.
func (EnvResolver) Resolve(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := strings.TrimPrefix(reference, "env://")
	if name == "" {
		return "", &InvalidReferenceError{Reference: reference, Reason: "variable name is empty"}
	}
	v := os.Getenv(name)
	if v == "" {
		return "", &NotFoundError{Reference: reference, Backend: "environment"}
	}
	return v, nil
}

// FileResolver reads file:///path and trims surrounding whitespace.
type FileResolver struct{}

// Scheme returns "file".
func (FileResolver) Scheme() string { return "file" }

// Resolve reads the file named by the reference.
func (FileResolver) Resolve(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := strings.TrimPrefix(reference, "file://")
	if path == "" {
		return "", &InvalidReferenceError{Reference: reference, Reason: "path is empty"}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", &NotFoundError{Reference: reference, Backend: "file"}
	}
	if err != nil {
		return "", &BackendError{Backend: "file", Reference: reference, Reason: err.Error()}
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", &NotFoundError{Reference: reference, Backend: "file"}
	}
	return v, nil
}

func init() {
	Register(EnvResolver{})
	Register(FileResolver{})
}
