package secrets

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// OnePasswordResolver resolves op://vault/item/field with the op CLI.
type OnePasswordResolver struct {
	// run executes `op read`; replaced in tests.
	run func(ctx context.Context, reference string) (stdout, stderr []byte, err error)
}

// Scheme returns "op".
func (r *OnePasswordResolver) Scheme() string {
	return "op"
}

// Resolve fetches a secret using `op read`.
func (r *OnePasswordResolver) Resolve(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	run := r.run
	if run == nil {
		if _, err := exec.LookPath("op"); err != nil {
			return "", &BackendError{
				Backend: "1Password",
				Reason:  "op CLI not found in PATH",
				Fix:     "Install from https://1password.com/downloads/command-line/\nThen run: op signin",
			}
		}
		run = opRead
	}

	stdout, stderr, err := run(ctx, reference)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", parseOpError(stderr, reference)
	}
	return strings.TrimSpace(string(stdout)), nil
}

func opRead(ctx context.Context, reference string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "op", "read", "--no-newline", reference)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// parseOpError maps op CLI output to typed errors.
func parseOpError(stderr []byte, reference string) error {
	msg := string(stderr)

	switch {
	case strings.Contains(msg, "not currently signed in") || strings.Contains(msg, "not signed in"):
		return &BackendError{
			Backend:   "1Password",
			Reference: reference,
			Reason:    "not signed in",
			Fix:       "Run: eval $(op signin)\n\nOr set OP_SERVICE_ACCOUNT_TOKEN for unattended hosts.",
		}
	case strings.Contains(msg, "isn't an item") || strings.Contains(msg, "could not be found"):
		return &NotFoundError{Reference: reference, Backend: "1Password"}
	case strings.Contains(msg, "isn't a vault"):
		vault, _, _ := strings.Cut(strings.TrimPrefix(reference, "op://"), "/")
		return &BackendError{
			Backend:   "1Password",
			Reference: reference,
			Reason:    "vault not found or not accessible",
			Fix:       "Vault \"" + vault + "\" not found.\n\nList available vaults with: op vault list",
		}
	}
	return &BackendError{
		Backend:   "1Password",
		Reference: reference,
		Reason:    strings.TrimSpace(msg),
	}
}

func init() {
	Register(&OnePasswordResolver{})
}
