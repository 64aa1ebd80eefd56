// Package secrets turns the configured bot token into its value. The token
// may be written inline or as a reference (env://, file://, op://, awssm://,
// keyring://) resolved by the backend registered for its scheme. Failures
// are typed so the CLI can say which backend failed and how to fix it.
package secrets

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Resolver resolves a secret reference to its plaintext value.
type Resolver interface {
	// Scheme returns the URI scheme this resolver handles (e.g. "op").
	Scheme() string

	// Resolve fetches the secret for the full reference URI.
	Resolve(ctx context.Context, reference string) (string, error)
}

var (
	resolvers = make(map[string]Resolver)
	mu        sync.RWMutex
)

// Register adds a resolver to the registry, replacing any resolver for the
// same scheme.
func Register(r Resolver) {
	mu.Lock()
	defer mu.Unlock()
	resolvers[r.Scheme()] = r
}

// Resolve dispatches to the resolver registered for the reference's scheme.
func Resolve(ctx context.Context, reference string) (string, error) {
	scheme := parseScheme(reference)
	if scheme == "" {
		return "", &InvalidReferenceError{Reference: reference, Reason: "missing scheme"}
	}

	mu.RLock()
	r, ok := resolvers[scheme]
	mu.RUnlock()

	if !ok {
		return "", &UnsupportedSchemeError{Scheme: scheme}
	}
	return r.Resolve(ctx, reference)
}

// Value resolves v when it is a reference and returns it unchanged
// otherwise. Bot tokens never contain "://", so plain tokens pass through.
func Value(ctx context.Context, v string) (string, error) {
	if !IsReference(v) {
		return v, nil
	}
	return Resolve(ctx, v)
}

// IsReference reports whether v looks like a secret reference.
func IsReference(v string) bool {
	return parseScheme(v) != ""
}

// Schemes lists the registered schemes.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(resolvers))
	for s := range resolvers {
		out = append(out, s)
	}
	return out
}

func joinSchemes() string {
	schemes := Schemes()
	sort.Strings(schemes)
	return strings.Join(schemes, ", ")
}

// parseScheme extracts the scheme from a URI ("op" from "op://vault/item").
func parseScheme(ref string) string {
	idx := strings.Index(ref, "://")
	if idx < 1 {
		return ""
	}
	return ref[:idx]
}

// clearRegistry removes all registered resolvers. For testing only.
func clearRegistry() {
	mu.Lock()
	defer mu.Unlock()
	resolvers = make(map[string]Resolver)
}
