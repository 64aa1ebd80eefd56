// Package doctor runs the diagnostic sections behind `aniflax doctor`.
package doctor

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Section is one block of diagnostic output.
type Section interface {
	// Name is printed as the section heading, e.g. "Token".
	Name() string

	// Print writes the section body to w. An error means the section
	// found a problem that would stop the bot from running.
	Print(ctx context.Context, w io.Writer) error
}

// Registry holds sections in registration order.
type Registry struct {
	sections []Section
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a section.
func (r *Registry) Register(s ...Section) {
	r.sections = append(r.sections, s...)
}

// Sections returns all registered sections.
func (r *Registry) Sections() []Section {
	return r.sections
}

// Result is one section's outcome.
type Result struct {
	Name   string
	Output string
	Err    error
}

// Run prints every section in order. A failing section does not stop the
// ones after it.
func (r *Registry) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.sections))
	for _, s := range r.sections {
		var buf bytes.Buffer
		err := s.Print(ctx, &buf)
		results = append(results, Result{Name: s.Name(), Output: buf.String(), Err: err})
	}
	return results
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Summary describes the results in one line.
func Summary(results []Result) string {
	failed := Failed(results)
	if failed == 0 {
		return fmt.Sprintf("All %d checks passed.", len(results))
	}
	return fmt.Sprintf("%d of %d checks found problems.", failed, len(results))
}
