package doctor

import (
	"context"
	"errors"
	"io"
	"testing"
)

type mockSection struct {
	name   string
	output string
	err    error
}

func (m *mockSection) Name() string {
	return m.name
}

func (m *mockSection) Print(_ context.Context, w io.Writer) error {
	io.WriteString(w, m.output)
	return m.err
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	if len(reg.Sections()) != 0 {
		t.Errorf("new registry should be empty, got %d sections", len(reg.Sections()))
	}

	reg.Register(&mockSection{name: "Config"}, &mockSection{name: "Token"})

	sections := reg.Sections()
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Name() != "Config" || sections[1].Name() != "Token" {
		t.Errorf("sections out of order: %q, %q", sections[0].Name(), sections[1].Name())
	}
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	reg := NewRegistry()
	reg.Register(
		&mockSection{name: "Config", output: "Path: x\n"},
		&mockSection{name: "Token", output: "Source: env\n", err: errors.New("not found")},
		&mockSection{name: "Audit", output: "Entries: 3\n"},
	)

	results := reg.Run(context.Background())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Output != "Source: env\n" {
		t.Errorf("failing section output = %q, want it kept", results[1].Output)
	}
	if results[1].Err == nil {
		t.Error("expected Token to fail")
	}
	if results[2].Output != "Entries: 3\n" {
		t.Errorf("section after failure not run, got %q", results[2].Output)
	}
	if got := Failed(results); got != 1 {
		t.Errorf("Failed() = %d, want 1", got)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{"all pass", []Result{{Name: "a"}, {Name: "b"}}, "All 2 checks passed."},
		{"one fails", []Result{{Name: "a"}, {Name: "b", Err: errors.New("x")}}, "1 of 2 checks found problems."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summary(tt.results); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
