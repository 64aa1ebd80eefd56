// Package ui formats CLI output: colored status tags, sections, aligned
// key/value blocks and tables. Color is on only when the stream is a
// terminal and NO_COLOR is unset.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	stdoutColor = detectColor(os.Stdout)
	stderrColor = detectColor(os.Stderr)
)

func detectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetOutput redirects stdout and stderr output. Nil restores the process
// streams.
func SetOutput(out, errOut io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

// SetColorEnabled overrides terminal detection.
func SetColorEnabled(enabled bool) {
	stdoutColor = enabled
	stderrColor = enabled
}

type style string

const (
	bold   style = "1"
	dim    style = "2"
	red    style = "31"
	green  style = "32"
	yellow style = "33"
	cyan   style = "36"
)

func (s style) paint(text string, enabled bool) string {
	if !enabled || text == "" {
		return text
	}
	return "\033[" + string(s) + "m" + text + "\033[0m"
}

// Bold styles s for stdout.
func Bold(s string) string { return bold.paint(s, stdoutColor) }

// Dim styles s for stdout.
func Dim(s string) string { return dim.paint(s, stdoutColor) }

// Green styles s for stdout.
func Green(s string) string { return green.paint(s, stdoutColor) }

// Red styles s for stdout.
func Red(s string) string { return red.paint(s, stdoutColor) }

// Yellow styles s for stdout.
func Yellow(s string) string { return yellow.paint(s, stdoutColor) }

// Cyan styles s for stdout.
func Cyan(s string) string { return cyan.paint(s, stdoutColor) }

// OKTag returns a green check mark.
func OKTag() string { return Green("✓") }

// FailTag returns a red cross.
func FailTag() string { return Red("✗") }

// WarnTag returns a yellow warning sign.
func WarnTag() string { return Yellow("⚠") }

// Section prints a bold title with an underline.
func Section(title string) {
	fmt.Fprintln(stdout, Bold(title))
	fmt.Fprintln(stdout, Dim(strings.Repeat("─", len([]rune(title)))))
}

// Fields prints label/value pairs with the values aligned.
func Fields(pairs ...[2]string) {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", p[0], p[1])
	}
	tw.Flush()
}

// Table prints rows under a dimmed header, columns aligned.
func Table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, Dim(strings.Join(header, "\t")))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// Printf writes to stdout.
func Printf(format string, args ...any) {
	fmt.Fprintf(stdout, format, args...)
}

func prefixed(code style, label, msg string) {
	fmt.Fprintf(stderr, "%s %s\n", code.paint(label, stderrColor), msg)
}

// Warn prints a warning to stderr.
func Warn(msg string) { prefixed(yellow, "Warning:", msg) }

// Warnf prints a formatted warning to stderr.
func Warnf(format string, args ...any) { Warn(fmt.Sprintf(format, args...)) }

// Error prints an error to stderr.
func Error(msg string) { prefixed(red, "Error:", msg) }

// Errorf prints a formatted error to stderr.
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }

// Info prints a message to stderr with no prefix.
func Info(msg string) { fmt.Fprintln(stderr, msg) }

// Infof prints a formatted message to stderr with no prefix.
func Infof(format string, args ...any) { Info(fmt.Sprintf(format, args...)) }
