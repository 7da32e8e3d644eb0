// Package testutils provides golden comparison and deterministic helpers for sessionshell tests.
package testutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// AssertGolden fails the test when actual differs from expected, reporting
// both texts with line numbers and a compact diff.
func AssertGolden(t testing.TB, expected, actual string) bool {
	t.Helper()
	if expected == actual {
		return true
	}
	t.Errorf("output mismatch\n--- Expected ---\n%s\n--- Actual ---\n%s\n--- Diff ---\n%s",
		numberedLines(expected), numberedLines(actual), Diff(expected, actual))
	return false
}

// AssertGoldenPlain is AssertGolden after stripping ANSI sequences from actual.
func AssertGoldenPlain(t testing.TB, expected, actual string) bool {
	t.Helper()
	return AssertGolden(t, expected, StripANSI(actual))
}

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// Diff returns a line-per-change description of the differences.
func Diff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(expected, actual, false)

	var b strings.Builder
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "- %q\n", diff.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "+ %q\n", diff.Text)
		case diffmatchpatch.DiffEqual:
			if len(diff.Text) > 50 {
				fmt.Fprintf(&b, "  %q...\n", diff.Text[:47])
			} else {
				fmt.Fprintf(&b, "  %q\n", diff.Text)
			}
		}
	}
	return b.String()
}

func numberedLines(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = fmt.Sprintf("%4d| %s", i+1, line)
	}
	return strings.Join(lines, "\n")
}
