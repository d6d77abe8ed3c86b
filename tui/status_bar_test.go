// ABOUTME: Tests for the StatusBar component covering the summary line, filter, blocked flag, and notices.
// ABOUTME: Validates content rather than exact styling.
package tui

import (
	"strings"
	"testing"
)

func TestStatusBar_Summary(t *testing.T) {
	out := StatusBar{Title: "Sprint", Variant: "deadline", Cards: 3, Width: 80}.Render()
	for _, want := range []string{"Board: Sprint", "deadline", "3 cards"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "filter") || strings.Contains(out, "Backlog blocked") {
		t.Errorf("unexpected optional parts in %q", out)
	}
}

func TestStatusBar_FilterAndBlocked(t *testing.T) {
	out := StatusBar{Title: "Sprint", Variant: "checklist", Query: "ship", Blocked: true}.Render()
	for _, want := range []string{`filter: "ship"`, "Backlog blocked"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestStatusBar_Notice(t *testing.T) {
	out := StatusBar{Title: "Sprint", Notice: "moved #1", Width: 80}.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "moved #1") {
		t.Errorf("notice line missing: %q", out)
	}

	out = StatusBar{Title: "Sprint", Notice: "backlog is full", NoticeErr: true}.Render()
	if !strings.Contains(out, "backlog is full") {
		t.Errorf("error notice missing: %q", out)
	}
}
