// ABOUTME: End-to-end tests for the kanban CLI driving run() against a temporary data directory.
// ABOUTME: Covers board and card subcommands, exports, exit codes, and persistence across invocations.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupCLI isolates the CLI from the host: no KANBAN_* settings, no config file,
// and a fresh data directory which it returns.
func setupCLI(t *testing.T) string {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", home)
	return filepath.Join(home, "kanban")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// mustRun fails the test unless the command exits 0, and returns stdout.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := runCLI(t, args...)
	if code != 0 {
		t.Fatalf("kanban %s: exit %d\nstdout: %s\nstderr: %s", strings.Join(args, " "), code, out, errOut)
	}
	return out
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}

func TestRunVersion(t *testing.T) {
	setupCLI(t)
	out := mustRun(t, "-version")
	assertContains(t, out, "kanban dev")
}

func TestRunNoArgsPrintsHelp(t *testing.T) {
	setupCLI(t)
	out := mustRun(t)
	assertContains(t, out, "Usage:")
}

func TestRunUsageErrors(t *testing.T) {
	setupCLI(t)
	cases := [][]string{
		{"frobnicate"},
		{"-nosuchflag"},
		{"new"},
		{"move", "Sprint"},
		{"add", "-title", "x"},
		{"toggle", "Sprint", "1"},
		{"list"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, args...); code != 2 {
			t.Errorf("kanban %s: exit %d, want 2", strings.Join(args, " "), code)
		}
	}
}

func TestRunBoardsEmpty(t *testing.T) {
	setupCLI(t)
	out := mustRun(t, "boards")
	assertContains(t, out, "no boards")
}

func TestRunCardLifecycle(t *testing.T) {
	home := setupCLI(t)

	assertContains(t, mustRun(t, "new", "Sprint", "42"), `"Sprint 42" (deadline)`)
	assertContains(t, mustRun(t, "boards"), "Sprint 42")

	out := mustRun(t, "add", "-title", "Ship", "-desc", "release notes", "-deadline", "2099-01-02 09:00", "Sprint 42")
	assertContains(t, out, `created #1 "Ship"`)

	assertContains(t, mustRun(t, "move", "Sprint 42", "1", "2"), "moved #1 New -> In progress")
	assertContains(t, mustRun(t, "move", "Sprint 42", "1", "3"), "moved #1 In progress -> Testing/Review")
	assertContains(t, mustRun(t, "back", "Sprint 42", "1", "flaky", "tests"), "returned #1")
	assertContains(t, mustRun(t, "edit", "-title", "Shipped", "Sprint 42", "1"), "edited #1")

	list := mustRun(t, "list", "Sprint 42")
	assertContains(t, list, "### #1 Shipped")
	assertContains(t, list, "## In progress (1)")

	filtered := mustRun(t, "list", "-q", "nothing-matches", "Sprint 42")
	if strings.Contains(filtered, "Shipped") {
		t.Errorf("filtered list still shows the card:\n%s", filtered)
	}

	assertContains(t, mustRun(t, "export", "-format", "yaml", "Sprint 42"), "Shipped")
	assertContains(t, mustRun(t, "export", "-format", "html", "Sprint 42"), "Shipped")
	assertContains(t, mustRun(t, "export", "-format", "all", "Sprint 42"), "wrote exports")
	matches, err := filepath.Glob(filepath.Join(home, "boards", "*", "exports", "board.md"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("exported markdown: %v %v", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, string(data), "Shipped")

	assertContains(t, mustRun(t, "delete", "Sprint 42", "1"), "deleted #1")
	assertContains(t, mustRun(t, "delete", "Sprint 42", "1"), "no change")
}

func TestRunCommandErrors(t *testing.T) {
	setupCLI(t)
	mustRun(t, "new", "Sprint")
	mustRun(t, "add", "-title", "Ship", "-desc", "d", "-deadline", "2099-01-02", "Sprint")

	cases := [][]string{
		{"list", "NoSuchBoard"},
		{"move", "Sprint", "abc", "2"},
		{"move", "Sprint", "1", "archive"},
		{"move", "Sprint", "1", "4"},
		{"add", "-title", "x", "-desc", "d", "-deadline", "someday", "Sprint"},
		{"add", "-title", " ", "-desc", "d", "-deadline", "2099-01-02", "Sprint"},
		{"edit", "-deadline", "someday", "Sprint", "1"},
		{"edit", "-title", "x", "Sprint", "99"},
		{"export", "-format", "pdf", "Sprint"},
		{"toggle", "Sprint", "1", "0"},
		{"clear", "Sprint"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, args...); code != 1 {
			t.Errorf("kanban %s: exit %d, want 1", strings.Join(args, " "), code)
		}
	}

	list := mustRun(t, "list", "Sprint")
	assertContains(t, list, "### #1 Ship")
	assertContains(t, list, "## New (1)")
}

func TestRunQuietCancels(t *testing.T) {
	setupCLI(t)
	mustRun(t, "new", "Sprint")
	mustRun(t, "add", "-title", "Ship", "-desc", "d", "-deadline", "2099-01-02", "Sprint")

	code, _, errOut := runCLI(t, "back", "Sprint", "1")
	if code != 0 {
		t.Errorf("back without reason: exit %d, want 0", code)
	}
	assertContains(t, errOut, "no reason given")

	code, _, errOut = runCLI(t, "edit", "Sprint", "1")
	if code != 0 {
		t.Errorf("edit without flags: exit %d, want 0", code)
	}
	assertContains(t, errOut, "nothing to change")
}

func TestRunChecklistBoard(t *testing.T) {
	setupCLI(t)
	assertContains(t, mustRun(t, "new", "-variant", "checklist", "Release"), "(checklist)")

	code, _, _ := runCLI(t, "add", "-title", "Tag", "-desc", "v1", "-deadline", "2099-01-02", "-item", "tag", "Release")
	if code != 1 {
		t.Errorf("add with one item: exit %d, want 1", code)
	}

	mustRun(t, "add", "-title", "Tag", "-desc", "v1", "-deadline", "2099-01-02",
		"-item", "tag", "-item", "build", "-item", "notes", "Release")
	assertContains(t, mustRun(t, "toggle", "Release", "1", "1"), "toggled #1 item 1: done (33%)")

	if code, _, _ := runCLI(t, "move", "Release", "1", "3"); code != 1 {
		t.Errorf("manual move on checklist board: exit %d, want 1", code)
	}

	assertContains(t, mustRun(t, "clear", "-yes", "Release"), "cleared board")
	assertContains(t, mustRun(t, "list", "Release"), "> 0 cards, checklist policy")
}

func TestRunSqliteBackend(t *testing.T) {
	setupCLI(t)
	mustRun(t, "-backend", "sqlite", "new", "Ops")
	mustRun(t, "-backend", "sqlite", "add", "-title", "Rotate keys", "-desc", "quarterly", "-deadline", "2099-01-02", "Ops")
	assertContains(t, mustRun(t, "-backend", "sqlite", "list", "Ops"), "### #1 Rotate keys")

	if code, _, _ := runCLI(t, "-backend", "postgres", "boards"); code != 1 {
		t.Errorf("unknown backend: exit %d, want 1", code)
	}
}

func TestRunHomeFlag(t *testing.T) {
	setupCLI(t)
	home := t.TempDir()
	mustRun(t, "-home", home, "new", "Elsewhere")

	if _, err := os.Stat(filepath.Join(home, "boards")); err != nil {
		t.Errorf("boards dir not created under -home: %v", err)
	}
	assertContains(t, mustRun(t, "-home", home, "boards"), "Elsewhere")
	assertContains(t, mustRun(t, "boards"), "no boards")
}

func TestRunCardsQueriesIndex(t *testing.T) {
	setupCLI(t)
	mustRun(t, "new", "Sprint")
	mustRun(t, "add", "-title", "Ship release", "-desc", "d", "-deadline", "2099-01-02", "Sprint")
	mustRun(t, "add", "-title", "Write docs", "-desc", "d", "-deadline", "2099-01-02", "Sprint")
	mustRun(t, "move", "Sprint", "1", "2")
	mustRun(t, "move", "Sprint", "1", "3")
	mustRun(t, "back", "Sprint", "1", "needs", "fix")

	all := mustRun(t, "cards", "Sprint")
	assertContains(t, all, "2 shown; New 1, In progress 1, Testing/Review 0, Done 0")

	inProgress := mustRun(t, "cards", "-column", "2", "Sprint")
	assertContains(t, inProgress, "Ship release")
	assertContains(t, inProgress, "returned: needs fix")
	if strings.Contains(inProgress, "Write docs") {
		t.Errorf("column filter leaked a New card:\n%s", inProgress)
	}

	docs := mustRun(t, "cards", "-q", "DOCS", "Sprint")
	assertContains(t, docs, "1 shown;")
	assertContains(t, docs, "Write docs")

	if code, _, _ := runCLI(t, "cards", "-column", "archive", "Sprint"); code != 1 {
		t.Errorf("bad column: exit %d, want 1", code)
	}
	if code, _, _ := runCLI(t, "cards"); code != 2 {
		t.Errorf("missing board: exit %d, want 2", code)
	}
}
