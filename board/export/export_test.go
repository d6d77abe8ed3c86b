// ABOUTME: Tests for the Markdown, YAML, and HTML board exporters.
// ABOUTME: Builds a small board with a fixed clock and checks section order and card content.
package export_test

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/export"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleSnapshot(t *testing.T) export.Snapshot {
	t.Helper()
	rules := core.ChecklistRules()
	info := core.BoardInfo{BoardID: core.NewBoardID(), Title: "Release", Rules: rules, CreatedAt: now}
	b := core.NewBoard(rules, nil, core.WithClock(func() time.Time { return now }))

	first, err := b.AddCard(core.NewCard{
		Title: "Write notes", Description: "Changelog", Deadline: now.Add(24 * time.Hour),
		Items: []string{"draft", "review", "publish"},
	})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	b.ToggleItem(first.ID, 0)
	b.ToggleItem(first.ID, 1)

	if _, err := b.AddCard(core.NewCard{
		Title: "<b>Tag</b> build", Description: "git tag", Deadline: now,
		Items: []string{"a", "b", "c"},
	}); err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	return export.FromBoard(info, b, "", now)
}

func TestExportMarkdown_ColumnsInBoardOrder(t *testing.T) {
	md := export.ExportMarkdown(sampleSnapshot(t))

	headings := []string{"# Release", "## New (1/3)", "## In progress (1/5)", "## Testing/Review (0)", "## Done (0)"}
	last := -1
	for _, h := range headings {
		i := strings.Index(md, h)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", h, md)
		}
		if i < last {
			t.Errorf("%q out of order", h)
		}
		last = i
	}
	if !strings.Contains(md, "### #1 Write notes") {
		t.Errorf("missing card heading in:\n%s", md)
	}
	if !strings.Contains(md, "- [x] draft") || !strings.Contains(md, "- [ ] publish") {
		t.Errorf("missing checklist in:\n%s", md)
	}
	if !strings.Contains(md, "Checklist (67%)") {
		t.Errorf("missing ratio in:\n%s", md)
	}
}

func TestExportYAML_ParsesBack(t *testing.T) {
	out, err := export.ExportYAML(sampleSnapshot(t))
	if err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	var doc export.YamlBoard
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Title != "Release" || doc.Variant != "checklist" {
		t.Errorf("got title %q variant %q", doc.Title, doc.Variant)
	}
	if len(doc.Columns) != 4 {
		t.Fatalf("columns: got %d, want 4", len(doc.Columns))
	}
	if got := doc.Columns[1].Cards; len(got) != 1 || got[0].ID != 1 {
		t.Errorf("in progress cards: got %+v", got)
	}
	if doc.Columns[2].Cards == nil {
		t.Error("empty column should serialize as an empty list")
	}
}

func TestExportHTML_EscapesCardText(t *testing.T) {
	html, err := export.ExportHTML(sampleSnapshot(t))
	if err != nil {
		t.Fatalf("ExportHTML: %v", err)
	}
	if !strings.Contains(html, "<title>Release</title>") {
		t.Errorf("missing title")
	}
	if !strings.Contains(html, "<h2>In progress (1/5)</h2>") {
		t.Errorf("missing column heading in:\n%s", html)
	}
	if strings.Contains(html, "<b>Tag</b>") {
		t.Errorf("raw HTML from card title passed through")
	}
}
