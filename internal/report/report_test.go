package report

import (
	"strings"
	"testing"

	"github.com/p988744/recap-sub001/internal/ledger"
	"github.com/p988744/recap-sub001/internal/worklog"
)

func testItems() []*ledger.WorkItem {
	return []*ledger.WorkItem{
		{
			Title:       "[recap] Fix session parser",
			Description: "Tools: Edit(4)",
			Date:        "2026-01-15",
			Hours:       1.5,
			Source:      ledger.SourceClaude,
			Project:     "recap",
		},
		{
			Title:   "[recap] change abc12345",
			Date:    "2026-01-15",
			Hours:   0.75,
			Source:  ledger.SourceCommit,
			Project: "recap",
		},
		{
			Title:  "Standup notes",
			Date:   "2026-01-15",
			Hours:  0.25,
			Source: ledger.SourceManual,
		},
	}
}

func TestBuild_TotalHours(t *testing.T) {
	d := Build("2026-01-15", "u1", testItems(), nil)
	if d.TotalHours != 2.5 {
		t.Errorf("total = %v", d.TotalHours)
	}
}

func TestMarkdown(t *testing.T) {
	d := Build("2026-01-15", "u1", testItems(), nil)
	md := d.Markdown()

	if !strings.HasPrefix(md, "---\n") {
		t.Error("expected YAML frontmatter")
	}
	for _, want := range []string{
		"date: \"2026-01-15\"",
		"total_hours: 2.5",
		"item_count: 3",
		"## recap",
		"## (no project)",
		"- [recap] Fix session parser (1.5h, claude_code)",
		"  - Tools: Edit(4)",
		"Total: 2.5 hours",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}

	// Projects render in sorted order, unattributed first.
	if strings.Index(md, "## (no project)") > strings.Index(md, "## recap") {
		t.Error("project sections out of order")
	}
}

func TestMarkdown_ComposedWorklog(t *testing.T) {
	w := &worklog.Worklog{
		Date:    "2026-01-15",
		Project: "recap",
		Standalone: []worklog.SessionEntry{
			{Outcome: "Modified x.go", Hours: 0.5},
		},
	}
	d := Build("2026-01-15", "u1", nil, []*worklog.Worklog{w})
	md := d.Markdown()
	if !strings.Contains(md, "## recap (composed)") {
		t.Errorf("missing composed section:\n%s", md)
	}
	if !strings.Contains(md, "- session: Modified x.go (0.5h)") {
		t.Errorf("missing standalone line:\n%s", md)
	}
}

func TestText(t *testing.T) {
	d := Build("2026-01-15", "u1", testItems(), nil)
	txt := d.Text()
	if !strings.Contains(txt, "Worklog 2026-01-15 (u1)") {
		t.Errorf("missing header:\n%s", txt)
	}
	if !strings.Contains(txt, "Total: 2.5 hours across 3 items") {
		t.Errorf("missing total:\n%s", txt)
	}
}
