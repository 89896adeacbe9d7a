// Package report renders worklogs and ledger items for humans: markdown
// with YAML frontmatter for archival, plain text for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p988744/recap-sub001/internal/ledger"
	"github.com/p988744/recap-sub001/internal/worklog"
)

// Daily is one date's report: the ledger items recorded for the day plus
// any composed per-project worklogs.
type Daily struct {
	Date       string
	UserID     string
	Items      []*ledger.WorkItem
	Worklogs   []*worklog.Worklog
	TotalHours float64
}

// Build assembles a daily report from ledger items.
func Build(date, userID string, items []*ledger.WorkItem, logs []*worklog.Worklog) *Daily {
	d := &Daily{Date: date, UserID: userID, Items: items, Worklogs: logs}
	for _, item := range items {
		d.TotalHours += item.Hours
	}
	return d
}

// Markdown renders the report with YAML frontmatter, suitable for
// dropping into a notes vault.
func (d *Daily) Markdown() string {
	frontmatter := struct {
		Date       string  `yaml:"date"`
		UserID     string  `yaml:"user_id"`
		TotalHours float64 `yaml:"total_hours"`
		ItemCount  int     `yaml:"item_count"`
	}{
		Date:       d.Date,
		UserID:     d.UserID,
		TotalHours: d.TotalHours,
		ItemCount:  len(d.Items),
	}
	frontmatterYAML, _ := yaml.Marshal(frontmatter)

	var b strings.Builder
	fmt.Fprintf(&b, "---\n%s---\n\n", string(frontmatterYAML))
	fmt.Fprintf(&b, "# Worklog %s\n\n", d.Date)

	names, groups := d.byProject()
	for _, project := range names {
		fmt.Fprintf(&b, "## %s\n\n", project)
		for _, item := range groups[project] {
			fmt.Fprintf(&b, "- %s (%.2gh, %s)\n", item.Title, item.Hours, item.Source)
			if item.Description != "" {
				for _, line := range strings.Split(item.Description, "\n") {
					fmt.Fprintf(&b, "  - %s\n", line)
				}
			}
		}
		b.WriteString("\n")
	}

	for _, w := range d.Worklogs {
		if len(w.Commits) == 0 && len(w.Standalone) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (composed)\n\n", w.Project)
		for _, c := range w.Commits {
			fmt.Fprintf(&b, "- %s %s (%.2gh, %s)\n", c.Commit.ShortHash, c.Commit.Subject, c.Hours, c.HoursSource)
		}
		for _, s := range w.Standalone {
			fmt.Fprintf(&b, "- session: %s (%.2gh)\n", s.Outcome, s.Hours)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total: %.2g hours\n", d.TotalHours)
	return b.String()
}

// Text renders the report for the terminal.
func (d *Daily) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Worklog %s (%s)\n", d.Date, d.UserID)

	names, groups := d.byProject()
	for _, project := range names {
		fmt.Fprintf(&b, "\n%s\n", project)
		for _, item := range groups[project] {
			fmt.Fprintf(&b, "  %-9s %4.2gh  %s\n", item.Source, item.Hours, item.Title)
		}
	}

	fmt.Fprintf(&b, "\nTotal: %.2g hours across %d items\n", d.TotalHours, len(d.Items))
	return b.String()
}

// byProject groups items by project with a stable order. Unattributed
// items land under "(no project)".
func (d *Daily) byProject() ([]string, map[string][]*ledger.WorkItem) {
	groups := make(map[string][]*ledger.WorkItem)
	for _, item := range d.Items {
		key := item.Project
		if key == "" {
			key = "(no project)"
		}
		groups[key] = append(groups[key], item)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, groups
}
