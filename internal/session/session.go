// Package session parses AI coding-assistant session logs into a canonical
// summary: time bounds, tool-usage counts, modified files, and the first
// meaningful user message.
//
// Two on-disk formats are supported, selected by sniffing rather than ad hoc
// field probing: Claude Code JSONL (one record per line) and Gemini session
// documents (a single JSON object with a message list). Both convert to the
// same Summary.
package session

import (
	"sort"
	"strings"
	"time"
)

// Cap on the modified-file set; pathological sessions can touch thousands
// of files and the set is only used for display and outcome summaries.
const maxFilesModified = 50

// Summary is the canonical digest of one session log. It is recomputed
// fresh from the raw log on every scan and never mutated in place.
// Timestamps are kept verbatim (RFC 3339 with offset) as recorded.
type Summary struct {
	// SessionID is the log's self-reported identifier, when the format
	// carries one. Claude logs identify sessions by filename instead.
	SessionID      string
	CWD            string
	FirstTimestamp string
	LastTimestamp  string
	MessageCount   int // meaningful user messages only
	ToolUsage      []ToolUsage
	FilesModified  []string
	FirstMessage   string
	// CommittedWork is set when the session ran a git commit; such
	// sessions are represented by their commits, not counted standalone.
	CommittedWork bool
}

// Metadata is the lightweight result of a fast scan: time bounds plus a
// representative first message, without tool fidelity.
type Metadata struct {
	CWD            string
	FirstTimestamp string
	LastTimestamp  string
	FirstMessage   string
	MessageCount   int
}

// ToolUsage is an occurrence count for one tool name.
type ToolUsage struct {
	Name  string
	Count int
}

// IsMeaningfulMessage reports whether a user message represents real work.
// Session logs contain warm-up pings and embedded command/system markers
// that would otherwise inflate counts and falsely qualify empty sessions.
func IsMeaningfulMessage(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(trimmed, "warmup") {
		return false
	}
	if strings.HasPrefix(trimmed, "<command-") || strings.HasPrefix(trimmed, "<system-") {
		return false
	}
	return len(trimmed) >= 10
}

// ToolDetail extracts a display detail from a tool invocation's input:
// the target path for file tools, the command for Bash, the pattern for
// search tools. Returns false for tools with no useful detail.
func ToolDetail(toolName string, input map[string]any) (string, bool) {
	switch toolName {
	case "Edit", "Write", "Read":
		p, ok := input["file_path"].(string)
		if !ok {
			return "", false
		}
		parts := strings.Split(p, "/")
		if len(parts) > 3 {
			return ".../" + strings.Join(parts[len(parts)-3:], "/"), true
		}
		return p, true
	case "Bash":
		c, ok := input["command"].(string)
		if !ok {
			return "", false
		}
		return truncateRunes(c, 60, "..."), true
	case "Glob", "Grep":
		p, ok := input["pattern"].(string)
		return p, ok
	case "Task":
		d, ok := input["description"].(string)
		if !ok {
			return "", false
		}
		return truncateRunes(d, 50, ""), true
	default:
		return "", false
	}
}

// TruncateToHour converts an RFC 3339 timestamp to the reference location
// before truncating to the hour boundary. Truncating in UTC and
// reinterpreting would shift bucket boundaries across DST/offset changes.
func TruncateToHour(ts string, loc *time.Location) (string, bool) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "", false
	}
	local := t.In(loc)
	truncated := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	return truncated.Format("2006-01-02T15:04:05"), true
}

func truncateRunes(s string, max int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + suffix
}

func sortedToolUsage(counts map[string]int) []ToolUsage {
	usage := make([]ToolUsage, 0, len(counts))
	for name, count := range counts {
		usage = append(usage, ToolUsage{Name: name, Count: count})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Count != usage[j].Count {
			return usage[i].Count > usage[j].Count
		}
		return usage[i].Name < usage[j].Name
	})
	return usage
}
