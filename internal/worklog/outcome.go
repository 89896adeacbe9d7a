package worklog

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/p988744/recap-sub001/internal/session"
)

const (
	maxOutcomeFiles    = 3
	minToolMentions    = 3
	maxMessageOutcome  = 50
	fallbackOutcome    = "Development session"
	truncationEllipsis = "..."
)

// Summarizer produces a one-line outcome for a session, typically by
// calling a language model.
type Summarizer interface {
	Summarize(ctx context.Context, s *session.Summary) (string, error)
}

// Outcome returns the best available one-line description of a session.
// A failing or absent summarizer degrades to the rule-based outcome; a
// session always gets some description.
func Outcome(ctx context.Context, summarizer Summarizer, s *session.Summary) string {
	if summarizer != nil {
		line, err := summarizer.Summarize(ctx, s)
		if err == nil && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
		if err != nil {
			log.Printf("Warning: summarizer failed, using rule-based outcome: %v", err)
		}
	}
	return RuleBasedOutcome(s)
}

// Enrich rewrites the standalone outcome lines through a summarizer.
// Failures keep the rule-based outcome already in place.
func (w *Worklog) Enrich(ctx context.Context, summarizer Summarizer) {
	if summarizer == nil {
		return
	}
	for i := range w.Standalone {
		w.Standalone[i].Outcome = Outcome(ctx, summarizer, w.Standalone[i].Summary)
	}
}

// RuleBasedOutcome derives an outcome line without any model call: the
// files touched, then the heavily used tools, then the opening message.
func RuleBasedOutcome(s *session.Summary) string {
	var parts []string

	if len(s.FilesModified) > 0 {
		names := make([]string, 0, maxOutcomeFiles)
		for _, f := range s.FilesModified {
			if len(names) == maxOutcomeFiles {
				break
			}
			names = append(names, filepath.Base(f))
		}
		part := "Modified " + strings.Join(names, ", ")
		if extra := len(s.FilesModified) - len(names); extra > 0 {
			part += fmt.Sprintf(" (+%d)", extra)
		}
		parts = append(parts, part)
	}

	var tools []string
	for _, u := range s.ToolUsage {
		if u.Count >= minToolMentions {
			tools = append(tools, fmt.Sprintf("%s(%d)", u.Name, u.Count))
		}
	}
	if len(tools) > 0 {
		parts = append(parts, strings.Join(tools, ", "))
	}

	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}

	if msg := strings.TrimSpace(s.FirstMessage); msg != "" {
		runes := []rune(msg)
		if len(runes) > maxMessageOutcome {
			return string(runes[:maxMessageOutcome]) + truncationEllipsis
		}
		return msg
	}

	return fallbackOutcome
}
