package session

import (
	"encoding/json"
	"os"
	"strings"
)

// geminiSession is a Gemini session document: a single JSON object holding
// the full message list, unlike the line-oriented Claude format.
type geminiSession struct {
	SessionID   string          `json:"sessionId"`
	ProjectHash string          `json:"projectHash"`
	StartTime   string          `json:"startTime"`
	LastUpdated string          `json:"lastUpdated"`
	Messages    []geminiMessage `json:"messages"`
}

type geminiMessage struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"` // "user" or "gemini"
	Content   string          `json:"content"`
	Thoughts  []geminiThought `json:"thoughts"`
}

// geminiThought is an assistant reasoning step; tool activity is only
// recorded here, described in prose rather than as structured invocations.
type geminiThought struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// ParseGemini reads a Gemini session document and converts it to the
// canonical Summary. Returns nil if the file is unreadable, not a session
// document, or contains no meaningful user message.
func ParseGemini(path string) *Summary {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc geminiSession
	if err := json.Unmarshal(data, &doc); err != nil || doc.SessionID == "" {
		return nil
	}
	return doc.toSummary()
}

func (s *geminiSession) toSummary() *Summary {
	var (
		firstTS       string
		lastTS        string
		firstMessage  string
		msgCount      int
		committedWork bool
	)
	toolCounts := make(map[string]int)

	for _, msg := range s.Messages {
		if msg.Timestamp != "" {
			if firstTS == "" {
				firstTS = msg.Timestamp
			}
			lastTS = msg.Timestamp
		}

		switch msg.Type {
		case "user":
			if IsMeaningfulMessage(msg.Content) {
				msgCount++
				if firstMessage == "" {
					firstMessage = truncateRunes(strings.TrimSpace(msg.Content), 200, "")
				}
			}
		case "gemini":
			for _, thought := range msg.Thoughts {
				if thoughtDescribesTool(thought) {
					toolCounts[thought.Subject]++
				}
				if strings.Contains(thought.Description, "git commit") {
					committedWork = true
				}
			}
		}
	}

	if firstTS == "" {
		firstTS = s.StartTime
	}
	if lastTS == "" {
		lastTS = s.LastUpdated
	}
	if msgCount == 0 {
		return nil
	}

	return &Summary{
		SessionID:      s.SessionID,
		FirstTimestamp: firstTS,
		LastTimestamp:  lastTS,
		MessageCount:   msgCount,
		ToolUsage:      sortedToolUsage(toolCounts),
		FirstMessage:   firstMessage,
		CommittedWork:  committedWork,
	}
}

// thoughtDescribesTool reports whether a reasoning step describes tool
// activity. Gemini logs have no structured tool records, so this is a
// keyword heuristic over the thought subject and body.
func thoughtDescribesTool(t geminiThought) bool {
	if strings.Contains(t.Subject, "Tool") ||
		strings.Contains(t.Subject, "Search") ||
		strings.Contains(t.Subject, "File") {
		return true
	}
	return strings.Contains(t.Description, "run_shell") ||
		strings.Contains(t.Description, "read_file") ||
		strings.Contains(t.Description, "write_file")
}

// Format identifies the on-disk layout of a session log.
type Format int

const (
	FormatUnknown Format = iota
	FormatClaude
	FormatGemini
)

// DetectFormat sniffs the session format from the file name: Claude logs
// are line-oriented .jsonl files, Gemini logs are session-*.json documents.
func DetectFormat(path string) Format {
	switch {
	case strings.HasSuffix(path, ".jsonl"):
		return FormatClaude
	case strings.HasSuffix(path, ".json"):
		return FormatGemini
	default:
		return FormatUnknown
	}
}

// Parse dispatches to the format-specific parser based on DetectFormat.
func Parse(path string) *Summary {
	switch DetectFormat(path) {
	case FormatClaude:
		return ParseFull(path)
	case FormatGemini:
		return ParseGemini(path)
	default:
		return nil
	}
}
