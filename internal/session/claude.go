package session

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
)

const (
	// Files above this size take the head+tail fast path in ParseFast.
	fastScanThreshold = 50_000
	// Fast path reads this many leading records for the first timestamp,
	// cwd, and first message.
	fastScanHeadLines = 20
	// Fast path reads this many trailing bytes for the last timestamp.
	fastScanTailBytes = 32_000

	// Session lines carry full tool inputs and can get very large.
	maxLineBytes = 1024 * 1024
)

// claudeRecord is one JSONL line of a Claude Code session log. Field
// presence varies by record type; every field is optional.
type claudeRecord struct {
	CWD       string         `json:"cwd"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Message   *claudeMessage `json:"message"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// claudeToolUse is one entry of an assistant turn's content array.
type claudeToolUse struct {
	Type  string         `json:"type"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// userText returns the content when this is a user turn with plain string
// content.
func (m *claudeMessage) userText() (string, bool) {
	if m == nil || m.Role != "user" || len(m.Content) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// toolUses returns the tool invocations when this is an assistant turn
// with structured content.
func (m *claudeMessage) toolUses() []claudeToolUse {
	if m == nil || m.Role != "assistant" || len(m.Content) == 0 {
		return nil
	}
	var items []claudeToolUse
	if err := json.Unmarshal(m.Content, &items); err != nil {
		return nil
	}
	uses := items[:0]
	for _, item := range items {
		if item.Type == "tool_use" && item.Name != "" {
			uses = append(uses, item)
		}
	}
	return uses
}

// ParseFull reads every record of a Claude Code JSONL session log.
// Returns nil if the file is unreadable or contains no meaningful user
// message. Malformed lines are skipped, never fatal.
func ParseFull(path string) *Summary {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var (
		cwd           string
		firstTS       string
		lastTS        string
		firstMessage  string
		msgCount      int
		committedWork bool
	)
	toolCounts := make(map[string]int)
	var filesModified []string
	seenFiles := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		var rec claudeRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}

		if cwd == "" {
			cwd = rec.CWD
		}
		if rec.Timestamp != "" {
			if firstTS == "" {
				firstTS = rec.Timestamp
			}
			lastTS = rec.Timestamp
		}

		if text, ok := rec.Message.userText(); ok && IsMeaningfulMessage(text) {
			msgCount++
			if firstMessage == "" {
				firstMessage = truncateRunes(strings.TrimSpace(text), 200, "")
			}
		}

		for _, use := range rec.Message.toolUses() {
			toolCounts[use.Name]++
			if use.Name == "Bash" {
				if cmd, ok := use.Input["command"].(string); ok && strings.Contains(cmd, "git commit") {
					committedWork = true
				}
			}
			if use.Name != "Edit" && use.Name != "Write" {
				continue
			}
			detail, ok := ToolDetail(use.Name, use.Input)
			if !ok || seenFiles[detail] || len(filesModified) >= maxFilesModified {
				continue
			}
			seenFiles[detail] = true
			filesModified = append(filesModified, detail)
		}
	}

	if msgCount == 0 {
		return nil
	}

	return &Summary{
		CWD:            cwd,
		FirstTimestamp: firstTS,
		LastTimestamp:  lastTS,
		MessageCount:   msgCount,
		ToolUsage:      sortedToolUsage(toolCounts),
		FilesModified:  filesModified,
		FirstMessage:   firstMessage,
		CommittedWork:  committedWork,
	}
}

// ParseFast extracts time bounds and a representative first message by
// reading only the head and tail of the file. Files under the size
// threshold, and large files whose head yields no timestamp, fall back to
// a full scan: correctness of the reported span takes priority over speed.
func ParseFast(path string) *Metadata {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}
	size := info.Size()

	if size < fastScanThreshold {
		return fullMetadata(path)
	}

	var (
		cwd          string
		firstTS      string
		lastTS       string
		firstMessage string
		msgCount     int
	)

	// Read leading records until the anchors (first timestamp and cwd)
	// are found, but at least fastScanHeadLines of them.
	reader := bufio.NewReaderSize(f, 64*1024)
	for linesRead := 0; ; linesRead++ {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var rec claudeRecord
			if jerr := json.Unmarshal(line, &rec); jerr == nil {
				if firstTS == "" {
					firstTS = rec.Timestamp
				}
				if cwd == "" {
					cwd = rec.CWD
				}
				if firstMessage == "" {
					if text, ok := rec.Message.userText(); ok && IsMeaningfulMessage(text) {
						msgCount++
						firstMessage = truncateRunes(strings.TrimSpace(text), 150, "")
					}
				}
			}
		}
		if err != nil {
			break
		}
		if linesRead+1 >= fastScanHeadLines && firstTS != "" && cwd != "" {
			break
		}
	}

	// The head carries the session preamble; no timestamp there means the
	// file does not follow the expected layout.
	if firstTS == "" {
		return fullMetadata(path)
	}

	seekPos := size - fastScanTailBytes
	if seekPos < 0 {
		seekPos = 0
	}
	if _, err := f.Seek(seekPos, io.SeekStart); err == nil {
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		// Drop the partial line at the seek point.
		if seekPos > 0 {
			scanner.Scan()
		}
		for scanner.Scan() {
			var rec claudeRecord
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				continue
			}
			if rec.Timestamp != "" {
				lastTS = rec.Timestamp
			}
			if msgCount == 0 {
				if text, ok := rec.Message.userText(); ok && IsMeaningfulMessage(text) {
					msgCount++
					if firstMessage == "" {
						firstMessage = truncateRunes(strings.TrimSpace(text), 150, "")
					}
				}
			}
		}
	}

	if msgCount == 0 {
		return nil
	}
	if lastTS == "" {
		lastTS = firstTS
	}

	return &Metadata{
		CWD:            cwd,
		FirstTimestamp: firstTS,
		LastTimestamp:  lastTS,
		FirstMessage:   firstMessage,
		MessageCount:   msgCount,
	}
}

// fullMetadata is the full-scan counterpart of ParseFast, used for small
// files and as the fallback when the fast path cannot anchor itself.
func fullMetadata(path string) *Metadata {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var (
		cwd          string
		firstTS      string
		lastTS       string
		firstMessage string
		msgCount     int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		var rec claudeRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Timestamp != "" {
			if firstTS == "" {
				firstTS = rec.Timestamp
			}
			lastTS = rec.Timestamp
		}
		if cwd == "" {
			cwd = rec.CWD
		}
		if firstMessage == "" {
			if text, ok := rec.Message.userText(); ok && IsMeaningfulMessage(text) {
				msgCount++
				firstMessage = truncateRunes(strings.TrimSpace(text), 150, "")
			}
		}
	}

	if msgCount == 0 || firstTS == "" {
		return nil
	}

	return &Metadata{
		CWD:            cwd,
		FirstTimestamp: firstTS,
		LastTimestamp:  lastTS,
		FirstMessage:   firstMessage,
		MessageCount:   msgCount,
	}
}

// ExtractCWD returns the first cwd recorded in a session log. Used by
// project discovery when no sessions index is available.
func ExtractCWD(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		var rec claudeRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.CWD != "" {
			return rec.CWD, true
		}
	}
	return "", false
}
