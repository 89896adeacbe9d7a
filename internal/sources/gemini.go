package sources

import (
	"context"
	"os"
	"path/filepath"

	"github.com/p988744/recap-sub001/internal/ledger"
	"github.com/p988744/recap-sub001/internal/session"
	"github.com/p988744/recap-sub001/internal/worklog"
)

// GeminiSource ingests Gemini CLI session documents from the per-project
// temp directories under ~/.gemini/tmp.
type GeminiSource struct {
	// Root overrides the default tmp directory (for testing).
	Root   string
	Ledger *ledger.Ledger
}

func (s *GeminiSource) Name() string { return ledger.SourceAntigravity }

func (s *GeminiSource) root() (string, error) {
	if s.Root != "" {
		return s.Root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gemini", "tmp"), nil
}

// Sync scans every project hash directory and upserts one work item per
// meaningful session document.
func (s *GeminiSource) Sync(ctx context.Context, req Request) *Result {
	res := &Result{Source: s.Name()}

	root, err := s.root()
	if err != nil {
		res.Err = err
		return res
	}
	res.SourcePath = root

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return res
		}
		res.Err = err
		return res
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		if !entry.IsDir() {
			continue
		}
		res.ProjectsScanned++

		files, err := filepath.Glob(filepath.Join(root, entry.Name(), "chats", "session-*.json"))
		if err != nil {
			res.warnf("scan %s: %v", entry.Name(), err)
			continue
		}

		for _, path := range files {
			info, err := os.Stat(path)
			if err != nil {
				res.warnf("stat %s: %v", path, err)
				continue
			}
			if req.Date != "" && !worklog.MatchesDate(info.ModTime(), req.Date, req.Location()) {
				res.SessionsSkipped++
				continue
			}

			summary := session.ParseGemini(path)
			if summary == nil || summary.SessionID == "" {
				res.SessionsSkipped++
				continue
			}

			item := sessionWorkItem(req, s.Name(), entry.Name(), summary.SessionID, summary)
			outcome, err := s.Ledger.Upsert(item)
			if err != nil {
				res.warnf("upsert session %s: %v", summary.SessionID, err)
				continue
			}
			res.SessionsProcessed++
			switch outcome {
			case ledger.Created:
				res.ItemsCreated++
			case ledger.Updated:
				res.ItemsUpdated++
			}
		}
	}
	return res
}
