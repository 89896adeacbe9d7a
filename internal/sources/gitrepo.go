package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/p988744/recap-sub001/internal/estimate"
	"github.com/p988744/recap-sub001/internal/gitrepo"
	"github.com/p988744/recap-sub001/internal/ledger"
)

// GitRepoSource ingests commits from configured local repositories.
type GitRepoSource struct {
	Repos  []string
	Author string // optional filter on the commit author name
	Ledger *ledger.Ledger
}

func (s *GitRepoSource) Name() string { return ledger.SourceCommit }

// Sync records one work item per commit on the requested date. An empty
// request date means today.
func (s *GitRepoSource) Sync(ctx context.Context, req Request) *Result {
	res := &Result{Source: s.Name(), SourcePath: strings.Join(s.Repos, ",")}

	date := req.Date
	if date == "" {
		date = time.Now().In(req.Location()).Format("2006-01-02")
	}

	for _, repo := range s.Repos {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		res.ProjectsScanned++

		commits := gitrepo.CommitsForDate(repo, date)
		if len(commits) == 0 {
			continue
		}
		project := projectName(repo)

		// Oldest first so each commit sees its predecessor's timestamp.
		for i := len(commits) - 1; i >= 0; i-- {
			commit := commits[i]
			if s.Author != "" && commit.Author != s.Author {
				res.SessionsSkipped++
				continue
			}

			ev := estimate.Evidence{
				CommitTime: commit.Timestamp,
				Additions:  commit.Additions,
				Deletions:  commit.Deletions,
				FilesCount: commit.FilesCount(),
			}
			if i < len(commits)-1 {
				prev := commits[i+1].Timestamp
				ev.PrevCommitTime = &prev
			}
			est := estimate.ForCommit(ev)

			item := commitWorkItem(req, project, commit, est)
			outcome, err := s.Ledger.Upsert(item)
			if err != nil {
				res.warnf("upsert commit %s: %v", commit.ShortHash, err)
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

func commitWorkItem(req Request, project string, commit gitrepo.Commit, est estimate.Estimate) *ledger.WorkItem {
	return &ledger.WorkItem{
		UserID:      req.UserID,
		Title:       fmt.Sprintf("[%s] %s", project, commit.Subject),
		Description: fmt.Sprintf("+%d -%d across %d files", commit.Additions, commit.Deletions, commit.FilesCount()),
		Date:        commit.Timestamp.In(req.Location()).Format("2006-01-02"),
		Hours:       est.Hours,
		HoursSource: string(est.Source),
		Source:      ledger.SourceCommit,
		SourceID:    commit.Hash,
		CommitHash:  commit.ShortHash,
		Project:     project,
		Metadata: map[string]any{
			"additions":   commit.Additions,
			"deletions":   commit.Deletions,
			"files_count": commit.FilesCount(),
			"author":      commit.Author,
		},
	}
}

func projectName(repoPath string) string {
	if root, ok := gitrepo.ResolveGitRoot(repoPath); ok {
		repoPath = root
	}
	repoPath = strings.TrimRight(repoPath, "/")
	if i := strings.LastIndex(repoPath, "/"); i >= 0 {
		return repoPath[i+1:]
	}
	return repoPath
}
