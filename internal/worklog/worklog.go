// Package worklog composes daily worklogs from commit and session
// evidence. Commits anchor the log; sessions that did not produce a
// commit are listed standalone so their time is not lost.
package worklog

import (
	"sort"
	"time"

	"github.com/p988744/recap-sub001/internal/estimate"
	"github.com/p988744/recap-sub001/internal/gitrepo"
	"github.com/p988744/recap-sub001/internal/session"
)

// CommitEntry is one commit with its estimated hours.
type CommitEntry struct {
	Commit      gitrepo.Commit
	Hours       float64
	HoursSource estimate.Source
}

// SessionEntry is one standalone session: work evidenced only by an
// assistant session log, with no commit to anchor it.
type SessionEntry struct {
	Path    string
	Summary *session.Summary
	Hours   float64
	Outcome string
}

// Worklog is one day of evidenced work for one project.
type Worklog struct {
	Date       string
	Project    string
	Commits    []CommitEntry
	Standalone []SessionEntry
	TotalHours float64
}

// SessionFile pairs a parsed session with the path it came from.
type SessionFile struct {
	Path    string
	Summary *session.Summary
}

// Compose builds the worklog for one project and date. Commits are listed
// newest first; their hours come from the estimation chain, with the gap
// to the previous (older) commit as interval evidence. Sessions that ran
// a git commit are folded into their commits and not listed standalone.
func Compose(date, project string, commits []gitrepo.Commit, sessions []SessionFile) *Worklog {
	w := &Worklog{Date: date, Project: project}

	// Oldest first so each commit sees its predecessor's timestamp.
	ordered := make([]gitrepo.Commit, len(commits))
	copy(ordered, commits)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	entries := make([]CommitEntry, 0, len(ordered))
	for i, commit := range ordered {
		ev := estimate.Evidence{
			CommitTime: commit.Timestamp,
			Additions:  commit.Additions,
			Deletions:  commit.Deletions,
			FilesCount: commit.FilesCount(),
		}
		if i > 0 {
			prev := ordered[i-1].Timestamp
			ev.PrevCommitTime = &prev
		}
		if link := coveringSession(commit.Timestamp, sessions); link != nil {
			ev.Session = link
		}

		est := estimate.ForCommit(ev)
		entries = append(entries, CommitEntry{
			Commit:      commit,
			Hours:       est.Hours,
			HoursSource: est.Source,
		})
	}

	// Present newest first.
	for i := len(entries) - 1; i >= 0; i-- {
		w.Commits = append(w.Commits, entries[i])
		w.TotalHours += entries[i].Hours
	}

	for _, sf := range sessions {
		if sf.Summary == nil || sf.Summary.CommittedWork {
			continue
		}
		first, err := time.Parse(time.RFC3339, sf.Summary.FirstTimestamp)
		if err != nil {
			continue
		}
		last, err := time.Parse(time.RFC3339, sf.Summary.LastTimestamp)
		if err != nil {
			continue
		}
		// Session bounds are a direct time measurement: clamp, don't round.
		hours := estimate.SessionDuration(first, last)
		w.Standalone = append(w.Standalone, SessionEntry{
			Path:    sf.Path,
			Summary: sf.Summary,
			Hours:   hours,
			Outcome: RuleBasedOutcome(sf.Summary),
		})
		w.TotalHours += hours
	}

	return w
}

// coveringSession finds a session whose time range contains the commit.
func coveringSession(commitTime time.Time, sessions []SessionFile) *estimate.SessionLink {
	for _, sf := range sessions {
		s := sf.Summary
		if s == nil || !s.CommittedWork {
			continue
		}
		first, err := time.Parse(time.RFC3339, s.FirstTimestamp)
		if err != nil {
			continue
		}
		last, err := time.Parse(time.RFC3339, s.LastTimestamp)
		if err != nil {
			continue
		}
		if commitTime.Before(first) || commitTime.After(last) {
			continue
		}
		return &estimate.SessionLink{
			SessionID: sf.Path,
			Hours:     estimate.SessionDuration(first, last),
		}
	}
	return nil
}

// MatchesDate reports whether a session file's modification time falls on
// the target date in the given location.
func MatchesDate(modTime time.Time, date string, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return modTime.In(loc).Format("2006-01-02") == date
}

// MatchesProject reports whether a session's working directory belongs to
// the project rooted at projectPath.
func MatchesProject(cwd, projectPath string) bool {
	if cwd == "" || projectPath == "" {
		return false
	}
	return cwd == projectPath || len(cwd) > len(projectPath) &&
		cwd[:len(projectPath)] == projectPath && cwd[len(projectPath)] == '/'
}
