// Package estimate produces hours estimates for work evidence.
//
// Estimation is a priority chain: an explicit user override always wins,
// then hours derived from a linked assistant session, then the gap to the
// previous commit, and finally a heuristic over diff size. Each tier is a
// pure function so the chain can be tested and reordered in isolation.
package estimate

import (
	"math"
	"time"
)

// Source identifies where an hours value came from.
type Source string

const (
	SourceUserModified   Source = "user_modified"
	SourceSession        Source = "session"
	SourceCommitInterval Source = "commit_interval"
	SourceHeuristic      Source = "heuristic"
	SourceManual         Source = "manual"
)

const (
	// Commit-interval gaps outside (5, 240) minutes are unreliable:
	// shorter gaps are rebase/fixup noise, longer ones mean the developer
	// was doing something else in between.
	minGapMinutes = 5
	maxGapMinutes = 240

	minHours        = 0.25
	maxCommitHours  = 4.0
	maxSessionHours = 8.0

	// Default when session bounds are unparsable.
	fallbackSessionHours = 0.5
)

// Estimate is an hours value tagged with its provenance. It has no
// identity; callers consume it immediately.
type Estimate struct {
	Hours  float64
	Source Source
}

// SessionLink is the minimal view of a linked session the estimator needs.
type SessionLink struct {
	SessionID string
	Hours     float64
}

// Evidence carries everything the estimator may consult for one commit.
// Optional fields are nil when the evidence is absent.
type Evidence struct {
	CommitTime     time.Time
	PrevCommitTime *time.Time
	Session        *SessionLink
	Additions      int
	Deletions      int
	FilesCount     int
	UserOverride   *float64
}

// Strategy inspects evidence and either produces an estimate or passes.
type Strategy func(Evidence) (Estimate, bool)

// Chain returns the estimation strategies in priority order.
func Chain() []Strategy {
	return []Strategy{fromOverride, fromSession, fromInterval, fromDiff}
}

// ForCommit runs the strategy chain; the first strategy that produces a
// value wins. fromDiff always produces a value, so the chain never comes
// up empty.
func ForCommit(ev Evidence) Estimate {
	for _, s := range Chain() {
		if est, ok := s(ev); ok {
			return est
		}
	}
	// Unreachable: fromDiff always matches.
	return Estimate{Hours: minHours, Source: SourceHeuristic}
}

// fromOverride honors a user-supplied value verbatim. Overrides are a
// deliberate escape hatch and are never clamped or rounded.
func fromOverride(ev Evidence) (Estimate, bool) {
	if ev.UserOverride == nil {
		return Estimate{}, false
	}
	return Estimate{Hours: *ev.UserOverride, Source: SourceUserModified}, true
}

func fromSession(ev Evidence) (Estimate, bool) {
	if ev.Session == nil {
		return Estimate{}, false
	}
	return Estimate{Hours: ev.Session.Hours, Source: SourceSession}, true
}

func fromInterval(ev Evidence) (Estimate, bool) {
	if ev.PrevCommitTime == nil {
		return Estimate{}, false
	}
	gap := ev.CommitTime.Sub(*ev.PrevCommitTime)
	gapMinutes := int64(gap.Minutes())
	if gapMinutes <= minGapMinutes || gapMinutes >= maxGapMinutes {
		return Estimate{}, false
	}
	hours := roundQuarter(clamp(float64(gapMinutes)/60.0, minHours, maxCommitHours))
	return Estimate{Hours: hours, Source: SourceCommitInterval}, true
}

func fromDiff(ev Evidence) (Estimate, bool) {
	return Estimate{
		Hours:  FromDiff(ev.Additions, ev.Deletions, ev.FilesCount),
		Source: SourceHeuristic,
	}, true
}

// FromDiff estimates hours from diff statistics. The logarithmic line term
// encodes diminishing marginal time per additional line; the linear
// per-file term encodes fixed context-switch overhead per touched file.
// Output is always in [0.25, 4.0] and a multiple of 0.25.
func FromDiff(additions, deletions, filesCount int) float64 {
	totalLines := float64(additions + deletions)
	if totalLines == 0 {
		return minHours
	}

	lineFactor := math.Log(totalLines+1) * 0.2
	fileFactor := float64(filesCount) * 0.15

	return roundQuarter(clamp(lineFactor+fileFactor, minHours, maxCommitHours))
}

// SessionHours derives hours from RFC 3339 session bounds, clamped to
// [0.25, 8.0] and quarter-rounded for consistency with commit hours.
// Unparsable bounds fall back to 0.5h.
func SessionHours(start, end string) float64 {
	startT, err1 := time.Parse(time.RFC3339, start)
	endT, err2 := time.Parse(time.RFC3339, end)
	if err1 != nil || err2 != nil {
		return fallbackSessionHours
	}
	hours := endT.Sub(startT).Minutes() / 60.0
	return roundQuarter(clamp(hours, minHours, maxSessionHours))
}

// SessionDuration clamps an already-parsed session span to [0.1, 8.0]
// hours without rounding. Session bounds are a direct (if noisy) time
// measurement, not a heuristic guess.
func SessionDuration(start, end time.Time) float64 {
	hours := end.Sub(start).Minutes() / 60.0
	return clamp(hours, 0.1, maxSessionHours)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func roundQuarter(v float64) float64 {
	return math.Round(v*4.0) / 4.0
}
