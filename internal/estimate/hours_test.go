package estimate

import (
	"math"
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestForCommit_PriorityOrder(t *testing.T) {
	// All four evidence tiers present at once; removing them one by one
	// must walk the chain in order.
	commitTime := mustParse(t, "2026-01-11T10:30:00+08:00")
	prevTime := mustParse(t, "2026-01-11T09:00:00+08:00")
	override := 99.0

	ev := Evidence{
		CommitTime:     commitTime,
		PrevCommitTime: &prevTime,
		Session:        &SessionLink{SessionID: "s1", Hours: 2.5},
		Additions:      100,
		Deletions:      10,
		FilesCount:     2,
		UserOverride:   &override,
	}

	est := ForCommit(ev)
	if est.Source != SourceUserModified || est.Hours != 99.0 {
		t.Fatalf("expected user override to win, got %+v", est)
	}

	ev.UserOverride = nil
	est = ForCommit(ev)
	if est.Source != SourceSession || est.Hours != 2.5 {
		t.Fatalf("expected session to win, got %+v", est)
	}

	ev.Session = nil
	est = ForCommit(ev)
	if est.Source != SourceCommitInterval {
		t.Fatalf("expected commit interval, got %+v", est)
	}

	ev.PrevCommitTime = nil
	est = ForCommit(ev)
	if est.Source != SourceHeuristic {
		t.Fatalf("expected heuristic fallback, got %+v", est)
	}
}

func TestForCommit_IntervalEstimate(t *testing.T) {
	// Commit at 10:30, previous at 09:00: 90 minute gap -> 1.5h.
	commitTime := mustParse(t, "2026-01-11T10:30:00+08:00")
	prevTime := mustParse(t, "2026-01-11T09:00:00+08:00")

	est := ForCommit(Evidence{
		CommitTime:     commitTime,
		PrevCommitTime: &prevTime,
		Additions:      100,
		Deletions:      10,
		FilesCount:     2,
	})

	if est.Hours != 1.5 {
		t.Errorf("expected 1.5h, got %v", est.Hours)
	}
	if est.Source != SourceCommitInterval {
		t.Errorf("expected commit_interval source, got %s", est.Source)
	}
}

func TestForCommit_IntervalGapBounds(t *testing.T) {
	commitTime := mustParse(t, "2026-01-11T10:00:00+08:00")

	t.Run("gap too short", func(t *testing.T) {
		prev := commitTime.Add(-3 * time.Minute)
		est := ForCommit(Evidence{CommitTime: commitTime, PrevCommitTime: &prev, Additions: 10, FilesCount: 1})
		if est.Source != SourceHeuristic {
			t.Errorf("3 minute gap should fall through to heuristic, got %s", est.Source)
		}
	})

	t.Run("gap too long", func(t *testing.T) {
		prev := commitTime.Add(-5 * time.Hour)
		est := ForCommit(Evidence{CommitTime: commitTime, PrevCommitTime: &prev, Additions: 10, FilesCount: 1})
		if est.Source != SourceHeuristic {
			t.Errorf("5 hour gap should fall through to heuristic, got %s", est.Source)
		}
	})

	t.Run("gap capped at four hours", func(t *testing.T) {
		prev := commitTime.Add(-239 * time.Minute)
		est := ForCommit(Evidence{CommitTime: commitTime, PrevCommitTime: &prev})
		if est.Source != SourceCommitInterval {
			t.Fatalf("239 minute gap should use interval, got %s", est.Source)
		}
		if est.Hours != 4.0 {
			t.Errorf("expected 4.0h cap, got %v", est.Hours)
		}
	})
}

func TestForCommit_OverrideNeverSecondGuessed(t *testing.T) {
	// Absurd override values pass through untouched.
	for _, v := range []float64{0.0, 0.01, 100.0} {
		override := v
		est := ForCommit(Evidence{
			CommitTime:   mustParse(t, "2026-01-11T10:00:00+08:00"),
			UserOverride: &override,
		})
		if est.Hours != v {
			t.Errorf("override %v was altered to %v", v, est.Hours)
		}
	}
}

func TestFromDiff_Bounds(t *testing.T) {
	cases := []struct {
		additions, deletions, files int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{8, 2, 1},
		{80, 20, 3},
		{800, 200, 5},
		{100000, 100000, 500},
	}
	for _, c := range cases {
		hours := FromDiff(c.additions, c.deletions, c.files)
		if hours < 0.25 || hours > 4.0 {
			t.Errorf("FromDiff(%d,%d,%d) = %v out of [0.25, 4.0]", c.additions, c.deletions, c.files, hours)
		}
		if rem := math.Mod(hours*4.0, 1.0); rem != 0 {
			t.Errorf("FromDiff(%d,%d,%d) = %v not a quarter multiple", c.additions, c.deletions, c.files, hours)
		}
	}
}

func TestFromDiff_EmptyCommit(t *testing.T) {
	if hours := FromDiff(0, 0, 0); hours != 0.25 {
		t.Errorf("empty commit should be 0.25h, got %v", hours)
	}
}

func TestFromDiff_Scaling(t *testing.T) {
	small := FromDiff(8, 2, 1)
	medium := FromDiff(80, 20, 3)
	large := FromDiff(800, 200, 5)

	if small < 0.25 || small > 1.0 {
		t.Errorf("small change should be 0.25-1h, got %v", small)
	}
	if medium < 1.0 || medium > 2.0 {
		t.Errorf("medium change should be 1-2h, got %v", medium)
	}
	if large < 2.0 || large > 4.0 {
		t.Errorf("large change should be 2-4h, got %v", large)
	}
}

func TestSessionHours(t *testing.T) {
	t.Run("valid span", func(t *testing.T) {
		hours := SessionHours("2026-01-11T09:00:00+08:00", "2026-01-11T11:30:00+08:00")
		if hours != 2.5 {
			t.Errorf("expected 2.5h, got %v", hours)
		}
	})

	t.Run("capped at eight hours", func(t *testing.T) {
		hours := SessionHours("2026-01-11T00:00:00+08:00", "2026-01-11T12:00:00+08:00")
		if hours != 8.0 {
			t.Errorf("expected 8.0h cap, got %v", hours)
		}
	})

	t.Run("minimum quarter hour", func(t *testing.T) {
		hours := SessionHours("2026-01-11T09:00:00+08:00", "2026-01-11T09:03:00+08:00")
		if hours != 0.25 {
			t.Errorf("expected 0.25h floor, got %v", hours)
		}
	})

	t.Run("invalid timestamps", func(t *testing.T) {
		hours := SessionHours("invalid", "also-invalid")
		if hours != 0.5 {
			t.Errorf("expected 0.5h default, got %v", hours)
		}
	})
}

func TestSessionDuration(t *testing.T) {
	start := mustParse(t, "2026-01-11T09:00:00+08:00")

	if d := SessionDuration(start, start.Add(90*time.Minute)); d != 1.5 {
		t.Errorf("expected 1.5h, got %v", d)
	}
	if d := SessionDuration(start, start.Add(time.Minute)); d != 0.1 {
		t.Errorf("expected 0.1h floor, got %v", d)
	}
	if d := SessionDuration(start, start.Add(20*time.Hour)); d != 8.0 {
		t.Errorf("expected 8.0h cap, got %v", d)
	}
}
