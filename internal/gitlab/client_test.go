package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakeCommit(i int) Commit {
	return Commit{
		ID:           fmt.Sprintf("%040d", i),
		ShortID:      fmt.Sprintf("%08d", i),
		Title:        fmt.Sprintf("commit %d", i),
		AuthorName:   "dev",
		AuthoredDate: time.Date(2026, 1, 15, 10, 0, i, 0, time.UTC),
		Stats:        Stats{Additions: 10, Deletions: 2, Total: 12},
	}
}

func TestListCommits(t *testing.T) {
	var gotToken, gotStats string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		gotStats = r.URL.Query().Get("with_stats")
		json.NewEncoder(w).Encode([]Commit{fakeCommit(1), fakeCommit(2)})
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	commits, err := c.ListCommits(context.Background(), "42",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("commits = %d", len(commits))
	}
	if gotToken != "secret" {
		t.Errorf("token header = %q", gotToken)
	}
	if gotStats != "true" {
		t.Errorf("with_stats = %q", gotStats)
	}
	if commits[0].Stats.Additions != 10 {
		t.Errorf("stats = %+v", commits[0].Stats)
	}
}

func TestListCommits_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "1" {
			full := make([]Commit, perPage)
			for i := range full {
				full[i] = fakeCommit(i)
			}
			json.NewEncoder(w).Encode(full)
			return
		}
		json.NewEncoder(w).Encode([]Commit{fakeCommit(perPage)})
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	commits, err := c.ListCommits(context.Background(), "42", time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != perPage+1 {
		t.Errorf("commits = %d", len(commits))
	}
}

func TestListCommits_ErrorsNotRetried(t *testing.T) {
	// The client reports failures once; retry cadence belongs to the
	// caller.
	for _, status := range []int{http.StatusUnauthorized, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]string{"message": http.StatusText(status)})
			}))
			defer server.Close()

			c := NewClient(server.URL, "token")
			if _, err := c.ListCommits(context.Background(), "42", time.Time{}, time.Now()); err == nil {
				t.Fatal("expected error")
			}
			if calls != 1 {
				t.Errorf("status %d fetched %d times", status, calls)
			}
		})
	}
}

func TestListCommits_NoToken(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.ListCommits(context.Background(), "42", time.Time{}, time.Now()); err == nil {
		t.Fatal("expected error without token")
	}
}
