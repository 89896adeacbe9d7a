package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/p988744/recap-sub001/internal/config"
	"github.com/p988744/recap-sub001/internal/gitlab"
	"github.com/p988744/recap-sub001/internal/ledger"
	"github.com/p988744/recap-sub001/internal/sources"
	"github.com/p988744/recap-sub001/internal/storage"
)

var syncDate string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan evidence sources and update the ledger",
	Long: `Scans every enabled evidence source (Claude Code sessions, Gemini
sessions, local git repositories, GitLab) and upserts work items into the
ledger. Re-running a sync is safe: existing items are refreshed, and hours
you have edited by hand are preserved.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncDate, "date", "", "Restrict sync to one date (YYYY-MM-DD, default today)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	date, err := resolveDate(syncDate, cfg)
	if err != nil {
		return err
	}

	store, err := storage.NewWorkItemStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	led := ledger.New(store)
	reg := sources.NewRegistry(store, buildSources(cfg, led, store)...)

	req := sources.Request{UserID: cfg.UserID, Date: date, Loc: cfg.Location()}
	results := reg.SyncAll(cmd.Context(), req)

	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  ✗ %-12s %v\n", res.Source, res.Err)
			continue
		}
		fmt.Printf("  ✓ %-12s %d created, %d updated, %d skipped (%d projects)\n",
			res.Source, res.ItemsCreated, res.ItemsUpdated, res.SessionsSkipped, res.ProjectsScanned)
		if verbose {
			for _, w := range res.Warnings {
				fmt.Printf("    warning: %s\n", w)
			}
		}
	}
	return nil
}

// buildSources assembles the enabled sources from config.
func buildSources(cfg *config.Config, led *ledger.Ledger, store *storage.WorkItemStore) []sources.Source {
	var srcs []sources.Source
	if cfg.Sources.Claude.Enabled {
		srcs = append(srcs, &sources.ClaudeSource{Root: cfg.Sources.Claude.Root, Ledger: led})
	}
	if cfg.Sources.Gemini.Enabled {
		srcs = append(srcs, &sources.GeminiSource{Root: cfg.Sources.Gemini.Root, Ledger: led})
	}
	if cfg.Sources.Git.Enabled && len(cfg.Sources.Git.Repos) > 0 {
		srcs = append(srcs, &sources.GitRepoSource{
			Repos:  cfg.Sources.Git.Repos,
			Author: cfg.Sources.Git.Author,
			Ledger: led,
		})
	}
	if cfg.Sources.GitLab.Enabled {
		srcs = append(srcs, &sources.GitLabSource{
			Client:   gitlab.NewClient(cfg.Sources.GitLab.BaseURL, cfg.Sources.GitLab.Token),
			Projects: cfg.Sources.GitLab.Projects,
			Author:   cfg.Sources.GitLab.Author,
			Ledger:   led,
			Store:    store,
		})
	}
	return srcs
}

// resolveDate validates a date flag, defaulting to today in the
// configured zone.
func resolveDate(flag string, cfg *config.Config) (string, error) {
	if flag == "" {
		return time.Now().In(cfg.Location()).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", flag); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", flag)
	}
	return flag, nil
}
