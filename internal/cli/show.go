package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/p988744/recap-sub001/internal/config"
	"github.com/p988744/recap-sub001/internal/enrich"
	"github.com/p988744/recap-sub001/internal/gitrepo"
	"github.com/p988744/recap-sub001/internal/report"
	"github.com/p988744/recap-sub001/internal/sources"
	"github.com/p988744/recap-sub001/internal/storage"
	"github.com/p988744/recap-sub001/internal/worklog"
)

var (
	showDate   string
	reportDate string
	reportOut  string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the worklog for a date",
	RunE:  runShow,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a date's worklog as markdown",
	RunE:  runReport,
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "Date to show (YYYY-MM-DD, default today)")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Date to export (YYYY-MM-DD, default today)")
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "Write to file instead of stdout")
}

func loadDaily(dateFlag string) (*report.Daily, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	date, err := resolveDate(dateFlag, cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewWorkItemStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	items, err := store.ListByDate(cfg.UserID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	return report.Build(date, cfg.UserID, items, composeWorklogs(cfg, date)), nil
}

// composeWorklogs builds one worklog per configured repository from its
// commit history and the session logs recorded against it. Repositories
// with no evidence for the date are omitted.
func composeWorklogs(cfg *config.Config, date string) []*worklog.Worklog {
	if !cfg.Sources.Git.Enabled {
		return nil
	}

	var summarizer worklog.Summarizer
	if cfg.Enrich.Enabled {
		summarizer = enrich.NewClient(cfg.Enrich.BaseURL, cfg.Enrich.APIKey, cfg.Enrich.Model)
	}
	claude := &sources.ClaudeSource{Root: cfg.Sources.Claude.Root}

	var logs []*worklog.Worklog
	for _, repo := range cfg.Sources.Git.Repos {
		commits := gitrepo.CommitsForDate(repo, date)

		var sessionFiles []worklog.SessionFile
		if cfg.Sources.Claude.Enabled {
			sessionFiles = claude.SessionFiles(date, cfg.Location(), repo)
		}

		w := worklog.Compose(date, filepath.Base(repo), commits, sessionFiles)
		if len(w.Commits) == 0 && len(w.Standalone) == 0 {
			continue
		}
		w.Enrich(context.Background(), summarizer)
		logs = append(logs, w)
	}
	return logs
}

func runShow(cmd *cobra.Command, args []string) error {
	daily, err := loadDaily(showDate)
	if err != nil {
		return err
	}
	fmt.Print(daily.Text())
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	daily, err := loadDaily(reportDate)
	if err != nil {
		return err
	}

	md := daily.Markdown()
	if reportOut == "" {
		fmt.Print(md)
		return nil
	}
	if err := os.WriteFile(reportOut, []byte(md), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Wrote %s\n", reportOut)
	return nil
}
