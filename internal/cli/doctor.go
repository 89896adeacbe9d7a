package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p988744/recap-sub001/internal/config"
	"github.com/p988744/recap-sub001/internal/gitrepo"
	"github.com/p988744/recap-sub001/internal/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check worklog setup health",
	Long:  `Runs diagnostic checks on the worklog setup and reports pass/fail for each component.`,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	failed := 0

	check := func(name string, ok bool, detail string) {
		if ok {
			fmt.Printf("  ✓ %s\n", name)
		} else {
			fmt.Printf("  ✗ %s — %s\n", name, detail)
			failed++
		}
	}

	fmt.Println("Toolchain:")
	_, gitErr := exec.LookPath("git")
	check("git binary", gitErr == nil, "install git to ingest local commits")

	cfg, cfgErr := config.Load()
	fmt.Println()
	fmt.Println("Configuration:")
	check("config readable", cfgErr == nil, fmt.Sprint(cfgErr))
	if cfgErr != nil {
		return fmt.Errorf("%d checks failed", failed)
	}
	check("user id set", cfg.UserID != "", "set user_id in config")

	fmt.Println()
	fmt.Println("Ledger:")
	store, err := storage.NewWorkItemStore(cfg.DBPath)
	check("database writable", err == nil, fmt.Sprint(err))
	if err == nil {
		store.Close()
	}

	fmt.Println()
	fmt.Println("Sources:")
	home, _ := os.UserHomeDir()
	if cfg.Sources.Claude.Enabled {
		root := cfg.Sources.Claude.Root
		if root == "" {
			root = filepath.Join(home, ".claude", "projects")
		}
		check("claude sessions dir", exists(root), root+" not found")
	}
	if cfg.Sources.Gemini.Enabled {
		root := cfg.Sources.Gemini.Root
		if root == "" {
			root = filepath.Join(home, ".gemini", "tmp")
		}
		check("gemini sessions dir", exists(root), root+" not found")
	}
	for _, repo := range cfg.Sources.Git.Repos {
		_, ok := gitrepo.ResolveGitRoot(repo)
		check("repo "+repo, ok, "not a git repository")
	}
	if cfg.Sources.GitLab.Enabled {
		check("gitlab token", strings.TrimSpace(cfg.Sources.GitLab.Token) != "", "set sources.gitlab.token")
		check("gitlab projects", len(cfg.Sources.GitLab.Projects) > 0, "set sources.gitlab.projects")
	}

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
