package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/p988744/recap-sub001/internal/config"
	"github.com/p988744/recap-sub001/internal/storage"
)

var hoursCmd = &cobra.Command{
	Use:   "hours <item-id> <hours>",
	Short: "Pin an item's hours to a value you choose",
	Long: `Overrides the estimated hours on a work item. Pinned hours survive
re-syncs: the estimate keeps updating in the background, but your value
stays on the item.`,
	Args: cobra.ExactArgs(2),
	RunE: runHours,
}

func runHours(cmd *cobra.Command, args []string) error {
	hours, err := strconv.ParseFloat(args[1], 64)
	if err != nil || hours < 0 {
		return fmt.Errorf("invalid hours %q", args[1])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.NewWorkItemStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	if err := store.SetUserHours(args[0], hours); err != nil {
		return err
	}
	fmt.Printf("Set %s to %.2g hours\n", args[0], hours)
	return nil
}
