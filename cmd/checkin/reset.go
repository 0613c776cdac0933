package checkin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accordlabs/checkin/internal/store"
)

var resetConfirmed bool

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all roster, registration, and settings data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return fmt.Errorf("refusing to delete event data without --yes")
		}

		st, err := store.New(cfg.DataDir, nil, cfg.MaxTemplateBytes)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		if err := st.Reset(); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}

		fmt.Println("Event data cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm deletion")
}
