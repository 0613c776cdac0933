package checkin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/accordlabs/checkin/internal/roster"
	"github.com/accordlabs/checkin/internal/store"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Load an attendee roster from a file",
	Long: `Load the official attendee roster from a CSV or Excel file. The
first row is treated as a header; each following row needs a name and a
phone number. The stored roster is replaced wholesale.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		entries, err := roster.Load(file, filepath.Base(args[0]))
		if err != nil {
			return fmt.Errorf("failed to parse roster: %w", err)
		}

		st, err := store.New(cfg.DataDir, nil, cfg.MaxTemplateBytes)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		if err := st.ReplaceRoster(entries); err != nil {
			return fmt.Errorf("failed to store roster: %w", err)
		}

		fmt.Printf("Loaded %d attendees\n", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
