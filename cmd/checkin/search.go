package checkin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accordlabs/checkin/internal/match"
	"github.com/accordlabs/checkin/internal/store"
	"github.com/accordlabs/checkin/internal/variants"
)

var (
	searchLimit     int
	searchThreshold float64
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the roster for an attendee",
	Long: `Search the stored roster the way the registration desk does:
by phone number, by exact name fragment, or by fuzzy name similarity
including known spelling variants.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.New(cfg.DataDir, nil, cfg.MaxTemplateBytes)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		entries, err := st.Roster()
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("roster is empty, run 'checkin ingest' first")
		}

		table := variants.Default()
		if cfg.SynonymsFile != "" {
			table, err = variants.LoadFile(cfg.SynonymsFile)
			if err != nil {
				return fmt.Errorf("failed to load synonyms file: %w", err)
			}
		}

		opts := match.Options{
			Limit:            cfg.MaxCandidates,
			Threshold:        cfg.SimilarityThreshold,
			MinQueryLen:      cfg.MinQueryLength,
			MinPhoneQueryLen: cfg.MinPhoneQueryLength,
		}
		if searchLimit > 0 {
			opts.Limit = searchLimit
		}
		if searchThreshold > 0 {
			opts.Threshold = searchThreshold
		}
		candidates := match.NewMatcher(table, opts).Match(args[0], entries)

		if len(candidates) == 0 {
			fmt.Println("No matches")
			return nil
		}
		for _, c := range candidates {
			fmt.Printf("%-6s %.2f  %s (%s)\n", c.Type, c.Score, c.Entry.Name, c.Entry.Phone)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum number of results (overrides config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Fuzzy similarity threshold (overrides config)")
}
