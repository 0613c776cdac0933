package checkin

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/accordlabs/checkin/internal/report"
	"github.com/accordlabs/checkin/internal/store"
)

var reportOutput string

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the registration log as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.New(cfg.DataDir, nil, cfg.MaxTemplateBytes)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		regs, err := st.Registrations()
		if err != nil {
			return fmt.Errorf("failed to load registrations: %w", err)
		}

		out := os.Stdout
		if reportOutput != "" {
			out, err = os.Create(reportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer out.Close()
		}

		return report.WriteCSV(csv.NewWriter(out), regs)
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registration statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.New(cfg.DataDir, nil, cfg.MaxTemplateBytes)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		regs, err := st.Registrations()
		if err != nil {
			return fmt.Errorf("failed to load registrations: %w", err)
		}

		stats := report.Summarize(regs)
		fmt.Printf("Total registered:    %d\n", stats.Total)
		fmt.Printf("  Official:          %d\n", stats.Official)
		fmt.Printf("  Walk-in:           %d\n", stats.WalkIn)
		fmt.Printf("Badges issued:       %d\n", stats.BadgesIssued)
		fmt.Printf("Certificates issued: %d\n", stats.CertificatesIssued)

		timeline := report.Timeline(regs, time.Local)
		for hour, count := range timeline {
			if count == 0 {
				continue
			}
			fmt.Printf("%02d:00  %d\n", hour, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write CSV to a file instead of stdout")
}
