package checkin

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/accordlabs/checkin/api"
)

var (
	serverPort int
	dataDir    string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server backing the registration desk: roster
upload and search, registration, reporting, printing, and settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		// Flags override config
		if serverPort != 0 {
			cfg.ServerPort = serverPort
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		return api.RunServer(cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (overrides config)")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
}
