package checkin

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accordlabs/checkin/config"
)

var cfgFile string
var cfg *config.Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Checkin - event registration desk system",
	Long: `Checkin runs an event registration desk: it loads the official
attendee roster, resolves operator queries with phone, exact, and fuzzy
name matching, records registrations exactly once per person, and prints
badges and certificates.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./checkin.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
