package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Server configuration
	ServerHost       string `mapstructure:"SERVER_HOST"`
	ServerPort       int    `mapstructure:"SERVER_PORT"`
	ReadTimeoutSecs  int    `mapstructure:"READ_TIMEOUT_SECS"`
	WriteTimeoutSecs int    `mapstructure:"WRITE_TIMEOUT_SECS"`
	IdleTimeoutSecs  int    `mapstructure:"IDLE_TIMEOUT_SECS"`

	// Storage configuration
	DataDir          string `mapstructure:"DATA_DIR"`
	MaxTemplateBytes int    `mapstructure:"MAX_TEMPLATE_BYTES"`

	// Matching configuration
	SimilarityThreshold float64 `mapstructure:"SIMILARITY_THRESHOLD"`
	MaxCandidates       int     `mapstructure:"MAX_CANDIDATES"`
	MinQueryLength      int     `mapstructure:"MIN_QUERY_LENGTH"`
	MinPhoneQueryLength int     `mapstructure:"MIN_PHONE_QUERY_LENGTH"`
	SynonymsFile        string  `mapstructure:"SYNONYMS_FILE"`
}

// LoadConfig loads application configuration from environment variables or config file
func LoadConfig() (*Config, error) {
	// Try to load .env file if it exists
	_, err := os.Stat(".env")
	if err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Printf("Error loading .env file: %v", err)
		}
	}

	// Look for config file
	viper.SetConfigName("checkin")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.checkin")
	viper.AddConfigPath("/etc/checkin")

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Set defaults
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("READ_TIMEOUT_SECS", 30)
	viper.SetDefault("WRITE_TIMEOUT_SECS", 30)
	viper.SetDefault("IDLE_TIMEOUT_SECS", 60)
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("MAX_TEMPLATE_BYTES", 8<<20) // data-URL templates
	viper.SetDefault("SIMILARITY_THRESHOLD", 0.7)
	viper.SetDefault("MAX_CANDIDATES", 10)
	viper.SetDefault("MIN_QUERY_LENGTH", 3)
	viper.SetDefault("MIN_PHONE_QUERY_LENGTH", 2)
	viper.SetDefault("SYNONYMS_FILE", "")

	// Bind environment variables
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// CreateDefaultConfigFile creates a default configuration file
func CreateDefaultConfigFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	content := `# Server Configuration
SERVER_HOST: 0.0.0.0
SERVER_PORT: 8080
READ_TIMEOUT_SECS: 30
WRITE_TIMEOUT_SECS: 30
IDLE_TIMEOUT_SECS: 60

# Storage Configuration
DATA_DIR: data
MAX_TEMPLATE_BYTES: 8388608

# Matching Configuration
SIMILARITY_THRESHOLD: 0.7
MAX_CANDIDATES: 10
MIN_QUERY_LENGTH: 3
MIN_PHONE_QUERY_LENGTH: 2
SYNONYMS_FILE: ""
`

	return os.WriteFile(path, []byte(content), 0644)
}
