// Package main provides the entry point for the resume analysis bot.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/growly/resume-bot/internal/config"
	"github.com/growly/resume-bot/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "resume_bot",
	Short: "Telegram resume analysis bot",
	Long: `Resume Bot accepts resumes as PDF or image uploads in Telegram, analyzes them with Gemini
and replies with a formatted review and suggested job positions.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (environment variables override file values)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
}
