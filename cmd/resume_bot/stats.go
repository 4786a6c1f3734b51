package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/growly/resume-bot/internal/db"
	"github.com/growly/resume-bot/internal/observability"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the rating summary for stored analyses",
	RunE:  runStats,
}

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print metrics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	metrics, err := database.GetQualityMetrics(context.Background())
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(metrics)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintQualityMetrics(metrics)
	return nil
}

// openDatabase connects using the configured DATABASE_URL.
func openDatabase() (*db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}
