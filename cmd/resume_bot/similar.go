package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "List stored analyses that suggested a job position",
	RunE:  runSimilar,
}

var (
	similarPosition string
	similarLimit    int
)

func init() {
	similarCmd.Flags().StringVarP(&similarPosition, "position", "p", "", "Job position name, as extracted from analyses")
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 5, "Maximum number of analyses to list")

	_ = similarCmd.MarkFlagRequired("position")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(similarPosition) == "" {
		return fmt.Errorf("--position must not be blank")
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	matches, err := database.FindAnalysesByJobPosition(context.Background(), similarPosition, similarLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		_, _ = fmt.Fprintf(out, "No analyses suggested %q\n", similarPosition)
		return nil
	}
	for _, m := range matches {
		_, _ = fmt.Fprintf(out, "%s  %s  matches=%d\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04"), m.MatchCount)
	}
	return nil
}
