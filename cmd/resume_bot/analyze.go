package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/growly/resume-bot/internal/analysis"
	"github.com/growly/resume-bot/internal/document"
	"github.com/growly/resume-bot/internal/llm"
	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/pipeline"
	"github.com/growly/resume-bot/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a local resume file without Telegram",
	Long: `Run the analysis pipeline on a local PDF or image and print the result.
Nothing is sent or stored. Use --chunks to print the messages exactly as the bot would send them.`,
	RunE: runAnalyze,
}

var (
	analyzeFile       string
	analyzeMIMEType   string
	analyzeOutFile    string
	analyzeShowChunks bool
	analyzeAPIKey     string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to resume PDF or image")
	analyzeCmd.Flags().StringVar(&analyzeMIMEType, "mime-type", "", "Media type of the file (detected from content if omitted)")
	analyzeCmd.Flags().StringVarP(&analyzeOutFile, "out", "o", "", "Write the analysis result as JSON to this path")
	analyzeCmd.Flags().BoolVar(&analyzeShowChunks, "chunks", false, "Print every message chunk")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")

	_ = analyzeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeAPIKey != "" {
		cfg.GeminiAPIKey = analyzeAPIKey
	}
	if err := cfg.RequireAnalyze(); err != nil {
		return err
	}

	data, err := os.ReadFile(analyzeFile)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	pdf, err := document.Normalize(analyzeMIMEType, data, cfg.MaxDocumentBytes)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	client, err := llm.NewClient(ctx, llmConfig(cfg), cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	stderr := cmd.ErrOrStderr()
	p := pipeline.New(analysis.NewAnalyzer(client, analysis.WithLogger(logger)), pipeline.Options{
		MaxMessageLength: cfg.MaxMessageLength,
		Logger:           logger,
		OnProgress: func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(stderr, "[%s] %s\n", e.State, e.Message)
		},
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.AnalysisTimeout)
	defer cancel()

	out, err := p.Prepare(ctx, &types.AnalysisRequest{Data: pdf, MIMEType: types.MIMETypePDF})
	if err != nil {
		return err
	}

	if pages, err := document.PageCount(pdf); err != nil {
		logger.Warn().Err(err).Msg("could not count pages")
	} else {
		_, _ = fmt.Fprintf(stderr, "Document has %d page(s)\n", pages)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintAnalysis(out.Result)
	if analyzeShowChunks {
		printer.PrintChunks(out.Chunks)
	}

	if analyzeOutFile != "" {
		payload, err := json.MarshalIndent(out.Result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
		if err := os.WriteFile(analyzeOutFile, payload, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, _ = fmt.Fprintf(stderr, "Wrote analysis to %s\n", analyzeOutFile)
	}

	return nil
}
