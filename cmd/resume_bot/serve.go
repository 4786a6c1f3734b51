package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/growly/resume-bot/internal/analysis"
	"github.com/growly/resume-bot/internal/bot"
	"github.com/growly/resume-bot/internal/config"
	"github.com/growly/resume-bot/internal/db"
	"github.com/growly/resume-bot/internal/llm"
	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/pipeline"
	"github.com/growly/resume-bot/internal/ratelimit"
	"github.com/growly/resume-bot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long: `Run the bot. Updates are received by long polling unless a webhook URL is configured,
in which case an HTTP server receives them and also serves /health and /stats.`,
	RunE: runServe,
}

var (
	servePort       int
	serveWebhookURL string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port for the webhook server (overrides PORT)")
	serveCmd.Flags().StringVar(&serveWebhookURL, "webhook-url", "", "Public HTTPS webhook URL (overrides WEBHOOK_URL)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveWebhookURL != "" {
		cfg.WebhookURL = serveWebhookURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireServe(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
	} else {
		logger.Warn().Msg("DATABASE_URL is not set; analyses and ratings will not be stored")
	}

	client, err := llm.NewClient(ctx, llmConfig(cfg), cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	p := newPipeline(cfg, client, database, logger)
	metrics := observability.NewMetrics()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info().Str("bot", api.Self.UserName).Msg("authorized")

	limiter := ratelimit.NewLimiter(rateLimitConfig(cfg))
	defer limiter.Stop()

	opts := bot.Options{
		RequiredChannel:  cfg.RequiredChannel,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
		Workers:          cfg.Workers,
		Limiter:          limiter,
		Logger:           logger,
		Metrics:          metrics,
	}
	if database != nil {
		opts.Store = database
	}
	b := bot.New(api, p, opts)

	if database != nil && cfg.StatsReportEnabled() {
		reporter, err := observability.NewQualityReporter(cfg.StatsSchedule, database, logger)
		if err != nil {
			return err
		}
		reporter.Start()
		defer reporter.Stop()
	}

	srvCfg := server.Config{Port: cfg.Port, Logger: logger, Metrics: metrics}
	if database != nil {
		srvCfg.Store = database
	}

	if cfg.WebhookMode() {
		return serveWebhook(ctx, cfg, api, b, srvCfg, logger)
	}
	return servePolling(ctx, api, b, server.New(srvCfg), logger)
}

func newPipeline(cfg *config.Config, client llm.Client, database *db.DB, logger *log.Logger) *pipeline.Pipeline {
	opts := pipeline.Options{
		MaxMessageLength: cfg.MaxMessageLength,
		Timeout:          cfg.AnalysisTimeout,
		Logger:           logger,
	}
	if database != nil {
		opts.Recorder = database
	}
	return pipeline.New(analysis.NewAnalyzer(client, analysis.WithLogger(logger)), opts)
}

func rateLimitConfig(cfg *config.Config) *ratelimit.Config {
	exempt := make(map[int64]bool, len(cfg.RateLimitExemptUsers))
	for _, id := range cfg.RateLimitExemptUsers {
		exempt[id] = true
	}
	return &ratelimit.Config{
		Enabled:         cfg.RateLimitDocuments > 0,
		Limit:           cfg.RateLimitDocuments,
		Window:          cfg.RateLimitWindow,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       exempt,
	}
}

// llmConfig sizes each upstream attempt so that every retry fits in the
// analysis timeout.
func llmConfig(cfg *config.Config) *llm.Config {
	return llm.DefaultConfig().
		WithModel(cfg.GeminiModel).
		WithBudget(cfg.AnalysisTimeout, llm.DefaultRetryPolicy())
}

// webhookSecret returns the configured secret token, or a random one for
// this process.
func webhookSecret(cfg *config.Config) string {
	if cfg.WebhookSecret != "" {
		return cfg.WebhookSecret
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// webhookParams builds a setWebhook call. The secret_token field is newer than
// the client's WebhookConfig, so the request is assembled by hand.
func webhookParams(hookURL, secret string) tgbotapi.Params {
	params := tgbotapi.Params{"url": hookURL}
	params.AddNonEmpty("secret_token", secret)
	return params
}

func servePolling(ctx context.Context, api *tgbotapi.BotAPI, b *bot.Bot, srv *server.Server, logger *log.Logger) error {
	// A registered webhook makes getUpdates fail.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to remove webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gCtx.Done()
		api.StopReceivingUpdates()
		return nil
	})
	g.Go(func() error { return srv.Start(gCtx) })
	g.Go(func() error { return b.Run(gCtx, updates) })

	logger.Info().Msg("polling for updates")
	return g.Wait()
}

func serveWebhook(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI, b *bot.Bot, srvCfg server.Config, logger *log.Logger) error {
	hookURL, err := url.Parse(cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	secret := webhookSecret(cfg)
	if _, err := api.MakeRequest("setWebhook", webhookParams(cfg.WebhookURL, secret)); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	srvCfg.WebhookSecret = secret
	srvCfg.WebhookPath = hookURL.Path
	if srvCfg.WebhookPath == "" || srvCfg.WebhookPath == "/" {
		srvCfg.WebhookPath = server.DefaultWebhookPath
	}
	srv := server.New(srvCfg)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gCtx) })
	g.Go(func() error { return b.Run(gCtx, srv.Updates()) })

	logger.Info().Str("host", hookURL.Host).Str("path", srvCfg.WebhookPath).Int("port", cfg.Port).Msg("receiving updates by webhook")
	return g.Wait()
}
