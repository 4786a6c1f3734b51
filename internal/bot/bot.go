package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/growly/resume-bot/internal/document"
	"github.com/growly/resume-bot/internal/fetch"
	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/ratelimit"
)

// DefaultWorkers is the number of updates handled concurrently.
const DefaultWorkers = 4

// Downloader fetches the file at url, refusing bodies over maxBytes.
type Downloader func(ctx context.Context, url string, maxBytes int64) ([]byte, error)

// Options configures a Bot.
type Options struct {
	RequiredChannel  string
	MaxDocumentBytes int64
	Workers          int
	Store            Store
	Limiter          *ratelimit.Limiter
	Download         Downloader
	Logger           *log.Logger
	Metrics          *observability.Metrics
}

// Bot handles Telegram updates.
type Bot struct {
	api      API
	pipeline Pipeline
	opts     Options
}

// New creates a Bot. Store and Limiter are optional.
func New(api API, p Pipeline, opts Options) *Bot {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = document.DefaultMaxBytes
	}
	if opts.Download == nil {
		opts.Download = httpDownload
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Bot{api: api, pipeline: p, opts: opts}
}

func httpDownload(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	opts := fetch.DefaultOptions()
	opts.MaxBytes = maxBytes
	result, err := fetch.URL(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// Run handles updates with a fixed pool of workers until updates is closed
// or ctx is done. A slow analysis only occupies its own worker.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	g, gCtx := errgroup.WithContext(ctx)

	for i := 0; i < b.opts.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case update, ok := <-updates:
					if !ok {
						return nil
					}
					b.HandleUpdate(gCtx, update)
				}
			}
		})
	}

	b.opts.Logger.Info().Int("workers", b.opts.Workers).Msg("bot is handling updates")
	return g.Wait()
}

// HandleUpdate dispatches a single update. Handler panics are logged, not
// propagated.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.opts.Logger.Error().
				Int("update_id", update.UpdateID).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("update handler panicked")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg, fileFromDocument(msg.Document))
	case len(msg.Photo) > 0:
		b.handleDocument(ctx, msg, fileFromPhoto(msg.Photo))
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.opts.Logger.Warn().Err(err).Msg("failed to send message")
	}
}
