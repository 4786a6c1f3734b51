package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/growly/resume-bot/internal/document"
	"github.com/growly/resume-bot/internal/pipeline"
	"github.com/growly/resume-bot/internal/prompts"
	"github.com/growly/resume-bot/internal/types"
)

// incomingFile is an uploaded document or the largest size of a photo.
type incomingFile struct {
	FileID   string
	MIMEType string
	Size     int64
}

func fileFromDocument(d *tgbotapi.Document) incomingFile {
	return incomingFile{FileID: d.FileID, MIMEType: d.MimeType, Size: int64(d.FileSize)}
}

// fileFromPhoto picks the largest rendition; Telegram re-encodes photos as JPEG.
func fileFromPhoto(sizes []tgbotapi.PhotoSize) incomingFile {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return incomingFile{FileID: best.FileID, MIMEType: "image/jpeg", Size: int64(best.FileSize)}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	default:
		b.reply(msg.Chat.ID, prompts.Message(prompts.MsgHelp, nil))
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	firstName := ""
	if msg.From != nil {
		firstName = msg.From.FirstName
		if firstName == "" {
			firstName = msg.From.UserName
		}
		if b.opts.Store != nil {
			if err := b.opts.Store.UpsertUser(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName); err != nil {
				b.opts.Logger.Error().Int64("user_id", msg.From.ID).Err(err).Msg("failed to save user")
			}
		}
	}

	b.reply(msg.Chat.ID, prompts.Message(prompts.MsgWelcome, map[string]string{"FirstName": firstName}))
}

func (b *Bot) handleText(_ context.Context, msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, prompts.Message(prompts.MsgSendPDF, nil))
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message, file incomingFile) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	logger := b.opts.Logger
	entry := func(e *log.Entry) *log.Entry {
		return e.Int64("user_id", msg.From.ID).Int64("chat_id", chatID).Str("file_id", file.FileID)
	}

	if !b.isChannelMember(ctx, msg.From.ID) {
		b.opts.Metrics.DocumentRejected("not_member")
		b.send(b.joinChannelMessage(chatID))
		return
	}

	if b.opts.Limiter != nil {
		if allowed, info := b.opts.Limiter.Allow(msg.From.ID); !allowed {
			b.opts.Metrics.DocumentRejected("rate_limited")
			seconds := int(math.Ceil(info.RetryAfter.Truncate(time.Millisecond).Seconds()))
			b.reply(chatID, prompts.Message(prompts.MsgRateLimited, map[string]string{"Seconds": fmt.Sprint(seconds)}))
			return
		}
	}

	if file.Size > b.opts.MaxDocumentBytes {
		b.opts.Metrics.DocumentRejected("too_large")
		b.reply(chatID, prompts.Message(prompts.MsgTooLarge, nil))
		return
	}
	if file.MIMEType != "" && !document.IsSupported(document.DetectMIMEType(file.MIMEType, nil)) {
		b.opts.Metrics.DocumentRejected("unsupported_type")
		b.reply(chatID, prompts.Message(prompts.MsgUnsupportedType, nil))
		return
	}

	b.reply(chatID, prompts.Message(prompts.MsgProcessing, nil))

	data, err := b.downloadFile(ctx, file.FileID)
	if err != nil {
		entry(logger.Error()).Err(err).Msg("failed to download document")
		b.opts.Metrics.DocumentRejected("download_failed")
		b.reply(chatID, prompts.Message(prompts.MsgAnalysisError, nil))
		return
	}

	pdf, err := document.Normalize(file.MIMEType, data, b.opts.MaxDocumentBytes)
	if err != nil {
		entry(logger.Warn()).Err(err).Msg("rejected document")
		b.opts.Metrics.DocumentRejected("invalid_document")
		b.reply(chatID, normalizeErrorMessage(err))
		return
	}

	req := &types.AnalysisRequest{
		Data:     pdf,
		MIMEType: types.MIMETypePDF,
		FileID:   file.FileID,
		UserID:   msg.From.ID,
		Username: msg.From.UserName,
		ChatID:   chatID,
	}

	start := time.Now()
	outcome, err := b.pipeline.Run(ctx, req, &chatSender{api: b.api, chatID: chatID})
	if err != nil {
		b.opts.Metrics.AnalysisFinished(failureLabel(err), outcome != nil && outcome.FellBack, time.Since(start))
		b.reply(chatID, failureMessage(err))
		return
	}
	b.opts.Metrics.AnalysisFinished(string(pipeline.StateDelivered), outcome.FellBack, time.Since(start))

	entry(logger.Info()).
		Str("request_id", outcome.RequestID.String()).
		Int("chunks", len(outcome.Chunks)).
		Bool("fell_back", outcome.FellBack).
		Msg("analysis delivered")

	if outcome.AnalysisID != uuid.Nil {
		rate := tgbotapi.NewMessage(chatID, prompts.Message(prompts.MsgRateRequest, nil))
		rate.ReplyMarkup = ratingKeyboard(outcome.AnalysisID)
		b.send(rate)
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}
	return b.opts.Download(ctx, url, b.opts.MaxDocumentBytes)
}

// normalizeErrorMessage maps upload validation failures to user messages.
func normalizeErrorMessage(err error) string {
	var unsupported *document.UnsupportedTypeError
	var tooLarge *document.TooLargeError
	switch {
	case errors.As(err, &unsupported):
		return prompts.Message(prompts.MsgUnsupportedType, nil)
	case errors.As(err, &tooLarge):
		return prompts.Message(prompts.MsgTooLarge, nil)
	default:
		return prompts.Message(prompts.MsgAnalysisError, nil)
	}
}

// failureMessage maps a pipeline failure to the localized user message.
// Provider error text is never shown to the user.
func failureMessage(err error) string {
	var deliveryErr *pipeline.DeliveryError
	if errors.As(err, &deliveryErr) && deliveryErr.Reason == pipeline.ReasonEmptyResult {
		return prompts.Message(prompts.MsgAnalysisEmpty, nil)
	}
	return prompts.Message(prompts.MsgAnalysisError, nil)
}

// failureLabel names a pipeline failure for metrics.
func failureLabel(err error) string {
	var deliveryErr *pipeline.DeliveryError
	if errors.As(err, &deliveryErr) {
		return string(deliveryErr.Reason)
	}
	return "unknown"
}

func (b *Bot) joinChannelMessage(chatID int64) tgbotapi.MessageConfig {
	channel := b.opts.RequiredChannel
	msg := tgbotapi.NewMessage(chatID, prompts.Message(prompts.MsgJoinChannel, map[string]string{"Channel": channel}))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(
				prompts.Message(prompts.MsgJoinButton, nil),
				"https://t.me/"+strings.TrimPrefix(channel, "@"),
			),
		),
	)
	return msg
}
