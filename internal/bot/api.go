// Package bot routes Telegram updates to the resume analysis pipeline.
package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/growly/resume-bot/internal/pipeline"
	"github.com/growly/resume-bot/internal/types"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Pipeline analyzes one document and delivers the result.
type Pipeline interface {
	Run(ctx context.Context, req *types.AnalysisRequest, sender pipeline.Sender) (*pipeline.Outcome, error)
}

// Store persists users and ratings.
type Store interface {
	UpsertUser(ctx context.Context, userID int64, username, firstName string) error
	UpdateRating(ctx context.Context, analysisID uuid.UUID, rating types.Rating) error
}

// chatSender delivers pipeline chunks to one chat.
type chatSender struct {
	api    API
	chatID int64
}

func (s *chatSender) Send(ctx context.Context, chunk string, format pipeline.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, chunk)
	if format == pipeline.FormatMarkdownV2 {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}

	_, err := s.api.Send(msg)
	if err != nil && isParseEntitiesError(err) {
		return &pipeline.MarkupParseError{Cause: err}
	}
	return err
}

// isParseEntitiesError reports whether Telegram rejected a message's markup.
// The Bot API only signals this through the error description.
func isParseEntitiesError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(strings.ToLower(apiErr.Message), "can't parse entities")
	}
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
