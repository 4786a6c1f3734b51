package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/growly/resume-bot/internal/prompts"
	"github.com/growly/resume-bot/internal/types"
)

const ratingPrefix = "rate"

var validate = validator.New()

// ratingCallback is the payload of a rating button, "rate_<id>_<1..5>".
type ratingCallback struct {
	AnalysisID string `validate:"required,uuid"`
	Rating     int    `validate:"min=1,max=5"`
}

func ratingCallbackData(analysisID uuid.UUID, rating types.Rating) string {
	return fmt.Sprintf("%s_%s_%d", ratingPrefix, analysisID, rating)
}

func parseRatingCallback(data string) (uuid.UUID, types.Rating, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 || parts[0] != ratingPrefix {
		return uuid.Nil, 0, fmt.Errorf("malformed rating callback %q", data)
	}

	rating, err := strconv.Atoi(parts[2])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("malformed rating in callback %q: %w", data, err)
	}

	cb := ratingCallback{AnalysisID: parts[1], Rating: rating}
	if err := validate.Struct(cb); err != nil {
		return uuid.Nil, 0, fmt.Errorf("invalid rating callback %q: %w", data, err)
	}

	return uuid.MustParse(cb.AnalysisID), types.Rating(cb.Rating), nil
}

// ratingKeyboard lists the five ratings, best first, one per row.
func ratingKeyboard(analysisID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(types.AllRatings))
	for _, r := range types.AllRatings {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.ButtonText(), ratingCallbackData(analysisID, r)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var errNoStore = errors.New("ratings are not stored")

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if !strings.HasPrefix(q.Data, ratingPrefix+"_") {
		b.answerCallback(q.ID, "")
		return
	}

	analysisID, rating, err := parseRatingCallback(q.Data)
	if err == nil {
		err = b.saveRating(ctx, analysisID, rating)
	}
	if err != nil {
		b.opts.Logger.Warn().Str("data", q.Data).Err(err).Msg("rejected rating")
		b.answerCallback(q.ID, prompts.Message(prompts.MsgRateInvalid, nil))
		return
	}

	b.answerCallback(q.ID, "")

	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	// Remove the keyboard so the analysis cannot be rated twice from it.
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, q.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.api.Request(edit); err != nil {
		b.opts.Logger.Warn().Err(err).Msg("failed to remove rating keyboard")
	}

	b.reply(chatID, prompts.Message(prompts.MsgRateThanks, map[string]string{
		"Rating": strconv.Itoa(int(rating)),
		"Label":  rating.Label(),
	}))
}

func (b *Bot) saveRating(ctx context.Context, analysisID uuid.UUID, rating types.Rating) error {
	if b.opts.Store == nil {
		return errNoStore
	}
	return b.opts.Store.UpdateRating(ctx, analysisID, rating)
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.opts.Logger.Warn().Err(err).Msg("failed to answer callback")
	}
}
