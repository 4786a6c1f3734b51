package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// memberStatuses are the chat member states that pass the channel gate.
var memberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// isChannelMember reports whether userID belongs to the required channel.
// With no channel configured everyone passes. Lookup failures deny access.
func (b *Bot) isChannelMember(_ context.Context, userID int64) bool {
	if b.opts.RequiredChannel == "" {
		return true
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: b.opts.RequiredChannel,
			UserID:             userID,
		},
	})
	if err != nil {
		b.opts.Logger.Warn().
			Int64("user_id", userID).
			Str("channel", b.opts.RequiredChannel).
			Err(err).
			Msg("failed to check channel membership")
		return false
	}

	return memberStatuses[member.Status]
}
