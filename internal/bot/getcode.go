// ABOUTME: Get Code action bridging public channel posts back into the bot.
// ABOUTME: Extracts the post ID from a caption and answers with a start deep link.
package bot

import (
	"context"
	"net/url"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var postIDPattern = regexp.MustCompile(`Post ID: (\w+)`)

// ExtractPostID finds the "Post ID: <id>" line in a rendered caption.
func ExtractPostID(caption string) (string, bool) {
	m := postIDPattern.FindStringSubmatch(caption)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DeepLink returns the URL that opens the bot with /start <postID>.
func DeepLink(botUsername, postID string) string {
	return "https://t.me/" + botUsername + "?start=" + url.QueryEscape(postID)
}

func (b *Bot) handleGetCode(ctx context.Context, q *tgbotapi.CallbackQuery) {
	caption := ""
	if q.Message != nil {
		caption = q.Message.Caption
	}
	postID, ok := ExtractPostID(caption)
	if !ok {
		b.ack(ctx, q.ID)
		return
	}

	if err := b.messenger.AnswerCallback(ctx, q.ID, DeepLink(b.botUsername, postID)); err != nil {
		b.logger.WithError(err).WithField("post_id", postID).Error("Failed to answer get code callback")
	}
}
