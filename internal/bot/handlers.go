// ABOUTME: Message and callback handlers for users and the admin.
// ABOUTME: Renders gate outcomes and authoring results as Telegram messages.
package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/2389-research/postgate/internal/authoring"
	"github.com/2389-research/postgate/internal/gate"
)

// User-facing texts.
const (
	TextMenu         = "Please choose one of the options below:"
	TextSubscribe    = "Please subscribe to the following channel(s):"
	TextNotFound     = "File not found!"
	TextGenericError = "Something went wrong. Please try again later."
	TextIncomplete   = "Cannot publish yet. Missing: "
	TextPublishError = "Error occurred: "
)

// Callback data values.
const (
	CallbackGetCode     = "get_code"
	CallbackCheckPrefix = "check_"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	isAdmin := chatID == b.adminID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg, isAdmin)
		case "sendpost":
			if isAdmin && b.flow.Collecting(chatID) {
				b.handlePublish(ctx, chatID)
			}
		}
		return
	}

	if isAdmin {
		b.handleDraftInput(ctx, msg)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, isAdmin bool) {
	chatID := msg.Chat.ID
	if isAdmin {
		b.send(ctx, chatID, b.flow.Begin(chatID), nil)
		return
	}

	if args := strings.Fields(msg.CommandArguments()); len(args) > 0 {
		userID := chatID
		if msg.From != nil {
			userID = msg.From.ID
		}
		b.requestFile(ctx, chatID, userID, args[0])
		return
	}

	kb := b.menuKeyboard()
	b.send(ctx, chatID, TextMenu, &kb)
}

// requestFile runs the gate and renders its outcome to chatID.
func (b *Bot) requestFile(ctx context.Context, chatID, userID int64, postID string) {
	out, err := b.gate.RequestFile(ctx, userID, postID)
	if err != nil {
		b.reportError(ctx, chatID, err)
		return
	}
	b.metrics.IncGate(out.Kind.String())

	switch out.Kind {
	case gate.OutcomeSubscribe:
		kb := b.subscribeKeyboard(postID)
		err = b.messenger.SendText(ctx, chatID, TextSubscribe, &kb)
	case gate.OutcomeDeliver:
		err = b.messenger.SendDocument(ctx, chatID, out.Post.FileID)
	case gate.OutcomeNotFound:
		err = b.messenger.SendText(ctx, chatID, TextNotFound, nil)
	}
	if err != nil {
		b.reportError(ctx, chatID, err)
	}
}

func (b *Bot) handleDraftInput(ctx context.Context, msg *tgbotapi.Message) {
	adminID := msg.Chat.ID
	var (
		prompt string
		ok     bool
	)

	switch {
	case msg.Video != nil:
		prompt, ok = b.flow.ReceiveVideo(adminID, msg.Video.FileID, msg.Caption)
	case len(msg.Photo) > 0:
		variants := make([]authoring.PhotoVariant, len(msg.Photo))
		for i, p := range msg.Photo {
			variants[i] = authoring.PhotoVariant{FileID: p.FileID, Width: p.Width, Height: p.Height}
		}
		prompt, ok = b.flow.ReceivePhoto(adminID, variants, msg.Caption)
	case msg.Text != "" && !strings.HasPrefix(msg.Text, "/"):
		prompt, ok = b.flow.ReceiveText(adminID, msg.Text)
	case msg.Document != nil:
		prompt, ok = b.flow.ReceiveFile(adminID, msg.Document.FileID)
	}
	if !ok {
		return
	}
	b.send(ctx, adminID, prompt, nil)
}

func (b *Bot) handlePublish(ctx context.Context, adminID int64) {
	post, err := b.flow.Publish(ctx, adminID)

	var (
		incomplete *authoring.IncompleteError
		pubErr     *authoring.PublishError
	)
	switch {
	case errors.As(err, &incomplete):
		b.metrics.IncPublish("incomplete")
		b.send(ctx, adminID, TextIncomplete+authoring.JoinFields(incomplete.Missing)+".", nil)
	case errors.As(err, &pubErr):
		b.metrics.IncPublish("send_failed")
		b.logger.WithError(err).WithField("post_id", pubErr.PostID).Warn("Channel send failed, draft kept")
		b.send(ctx, adminID, TextPublishError+pubErr.Error(), nil)
	case err != nil:
		b.metrics.IncPublish("store_failed")
		b.reportError(ctx, adminID, err)
	default:
		b.metrics.IncPublish("ok")
		b.logger.WithFields(logrus.Fields{
			"post_id": post.PostID,
			"channel": b.channels[0].Username,
		}).Info("Post published")
		b.send(ctx, adminID, authoring.PromptPublished, nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	switch {
	case strings.HasPrefix(q.Data, CallbackCheckPrefix):
		b.ack(ctx, q.ID)
		if q.Message == nil || q.Message.Chat == nil {
			return
		}
		userID := q.Message.Chat.ID
		if q.From != nil {
			userID = q.From.ID
		}
		b.requestFile(ctx, q.Message.Chat.ID, userID, strings.TrimPrefix(q.Data, CallbackCheckPrefix))
	case q.Data == CallbackGetCode:
		b.handleGetCode(ctx, q)
	default:
		b.ack(ctx, q.ID)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if err := b.messenger.SendText(ctx, chatID, text, kb); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send message")
	}
}

func (b *Bot) ack(ctx context.Context, callbackID string) {
	if err := b.messenger.AnswerCallback(ctx, callbackID, ""); err != nil {
		b.logger.WithError(err).Debug("Failed to answer callback")
	}
}
