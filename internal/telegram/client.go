// ABOUTME: Telegram Bot API adapter for sending messages and checking membership.
// ABOUTME: Wraps telegram-bot-api so the rest of the bot depends on narrow methods.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389-research/postgate/internal/models"
)

// Client talks to the Telegram Bot API.
type Client struct {
	api        *tgbotapi.BotAPI
	endpoint   string
	httpClient *http.Client
}

// Option configures optional Client settings.
type Option func(*Client)

// WithEndpoint overrides the Bot API endpoint format ("https://host/bot%s/%s").
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New authenticates with the Bot API by calling getMe.
func New(token string, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:   tgbotapi.APIEndpoint,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, c.endpoint, c.httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}
	c.api = api
	return c, nil
}

// Username returns the bot's own username as reported by getMe.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// IsMember reports whether userID is currently in the channel.
// "left", "kicked", and restricted users no longer in the chat count as not subscribed.
func (c *Client) IsMember(ctx context.Context, channel models.Channel, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel.ChatUsername(),
			UserID:             userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member in %s: %w", channel.ChatUsername(), err)
	}
	if member.HasLeft() || member.WasKicked() {
		return false, nil
	}
	// A restricted user may still be listed after leaving.
	if member.Status == "restricted" && !member.IsMember {
		return false, nil
	}
	return true, nil
}

// SendText sends a text message, optionally with an inline keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	return c.send(ctx, msg)
}

// SendDocument sends a previously uploaded file by its file ID.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID string) error {
	return c.send(ctx, tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID)))
}

// SendMedia posts a video or photo to a channel with a caption.
func (c *Client) SendMedia(ctx context.Context, channel models.Channel, media models.Media, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	switch media.Kind {
	case models.MediaVideo:
		cfg := tgbotapi.NewVideo(0, tgbotapi.FileID(media.FileID))
		cfg.ChannelUsername = channel.ChatUsername()
		cfg.Caption = caption
		if keyboard != nil {
			cfg.ReplyMarkup = *keyboard
		}
		return c.send(ctx, cfg)
	case models.MediaPhoto:
		cfg := tgbotapi.NewPhoto(0, tgbotapi.FileID(media.FileID))
		cfg.ChannelUsername = channel.ChatUsername()
		cfg.Caption = caption
		if keyboard != nil {
			cfg.ReplyMarkup = *keyboard
		}
		return c.send(ctx, cfg)
	default:
		return fmt.Errorf("unsupported media kind %q", media.Kind)
	}
}

// AnswerCallback acknowledges a button press. A non-empty url opens it in the client.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cb := tgbotapi.NewCallback(callbackID, "")
	cb.URL = url
	if _, err := c.api.Request(cb); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// Updates starts long polling and returns the update channel.
func (c *Client) Updates(timeoutSeconds int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSeconds
	return c.api.GetUpdatesChan(u)
}

// StopUpdates stops long polling and closes the update channel.
func (c *Client) StopUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(msg); err != nil {
		return err
	}
	return nil
}
