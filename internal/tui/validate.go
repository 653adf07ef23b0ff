// ABOUTME: Bot token validation against the Telegram Bot API.
// ABOUTME: Calls getMe through the telegram adapter and returns the bot username.
package tui

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389-research/postgate/internal/telegram"
)

// ValidateConnection checks the token against the public Bot API.
// The context allows cancellation when the user quits during validation.
func ValidateConnection(ctx context.Context, token string) (string, error) {
	return ValidateConnectionAt(ctx, tgbotapi.APIEndpoint, token)
}

// ValidateConnectionAt checks the token against a Bot API endpoint
// in "https://host/bot%s/%s" form.
func ValidateConnectionAt(ctx context.Context, endpoint, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hc := &http.Client{
		Timeout:   10 * time.Second,
		Transport: contextTransport{ctx: ctx, base: http.DefaultTransport},
	}
	client, err := telegram.New(token, telegram.WithEndpoint(endpoint), telegram.WithHTTPClient(hc))
	if err != nil {
		return "", err
	}
	return client.Username(), nil
}

// contextTransport binds outgoing requests to ctx, since getMe has no context parameter.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
