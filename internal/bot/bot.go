// ABOUTME: Telegram update dispatcher wiring the access gate and authoring flow.
// ABOUTME: Routes commands, admin draft input, and button callbacks to their handlers.
package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/2389-research/postgate/internal/authoring"
	"github.com/2389-research/postgate/internal/gate"
	"github.com/2389-research/postgate/internal/metrics"
	"github.com/2389-research/postgate/internal/models"
	"github.com/2389-research/postgate/internal/storage"
)

// Messenger sends outbound Telegram messages.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendDocument(ctx context.Context, chatID int64, fileID string) error
	SendMedia(ctx context.Context, channel models.Channel, media models.Media, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, url string) error
}

// Options configures a Bot.
type Options struct {
	Messenger        Messenger
	Oracle           gate.MembershipOracle
	Store            storage.PostStore
	Channels         []models.Channel
	AdminID          int64
	BotUsername      string
	InstagramProfile string
	Logger           logrus.FieldLogger
	Metrics          *metrics.BotMetrics
	// Workers is the number of per-chat lanes used by Run. Defaults to 8.
	Workers int
	// NewPostID overrides post ID generation.
	NewPostID func() string
}

// Bot handles Telegram updates.
type Bot struct {
	messenger   Messenger
	gate        *gate.Gate
	flow        *authoring.Flow
	channels    []models.Channel
	adminID     int64
	botUsername string
	instagram   string
	logger      logrus.FieldLogger
	metrics     *metrics.BotMetrics
	workers     int
}

// New validates options and builds the gate and authoring flow.
func New(opts Options) (*Bot, error) {
	if opts.Messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}
	if opts.BotUsername == "" {
		return nil, fmt.Errorf("bot username is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	g, err := gate.New(opts.Oracle, opts.Store, opts.Channels, logger)
	if err != nil {
		return nil, err
	}

	var flowOpts []authoring.FlowOption
	if opts.NewPostID != nil {
		flowOpts = append(flowOpts, authoring.WithIDGenerator(opts.NewPostID))
	}
	flow, err := authoring.NewFlow(opts.Store, channelPublisher{messenger: opts.Messenger}, opts.Channels[0], flowOpts...)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}

	return &Bot{
		messenger:   opts.Messenger,
		gate:        g,
		flow:        flow,
		channels:    opts.Channels,
		adminID:     opts.AdminID,
		botUsername: opts.BotUsername,
		instagram:   opts.InstagramProfile,
		logger:      logger,
		metrics:     opts.Metrics,
		workers:     workers,
	}, nil
}

// Run dispatches updates until ctx is cancelled or updates is closed.
// Updates from the same chat are handled in arrival order.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	lanes := make([]chan tgbotapi.Update, b.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan tgbotapi.Update, 16)
		wg.Add(1)
		go func(ch <-chan tgbotapi.Update) {
			defer wg.Done()
			for u := range ch {
				b.HandleUpdate(ctx, u)
			}
		}(lanes[i])
	}
	defer func() {
		for _, ch := range lanes {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			lane := lanes[laneFor(u, len(lanes))]
			select {
			case lane <- u:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// HandleUpdate processes one update. It never panics.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.IncFailure()
			b.logger.WithField("update_id", u.UpdateID).Errorf("Handler panic: %v", r)
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.metrics.IncUpdate("callback")
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.metrics.IncUpdate("message")
		b.handleMessage(ctx, u.Message)
	default:
		b.metrics.IncUpdate("other")
	}
}

// reportError is the single sink for unexpected handler failures.
func (b *Bot) reportError(ctx context.Context, chatID int64, err error) {
	b.metrics.IncFailure()
	b.logger.WithError(err).WithField("chat_id", chatID).Error("Request failed")
	if sendErr := b.messenger.SendText(ctx, chatID, TextGenericError, nil); sendErr != nil {
		b.logger.WithError(sendErr).WithField("chat_id", chatID).Warn("Failed to send error notice")
	}
}

func laneFor(u tgbotapi.Update, n int) int {
	var key int64
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		key = u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		key = u.CallbackQuery.From.ID
	}
	return int(uint64(key) % uint64(n))
}

// channelPublisher adds the Get Code button to channel posts.
type channelPublisher struct {
	messenger Messenger
}

func (p channelPublisher) PublishMedia(ctx context.Context, channel models.Channel, media models.Media, caption string) error {
	kb := getCodeKeyboard()
	return p.messenger.SendMedia(ctx, channel, media, caption, &kb)
}
