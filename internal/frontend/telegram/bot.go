// Package telegram is a chat frontend for browsing the catalog: the home
// feed, search and details cards with posters and trailer links.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/CineDeck/internal/config"
	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/feed"
)

// FeedFetcher produces the home feed.
type FeedFetcher interface {
	Fetch(ctx context.Context) (*feed.Feed, error)
}

// Deps are the catalog services the bot renders.
type Deps struct {
	Catalog core.Catalog
	Feed    FeedFetcher
}

// sender is the part of *tgbotapi.BotAPI the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram frontend for CineDeck.
type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	sessions *sessionManager
	deps     Deps
	logger   *slog.Logger
}

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, deps Deps, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	b := newBot(api, allowedUserIDs, deps, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, allowedUserIDs []int64, deps Deps, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		out:      out,
		sessions: newSessionManager(allowedUserIDs),
		deps:     deps,
		logger:   logger,
	}
}

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("telegram bot not connected")
	}
	b.logger.Info("telegram bot started",
		slog.String("username", b.api.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches an incoming Telegram update with a logger scoped
// to it.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	logger := b.logger.With(slog.Int("update_id", update.UpdateID))
	ctx = config.ContextWithLogger(ctx, logger)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
