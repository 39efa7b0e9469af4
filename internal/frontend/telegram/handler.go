package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/CineDeck/internal/config"
	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
	"github.com/vadimtrunov/CineDeck/internal/metadata/tmdb"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	feedErrorMsg    = "Failed to load movies. Please try again."
	searchErrorMsg  = "Search failed. Please try again."
	noResultsMsg    = "Nothing found."
	resetMsg        = "Selection cleared."
	helpMsg         = `CineDeck browses movies and TV shows.

/feed - trending, popular and upcoming titles
/category <name> - one list, e.g. /category top_rated_tv
/search <query> - search movies and series
/details <movie|tv> <id> - one title
/reset - forget the last list

Reply with a number to open an item from the last list. Any other text is searched.`

	callbackPrefix = "det:" // det:<kind>:<id>

	feedRowItems   = 5  // items shown per feed row
	maxButtons     = 8  // inline buttons under a listing
	maxButtonLabel = 30 // max characters in inline keyboard button label
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID
	logger := config.LoggerFromContext(ctx)

	logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(ctx, chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, args := parseCommand(text)
	switch cmd {
	case "start", "help":
		b.sendText(ctx, chatID, helpMsg)
	case "reset":
		b.sessions.reset(userID)
		b.sendText(ctx, chatID, resetMsg)
	case "feed":
		b.sendTyping(chatID)
		b.showFeed(ctx, chatID, userID)
	case "category":
		b.sendTyping(chatID)
		b.showCategory(ctx, chatID, userID, args)
	case "search":
		if args == "" {
			b.sendText(ctx, chatID, "Usage: /search <query>")
			return
		}
		b.sendTyping(chatID)
		b.showSearch(ctx, chatID, userID, args)
	case "details":
		item, err := parseDetailsArgs(args)
		if err != nil {
			b.sendText(ctx, chatID, "Usage: /details <movie|tv> <id>")
			return
		}
		b.sendTyping(chatID)
		b.showDetails(ctx, chatID, item)
	case "":
		if n, err := strconv.Atoi(text); err == nil {
			item, ok := b.sessions.pick(userID, n)
			if !ok {
				b.sendText(ctx, chatID, fmt.Sprintf("No item %d in the last list.", n))
				return
			}
			b.sendTyping(chatID)
			b.showDetails(ctx, chatID, item)
			return
		}
		b.sendTyping(chatID)
		b.showSearch(ctx, chatID, userID, text)
	default:
		b.sendText(ctx, chatID, helpMsg)
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	logger := config.LoggerFromContext(ctx)

	// Acknowledge the callback immediately.
	if _, err := b.out.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Debug("failed to answer callback", slog.String("error", err.Error()))
	}

	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	if !b.sessions.isAllowed(userID) {
		return
	}

	if !strings.HasPrefix(cq.Data, callbackPrefix) {
		return
	}
	item, err := parseDetailsArgs(strings.ReplaceAll(strings.TrimPrefix(cq.Data, callbackPrefix), ":", " "))
	if err != nil {
		logger.Warn("malformed callback data", slog.String("data", cq.Data))
		return
	}

	b.sendTyping(chatID)
	b.showDetails(ctx, chatID, item)
}

func (b *Bot) showFeed(ctx context.Context, chatID, userID int64) {
	f, err := b.deps.Feed.Fetch(ctx)
	if err != nil {
		config.LoggerFromContext(ctx).Error("feed fetch failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		b.sendText(ctx, chatID, feedErrorMsg)
		return
	}
	text, listed := FormatFeed(f, feedRowItems)
	b.sessions.remember(userID, listed)
	if len(listed) == 0 {
		b.sendText(ctx, chatID, noResultsMsg)
		return
	}
	b.sendMarkdown(ctx, chatID, text, buildSelectionKeyboard(listed))
}

func (b *Bot) showCategory(ctx context.Context, chatID, userID int64, name string) {
	category, err := core.ParseCategory(strings.TrimSpace(name))
	if err != nil {
		names := make([]string, len(core.AllCategories))
		for i, c := range core.AllCategories {
			names[i] = string(c)
		}
		b.sendText(ctx, chatID, "Usage: /category <name>\nCategories: "+strings.Join(names, ", "))
		return
	}
	page, err := b.deps.Catalog.ListCategory(ctx, category, 1)
	if err != nil {
		config.LoggerFromContext(ctx).Error("category fetch failed",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		b.sendText(ctx, chatID, feedErrorMsg)
		return
	}
	b.sendListing(ctx, chatID, userID, category.Label(), page.Results)
}

func (b *Bot) showSearch(ctx context.Context, chatID, userID int64, query string) {
	page, err := b.deps.Catalog.Search(ctx, query, 1)
	if err != nil {
		config.LoggerFromContext(ctx).Error("search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		b.sendText(ctx, chatID, searchErrorMsg)
		return
	}
	b.sendListing(ctx, chatID, userID, fmt.Sprintf("Results for %q", query), page.Results)
}

func (b *Bot) sendListing(ctx context.Context, chatID, userID int64, title string, items []core.MediaItem) {
	b.sessions.remember(userID, items)
	if len(items) == 0 {
		b.sendText(ctx, chatID, noResultsMsg)
		return
	}
	b.sendMarkdown(ctx, chatID, FormatListing(title, items, 1), buildSelectionKeyboard(items))
}

// showDetails sends the poster, then the details card with a trailer button
// when one exists.
func (b *Bot) showDetails(ctx context.Context, chatID int64, item core.MediaItem) {
	view, err := details.Load(ctx, b.deps.Catalog, item)
	if err != nil {
		config.LoggerFromContext(ctx).Error("details load failed",
			slog.String("item", item.Key()),
			slog.String("error", err.Error()),
		)
		b.sendText(ctx, chatID, details.UserMessage)
		return
	}

	b.sendPoster(ctx, chatID, view.Details.Item)

	var kb *tgbotapi.InlineKeyboardMarkup
	playback, err := details.ResolvePlayback(view.Trailer, false)
	switch {
	case err == nil:
		markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("▶ Watch trailer", playback.URL),
		))
		kb = &markup
	case !errors.Is(err, details.ErrNoTrailer):
		config.LoggerFromContext(ctx).Warn("trailer not playable",
			slog.String("item", item.Key()),
			slog.String("error", err.Error()),
		)
	}
	b.sendMarkdown(ctx, chatID, FormatDetails(view), kb)
}

// sendMarkdown sends MarkdownV2 text, falling back to plain text when
// Telegram rejects the markup.
func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.out.Send(msg); err != nil {
		config.LoggerFromContext(ctx).Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		plain := tgbotapi.NewMessage(chatID, unescapeMdV2(text))
		if kb != nil {
			plain.ReplyMarkup = kb
		}
		if _, err := b.out.Send(plain); err != nil {
			config.LoggerFromContext(ctx).Error("failed to send message",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		config.LoggerFromContext(ctx).Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	b.out.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}

// sendPoster sends the poster photo. Items without a poster are skipped.
func (b *Bot) sendPoster(ctx context.Context, chatID int64, item core.MediaItem) {
	if item.PosterPath == "" {
		return
	}
	url := tmdb.PosterURL(item.PosterPath, tmdb.SizeLarge)
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = posterCaption(item)
	if _, err := b.out.Send(photo); err != nil {
		config.LoggerFromContext(ctx).Debug("failed to send poster",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}

// buildSelectionKeyboard builds one button per item, up to maxButtons.
// Returns nil for fewer than two items.
func buildSelectionKeyboard(items []core.MediaItem) *tgbotapi.InlineKeyboardMarkup {
	if len(items) < 2 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, item := range items[:min(len(items), maxButtons)] {
		label := []rune(itemLabel(item))
		if len(label) > maxButtonLabel {
			label = append(label[:maxButtonLabel], '…')
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d. %s", i+1, string(label)),
			fmt.Sprintf("%s%s:%d", callbackPrefix, item.Kind, item.ID),
		)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// parseCommand splits "/cmd@bot args" into "cmd" and "args". Plain text
// yields an empty command.
func parseCommand(text string) (cmd, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// parseDetailsArgs parses "<movie|tv> <id>".
func parseDetailsArgs(args string) (core.MediaItem, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return core.MediaItem{}, fmt.Errorf("want <kind> <id>, got %q", args)
	}
	kind, err := core.ParseMediaKind(fields[0])
	if err != nil {
		return core.MediaItem{}, err
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil || id <= 0 {
		return core.MediaItem{}, fmt.Errorf("invalid id %q", fields[1])
	}
	return core.MediaItem{Kind: kind, ID: id}, nil
}

var mdV2Unescaper = strings.NewReplacer(
	`\\`, `\`,
	`\_`, "_", `\*`, "*", `\[`, "[", `\]`, "]", `\(`, "(", `\)`, ")",
	`\~`, "~", "\\`", "`", `\>`, ">", `\#`, "#", `\+`, "+", `\-`, "-",
	`\=`, "=", `\|`, "|", `\{`, "{", `\}`, "}", `\.`, ".", `\!`, "!",
	"*", "", "_", "",
)

// unescapeMdV2 turns text built with EscapeMdV2 back into plain text.
func unescapeMdV2(s string) string {
	return mdV2Unescaper.Replace(s)
}
