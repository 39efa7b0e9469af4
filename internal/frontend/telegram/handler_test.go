package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
	"github.com/vadimtrunov/CineDeck/internal/feed"
)

type fakeSender struct {
	mu           sync.Mutex
	sent         []tgbotapi.Chattable
	requests     []tgbotapi.Chattable
	rejectMarkup bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok && f.rejectMarkup && m.ParseMode != "" {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type fakeCatalog struct {
	core.Catalog // unused methods panic

	search     []core.MediaItem
	category   []core.MediaItem
	videos     []core.Video
	detailsErr error
	searchErr  error
	queries    []string
}

func (c *fakeCatalog) Search(_ context.Context, query string, _ int) (*core.Page, error) {
	c.queries = append(c.queries, query)
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	return &core.Page{Page: 1, Results: c.search}, nil
}

func (c *fakeCatalog) ListCategory(_ context.Context, _ core.Category, _ int) (*core.Page, error) {
	return &core.Page{Page: 1, Results: c.category}, nil
}

func (c *fakeCatalog) Details(_ context.Context, kind core.MediaKind, id int) (*core.Details, error) {
	if c.detailsErr != nil {
		return nil, c.detailsErr
	}
	return &core.Details{Item: core.MediaItem{
		Kind: kind, ID: id, Title: "Dune", ReleaseDate: "2021-09-15", PosterPath: "/dune.jpg",
	}}, nil
}

func (c *fakeCatalog) Credits(_ context.Context, _ core.MediaKind, id int) (*core.Credits, error) {
	return &core.Credits{ID: id}, nil
}

func (c *fakeCatalog) Videos(_ context.Context, _ core.MediaKind, _ int) ([]core.Video, error) {
	return c.videos, nil
}

type fakeFeed struct {
	f   *feed.Feed
	err error
}

func (f fakeFeed) Fetch(context.Context) (*feed.Feed, error) { return f.f, f.err }

func newTestBot(cat *fakeCatalog, ff FeedFetcher, allowed ...int64) (*Bot, *fakeSender) {
	out := &fakeSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newBot(out, allowed, Deps{Catalog: cat, Feed: ff}, logger), out
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in, cmd, args string
	}{
		{"/start", "start", ""},
		{"/search the matrix", "search", "the matrix"},
		{"/Feed@CineDeckBot", "feed", ""},
		{"/details@bot movie 42", "details", "movie 42"},
		{"dune", "", "dune"},
	}
	for _, tt := range tests {
		cmd, args := parseCommand(tt.in)
		if cmd != tt.cmd || args != tt.args {
			t.Errorf("parseCommand(%q) = %q, %q; want %q, %q", tt.in, cmd, args, tt.cmd, tt.args)
		}
	}
}

func TestParseDetailsArgs(t *testing.T) {
	item, err := parseDetailsArgs("tv 1399")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Kind != core.KindSeries || item.ID != 1399 {
		t.Errorf("got %+v", item)
	}
	for _, bad := range []string{"", "movie", "book 1", "movie abc", "movie -3", "movie 1 2"} {
		if _, err := parseDetailsArgs(bad); err == nil {
			t.Errorf("parseDetailsArgs(%q) should fail", bad)
		}
	}
}

func TestBuildSelectionKeyboard(t *testing.T) {
	t.Run("single item not enough", func(t *testing.T) {
		if kb := buildSelectionKeyboard([]core.MediaItem{{Title: "Dune"}}); kb != nil {
			t.Error("expected nil keyboard for single item")
		}
	})

	t.Run("buttons carry kind and id", func(t *testing.T) {
		items := []core.MediaItem{
			{Kind: core.KindMovie, ID: 438631, Title: "Dune", ReleaseDate: "2021-09-15"},
			{Kind: core.KindSeries, ID: 95396, Title: "Severance"},
		}
		kb := buildSelectionKeyboard(items)
		if kb == nil {
			t.Fatal("expected keyboard")
		}
		if len(kb.InlineKeyboard) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(kb.InlineKeyboard))
		}
		btn := kb.InlineKeyboard[0][0]
		if btn.Text != "1. Dune (2021)" {
			t.Errorf("unexpected label %q", btn.Text)
		}
		if btn.CallbackData == nil || *btn.CallbackData != "det:movie:438631" {
			t.Errorf("unexpected callback data %v", btn.CallbackData)
		}
		if *kb.InlineKeyboard[1][0].CallbackData != "det:tv:95396" {
			t.Errorf("unexpected callback data %q", *kb.InlineKeyboard[1][0].CallbackData)
		}
	})

	t.Run("capped and truncated", func(t *testing.T) {
		items := make([]core.MediaItem, 12)
		for i := range items {
			items[i] = core.MediaItem{Kind: core.KindMovie, ID: i + 1, Title: strings.Repeat("x", 50)}
		}
		kb := buildSelectionKeyboard(items)
		if len(kb.InlineKeyboard) != maxButtons {
			t.Errorf("expected %d rows, got %d", maxButtons, len(kb.InlineKeyboard))
		}
		if label := kb.InlineKeyboard[0][0].Text; !strings.HasSuffix(label, "…") {
			t.Errorf("expected truncated label, got %q", label)
		}
	})
}

func TestHandleMessage_Unauthorized(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil, 1)
	b.handleMessage(context.Background(), textMessage(2, "/feed"))

	msgs := out.messages()
	if len(msgs) != 1 || msgs[0].Text != unauthorizedMsg {
		t.Fatalf("expected unauthorized reply, got %+v", msgs)
	}
}

func TestHandleMessage_Start(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	b.handleMessage(context.Background(), textMessage(1, "/start"))

	msgs := out.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "/search") {
		t.Fatalf("expected help text, got %+v", msgs)
	}
}

func TestHandleMessage_FeedThenPickByNumber(t *testing.T) {
	f := &feed.Feed{
		Featured: []core.MediaItem{{Kind: core.KindMovie, ID: 1, Title: "Dune"}},
		Rows: []feed.Row{{
			Category: core.CategoryTrendingTV,
			Items:    []core.MediaItem{{Kind: core.KindSeries, ID: 2, Title: "Severance"}},
		}},
	}
	cat := &fakeCatalog{videos: []core.Video{{Key: "abc", Site: "YouTube", Type: "Trailer"}}}
	b, out := newTestBot(cat, fakeFeed{f: f})
	ctx := context.Background()

	b.handleMessage(ctx, textMessage(7, "/feed"))
	msgs := out.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("expected MarkdownV2, got %q", msgs[0].ParseMode)
	}
	if !strings.Contains(msgs[0].Text, "2\\. Severance") {
		t.Errorf("feed text missing row item:\n%s", msgs[0].Text)
	}

	b.handleMessage(ctx, textMessage(7, "2"))
	photos := out.photos()
	if len(photos) != 1 {
		t.Fatalf("expected poster photo, got %d", len(photos))
	}
	if got := string(photos[0].File.(tgbotapi.FileURL)); got != "https://image.tmdb.org/t/p/w500/dune.jpg" {
		t.Errorf("unexpected poster url %q", got)
	}

	msgs = out.messages()
	card := msgs[len(msgs)-1]
	kb, ok := card.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected trailer keyboard, got %T", card.ReplyMarkup)
	}
	if u := kb.InlineKeyboard[0][0].URL; u == nil || *u != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("unexpected trailer url %v", u)
	}
}

func TestHandleMessage_PickWithoutListing(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	b.handleMessage(context.Background(), textMessage(1, "3"))

	msgs := out.messages()
	if len(msgs) != 1 || msgs[0].Text != "No item 3 in the last list." {
		t.Fatalf("unexpected reply %+v", msgs)
	}
}

func TestHandleMessage_FeedError(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, fakeFeed{err: errors.New("boom")})
	b.handleMessage(context.Background(), textMessage(1, "/feed"))

	msgs := out.messages()
	if len(msgs) != 1 || msgs[0].Text != feedErrorMsg {
		t.Fatalf("expected feed error reply, got %+v", msgs)
	}
}

func TestHandleMessage_PlainTextSearches(t *testing.T) {
	cat := &fakeCatalog{search: []core.MediaItem{
		{Kind: core.KindMovie, ID: 1, Title: "Alien"},
		{Kind: core.KindMovie, ID: 2, Title: "Aliens"},
	}}
	b, out := newTestBot(cat, nil)
	b.handleMessage(context.Background(), textMessage(1, "alien"))

	if len(cat.queries) != 1 || cat.queries[0] != "alien" {
		t.Fatalf("expected one search for alien, got %v", cat.queries)
	}
	msgs := out.messages()
	if len(msgs) != 1 || msgs[0].ReplyMarkup == nil {
		t.Fatalf("expected listing with keyboard, got %+v", msgs)
	}
}

func TestHandleMessage_SearchNoResults(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	b.handleMessage(context.Background(), textMessage(1, "/search nothing"))

	msgs := out.messages()
	if len(msgs) != 1 || msgs[0].Text != noResultsMsg {
		t.Fatalf("expected no results reply, got %+v", msgs)
	}
}

func TestHandleMessage_UnknownCategory(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	b.handleMessage(context.Background(), textMessage(1, "/category westerns"))

	msgs := out.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "top_rated_tv") {
		t.Fatalf("expected category usage, got %+v", msgs)
	}
}

func TestHandleMessage_DetailsError(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{detailsErr: errors.New("404")}, nil)
	b.handleMessage(context.Background(), textMessage(1, "/details movie 42"))

	msgs := out.messages()
	if len(msgs) != 1 || msgs[0].Text != details.UserMessage {
		t.Fatalf("expected details error reply, got %+v", msgs)
	}
	if len(out.photos()) != 0 {
		t.Error("no poster should be sent on failure")
	}
}

func TestHandleMessage_DetailsWithoutTrailer(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	b.handleMessage(context.Background(), textMessage(1, "/details tv 1399"))

	msgs := out.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected details card, got %d messages", len(msgs))
	}
	if msgs[0].ReplyMarkup != nil {
		t.Error("no trailer button expected")
	}
}

func TestHandleMessage_MarkdownFallback(t *testing.T) {
	cat := &fakeCatalog{search: []core.MediaItem{{Kind: core.KindMovie, ID: 1, Title: "Alien"}}}
	b, out := newTestBot(cat, nil)
	out.rejectMarkup = true
	b.handleMessage(context.Background(), textMessage(1, "/search alien"))

	msgs := out.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected plain retry, got %d messages", len(msgs))
	}
	if msgs[0].ParseMode != "" || !strings.Contains(msgs[0].Text, "1. Alien") {
		t.Errorf("unexpected fallback message %+v", msgs[0])
	}
}

func TestHandleCallback_OpensDetails(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	cq := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 5},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}},
		Data:    "det:movie:438631",
	}
	b.handleCallback(context.Background(), cq)

	if len(out.photos()) != 1 {
		t.Fatal("expected poster for callback selection")
	}
	if len(out.requests) == 0 {
		t.Fatal("expected callback acknowledgement")
	}
	if _, ok := out.requests[0].(tgbotapi.CallbackConfig); !ok {
		t.Errorf("first request should answer the callback, got %T", out.requests[0])
	}
}

func TestHandleCallback_IgnoresForeignData(t *testing.T) {
	b, out := newTestBot(&fakeCatalog{}, nil)
	cq := &tgbotapi.CallbackQuery{
		ID:      "cb2",
		From:    &tgbotapi.User{ID: 5},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}},
		Data:    "sel:1",
	}
	b.handleCallback(context.Background(), cq)

	if len(out.sent) != 0 {
		t.Errorf("expected nothing sent, got %d", len(out.sent))
	}
}
