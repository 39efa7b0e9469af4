package telegram

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
	"github.com/vadimtrunov/CineDeck/internal/feed"
	"github.com/vadimtrunov/CineDeck/internal/format"
)

const (
	maxOverview  = 600
	maxCastShown = 6
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// itemLabel is the plain "Title (Year)" form used in lists and buttons.
func itemLabel(item core.MediaItem) string {
	if y := format.Year(item.ReleaseDate); y != "" {
		return fmt.Sprintf("%s (%s)", item.Title, y)
	}
	return item.Title
}

// FormatListing renders items as a numbered MarkdownV2 list whose first
// entry is numbered start.
func FormatListing(title string, items []core.MediaItem, start int) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(FormatBold(title))
		sb.WriteString("\n")
	}
	for i, item := range items {
		line := fmt.Sprintf("%d. %s", start+i, itemLabel(item))
		if item.VoteAverage > 0 {
			line += " ★ " + format.Rating(item.VoteAverage)
		}
		sb.WriteString(EscapeMdV2(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatFeed renders the featured list followed by the first perRow items
// of every row. Numbering runs across all sections; the returned slice is
// in the same order so a number can be resolved back to its item.
func FormatFeed(f *feed.Feed, perRow int) (string, []core.MediaItem) {
	var (
		sb     strings.Builder
		listed []core.MediaItem
	)
	if len(f.Featured) > 0 {
		sb.WriteString(FormatListing("Featured", f.Featured, 1))
		listed = append(listed, f.Featured...)
	}
	for _, row := range f.Rows {
		items := row.Items[:min(len(row.Items), perRow)]
		if len(items) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		title := row.Title
		if title == "" {
			title = row.Category.Label()
		}
		sb.WriteString(FormatListing(title, items, len(listed)+1))
		listed = append(listed, items...)
	}
	return sb.String(), listed
}

// FormatDetails renders the details card as MarkdownV2.
func FormatDetails(v *details.View) string {
	d := v.Details
	var sb strings.Builder

	sb.WriteString(FormatBold(itemLabel(d.Item)))
	sb.WriteString("\n")
	if d.Tagline != "" {
		sb.WriteString(FormatItalic(d.Tagline))
		sb.WriteString("\n")
	}

	var facts []string
	if d.Item.VoteAverage > 0 {
		facts = append(facts, "★ "+format.Rating(d.Item.VoteAverage))
	}
	if rt := format.Runtime(d.Runtime); rt != "" {
		facts = append(facts, rt)
	}
	if d.NumberOfSeasons > 0 {
		facts = append(facts, fmt.Sprintf("%d seasons", d.NumberOfSeasons))
	}
	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, g.Name)
		}
		facts = append(facts, strings.Join(names, ", "))
	}
	if len(facts) > 0 {
		sb.WriteString(EscapeMdV2(strings.Join(facts, " · ")))
		sb.WriteString("\n")
	}

	if d.Item.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(EscapeMdV2(format.Truncate(d.Item.Overview, maxOverview)))
		sb.WriteString("\n")
	}

	if len(v.Cast) > 0 {
		names := make([]string, 0, maxCastShown)
		for _, c := range v.Cast[:min(len(v.Cast), maxCastShown)] {
			names = append(names, c.Name)
		}
		sb.WriteString("\n")
		sb.WriteString(FormatBold("Cast: "))
		sb.WriteString(EscapeMdV2(strings.Join(names, ", ")))
		sb.WriteString("\n")
	}
	for _, c := range v.Crew {
		if c.Job == "Director" {
			sb.WriteString(FormatBold("Director: "))
			sb.WriteString(EscapeMdV2(c.Name))
			sb.WriteString("\n")
			break
		}
	}
	return sb.String()
}

// posterCaption is the plain caption sent with the poster photo.
func posterCaption(item core.MediaItem) string {
	if item.VoteAverage > 0 {
		return itemLabel(item) + " ★ " + format.Rating(item.VoteAverage)
	}
	return itemLabel(item)
}
