package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
	"github.com/vadimtrunov/CineDeck/internal/format"
	"github.com/vadimtrunov/CineDeck/internal/screen"
)

const (
	cardWidth     = 22
	overviewWidth = 300
)

var (
	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleAlert    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 2)
	styleBanner = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("5")).
			Padding(0, 1)
)

// View renders the current screen with the alert, if any, underneath.
func (m browseModel) View() string {
	var body string
	switch m.screen() {
	case screen.Login:
		body = m.loginView()
	case screen.SignUp:
		body = m.signUpView()
	case screen.Home:
		body = m.homeView()
	case screen.Details:
		body = m.detailsView()
	}

	out := m.headerView() + "\n" + body
	if m.alert != nil {
		box := styleHeader.Render(m.alert.title) + "\n" + m.alert.body + "\n\n" + styleDim.Render("[enter] OK")
		out += "\n" + styleAlert.Render(box)
	}
	return out
}

func (m browseModel) headerView() string {
	title := styleHeader.Render("CineDeck")
	if m.user != nil {
		title += "  " + styleDim.Render(m.user.Name)
	}
	return title
}

func (m browseModel) loginView() string {
	var sb strings.Builder
	sb.WriteString(styleInfo.Render("Sign in"))
	sb.WriteString("\n\n")
	sb.WriteString(m.login.view())
	if m.busy {
		sb.WriteString(m.spinner.View() + styleDim.Render(" Signing in..."))
		sb.WriteString("\n")
	}
	sb.WriteString(styleDim.Render("enter: next/sign in · tab: switch field · ctrl+n: create account · ctrl+c: quit"))
	return sb.String()
}

func (m browseModel) signUpView() string {
	var sb strings.Builder
	sb.WriteString(styleInfo.Render("Create account"))
	sb.WriteString("\n\n")
	sb.WriteString(m.signup.view())
	if m.busy {
		sb.WriteString(m.spinner.View() + styleDim.Render(" Creating account..."))
		sb.WriteString("\n")
	}
	sb.WriteString(styleDim.Render("enter: next/create · tab: switch field · esc: back to sign in"))
	return sb.String()
}

func (m browseModel) homeView() string {
	if m.snap.Feed == nil {
		if m.fetching {
			return m.spinner.View() + styleDim.Render(" Loading movies...")
		}
		return styleDim.Render("No movies loaded. Press r to retry.") + "\n" + m.homeHelp()
	}

	var sb strings.Builder
	if m.snap.Refreshing {
		sb.WriteString(m.spinner.View() + styleDim.Render(" Refreshing...") + "\n")
	}

	if item, ok := m.snap.CurrentFeatured(); ok {
		sb.WriteString(m.bannerView(item))
		sb.WriteString("\n")
	}

	for i, row := range m.snap.Feed.Rows {
		title := row.Title
		if title == "" {
			title = row.Category.Label()
		}
		if i == m.row {
			sb.WriteString(styleInfo.Render("▸ " + title))
		} else {
			sb.WriteString(styleDim.Render("  " + title))
		}
		sb.WriteString("\n")
		sb.WriteString(m.rowView(row.Items, i))
		sb.WriteString("\n")
	}
	sb.WriteString(m.homeHelp())
	return sb.String()
}

func (m browseModel) homeHelp() string {
	return styleDim.Render("↑↓ rows · ←→ items · enter: details · r: refresh · ctrl+l: logout · ctrl+c: quit")
}

func (m browseModel) bannerView(item core.MediaItem) string {
	n := len(m.snap.Feed.Featured)
	dots := make([]string, n)
	for i := range dots {
		dots[i] = "○"
	}
	dots[m.snap.FeaturedIndex%n] = "●"

	title := itemTitle(item)
	if m.row == -1 {
		title = styleSelected.Render(title)
	}
	content := title + "\n" +
		styleDim.Render(itemFacts(item)) + "\n" +
		format.Truncate(item.Overview, overviewWidth) + "\n" +
		styleDim.Render(strings.Join(dots, " "))

	style := styleBanner
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(content)
}

// rowView shows a window of cards around the cursor.
func (m browseModel) rowView(items []core.MediaItem, rowIdx int) string {
	if len(items) == 0 {
		return styleDim.Render("    (empty)")
	}
	visible := max(m.width/(cardWidth+2), 3)
	start := 0
	if rowIdx == m.row && m.col >= visible {
		start = m.col - visible + 1
	}
	end := min(start+visible, len(items))

	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := format.Truncate(items[i].Title, cardWidth-2)
		if y := format.Year(items[i].ReleaseDate); y != "" {
			label += " " + styleDim.Render(y)
		}
		if rowIdx == m.row && i == m.col {
			label = styleSelected.Render(format.Truncate(items[i].Title, cardWidth-2))
		}
		cards = append(cards, lipgloss.NewStyle().Width(cardWidth).Render(label))
	}
	return "    " + lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m browseModel) detailsView() string {
	if m.loadingDetails {
		return m.spinner.View() + styleDim.Render(" Loading details...")
	}
	if m.view == nil {
		return ""
	}
	out := m.viewport.View() + "\n"
	if m.notice != "" {
		out += styleSuccess.Render(m.notice) + "\n"
	}
	help := "↑↓ scroll · esc: back · ctrl+c: quit"
	if m.view.Trailer != nil {
		help = "p: play trailer · " + help
	}
	return out + styleDim.Render(help)
}

func itemTitle(item core.MediaItem) string {
	if y := format.Year(item.ReleaseDate); y != "" {
		return fmt.Sprintf("%s (%s)", item.Title, y)
	}
	return item.Title
}

func itemFacts(item core.MediaItem) string {
	kind := "Movie"
	if item.IsSeries() {
		kind = "TV"
	}
	if item.VoteAverage > 0 {
		return kind + " · ★ " + format.Rating(item.VoteAverage)
	}
	return kind
}

// renderDetails formats a details view for the viewport.
func renderDetails(v *details.View, inlineFrames bool, width int) string {
	d := v.Details
	var sb strings.Builder

	sb.WriteString(styleHeader.Render(itemTitle(d.Item)))
	sb.WriteString("\n")
	if d.Tagline != "" {
		sb.WriteString(styleDim.Render(d.Tagline))
		sb.WriteString("\n")
	}

	facts := []string{itemFacts(d.Item)}
	if rt := format.Runtime(d.Runtime); rt != "" {
		facts = append(facts, rt)
	}
	if d.NumberOfSeasons > 0 {
		facts = append(facts, fmt.Sprintf("%d seasons, %d episodes", d.NumberOfSeasons, d.NumberOfEpisodes))
	}
	if len(d.Genres) > 0 {
		names := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			names[i] = g.Name
		}
		facts = append(facts, strings.Join(names, ", "))
	}
	sb.WriteString(strings.Join(facts, " · "))
	sb.WriteString("\n\n")

	overview := d.Item.Overview
	if overview == "" {
		overview = "No overview available."
	}
	wrap := lipgloss.NewStyle()
	if width > 4 {
		wrap = wrap.Width(width - 2)
	}
	sb.WriteString(wrap.Render(overview))
	sb.WriteString("\n")

	if len(v.Cast) > 0 {
		sb.WriteString("\n" + styleInfo.Render("Cast") + "\n")
		for _, c := range v.Cast {
			line := "  " + c.Name
			if c.Character != "" {
				line += styleDim.Render(" as " + c.Character)
			}
			sb.WriteString(line + "\n")
		}
	}
	if len(v.Crew) > 0 {
		sb.WriteString("\n" + styleInfo.Render("Crew") + "\n")
		for _, c := range v.Crew {
			sb.WriteString("  " + c.Name + styleDim.Render(" ("+c.Job+")") + "\n")
		}
	}
	if len(v.Videos) > 0 {
		sb.WriteString("\n" + styleInfo.Render("Videos") + "\n")
		for _, vid := range v.Videos {
			sb.WriteString("  " + vid.Name + styleDim.Render(" · "+vid.Type) + "\n")
		}
	}

	sb.WriteString("\n")
	if pb, err := details.ResolvePlayback(v.Trailer, inlineFrames); err == nil {
		sb.WriteString(styleSuccess.Render("Trailer: ") + pb.URL + "\n")
	} else {
		sb.WriteString(styleDim.Render("No trailer available") + "\n")
	}
	return sb.String()
}
