package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/arcade/internal/catalog"
	"github.com/mmcdole/arcade/internal/domain"
	"github.com/mmcdole/arcade/internal/paging"
	"github.com/mmcdole/arcade/internal/tui/styles"
)

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	rows := m.listRows()
	var body string
	switch m.mode {
	case ViewSaved:
		body = m.renderSaved(rows)
	case ViewDetails:
		body = m.renderDetails()
	case ViewFacets:
		body = m.renderFacets(rows)
	default:
		body = m.renderBrowse(rows)
	}
	body = lipgloss.NewStyle().Height(rows).MaxHeight(rows).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := styles.BadgeStyle.Render("arcade")

	var label, sub string
	switch m.mode {
	case ViewSaved:
		label = "Saved"
		sub = fmt.Sprintf("%d saved", len(m.savedItems))
		if m.savedFilter != "" {
			sub = fmt.Sprintf("%d of %d saved match %q",
				len(m.filteredSaved()), len(m.savedItems), m.savedFilter)
		}
	case ViewFacets:
		label = m.facetTitle()
		sub = "enter toggles, esc returns"
	default:
		label = m.describeQuery(m.snap.Query)
		sub = m.describeCount()
	}

	line := title + " " + styles.TitleStyle.Render(styles.Truncate(label, m.width-lipgloss.Width(title)-3))
	subLine := styles.DimStyle.Render(styles.Truncate(sub, m.width-2))
	if m.inputMode != InputNone {
		subLine = m.input.View()
	}
	return styles.HeaderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, line, subLine))
}

func (m Model) renderFooter() string {
	var helpView string
	if m.showHelp {
		helpView = m.help.FullHelpView(m.keys.FullHelp())
	} else {
		helpView = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return styles.FooterStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(), helpView))
}

func (m Model) statusLine() string {
	if m.confirming {
		return styles.ErrorStyle.Render("Remove every saved game? (y/n)")
	}
	if m.status != "" {
		if m.statusIsErr {
			return styles.ErrorStyle.Render(m.status)
		}
		return styles.SuccessStyle.Render(m.status)
	}
	if m.mode != ViewBrowse {
		return ""
	}

	snap := m.snap
	switch {
	case snap.Retryable:
		return styles.ErrorStyle.Render(loadFailureVerb(snap.Failed)+": "+snap.Err.Error()) +
			styles.DimStyle.Render("  (r to retry)")
	case snap.State == paging.StateLoadingForward, snap.State == paging.StateLoadingBackward:
		return m.spinner.View() + " " + styles.DimStyle.Render(snap.State.String()+"...")
	case snap.State == paging.StateLoadingInitial && len(snap.Items) > 0:
		return m.spinner.View() + " " + styles.DimStyle.Render("refreshing...")
	}
	return ""
}

func loadFailureVerb(kind paging.LoadKind) string {
	if kind == paging.LoadBackward {
		return "Couldn't load earlier games"
	}
	return "Couldn't load more games"
}

// describeQuery renders the active query using platform and genre names when
// they are known.
func (m Model) describeQuery(q domain.QuerySpec) string {
	if q.IsSearch() {
		return "Search: " + strconv.Quote(q.Text())
	}
	f := q.Filter()
	if !f.HasActiveFilters() {
		return "All games"
	}

	var parts []string
	if ids := f.Platforms(); len(ids) > 0 {
		parts = append(parts, describeRefs(m.facets.Platforms, ids, "platform"))
	}
	if ids := f.Genres(); len(ids) > 0 {
		parts = append(parts, describeRefs(m.facets.Genres, ids, "genre"))
	}
	if f.Sort().IsSet() {
		parts = append(parts, "by "+strings.ToLower(f.Sort().Label()))
	}
	return strings.Join(parts, " · ")
}

func describeRefs(refs []domain.Ref, ids []int, noun string) string {
	names := catalog.Names(refs, ids)
	if len(names) == len(ids) {
		return strings.Join(names, ", ")
	}
	if len(ids) == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", len(ids), noun)
}

func (m Model) describeCount() string {
	snap := m.snap
	if len(snap.Items) == 0 {
		return ""
	}
	if snap.TotalCount > 0 {
		return fmt.Sprintf("%d of %d games", len(snap.Items), snap.TotalCount)
	}
	return fmt.Sprintf("%d games", len(snap.Items))
}

func (m Model) renderBrowse(rows int) string {
	snap := m.snap
	switch {
	case snap.Blocking:
		return styles.ErrorStyle.Render("  Couldn't load games: "+snap.Err.Error()) + "\n" +
			styles.DimStyle.Render("  Press r to retry")
	case len(snap.Items) == 0 && snap.State == paging.StateLoadingInitial:
		return "  " + m.spinner.View() + " " + styles.DimStyle.Render("Loading games...")
	case len(snap.Items) == 0:
		return styles.DimStyle.Render("  No games match")
	}

	start, end := m.list.visible(len(snap.Items), rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderCatalogRow(snap.Items[i], i == m.list.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCatalogRow(item domain.CatalogItem, selected bool) string {
	mark := styles.UnsavedChar
	markColor := styles.DimGray
	if m.isSaved(item.ID) {
		mark = styles.SavedChar
		markColor = styles.Gold
	}

	meta := rowMeta(item.ReleaseYear(), item.FormattedRating())
	nameWidth := max(m.width-lipgloss.Width(meta)-6, 10)

	parts := []styles.RowPart{
		{Text: mark + " ", Foreground: &markColor},
		{Text: styles.Truncate(item.Name, nameWidth)},
	}
	if meta != "" {
		dim := styles.DimGray
		parts = append(parts, styles.RowPart{Text: "  " + meta, Foreground: &dim})
	}
	return styles.RenderListRow(parts, selected, m.width)
}

func rowMeta(year int, rating string) string {
	var parts []string
	if year > 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	if rating != "" {
		parts = append(parts, "★ "+rating)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderSaved(rows int) string {
	matches := m.filteredSaved()
	if len(matches) == 0 {
		if len(m.savedItems) == 0 {
			return styles.DimStyle.Render("  Nothing saved yet. Press space on a game to save it.")
		}
		return styles.DimStyle.Render("  No saved games match")
	}

	start, end := m.savedList.visible(len(matches), rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		match := matches[i]
		selected := i == m.savedList.cursor
		name := styles.HighlightMatches(match.Item.Name, match.MatchedIndexes, selected)

		gold := styles.Gold
		parts := []styles.RowPart{
			{Text: styles.SavedChar + " ", Foreground: &gold},
			{Text: name},
		}
		if meta := rowMeta(match.Item.ReleaseYear(), match.Item.FormattedRating()); meta != "" {
			dim := styles.DimGray
			parts = append(parts, styles.RowPart{Text: "  " + meta, Foreground: &dim})
		}
		lines = append(lines, styles.RenderListRow(parts, selected, m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetails() string {
	item := m.detailsBase
	loading := m.details == nil
	if !loading {
		item = *m.details
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(item.Name))
	if m.isSaved(item.ID) {
		b.WriteString("  " + styles.SavedMark)
	}
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%-11s", label)))
		b.WriteString(value + "\n")
	}
	field("Released", item.Released)
	field("Rating", item.FormattedRating())
	if item.Metacritic != nil {
		field("Metacritic", strconv.Itoa(*item.Metacritic))
	}
	field("Platforms", item.PlatformNames())
	field("Genres", item.GenreNames())
	field("Website", item.Website)
	if n := len(item.Screenshots); n > 0 {
		field("Screenshots", strconv.Itoa(n))
	}

	if loading {
		b.WriteString("\n" + m.spinner.View() + " " + styles.DimStyle.Render("Loading details..."))
	} else if item.Description != "" {
		b.WriteString("\n" + styles.SubtitleStyle.Render(item.Description))
	}

	width := max(m.width-4, 20)
	return styles.DetailsStyle.Width(width).Render(b.String())
}

func (m Model) facetTitle() string {
	if m.facetKind == FacetGenres {
		return "Genres"
	}
	return "Platforms"
}

func (m Model) renderFacets(rows int) string {
	refs := m.facetRefs()
	if len(refs) == 0 {
		return styles.DimStyle.Render("  No matches")
	}

	filter := m.session.Filter()
	start, end := m.facetList.visible(len(refs), rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		ref := refs[i]
		checked := filter.HasPlatform(ref.ID)
		if m.facetKind == FacetGenres {
			checked = filter.HasGenre(ref.ID)
		}

		box := "[ ] "
		var boxColor *lipgloss.Color
		if checked {
			box = "[x] "
			accent := styles.Accent
			boxColor = &accent
		}
		parts := []styles.RowPart{
			{Text: box, Foreground: boxColor},
			{Text: ref.Name},
		}
		lines = append(lines, styles.RenderListRow(parts, i == m.facetList.cursor, m.width))
	}
	return strings.Join(lines, "\n")
}
