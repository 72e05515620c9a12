// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pdiddy/target-explorer/pkg/types"
)

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold = lipgloss.NewStyle().Bold(true)
	dim  = lipgloss.NewStyle().Faint(true)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Truncate cuts s to maxLen runes, appending "…" when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

// Table writes rows under headers as a bordered terminal table.
func Table(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
}

func formatArticlesHuman(w io.Writer, articles []types.Article) error {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return nil
	}

	rows := make([][]string, 0, len(articles))
	for i, a := range articles {
		year := ""
		if a.PubYear > 0 {
			year = strconv.Itoa(a.PubYear)
		}
		id := a.PMID
		if id == "" {
			id = a.PMCID
		}
		if id == "" {
			id = a.ID
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cyan.Render(id),
			year,
			Truncate(a.Title, 60),
			a.URL,
		})
	}
	Table(w, []string{"#", "ID", "Year", "Title", "URL"}, rows)
	fmt.Fprintln(w, dim.Render(fmt.Sprintf("%d articles", len(articles))))
	return nil
}

func formatTargetsHuman(w io.Writer, records []types.TargetRecord, merges []types.MergeEvent) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No targets found.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			bold.Render(Truncate(rec.Name, 30)),
			cyan.Render(rec.Accession),
			strconv.Itoa(rec.Frequency),
			strconv.Itoa(rec.NArticles()),
			rec.ReferenceURL,
		})
	}
	Table(w, []string{"Rank", "Name", "Accession", "Mentions", "Articles", "Reference"}, rows)

	for _, m := range merges {
		fmt.Fprintln(w, dim.Render(fmt.Sprintf(
			"note: %q combines %d accession tags with %d name-only tags",
			m.Key, m.AccessionTags, m.NameOnlyTags)))
	}
	return nil
}

func formatLinksHuman(w io.Writer, rec types.TargetRecord) error {
	header := rec.Name
	if rec.Accession != "" {
		header += " (" + rec.Accession + ")"
	}
	fmt.Fprintln(w, bold.Render(header))
	if len(rec.ArticleLinks) == 0 {
		fmt.Fprintln(w, "No supporting articles.")
		return nil
	}

	rows := make([][]string, 0, len(rec.ArticleLinks))
	for _, l := range rec.ArticleLinks {
		rows = append(rows, []string{cyan.Render(l.Token), l.URL})
	}
	Table(w, []string{"Article", "URL"}, rows)
	return nil
}
