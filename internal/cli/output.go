package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	draftStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	publishedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

const columnGap = 2

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeBlogTable(w io.Writer, blogs []*model.Blog) error {
	rows := [][]string{{"ID", "STATUS", "UPDATED", "TITLE", "TAGS"}}
	for _, b := range blogs {
		rows = append(rows, []string{
			string(b.ID),
			string(b.Status),
			humanize.Time(b.UpdatedAt),
			b.Title,
			strings.Join(b.Tags, ","),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellStyle(i, j, cell).Width(widths[j] + columnGap).Render(cell)
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "")); err != nil {
			return err
		}
	}
	return nil
}

func cellStyle(row, col int, cell string) lipgloss.Style {
	switch {
	case row == 0:
		return headerStyle
	case col == 1 && cell == string(model.StatusDraft):
		return draftStyle
	case col == 1 && cell == string(model.StatusPublished):
		return publishedStyle
	default:
		return lipgloss.NewStyle()
	}
}
