package render

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// TextRenderer draws the tooltip as a bordered terminal panel. It is the
// preview used by the CLI; the output is not markup.
type TextRenderer struct {
	// Width caps the panel width; zero uses the terminal width.
	Width   int
	NoColor bool
}

const (
	fallbackWidth = 80
	cellGap       = 3
)

var (
	headerColor = lipgloss.Color("81")
	pillColor   = lipgloss.Color("114")
	borderColor = lipgloss.Color("238")
	mutedColor  = lipgloss.Color("246")
)

// Render implements Renderer.
func (r TextRenderer) Render(ctx context.Context, data Data) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	maxWidth := r.maxWidth()

	header := data.Header
	if data.ActiveClass == "" {
		header += " (inactive)"
	}
	lines := []string{r.style(headerColor, true).Render(runewidth.Truncate(header, maxWidth, "…"))}

	if len(data.Pills) > 0 {
		pills := make([]string, 0, len(data.Pills))
		for _, p := range data.Pills {
			pills = append(pills, "["+cell(p.Icon, p.Value)+"]")
		}
		lines = append(lines, r.style(pillColor, false).Render(runewidth.Truncate(strings.Join(pills, " "), maxWidth, "…")))
	}

	columns := max(data.ColumnCount, 1)
	cells := make([]string, len(data.Rows))
	width := 0
	for i, row := range data.Rows {
		cells[i] = cell(row.Icon, row.Value)
		width = max(width, runewidth.StringWidth(cells[i]))
	}
	if limit := (maxWidth - cellGap*(columns-1)) / columns; width > limit && limit > 0 {
		width = limit
	}
	for start := 0; start < len(cells); start += columns {
		end := min(start+columns, len(cells))
		parts := make([]string, 0, end-start)
		for _, c := range cells[start:end] {
			c = runewidth.Truncate(c, width, "…")
			parts = append(parts, runewidth.FillRight(c, width))
		}
		lines = append(lines, strings.TrimRight(strings.Join(parts, strings.Repeat(" ", cellGap)), " "))
	}

	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if !r.NoColor {
		box = box.BorderForeground(borderColor)
	}
	pos := r.style(mutedColor, false).Render(fmt.Sprintf("@ %d,%d", data.PosX, data.PosY))
	return box.Render(strings.Join(lines, "\n")) + "\n" + pos, nil
}

func (r TextRenderer) style(c color.Color, bold bool) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(bold)
	if !r.NoColor {
		s = s.Foreground(c)
	}
	return s
}

func (r TextRenderer) maxWidth() int {
	w := r.Width
	if w <= 0 {
		if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
			w = tw
		} else {
			w = fallbackWidth
		}
	}
	// border and padding
	return max(w-4, 10)
}

// cell shows a row as "icon-name: value"; the icon class is abbreviated to
// its last segment, e.g. "fa-solid fa-heart" becomes "heart".
func cell(icon, value string) string {
	name := icon
	if fields := strings.Fields(icon); len(fields) > 0 {
		name = strings.TrimPrefix(fields[len(fields)-1], "fa-")
	}
	if name == "" {
		return value
	}
	return name + ": " + value
}
