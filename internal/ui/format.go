package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Truncate shortens a plain string to maxLen, appending … if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}

// TruncateStyled shortens a string that may contain ANSI escape sequences.
func TruncateStyled(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	return ansi.Truncate(s, maxLen, "")
}

// padRight pads or truncates a plain string to exactly w cells.
func padRight(s string, w int) string {
	s = Truncate(s, w)
	if n := lipgloss.Width(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}

// cursorRow highlights a row as the cursor selection.
func cursorRow(row string, w int) string {
	return lipgloss.NewStyle().Reverse(true).Render(padRight(ansi.Strip(row), w))
}

// centerOffset returns the top-left corner that centers a w×h block in a
// width×height area.
func centerOffset(w, h, width, height int) (x, y int) {
	return max((width-w)/2, 0), max((height-h)/2, 0)
}

// blockSize returns the width and height of a rendered block.
func blockSize(s string) (w, h int) {
	lines := strings.Split(s, "\n")
	for _, l := range lines {
		w = max(w, lipgloss.Width(l))
	}
	return w, len(lines)
}

// Overlay composites fg on top of bg with its top-left corner at x, y.
func Overlay(bg, fg string, x, y, height int) string {
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, "")
	}

	for i, fgLine := range strings.Split(fg, "\n") {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		bgLine := bgLines[row]
		left := ansi.Truncate(bgLine, x, "")
		if leftW := lipgloss.Width(left); leftW < x {
			left += strings.Repeat(" ", x-leftW)
		}
		right := ansi.TruncateLeft(bgLine, x+lipgloss.Width(fgLine), "")
		bgLines[row] = left + fgLine + right
	}

	if len(bgLines) > height {
		bgLines = bgLines[:height]
	}
	return strings.Join(bgLines, "\n")
}

// renderBox renders a bordered panel with a title embedded in the top
// border. Content is padded or cut to fill width×height including borders.
func renderBox(title, content string, width, height int, theme *Theme) string {
	if width < 4 {
		width = 4
	}
	if height < 3 {
		height = 3
	}

	innerW := width - 2
	borderStyle := lipgloss.NewStyle().Foreground(theme.Border)
	titleStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	var top string
	if title != "" {
		titleStr := " " + title + " "
		if lipgloss.Width(titleStr) > innerW-2 {
			titleStr = TruncateStyled(titleStr, innerW-2)
		}
		trailing := max(innerW-1-lipgloss.Width(titleStr), 0)
		top = borderStyle.Render("╭─") + titleStyle.Render(titleStr) + borderStyle.Render(strings.Repeat("─", trailing)+"╮")
	} else {
		top = borderStyle.Render("╭" + strings.Repeat("─", innerW) + "╮")
	}

	lines := strings.Split(content, "\n")
	innerH := height - 2
	for len(lines) < innerH {
		lines = append(lines, "")
	}
	if len(lines) > innerH {
		lines = lines[:innerH]
	}

	var b strings.Builder
	b.WriteString(top)
	b.WriteByte('\n')
	for _, line := range lines {
		pad := innerW - lipgloss.Width(line)
		if pad < 0 {
			pad = 0
			line = TruncateStyled(line, innerW)
		}
		b.WriteString(borderStyle.Render("│"))
		b.WriteString(line)
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(borderStyle.Render("│"))
		b.WriteByte('\n')
	}
	b.WriteString(borderStyle.Render("╰" + strings.Repeat("─", innerW) + "╯"))
	return b.String()
}

// window returns the [start, end) slice of n rows that fits height rows and
// keeps sel visible.
func window(sel, n, height int) (start, end int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	if n <= height {
		return 0, n
	}
	start = max(sel-height/2, 0)
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
