package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height
// lines tall. This makes split-pane rendering stable when using lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")

	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i := range lines {
		lines[i] = fitWidth(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

// fitWidth truncates (with an ellipsis) or pads ln to exactly width columns.
func fitWidth(ln string, width int) string {
	// Cut huge lines early so width computations stay bounded.
	if width > 0 && len(ln) > 8192 {
		ln = xansi.Cut(ln, 0, width)
	}
	w := xansi.StringWidth(ln)
	if w > width {
		switch {
		case width <= 0:
			ln = ""
		case width == 1:
			ln = xansi.Cut(ln, 0, 1)
		default:
			ln = xansi.Cut(ln, 0, width-1) + "…"
		}
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

func modalBoxWidth(termWidth int) int {
	w := termWidth - 8
	if w > 64 {
		w = 64
	}
	if w < 24 {
		w = 24
	}
	return w
}

func modalBodyWidth(termWidth int) int {
	return modalBoxWidth(termWidth) - 4
}

// renderModalBox draws a titled box; callers center it with placeModal.
func renderModalBox(termWidth int, title, body string) string {
	w := modalBoxWidth(termWidth)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorModalHeaderBg).
		Width(w-2).
		Padding(0, 1).
		Render(title)
	content := lipgloss.NewStyle().
		Foreground(colorSurfaceFg).
		Width(w-2).
		Padding(1, 1).
		Render(body)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}

func placeModal(width, height int, box string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}

// renderPrompt draws label followed by the text input on one shaded line of exactly width columns.
func renderPrompt(width int, label, input string) string {
	input = strings.NewReplacer("\n", " ", "\r", " ").Replace(input)
	bg := lipgloss.NewStyle().Background(colorInputBg)
	line := styleMuted().Render(label) + bg.Render(" "+input+" ")
	if pad := width - xansi.StringWidth(line); pad > 0 {
		line += bg.Render(strings.Repeat(" ", pad))
	}
	if xansi.StringWidth(line) > width {
		line = xansi.Cut(line, 0, width) + "\x1b[0m"
	}
	return line
}
