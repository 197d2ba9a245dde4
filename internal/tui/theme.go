package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"nexdo/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// The TUI must remain readable on both light and dark terminal backgrounds.
// We use lipgloss.AdaptiveColor everywhere and only apply "faint" styling
// on dark backgrounds (faint text on light terminals often becomes illegible).

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

// Common semantic colors used across the TUI. applyProfile swaps them per appearance profile.
var (
	colorMuted          = ac("240", "243")
	colorChromeMutedFg  = ac("240", "245")
	colorSelectedBg     = ac("#e9e9e9", "#262626")
	colorSelectedFg     = ac("235", "255")
	colorSurfaceFg      = ac("235", "252")
	colorControlBg      = ac("252", "235")
	colorInputBg        = ac("254", "234")
	colorAccent         = ac("27", "62")
	colorAccentFg       = ac("255", "235")
	colorModalSurfaceBg = ac("255", "235")
	colorModalHeaderBg  = ac("252", "237")
	colorError          = ac("160", "203")
	colorSuccess        = ac("28", "78")
	colorDropLine       = ac("27", "75")
)

// Appearance profiles selectable with tui.profile in config.yaml.
const (
	profileDefault = "default"
	profileNeon    = "neon"
	profileMono    = "mono"
)

func applyProfile(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case profileNeon:
		colorAccent = ac("161", "213")
		colorSelectedBg = ac("#fde4f2", "#3a1d3a")
		colorDropLine = ac("161", "213")
		return profileNeon
	case profileMono:
		colorAccent = ac("235", "252")
		colorSelectedBg = ac("252", "238")
		colorDropLine = ac("235", "252")
		colorError = ac("235", "252")
		colorSuccess = ac("235", "252")
		return profileMono
	default:
		return profileDefault
	}
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
}

func priorityColor(p model.Priority) lipgloss.AdaptiveColor {
	switch p {
	case model.PriorityUrgent:
		return ac("160", "203")
	case model.PriorityHigh:
		return ac("166", "215")
	case model.PriorityMedium:
		return ac("136", "221")
	case model.PriorityLow:
		return ac("31", "117")
	default:
		return colorMuted
	}
}

// statusColor maps the status palette names to terminal colors.
func statusColor(name string) lipgloss.AdaptiveColor {
	switch name {
	case "amber":
		return ac("136", "221")
	case "red":
		return ac("160", "203")
	case "purple":
		return ac("91", "177")
	case "green":
		return colorSuccess
	case "blue":
		return ac("27", "111")
	default:
		return colorChromeMutedFg
	}
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
//
// Note: termenv.EnvColorProfile respects CLICOLOR/CLICOLOR_FORCE, which is useful for
// non-interactive CLI output but can accidentally disable colors in a TUI. For the TUI,
// we only honor NO_COLOR and otherwise follow the terminal's capabilities.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// If TERM/COLORTERM indicate stronger support than the detector reports, trust the env.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures Lip Gloss's background detection.
//
// Priority:
// 1) NEXDO_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic (format like "15;0" = fg;bg)
// 3) macOS appearance
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("NEXDO_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
			return
		}
	}

	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
		}
	}
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// `defaults read -g AppleInterfaceStyle` prints "Dark" in dark mode and exits 1 in light mode.
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
