package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thobiasn/skiff/internal/config"
	"github.com/thobiasn/skiff/internal/state"
)

// Theme holds all colors used by the dashboard. Views reference theme
// fields, never raw color values.
type Theme struct {
	Fg       lipgloss.Color
	FgDim    lipgloss.Color
	Border   lipgloss.Color
	Accent   lipgloss.Color
	Healthy  lipgloss.Color
	Warning  lipgloss.Color
	Critical lipgloss.Color
	GraphCPU lipgloss.Color
	GraphMem lipgloss.Color
}

// TerminalTheme returns the ANSI default theme so the dashboard inherits the
// terminal's palette.
func TerminalTheme() Theme {
	return Theme{
		Fg:       lipgloss.Color("7"),
		FgDim:    lipgloss.Color("8"),
		Border:   lipgloss.Color("8"),
		Accent:   lipgloss.Color("4"),
		Healthy:  lipgloss.Color("2"),
		Warning:  lipgloss.Color("3"),
		Critical: lipgloss.Color("1"),
		GraphCPU: lipgloss.Color("12"),
		GraphMem: lipgloss.Color("13"),
	}
}

// BuildTheme returns the terminal theme with any non-empty ThemeConfig
// fields applied as overrides.
func BuildTheme(tc config.ThemeConfig) Theme {
	t := TerminalTheme()
	override := func(dst *lipgloss.Color, src string) {
		if src != "" {
			*dst = lipgloss.Color(src)
		}
	}
	override(&t.Fg, tc.Fg)
	override(&t.FgDim, tc.FgDim)
	override(&t.Border, tc.Border)
	override(&t.Accent, tc.Accent)
	override(&t.Healthy, tc.Healthy)
	override(&t.Warning, tc.Warning)
	override(&t.Critical, tc.Critical)
	override(&t.GraphCPU, tc.GraphCPU)
	override(&t.GraphMem, tc.GraphMem)
	return t
}

// StateColor returns the color for a container state.
func (t Theme) StateColor(s state.State) lipgloss.Color {
	switch s {
	case state.StateRunning:
		return t.Healthy
	case state.StatePaused, state.StateRestarting, state.StateRemoving:
		return t.Warning
	case state.StateExited, state.StateDead:
		return t.Critical
	default:
		return t.FgDim
	}
}

func mutedStyle(t *Theme) lipgloss.Style { return lipgloss.NewStyle().Foreground(t.FgDim) }
func accentStyle(t *Theme) lipgloss.Style { return lipgloss.NewStyle().Foreground(t.Accent) }
func fgStyle(t *Theme) lipgloss.Style { return lipgloss.NewStyle().Foreground(t.Fg) }
