// Package theme holds the terminal styles shared by the command line
// output.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/report"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section headers in text output.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// DetailPanelStyle wraps the body preview of a single record.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// HelpStyle is used for hints and secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// WarningStyle marks validator warnings.
var WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)

// IssueStyle marks HTML structure issues.
var IssueStyle = lipgloss.NewStyle().Foreground(ColorOrange)

// ErrorStyle marks failures.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// OKStyle marks a clean check result.
var OKStyle = lipgloss.NewStyle().Foreground(ColorGreen)

// StatusStyle returns a color-coded style for a record status.
func StatusStyle(status model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch status {
	case model.StatusActive:
		return base.Foreground(ColorGreen)
	case model.StatusInactive:
		return base.Foreground(ColorGray)
	case model.StatusDraft:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// WeekStyle returns the style of a timeline cell.
func WeekStyle(state report.WeekState) lipgloss.Style {
	switch state {
	case report.WeekCompleted:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case report.WeekDraft:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	default:
		return lipgloss.NewStyle().Foreground(ColorGray)
	}
}

// CompletionStyle returns the style of a completion label.
func CompletionStyle(complete bool) lipgloss.Style {
	if complete {
		return lipgloss.NewStyle().Foreground(ColorGreen)
	}
	return lipgloss.NewStyle().Foreground(ColorYellow)
}
