// Package theme provides the Lip Gloss color palette and reusable styles
// for the ping console. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Log line colors.
var (
	ColorNotice  = lipgloss.Color("#7c3aed")
	ColorPayload = lipgloss.Color("#e5e7eb")
	ColorRaw     = lipgloss.Color("#06b6d4")
	ColorSession = lipgloss.Color("#2563eb")
	ColorErrored = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)
)

// KindColor returns the color for a log entry kind.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "ping":
		return ColorPayload
	case "raw":
		return ColorRaw
	case "ws":
		return ColorSession
	case "err":
		return ColorErrored
	case ">":
		return ColorNotice
	default:
		return ColorDimmed
	}
}
