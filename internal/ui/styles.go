package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#00A0DC") // Blue - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - enabled, success
	ErrorColor   = lipgloss.Color("#FF5555") // Red - disabled, errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings, pending changes
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF")
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	// TitleStyle is for section titles (e.g., "RADIOS")
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// SubtitleStyle is for the line under a title (host, firmware)
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	EnabledStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// BandStyle is for the band column
	BandStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(8)

	// NameStyle is for device and network names
	NameStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Width(18)

	AddStyle    = lipgloss.NewStyle().Foreground(SuccessColor)
	UpdateStyle = lipgloss.NewStyle().Foreground(WarningColor)
	RemoveStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)
)

// Markers
const (
	SuccessMarker  = "✓"
	FailureMarker  = "✗"
	EnabledMarker  = "●"
	DisabledMarker = "○"
)

// GetTerminalWidth returns the current terminal width, clamped to the
// supported range.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// BoxStyle returns a rounded box in the primary color
func BoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	if width < 0 {
		width = 0
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}
