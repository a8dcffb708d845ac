package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // accent
	colorAccent     = lipgloss.Color("#FFD700") // attention
	colorSuccess    = lipgloss.Color("#00E676") // healthy
	colorDanger     = lipgloss.Color("#FF5252") // errors
	colorMuted      = lipgloss.Color("#636363")
	colorMutedLight = lipgloss.Color("#8C8C8C")
	colorWhite      = lipgloss.Color("#EEEEEE")
	colorSurface    = lipgloss.Color("#1E1E2E") // status bar bg
	colorSurfaceDim = lipgloss.Color("#181825") // footer bg
)

// Status icons.
const (
	iconOK      = "✓"
	iconFailed  = "✗"
	iconWorking = "◎"
	iconIdle    = "·"
)

// Status bar styles.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleStatusValue = lipgloss.NewStyle().
				Foreground(colorWhite)

	styleStatusActive = lipgloss.NewStyle().
				Foreground(colorAccent)
)

var (
	styleOK     = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleBody   = lipgloss.NewStyle().Padding(1, 2)
)

// Footer styles.
var (
	styleFooter = lipgloss.NewStyle().
			Background(colorSurfaceDim).
			Foreground(colorMuted).
			Padding(0, 1)

	styleFooterKey = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleFooterDesc = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleFooterSep = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// CompactWidth is the terminal width below which the footer drops
// descriptions and the status bar drops the phase segment.
const CompactWidth = 60
