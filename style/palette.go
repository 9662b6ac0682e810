package style

import "github.com/charmbracelet/lipgloss"

// Player theme: dark stage, red live accents.
var (
	Base   = lipgloss.Color("#111827")
	Text   = lipgloss.Color("#f3f4f6")
	Muted  = lipgloss.Color("#9ca3af")
	Border = lipgloss.Color("#374151")

	LiveRed = lipgloss.Color("#dc2626")
	Amber   = lipgloss.Color("#f59e0b")
	Emerald = lipgloss.Color("#10b981")
	Rose    = lipgloss.Color("#f87171")
	Violet  = lipgloss.Color("#a78bfa")
)

var (
	AccentColor  = Violet
	SuccessColor = Emerald
	WarningColor = Amber
	ErrorColor   = Rose
	HiRed        = LiveRed
	FaintColor   = Muted
	BorderColor  = Border
)
