package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan, headings
	colorAccent  = lipgloss.Color("#FFD700") // Gold, warnings
	colorSuccess = lipgloss.Color("#00E676") // Green, completed
	colorDanger  = lipgloss.Color("#FF5252") // Red, critical and errors
	colorMuted   = lipgloss.Color("#8C8C8C") // Gray, secondary text
)

// Status icons.
const (
	iconDone     = "✓"
	iconFailed   = "✗"
	iconSkipped  = "–"
	iconCritical = "★"
	iconBullet   = "•"
)

// styles binds the palette to one renderer so that color detection follows
// the writer being rendered to.
type styles struct {
	heading  lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	critical lipgloss.Style
	border   lipgloss.Style
	muted    lipgloss.Style
	success  lipgloss.Style
	danger   lipgloss.Style
	warn     lipgloss.Style
	label    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	cell := r.NewStyle().Padding(0, 1)
	return styles{
		heading:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		header:   cell.Bold(true).Foreground(colorPrimary),
		cell:     cell,
		critical: cell.Bold(true).Foreground(colorDanger),
		border:   r.NewStyle().Foreground(colorMuted),
		muted:    r.NewStyle().Foreground(colorMuted),
		success:  r.NewStyle().Bold(true).Foreground(colorSuccess),
		danger:   r.NewStyle().Bold(true).Foreground(colorDanger),
		warn:     r.NewStyle().Bold(true).Foreground(colorAccent),
		label:    r.NewStyle().Foreground(colorMuted).Width(22),
	}
}
