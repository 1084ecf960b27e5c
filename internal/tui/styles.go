package tui

import "github.com/charmbracelet/lipgloss"

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#D97706")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#D97706")).
			MarginTop(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#30d158")).Bold(true)
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff453a")).Bold(true)

	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#F59E0B")).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	priceStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D97706"))

	focusedPane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#F59E0B")).Padding(0, 1)
	blurredPane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 2).
			Width(18)

	freeTableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#065F46")).Background(lipgloss.Color("#D1FAE5")).Padding(0, 1)
	busyTableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#991B1B")).Background(lipgloss.Color("#FEE2E2")).Padding(0, 1)
)

var statusStyles = map[string]lipgloss.Style{
	"pending":   lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true),
	"preparing": lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")).Bold(true),
	"ready":     lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true),
	"delivered": lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
}

func pane(focused bool) lipgloss.Style {
	if focused {
		return focusedPane
	}
	return blurredPane
}
