package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/foodly/order-notify/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the top bar and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ListItemStyle is the base style for items in the notification list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// UnreadStyle marks unread notifications in the dropdown list.
var UnreadStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// ReadStyle dims notifications the user has already seen.
var ReadStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HelpStyle is used for keyboard shortcut hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ToastStyle frames a transient popup.
var ToastStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder())

// FadingToastStyle renders a toast in its brief dismiss transition.
var FadingToastStyle = ToastStyle.
	Foreground(ColorSubtle).
	BorderForeground(ColorSubtle)

// ErrorStyle renders REST failure messages.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// kindIcons is the closed-set mapping from notification kind to the icon
// shown next to it.
var kindIcons = map[model.Kind]string{
	model.KindNewOrder:            "🛒",
	model.KindOrderConfirmed:      "✅",
	model.KindOrderCooking:        "🍳",
	model.KindOrderOutForDelivery: "🛵",
	model.KindOrderDelivered:      "🎉",
	model.KindOrderCancelled:      "❌",
	model.KindOrderStatusUpdate:   "📦",
	model.KindDeliveryAssigned:    "🧑",
}

// KindIcon returns the icon for a notification kind, with a bell fallback
// for unknown kinds.
func KindIcon(kind model.Kind) string {
	if icon, ok := kindIcons[kind]; ok {
		return icon
	}
	return "🔔"
}

// PriorityColor returns the accent color for the given priority.
func PriorityColor(priority model.Priority) lipgloss.AdaptiveColor {
	switch priority {
	case model.PriorityUrgent:
		return ColorRed
	case model.PriorityHigh:
		return ColorOrange
	case model.PriorityMedium:
		return ColorYellow
	case model.PriorityLow:
		return ColorBlue
	default:
		return ColorGray
	}
}

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(priority model.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(PriorityColor(priority))
}
