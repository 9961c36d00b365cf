// Package toast renders transient notification popups.
package toast

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foodly/order-notify/internal/model"
	"github.com/foodly/order-notify/internal/theme"
)

// fadeDuration is the dismiss transition length: an expired toast is
// rendered dimmed for this long before it disappears.
const fadeDuration = 300 * time.Millisecond

// tickInterval drives expiry checks while toasts are on screen.
const tickInterval = 100 * time.Millisecond

// TickMsg advances toast expiry.
type TickMsg time.Time

// entry is one active popup.
type entry struct {
	notification model.Notification
	deadline     time.Time
}

// Model is the toast stack. Every unread notification whose id has not
// been shown this session triggers a popup that auto-dismisses after the
// configured duration, or immediately on explicit close / mark-read.
type Model struct {
	entries  []entry
	shown    map[string]struct{}
	duration time.Duration
	sound    bool
	width    int
}

// New creates a toast stack. duration is how long a popup stays before
// fading out.
func New(duration time.Duration, sound bool, width int) Model {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return Model{
		shown:    make(map[string]struct{}),
		duration: duration,
		sound:    sound,
		width:    width,
	}
}

// Push shows a popup for the notification if it is unread and has not
// been shown yet this session. Returns the commands to start the expiry
// ticker and play the audio cue.
func (m *Model) Push(n model.Notification) tea.Cmd {
	if !n.Unread() {
		return nil
	}
	if _, seen := m.shown[n.ID]; seen {
		return nil
	}

	m.shown[n.ID] = struct{}{}
	m.entries = append(m.entries, entry{
		notification: n,
		deadline:     time.Now().Add(m.duration),
	})

	cmds := []tea.Cmd{}
	if len(m.entries) == 1 {
		cmds = append(cmds, tick())
	}
	if m.sound {
		cmds = append(cmds, bell)
	}
	return tea.Batch(cmds...)
}

// Dismiss removes the popup for id immediately, e.g. when the user
// closed it or marked the notification read.
func (m *Model) Dismiss(id string) {
	for i, e := range m.entries {
		if e.notification.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Prune drops shown-id bookkeeping for ids no longer in the collection,
// so the set cannot grow without bound over a long session.
func (m *Model) Prune(ids map[string]struct{}) {
	for id := range m.shown {
		if _, ok := ids[id]; !ok {
			delete(m.shown, id)
		}
	}
}

// Update handles expiry ticks, dropping toasts whose fade has finished.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); !ok {
		return m, nil
	}

	now := time.Now()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if now.Before(e.deadline.Add(fadeDuration)) {
			kept = append(kept, e)
		}
	}
	m.entries = kept

	if len(m.entries) == 0 {
		return m, nil
	}
	return m, tick()
}

// Active reports whether any popup is on screen.
func (m Model) Active() bool {
	return len(m.entries) > 0
}

// View renders the popup stack, newest last.
func (m Model) View() string {
	if len(m.entries) == 0 {
		return ""
	}

	now := time.Now()
	rendered := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		rendered = append(rendered, renderToast(e, now, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

// SetSize updates the rendering width.
func (m *Model) SetSize(width int) {
	m.width = width
}

// renderToast draws one popup with a priority-colored border, dimmed
// once it has passed its deadline and is fading out.
func renderToast(e entry, now time.Time, width int) string {
	n := e.notification

	maxWidth := width / 2
	if maxWidth < 24 {
		maxWidth = 24
	}

	title := fmt.Sprintf("%s %s", theme.KindIcon(n.Kind), n.Title)
	body := n.Message

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(title),
		body,
	)

	if now.After(e.deadline) {
		return theme.FadingToastStyle.MaxWidth(maxWidth).Render(content)
	}

	accent := theme.PriorityColor(n.Priority)
	if n.Kind == model.KindOrderCancelled {
		accent = theme.ColorRed
	}
	return theme.ToastStyle.BorderForeground(accent).MaxWidth(maxWidth).Render(content)
}

// tick schedules the next expiry check.
func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// bell emits the terminal bell as the audio cue for a new unread
// notification. Written to stderr so it does not disturb the renderer.
func bell() tea.Msg {
	fmt.Fprint(os.Stderr, "\a")
	return nil
}
