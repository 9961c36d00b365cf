package dropdown

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodly/order-notify/internal/keys"
	"github.com/foodly/order-notify/internal/model"
	"github.com/foodly/order-notify/internal/theme"
)

// MarkReadMsg asks the app to mark one notification as read.
type MarkReadMsg struct {
	ID string
}

// MarkAllReadMsg asks the app to mark every notification as read.
type MarkAllReadMsg struct{}

// DeleteMsg asks the app to delete one notification.
type DeleteMsg struct {
	ID string
}

// Model is the dropdown list view over the notification collection.
// It renders what the center holds and emits request messages for
// mutations; it never mutates the collection itself.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	unread int
	width  int
	height int
}

// New creates a new dropdown model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetNotifications replaces the rendered collection. The selection is
// kept on the same position where possible.
func (m *Model) SetNotifications(notifications []model.Notification, unread int) tea.Cmd {
	items := make([]list.Item, len(notifications))
	for i, n := range notifications {
		items[i] = Item{Notification: n}
	}
	m.unread = unread
	m.list.Title = listTitle(unread)
	return m.list.SetItems(items)
}

// Update handles messages for the dropdown view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.MarkRead):
			if item, ok := m.list.SelectedItem().(Item); ok {
				id := item.Notification.ID
				return m, func() tea.Msg { return MarkReadMsg{ID: id} }
			}
			return m, nil

		case key.Matches(keyMsg, m.keys.MarkAllRead):
			return m, func() tea.Msg { return MarkAllReadMsg{} }

		case key.Matches(keyMsg, m.keys.Delete):
			if item, ok := m.list.SelectedItem().(Item); ok {
				id := item.Notification.ID
				return m, func() tea.Msg { return DeleteMsg{ID: id} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the dropdown list.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// listTitle renders the title with an unread badge.
func listTitle(unread int) string {
	if unread == 0 {
		return "Notifications"
	}
	return fmt.Sprintf("Notifications (%d unread)", unread)
}
