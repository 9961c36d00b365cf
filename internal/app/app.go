// Package app is the root Bubble Tea model wiring the feed subscriber,
// order watcher, notification center, and presenter views together.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/foodly/order-notify/internal/credential"
	"github.com/foodly/order-notify/internal/feed"
	"github.com/foodly/order-notify/internal/keys"
	"github.com/foodly/order-notify/internal/model"
	"github.com/foodly/order-notify/internal/notify"
	"github.com/foodly/order-notify/internal/orders"
	"github.com/foodly/order-notify/internal/theme"
	"github.com/foodly/order-notify/internal/ui"
	"github.com/foodly/order-notify/internal/ui/dropdown"
	"github.com/foodly/order-notify/internal/ui/settings"
	"github.com/foodly/order-notify/internal/ui/toast"
)

// TokenKey is the keyring entry holding the API access token.
const TokenKey = "api-token"

// opTimeout bounds the REST call behind a single user action.
const opTimeout = 15 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDropdown ViewState = iota
	ViewSettings
)

// loadedMsg is sent when the initial history load finished.
type loadedMsg struct {
	err error
}

// opDoneMsg is sent when a mark-read / mark-all-read / delete REST call
// finished.
type opDoneMsg struct {
	err error
}

// feedReceivedMsg carries a first-seen notification from the feed.
type feedReceivedMsg struct {
	notification model.Notification
}

// feedUpdatedMsg carries a partial update from the feed.
type feedUpdatedMsg struct {
	id    string
	patch model.NotificationPatch
}

// feedRemovedMsg carries a feed-side deletion.
type feedRemovedMsg struct {
	id string
}

// orderTransitionMsg carries one order status transition.
type orderTransitionMsg struct {
	orderID   string
	oldStatus model.OrderStatus
	newStatus model.OrderStatus
}

// Model is the root application model.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap

	cfg        model.AppConfig
	configPath string
	logger     *log.Logger

	center     *notify.Center
	subscriber *feed.Subscriber
	watcher    *orders.Watcher

	dropdown dropdown.Model
	settings settings.Model
	toasts   toast.Model

	// events carries feed callbacks into the Bubble Tea runtime so all
	// center access from the UI side is serialized.
	events chan tea.Msg

	ready     bool
	statusMsg string
	errMsg    string
}

// New creates the root model. The subscriber and watcher are wired to
// forward their callbacks into the returned model's event channel.
func New(
	cfg model.AppConfig,
	configPath string,
	center *notify.Center,
	subscriber *feed.Subscriber,
	watcher *orders.Watcher,
	logger *log.Logger,
) Model {
	if logger == nil {
		logger = log.Default()
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewDropdown,
		keys:        k,
		cfg:         cfg,
		configPath:  configPath,
		logger:      logger,
		center:      center,
		subscriber:  subscriber,
		watcher:     watcher,
		dropdown:    dropdown.New(k, 80, 24),
		settings:    settings.New(cfg, 80, 24),
		toasts:      toast.New(time.Duration(cfg.Display.ToastDurationSec)*time.Second, cfg.Display.Sound, 80),
		events:      make(chan tea.Msg, 64),
	}

	subscriber.SetHandlers(feed.Handlers{
		OnReceived: func(n model.Notification) {
			m.send(feedReceivedMsg{notification: n})
		},
		OnUpdated: func(id string, patch model.NotificationPatch) {
			m.send(feedUpdatedMsg{id: id, patch: patch})
		},
		OnRemoved: func(id string) {
			m.send(feedRemovedMsg{id: id})
		},
	})

	watcher.SetTransitionFunc(func(orderID string, oldStatus, newStatus model.OrderStatus) {
		m.send(orderTransitionMsg{
			orderID:   orderID,
			oldStatus: oldStatus,
			newStatus: newStatus,
		})
	})

	return m
}

// send forwards a feed callback into the event channel without blocking
// the feed's read loop.
func (m Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		m.logger.Printf("app: event channel full, dropping %T", msg)
	}
}

// Init starts the feed subscription and kicks off the initial history
// load.
func (m Model) Init() tea.Cmd {
	if err := m.subscriber.SetIdentity(m.cfg.UserID, true); err != nil {
		m.logger.Printf("app: starting subscriber: %v", err)
	}
	if err := m.watcher.Start(m.cfg.UserID); err != nil {
		m.logger.Printf("app: starting order watcher: %v", err)
	}

	return tea.Batch(
		m.loadCmd(),
		m.waitForEvent(),
	)
}

// waitForEvent returns a command that blocks for the next feed event.
// Each handled event re-arms it, pumping the external channel into the
// runtime one message at a time.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// loadCmd fetches notification history and unread count.
func (m Model) loadCmd() tea.Cmd {
	center := m.center
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return loadedMsg{err: center.Load(ctx)}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.dropdown.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.settings.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.toasts.SetSize(m.layout.ContentWidth())
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case toast.TickMsg:
		var cmd tea.Cmd
		m.toasts, cmd = m.toasts.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("load failed: %v", msg.err)
		} else {
			m.errMsg = ""
		}
		return m, m.refreshDropdown()

	case opDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("sync failed: %v", msg.err)
		}
		return m, m.refreshDropdown()

	case feedReceivedMsg:
		m.center.Add(msg.notification)
		toastCmd := m.toasts.Push(msg.notification)
		return m, tea.Batch(m.refreshDropdown(), toastCmd, m.waitForEvent())

	case feedUpdatedMsg:
		m.center.Update(msg.id, msg.patch)
		if msg.patch.Status != nil && *msg.patch.Status == model.StatusRead {
			m.toasts.Dismiss(msg.id)
		}
		return m, tea.Batch(m.refreshDropdown(), m.waitForEvent())

	case feedRemovedMsg:
		m.center.Remove(msg.id)
		m.toasts.Dismiss(msg.id)
		m.toasts.Prune(m.center.IDs())
		return m, tea.Batch(m.refreshDropdown(), m.waitForEvent())

	case orderTransitionMsg:
		n := m.transitionNotification(msg)
		m.center.Add(n)
		toastCmd := m.toasts.Push(n)
		return m, tea.Batch(m.refreshDropdown(), toastCmd, m.waitForEvent())

	case dropdown.MarkReadMsg:
		m.toasts.Dismiss(msg.ID)
		return m, m.markReadCmd(msg.ID)

	case dropdown.MarkAllReadMsg:
		return m, m.markAllReadCmd()

	case dropdown.DeleteMsg:
		m.toasts.Dismiss(msg.ID)
		return m, m.deleteCmd(msg.ID)

	case settings.SavedMsg:
		return m.handleSettingsSaved(msg)

	case settings.CancelledMsg:
		m.currentView = ViewDropdown
		return m, nil
	}

	return m.updateActiveView(msg)
}

// handleKeys routes global keybindings before the active view sees them.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewSettings {
		return m.updateActiveView(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.subscriber.Stop()
		m.watcher.Stop()
		return m, tea.Quit
	case "r":
		return m, m.loadCmd()
	case "s":
		m.settings = settings.New(m.cfg, m.layout.ContentWidth(), m.layout.ContentHeight())
		m.currentView = ViewSettings
		return m, m.settings.Init()
	case "esc":
		m.errMsg = ""
		m.center.ClearError()
		return m, nil
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards a message to the view currently on screen.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	default:
		m.dropdown, cmd = m.dropdown.Update(msg)
	}
	return m, cmd
}

// handleSettingsSaved persists the new configuration and token. The new
// identity takes effect immediately; connection endpoints apply on the
// next start.
func (m Model) handleSettingsSaved(msg settings.SavedMsg) (tea.Model, tea.Cmd) {
	endpointChanged := msg.Config.API.BaseURL != m.cfg.API.BaseURL ||
		msg.Config.Feed.URL != m.cfg.Feed.URL

	if err := model.SaveConfig(m.configPath, &msg.Config); err != nil {
		m.errMsg = fmt.Sprintf("saving config: %v", err)
		m.currentView = ViewDropdown
		return m, nil
	}
	if msg.Token != "" {
		if err := credential.Set(TokenKey, msg.Token); err != nil {
			m.errMsg = fmt.Sprintf("storing token: %v", err)
		}
	}

	userChanged := msg.Config.UserID != m.cfg.UserID
	m.cfg = msg.Config
	m.currentView = ViewDropdown
	m.statusMsg = "settings saved"
	if endpointChanged {
		m.statusMsg = "settings saved — endpoints apply on restart"
	}

	if userChanged {
		// Stop is synchronous, so the old user's events cannot land in
		// this center after the new subscription opens.
		if err := m.subscriber.SetIdentity(m.cfg.UserID, true); err != nil {
			m.logger.Printf("app: restarting subscriber: %v", err)
		}
		m.watcher.Stop()
		if err := m.watcher.Start(m.cfg.UserID); err != nil {
			m.logger.Printf("app: restarting order watcher: %v", err)
		}
		return m, m.loadCmd()
	}

	return m, nil
}

// transitionNotification mints a local notification for an order status
// transition so it flows through the same center and presenter as
// server-produced ones.
func (m Model) transitionNotification(msg orderTransitionMsg) model.Notification {
	now := time.Now().UTC()

	priority := model.PriorityMedium
	if msg.newStatus == model.OrderCancelled {
		priority = model.PriorityHigh
	}

	return model.Notification{
		ID:       uuid.New().String(),
		UserID:   m.cfg.UserID,
		OrderID:  msg.orderID,
		Kind:     model.StatusKind(msg.newStatus),
		Priority: priority,
		Status:   model.StatusUnread,
		Title:    fmt.Sprintf("Order #%s Update", shortOrderID(msg.orderID)),
		Message:  model.StatusMessage(msg.newStatus),
		Metadata: map[string]any{
			"previousStatus": string(msg.oldStatus),
			"newStatus":      string(msg.newStatus),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// shortOrderID is the display form of an order id: the last 6 characters,
// enough to tell concurrent orders apart without the full opaque id.
func shortOrderID(orderID string) string {
	if len(orderID) <= 6 {
		return orderID
	}
	return orderID[len(orderID)-6:]
}

// markReadCmd runs the optimistic mark-read against the center.
func (m Model) markReadCmd(id string) tea.Cmd {
	center := m.center
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opDoneMsg{err: center.MarkRead(ctx, id)}
	}
}

// markAllReadCmd runs the optimistic mark-all-read against the center.
func (m Model) markAllReadCmd() tea.Cmd {
	center := m.center
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opDoneMsg{err: center.MarkAllRead(ctx)}
	}
}

// deleteCmd runs the delete against the center.
func (m Model) deleteCmd(id string) tea.Cmd {
	center := m.center
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opDoneMsg{err: center.Delete(ctx, id)}
	}
}

// refreshDropdown pushes the center's current state into the dropdown
// view and prunes the toast bookkeeping against the live id set.
func (m *Model) refreshDropdown() tea.Cmd {
	m.toasts.Prune(m.center.IDs())
	return m.dropdown.SetNotifications(m.center.Notifications(), m.center.UnreadCount())
}

// View renders the application.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	badge := fmt.Sprintf("🔔 %d unread", m.center.UnreadCount())
	header := m.layout.RenderHeader("Foodly Notifications", badge)

	var content string
	switch m.currentView {
	case ViewSettings:
		content = m.settings.View()
	default:
		content = m.dropdown.View()
	}

	if m.toasts.Active() {
		content = lipgloss.JoinVertical(lipgloss.Right, m.toasts.View(), content)
	}

	hints := "enter: mark read · a: mark all · d: delete · r: refresh · s: settings · q: quit"
	if m.errMsg != "" {
		hints = theme.ErrorStyle.Render(m.errMsg) + " (esc to dismiss)"
	} else if m.statusMsg != "" {
		hints = m.statusMsg
	}
	statusBar := m.layout.RenderStatusBar(hints)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
