// Package settings is the first-run / reconfiguration form.
package settings

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/foodly/order-notify/internal/model"
)

// SavedMsg signals that the user submitted the form. The token is kept
// out of AppConfig; the app stores it in the system keyring.
type SavedMsg struct {
	Config model.AppConfig
	Token  string
}

// CancelledMsg signals the form was dismissed without saving.
type CancelledMsg struct{}

// Model is the Bubble Tea model for the settings form. Field values live
// inside the form and are read back by key on completion, so the model
// stays safe to copy.
type Model struct {
	form *huh.Form

	base   model.AppConfig
	width  int
	height int
}

// New creates a settings form pre-filled from the current configuration.
func New(cfg model.AppConfig, width, height int) Model {
	userID := cfg.UserID
	apiURL := cfg.API.BaseURL
	feedURL := cfg.Feed.URL
	token := ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("user_id").
				Title("User ID").
				Value(&userID).
				Validate(required("user id")),
			huh.NewInput().
				Key("api_url").
				Title("API base URL").
				Placeholder("https://api.foodly.example").
				Value(&apiURL).
				Validate(validURL),
			huh.NewInput().
				Key("feed_url").
				Title("Feed URL").
				Placeholder("wss://feed.foodly.example/v1").
				Value(&feedURL).
				Validate(validURL),
			huh.NewInput().
				Key("token").
				Title("Access token").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	).WithWidth(width - 4)

	return Model{
		form:   form,
		base:   cfg,
		width:  width,
		height: height,
	}
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		cfg := m.base
		cfg.UserID = strings.TrimSpace(m.form.GetString("user_id"))
		cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.form.GetString("api_url")), "/")
		cfg.Feed.URL = strings.TrimSpace(m.form.GetString("feed_url"))
		token := m.form.GetString("token")
		return m, func() tea.Msg { return SavedMsg{Config: cfg, Token: token} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	return m.form.View()
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(width - 4)
}

// required validates that a field is non-empty.
func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// validURL validates that a field parses as an absolute URL.
func validURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url")
	}
	return nil
}
