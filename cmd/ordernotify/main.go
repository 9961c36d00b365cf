package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foodly/order-notify/internal/api"
	"github.com/foodly/order-notify/internal/app"
	"github.com/foodly/order-notify/internal/credential"
	"github.com/foodly/order-notify/internal/feed"
	"github.com/foodly/order-notify/internal/model"
	"github.com/foodly/order-notify/internal/notify"
	"github.com/foodly/order-notify/internal/orders"
	"github.com/foodly/order-notify/internal/store"
	"github.com/foodly/order-notify/internal/ui/settings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ordernotify: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// First run: collect identity and endpoints before anything connects.
	if cfg.UserID == "" || cfg.API.BaseURL == "" || cfg.Feed.URL == "" {
		cfg, err = firstRunSetup(*configPath, cfg)
		if err != nil {
			return err
		}
	}

	token := loadToken()
	client := api.NewClient(
		cfg.API.BaseURL,
		token,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)

	var history notify.History
	if cfg.Cache.Path != "" {
		cache, err := store.NewCache(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("opening history cache: %w", err)
		}
		defer cache.Close()
		history = cache
	}

	conn, err := feed.Dial(
		cfg.Feed.URL,
		time.Duration(cfg.Feed.HandshakeTimeoutSec)*time.Second,
		logger,
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	center := notify.NewCenter(client, history, logger)
	subscriber := feed.NewSubscriber(conn, logger)
	watcher := orders.NewWatcher(conn, logger)

	m := app.New(*cfg, *configPath, center, subscriber, watcher, logger)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// loadToken reads the API token from the environment, falling back to
// the system keyring.
func loadToken() string {
	if token := os.Getenv("ORDERNOTIFY_TOKEN"); token != "" {
		return token
	}
	token, err := credential.Get(app.TokenKey)
	if err != nil {
		return ""
	}
	return token
}

// newLogger builds the transport-error logger. Output goes to the file
// named by ORDERNOTIFY_LOG, or nowhere, so it never corrupts the TUI.
func newLogger() (*log.Logger, func(), error) {
	path := os.Getenv("ORDERNOTIFY_LOG")
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}

// firstRunModel runs the settings form standalone before the main app
// can be constructed.
type firstRunModel struct {
	form  settings.Model
	saved *settings.SavedMsg
}

func (m firstRunModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m firstRunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.form.SetSize(msg.Width, msg.Height)
		return m, nil
	case settings.SavedMsg:
		m.saved = &msg
		return m, tea.Quit
	case settings.CancelledMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m firstRunModel) View() string {
	return m.form.View()
}

// firstRunSetup collects configuration interactively, persists it, and
// stores the token in the keyring.
func firstRunSetup(configPath string, cfg *model.AppConfig) (*model.AppConfig, error) {
	final, err := tea.NewProgram(firstRunModel{
		form: settings.New(*cfg, 80, 24),
	}).Run()
	if err != nil {
		return nil, err
	}

	m, ok := final.(firstRunModel)
	if !ok || m.saved == nil {
		return nil, fmt.Errorf("setup cancelled")
	}

	saved := m.saved.Config
	if err := model.SaveConfig(configPath, &saved); err != nil {
		return nil, err
	}
	if m.saved.Token != "" {
		if err := credential.Set(app.TokenKey, m.saved.Token); err != nil {
			return nil, fmt.Errorf("storing token: %w", err)
		}
	}

	return &saved, nil
}
