package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/takmir/kas/cmd/tui/internal/view"
	"github.com/takmir/kas/internal/api"
	"github.com/takmir/kas/internal/config"
	"github.com/takmir/kas/internal/store"
)

type model struct {
	store   *store.Store
	client  *api.Client
	states  <-chan store.State
	exports string

	currentView View

	dashboardView    view.DashboardModel
	transactionsView view.TransactionsModel
	exportView       view.ExportModel
}

type View int

const (
	ViewDashboard    View = 0
	ViewTransactions View = 1
	ViewExport       View = 2
)

func (m model) Init() tea.Cmd {
	return tea.Batch(view.WaitForState(m.states), m.dashboardView.Init())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewDashboard {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "t":
				m.currentView = ViewTransactions
				m.transactionsView = view.NewTransactionsModel(m.store)

				return m, m.transactionsView.Init()
			case "p":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.client, m.exports, m.dashboardView.Filter())

				return m, m.exportView.Init()
			}
		}

	case view.StateMsg:
		var newModel tea.Model

		newModel, _ = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)

		newModel, _ = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)

		return m, view.WaitForState(m.states)

	case view.BackMsg:
		m.currentView = ViewDashboard
		return m, m.dashboardView.Resume()

	case tea.WindowSizeMsg:
		var newModel tea.Model

		newModel, _ = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)

		newModel, _ = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)

		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewTransactions:
		return m.transactionsView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	baseURL, err := cfg.BaseURL()
	if err != nil {
		return err
	}

	client, err := api.New(baseURL, api.WithTimeout(cfg.API.Timeout), api.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	s := store.New(client, store.WithLogger(logger))
	defer s.Close()

	states, unsubscribe := view.Subscribe(s)
	defer unsubscribe()

	slog.Info("starting tui", "env", cfg.App.Env, "base_url", baseURL)

	m := model{
		store:            s,
		client:           client,
		states:           states,
		exports:          cfg.Export.Dir,
		currentView:      ViewDashboard,
		dashboardView:    view.NewDashboardModel(s, cfg.App.Name),
		transactionsView: view.NewTransactionsModel(s),
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		// The log file is closed by now.
		fmt.Fprintf(os.Stderr, "kas: %v\n", err)
		os.Exit(1)
	}
}
