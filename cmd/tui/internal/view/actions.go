package view

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/store"
)

// Store actions block until the backend answers, so they run as commands.
// Their state changes reach the program through StateMsg.

type syncDoneMsg struct {
	result store.SyncResult
}

// ResultMsg reports the outcome of a transaction action.
type ResultMsg struct {
	Result store.Result
}

func loadCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ActionCtx()
		defer cancel()

		s.Load(ctx)

		return nil
	}
}

func setFilterCmd(s *store.Store, r finance.Range, date time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ActionCtx()
		defer cancel()

		s.SetFilter(ctx, r, date)

		return nil
	}
}

func syncCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ActionCtx()
		defer cancel()

		return syncDoneMsg{result: s.SyncBalance(ctx)}
	}
}

func transactionCmd(fn func() store.Result) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Result: fn()}
	}
}
