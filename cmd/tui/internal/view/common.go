package view

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/takmir/kas/internal/store"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// StateMsg carries a store snapshot into the program.
type StateMsg struct {
	State store.State
}

// Subscribe forwards store changes into a channel that keeps only the latest
// snapshot. Call the returned func to stop.
func Subscribe(s *store.Store) (<-chan store.State, func()) {
	l := newLatestState()
	unsubscribe := s.Subscribe(l.offer)

	return l.ch, unsubscribe
}

// latestState is a one-slot mailbox of store snapshots. Notifications run on
// the goroutines of concurrent actions, so they can arrive out of order.
type latestState struct {
	mu   sync.Mutex
	last uint64
	ch   chan store.State
}

func newLatestState() *latestState {
	return &latestState{ch: make(chan store.State, 1)}
}

func (l *latestState) offer(st store.State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st.Version <= l.last {
		return
	}

	l.last = st.Version

	select {
	case <-l.ch:
	default:
	}

	l.ch <- st
}

// WaitForState blocks until the next snapshot arrives.
func WaitForState(ch <-chan store.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}

		return StateMsg{State: st}
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)
