package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/takmir/kas/internal/finance"
)

// RangeSelectedMsg is emitted when the user has picked a report range and
// its anchor day.
type RangeSelectedMsg struct {
	Range finance.Range
	Date  time.Time
}

type pickerState int

const (
	pickerStateSelect pickerState = iota
	pickerStateDate
)

var errInvalidAnchor = errors.New("tanggal tidak valid (YYYY-MM-DD)")

// RangePicker is a reusable component for selecting a report range and the
// day it is anchored on.
type RangePicker struct {
	state    pickerState
	selected int
	initial  finance.Filter

	dateInput textinput.Model

	err error
}

// NewRangePicker starts on the range and day of f.
func NewRangePicker(f finance.Filter) RangePicker {
	di := textinput.New()
	di.Placeholder = "YYYY-MM-DD"
	di.CharLimit = 10
	di.Width = 12
	di.Prompt = "Tanggal acuan: "

	p := RangePicker{initial: f, dateInput: di}
	p.Reset()

	return p
}

func (m RangePicker) Init() tea.Cmd {
	return nil
}

func (m RangePicker) Update(msg tea.Msg) (RangePicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.state == pickerStateDate {
			var cmd tea.Cmd
			m.dateInput, cmd = m.dateInput.Update(msg)

			return m, cmd
		}

		return m, nil
	}

	switch m.state {
	case pickerStateSelect:
		return m.updateSelect(keyMsg)
	case pickerStateDate:
		return m.updateDate(keyMsg)
	}

	return m, nil
}

func (m RangePicker) updateSelect(msg tea.KeyMsg) (RangePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(finance.Ranges)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		m.state = pickerStateDate
		m.dateInput.Focus()

		return m, textinput.Blink
	}

	return m, nil
}

func (m RangePicker) updateDate(msg tea.KeyMsg) (RangePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		date, err := finance.ParseDay(m.dateInput.Value())
		if err != nil {
			m.err = errInvalidAnchor
			return m, nil
		}

		m.err = nil
		r := finance.Ranges[m.selected]

		return m, func() tea.Msg {
			return RangeSelectedMsg{Range: r, Date: date}
		}
	case tea.KeyEsc:
		m.state = pickerStateSelect
		m.dateInput.Blur()
		m.err = nil

		return m, nil
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)

	return m, cmd
}

func (m RangePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle.Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	r := finance.Ranges[m.selected]

	if m.state == pickerStateDate {
		return fmt.Sprintf(
			"Laporan %s\n\n%s\n\n(Enter untuk konfirmasi, Esc untuk kembali)%s",
			r.Label(),
			m.dateInput.View(),
			errStr,
		)
	}

	s := "Pilih rentang laporan:\n\n"
	for i, rng := range finance.Ranges {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, rng.Label())
	}

	s += "\n(Enter untuk memilih, Esc untuk kembali)"

	return s + errStr
}

// IsSelecting reports whether the picker is on the range list.
func (m RangePicker) IsSelecting() bool {
	return m.state == pickerStateSelect
}

// Reset returns the picker to the range list, preselecting the initial
// filter.
func (m *RangePicker) Reset() {
	m.state = pickerStateSelect
	m.selected = 0
	m.err = nil

	for i, r := range finance.Ranges {
		if r == m.initial.Range {
			m.selected = i
		}
	}

	m.dateInput.Blur()
	m.dateInput.SetValue(m.initial.Date.Format(time.DateOnly))
}
