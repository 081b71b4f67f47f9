package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/pdf"
)

type exportState int

const (
	exportStateRange exportState = iota
	exportStatePath
	exportStateDownloading
	exportStateResult
)

type ExportModel struct {
	CommonModel
	downloader pdf.Downloader

	state  exportState
	err    error
	picker RangePicker

	rng  finance.Range
	date time.Time

	form    *huh.Form
	path    string
	spinner spinner.Model
	result  *pdf.Result
}

// NewExportModel downloads report PDFs into dir by default, starting the
// range picker on the dashboard filter.
func NewExportModel(d pdf.Downloader, dir string, f finance.Filter) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		downloader: d,
		state:      exportStateRange,
		picker:     NewRangePicker(f),
		path:       dir,
		spinner:    s,
	}
}

func (m ExportModel) Title() string { return "Unduh Laporan PDF" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: kembali"
	case exportStateDownloading:
		return "Mengunduh..."
	}

	return "Esc: kembali | Enter: konfirmasi"
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sel, ok := msg.(RangeSelectedMsg); ok {
		m.rng = sel.Range
		m.date = sel.Date
		m.form = m.buildPathForm()
		m.state = exportStatePath

		return m, m.form.Init()
	}

	switch m.state {
	case exportStateRange:
		return m.updateRange(msg)
	case exportStatePath:
		return m.updatePath(msg)
	case exportStateDownloading:
		return m.updateDownloading(msg)
	case exportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ExportModel) updateRange(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	return m, cmd
}

func (m ExportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = exportStateRange
			m.picker.Reset()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if path := strings.TrimSpace(m.form.GetString("path")); path != "" {
		m.path = path
	}

	m.state = exportStateDownloading
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.downloadCmd(m.rng, m.date, m.path))
}

func (m ExportModel) updateDownloading(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(downloadResultMsg); ok {
		m.state = exportStateResult
		m.err = res.err
		m.result = res.result

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Folder tujuan").
				Description("Folder akan dibuat jika belum ada").
				Placeholder("./exports").
				Value(&m.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateRange:
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())

	case exportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateDownloading:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Mengunduh laporan %s...", m.spinner.View(), m.rng.Label()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle.Render(pdfMessage(m.err)))
	}

	header := successStyle.Bold(true).Render("Laporan berhasil diunduh")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"File:   "+m.result.Path,
			"Ukuran: "+humanize.Bytes(uint64(m.result.Size)),
		),
	)
}

type downloadResultMsg struct {
	result *pdf.Result
	err    error
}

const downloadTimeout = 2 * time.Minute

func (m ExportModel) downloadCmd(r finance.Range, date time.Time, dir string) tea.Cmd {
	svc := pdf.NewService(m.downloader, dir)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
		defer cancel()

		res, err := svc.Download(ctx, r, date)

		return downloadResultMsg{result: res, err: err}
	}
}

func pdfMessage(err error) string {
	var pdfErr *pdf.Error
	if errors.As(err, &pdfErr) {
		return pdfErr.Message
	}

	return err.Error()
}
