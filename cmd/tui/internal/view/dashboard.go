package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/report"
	"github.com/takmir/kas/internal/store"
)

const chartBarWidth = 24

type DashboardModel struct {
	CommonModel
	store *store.Store
	title string

	state   store.State
	spinner spinner.Model
	notice  string
}

func NewDashboardModel(s *store.Store, title string) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DashboardModel{
		store:   s,
		title:   title,
		state:   s.Snapshot(),
		spinner: sp,
	}
}

func (m DashboardModel) Title() string { return m.title }

func (m DashboardModel) ShortHelp() string {
	return "w/m/y: rentang | ←/→: periode | s: sinkron | r: muat ulang | c: hapus galat | t: transaksi | p: PDF | q: keluar"
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.store))
}

// Resume restarts the spinner after another view had focus.
func (m DashboardModel) Resume() tea.Cmd {
	return m.spinner.Tick
}

// Filter is the active report filter.
func (m DashboardModel) Filter() finance.Filter {
	return m.state.Filter
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = msg.State
		return m, nil

	case syncDoneMsg:
		m.notice = msg.result.Message
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m DashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.state.Filter

	switch msg.String() {
	case "w":
		return m, setFilterCmd(m.store, finance.RangeWeekly, f.Date)
	case "m":
		return m, setFilterCmd(m.store, finance.RangeMonthly, f.Date)
	case "y":
		return m, setFilterCmd(m.store, finance.RangeYearly, f.Date)
	case "left", "h":
		return m, setFilterCmd(m.store, f.Range, ShiftDate(f.Range, f.Date, -1))
	case "right", "l":
		return m, setFilterCmd(m.store, f.Range, ShiftDate(f.Range, f.Date, 1))
	case "r":
		m.notice = ""
		return m, loadCmd(m.store)
	case "s":
		m.notice = ""
		return m, syncCmd(m.store)
	case "c":
		m.notice = ""
		m.store.ClearErrors()

		return m, nil
	}

	return m, nil
}

func (m DashboardModel) View() string {
	st := m.state

	sections := []string{
		titleStyle.Render(m.title),
		m.viewBalance(st),
		m.viewPeriod(st),
	}

	if errs := m.viewErrors(st); errs != "" {
		sections = append(sections, errs)
	}

	if m.notice != "" {
		sections = append(sections, faintStyle.Render(m.notice))
	}

	sections = append(sections, faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m DashboardModel) viewBalance(st store.State) string {
	line := "Saldo saat ini: " + lipgloss.NewStyle().Bold(true).Render(st.FormattedBalance)

	if st.BalanceLoading {
		line += " " + m.spinner.View()
	}

	var status string

	switch st.SyncStatus {
	case store.SyncSyncing:
		status = m.spinner.View() + " Menyinkronkan..."
	case store.SyncSuccess:
		status = successStyle.Render("✓ Tersinkron")
	case store.SyncError:
		status = errorStyle.Render("✗ Sinkronisasi gagal")
	}

	lines := []string{line}

	if status != "" {
		lines = append(lines, status)
	}

	if !st.LastSynced.IsZero() {
		lines = append(lines, faintStyle.Render("Diperbarui "+finance.FormatDate(st.LastSynced)+" "+st.LastSynced.Format("15:04")))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m DashboardModel) viewPeriod(st store.State) string {
	header := lipgloss.NewStyle().Bold(true).Render(PeriodTitle(st.Filter))

	if st.ReportLoading {
		return header + "\n\n" + m.spinner.View() + " Memuat laporan..."
	}

	r := st.Report

	summary := strings.Join([]string{
		fmt.Sprintf("Saldo awal      %s", finance.FormatRupiah(r.SaldoAwal)),
		incomeStyle.Render(fmt.Sprintf("Pemasukan       %s (%d)", finance.FormatRupiah(r.TotalIncome), len(r.Incomes))),
		expenseStyle.Render(fmt.Sprintf("Pengeluaran     %s (%d)", finance.FormatRupiah(r.TotalExpense), len(r.Expenses))),
		fmt.Sprintf("Saldo akhir     %s", finance.FormatRupiah(r.SaldoAkhir)),
	}, "\n")

	return header + "\n\n" + summary + "\n\n" + viewChart(report.BuildChartConfig(st.Filter.Range, r.ChartData))
}

func viewChart(c report.ChartConfig) string {
	if c.Empty() {
		return faintStyle.Render("Belum ada data grafik untuk periode ini")
	}

	peak := decimal.Zero
	for i := range c.Labels {
		peak = decimal.Max(peak, c.Income[i], c.Expense[i])
	}

	var b strings.Builder

	for i, label := range c.Labels {
		fmt.Fprintf(&b, "%-8s %s\n", label, incomeStyle.Render(Bar(c.Income[i], peak, chartBarWidth)))
		fmt.Fprintf(&b, "%-8s %s  %s\n", "", expenseStyle.Render(Bar(c.Expense[i], peak, chartBarWidth)),
			faintStyle.Render(finance.FormatRupiah(c.Balance[i])))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m DashboardModel) viewErrors(st store.State) string {
	var lines []string

	for _, e := range []string{st.BalanceError, st.ReportError, st.TransactionError} {
		if e != "" {
			lines = append(lines, errorStyle.Render("• "+e))
		}
	}

	return strings.Join(lines, "\n")
}
