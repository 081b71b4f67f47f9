package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/store"
)

type txState int

const (
	txStateBrowse txState = iota
	txStateForm
	txStateConfirm
	txStateSaving
)

type TransactionsModel struct {
	CommonModel
	store *store.Store

	state txState
	table table.Model
	rows  []finance.Transaction
	form  *huh.Form

	// Set while editing; empty when adding.
	editID   string
	formKind finance.Kind

	status    string
	statusErr bool

	// Form field bindings
	formName    string
	formAmount  string
	formDate    string
	formMethod  finance.Method
	formNote    string
	formConfirm bool
}

func NewTransactionsModel(s *store.Store) TransactionsModel {
	columns := []table.Column{
		{Title: "Tanggal", Width: 12},
		{Title: "Jenis", Width: 12},
		{Title: "Nama", Width: 28},
		{Title: "Nominal", Width: 16},
		{Title: "Metode", Width: 10},
		{Title: "Catatan", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(st)

	m := TransactionsModel{store: s, table: t}
	m.setReport(s.Snapshot())

	return m
}

func (m TransactionsModel) Title() string { return "Transaksi" }

func (m TransactionsModel) ShortHelp() string {
	switch m.state {
	case txStateForm, txStateConfirm:
		return "Esc: batal | Enter/Tab: navigasi"
	case txStateSaving:
		return "Menyimpan..."
	}

	return "Esc: kembali | a: pemasukan | x: pengeluaran | e: ubah | d: hapus"
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.setReport(msg.State)
		return m, nil

	case ResultMsg:
		m.state = txStateBrowse
		m.form = nil
		m.status = msg.Result.Message
		m.statusErr = !msg.Result.Success
		m.table.Focus()

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(5, msg.Height-10))

		return m, nil
	}

	switch m.state {
	case txStateBrowse:
		return m.updateBrowse(msg)
	case txStateForm, txStateConfirm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m TransactionsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterForm(finance.KindIncome, nil)
		case "x":
			return m.enterForm(finance.KindExpense, nil)
		case "e":
			if tx, ok := m.selected(); ok {
				return m.enterForm(tx.Kind, &tx)
			}

			return m, nil
		case "d":
			if tx, ok := m.selected(); ok {
				return m.enterConfirm(tx)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TransactionsModel) selected() (finance.Transaction, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return finance.Transaction{}, false
	}

	return m.rows[idx], true
}

func (m TransactionsModel) enterForm(kind finance.Kind, tx *finance.Transaction) (tea.Model, tea.Cmd) {
	m.formKind = kind
	m.editID = ""
	m.formName = ""
	m.formAmount = ""
	m.formDate = time.Now().Format(time.DateOnly)
	m.formMethod = finance.MethodCash
	m.formNote = ""

	if tx != nil {
		m.editID = tx.ID
		m.formName = tx.Name
		m.formAmount = tx.Amount.String()
		m.formDate = tx.Date.Format(time.DateOnly)
		m.formMethod = tx.Method
		m.formNote = tx.Note
	}

	title := "Tambah " + kind.Label()
	if tx != nil {
		title = "Ubah " + kind.Label()
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Nama").
				Value(&m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("nama wajib diisi")
					}
					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Nominal").
				Placeholder("150000").
				Value(&m.formAmount).
				Validate(validateAmount),

			huh.NewInput().
				Key("date").
				Title("Tanggal").
				Placeholder("YYYY-MM-DD").
				Value(&m.formDate).
				Validate(func(s string) error {
					if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
						return errors.New("format tanggal YYYY-MM-DD")
					}
					return nil
				}),

			huh.NewSelect[finance.Method]().
				Key("method").
				Title("Metode").
				Options(
					huh.NewOption("Tunai", finance.MethodCash),
					huh.NewOption("Transfer", finance.MethodTransfer),
					huh.NewOption("QRIS", finance.MethodQRIS),
				).
				Value(&m.formMethod),

			huh.NewText().
				Key("note").
				Title("Catatan").
				Value(&m.formNote),
		).Title(title),
	).WithWidth(50).WithShowHelp(false)

	m.state = txStateForm
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m TransactionsModel) enterConfirm(tx finance.Transaction) (tea.Model, tea.Cmd) {
	m.formKind = tx.Kind
	m.editID = tx.ID
	m.formConfirm = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Hapus %s %q?", tx.Kind.Label(), tx.Name)).
				Description(finance.FormatRupiah(tx.Amount) + " pada " + finance.FormatDate(tx.Date)).
				Affirmative("Hapus").
				Negative("Batal").
				Value(&m.formConfirm),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = txStateConfirm
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m TransactionsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = txStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
	case huh.StateAborted:
		m.state = txStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	default:
		return m, cmd
	}

	if m.state == txStateConfirm {
		if !m.form.GetBool("confirm") {
			m.state = txStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}

		m.state = txStateSaving

		return m, m.deleteCmd(m.formKind, m.editID)
	}

	m.state = txStateSaving

	return m, m.saveCmd(m.formKind, m.editID, m.input())
}

// input reads the completed form. The bound fields belong to an older copy
// of the model, so values come from the form itself.
func (m TransactionsModel) input() finance.TransactionInput {
	amount, _ := decimal.NewFromString(strings.TrimSpace(m.form.GetString("amount")))
	date, _ := time.Parse(time.DateOnly, strings.TrimSpace(m.form.GetString("date")))
	method, _ := m.form.Get("method").(finance.Method)

	return finance.TransactionInput{
		Name:   strings.TrimSpace(m.form.GetString("name")),
		Amount: amount,
		Date:   date,
		Note:   strings.TrimSpace(m.form.GetString("note")),
		Method: method,
	}
}

func (m TransactionsModel) saveCmd(kind finance.Kind, id string, in finance.TransactionInput) tea.Cmd {
	s := m.store

	return transactionCmd(func() store.Result {
		ctx, cancel := ActionCtx()
		defer cancel()

		switch {
		case kind == finance.KindIncome && id == "":
			return s.AddIncome(ctx, in)
		case kind == finance.KindIncome:
			return s.UpdateIncome(ctx, id, in)
		case id == "":
			return s.AddExpense(ctx, in)
		default:
			return s.UpdateExpense(ctx, id, in)
		}
	})
}

func (m TransactionsModel) deleteCmd(kind finance.Kind, id string) tea.Cmd {
	s := m.store

	return transactionCmd(func() store.Result {
		ctx, cancel := ActionCtx()
		defer cancel()

		if kind == finance.KindIncome {
			return s.DeleteIncome(ctx, id)
		}

		return s.DeleteExpense(ctx, id)
	})
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("nominal harus berupa angka")
	}

	if d.IsNegative() {
		return errors.New("nominal tidak boleh negatif")
	}

	return nil
}

// setReport lists the incomes and expenses of the active period, newest
// first.
func (m *TransactionsModel) setReport(st store.State) {
	rows := make([]finance.Transaction, 0, len(st.Report.Incomes)+len(st.Report.Expenses))
	rows = append(rows, st.Report.Incomes...)
	rows = append(rows, st.Report.Expenses...)

	slices.SortStableFunc(rows, func(a, b finance.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	m.rows = rows

	tableRows := make([]table.Row, 0, len(rows))
	for _, tx := range rows {
		tableRows = append(tableRows, table.Row{
			tx.Date.Format(time.DateOnly),
			tx.Kind.Label(),
			tx.Name,
			finance.FormatRupiah(tx.Amount),
			string(tx.Method),
			tx.Note,
		})
	}

	m.table.SetRows(tableRows)

	if m.table.Cursor() >= len(tableRows) {
		m.table.SetCursor(max(0, len(tableRows)-1))
	}
}

func (m TransactionsModel) View() string {
	header := titleStyle.Render("Transaksi · " + m.periodTitle())

	var body string

	switch m.state {
	case txStateForm, txStateConfirm:
		body = m.form.View()
	case txStateSaving:
		body = "Menyimpan..."
	default:
		body = m.table.View()
		if len(m.rows) == 0 {
			body = faintStyle.Render("Tidak ada transaksi pada periode ini")
		}
	}

	status := ""
	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}

		status = style.Render(m.status)
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", status, faintStyle.Render(m.ShortHelp())),
	)
}

func (m TransactionsModel) periodTitle() string {
	return PeriodTitle(m.store.Snapshot().Filter)
}
