package fakeapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/takmir/kas/internal/clock"
	"github.com/takmir/kas/internal/finance"
)

type Handler struct {
	ledger *Ledger
	shape  Shape
	clock  clock.Clock
}

func NewHandler(ledger *Ledger, shape Shape, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.Real{}
	}

	return &Handler{ledger: ledger, shape: shape, clock: clk}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/balance", h.getBalance)
	r.Post("/balance/sync", h.syncBalance)

	r.Get("/report/{range}-auto", h.getReport)
	r.Get("/report/{range}/pdf", h.getReportPDF)

	for _, kind := range []finance.Kind{finance.KindIncome, finance.KindExpense} {
		r.Route("/"+resource(kind), func(r chi.Router) {
			r.Post("/create", h.create(kind))
			r.Put("/{id}", h.update(kind))
			r.Delete("/{id}", h.delete(kind))
		})
	}
}

type transactionRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Note   string          `json:"note"`
	Method finance.Method  `json:"method"`
}

func (req transactionRequest) input() (finance.TransactionInput, bool) {
	date, err := finance.ParseDay(req.Date)
	if err != nil {
		return finance.TransactionInput{}, false
	}

	return finance.TransactionInput{
		Name:   req.Name,
		Amount: req.Amount,
		Date:   date,
		Note:   req.Note,
		Method: req.Method,
	}, true
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.balanceBody(h.ledger.Balance()))
}

func (h *Handler) syncBalance(w http.ResponseWriter, r *http.Request) {
	balance := h.ledger.Sync()
	slog.Info("balance synced", "balance", balance.String())

	writeData(w, http.StatusOK, h.balanceBody(balance))
}

func (h *Handler) balanceBody(b decimal.Decimal) map[string]any {
	return map[string]any{
		"currentBalance":   number(b),
		"formattedBalance": finance.FormatRupiah(b),
		"lastUpdated":      h.clock.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	f, ok := h.reportFilter(w, r, "date")
	if !ok {
		return
	}

	writeData(w, http.StatusOK, h.ledger.Report(f).body(h.shape))
}

func (h *Handler) getReportPDF(w http.ResponseWriter, r *http.Request) {
	anchor := "date"
	if chi.URLParam(r, "range") == string(finance.RangeYearly) {
		anchor = "start"
	}

	f, ok := h.reportFilter(w, r, anchor)
	if !ok {
		return
	}

	p := h.ledger.Report(f)
	if p.Empty() {
		writeError(w, http.StatusNotFound, "Tidak ada transaksi pada periode ini")
		return
	}

	b, err := renderPDF(p, h.clock.Now())
	if err != nil {
		slog.Error("failed to render pdf", "error", err)
		writeError(w, http.StatusInternalServerError, "Gagal membuat PDF")

		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdfFilename(p)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))

	if _, err := w.Write(b); err != nil {
		slog.Error("failed to write pdf", "error", err)
	}
}

// reportFilter reads the range path parameter and the anchor day from the
// given query key. Yearly requests may pass "year" instead.
func (h *Handler) reportFilter(w http.ResponseWriter, r *http.Request, key string) (finance.Filter, bool) {
	rng, err := finance.ParseRange(chi.URLParam(r, "range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Rentang laporan tidak valid")
		return finance.Filter{}, false
	}

	f := finance.Filter{Range: rng, Date: finance.Day(h.clock.Now())}
	q := r.URL.Query()

	if s := strings.TrimSpace(q.Get(key)); s != "" {
		d, err := finance.ParseDay(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Format tanggal tidak valid")
			return finance.Filter{}, false
		}

		f.Date = d
	}

	if s := q.Get("year"); rng == finance.RangeYearly && s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Tahun tidak valid")
			return finance.Filter{}, false
		}

		f.Date = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	return f, true
}

func (h *Handler) create(kind finance.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		tx, balance, err := h.ledger.Create(r.Context(), kind, in)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeData(w, http.StatusCreated, h.mutationBody(kind, &tx, balance))
	}
}

func (h *Handler) update(kind finance.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		tx, balance, err := h.ledger.Update(r.Context(), kind, chi.URLParam(r, "id"), in)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeData(w, http.StatusOK, h.mutationBody(kind, &tx, balance))
	}
}

func (h *Handler) delete(kind finance.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := h.ledger.Delete(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeData(w, http.StatusOK, h.mutationBody(kind, nil, balance))
	}
}

func (h *Handler) mutationBody(kind finance.Kind, tx *finance.Transaction, balance decimal.Decimal) map[string]any {
	body := h.balanceBody(balance)

	if tx != nil {
		body[string(kind)] = encodeTransaction(*tx, ShapeNested)
	}

	return body
}

func decodeInput(w http.ResponseWriter, r *http.Request) (finance.TransactionInput, bool) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Body permintaan tidak valid")
		return finance.TransactionInput{}, false
	}

	in, ok := req.input()
	if !ok {
		writeError(w, http.StatusBadRequest, "Format tanggal tidak valid")
		return finance.TransactionInput{}, false
	}

	return in, true
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Transaksi tidak ditemukan")
	case errors.Is(err, finance.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "Data transaksi tidak valid")
	default:
		slog.Error("ledger operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func resource(kind finance.Kind) string {
	if kind == finance.KindExpense {
		return "expenses"
	}

	return "incomes"
}
