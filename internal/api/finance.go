package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/takmir/kas/internal/finance"
	"github.com/takmir/kas/internal/payload"
	"github.com/takmir/kas/internal/report"
)

// ErrUnexpectedPayload marks a 2xx response whose body could not be read.
var ErrUnexpectedPayload = errors.New("unexpected response payload")

var (
	balancePaths   = []string{"data.currentBalance", "data.balance.currentBalance", "data.balance"}
	formattedPaths = []string{"data.formattedBalance", "data.balance.formattedBalance"}
)

// Mutation is the decoded response of a create, update or delete call.
// Either field is nil when the response did not carry it.
type Mutation struct {
	Transaction *finance.Transaction
	Balance     *finance.Balance
}

// Download is a successful binary response. The caller closes Body.
type Download struct {
	Body               io.ReadCloser
	ContentType        string
	ContentDisposition string
}

func (c *Client) GetBalance(ctx context.Context) (finance.Balance, error) {
	body, err := c.sendJSON(ctx, OpGetBalance, http.MethodGet, "/finance/balance", nil, nil)
	if err != nil {
		return finance.Balance{}, err
	}

	o, err := payload.Parse(body)
	if err != nil {
		return finance.Balance{}, unexpected(OpGetBalance, err)
	}

	b, ok := decodeBalance(o)
	if !ok {
		return finance.Balance{}, unexpected(OpGetBalance, errors.New("balance missing"))
	}

	return *b, nil
}

// SyncBalance asks the backend to recompute the balance. The returned balance
// is nil when the response does not include one.
func (c *Client) SyncBalance(ctx context.Context) (*finance.Balance, error) {
	body, err := c.sendJSON(ctx, OpSyncBalance, http.MethodPost, "/finance/balance/sync", nil, nil)
	if err != nil {
		return nil, err
	}

	o, err := payload.Parse(body)
	if err != nil {
		c.logger.Debug("sync response is not a JSON object", "error", err)
		return nil, nil
	}

	b, _ := decodeBalance(o)

	return b, nil
}

// GetReport returns the raw report body for the filter. Decoding is left to
// report.Normalize.
func (c *Client) GetReport(ctx context.Context, f finance.Filter) ([]byte, error) {
	path := "/finance/report/" + string(f.Range) + "-auto"
	return c.sendJSON(ctx, OpGetReport, http.MethodGet, path, ReportQuery(f), nil)
}

// ReportQuery builds the report query: the anchor day for weekly and monthly
// reports, the first day plus the year for yearly ones.
func ReportQuery(f finance.Filter) url.Values {
	q := url.Values{}

	if f.Range == finance.RangeYearly {
		start, _ := f.YearBounds()
		q.Set("date", start.Format(time.DateOnly))
		q.Set("year", strconv.Itoa(start.Year()))

		return q
	}

	q.Set("date", f.Date.Format(time.DateOnly))

	return q
}

func (c *Client) CreateIncome(ctx context.Context, in finance.TransactionInput) (Mutation, error) {
	return c.create(ctx, OpCreateIncome, finance.KindIncome, in)
}

func (c *Client) CreateExpense(ctx context.Context, in finance.TransactionInput) (Mutation, error) {
	return c.create(ctx, OpCreateExpense, finance.KindExpense, in)
}

func (c *Client) UpdateIncome(ctx context.Context, id string, in finance.TransactionInput) (Mutation, error) {
	return c.update(ctx, OpUpdateIncome, finance.KindIncome, id, in)
}

func (c *Client) UpdateExpense(ctx context.Context, id string, in finance.TransactionInput) (Mutation, error) {
	return c.update(ctx, OpUpdateExpense, finance.KindExpense, id, in)
}

func (c *Client) DeleteIncome(ctx context.Context, id string) (Mutation, error) {
	return c.delete(ctx, OpDeleteIncome, finance.KindIncome, id)
}

func (c *Client) DeleteExpense(ctx context.Context, id string) (Mutation, error) {
	return c.delete(ctx, OpDeleteExpense, finance.KindExpense, id)
}

// DownloadReportPDF requests the binary PDF of a report.
func (c *Client) DownloadReportPDF(ctx context.Context, r finance.Range, query url.Values) (*Download, error) {
	path := "/finance/report/" + string(r) + "/pdf"

	resp, err := c.Do(ctx, OpDownloadReport, http.MethodGet, path, query, nil, WithAccept("application/pdf"))
	if err != nil {
		return nil, err
	}

	return &Download{
		Body:               resp.Body,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
	}, nil
}

func (c *Client) create(ctx context.Context, op Op, kind finance.Kind, in finance.TransactionInput) (Mutation, error) {
	return c.mutate(ctx, op, kind, http.MethodPost, "/finance/"+resource(kind)+"/create", in)
}

func (c *Client) update(ctx context.Context, op Op, kind finance.Kind, id string, in finance.TransactionInput) (Mutation, error) {
	return c.mutate(ctx, op, kind, http.MethodPut, "/finance/"+resource(kind)+"/"+url.PathEscape(id), in)
}

func (c *Client) delete(ctx context.Context, op Op, kind finance.Kind, id string) (Mutation, error) {
	return c.mutate(ctx, op, kind, http.MethodDelete, "/finance/"+resource(kind)+"/"+url.PathEscape(id), nil)
}

func (c *Client) mutate(ctx context.Context, op Op, kind finance.Kind, method, path string, in any) (Mutation, error) {
	body, err := c.sendJSON(ctx, op, method, path, nil, in)
	if err != nil {
		return Mutation{}, err
	}

	return decodeMutation(body, kind), nil
}

func decodeMutation(body []byte, kind finance.Kind) Mutation {
	var m Mutation

	o, err := payload.Parse(body)
	if err != nil {
		return m
	}

	if raw, ok := o.First("data."+string(kind), "data.transaction"); ok {
		if tx, ok := report.DecodeTransaction(raw, kind); ok {
			m.Transaction = &tx
		}
	}

	m.Balance, _ = decodeBalance(o)

	return m
}

func decodeBalance(o payload.Object) (*finance.Balance, bool) {
	current, ok := o.Decimal(balancePaths...)
	if !ok {
		return nil, false
	}

	formatted, ok := o.String(formattedPaths...)
	if !ok || formatted == "" {
		formatted = finance.FormatRupiah(current)
	}

	return &finance.Balance{Current: current, Formatted: formatted}, true
}

func resource(kind finance.Kind) string {
	if kind == finance.KindExpense {
		return "expenses"
	}

	return "incomes"
}

func unexpected(op Op, err error) *Error {
	return &Error{Op: op, Message: op.Fallback(), Err: fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)}
}
