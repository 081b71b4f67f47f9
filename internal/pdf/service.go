// Package pdf downloads rendered report PDFs and saves them locally.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/takmir/kas/internal/api"
	"github.com/takmir/kas/internal/clock"
	"github.com/takmir/kas/internal/finance"
)

const (
	MsgNotFound    = "Laporan tidak ditemukan untuk periode yang dipilih"
	MsgServerError = "Terjadi kesalahan pada server, silakan coba lagi"
)

// Downloader fetches the binary report.
type Downloader interface {
	DownloadReportPDF(ctx context.Context, r finance.Range, query url.Values) (*api.Download, error)
}

// Error is a failed download with a message ready for display.
type Error struct {
	Range   finance.Range
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("downloading %s report: %s", e.Range, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result describes a saved report.
type Result struct {
	Path string
	// FromServer is set when the name came from Content-Disposition.
	FromServer bool
	Size       int64
}

type Service struct {
	downloader Downloader
	dir        string
	clock      clock.Clock
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService saves reports into dir.
func NewService(d Downloader, dir string, opts ...Option) *Service {
	s := &Service{downloader: d, dir: dir, clock: clock.Real{}}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Download fetches the report PDF of range r anchored on date (today when
// zero) and writes it to the output directory. Failures are returned as
// *Error and never retried.
func (s *Service) Download(ctx context.Context, r finance.Range, date time.Time) (*Result, error) {
	if !r.Valid() {
		return nil, &Error{Range: r, Message: "Rentang laporan tidak valid", Err: finance.ErrInvalidRange}
	}

	if date.IsZero() {
		date = s.clock.Now()
	}

	date = finance.Day(date)

	d, err := s.downloader.DownloadReportPDF(ctx, r, Query(r, date))
	if err != nil {
		return nil, classify(r, err)
	}
	defer d.Body.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, &Error{Range: r, Message: failure(r), Err: fmt.Errorf("creating output directory: %w", err)}
	}

	filename, fromServer := serverFilename(d.ContentDisposition)
	if !fromServer {
		filename = DefaultFilename(r, date)
	}

	path := filepath.Join(s.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, &Error{Range: r, Message: failure(r), Err: fmt.Errorf("creating file: %w", err)}
	}

	n, err := io.Copy(f, d.Body)
	if err != nil {
		err = fmt.Errorf("writing file: %w", err)
	}

	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing file: %w", closeErr)
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, &Error{Range: r, Message: failure(r), Err: err}
	}

	return &Result{Path: path, FromServer: fromServer, Size: n}, nil
}

// Query builds the download parameters: the anchor day for weekly and
// monthly reports, the whole calendar year for yearly ones.
func Query(r finance.Range, date time.Time) url.Values {
	q := url.Values{}

	if r == finance.RangeYearly {
		start, end := finance.YearBounds(date)
		q.Set("start", start.Format(time.DateOnly))
		q.Set("end", end.Format(time.DateOnly))

		return q
	}

	q.Set("date", date.Format(time.DateOnly))

	return q
}

// DefaultFilename is used when the server does not name the file, e.g.
// Laporan_Keuangan_Bulanan_Januari_2025.pdf.
func DefaultFilename(r finance.Range, date time.Time) string {
	var period string

	switch r {
	case finance.RangeWeekly:
		period = finance.FormatDate(date)
	case finance.RangeMonthly:
		period = finance.MonthName(date.Month()) + " " + date.Format("2006")
	default:
		start, end := finance.YearBounds(date)
		period = start.Format("02-01-2006") + " " + end.Format("02-01-2006")
	}

	name := "Laporan Keuangan " + r.Label() + " " + period

	return strings.ReplaceAll(name, " ", "_") + ".pdf"
}

func serverFilename(contentDisposition string) (string, bool) {
	if contentDisposition == "" {
		return "", false
	}

	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return "", false
	}

	name := filepath.Base(strings.TrimSpace(params["filename"]))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", false
	}

	return strings.ReplaceAll(name, " ", "_"), true
}

func classify(r finance.Range, err error) *Error {
	out := &Error{Range: r, Message: failure(r), Err: err}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return out
	}

	out.Status = apiErr.Status

	switch {
	case apiErr.Status == http.StatusNotFound:
		out.Message = MsgNotFound
	case apiErr.Status == http.StatusInternalServerError:
		out.Message = MsgServerError
	case apiErr.FromServer:
		out.Message = apiErr.Message
	}

	return out
}

func failure(r finance.Range) string {
	return "Gagal mengunduh laporan " + strings.ToLower(r.Label())
}
