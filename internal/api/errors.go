package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Op names a remote operation. Its value completes the localized
// "Gagal ..." fallback message.
type Op string

const (
	OpGetBalance     Op = "mengambil saldo"
	OpSyncBalance    Op = "menyinkronkan saldo"
	OpGetReport      Op = "mengambil laporan"
	OpCreateIncome   Op = "menambahkan pemasukan"
	OpCreateExpense  Op = "menambahkan pengeluaran"
	OpUpdateIncome   Op = "memperbarui pemasukan"
	OpUpdateExpense  Op = "memperbarui pengeluaran"
	OpDeleteIncome   Op = "menghapus pemasukan"
	OpDeleteExpense  Op = "menghapus pengeluaran"
	OpDownloadReport Op = "mengunduh laporan"
)

// MsgUnreachable is shown when no response was received at all.
const MsgUnreachable = "Tidak dapat terhubung ke server"

// Fallback is the generic failure message of the operation.
func (o Op) Fallback() string {
	return "Gagal " + string(o)
}

// Error is a failed remote call. Message is always user-presentable: the
// server's own message when it sent one, otherwise a localized fallback.
type Error struct {
	Op         Op
	Status     int
	Message    string
	FromServer bool
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text carried by err, or "" when err is not
// an *Error.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	return ""
}

func transportError(op Op, err error) *Error {
	return &Error{Op: op, Message: MsgUnreachable, Err: err}
}

// statusError builds the error of a non-2xx response from its UTF-8 body.
func statusError(op Op, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Message: op.Fallback()}

	if msg := serverMessage(body); msg != "" {
		e.Message = msg
		e.FromServer = true
	}

	return e
}

func serverMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if msg := strings.TrimSpace(envelope.Message); msg != "" {
		return msg
	}

	return strings.TrimSpace(envelope.Error)
}
