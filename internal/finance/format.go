package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

var monthNames = map[time.Month]string{
	time.January:   "Januari",
	time.February:  "Februari",
	time.March:     "Maret",
	time.April:     "April",
	time.May:       "Mei",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "Agustus",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Desember",
}

// FormatRupiah renders an amount the way the dashboard shows money:
// "Rp 1.250.000" or "Rp 1.250.000,50" when there is a fractional part.
func FormatRupiah(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	if d.Equal(d.Truncate(0)) {
		return fmt.Sprintf("%sRp %s", sign, idPrinter.Sprintf("%d", d.IntPart()))
	}

	f, _ := d.Round(2).Float64()

	return fmt.Sprintf("%sRp %s", sign, idPrinter.Sprintf("%.2f", f))
}

// MonthName returns the Indonesian month name.
func MonthName(m time.Month) string {
	return monthNames[m]
}

// FormatDate renders a day as "10 Januari 2025".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthNames[t.Month()], t.Year())
}

// ShortDate renders a day as "10 Jan".
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), monthNames[t.Month()][:3])
}
