// Package format renders values for the dashboard tables, widgets and tooltips.
package format

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

const (
	// Missing is shown in place of an absent value.
	Missing = "-"

	DateLayout     = "02 Jan 2006"
	LongDateLayout = "02 January 2006"
	ISODateLayout  = "2006-01-02"
)

// Currency formats v as whole rupiah with thousands separators, e.g. "Rp 1,234".
func Currency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return "Rp " + Number(v, 0)
}

// Percent formats v, already scaled to percent, with two decimals, e.g. "6.67%".
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Number formats v rounded half away from zero to places decimals with comma thousands
// separators.
func Number(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	rounded := decimal.NewFromFloat(v).Round(places).InexactFloat64()
	return printer.Sprint(number.Decimal(rounded, number.Scale(int(places))))
}

// Date formats t as "02 Jan 2006", or Missing for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.Format(DateLayout)
}

// LongDate formats t as "02 January 2006", or Missing for the zero time.
func LongDate(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.Format(LongDateLayout)
}

// ISODate formats t as "2006-01-02", the layout used on chart axes.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.Format(ISODateLayout)
}
