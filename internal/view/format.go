package view

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"iexpense/internal/core"
)

// Formatter renders amounts in the currency of a locale. The currency is
// a display choice only and is never stored with a record.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter resolves the currency for locale, a BCP 47 tag such as
// "it-IT". Unparsable locales and regions without a currency fall back to
// US dollars.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	unit, conf := currency.FromTag(tag)
	if conf == language.No {
		unit = currency.USD
	}
	return &Formatter{
		tag:     tag,
		unit:    unit,
		printer: message.NewPrinter(tag),
	}
}

// Currency returns the ISO 4217 code in use, e.g. "EUR".
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Locale returns the resolved language tag.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Format renders amount with the currency symbol and the locale's
// separators, e.g. "$ 3.50" or "€ 3,50".
//
// The amount is rounded to the currency's minor unit and then printed as a
// float64, so digits beyond about 15 significant places are not exact.
// That only affects display; the stored value stays exact.
func (f *Formatter) Format(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(f.unit)
	rounded := amount.Round(int32(scale))
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(rounded.InexactFloat64())))
}

// Color is the display colour for a tier.
func Color(t core.Tier) string {
	switch t {
	case core.Low:
		return "blue"
	case core.Medium:
		return "yellow"
	default:
		return "red"
	}
}
