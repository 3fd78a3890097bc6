// Package format renders dashboard values for display.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter is safe for concurrent use.
type Formatter struct {
	currency string
	tag      language.Tag
	printer  *message.Printer
}

// New builds a formatter printing amounts with the currency symbol in the
// number style of locale, e.g. "R$" and "es-CO".
func New(currency, locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Formatter{
		currency: currency,
		tag:      tag,
		printer:  message.NewPrinter(tag),
	}, nil
}

func (f *Formatter) Money(d decimal.Decimal) string {
	return f.printer.Sprintf("%s %.2f", f.currency, d.InexactFloat64())
}

func (f *Formatter) Int(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Fixed prints v rounded to exactly places fraction digits.
func (f *Formatter) Fixed(v float64, places int) string {
	return f.printer.Sprint(number.Decimal(v, number.Scale(places)))
}

// Category turns a category key such as "cama_mesa_banho" into a label.
func (f *Formatter) Category(name string) string {
	if name == "" {
		return "-"
	}
	// Casers are stateful; build one per call.
	return cases.Title(f.tag).String(strings.ReplaceAll(name, "_", " "))
}

// Place title-cases a city or keeps a state code as is.
func (f *Formatter) Place(name string) string {
	if name == "" {
		return "-"
	}
	if len(name) <= 2 {
		return strings.ToUpper(name)
	}
	return cases.Title(f.tag).String(name)
}
