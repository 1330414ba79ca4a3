package document

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Formatter turns a field value into display text.
type Formatter interface {
	Format(kind model.FieldType, value model.Value) string
}

// LocaleFormatter formats currency with locale grouping and a fixed symbol,
// and dates with a Go time layout. Other kinds use their raw string form.
type LocaleFormatter struct {
	printer    *message.Printer
	symbol     string
	dateLayout string
}

// DefaultDateLayout matches the short US date form, e.g. 3/14/2024.
const DefaultDateLayout = "1/2/2006"

// NewLocaleFormatter returns a formatter for tag. Empty symbol or layout
// fall back to "$" and DefaultDateLayout.
func NewLocaleFormatter(tag language.Tag, symbol, dateLayout string) *LocaleFormatter {
	if symbol == "" {
		symbol = "$"
	}
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &LocaleFormatter{
		printer:    message.NewPrinter(tag),
		symbol:     symbol,
		dateLayout: dateLayout,
	}
}

// DefaultFormatter formats for American English with a dollar sign.
func DefaultFormatter() *LocaleFormatter {
	return NewLocaleFormatter(language.AmericanEnglish, "$", DefaultDateLayout)
}

func (f *LocaleFormatter) Format(kind model.FieldType, value model.Value) string {
	if kind == "" {
		kind = value.Kind()
	}
	if value.Kind() != kind {
		if coerced, err := model.Coerce(kind, value); err == nil {
			value = coerced
		}
	}

	switch value.Kind() {
	case model.FieldTypeCurrency:
		n, _ := value.Number()
		return f.Currency(n)
	case model.FieldTypeDate:
		t, _ := value.Date()
		return f.Date(t)
	default:
		return value.String()
	}
}

// Currency renders n with two decimals, thousands separators and the
// configured symbol, e.g. $1,200.00 or -$35.50.
func (f *LocaleFormatter) Currency(n float64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = math.Abs(n)
	}
	return sign + f.symbol + f.printer.Sprintf("%.2f", n)
}

// Date renders t with the configured layout.
func (f *LocaleFormatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strings.TrimSpace(t.Format(f.dateLayout))
}
