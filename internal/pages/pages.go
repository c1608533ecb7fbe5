// Package pages содержит контроллеры страниц магазина. Каждый вызов возвращает
// новое представление страницы; ошибки бэкенда превращаются в строку Error.
package pages

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"storefront/client/internal/apiclient"
	"storefront/client/internal/logging"
)

var (
	pricePrinter = message.NewPrinter(language.AmericanEnglish)
	// Выше int64 printer не работает, там разделители ставятся вручную.
	maxGroupedByPrinter = decimal.NewFromInt(math.MaxInt64)
)

// FormatPrice форматирует сумму как $1,234.50. Копейки берутся из decimal
// без перехода через float64.
func FormatPrice(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, cents, _ := strings.Cut(fixed, ".")
	return "$" + sign + groupThousands(whole) + "." + cents
}

// groupThousands расставляет разделители тысяч в целой части.
func groupThousands(digits string) string {
	whole, err := decimal.NewFromString(digits)
	if err == nil && whole.LessThanOrEqual(maxGroupedByPrinter) {
		return pricePrinter.Sprint(number.Decimal(whole.IntPart()))
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// WithReason добавляет к сообщению текст ошибки бэкенда.
func WithReason(prefix string, err error) string {
	reason := apiclient.Message(err)
	if reason == "" {
		reason = "Unknown error"
	}
	return prefix + reason
}

func nopIfNil(logger *logging.Logger) *logging.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}
