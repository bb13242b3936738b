package shared

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// Round2 rounds half away from zero to two decimal places.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Sum adds the supplied amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FormatRupiah renders an amount as "Rp 150.000" for memos and logs.
func FormatRupiah(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}
	whole := v.Truncate(0).IntPart()
	out := rupiahPrinter.Sprintf("Rp %s%d", sign, whole)
	frac := v.Sub(decimal.NewFromInt(whole)).Round(2)
	if !frac.IsZero() {
		cents := strings.TrimPrefix(frac.StringFixed(2), "0.")
		out += "," + cents
	}
	return out
}
