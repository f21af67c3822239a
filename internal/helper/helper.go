package helper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundTo округляет до places знаков после запятой (half away from zero).
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// FormatFixed — как "%.Nf", но без артефактов двоичного представления.
func FormatFixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// InstID собирает спотовый instId биржи: "btc", "usdt" -> "BTCUSDT".
func InstID(base, quote string) string {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if quote == "" || strings.HasSuffix(base, quote) {
		return base
	}
	return base + quote
}
