package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/use-agent/finrate/models"
)

var numberCleaner = strings.NewReplacer(",", "", "%", "")

// Normalize converts a scraped cell to a Value: thousands separators and
// percent signs are dropped and the remainder parsed as a float. If that
// fails the trimmed original text is kept.
func Normalize(raw string) models.Value {
	trimmed := strings.TrimSpace(raw)
	if f, ok := parseFinite(numberCleaner.Replace(trimmed)); ok {
		return models.Number(f)
	}
	return models.Text(trimmed)
}

// parseFinite is strconv.ParseFloat without NaN and the infinities, which
// would parse from words like "Inf" and cannot be encoded as JSON.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parsePercent converts "12.5%" to 0.125.
func parsePercent(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	f, ok := parseFinite(strings.TrimSuffix(s, "%"))
	if !ok {
		return 0, false
	}
	return f / 100, true
}

// FormatPercent renders a fraction produced by the sector percent
// conversion back in page form, e.g. 0.1 -> "10%".
func FormatPercent(f float64) string {
	pct := strconv.FormatFloat(f*100, 'f', 10, 64)
	pct = strings.TrimRight(pct, "0")
	pct = strings.TrimSuffix(pct, ".")
	if pct == "-0" {
		pct = "0"
	}
	return pct + "%"
}
