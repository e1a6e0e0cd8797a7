// Package extractor pulls a numeric amount and currency code out of raw text.
// It is the leaf of the heuristic parsing path: pure regex work, no I/O.
package extractor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Extraction is the result of scanning one phrase. A nil Amount signals
// "insufficient data" downstream, never a zero-value transaction.
type Extraction struct {
	Amount   *decimal.Decimal
	Currency string
}

// currency marker tokens, matched case-insensitively. Symbol markers need no
// word boundary; word markers do, so "tk" will not fire inside another word.
const markerPattern = `৳|\$|\btaka\b|\btk\b|\bbdt\b|\busd\b|\bdollars?\b`

// amountPattern accepts plain integers, decimals, and comma-grouped thousands
// ("1,234.56"). Comma groups must be exact triples to avoid swallowing lists.
const amountPattern = `\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`

// Extractor scans text for amounts with adjacent currency markers.
type Extractor struct {
	re              *regexp.Regexp
	defaultCurrency string
}

// New creates an Extractor. defaultCurrency applies when an amount is found
// without any marker; an empty string falls back to BDT, the home market.
func New(defaultCurrency string) *Extractor {
	if defaultCurrency == "" {
		defaultCurrency = "BDT"
	}
	// Groups: (prefix marker)(amount)(suffix marker)
	pattern := `(?i)(?:(` + markerPattern + `)\s*)?(` + amountPattern + `)(?:\s*(` + markerPattern + `))?`
	return &Extractor{
		re:              regexp.MustCompile(pattern),
		defaultCurrency: defaultCurrency,
	}
}

// Extract finds the amount and currency in text. With several numbers present
// it prefers the one adjacent to a currency marker, otherwise the first number
// encountered. No number at all yields a zero Extraction.
func (e *Extractor) Extract(text string) Extraction {
	matches := e.re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Extraction{}
	}

	chosen := matches[0]
	for _, m := range matches {
		if m[1] != "" || m[3] != "" {
			chosen = m
			break
		}
	}

	amount, err := parseAmount(chosen[2])
	if err != nil {
		return Extraction{}
	}

	currency := e.defaultCurrency
	if marker := firstNonEmpty(chosen[1], chosen[3]); marker != "" {
		currency = normalizeCurrency(marker)
	}

	return Extraction{Amount: &amount, Currency: currency}
}

// parseAmount converts a matched amount token to a decimal, stripping
// thousands separators.
func parseAmount(token string) (decimal.Decimal, error) {
	token = strings.ReplaceAll(token, ",", "")
	return decimal.NewFromString(token)
}

// normalizeCurrency maps a marker token onto its ISO 4217 code.
func normalizeCurrency(marker string) string {
	switch strings.ToLower(strings.TrimSpace(marker)) {
	case "৳", "taka", "tk", "bdt":
		return "BDT"
	case "$", "usd", "dollar", "dollars":
		return "USD"
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
