// internal/normalize/price.go
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/price-hounds/farmaprice/pkg/models"
)

// moneyToken pulls the first run of digits/separators out of free text,
// after currency symbols and labels have been stripped around it.
var moneyToken = regexp.MustCompile(`\d[\d.,]*`)

// priceStrategy tries to interpret a money token under one locale
// convention. It either applies cleanly or reports that it does not; there
// is no guessing. Strategies are tried in order and the first match wins.
type priceStrategy struct {
	name    string
	pattern *regexp.Regexp
	cents   func(m []string) int64
}

var priceStrategies = []priceStrategy{
	{
		// European convention: comma decimal, optional dot thousands.
		// "12,50"  "1.234,56"
		name:    "comma-decimal",
		pattern: regexp.MustCompile(`^(\d{1,3}(?:\.\d{3})+|\d+),(\d{1,2})$`),
		cents: func(m []string) int64 {
			whole := strings.ReplaceAll(m[1], ".", "")
			return atoi64(whole)*100 + fractionCents(m[2])
		},
	},
	{
		// Dot decimal, optional comma thousands. "12.50"  "1,234.56"
		name:    "dot-decimal",
		pattern: regexp.MustCompile(`^(\d{1,3}(?:,\d{3})+|\d+)\.(\d{1,2})$`),
		cents: func(m []string) int64 {
			whole := strings.ReplaceAll(m[1], ",", "")
			return atoi64(whole)*100 + fractionCents(m[2])
		},
	},
	{
		// Bare integer: whole currency units.
		name:    "integer",
		pattern: regexp.MustCompile(`^\d+$`),
		cents: func(m []string) int64 {
			return atoi64(m[0]) * 100
		},
	},
}

// ParsePrice converts locale-formatted price text into a fixed-point euro
// price. Tokens no strategy claims ("12,345", "1.2.3") are rejected rather
// than guessed.
func ParsePrice(text string) (models.Price, bool) {
	token := moneyToken.FindString(text)
	if token == "" {
		return models.Price{}, false
	}

	for _, s := range priceStrategies {
		if m := s.pattern.FindStringSubmatch(token); m != nil {
			return models.EUR(s.cents(m)), true
		}
	}
	return models.Price{}, false
}

// freeShippingWords are the phrasings the aggregator uses for no-cost
// delivery.
var freeShippingWords = []string{"gratis", "gratuita", "gratuito", "free"}

// ParseShipping is ParsePrice with the "free" phrasings mapped to zero.
func ParseShipping(text string) (models.Price, bool) {
	lower := strings.ToLower(text)
	for _, w := range freeShippingWords {
		if strings.Contains(lower, w) {
			return models.EUR(0), true
		}
	}
	return ParsePrice(text)
}

func fractionCents(frac string) int64 {
	// A single decimal digit means tenths: "4,9" is 4.90.
	if len(frac) == 1 {
		return atoi64(frac) * 10
	}
	return atoi64(frac)
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
