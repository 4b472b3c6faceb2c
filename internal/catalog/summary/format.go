package summary

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"countrycatalog/internal/catalog/models"
)

// TopN is the number of ranked entries shown on the summary.
const TopN = 5

var billion = decimal.New(1, 9)

// RankedLines formats up to TopN entries as "rank. name — $<gdp>B".
// Entries without an estimate are skipped; top must already be ranked.
func RankedLines(top []*models.Country) []string {
	lines := make([]string, 0, TopN)
	for _, c := range top {
		if c == nil || !c.HasGDP() {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s — $%sB", len(lines)+1, c.Name, FormatBillions(*c.EstimatedGDP)))
		if len(lines) == TopN {
			break
		}
	}
	return lines
}

// FormatBillions renders gdp in billions with two decimals and thousands
// separators, e.g. 1234567890123 -> "1,234.57".
func FormatBillions(gdp float64) string {
	fixed := decimal.NewFromFloat(gdp).Div(billion).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
