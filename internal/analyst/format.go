package analyst

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

// ArbitrageReportThreshold is the gap, in percent, above which a pair is
// called out as an opportunity in answers
const ArbitrageReportThreshold = 1.0

const sampleRows = 3

var printer = message.NewPrinter(language.English)

// EmptyResultText is the answer for a query that matched nothing
const EmptyResultText = "I couldn't find any matching crypto data for your query. " +
	"The database might be empty or the time range might be too restrictive."

// FormatAnswer summarises a result set for a human reader
func FormatAnswer(question string, rs *domain.ResultSet) string {
	if rs == nil || rs.Len() == 0 {
		return EmptyResultText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on your question '%s', here's what I found:\n", question)
	fmt.Fprintf(&b, "\nFound %d records with %d data points each.\n", rs.Len(), len(rs.Columns))

	if rs.HasColumn("price") {
		if s, ok := stats(rs, "price"); ok {
			b.WriteString("\nPrice Analysis:\n")
			b.WriteString(printer.Sprintf("  - Average Price: $%.2f\n", s.avg))
			b.WriteString(printer.Sprintf("  - Price Range: $%.2f - $%.2f\n", s.min, s.max))
		}
	}

	if rs.HasColumn("arbitrage_pct") {
		b.WriteString("\nArbitrage Opportunities:\n")
		var hits []int
		for i := 0; i < rs.Len(); i++ {
			if pct, ok := rs.Float(i, "arbitrage_pct"); ok && pct > ArbitrageReportThreshold {
				hits = append(hits, i)
			}
		}
		if len(hits) == 0 {
			fmt.Fprintf(&b, "  - No significant arbitrage opportunities found (>%.0f%%)\n", ArbitrageReportThreshold)
		} else {
			fmt.Fprintf(&b, "  - Found %d opportunities > %.0f%%\n", len(hits), ArbitrageReportThreshold)
			for _, i := range hits[:min(len(hits), sampleRows)] {
				pct, _ := rs.Float(i, "arbitrage_pct")
				fmt.Fprintf(&b, "  - %s: %.2f%% between %s and %s\n",
					rs.String(i, "symbol"), pct, rs.String(i, "exchange1"), rs.String(i, "exchange2"))
			}
		}
	}

	if rs.HasColumn("total_volume") {
		var total float64
		for i := 0; i < rs.Len(); i++ {
			if v, ok := rs.Float(i, "total_volume"); ok {
				total += v
			}
		}
		b.WriteString("\nVolume Analysis:\n")
		b.WriteString(printer.Sprintf("  - Total Volume: %.2f\n", total))
		b.WriteString(printer.Sprintf("  - Average per Exchange: %.2f\n", total/float64(rs.Len())))
	}

	b.WriteString("\nSample Data:\n")
	for i := 0; i < min(rs.Len(), sampleRows); i++ {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, formatRow(rs, i))
	}
	if rs.Len() > sampleRows {
		fmt.Fprintf(&b, "  ... and %d more records\n", rs.Len()-sampleRows)
	}

	return strings.TrimRight(b.String(), "\n")
}

// ErrorText is the answer given when the query could not be run
func ErrorText(err error) string {
	return fmt.Sprintf("I encountered an error while analyzing your crypto data: %v", err)
}

func formatRow(rs *domain.ResultSet, row int) string {
	parts := make([]string, 0, len(rs.Columns))
	for _, c := range rs.Columns {
		parts = append(parts, c.Name+": "+displayValue(rs, row, c.Name))
	}
	return strings.Join(parts, " | ")
}

func displayValue(rs *domain.ResultSet, row int, column string) string {
	if rs.Value(row, column) == nil {
		return "null"
	}
	return rs.String(row, column)
}

type summary struct {
	avg, min, max float64
}

// stats ignores nulls; ok is false when the column has no numbers
func stats(rs *domain.ResultSet, column string) (summary, bool) {
	var s summary
	n := 0
	for i := 0; i < rs.Len(); i++ {
		v, ok := rs.Float(i, column)
		if !ok {
			continue
		}
		if n == 0 || v < s.min {
			s.min = v
		}
		if n == 0 || v > s.max {
			s.max = v
		}
		s.avg += v
		n++
	}
	if n == 0 {
		return s, false
	}
	s.avg /= float64(n)
	return s, true
}
