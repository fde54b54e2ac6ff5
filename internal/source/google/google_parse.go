package google

import (
	"fmt"
	"strconv"
	"strings"

	"saldo/internal/core"
)

// parseTransactionRows converts a values matrix (as returned by the Sheets
// API) into transactions. Rows that cannot be parsed are skipped; the sheet
// is best-effort data entry, not a validated store.
func parseTransactionRows(values [][]interface{}) []core.Transaction {
	var out []core.Transaction
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 4 {
			continue
		}
		// Skip a likely header row: no parseable amount in column C.
		if i == 0 {
			if _, ok := parseAmountToCents(cols[2]); !ok {
				continue
			}
		}
		cents, ok := parseAmountToCents(cols[2])
		if !ok {
			continue
		}
		date := strings.TrimSpace(cols[0])
		category := strings.TrimSpace(cols[1])
		typ := core.TransactionType(strings.ToLower(strings.TrimSpace(cols[3])))
		if date == "" || category == "" {
			continue
		}
		out = append(out, core.Transaction{
			ID:       int64(i + 1), // sheet row number
			Amount:   core.Money{Cents: cents},
			Category: category,
			Date:     date,
			Type:     typ,
		})
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseAmountToCents parses a signed decimal amount that may use a decimal
// comma, falling back to float parsing for values the sheet formatted
// without a separator.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if cents, err := core.ParseSignedDecimalToCents(s); err == nil {
		return cents, true
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		return int64((f * 100.0) - 0.5), true
	}
	return int64((f * 100.0) + 0.5), true
}
