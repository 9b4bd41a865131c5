package transactions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"txstats/internal/core"
)

// Load parses previously validated CSV bytes into a table sorted by timestamp.
// Malformed input is not expected here but still fails cleanly: every problem
// becomes a *core.SummaryError.
func Load(raw []byte) (core.TransactionTable, error) {
	text, err := decodeUTF8(raw)
	if err != nil {
		return nil, loadError(err)
	}

	rows, err := readProjected(text)
	if err != nil {
		var parseErr *csv.ParseError
		switch {
		case errors.Is(err, errNoHeader):
			return nil, noData()
		case errors.As(err, &parseErr):
			return nil, core.NewSummaryError(core.KindLoad, "Error parsing transaction data: "+parseErr.Error(), err)
		default:
			return nil, loadError(err)
		}
	}
	if len(rows) == 0 {
		return nil, noData()
	}

	table := make(core.TransactionTable, 0, len(rows))
	for i, rec := range rows {
		row, err := toRow(rec)
		if err != nil {
			return nil, loadError(fmt.Errorf("row %d: %w", i, err))
		}
		table = append(table, row)
	}

	slices.SortStableFunc(table, func(a, b core.TransactionRow) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return table, nil
}

func toRow(rec []string) (core.TransactionRow, error) {
	ts, err := parseTimestamp(rec[idxTimestamp])
	if err != nil {
		return core.TransactionRow{}, fmt.Errorf("parse timestamp: %w", err)
	}

	var amount decimal.NullDecimal
	if strings.TrimSpace(rec[idxAmount]) != "" {
		d, err := parseAmount(rec[idxAmount])
		if err != nil {
			return core.TransactionRow{}, fmt.Errorf("parse amount %q: %w", rec[idxAmount], err)
		}
		amount = decimal.NewNullDecimal(d)
	}

	return core.TransactionRow{
		TransactionID: rec[idxTransactionID],
		UserID:        rec[idxUserID],
		ProductID:     rec[idxProductID],
		Timestamp:     ts,
		Amount:        amount,
	}, nil
}

func noData() *core.SummaryError {
	return core.NewSummaryError(core.KindNoData, "No transaction data available", nil)
}

func loadError(err error) *core.SummaryError {
	return core.NewSummaryError(core.KindLoad, "Failed to load transaction data: "+err.Error(), err)
}
