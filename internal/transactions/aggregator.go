package transactions

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"txstats/internal/core"
)

// Summarize computes the maximum, minimum and average amount of userID's
// transactions, optionally bounded by dateFrom (inclusive) and dateTo
// (exclusive), both YYYY-MM-DD. An empty bound is open.
func Summarize(table core.TransactionTable, userID, dateFrom, dateTo string) (core.Summary, error) {
	rows := table.ForUser(userID)
	if len(rows) == 0 {
		return core.Summary{}, core.NewSummaryError(core.KindUserNotFound,
			fmt.Sprintf("No transactions found for user %s", userID), nil)
	}

	rng, err := ParseDateRange(dateFrom, dateTo)
	if err != nil {
		return core.Summary{}, wrapSummary(err)
	}

	summary, err := aggregate(rows.Within(rng), userID)
	if err != nil {
		return core.Summary{}, wrapSummary(err)
	}
	return summary, nil
}

// ParseDateRange parses the optional bounds of a summary query and checks
// their order.
func ParseDateRange(dateFrom, dateTo string) (core.DateRange, error) {
	var rng core.DateRange
	var err error
	if rng.From, err = parseDate(dateFrom); err != nil {
		return core.DateRange{}, err
	}
	if rng.To, err = parseDate(dateTo); err != nil {
		return core.DateRange{}, err
	}
	if rng.From != nil && rng.To != nil && rng.From.After(*rng.To) {
		return core.DateRange{}, core.NewSummaryError(core.KindDateOrder, "date_from cannot be after date_to", nil)
	}
	return rng, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return nil, core.NewSummaryError(core.KindInvalidDate, "Invalid date format: "+s, err)
	}
	return &d, nil
}

func aggregate(rows core.TransactionTable, userID string) (core.Summary, error) {
	var (
		maximum, minimum, sum decimal.Decimal
		n                     int64
	)
	for _, row := range rows {
		if !row.Amount.Valid {
			continue
		}
		amount := row.Amount.Decimal
		if n == 0 || amount.GreaterThan(maximum) {
			maximum = amount
		}
		if n == 0 || amount.LessThan(minimum) {
			minimum = amount
		}
		sum = sum.Add(amount)
		n++
	}
	if n == 0 {
		return core.Summary{}, core.NewSummaryError(core.KindNoAmounts,
			fmt.Sprintf("No valid transaction amounts for user %s in the given date range", userID), nil)
	}

	// Round rounds half away from zero.
	average := sum.Div(decimal.NewFromInt(n)).Round(2)
	return core.Summary{
		Maximum: maximum.InexactFloat64(),
		Minimum: minimum.InexactFloat64(),
		Average: average.InexactFloat64(),
	}, nil
}

// wrapSummary keeps domain errors intact and gives anything else context.
func wrapSummary(err error) error {
	var se *core.SummaryError
	if errors.As(err, &se) {
		return err
	}
	return core.NewSummaryError(core.KindSummary, "Error in summary extraction: "+err.Error(), err)
}
