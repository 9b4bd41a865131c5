package transactions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"txstats/internal/core"
)

// Finding is one malformed cell discovered during validation.
type Finding struct {
	Index int // 0-based data row index
	Field string
	Value string
}

// fieldRank orders findings on the same row: timestamps are reported first.
var fieldRank = map[string]int{
	core.ColTimestamp: 0,
	core.ColAmount:    1,
}

func (f Finding) less(o Finding) bool {
	if f.Index != o.Index {
		return f.Index < o.Index
	}
	return fieldRank[f.Field] < fieldRank[o.Field]
}

func (f Finding) toError() *core.ValidationError {
	if f.Field == core.ColTimestamp {
		return core.NewValidationError(core.KindTimestamp,
			fmt.Sprintf("Invalid timestamp found on line %d: %s", f.Index, f.Value), nil)
	}
	return core.NewValidationError(core.KindAmount,
		fmt.Sprintf("Invalid transaction amount found on line %d: %s", f.Index, f.Value), nil)
}

// Validate checks that raw is a UTF-8 CSV carrying the required headers and at
// least one data row, with every timestamp and amount well formed. On failure
// it returns a *core.ValidationError describing the first problem.
func Validate(raw []byte) error {
	_, err := Check(raw)
	return err
}

// Check is Validate that also returns the number of data rows.
func Check(raw []byte) (int, error) {
	text, err := decodeUTF8(raw)
	if err != nil {
		return 0, core.NewValidationError(core.KindEncoding, "File must be UTF-8 encoded", err)
	}

	rows, err := readProjected(text)
	if err != nil {
		return 0, classifyReadError(err)
	}
	if len(rows) == 0 {
		return 0, core.NewValidationError(core.KindEmpty, "CSV is empty", nil)
	}

	if first, ok := firstFinding(Scan(rows)); ok {
		return 0, first.toError()
	}
	return len(rows), nil
}

// Scan evaluates every projected row and returns all malformed timestamp and
// amount cells, in row order.
func Scan(rows [][]string) []Finding {
	var findings []Finding
	for i, row := range rows {
		if _, err := parseTimestamp(row[idxTimestamp]); err != nil {
			findings = append(findings, Finding{Index: i, Field: core.ColTimestamp, Value: row[idxTimestamp]})
		}
		if _, err := parseAmount(row[idxAmount]); err != nil {
			findings = append(findings, Finding{Index: i, Field: core.ColAmount, Value: row[idxAmount]})
		}
	}
	return findings
}

func firstFinding(findings []Finding) (Finding, bool) {
	if len(findings) == 0 {
		return Finding{}, false
	}
	first := findings[0]
	for _, f := range findings[1:] {
		if f.less(first) {
			first = f
		}
	}
	return first, true
}

func classifyReadError(err error) *core.ValidationError {
	var missing *missingColumnsError
	var parseErr *csv.ParseError
	switch {
	case errors.As(err, &missing):
		return core.NewValidationError(core.KindMissingColumns,
			"Missing required columns: "+strings.Join(missing.missing, ", "), err)
	case errors.Is(err, errNoHeader):
		return core.NewValidationError(core.KindEmpty, "CSV is empty", err)
	case errors.As(err, &parseErr):
		return core.NewValidationError(core.KindParse,
			"CSV error occurred during parsing: "+parseErr.Error(), err)
	default:
		return core.NewValidationError(core.KindParse, "Invalid CSV format: "+err.Error(), err)
	}
}
