// Package transactions implements the upload validation and summary pipeline
// over transaction CSV files.
package transactions

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"txstats/internal/core"
)

// Column positions inside a projected record.
const (
	idxTransactionID = iota
	idxUserID
	idxProductID
	idxTimestamp
	idxAmount
)

var (
	errNotUTF8  = errors.New("content is not valid UTF-8")
	errNoHeader = errors.New("no columns to parse from file")
	errNoValue  = errors.New("empty value")
	errScale    = errors.New("amount exponent out of range")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// missingColumnsError lists required headers absent from the file.
type missingColumnsError struct {
	missing []string
}

func (e *missingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.missing, ", ")
}

// decodeUTF8 checks the encoding and drops a leading byte order mark.
func decodeUTF8(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, errNotUTF8
	}
	return bytes.TrimPrefix(raw, utf8BOM), nil
}

// readProjected parses text as CSV and returns every data record restricted to
// core.RequiredHeaders, in that column order. Extra columns are ignored. Every
// record must have as many fields as the header.
func readProjected(text []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(text))

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errNoHeader
	}
	if err != nil {
		return nil, err
	}

	positions, missing := locateColumns(header)
	if len(missing) > 0 {
		return nil, &missingColumnsError{missing: missing}
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]string, len(positions))
		for i, pos := range positions {
			row[i] = record[pos]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// locateColumns maps each required header to its first position in header.
func locateColumns(header []string) (positions []int, missing []string) {
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := seen[name]; !dup {
			seen[name] = i
		}
	}
	positions = make([]int, len(core.RequiredHeaders))
	for i, name := range core.RequiredHeaders {
		pos, ok := seen[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		positions[i] = pos
	}
	return positions, missing
}

// parseTimestamp accepts exactly core.TimestampLayout, without fractional
// seconds or surrounding whitespace.
func parseTimestamp(v string) (time.Time, error) {
	if len(v) != len(core.TimestampLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q does not match %s", v, core.TimestampLayout)
	}
	return time.Parse(core.TimestampLayout, v)
}

// maxAmountExponent bounds the decimal exponent of an amount. Arithmetic
// rescales operands to a common exponent, which grows with it.
const maxAmountExponent = 28

// parseAmount parses a decimal amount, tolerating surrounding whitespace.
func parseAmount(v string) (decimal.Decimal, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return decimal.Decimal{}, errNoValue
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Decimal{}, errScale
	}
	return d, nil
}
