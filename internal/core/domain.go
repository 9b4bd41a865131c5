package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TimestampLayout is the only accepted format for the timestamp column.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is the format of the summary date bounds.
	DateLayout = "2006-01-02"
)

const (
	ColTransactionID = "transaction_id"
	ColUserID        = "user_id"
	ColProductID     = "product_id"
	ColTimestamp     = "timestamp"
	ColAmount        = "transaction_amount"
)

// RequiredHeaders lists the columns every accepted CSV must carry, in the order
// the pipeline projects them.
var RequiredHeaders = []string{
	ColTransactionID,
	ColUserID,
	ColProductID,
	ColTimestamp,
	ColAmount,
}

type (
	// TransactionRow is one typed CSV data record. Amount is null when the cell
	// was empty; such rows never contribute to a summary.
	TransactionRow struct {
		TransactionID string
		UserID        string
		ProductID     string
		Timestamp     time.Time
		Amount        decimal.NullDecimal
	}

	// TransactionTable is sorted ascending by Timestamp and is not modified
	// after the loader returns it.
	TransactionTable []TransactionRow

	// Summary holds the statistics returned for a user.
	Summary struct {
		Maximum float64 `json:"maximum"`
		Minimum float64 `json:"minimum"`
		Average float64 `json:"average"`
	}

	// DateRange bounds a summary query. From is inclusive, To is exclusive.
	// A nil bound is open.
	DateRange struct {
		From *time.Time
		To   *time.Time
	}

	// UploadRecord describes one accepted upload.
	UploadRecord struct {
		ID        string    `json:"id"`
		FileName  string    `json:"file_name"`
		SizeBytes int64     `json:"size_bytes"`
		Rows      int       `json:"rows"`
		SHA256    string    `json:"sha256"`
		Location  string    `json:"location"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// Contains reports whether ts falls inside the range.
func (r DateRange) Contains(ts time.Time) bool {
	if r.From != nil && ts.Before(*r.From) {
		return false
	}
	if r.To != nil && !ts.Before(*r.To) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.From == nil && r.To == nil
}

// ForUser returns the rows belonging to userID, keeping table order.
func (t TransactionTable) ForUser(userID string) TransactionTable {
	var out TransactionTable
	for _, row := range t {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

// Users returns the distinct user ids in order of first appearance.
func (t TransactionTable) Users() []string {
	seen := make(map[string]struct{})
	var users []string
	for _, row := range t {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		users = append(users, row.UserID)
	}
	return users
}

// Within returns the rows whose timestamp lies in r.
func (t TransactionTable) Within(r DateRange) TransactionTable {
	if r.IsOpen() {
		return t
	}
	var out TransactionTable
	for _, row := range t {
		if r.Contains(row.Timestamp) {
			out = append(out, row)
		}
	}
	return out
}
