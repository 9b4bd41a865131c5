// Command txsummary validates a transactions CSV locally and prints per-user
// summaries as a table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"txstats/internal/core"
	"txstats/internal/storage"
	"txstats/internal/transactions"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("txsummary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		filePath = fs.String("file", "", "Path to the transactions CSV")
		userID   = fs.String("user", "", "Summarize only this user")
		dateFrom = fs.String("from", "", "Inclusive lower bound (YYYY-MM-DD)")
		dateTo   = fs.String("to", "", "Exclusive upper bound (YYYY-MM-DD)")
		limit    = fs.Int("limit", 0, "Maximum number of users to print when -user is not set (0 = all)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *filePath == "" {
		fmt.Fprintln(stderr, "txsummary: -file is required")
		fs.Usage()
		return 2
	}

	raw, err := readFile(*filePath)
	if err != nil {
		fmt.Fprintf(stderr, "txsummary: %v\n", err)
		return 1
	}

	rows, err := transactions.Check(raw)
	if err != nil {
		fmt.Fprintf(stderr, "txsummary: validation failed: %v\n", err)
		return 1
	}

	table, err := transactions.Load(raw)
	if err != nil {
		fmt.Fprintf(stderr, "txsummary: %v\n", err)
		return 1
	}

	users := []string{*userID}
	if *userID == "" {
		users = table.Users()
		if *limit > 0 && len(users) > *limit {
			users = users[:*limit]
		}
	}

	out := tablewriter.NewWriter(stdout)
	out.SetHeader([]string{"User", "Maximum", "Minimum", "Average"})
	out.SetAlignment(tablewriter.ALIGN_RIGHT)

	failed := 0
	for _, u := range users {
		summary, err := transactions.Summarize(table, u, *dateFrom, *dateTo)
		if err != nil {
			if core.IsSummary(err, core.KindInvalidDate) || core.IsSummary(err, core.KindDateOrder) {
				fmt.Fprintf(stderr, "txsummary: %v\n", err)
				return 1
			}
			failed++
			out.Append([]string{u, "-", "-", "-"})
			continue
		}
		out.Append([]string{u, formatAmount(summary.Maximum), formatAmount(summary.Minimum), formatAmount(summary.Average)})
	}
	out.Render()

	fmt.Fprintf(stdout, "%d rows validated, %d users summarized", rows, len(users)-failed)
	if failed > 0 {
		fmt.Fprintf(stdout, ", %d without amounts in range", failed)
	}
	fmt.Fprintln(stdout)

	if *userID != "" && failed > 0 {
		return 1
	}
	return 0
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := storage.ReadLimited(f, storage.MaxUploadBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, fmt.Errorf("%s exceeds the 95 MiB upload limit", path)
	}
	return raw, err
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
