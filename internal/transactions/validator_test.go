package transactions

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"txstats/internal/core"
)

const header = "transaction_id,user_id,product_id,timestamp,transaction_amount\n"

func csvOf(rows ...string) []byte {
	return []byte(header + strings.Join(rows, "\n") + "\n")
}

func TestValidateAcceptsWellFormedFiles(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		rows int
	}{
		{"single row", csvOf("t1,305,10,2025-01-01 10:00:00,10.00"), 1},
		{"many rows", csvOf(
			"t1,305,10,2025-01-01 10:00:00,10.00",
			"t2,306,11,2025-02-01 11:30:00,20",
			"t3,305,12,2025-03-01 23:59:59,-3.5",
		), 3},
		{"extra and reordered columns", []byte(
			"note,transaction_amount,timestamp,product_id,user_id,transaction_id\n" +
				"hi,12.50,2025-01-01 10:00:00,10,305,t1\n"), 1},
		{"byte order mark", append([]byte{0xEF, 0xBB, 0xBF}, csvOf("t1,305,10,2025-01-01 10:00:00,1")...), 1},
		{"exponent amount", csvOf("t1,305,10,2025-01-01 10:00:00,1.5e2"), 1},
		{"quoted fields", csvOf(`"t,1",305,10,"2025-01-01 10:00:00","7.25"`), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Check(tc.raw)
			if err != nil {
				t.Fatalf("Check returned error: %v", err)
			}
			if n != tc.rows {
				t.Fatalf("Check rows = %d, want %d", n, tc.rows)
			}
			if err := Validate(tc.raw); err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
		})
	}
}

func TestValidateRejectsStructure(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		kind core.ValidationKind
		msg  string
	}{
		{"invalid utf8", []byte("transaction_id,user_id\n\xff\xfe\n"), core.KindEncoding, "File must be UTF-8 encoded"},
		{"missing columns", []byte("transaction_id,user_id,timestamp\nt1,1,2025-01-01 10:00:00\n"), core.KindMissingColumns,
			"Missing required columns: product_id, transaction_amount"},
		{"header only", []byte(header), core.KindEmpty, "CSV is empty"},
		{"empty file", []byte(""), core.KindEmpty, "CSV is empty"},
		{"field count mismatch", csvOf("t1,305,10,2025-01-01 10:00:00,10.00,extra"), core.KindParse, ""},
		{"bare quote", csvOf(`t1,30"5,10,2025-01-01 10:00:00,10.00`), core.KindParse, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.raw)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *core.ValidationError, got %T (%v)", err, err)
			}
			if ve.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s (%v)", ve.Kind, tc.kind, err)
			}
			if tc.msg != "" && ve.Error() != tc.msg {
				t.Fatalf("message = %q, want %q", ve.Error(), tc.msg)
			}
			if tc.kind == core.KindParse && !strings.HasPrefix(ve.Error(), "CSV error occurred during parsing") {
				t.Fatalf("unexpected parse message %q", ve.Error())
			}
		})
	}
}

func TestValidateReportsFirstBadCell(t *testing.T) {
	cases := []struct {
		name string
		rows []string
		want string
	}{
		{
			"timestamp only",
			[]string{"t0,1,1,2025-01-01 10:00:00,1", "t1,1,1,2025-13-01 10:00:00,1"},
			"Invalid timestamp found on line 1: 2025-13-01 10:00:00",
		},
		{
			"amount only",
			[]string{"t0,1,1,2025-01-01 10:00:00,1", "t1,1,1,2025-01-01 10:00:00,1", "t2,1,1,2025-01-01 10:00:00,12.3a4"},
			"Invalid transaction amount found on line 2: 12.3a4",
		},
		{
			"earlier amount beats later timestamp",
			[]string{"t0,1,1,2025-01-01 10:00:00,abc", "t1,1,1,2025-0x-01 10:00:00,1"},
			"Invalid transaction amount found on line 0: abc",
		},
		{
			"earlier timestamp beats later amount",
			[]string{"t0,1,1,2025-01-01 10:00:00,1", "t1,1,1,202a5-01-01 10:00:00,1", "t2,1,1,2025-01-01 10:00:00,x"},
			"Invalid timestamp found on line 1: 202a5-01-01 10:00:00",
		},
		{
			"same row prefers timestamp",
			[]string{"t0,1,1,2025-01-01 10:00:00,1", "t1,1,1,bad,worse"},
			"Invalid timestamp found on line 1: bad",
		},
		{
			"date only timestamp",
			[]string{"t0,1,1,2025-01-01,1"},
			"Invalid timestamp found on line 0: 2025-01-01",
		},
		{
			"fractional seconds",
			[]string{"t0,1,1,2025-01-01 10:00:00.5,1"},
			"Invalid timestamp found on line 0: 2025-01-01 10:00:00.5",
		},
		{
			"empty amount",
			[]string{"t0,1,1,2025-01-01 10:00:00,"},
			"Invalid transaction amount found on line 0: ",
		},
		{
			"huge exponent",
			[]string{"t0,305,1,2025-01-01 10:00:00,1e50000000", "t1,305,1,2025-01-01 10:00:00,1"},
			"Invalid transaction amount found on line 0: 1e50000000",
		},
		{
			"tiny exponent",
			[]string{"t0,305,1,2025-01-01 10:00:00,1", "t1,305,1,2025-01-01 10:00:00,1e-40"},
			"Invalid transaction amount found on line 1: 1e-40",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(csvOf(tc.rows...))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Error() != tc.want {
				t.Fatalf("got %q, want %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidateLineNumberMatchesSmallestBadIndex(t *testing.T) {
	for _, bad := range []int{0, 7, 49} {
		t.Run(fmt.Sprintf("row_%d", bad), func(t *testing.T) {
			rows := make([]string, 50)
			for i := range rows {
				rows[i] = fmt.Sprintf("t%d,%d,1,2025-01-01 10:00:00,%d.25", i, i%3, i)
			}
			rows[bad] = fmt.Sprintf("t%d,1,1,2025-01-01 10:00:00,9.9z", bad)
			if bad+1 < len(rows) {
				rows[bad+1] = fmt.Sprintf("t%d,1,1,2025-01-0 10:00:00,1", bad+1)
			}
			err := Validate(csvOf(rows...))
			want := fmt.Sprintf("Invalid transaction amount found on line %d: 9.9z", bad)
			if err == nil || err.Error() != want {
				t.Fatalf("got %v, want %q", err, want)
			}
		})
	}
}

func TestScanEvaluatesEveryRow(t *testing.T) {
	rows := [][]string{
		{"t0", "1", "1", "nope", "1"},
		{"t1", "1", "1", "2025-01-01 10:00:00", "1"},
		{"t2", "1", "1", "2025-01-01 10:00:00", "x"},
	}
	findings := Scan(rows)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(findings), findings)
	}
	if findings[1].Index != 2 || findings[1].Field != core.ColAmount {
		t.Fatalf("unexpected second finding %+v", findings[1])
	}
}
