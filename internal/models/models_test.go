package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSourceOpposite(t *testing.T) {
	if SourceGL.Opposite() != SourceSwift {
		t.Errorf("Expected opposite of %s to be %s", SourceGL, SourceSwift)
	}
	if SourceSwift.Opposite() != SourceGL {
		t.Errorf("Expected opposite of %s to be %s", SourceSwift, SourceGL)
	}
}

func TestSourceIsValid(t *testing.T) {
	if !SourceGL.IsValid() || !SourceSwift.IsValid() {
		t.Error("Expected both feed sources to be valid")
	}
	if Source("LEDGER").IsValid() {
		t.Error("Expected unknown source to be invalid")
	}
}

func TestRecordDerive(t *testing.T) {
	tests := []struct {
		name       string
		amount     decimal.Decimal
		wantDrCr   DrCr
		wantAmount string
	}{
		{"negative is debit", decimal.NewFromFloat(-150.25), Debit, "150.25"},
		{"positive is credit", decimal.NewFromFloat(99.99), Credit, "99.99"},
		{"zero is credit", decimal.Zero, Credit, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord("ACC1", "USD", tt.amount, time.Time{}, SourceGL, nil)
			rec.Derive()

			if rec.DrCr != tt.wantDrCr {
				t.Errorf("Expected DrCr %s, got %s", tt.wantDrCr, rec.DrCr)
			}
			if rec.DCAmount.String() != tt.wantAmount {
				t.Errorf("Expected DCAmount %s, got %s", tt.wantAmount, rec.DCAmount.String())
			}
			if !rec.Derived() {
				t.Error("Expected record to report derived after Derive")
			}
		})
	}
}

func TestRecordDeriveIdempotent(t *testing.T) {
	rec := NewRecord("ACC1", "USD", decimal.NewFromInt(-10), time.Time{}, SourceGL, nil)
	rec.Derive()

	// Mutating the amount after derivation must not change derived fields
	rec.Amount = decimal.NewFromInt(500)
	rec.Derive()

	if rec.DrCr != Debit {
		t.Errorf("Expected derived DrCr to stay %s, got %s", Debit, rec.DrCr)
	}
	if rec.DCAmount.String() != "10" {
		t.Errorf("Expected derived DCAmount to stay 10, got %s", rec.DCAmount.String())
	}
}

func TestRecordDeriveSkipsInvalidAmount(t *testing.T) {
	rec := &Record{Source: SourceGL, Refs: map[string]string{}}
	rec.Derive()

	if rec.Derived() {
		t.Error("Expected Derive to be a no-op when the amount is invalid")
	}
	if _, ok := rec.Field(ColDCAmount); ok {
		t.Error("Expected DC_AMOUNT field to be absent on an invalid-amount record")
	}
}

func TestRecordField(t *testing.T) {
	valueDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rec := NewRecord("ACC100", "EUR", decimal.NewFromFloat(-42.5), valueDate, SourceGL,
		map[string]string{"Trans Num": "TX-9"})
	rec.Derive()

	tests := []struct {
		field  string
		want   string
		wantOK bool
	}{
		{ColAccountNumber, "ACC100", true},
		{ColCurrency, "EUR", true},
		{ColDCAmount, "42.5", true},
		{ColValueDate, "2024-03-15", true},
		{ColDrCr, "Dr", true},
		{"Trans Num", "TX-9", true},
		{"Institution Reference", "", false},
		{ColAccountName, "", false},
	}

	for _, tt := range tests {
		got, ok := rec.Field(tt.field)
		if ok != tt.wantOK {
			t.Errorf("Field(%q): expected ok=%v, got %v", tt.field, tt.wantOK, ok)
		}
		if got != tt.want {
			t.Errorf("Field(%q): expected %q, got %q", tt.field, tt.want, got)
		}
	}
}

func TestRecordFieldBeforeDerive(t *testing.T) {
	rec := NewRecord("ACC100", "EUR", decimal.NewFromInt(5), time.Time{}, SourceGL, nil)

	if _, ok := rec.Field(ColDCAmount); ok {
		t.Error("Expected DC_AMOUNT to be absent before Derive runs")
	}
	if _, ok := rec.Field(ColValueDate); ok {
		t.Error("Expected Value_Date to be absent when the date is zero")
	}
}

func TestDebitCreditAmounts(t *testing.T) {
	debit := NewRecord("A", "USD", decimal.NewFromFloat(-30), time.Time{}, SourceGL, nil)
	debit.Derive()
	credit := NewRecord("A", "USD", decimal.NewFromFloat(70), time.Time{}, SourceGL, nil)
	credit.Derive()

	if debit.DebitAmount().String() != "30" {
		t.Errorf("Expected debit split 30, got %s", debit.DebitAmount().String())
	}
	if !debit.CreditAmount().IsZero() {
		t.Errorf("Expected zero credit split on a debit, got %s", debit.CreditAmount().String())
	}
	if credit.CreditAmount().String() != "70" {
		t.Errorf("Expected credit split 70, got %s", credit.CreditAmount().String())
	}
	if !credit.DebitAmount().IsZero() {
		t.Errorf("Expected zero debit split on a credit, got %s", credit.DebitAmount().String())
	}
}

func TestTaggedRecordStatus(t *testing.T) {
	rec := NewRecord("A", "USD", decimal.NewFromInt(1), time.Time{}, SourceGL, nil)

	tests := []struct {
		status        string
		wantMatched   bool
		wantUnmatched bool
	}{
		{"Rule 1", true, false},
		{StatusUnmatched, false, true},
		{"UNMATCHED", false, true},
		{"unmatched", false, true},
		{StatusReversal, false, false},
	}

	for _, tt := range tests {
		tagged := NewTagged(rec, tt.status)
		if tagged.Matched() != tt.wantMatched {
			t.Errorf("Status %q: expected Matched()=%v", tt.status, tt.wantMatched)
		}
		if tagged.Unmatched() != tt.wantUnmatched {
			t.Errorf("Status %q: expected Unmatched()=%v", tt.status, tt.wantUnmatched)
		}
	}
}

func TestNewTaggedDefaultsCarryForward(t *testing.T) {
	tagged := NewTagged(NewRecord("A", "USD", decimal.Zero, time.Time{}, SourceGL, nil), StatusUnmatched)
	if tagged.CarryForward != CarryForwardNo {
		t.Errorf("Expected default carry-forward %s, got %s", CarryForwardNo, tagged.CarryForward)
	}
}

func TestPoolColumns(t *testing.T) {
	pool := NewPool([]string{"Trans Num", "Cash Amt"}, nil)

	if !pool.Has("Trans Num") {
		t.Error("Expected pool to carry Trans Num")
	}
	if pool.Has("Transaction Reference") {
		t.Error("Expected pool to not carry Transaction Reference")
	}
}

func TestPoolFromRecords(t *testing.T) {
	rec := NewRecord("A", "USD", decimal.NewFromInt(1), time.Time{}, SourceGL,
		map[string]string{"Trans Num": "TX1"})
	pool := PoolFromRecords([]*Record{rec})

	for _, col := range []string{ColAccountNumber, ColCurrency, ColDCAmount, ColValueDate, ColDrCr, "Trans Num"} {
		if !pool.Has(col) {
			t.Errorf("Expected inferred pool to carry column %q", col)
		}
	}
	if pool.Len() != 1 {
		t.Errorf("Expected pool length 1, got %d", pool.Len())
	}
}

func TestNormalizeAccountNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  ACC001  ", "ACC001"},
		{"12345", "12345"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAccountNumber(tt.input); got != tt.want {
			t.Errorf("NormalizeAccountNumber(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"100.50", "100.5", false},
		{"-250", "-250", false},
		{"$1,234.56", "1234.56", false},
		{" 42 ", "42", false},
		{"", "", true},
		{"abc", "", true},
		{"12.34.56", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDecimalFromString(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDecimalFromString(%q): expected error, got %s", tt.input, got.String())
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalFromString(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDecimalFromString(%q): expected %s, got %s", tt.input, tt.want, got.String())
		}
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2024-03-15", "2024-03-15", false},
		{"15/03/2024", "2024-03-15", false},
		{"2024/03/15", "2024-03-15", false},
		{"15-Mar-2024", "2024-03-15", false},
		{"20240315", "2024-03-15", false},
		{"", "", true},
		{"not-a-date", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDateWithFormats(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDateWithFormats(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDateWithFormats(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDateWithFormats(%q): expected %s, got %s", tt.input, tt.want, got.Format("2006-01-02"))
		}
	}
}
