package reporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nostro-reconciliation-service/internal/engine"
	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/internal/parsers"
	"nostro-reconciliation-service/internal/summary"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

func testReporter() *Reporter {
	return NewReporter(logger.NewNopLogger())
}

func bucket(amount float64, count int) summary.Bucket {
	return summary.Bucket{Amount: decimal.NewFromFloat(amount), Count: count}
}

func TestWriteSummaryCSV(t *testing.T) {
	rows := []summary.AccountSummary{
		{
			AccountNumber: "NOSTRO-1",
			Source:        models.SourceGL,
			Matched:       bucket(150.5, 2),
			Unmatched:     bucket(25, 1),
			Reversal:      bucket(75, 2),
		},
	}

	var buf bytes.Buffer
	if err := testReporter().WriteSummaryCSV(&buf, rows); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d lines", len(parsed))
	}

	header := parsed[0]
	if header[0] != "GL_NUMBER" || header[1] != "SOURCE" {
		t.Errorf("Unexpected leading headers: %v", header[:2])
	}
	if len(header) != 24 {
		t.Errorf("Expected 24 columns, got %d", len(header))
	}

	row := parsed[1]
	if row[0] != "NOSTRO-1" || row[1] != "NOSTRO_GL" {
		t.Errorf("Unexpected key columns: %v", row[:2])
	}
	if row[2] != "150.5" || row[3] != "2" {
		t.Errorf("Expected matched bucket 150.5/2, got %s/%s", row[2], row[3])
	}
	if row[4] != "25" || row[5] != "1" {
		t.Errorf("Expected unmatched bucket 25/1, got %s/%s", row[4], row[5])
	}
	if row[14] != "75" || row[15] != "2" {
		t.Errorf("Expected reversal bucket 75/2, got %s/%s", row[14], row[15])
	}
}

func TestWriteAgeingCSV(t *testing.T) {
	rows := []summary.AgeingSummary{
		{
			AccountNumber: "NOSTRO-1",
			Currency:      "USD",
			Source:        models.SourceGL,
			Days0To5:      bucket(10, 1),
			Days60Plus:    bucket(40, 3),
			Total:         bucket(50, 4),
		},
	}

	var buf bytes.Buffer
	if err := testReporter().WriteAgeingCSV(&buf, rows); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d lines", len(parsed))
	}

	header := parsed[0]
	if header[3] != "0-5 day No." || header[4] != "0-5 day Value." {
		t.Errorf("Unexpected bucket headers: %v", header[3:5])
	}

	row := parsed[1]
	if row[0] != "NOSTRO-1" || row[1] != "USD" || row[2] != "NOSTRO_GL" {
		t.Errorf("Unexpected key columns: %v", row[:3])
	}
	if row[3] != "1" || row[4] != "10" {
		t.Errorf("Expected 0-5 bucket 1/10, got %s/%s", row[3], row[4])
	}
	if row[11] != "4" || row[12] != "50" {
		t.Errorf("Expected total 4/50, got %s/%s", row[11], row[12])
	}
}

func taggedFixture(account string, source models.Source, amount float64, status string) *models.TaggedRecord {
	rec := models.NewRecord(account, "USD", decimal.NewFromFloat(amount),
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), source, nil)
	rec.AccountName = "Citibank NY"
	rec.Derive()
	return models.NewTagged(rec, status)
}

func TestConsolidatedWorkbookRoundTrip(t *testing.T) {
	result := &engine.MatchResult{
		MatchedGL: []*models.TaggedRecord{
			taggedFixture("NOSTRO-1", models.SourceGL, -100.5, "Rule 1"),
		},
		UnmatchedGL: []*models.TaggedRecord{
			taggedFixture("NOSTRO-1", models.SourceGL, 25, models.StatusUnmatched),
		},
		MatchedSwift: []*models.TaggedRecord{
			taggedFixture("NOSTRO-1", models.SourceSwift, 100.5, "Rule 1"),
		},
	}

	path := filepath.Join(t.TempDir(), "consolidated.xlsx")
	if err := testReporter().WriteConsolidatedWorkbook(path, result); err != nil {
		t.Fatalf("Failed to write consolidated workbook: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer file.Close()

	tagged, warnings, err := parsers.ReadConsolidatedWorkbook(file)
	if err != nil {
		t.Fatalf("Failed to read workbook back: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %d", len(warnings))
	}
	if len(tagged) != 3 {
		t.Fatalf("Expected 3 tagged records, got %d", len(tagged))
	}

	var matchedGL *models.TaggedRecord
	for _, tr := range tagged {
		if tr.Source == models.SourceGL && tr.MatchingStatus == "Rule 1" {
			matchedGL = tr
		}
	}
	if matchedGL == nil {
		t.Fatal("Expected the matched GL record in the round trip")
	}
	if matchedGL.AccountNumber != "NOSTRO-1" || matchedGL.Currency != "USD" {
		t.Errorf("Unexpected account fields: %s/%s", matchedGL.AccountNumber, matchedGL.Currency)
	}
	if matchedGL.DrCr != models.Debit || matchedGL.DCAmount.String() != "100.5" {
		t.Errorf("Expected Dr/100.5 after round trip, got %s/%s", matchedGL.DrCr, matchedGL.DCAmount.String())
	}
	if !matchedGL.Amount.Equal(decimal.NewFromFloat(-100.5)) {
		t.Errorf("Expected signed amount -100.5, got %s", matchedGL.Amount.String())
	}
}

func TestWriteUnmatchedWorkbook(t *testing.T) {
	rows := []*models.TaggedRecord{
		taggedFixture("NOSTRO-1", models.SourceGL, -100.5, models.StatusUnmatched),
		taggedFixture("NOSTRO-1", models.SourceSwift, 30, models.StatusUnmatched),
		taggedFixture("NOSTRO-2", models.SourceGL, 5, models.StatusUnmatched),
		// Matched rows must not appear in the unmatched report
		taggedFixture("NOSTRO-1", models.SourceGL, 999, "Rule 1"),
	}

	path := filepath.Join(t.TempDir(), "unmatched.xlsx")
	if err := testReporter().WriteUnmatchedWorkbook(path, rows); err != nil {
		t.Fatalf("Failed to write unmatched workbook: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected workbook on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected a non-empty workbook")
	}
}

func TestOutputFormat(t *testing.T) {
	if !FormatCSV.IsValid() || !FormatXLSX.IsValid() {
		t.Error("Expected both formats valid")
	}
	if OutputFormat("pdf").IsValid() {
		t.Error("Expected unknown format invalid")
	}
}
