package reporter

import (
	"fmt"
	"sort"

	"nostro-reconciliation-service/internal/engine"
	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/internal/summary"
	"nostro-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// unmatchedColumns is the per-account detail block layout
var unmatchedColumns = []string{
	"Side", "Value_Date", "Account_Number", "Currency", "Dr/Cr",
	"Amount", "Debit_Amount", "Credit_Amount",
}

// WriteSummaryWorkbook writes the value/count summary as a workbook
func (r *Reporter) WriteSummaryWorkbook(path string, rows []summary.AccountSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Summary"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return errors.ReportError("summary", err)
	}

	if err := writeGrid(f, sheet, summaryHeaders, len(rows), func(i int) []string {
		return summaryRow(rows[i])
	}); err != nil {
		return errors.ReportError("summary", err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ReportError("summary", err)
	}
	r.logger.WithFields(map[string]interface{}{"path": path, "rows": len(rows)}).Info("Summary workbook written")
	return nil
}

// WriteAgeingWorkbook writes the aging summary as a workbook
func (r *Reporter) WriteAgeingWorkbook(path string, rows []summary.AgeingSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ageing"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return errors.ReportError("ageing", err)
	}

	if err := writeGrid(f, sheet, ageingHeaders, len(rows), func(i int) []string {
		return ageingRow(rows[i])
	}); err != nil {
		return errors.ReportError("ageing", err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ReportError("ageing", err)
	}
	r.logger.WithFields(map[string]interface{}{"path": path, "rows": len(rows)}).Info("Ageing workbook written")
	return nil
}

// WriteConsolidatedWorkbook writes the four partitions into one workbook
// with a sheet per feed, matched then unmatched rows, each carrying its
// Matching_Rule tag. This is the artifact the aggregation stage consumes in
// the downstream process.
func (r *Reporter) WriteConsolidatedWorkbook(path string, result *engine.MatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{
		"Account_Number", "Account Name", "Account Currency",
		"Value_Date", "Dr/Cr", "DC_AMOUNT", "Matching_Rule",
	}

	sheets := []struct {
		name string
		rows []*models.TaggedRecord
	}{
		{string(models.SourceGL), append(append([]*models.TaggedRecord{}, result.MatchedGL...), result.UnmatchedGL...)},
		{string(models.SourceSwift), append(append([]*models.TaggedRecord{}, result.MatchedSwift...), result.UnmatchedSwift...)},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := renameDefaultSheet(f, s.name); err != nil {
				return errors.ReportError("consolidated", err)
			}
		} else {
			if _, err := f.NewSheet(s.name); err != nil {
				return errors.ReportError("consolidated", err)
			}
		}

		rows := s.rows
		if err := writeGrid(f, s.name, headers, len(rows), func(i int) []string {
			t := rows[i]
			return []string{
				t.AccountNumber, t.AccountName, t.Currency,
				formatDate(t.Record), string(t.DrCr), t.DCAmount.String(), t.MatchingStatus,
			}
		}); err != nil {
			return errors.ReportError("consolidated", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ReportError("consolidated", err)
	}
	r.logger.WithField("path", path).Info("Consolidated workbook written")
	return nil
}

// WriteUnmatchedWorkbook writes the unmatched transactions report: one block
// per account with a merged totals header, column headings, then the
// combined GL and SWIFT rows with debit/credit splits.
func (r *Reporter) WriteUnmatchedWorkbook(path string, rows []*models.TaggedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Unmatched Data"
	if err := renameDefaultSheet(f, sheet); err != nil {
		return errors.ReportError("unmatched", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFFF00"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.ReportError("unmatched", err)
	}
	columnStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.ReportError("unmatched", err)
	}

	accounts, byAccount := groupUnmatched(rows)

	row := 1
	for _, account := range accounts {
		txs := byAccount[account]

		var creditTotal, debitTotal decimal.Decimal
		var creditCount, debitCount int
		creditTotal, debitTotal = decimal.Zero, decimal.Zero
		accountName := "N/A"
		for _, t := range txs {
			if t.AccountName != "" && accountName == "N/A" {
				accountName = t.AccountName
			}
			switch t.DrCr {
			case models.Credit:
				creditTotal = creditTotal.Add(t.CreditAmount())
				creditCount++
			case models.Debit:
				debitTotal = debitTotal.Add(t.DebitAmount())
				debitCount++
			}
		}

		header := fmt.Sprintf(
			"Account_Number: %s  Account_Name: %s  Total_Credit_Count: %d  Total_Credit_Amount: %s  Total_Debit_Count: %d  Total_Debit_Amount: %s",
			account, accountName, creditCount, creditTotal.String(), debitCount, debitTotal.String())

		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(unmatchedColumns), row)
		if err := f.MergeCell(sheet, start, end); err != nil {
			return errors.ReportError("unmatched", err)
		}
		if err := f.SetCellValue(sheet, start, header); err != nil {
			return errors.ReportError("unmatched", err)
		}
		if err := f.SetCellStyle(sheet, start, end, headerStyle); err != nil {
			return errors.ReportError("unmatched", err)
		}
		row += 2

		for col, name := range unmatchedColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return errors.ReportError("unmatched", err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, columnStyle); err != nil {
				return errors.ReportError("unmatched", err)
			}
		}
		row++

		for _, t := range txs {
			values := []string{
				string(t.Source), formatDate(t.Record), t.AccountNumber, t.Currency,
				string(t.DrCr), t.DCAmount.String(),
				t.DebitAmount().String(), t.CreditAmount().String(),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return errors.ReportError("unmatched", err)
				}
			}
			row++
		}
		row += 2
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ReportError("unmatched", err)
	}
	r.logger.WithFields(map[string]interface{}{"path": path, "accounts": len(accounts)}).Info("Unmatched workbook written")
	return nil
}

// groupUnmatched groups unmatched rows by account, accounts sorted
func groupUnmatched(rows []*models.TaggedRecord) ([]string, map[string][]*models.TaggedRecord) {
	byAccount := make(map[string][]*models.TaggedRecord)
	var accounts []string
	for _, t := range rows {
		if !t.Unmatched() || t.AccountNumber == "" {
			continue
		}
		if _, seen := byAccount[t.AccountNumber]; !seen {
			accounts = append(accounts, t.AccountNumber)
		}
		byAccount[t.AccountNumber] = append(byAccount[t.AccountNumber], t)
	}
	sort.Strings(accounts)
	return accounts, byAccount
}

func renameDefaultSheet(f *excelize.File, name string) error {
	return f.SetSheetName(f.GetSheetName(0), name)
}

// writeGrid writes a headed rectangular range starting at A1
func writeGrid(f *excelize.File, sheet string, headers []string, n int, rowAt func(int) []string) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		for col, v := range rowAt(i) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatDate(r *models.Record) string {
	if r.ValueDate.IsZero() {
		return ""
	}
	return r.ValueDate.Format("2006-01-02")
}
