package parsers

import (
	"io"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// Consolidated workbook column headings. The workbook is produced by the
// matching stage and annotated externally with carry-forward and reversal
// statuses before aggregation reads it back.
const (
	colMatchingRule   = "Matching_Rule"
	colMatchingStatus = "MATCHING_STATUS"
	colCarryForward   = "CARRY_FORWARD"
)

// ReadConsolidatedWorkbook loads the tagged transaction set from a
// consolidated workbook: one sheet per feed, named after the source. Rows
// from sheets with other names are ignored.
func ReadConsolidatedWorkbook(r io.Reader) ([]*models.TaggedRecord, []errors.Warning, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, "consolidated", 0, "", err)
	}
	defer f.Close()

	var tagged []*models.TaggedRecord
	var warnings []errors.Warning

	for _, sheet := range f.GetSheetList() {
		source := models.Source(sheet)
		if !source.IsValid() {
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, errors.ParseError(errors.CodeInvalidFormat, sheet, 0, "", err)
		}
		if len(rows) == 0 {
			continue
		}

		index := make(map[string]int, len(rows[0]))
		for i, h := range rows[0] {
			index[h] = i
		}

		get := func(row []string, col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		for n, row := range rows[1:] {
			line := n + 2

			rec := &models.Record{
				AccountNumber: models.NormalizeAccountNumber(get(row, models.ColAccountNumber)),
				AccountName:   get(row, models.ColAccountName),
				Currency:      get(row, models.ColCurrency),
				Source:        source,
				Refs:          map[string]string{},
			}

			if raw := get(row, models.ColDCAmount); raw != "" {
				dc, err := models.ParseDecimalFromString(raw)
				if err != nil {
					warnings = append(warnings, errors.AmbiguousNumericWarning(models.ColDCAmount, line, raw))
				} else {
					// The workbook carries the absolute amount; the sign
					// comes from the Dr/Cr indicator.
					rec.Amount = dc
					if get(row, models.ColDrCr) == string(models.Debit) {
						rec.Amount = dc.Neg()
					}
					rec.AmountValid = true
				}
			}

			if raw := get(row, models.ColValueDate); raw != "" {
				if d, err := models.ParseDateWithFormats(raw); err == nil {
					rec.ValueDate = d
				} else {
					warnings = append(warnings, errors.AmbiguousNumericWarning(models.ColValueDate, line, raw))
				}
			}

			rec.Derive()

			status := get(row, colMatchingStatus)
			if status == "" {
				status = get(row, colMatchingRule)
			}

			t := models.NewTagged(rec, status)
			if get(row, colCarryForward) == string(models.CarryForwardYes) {
				t.CarryForward = models.CarryForwardYes
			}
			tagged = append(tagged, t)
		}
	}

	return tagged, warnings, nil
}
