// Package reporter renders matching results and summary rows as delimited
// text or as workbook files for distribution.
//
// Column headings follow the layout the reconciliation desk consumes:
// summary rows use the GL_NUMBER/SOURCE bucket columns, aging rows the
// day-range columns, and the unmatched workbook groups transactions into
// per-account blocks with a totals header line.
package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"nostro-reconciliation-service/internal/summary"
	"nostro-reconciliation-service/pkg/errors"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatXLSX OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// Reporter writes reconciliation reports
type Reporter struct {
	logger logger.Logger
}

// NewReporter creates a Reporter
func NewReporter(log logger.Logger) *Reporter {
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &Reporter{logger: log.WithComponent("reporter")}
}

// summaryHeaders is the value/count report column order
var summaryHeaders = []string{
	"GL_NUMBER", "SOURCE",
	"Matched_DC_Amount", "Matched_DC_Count",
	"Unmatched_DC_Amount", "Unmatched_DC_Count",
	"Debit_Matched_Amount", "Debit_Matched_Count",
	"Debit_Unmatched_Amount", "Debit_Unmatched_Count",
	"Credit_Matched_Amount", "Credit_Matched_Count",
	"Credit_Unmatched_Amount", "Credit_Unmatched_Count",
	"ReversalAmount", "ReversalCount",
	"Debit-ReversalAmount", "Debit-ReversalCount",
	"Credit-ReversalAmount", "Credit-ReversalCount",
	"Carry-ForwardMatchedAmount", "Carry-ForwardMatchedCount",
	"Carry-ForwardUnmatchedAmount", "Carry-ForwardUnmatchedCount",
}

func summaryRow(s summary.AccountSummary) []string {
	return []string{
		s.AccountNumber, string(s.Source),
		amt(s.Matched.Amount), cnt(s.Matched.Count),
		amt(s.Unmatched.Amount), cnt(s.Unmatched.Count),
		amt(s.DebitMatched.Amount), cnt(s.DebitMatched.Count),
		amt(s.DebitUnmatched.Amount), cnt(s.DebitUnmatched.Count),
		amt(s.CreditMatched.Amount), cnt(s.CreditMatched.Count),
		amt(s.CreditUnmatched.Amount), cnt(s.CreditUnmatched.Count),
		amt(s.Reversal.Amount), cnt(s.Reversal.Count),
		amt(s.DebitReversal.Amount), cnt(s.DebitReversal.Count),
		amt(s.CreditReversal.Amount), cnt(s.CreditReversal.Count),
		amt(s.CarryForwardMatched.Amount), cnt(s.CarryForwardMatched.Count),
		amt(s.CarryForwardUnmatched.Amount), cnt(s.CarryForwardUnmatched.Count),
	}
}

// ageingHeaders is the aging report column order
var ageingHeaders = []string{
	"GL_NUMBER", "CURRENCY", "SOURCE",
	"0-5 day No.", "0-5 day Value.",
	"6-27 day No.", "6-27 day Value.",
	"28-59 day No.", "28-59 day Value.",
	"60+ day No.", "60+ day Value.",
	"Total No.", "Total Value.",
}

func ageingRow(s summary.AgeingSummary) []string {
	return []string{
		s.AccountNumber, s.Currency, string(s.Source),
		cnt(s.Days0To5.Count), amt(s.Days0To5.Amount),
		cnt(s.Days6To27.Count), amt(s.Days6To27.Amount),
		cnt(s.Days28To59.Count), amt(s.Days28To59.Amount),
		cnt(s.Days60Plus.Count), amt(s.Days60Plus.Amount),
		cnt(s.Total.Count), amt(s.Total.Amount),
	}
}

func amt(d decimal.Decimal) string {
	return d.String()
}

func cnt(n int) string {
	return strconv.Itoa(n)
}

// WriteSummaryCSV writes value/count summary rows as delimited text
func (r *Reporter) WriteSummaryCSV(w io.Writer, rows []summary.AccountSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeaders); err != nil {
		return errors.ReportError("summary", err)
	}
	for _, s := range rows {
		if err := cw.Write(summaryRow(s)); err != nil {
			return errors.ReportError("summary", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.ReportError("summary", err)
	}
	r.logger.WithField("rows", len(rows)).Info("Summary report written")
	return nil
}

// WriteAgeingCSV writes aging summary rows as delimited text
func (r *Reporter) WriteAgeingCSV(w io.Writer, rows []summary.AgeingSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ageingHeaders); err != nil {
		return errors.ReportError("ageing", err)
	}
	for _, s := range rows {
		if err := cw.Write(ageingRow(s)); err != nil {
			return errors.ReportError("ageing", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.ReportError("ageing", err)
	}
	r.logger.WithField("rows", len(rows)).Info("Ageing report written")
	return nil
}
