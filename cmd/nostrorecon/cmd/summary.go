package cmd

import (
	"fmt"
	"os"
	"strings"

	"nostro-reconciliation-service/cmd/nostrorecon/config"
	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/internal/parsers"
	"nostro-reconciliation-service/internal/reporter"
	"nostro-reconciliation-service/internal/summary"
	"nostro-reconciliation-service/pkg/errors"

	"github.com/spf13/cobra"
)

// Flags for the summary command
var (
	summaryInput  string
	summaryOutput string
	summaryFormat string
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate the tagged transaction set into per-account buckets",
	Long: `Summary reads the consolidated workbook produced by the match stage
(after the external annotation of carry-forward and reversal statuses) and
writes one row per account and source with the matched, unmatched,
debit/credit, reversal, and carry-forward buckets.

Examples:
  nostrorecon summary --input ConsolidatedReport.xlsx --output finalreport.xlsx
  nostrorecon summary --input ConsolidatedReport.xlsx --format csv --output summary.csv`,

	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVarP(&summaryInput, "input", "i", "", "consolidated workbook path (required)")
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "finalreport.xlsx", "report output path")
	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "xlsx", "output format: xlsx, csv")

	summaryCmd.MarkFlagRequired("input")
}

func runSummary(cmd *cobra.Command, args []string) error {
	log, err := config.CreateLogger()
	if err != nil {
		return err
	}

	tagged, warnings, err := loadTagged(summaryInput)
	if err != nil {
		return err
	}

	rows, err := summary.NewAggregator().Aggregate(tagged)
	if err != nil {
		return err
	}

	rep := reporter.NewReporter(log)
	switch reporter.OutputFormat(strings.ToLower(summaryFormat)) {
	case reporter.FormatCSV:
		f, err := os.Create(summaryOutput)
		if err != nil {
			return errors.ReportError("summary", err)
		}
		defer f.Close()
		if err := rep.WriteSummaryCSV(f, rows); err != nil {
			return err
		}
	case reporter.FormatXLSX:
		if err := rep.WriteSummaryWorkbook(summaryOutput, rows); err != nil {
			return err
		}
	default:
		return errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig,
			fmt.Sprintf("unsupported output format '%s'", summaryFormat))
	}

	fmt.Printf("Summary written to %s (%d rows)\n", summaryOutput, len(rows))
	reportWarnings(warnings)
	return nil
}

func loadTagged(path string) ([]*models.TaggedRecord, []errors.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryFile, errors.CodeFileNotFound,
			fmt.Sprintf("cannot open consolidated workbook %s", path))
	}
	defer f.Close()

	return parsers.ReadConsolidatedWorkbook(f)
}

func reportWarnings(warnings []errors.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
