package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"nostro-reconciliation-service/cmd/nostrorecon/config"
	"nostro-reconciliation-service/internal/reporter"
	"nostro-reconciliation-service/internal/summary"
	"nostro-reconciliation-service/pkg/errors"

	"github.com/spf13/cobra"
)

// Flags for the ageing command
var (
	ageingInput  string
	ageingOutput string
	ageingFormat string
	ageingAsOf   string
)

// ageingCmd represents the ageing command
var ageingCmd = &cobra.Command{
	Use:   "ageing",
	Short: "Bucket unmatched transactions by days outstanding",
	Long: `Ageing reads the consolidated workbook, restricts it to unmatched rows,
and writes one row per account, currency, and source with counts and values
in the 0-5, 6-27, 28-59 and 60+ day buckets plus the bucket total.

Examples:
  nostrorecon ageing --input ConsolidatedReport.xlsx --output AgeingReport.xlsx
  nostrorecon ageing --input ConsolidatedReport.xlsx --as-of 2025-03-31 --format csv --output ageing.csv`,

	RunE: runAgeing,
}

func init() {
	rootCmd.AddCommand(ageingCmd)

	ageingCmd.Flags().StringVarP(&ageingInput, "input", "i", "", "consolidated workbook path (required)")
	ageingCmd.Flags().StringVarP(&ageingOutput, "output", "o", "AgeingReport.xlsx", "report output path")
	ageingCmd.Flags().StringVarP(&ageingFormat, "format", "f", "xlsx", "output format: xlsx, csv")
	ageingCmd.Flags().StringVar(&ageingAsOf, "as-of", "", "reference date for aging (YYYY-MM-DD, default today)")

	ageingCmd.MarkFlagRequired("input")
}

func runAgeing(cmd *cobra.Command, args []string) error {
	log, err := config.CreateLogger()
	if err != nil {
		return err
	}

	opts := summary.AgeingOptions{}
	if ageingAsOf != "" {
		ref, err := time.Parse("2006-01-02", ageingAsOf)
		if err != nil {
			return errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig,
				fmt.Sprintf("invalid --as-of date '%s': expected YYYY-MM-DD", ageingAsOf))
		}
		opts.ReferenceDate = ref
	}

	tagged, warnings, err := loadTagged(ageingInput)
	if err != nil {
		return err
	}

	rows, err := summary.NewAggregator().AggregateAgeing(tagged, opts)
	if err != nil {
		return err
	}

	rep := reporter.NewReporter(log)
	switch reporter.OutputFormat(strings.ToLower(ageingFormat)) {
	case reporter.FormatCSV:
		f, err := os.Create(ageingOutput)
		if err != nil {
			return errors.ReportError("ageing", err)
		}
		defer f.Close()
		if err := rep.WriteAgeingCSV(f, rows); err != nil {
			return err
		}
	case reporter.FormatXLSX:
		if err := rep.WriteAgeingWorkbook(ageingOutput, rows); err != nil {
			return err
		}
	default:
		return errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig,
			fmt.Sprintf("unsupported output format '%s'", ageingFormat))
	}

	fmt.Printf("Ageing report written to %s (%d rows)\n", ageingOutput, len(rows))
	reportWarnings(warnings)
	return nil
}
