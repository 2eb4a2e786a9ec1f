package cmd

import (
	"fmt"
	"os"

	"nostro-reconciliation-service/cmd/nostrorecon/config"
	"nostro-reconciliation-service/internal/engine"
	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/internal/parsers"
	"nostro-reconciliation-service/internal/reporter"
	"nostro-reconciliation-service/pkg/errors"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the match command
var (
	glFile          string
	swiftFile       string
	mappingFile     string
	currency        string
	consolidatedOut string
	unmatchedOut    string
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the rule cascade over the GL and SWIFT feeds",
	Long: `Match loads both feed extracts and the nostro mapping file, enriches each
feed with its canonical account details, applies the priority-ordered rule
cascade, and writes the consolidated workbook (matched and unmatched rows
tagged with their matching rule) plus the per-account unmatched report.

Examples:
  # Standard run against USD accounts
  nostrorecon match --gl-file NOSTRO_GL.csv --swift-file NOSTRO_SWIFT.csv \
    --mapping-file Nostro_Mapping.csv --currency USD

  # Custom rule list from a config file
  nostrorecon match --config rules.yaml --gl-file gl.csv --swift-file swift.csv \
    --mapping-file mapping.csv`,

	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&glFile, "gl-file", "g", "", "path to the GL extract CSV (required)")
	matchCmd.Flags().StringVarP(&swiftFile, "swift-file", "s", "", "path to the SWIFT extract CSV (required)")
	matchCmd.Flags().StringVarP(&mappingFile, "mapping-file", "m", "", "path to the nostro mapping CSV (required)")
	matchCmd.Flags().StringVar(&currency, "currency", "USD", "restrict the run to one account currency")
	matchCmd.Flags().StringVarP(&consolidatedOut, "output", "o", "ConsolidatedReport.xlsx", "consolidated workbook path")
	matchCmd.Flags().StringVar(&unmatchedOut, "unmatched-output", "", "unmatched transactions workbook path (optional)")

	matchCmd.MarkFlagRequired("gl-file")
	matchCmd.MarkFlagRequired("swift-file")
	matchCmd.MarkFlagRequired("mapping-file")

	viper.BindPFlag("currency", matchCmd.Flags().Lookup("currency"))
}

func runMatch(cmd *cobra.Command, args []string) error {
	log, err := config.CreateLogger()
	if err != nil {
		return err
	}

	rules, err := config.CreateRules()
	if err != nil {
		return err
	}

	glConfig, swiftConfig := config.CreateFeedConfigs()

	mapping, err := loadMapping(mappingFile)
	if err != nil {
		return err
	}

	glPool, glWarnings, err := loadFeed(glFile, glConfig, log)
	if err != nil {
		return err
	}
	swiftPool, swiftWarnings, err := loadFeed(swiftFile, swiftConfig, log)
	if err != nil {
		return err
	}

	parsers.Enrich(glPool, mapping, glConfig)
	parsers.Enrich(swiftPool, mapping, swiftConfig)

	ccy := viper.GetString("currency")
	glPool = parsers.FilterCurrency(glPool, ccy)
	swiftPool = parsers.FilterCurrency(swiftPool, ccy)

	result, err := engine.NewEngine(log).Match(glPool, swiftPool, rules)
	if err != nil {
		return err
	}

	rep := reporter.NewReporter(log)
	if err := rep.WriteConsolidatedWorkbook(consolidatedOut, result); err != nil {
		return err
	}
	if unmatchedOut != "" {
		if err := rep.WriteUnmatchedWorkbook(unmatchedOut, result.Tagged()); err != nil {
			return err
		}
	}

	printMatchSummary(result, len(glWarnings)+len(swiftWarnings))
	return nil
}

func loadFeed(path string, cfg *parsers.FeedConfig, log logger.Logger) (*models.Pool, []errors.Warning, error) {
	parser, err := parsers.NewFeedParser(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryFile, errors.CodeFileNotFound,
			fmt.Sprintf("cannot open feed file %s", path))
	}
	defer f.Close()

	return parser.Parse(f)
}

func loadMapping(path string) (*parsers.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFile, errors.CodeFileNotFound,
			fmt.Sprintf("cannot open mapping file %s", path))
	}
	defer f.Close()

	return parsers.ParseMapping(f, parsers.DefaultMappingConfig())
}

func printMatchSummary(result *engine.MatchResult, warningCount int) {
	s := result.Summary
	fmt.Printf("Matching completed\n")
	fmt.Printf("  GL:    %d total, %d matched, %d unmatched\n", s.TotalGL, s.MatchedGLCount, s.UnmatchedGLCount)
	fmt.Printf("  SWIFT: %d total, %d matched, %d unmatched\n", s.TotalSwift, s.MatchedSwiftCount, s.UnmatchedSwiftCount)
	for _, skip := range result.SkippedRules {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", skip)
	}
	if warningCount > 0 {
		fmt.Fprintf(os.Stderr, "%d rows had recoverable parse warnings\n", warningCount)
	}
}
