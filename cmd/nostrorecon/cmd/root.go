package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nostrorecon",
	Short: "Nostro account reconciliation tool",
	Long: `Nostrorecon reconciles the ledger-side GL extract against the SWIFT
statement extract for a set of nostro accounts. It applies a priority-ordered
rule cascade to partition both feeds into matched and unmatched sets, and
aggregates the tagged result into per-account summary and aging reports.

Examples:
  nostrorecon match --gl-file NOSTRO_GL.csv --swift-file NOSTRO_SWIFT.csv --mapping-file Nostro_Mapping.csv
  nostrorecon summary --input ConsolidatedReport.xlsx --output finalreport.xlsx
  nostrorecon ageing --input ConsolidatedReport.xlsx --output AgeingReport.xlsx
  nostrorecon load --gl-file NOSTRO_GL.csv --swift-file NOSTRO_SWIFT.csv --mapping-file Nostro_Mapping.csv`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("NOSTRORECON")
	viper.AutomaticEnv()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}
