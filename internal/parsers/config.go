// Package parsers loads the GL and SWIFT feed extracts and the nostro
// mapping file into typed record pools.
//
// Feeds arrive as delimited text with bank-dependent headers. Each parser
// config names the columns that carry the amount, the value date, and the
// account join key; every other column is kept verbatim in the record's Refs
// so matching rules can reference the feed's identifier columns directly.
// Rows whose amount fails to parse are kept in the dataset but flagged so
// they never enter numeric keys or buckets.
package parsers

import (
	"strings"

	"nostro-reconciliation-service/internal/models"
)

// FeedConfig describes how to read one feed extract
type FeedConfig struct {
	// Name identifies the feed in logs and warnings
	Name string

	Source models.Source

	// AccountColumn is the feed's account join key: the column the mapping
	// enrichment joins on.
	AccountColumn string
	AmountColumn  string
	DateColumn    string

	HasHeader bool
	Delimiter rune

	// ColumnAliases maps alternate header spellings to the configured
	// column names, compared case-insensitively.
	ColumnAliases map[string]string
}

// GLFeedConfig returns the default config for the ledger extract
func GLFeedConfig() *FeedConfig {
	return &FeedConfig{
		Name:          "NOSTRO_GL",
		Source:        models.SourceGL,
		AccountColumn: "Nostro/Vostro/ Sett Entity ID",
		AmountColumn:  "Cash Amt",
		DateColumn:    "Val/Settle Date",
		HasHeader:     true,
		Delimiter:     ',',
		ColumnAliases: map[string]string{
			"cash amount":     "Cash Amt",
			"amount":          "Cash Amt",
			"value date":      "Val/Settle Date",
			"settle date":     "Val/Settle Date",
			"trans num":       "Trans Num",
			"transaction num": "Trans Num",
			"external tx num": "ExternalTxNum",
		},
	}
}

// SwiftFeedConfig returns the default config for the statement extract
func SwiftFeedConfig() *FeedConfig {
	return &FeedConfig{
		Name:          "NOSTRO_SWIFT",
		Source:        models.SourceSwift,
		AccountColumn: "Nostro Account",
		AmountColumn:  "Amount",
		DateColumn:    "Value Date",
		HasHeader:     true,
		Delimiter:     ',',
		ColumnAliases: map[string]string{
			"nostro account number": "Nostro Account",
			"amt":                   "Amount",
			"value_date":            "Value Date",
			"transaction reference": "Transaction Reference",
			"transation reference":  "Transaction Reference",
			"institution reference": "Institution Reference",
		},
	}
}

// MappingConfig describes how to read the nostro mapping file
type MappingConfig struct {
	AccountNameColumn     string
	AccountCurrencyColumn string
	AccountNumberColumn   string
	SwiftCodeColumn       string
	SierraAccountColumn   string
	CountryColumn         string

	HasHeader bool
	Delimiter rune
}

// DefaultMappingConfig returns the default mapping file layout
func DefaultMappingConfig() *MappingConfig {
	return &MappingConfig{
		AccountNameColumn:     "Account Name",
		AccountCurrencyColumn: "Account Currency",
		AccountNumberColumn:   "Account_Number",
		SwiftCodeColumn:       "Swift Code",
		SierraAccountColumn:   "Sierra Account Numbers",
		CountryColumn:         "Country",
		HasHeader:             true,
		Delimiter:             ',',
	}
}

// resolveColumn maps a raw header name through the alias table
func (c *FeedConfig) resolveColumn(header string) string {
	h := strings.TrimSpace(header)
	if c.ColumnAliases != nil {
		if canonical, ok := c.ColumnAliases[strings.ToLower(h)]; ok {
			return canonical
		}
	}
	return h
}
