// Package models defines the transaction record types shared by the matching
// engine, the summary aggregators, and the surrounding loader and reporter
// components.
//
// A Record is one transaction row from either feed. Matching keys are always
// compared as canonical strings: account numbers are normalized text, and
// amounts render through decimal.String so the two sides never compare a
// numeric against a text representation.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which feed a record came from
type Source string

const (
	// SourceGL is the ledger-side extract
	SourceGL Source = "NOSTRO_GL"
	// SourceSwift is the counterparty statement extract
	SourceSwift Source = "NOSTRO_SWIFT"
)

// IsValid checks if the source is one of the two feeds
func (s Source) IsValid() bool {
	return s == SourceGL || s == SourceSwift
}

// Opposite returns the other feed. Used by the cross-side reversal lookup.
func (s Source) Opposite() Source {
	if s == SourceGL {
		return SourceSwift
	}
	return SourceGL
}

// DrCr is the debit/credit indicator derived from the sign of the amount
type DrCr string

const (
	Debit  DrCr = "Dr"
	Credit DrCr = "Cr"
)

// CarryForward flags a transaction retained from a previous reconciliation
// cycle. It is set by an external process, never by the matching engine.
type CarryForward string

const (
	CarryForwardYes CarryForward = "Y"
	CarryForwardNo  CarryForward = "N"
)

// Matching statuses assigned outside the rule cascade. A matched record's
// status is the name of the rule that consumed it.
const (
	StatusUnmatched = "Unmatched"
	StatusReversal  = "Reversal"
)

// Canonical column names resolved from typed fields rather than Refs.
const (
	ColAccountNumber = "Account_Number"
	ColAccountName   = "Account Name"
	ColCurrency      = "Account Currency"
	ColDCAmount      = "DC_AMOUNT"
	ColValueDate     = "Value_Date"
	ColDrCr          = "Dr/Cr"
)

// Record represents one transaction row from either feed.
//
// Candidate reference fields (ledger transaction number, external transaction
// number, bank and institution references) live in Refs under their feed
// column names; typed fields hold everything matching and aggregation read
// directly.
type Record struct {
	AccountNumber string
	AccountName   string
	Currency      string
	Amount        decimal.Decimal
	ValueDate     time.Time
	Source        Source
	Refs          map[string]string

	// AmountValid is false when the raw amount failed to parse; such rows
	// stay in the dataset but are excluded from numeric keys and buckets.
	AmountValid bool

	// Derived by Derive, appended once and never overwritten.
	DrCr     DrCr
	DCAmount decimal.Decimal

	derived bool
}

// NewRecord creates a Record with a parsed amount
func NewRecord(account, currency string, amount decimal.Decimal, valueDate time.Time, source Source, refs map[string]string) *Record {
	if refs == nil {
		refs = make(map[string]string)
	}
	return &Record{
		AccountNumber: NormalizeAccountNumber(account),
		Currency:      currency,
		Amount:        amount,
		ValueDate:     valueDate,
		Source:        source,
		Refs:          refs,
		AmountValid:   true,
	}
}

// Derive computes the Dr/Cr indicator and the absolute amount. Zero amounts
// classify as Cr, matching the source convention. Calling Derive again is a
// no-op so derived fields are never overwritten.
func (r *Record) Derive() {
	if r.derived || !r.AmountValid {
		return
	}
	if r.Amount.IsNegative() {
		r.DrCr = Debit
	} else {
		r.DrCr = Credit
	}
	r.DCAmount = r.Amount.Abs()
	r.derived = true
}

// Derived reports whether Derive has run on this record
func (r *Record) Derived() bool {
	return r.derived
}

// Field resolves a matching-key column to its canonical string value.
// The second return is false when the column has no value on this record;
// empty keys never participate in a match.
func (r *Record) Field(name string) (string, bool) {
	var v string
	switch name {
	case ColAccountNumber:
		v = r.AccountNumber
	case ColAccountName:
		v = r.AccountName
	case ColCurrency:
		v = r.Currency
	case ColDCAmount:
		if !r.AmountValid || !r.derived {
			return "", false
		}
		v = r.DCAmount.String()
	case ColValueDate:
		if r.ValueDate.IsZero() {
			return "", false
		}
		v = r.ValueDate.Format("2006-01-02")
	case ColDrCr:
		v = string(r.DrCr)
	default:
		v = r.Refs[name]
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// DebitAmount returns the absolute amount when the record is a debit, zero
// otherwise. Feeds the debit split buckets.
func (r *Record) DebitAmount() decimal.Decimal {
	if r.derived && r.DrCr == Debit {
		return r.DCAmount
	}
	return decimal.Zero
}

// CreditAmount returns the absolute amount when the record is a credit, zero
// otherwise.
func (r *Record) CreditAmount() decimal.Decimal {
	if r.derived && r.DrCr == Credit {
		return r.DCAmount
	}
	return decimal.Zero
}

// String returns a string representation of the Record
func (r *Record) String() string {
	return fmt.Sprintf("Record{Account: %s, Ccy: %s, Amount: %s, Source: %s}",
		r.AccountNumber, r.Currency, r.Amount.String(), r.Source)
}

// TaggedRecord is a Record stamped with its matching outcome and the
// carry-forward flag supplied by the surrounding process.
type TaggedRecord struct {
	*Record
	MatchingStatus string
	CarryForward   CarryForward
}

// NewTagged wraps a record with a matching status and a default carry-forward
// of N.
func NewTagged(r *Record, status string) *TaggedRecord {
	return &TaggedRecord{Record: r, MatchingStatus: status, CarryForward: CarryForwardNo}
}

// Matched reports whether the record was consumed by a matching rule.
// Unmatched and Reversal statuses both count as not matched.
func (t *TaggedRecord) Matched() bool {
	return t.MatchingStatus != "" &&
		!strings.EqualFold(t.MatchingStatus, StatusUnmatched) &&
		t.MatchingStatus != StatusReversal
}

// Unmatched reports whether the record survived every rule
func (t *TaggedRecord) Unmatched() bool {
	return strings.EqualFold(t.MatchingStatus, StatusUnmatched)
}

// Pool is a record collection together with the set of columns its loader
// observed. Rule applicability checks run against Columns, not against
// individual records, mirroring column presence in a tabular frame.
type Pool struct {
	Columns map[string]struct{}
	Records []*Record
}

// NewPool builds a pool from an explicit column list
func NewPool(columns []string, records []*Record) *Pool {
	p := &Pool{
		Columns: make(map[string]struct{}, len(columns)),
		Records: records,
	}
	for _, c := range columns {
		p.Columns[c] = struct{}{}
	}
	return p
}

// PoolFromRecords infers the column set from the records' typed fields and
// reference keys. Test and library callers use this; feed loaders know their
// headers and use NewPool.
func PoolFromRecords(records []*Record) *Pool {
	cols := map[string]struct{}{
		ColAccountNumber: {},
		ColCurrency:      {},
		ColDCAmount:      {},
		ColValueDate:     {},
		ColDrCr:          {},
	}
	for _, r := range records {
		for k := range r.Refs {
			cols[k] = struct{}{}
		}
	}
	p := &Pool{Columns: cols, Records: records}
	return p
}

// Has reports whether the pool's feed carried the named column
func (p *Pool) Has(column string) bool {
	_, ok := p.Columns[column]
	return ok
}

// Len returns the number of records in the pool
func (p *Pool) Len() int {
	return len(p.Records)
}

// Derive runs Derive on every record in the pool
func (p *Pool) Derive() {
	for _, r := range p.Records {
		r.Derive()
	}
}

// NormalizeAccountNumber canonicalizes an account number to a single text
// representation. Numeric-looking accounts keep their text form so the two
// feeds never compare a number against a string.
func NormalizeAccountNumber(s string) string {
	return strings.TrimSpace(s)
}

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Strip currency symbols and thousand separators seen in feed extracts
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a date using the formats the two
// feeds are known to carry
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"2006/01/02",
		"02-Jan-2006",
		"20060102",
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
