package parsers

import (
	"encoding/csv"
	"io"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"
)

// MappingEntry is one row of the nostro mapping file: the bridge between a
// feed's native account identifier and the canonical account number.
type MappingEntry struct {
	AccountName     string
	AccountCurrency string
	AccountNumber   string
	SwiftCode       string
	SierraAccount   string
	Country         string
}

// Mapping indexes mapping entries by both join keys: the ledger side joins
// its entity id against Sierra account numbers, the statement side joins its
// nostro account against the canonical account number.
type Mapping struct {
	bySierra  map[string]*MappingEntry
	byAccount map[string]*MappingEntry
}

// BySierra looks up the mapping entry for a ledger entity id
func (m *Mapping) BySierra(id string) (*MappingEntry, bool) {
	e, ok := m.bySierra[models.NormalizeAccountNumber(id)]
	return e, ok
}

// ByAccount looks up the mapping entry for a statement nostro account
func (m *Mapping) ByAccount(id string) (*MappingEntry, bool) {
	e, ok := m.byAccount[models.NormalizeAccountNumber(id)]
	return e, ok
}

// Len returns the number of mapping entries
func (m *Mapping) Len() int {
	return len(m.byAccount)
}

// ParseMapping reads the mapping file
func ParseMapping(r io.Reader, config *MappingConfig) (*Mapping, error) {
	if config == nil {
		config = DefaultMappingConfig()
	}

	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, "mapping", 1, "", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, required := range []string{config.AccountNumberColumn, config.SierraAccountColumn} {
		if _, ok := index[required]; !ok {
			return nil, errors.ParseError(errors.CodeMissingColumn, "mapping", 1, required, nil)
		}
	}

	get := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	m := &Mapping{
		bySierra:  make(map[string]*MappingEntry),
		byAccount: make(map[string]*MappingEntry),
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, "mapping", line, "", err)
		}

		entry := &MappingEntry{
			AccountName:     get(row, config.AccountNameColumn),
			AccountCurrency: get(row, config.AccountCurrencyColumn),
			AccountNumber:   models.NormalizeAccountNumber(get(row, config.AccountNumberColumn)),
			SwiftCode:       get(row, config.SwiftCodeColumn),
			SierraAccount:   models.NormalizeAccountNumber(get(row, config.SierraAccountColumn)),
			Country:         get(row, config.CountryColumn),
		}

		if entry.SierraAccount != "" {
			m.bySierra[entry.SierraAccount] = entry
		}
		if entry.AccountNumber != "" {
			m.byAccount[entry.AccountNumber] = entry
		}
	}

	return m, nil
}

// Enrich stamps each record with the canonical account number, name, and
// currency from the mapping, then derives the Dr/Cr indicator and absolute
// amount. A left join: records with no mapping entry keep empty canonical
// fields rather than being dropped.
func Enrich(pool *models.Pool, mapping *Mapping, config *FeedConfig) {
	for _, rec := range pool.Records {
		joinValue := rec.Refs[config.AccountColumn]

		var entry *MappingEntry
		var ok bool
		if config.Source == models.SourceGL {
			entry, ok = mapping.BySierra(joinValue)
		} else {
			entry, ok = mapping.ByAccount(joinValue)
		}
		if ok {
			rec.AccountNumber = entry.AccountNumber
			rec.AccountName = entry.AccountName
			rec.Currency = entry.AccountCurrency
		}
	}
	pool.Derive()

	pool.Columns[models.ColAccountNumber] = struct{}{}
	pool.Columns[models.ColAccountName] = struct{}{}
	pool.Columns[models.ColCurrency] = struct{}{}
}

// FilterCurrency returns a pool holding only records in the given currency.
// Records with no currency (no mapping entry) are dropped, mirroring the
// single-currency restriction the reconciliation runs under.
func FilterCurrency(pool *models.Pool, currency string) *models.Pool {
	filtered := &models.Pool{
		Columns: pool.Columns,
		Records: make([]*models.Record, 0, len(pool.Records)),
	}
	for _, rec := range pool.Records {
		if rec.Currency == currency {
			filtered.Records = append(filtered.Records, rec)
		}
	}
	return filtered
}
