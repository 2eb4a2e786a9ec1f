// Package store provides the optional warehouse staging path: raw feed rows
// bulk-loaded into Postgres, enriched with the mapping join and the Dr/Cr
// derivation in SQL. The matching engine never reads from here; staging
// exists so downstream reporting queries can run against the same raw rows
// the batch consumed.
package store

import (
	"context"
	"fmt"

	"nostro-reconciliation-service/pkg/errors"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Staging table names
const (
	TableGL      = "nostro_gl_raw"
	TableSwift   = "nostro_swift_raw"
	TableMapping = "nostro_mapping_raw"
)

// GLColumns is the raw ledger staging layout. Everything lands as text;
// typing happens in the enrichment step.
var GLColumns = []string{
	"Nostro/Vostro/ Sett Entity ID",
	"Nostro/Vostro/ Sett Entity Cur",
	"Val/Settle Date",
	"ExternalTxNum",
	"Trade Remarks 1",
	"Cash Amt",
	"Trans Num",
	"FEED_FILE_NAME",
}

// SwiftColumns is the raw statement staging layout
var SwiftColumns = []string{
	"Value Date",
	"Entry Date",
	"Amount",
	"Transaction Id",
	"Transaction Reference",
	"Institution Reference",
	"Customer Reference",
	"Description",
	"Opening Balance",
	"Closing Balance",
	"Nostro Account",
	"Bank Transaction Reference",
	"Information",
	"FEED_FILE_NAME",
}

// MappingColumns is the raw mapping staging layout
var MappingColumns = []string{
	"Account Name",
	"Account Currency",
	"Account_Number",
	"Swift Code",
	"Sierra Account Numbers",
	"Country",
}

// StagingStore loads raw feed rows into Postgres staging tables
type StagingStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewStagingStore creates a staging store over a pgx connection pool
func NewStagingStore(pool *pgxpool.Pool, log logger.Logger) *StagingStore {
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &StagingStore{
		pool:   pool,
		logger: log.WithComponent("store"),
	}
}

// Provision drops and recreates the three staging tables
func (s *StagingStore) Provision(ctx context.Context) error {
	tables := []struct {
		name    string
		columns []string
	}{
		{TableGL, GLColumns},
		{TableSwift, SwiftColumns},
		{TableMapping, MappingColumns},
	}

	for _, t := range tables {
		ddl := fmt.Sprintf("DROP TABLE IF EXISTS %s; CREATE TABLE %s (%s);",
			pgx.Identifier{t.name}.Sanitize(),
			pgx.Identifier{t.name}.Sanitize(),
			textColumnList(t.columns))
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return errors.StoreError(errors.CodeProvisionFailed, t.name, err)
		}
		s.logger.WithField("table", t.name).Info("Provisioned staging table")
	}

	return nil
}

func textColumnList(columns []string) string {
	out := ""
	for i, c := range columns {
		if i > 0 {
			out += ", "
		}
		out += pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return out
}

// load bulk-copies raw rows into one staging table
func (s *StagingStore) load(ctx context.Context, table string, columns []string, rows [][]string) (int64, error) {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		row := rows[i]
		out := make([]any, len(columns))
		for j := range columns {
			if j < len(row) && row[j] != "" {
				out[j] = row[j]
			}
		}
		return out, nil
	})

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
	if err != nil {
		return 0, errors.StoreError(errors.CodeCopyFailed, table, err)
	}

	s.logger.WithFields(logger.Fields{"table": table, "rows": n}).Info("Bulk load completed")
	return n, nil
}

// LoadGL bulk-loads raw ledger rows. Row order must follow GLColumns.
func (s *StagingStore) LoadGL(ctx context.Context, rows [][]string) (int64, error) {
	return s.load(ctx, TableGL, GLColumns, rows)
}

// LoadSwift bulk-loads raw statement rows. Row order must follow SwiftColumns.
func (s *StagingStore) LoadSwift(ctx context.Context, rows [][]string) (int64, error) {
	return s.load(ctx, TableSwift, SwiftColumns, rows)
}

// LoadMapping bulk-loads mapping rows. Row order must follow MappingColumns.
func (s *StagingStore) LoadMapping(ctx context.Context, rows [][]string) (int64, error) {
	return s.load(ctx, TableMapping, MappingColumns, rows)
}

// EnrichGL stamps the ledger staging rows with the mapping join and derives
// the Dr/Cr indicator and absolute amount in SQL.
func (s *StagingStore) EnrichGL(ctx context.Context) error {
	statements := []string{
		`ALTER TABLE nostro_gl_raw
		   ADD COLUMN IF NOT EXISTS "Account Name" TEXT,
		   ADD COLUMN IF NOT EXISTS "Account Currency" TEXT,
		   ADD COLUMN IF NOT EXISTS "Account_Number" TEXT,
		   ADD COLUMN IF NOT EXISTS "Swift Code" TEXT,
		   ADD COLUMN IF NOT EXISTS "Country" TEXT,
		   ADD COLUMN IF NOT EXISTS "Dr/Cr" TEXT,
		   ADD COLUMN IF NOT EXISTS "DC_Amount" NUMERIC`,
		`UPDATE nostro_gl_raw n
		   SET "Account Name"     = m."Account Name",
		       "Account Currency" = m."Account Currency",
		       "Account_Number"   = m."Account_Number",
		       "Swift Code"       = m."Swift Code",
		       "Country"          = m."Country"
		  FROM nostro_mapping_raw m
		 WHERE n."Nostro/Vostro/ Sett Entity ID" = m."Sierra Account Numbers"`,
		`UPDATE nostro_gl_raw
		   SET "Dr/Cr" = CASE WHEN CAST("Cash Amt" AS NUMERIC) < 0 THEN 'Dr' ELSE 'Cr' END,
		       "DC_Amount" = ABS(CAST("Cash Amt" AS NUMERIC))
		 WHERE "Cash Amt" IS NOT NULL`,
	}
	return s.runEnrichment(ctx, TableGL, statements)
}

// EnrichSwift stamps the statement staging rows with the mapping join and
// derives the Dr/Cr indicator and absolute amount in SQL.
func (s *StagingStore) EnrichSwift(ctx context.Context) error {
	statements := []string{
		`ALTER TABLE nostro_swift_raw
		   ADD COLUMN IF NOT EXISTS "Account Name" TEXT,
		   ADD COLUMN IF NOT EXISTS "Account Currency" TEXT,
		   ADD COLUMN IF NOT EXISTS "Account_Number" TEXT,
		   ADD COLUMN IF NOT EXISTS "Swift Code" TEXT,
		   ADD COLUMN IF NOT EXISTS "Country" TEXT,
		   ADD COLUMN IF NOT EXISTS "Dr/Cr" TEXT,
		   ADD COLUMN IF NOT EXISTS "DC_Amount" NUMERIC`,
		`UPDATE nostro_swift_raw s
		   SET "Account Name"     = m."Account Name",
		       "Account Currency" = m."Account Currency",
		       "Account_Number"   = m."Account_Number",
		       "Swift Code"       = m."Swift Code",
		       "Country"          = m."Country"
		  FROM nostro_mapping_raw m
		 WHERE s."Nostro Account" = m."Account_Number"`,
		`UPDATE nostro_swift_raw
		   SET "Dr/Cr" = CASE WHEN CAST("Amount" AS NUMERIC) < 0 THEN 'Dr' ELSE 'Cr' END,
		       "DC_Amount" = ABS(CAST("Amount" AS NUMERIC))
		 WHERE "Amount" IS NOT NULL`,
	}
	return s.runEnrichment(ctx, TableSwift, statements)
}

func (s *StagingStore) runEnrichment(ctx context.Context, table string, statements []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.StoreError(errors.CodeEnrichFailed, table, err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return errors.StoreError(errors.CodeEnrichFailed, table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.StoreError(errors.CodeEnrichFailed, table, err)
	}

	s.logger.WithField("table", table).Info("Enrichment completed")
	return nil
}

// DeleteOtherCurrencies restricts both staging feeds to one currency,
// removing rows the mapping could not assign a currency to.
func (s *StagingStore) DeleteOtherCurrencies(ctx context.Context, currency string) error {
	for _, table := range []string{TableGL, TableSwift} {
		stmt := fmt.Sprintf(
			`DELETE FROM %s WHERE "Account Currency" IS NULL OR "Account Currency" <> $1`,
			pgx.Identifier{table}.Sanitize())
		if _, err := s.pool.Exec(ctx, stmt, currency); err != nil {
			return errors.StoreError(errors.CodeEnrichFailed, table, err)
		}
	}
	return nil
}
