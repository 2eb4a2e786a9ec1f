package parsers

import (
	"encoding/csv"
	"fmt"
	"io"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"
	"nostro-reconciliation-service/pkg/logger"
)

// FeedParser reads one feed extract into a record pool
type FeedParser struct {
	config *FeedConfig
	logger logger.Logger
}

// NewFeedParser creates a parser for the given feed config
func NewFeedParser(config *FeedConfig, log logger.Logger) (*FeedParser, error) {
	if config == nil {
		return nil, errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig,
			"feed config is required")
	}
	if config.AmountColumn == "" || config.AccountColumn == "" {
		return nil, errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig,
			fmt.Sprintf("feed config '%s' must name amount and account columns", config.Name))
	}
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &FeedParser{
		config: config,
		logger: log.WithComponent("parsers").WithField("feed", config.Name),
	}, nil
}

// Parse reads the feed and returns the record pool plus any recoverable
// warnings. Rows with unparseable amounts or dates stay in the pool; their
// raw text is kept in Refs and the row is excluded from numeric derivation.
func (fp *FeedParser) Parse(r io.Reader) (*models.Pool, []errors.Warning, error) {
	reader := csv.NewReader(r)
	reader.Comma = fp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, fp.config.Name, 1, "", err)
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := fp.config.resolveColumn(h)
		columns[i] = name
		index[name] = i
	}

	if _, ok := index[fp.config.AmountColumn]; !ok {
		return nil, nil, errors.ParseError(errors.CodeMissingColumn, fp.config.Name, 1, fp.config.AmountColumn, nil)
	}
	if _, ok := index[fp.config.AccountColumn]; !ok {
		return nil, nil, errors.ParseError(errors.CodeMissingColumn, fp.config.Name, 1, fp.config.AccountColumn, nil)
	}

	var records []*models.Record
	var warnings []errors.Warning
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, errors.ParseError(errors.CodeInvalidFormat, fp.config.Name, line, "", err)
		}

		rec := &models.Record{
			Source: fp.config.Source,
			Refs:   make(map[string]string, len(columns)),
		}

		for i, name := range columns {
			if i >= len(row) {
				continue
			}
			rec.Refs[name] = row[i]
		}

		rawAmount := rec.Refs[fp.config.AmountColumn]
		amount, err := models.ParseDecimalFromString(rawAmount)
		if err != nil {
			warnings = append(warnings, errors.AmbiguousNumericWarning(fp.config.AmountColumn, line, rawAmount))
		} else {
			rec.Amount = amount
			rec.AmountValid = true
		}

		if fp.config.DateColumn != "" {
			if rawDate := rec.Refs[fp.config.DateColumn]; rawDate != "" {
				if d, err := models.ParseDateWithFormats(rawDate); err == nil {
					rec.ValueDate = d
				} else {
					warnings = append(warnings, errors.AmbiguousNumericWarning(fp.config.DateColumn, line, rawDate))
				}
			}
		}

		records = append(records, rec)
	}

	pool := models.NewPool(columns, records)
	// Derived and canonical columns the engine and aggregators project onto
	pool.Columns[models.ColDCAmount] = struct{}{}
	pool.Columns[models.ColDrCr] = struct{}{}
	pool.Columns[models.ColValueDate] = struct{}{}

	fp.logger.WithFields(logger.Fields{
		"records":  len(records),
		"warnings": len(warnings),
	}).Info("Feed parsing completed")

	if len(warnings) > 0 {
		fp.logger.WithField("sample", sampleWarnings(warnings, 3)).Warn("Encountered recoverable rows during parsing")
	}

	return pool, warnings, nil
}

func sampleWarnings(ws []errors.Warning, n int) []string {
	if len(ws) < n {
		n = len(ws)
	}
	out := make([]string, 0, n)
	for _, w := range ws[:n] {
		out = append(out, w.String())
	}
	return out
}
