package engine

import (
	"strings"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Engine applies a rule cascade to a ledger pool and a statement pool.
// It holds no state between Match calls.
type Engine struct {
	logger logger.Logger
}

// MatchResult holds the four partitions produced by one matching run.
// MatchedGL ∪ UnmatchedGL is exactly the input ledger pool, and likewise for
// the statement side; no record is duplicated or dropped.
type MatchResult struct {
	MatchedGL      []*models.TaggedRecord
	UnmatchedGL    []*models.TaggedRecord
	MatchedSwift   []*models.TaggedRecord
	UnmatchedSwift []*models.TaggedRecord

	// SkippedRules collects the missing-column warnings; skipped rules do
	// not interrupt the cascade.
	SkippedRules []errors.Warning

	Summary MatchSummary
}

// MatchSummary provides aggregate statistics about a matching run
type MatchSummary struct {
	TotalGL             int
	TotalSwift          int
	MatchedGLCount      int
	MatchedSwiftCount   int
	UnmatchedGLCount    int
	UnmatchedSwiftCount int

	// Per-rule matched counts, keyed by rule name
	RuleGLCounts    map[string]int
	RuleSwiftCounts map[string]int

	MatchedGLAmount      decimal.Decimal
	UnmatchedGLAmount    decimal.Decimal
	MatchedSwiftAmount   decimal.Decimal
	UnmatchedSwiftAmount decimal.Decimal
}

// Tagged returns the tagged union of all four partitions, the sole input the
// summary aggregators consume.
func (r *MatchResult) Tagged() []*models.TaggedRecord {
	out := make([]*models.TaggedRecord, 0,
		len(r.MatchedGL)+len(r.UnmatchedGL)+len(r.MatchedSwift)+len(r.UnmatchedSwift))
	out = append(out, r.MatchedGL...)
	out = append(out, r.UnmatchedGL...)
	out = append(out, r.MatchedSwift...)
	out = append(out, r.UnmatchedSwift...)
	return out
}

// NewEngine creates a matching engine
func NewEngine(log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &Engine{logger: log.WithComponent("engine")}
}

// keySeparator joins key-field values into one tuple string. The unit
// separator cannot appear in feed data, so joined tuples never collide.
const keySeparator = "\x1f"

// keyOf projects a record onto the rule's key fields. The second return is
// false when any key field has no value; such records never match.
func keyOf(r *models.Record, fields []string) (string, bool) {
	parts := make([]string, len(fields))
	for i, f := range fields {
		v, ok := r.Field(f)
		if !ok {
			return "", false
		}
		parts[i] = v
	}
	return strings.Join(parts, keySeparator), true
}

// Match runs the rule cascade and returns the four partitions.
//
// The cascade is a fold over shrinking pools: each rule step takes the
// current remaining slices and produces new ones plus a matched increment.
// Rules apply in strict list order and the loop is inherently sequential;
// each rule's outcome depends on the previous rule's removals.
func (e *Engine) Match(gl, swift *models.Pool, rules []Rule) (*MatchResult, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	// Derived fields are computed once before matching
	gl.Derive()
	swift.Derive()

	result := &MatchResult{}
	remainingGL := gl.Records
	remainingSwift := swift.Records

	for _, rule := range rules {
		if missing := missingColumns(gl, rule.GLKeys); len(missing) > 0 {
			w := errors.MissingColumnWarning(rule.Name, "GL", missing)
			e.logger.WithFields(logger.Fields{"rule": rule.Name, "columns": missing}).Warn("Skipping rule: GL columns not found")
			result.SkippedRules = append(result.SkippedRules, w)
			continue
		}
		if missing := missingColumns(swift, rule.SwiftKeys); len(missing) > 0 {
			w := errors.MissingColumnWarning(rule.Name, "SWIFT", missing)
			e.logger.WithFields(logger.Fields{"rule": rule.Name, "columns": missing}).Warn("Skipping rule: SWIFT columns not found")
			result.SkippedRules = append(result.SkippedRules, w)
			continue
		}

		// Key tuples present in both projections: an inner join followed by
		// distinct, not a 1:1 pairing.
		glKeys := projectKeys(remainingGL, rule.GLKeys)
		shared := make(map[string]struct{})
		for _, r := range remainingSwift {
			k, ok := keyOf(r, rule.SwiftKeys)
			if !ok {
				continue
			}
			if _, hit := glKeys[k]; hit {
				shared[k] = struct{}{}
			}
		}

		if len(shared) == 0 {
			continue
		}

		var matchedGL, matchedSwift int
		remainingGL, matchedGL = e.consume(remainingGL, rule.GLKeys, shared, rule.Name, &result.MatchedGL)
		remainingSwift, matchedSwift = e.consume(remainingSwift, rule.SwiftKeys, shared, rule.Name, &result.MatchedSwift)

		e.logger.WithFields(logger.Fields{
			"rule":          rule.Name,
			"keys":          len(shared),
			"matched_gl":    matchedGL,
			"matched_swift": matchedSwift,
		}).Info("Rule matched")
	}

	for _, r := range remainingGL {
		result.UnmatchedGL = append(result.UnmatchedGL, models.NewTagged(r, models.StatusUnmatched))
	}
	for _, r := range remainingSwift {
		result.UnmatchedSwift = append(result.UnmatchedSwift, models.NewTagged(r, models.StatusUnmatched))
	}

	result.Summary = e.calculateSummary(result, gl.Len(), swift.Len())

	e.logger.WithFields(logger.Fields{
		"total_gl":        result.Summary.TotalGL,
		"total_swift":     result.Summary.TotalSwift,
		"matched_gl":      result.Summary.MatchedGLCount,
		"matched_swift":   result.Summary.MatchedSwiftCount,
		"unmatched_gl":    result.Summary.UnmatchedGLCount,
		"unmatched_swift": result.Summary.UnmatchedSwiftCount,
		"skipped_rules":   len(result.SkippedRules),
	}).Info("Matching completed")

	return result, nil
}

// consume moves every record whose key tuple is in shared into the matched
// accumulator, tagged with the rule name, and returns the shrunken remainder.
func (e *Engine) consume(remaining []*models.Record, keys []string, shared map[string]struct{}, ruleName string, matched *[]*models.TaggedRecord) ([]*models.Record, int) {
	rest := make([]*models.Record, 0, len(remaining))
	count := 0
	for _, r := range remaining {
		k, ok := keyOf(r, keys)
		if ok {
			if _, hit := shared[k]; hit {
				*matched = append(*matched, models.NewTagged(r, ruleName))
				count++
				continue
			}
		}
		rest = append(rest, r)
	}
	return rest, count
}

// projectKeys builds the distinct key-tuple set for one side
func projectKeys(records []*models.Record, fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if k, ok := keyOf(r, fields); ok {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// missingColumns returns the rule key fields the pool's feed did not carry
func missingColumns(pool *models.Pool, fields []string) []string {
	var missing []string
	for _, f := range fields {
		if !pool.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// calculateSummary computes aggregate statistics for the matching run
func (e *Engine) calculateSummary(r *MatchResult, totalGL, totalSwift int) MatchSummary {
	summary := MatchSummary{
		TotalGL:              totalGL,
		TotalSwift:           totalSwift,
		MatchedGLCount:       len(r.MatchedGL),
		MatchedSwiftCount:    len(r.MatchedSwift),
		UnmatchedGLCount:     len(r.UnmatchedGL),
		UnmatchedSwiftCount:  len(r.UnmatchedSwift),
		RuleGLCounts:         make(map[string]int),
		RuleSwiftCounts:      make(map[string]int),
		MatchedGLAmount:      decimal.Zero,
		UnmatchedGLAmount:    decimal.Zero,
		MatchedSwiftAmount:   decimal.Zero,
		UnmatchedSwiftAmount: decimal.Zero,
	}

	for _, t := range r.MatchedGL {
		summary.RuleGLCounts[t.MatchingStatus]++
		summary.MatchedGLAmount = summary.MatchedGLAmount.Add(t.DCAmount)
	}
	for _, t := range r.MatchedSwift {
		summary.RuleSwiftCounts[t.MatchingStatus]++
		summary.MatchedSwiftAmount = summary.MatchedSwiftAmount.Add(t.DCAmount)
	}
	for _, t := range r.UnmatchedGL {
		summary.UnmatchedGLAmount = summary.UnmatchedGLAmount.Add(t.DCAmount)
	}
	for _, t := range r.UnmatchedSwift {
		summary.UnmatchedSwiftAmount = summary.UnmatchedSwiftAmount.Add(t.DCAmount)
	}

	return summary
}
