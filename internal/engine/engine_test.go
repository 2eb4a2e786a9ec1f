package engine

import (
	"testing"
	"time"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"
	"nostro-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

func glRecord(account, transNum, externalNum, currency string, amount float64) *models.Record {
	refs := map[string]string{}
	if transNum != "" {
		refs["Trans Num"] = transNum
	}
	if externalNum != "" {
		refs["ExternalTxNum"] = externalNum
	}
	return models.NewRecord(account, currency, decimal.NewFromFloat(amount),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), models.SourceGL, refs)
}

func swiftRecord(account, txRef, instRef, currency string, amount float64) *models.Record {
	refs := map[string]string{}
	if txRef != "" {
		refs["Transaction Reference"] = txRef
	}
	if instRef != "" {
		refs["Institution Reference"] = instRef
	}
	return models.NewRecord(account, currency, decimal.NewFromFloat(amount),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), models.SourceSwift, refs)
}

func testEngine() *Engine {
	return NewEngine(logger.NewNopLogger())
}

func TestMatchRuleCascade(t *testing.T) {
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", -100),
		glRecord("ACC1", "", "EXT2", "USD", 250),
		glRecord("ACC1", "TX9", "EXT9", "USD", 75),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", -100),
		swiftRecord("ACC1", "", "EXT2", "USD", 250),
		swiftRecord("ACC1", "ZZZ", "YYY", "USD", 500),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.MatchedGL) != 2 {
		t.Errorf("Expected 2 matched GL records, got %d", len(result.MatchedGL))
	}
	if len(result.UnmatchedGL) != 1 {
		t.Errorf("Expected 1 unmatched GL record, got %d", len(result.UnmatchedGL))
	}
	if len(result.MatchedSwift) != 2 {
		t.Errorf("Expected 2 matched SWIFT records, got %d", len(result.MatchedSwift))
	}
	if len(result.UnmatchedSwift) != 1 {
		t.Errorf("Expected 1 unmatched SWIFT record, got %d", len(result.UnmatchedSwift))
	}

	if result.Summary.RuleGLCounts["Rule 1"] != 1 {
		t.Errorf("Expected Rule 1 to match 1 GL record, got %d", result.Summary.RuleGLCounts["Rule 1"])
	}
	if result.Summary.RuleGLCounts["Rule 2"] != 1 {
		t.Errorf("Expected Rule 2 to match 1 GL record, got %d", result.Summary.RuleGLCounts["Rule 2"])
	}
}

func TestMatchPartitionCompleteness(t *testing.T) {
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", 10),
		glRecord("ACC1", "TX2", "", "USD", 20),
		glRecord("ACC2", "TX3", "EXT3", "EUR", -30),
		glRecord("ACC2", "", "", "EUR", 40),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", 10),
		swiftRecord("ACC2", "", "EXT3", "EUR", -30),
		swiftRecord("ACC2", "TX8", "", "EUR", 99),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := len(result.MatchedGL) + len(result.UnmatchedGL); got != gl.Len() {
		t.Errorf("GL partitions cover %d records, input had %d", got, gl.Len())
	}
	if got := len(result.MatchedSwift) + len(result.UnmatchedSwift); got != swift.Len() {
		t.Errorf("SWIFT partitions cover %d records, input had %d", got, swift.Len())
	}

	// No record appears in more than one partition
	seen := make(map[*models.Record]int)
	for _, tagged := range result.Tagged() {
		seen[tagged.Record]++
	}
	for rec, n := range seen {
		if n != 1 {
			t.Errorf("Record %s appears %d times across partitions", rec, n)
		}
	}
}

func TestMatchRulePriority(t *testing.T) {
	// The GL record carries both identifiers; the first rule must claim it
	// so later rules never see it.
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "EXT1", "USD", 100),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "EXT1", "USD", 100),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.MatchedGL) != 1 {
		t.Fatalf("Expected 1 matched GL record, got %d", len(result.MatchedGL))
	}
	if result.MatchedGL[0].MatchingStatus != "Rule 1" {
		t.Errorf("Expected the first rule to claim the record, got %q", result.MatchedGL[0].MatchingStatus)
	}
}

func TestMatchManyToMany(t *testing.T) {
	// Three ledger rows and two statement rows share one key tuple: key-set
	// membership tags all five matched.
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", 100),
		glRecord("ACC1", "TX1", "", "USD", 100),
		glRecord("ACC1", "TX1", "", "USD", 100),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", 100),
		swiftRecord("ACC1", "TX1", "", "USD", 100),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.MatchedGL) != 3 {
		t.Errorf("Expected all 3 GL records matched, got %d", len(result.MatchedGL))
	}
	if len(result.MatchedSwift) != 2 {
		t.Errorf("Expected both SWIFT records matched, got %d", len(result.MatchedSwift))
	}
}

func TestMatchEmptyKeyNeverMatches(t *testing.T) {
	// Both sides have an empty Trans Num / Transaction Reference; empty key
	// fields must not pair up.
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "", "", "USD", 100),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "", "", "USD", 100),
	})
	// Both pools claim the reference columns so no rule is skipped
	for _, p := range []*models.Pool{gl, swift} {
		p.Columns["Trans Num"] = struct{}{}
		p.Columns["ExternalTxNum"] = struct{}{}
		p.Columns["Transaction Reference"] = struct{}{}
		p.Columns["Institution Reference"] = struct{}{}
	}

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.MatchedGL) != 0 || len(result.MatchedSwift) != 0 {
		t.Errorf("Expected no matches on empty key fields, got %d GL / %d SWIFT",
			len(result.MatchedGL), len(result.MatchedSwift))
	}
}

func TestMatchSkipsRuleOnMissingColumn(t *testing.T) {
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "", "EXT1", "USD", 100),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "", "EXT1", "USD", 100),
	})
	// Neither feed carried the columns the first rule needs
	delete(gl.Columns, "Trans Num")
	delete(swift.Columns, "Transaction Reference")

	rules := []Rule{
		{
			Name:      "Rule 1",
			GLKeys:    []string{"Trans Num", models.ColDCAmount},
			SwiftKeys: []string{"Transaction Reference", models.ColDCAmount},
		},
		{
			Name:      "Rule 2",
			GLKeys:    []string{"ExternalTxNum", models.ColDCAmount},
			SwiftKeys: []string{"Institution Reference", models.ColDCAmount},
		},
	}

	result, err := testEngine().Match(gl, swift, rules)
	if err != nil {
		t.Fatalf("Expected skipped rule, not fatal error: %v", err)
	}

	if len(result.SkippedRules) != 1 {
		t.Fatalf("Expected 1 skipped-rule warning, got %d", len(result.SkippedRules))
	}
	if result.SkippedRules[0].Kind != errors.WarnMissingColumn {
		t.Errorf("Expected warning kind %s, got %s", errors.WarnMissingColumn, result.SkippedRules[0].Kind)
	}

	// The later rule still ran
	if len(result.MatchedGL) != 1 {
		t.Errorf("Expected the surviving rule to match, got %d matched", len(result.MatchedGL))
	}
	if result.MatchedGL[0].MatchingStatus != "Rule 2" {
		t.Errorf("Expected Rule 2 to claim the record, got %q", result.MatchedGL[0].MatchingStatus)
	}
}

func TestMatchEmptyRuleSet(t *testing.T) {
	gl := models.PoolFromRecords(nil)
	swift := models.PoolFromRecords(nil)

	_, err := testEngine().Match(gl, swift, nil)
	if err == nil {
		t.Fatal("Expected an error for an empty rule list")
	}
	if !errors.IsCode(err, errors.CodeEmptyRuleSet) {
		t.Errorf("Expected code %s, got %v", errors.CodeEmptyRuleSet, err)
	}
}

func TestMatchArityMismatchIsFatal(t *testing.T) {
	gl := models.PoolFromRecords([]*models.Record{glRecord("ACC1", "TX1", "", "USD", 1)})
	swift := models.PoolFromRecords([]*models.Record{swiftRecord("ACC1", "TX1", "", "USD", 1)})

	rules := []Rule{{
		Name:      "Bad Rule",
		GLKeys:    []string{"Trans Num", models.ColDCAmount},
		SwiftKeys: []string{"Transaction Reference"},
	}}

	_, err := testEngine().Match(gl, swift, rules)
	if err == nil {
		t.Fatal("Expected a fatal error for mismatched key arity")
	}
	if !errors.IsCode(err, errors.CodeRuleArity) {
		t.Errorf("Expected code %s, got %v", errors.CodeRuleArity, err)
	}
	if !errors.IsCategory(err, errors.CategoryConfiguration) {
		t.Errorf("Expected configuration category, got %v", err)
	}
}

func TestMatchAmountIsPartOfKey(t *testing.T) {
	// Same reference, different absolute amounts: no match.
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", 100),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", 100.01),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.MatchedGL) != 0 {
		t.Errorf("Expected no match across differing amounts, got %d", len(result.MatchedGL))
	}
}

func TestMatchSignInsensitiveAmountKey(t *testing.T) {
	// The key uses the absolute amount: a ledger debit matches a statement
	// credit of the same magnitude.
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", -100.5),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", 100.5),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.MatchedGL) != 1 || len(result.MatchedSwift) != 1 {
		t.Errorf("Expected both sides matched on absolute amount, got %d GL / %d SWIFT",
			len(result.MatchedGL), len(result.MatchedSwift))
	}
}

func TestMatchIdempotent(t *testing.T) {
	// Re-running the cascade over the unmatched remainders must find
	// nothing new: every consumable pair was consumed on the first pass.
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", -100),
		glRecord("ACC1", "TX2", "", "USD", 20),
		glRecord("ACC2", "", "EXT5", "EUR", 30),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", 100),
		swiftRecord("ACC3", "TX7", "", "USD", 55),
	})

	eng := testEngine()
	first, err := eng.Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(first.MatchedGL) != 1 || len(first.MatchedSwift) != 1 {
		t.Fatalf("Expected 1 matched record per side on the first pass, got %d GL / %d SWIFT",
			len(first.MatchedGL), len(first.MatchedSwift))
	}

	remainderGL := make([]*models.Record, 0, len(first.UnmatchedGL))
	for _, tagged := range first.UnmatchedGL {
		remainderGL = append(remainderGL, tagged.Record)
	}
	remainderSwift := make([]*models.Record, 0, len(first.UnmatchedSwift))
	for _, tagged := range first.UnmatchedSwift {
		remainderSwift = append(remainderSwift, tagged.Record)
	}

	second, err := eng.Match(models.PoolFromRecords(remainderGL),
		models.PoolFromRecords(remainderSwift), DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error on the second pass: %v", err)
	}

	if len(second.MatchedGL) != 0 || len(second.MatchedSwift) != 0 {
		t.Errorf("Expected no new matches on the second pass, got %d GL / %d SWIFT",
			len(second.MatchedGL), len(second.MatchedSwift))
	}
	if len(second.UnmatchedGL) != len(first.UnmatchedGL) {
		t.Errorf("Expected %d unmatched GL records to survive unchanged, got %d",
			len(first.UnmatchedGL), len(second.UnmatchedGL))
	}
	if len(second.UnmatchedSwift) != len(first.UnmatchedSwift) {
		t.Errorf("Expected %d unmatched SWIFT records to survive unchanged, got %d",
			len(first.UnmatchedSwift), len(second.UnmatchedSwift))
	}
}

func TestMatchSummaryAmounts(t *testing.T) {
	gl := models.PoolFromRecords([]*models.Record{
		glRecord("ACC1", "TX1", "", "USD", -100),
		glRecord("ACC1", "TX2", "", "USD", 40),
	})
	swift := models.PoolFromRecords([]*models.Record{
		swiftRecord("ACC1", "TX1", "", "USD", 100),
	})

	result, err := testEngine().Match(gl, swift, DefaultRules())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Summary.TotalGL != 2 || result.Summary.TotalSwift != 1 {
		t.Errorf("Expected totals 2/1, got %d/%d", result.Summary.TotalGL, result.Summary.TotalSwift)
	}
	if result.Summary.MatchedGLAmount.String() != "100" {
		t.Errorf("Expected matched GL amount 100, got %s", result.Summary.MatchedGLAmount.String())
	}
	if result.Summary.UnmatchedGLAmount.String() != "40" {
		t.Errorf("Expected unmatched GL amount 40, got %s", result.Summary.UnmatchedGLAmount.String())
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		wantCode errors.ErrorCode
	}{
		{
			"valid rule",
			Rule{Name: "R", GLKeys: []string{"a"}, SwiftKeys: []string{"b"}},
			"",
		},
		{
			"empty name",
			Rule{GLKeys: []string{"a"}, SwiftKeys: []string{"b"}},
			errors.CodeMalformedRule,
		},
		{
			"empty key list",
			Rule{Name: "R", GLKeys: nil, SwiftKeys: []string{"b"}},
			errors.CodeMalformedRule,
		},
		{
			"arity mismatch",
			Rule{Name: "R", GLKeys: []string{"a", "c"}, SwiftKeys: []string{"b"}},
			errors.CodeRuleArity,
		},
		{
			"blank key field",
			Rule{Name: "R", GLKeys: []string{""}, SwiftKeys: []string{"b"}},
			errors.CodeMalformedRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !errors.IsCode(err, tt.wantCode) {
				t.Errorf("Expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	if len(rules) != 3 {
		t.Fatalf("Expected 3 default rules, got %d", len(rules))
	}
	if err := ValidateRules(rules); err != nil {
		t.Errorf("Default rules failed validation: %v", err)
	}
}
