// Package engine implements the rule-cascade matching engine.
//
// Matching applies an ordered list of rules to two transaction pools. Each
// rule projects the remaining records of both sides onto its key columns,
// takes the set of key tuples present in both projections, and consumes every
// remaining record whose tuple is in that set. A record consumed by rule k is
// never evaluated against rule k+1, so rule order is a primary correctness
// lever: callers order rules from most-specific to least-specific.
//
// Matching is key-based set membership, not row pairing. If three ledger rows
// and two statement rows share a key tuple, all five are tagged matched by
// that rule. Callers needing strict 1:1 reconciliation must layer an explicit
// disambiguation step on top.
package engine

import (
	"fmt"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"
)

// Rule is one priority-ordered matching rule. Position i of GLKeys is
// compared against position i of SwiftKeys, field for field, using exact
// canonical-string equality.
type Rule struct {
	Name      string   `mapstructure:"name" json:"name"`
	GLKeys    []string `mapstructure:"gl_keys" json:"gl_keys"`
	SwiftKeys []string `mapstructure:"swift_keys" json:"swift_keys"`
}

// Validate checks a single rule for structural errors
func (r Rule) Validate() error {
	if r.Name == "" {
		return errors.ConfigurationError(errors.CodeMalformedRule, r.Name, "rule name is empty")
	}
	if len(r.GLKeys) == 0 || len(r.SwiftKeys) == 0 {
		return errors.ConfigurationError(errors.CodeMalformedRule, r.Name, "rule has an empty key list")
	}
	if len(r.GLKeys) != len(r.SwiftKeys) {
		return errors.ConfigurationError(errors.CodeRuleArity, r.Name,
			fmt.Sprintf("ledger keys %d, statement keys %d", len(r.GLKeys), len(r.SwiftKeys)))
	}
	for _, k := range r.GLKeys {
		if k == "" {
			return errors.ConfigurationError(errors.CodeMalformedRule, r.Name, "empty ledger key field")
		}
	}
	for _, k := range r.SwiftKeys {
		if k == "" {
			return errors.ConfigurationError(errors.CodeMalformedRule, r.Name, "empty statement key field")
		}
	}
	return nil
}

// ValidateRules validates the whole rule list. Any failure is a fatal
// configuration error raised before matching begins.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.ConfigurationError(errors.CodeEmptyRuleSet, "", "")
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRules returns the standard nostro rule set: reference identifiers
// cross-checked against the absolute amount and the account currency, in
// decreasing order of specificity.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "Rule 1",
			GLKeys:    []string{"Trans Num", models.ColDCAmount, models.ColCurrency},
			SwiftKeys: []string{"Transaction Reference", models.ColDCAmount, models.ColCurrency},
		},
		{
			Name:      "Rule 2",
			GLKeys:    []string{"ExternalTxNum", models.ColDCAmount, models.ColCurrency},
			SwiftKeys: []string{"Institution Reference", models.ColDCAmount, models.ColCurrency},
		},
		{
			Name:      "Rule 3",
			GLKeys:    []string{"ExternalTxNum", models.ColDCAmount, models.ColCurrency},
			SwiftKeys: []string{"Transaction Reference", models.ColDCAmount, models.ColCurrency},
		},
	}
}
