// Package summary reduces the tagged, unioned transaction set into
// per-account statistical buckets.
//
// Two independent modes read the same tagged dataset: the value/count
// summary (one row per account and source, with matched/unmatched,
// debit/credit, reversal and carry-forward buckets) and the aging summary
// (unmatched rows bucketed by how many whole days they have remained
// unmatched). Accounts have no cross-account dependency, so aggregation fans
// out over the account set; the result order is deterministic regardless.
package summary

import (
	"sort"
	"sync"

	"nostro-reconciliation-service/internal/models"
	"nostro-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// Bucket is a (sum-of-amount, count-of-rows) pair. An empty filter yields a
// zero bucket, never null.
type Bucket struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

func zeroBucket() Bucket {
	return Bucket{Amount: decimal.Zero}
}

func (b *Bucket) add(amount decimal.Decimal) {
	b.Amount = b.Amount.Add(amount)
	b.Count++
}

// addSplit accumulates the raw split amount unconditionally and
// counts only rows whose split is strictly positive. Mirrors the source
// convention where sums aggregate the split column and counts filter on > 0.
func (b *Bucket) addSplit(amount decimal.Decimal) {
	b.Amount = b.Amount.Add(amount)
	if amount.IsPositive() {
		b.Count++
	}
}

// AccountSummary is one value/count summary row for an (account, source) pair
type AccountSummary struct {
	AccountNumber string        `json:"account_number"`
	Source        models.Source `json:"source"`

	Matched   Bucket `json:"matched"`
	Unmatched Bucket `json:"unmatched"`

	DebitMatched    Bucket `json:"debit_matched"`
	CreditMatched   Bucket `json:"credit_matched"`
	DebitUnmatched  Bucket `json:"debit_unmatched"`
	CreditUnmatched Bucket `json:"credit_unmatched"`

	// Reversal buckets are computed from the opposite side's rows for the
	// same account.
	Reversal       Bucket `json:"reversal"`
	DebitReversal  Bucket `json:"debit_reversal"`
	CreditReversal Bucket `json:"credit_reversal"`

	CarryForwardMatched   Bucket `json:"carry_forward_matched"`
	CarryForwardUnmatched Bucket `json:"carry_forward_unmatched"`
}

// Aggregator computes summary rows from a tagged transaction set
type Aggregator struct {
	// MaxWorkers bounds the per-account fan-out. Zero means one goroutine
	// per account.
	MaxWorkers int
}

// NewAggregator creates an Aggregator with defaults
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// validate checks the fields bucket semantics are undefined without.
// A violation is fatal for the aggregator call.
func validate(rows []*models.TaggedRecord) error {
	for _, t := range rows {
		if t.Record == nil || t.AccountNumber == "" {
			return errors.AggregationError(errors.CodeMissingField, models.ColAccountNumber, nil)
		}
		if !t.Source.IsValid() {
			return errors.AggregationError(errors.CodeInvalidSource, string(t.Source), nil)
		}
		if t.MatchingStatus == "" {
			return errors.AggregationError(errors.CodeMissingField, "Matching_Status", nil)
		}
	}
	return nil
}

// Aggregate produces one summary row per (account, source) pair. Both
// sources appear for every account present in the input, so a side with no
// rows still reports zero buckets.
func (a *Aggregator) Aggregate(rows []*models.TaggedRecord) ([]AccountSummary, error) {
	if err := validate(rows); err != nil {
		return nil, err
	}

	byAccount := make(map[string][]*models.TaggedRecord)
	for _, t := range rows {
		byAccount[t.AccountNumber] = append(byAccount[t.AccountNumber], t)
	}

	accounts := make([]string, 0, len(byAccount))
	for acct := range byAccount {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)

	sources := []models.Source{models.SourceGL, models.SourceSwift}
	results := make([]AccountSummary, len(accounts)*len(sources))

	var wg sync.WaitGroup
	sem := a.semaphore(len(accounts))
	for i, acct := range accounts {
		wg.Add(1)
		go func(i int, acct string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			accountRows := byAccount[acct]
			for j, src := range sources {
				results[i*len(sources)+j] = summarizeAccount(acct, src, accountRows)
			}
		}(i, acct)
	}
	wg.Wait()

	return results, nil
}

func (a *Aggregator) semaphore(n int) chan struct{} {
	if a.MaxWorkers <= 0 || a.MaxWorkers >= n {
		return nil
	}
	return make(chan struct{}, a.MaxWorkers)
}

// summarizeAccount computes every bucket for one (account, source) row from
// the account's rows on both sides.
func summarizeAccount(account string, source models.Source, rows []*models.TaggedRecord) AccountSummary {
	s := AccountSummary{
		AccountNumber:         account,
		Source:                source,
		Matched:               zeroBucket(),
		Unmatched:             zeroBucket(),
		DebitMatched:          zeroBucket(),
		CreditMatched:         zeroBucket(),
		DebitUnmatched:        zeroBucket(),
		CreditUnmatched:       zeroBucket(),
		Reversal:              zeroBucket(),
		DebitReversal:         zeroBucket(),
		CreditReversal:        zeroBucket(),
		CarryForwardMatched:   zeroBucket(),
		CarryForwardUnmatched: zeroBucket(),
	}

	for _, t := range rows {
		if t.Source == source {
			switch {
			case t.CarryForward == models.CarryForwardNo && t.Matched():
				s.Matched.add(t.DCAmount)
				s.DebitMatched.addSplit(t.DebitAmount())
				s.CreditMatched.addSplit(t.CreditAmount())
			case t.CarryForward == models.CarryForwardNo && t.Unmatched():
				s.Unmatched.add(t.DCAmount)
				s.DebitUnmatched.addSplit(t.DebitAmount())
				s.CreditUnmatched.addSplit(t.CreditAmount())
			case t.CarryForward == models.CarryForwardYes && t.Matched():
				s.CarryForwardMatched.add(t.DCAmount)
			case t.CarryForward == models.CarryForwardYes && t.Unmatched():
				s.CarryForwardUnmatched.add(t.DCAmount)
			}
			continue
		}

		// Cross-side lookup: reversal rows on the opposite side of this
		// account count toward this side's reversal bucket.
		if t.Source == source.Opposite() && t.MatchingStatus == models.StatusReversal {
			s.Reversal.add(t.DCAmount)
			s.DebitReversal.addSplit(t.DebitAmount())
			s.CreditReversal.addSplit(t.CreditAmount())
		}
	}

	return s
}
