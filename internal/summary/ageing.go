package summary

import (
	"sort"
	"sync"
	"time"

	"nostro-reconciliation-service/internal/models"
)

// AgeingSummary is one aging-mode row for an (account, currency, source)
// group. Buckets are inclusive day ranges except the open-ended final one.
type AgeingSummary struct {
	AccountNumber string        `json:"account_number"`
	Currency      string        `json:"currency"`
	Source        models.Source `json:"source"`

	Days0To5   Bucket `json:"days_0_5"`
	Days6To27  Bucket `json:"days_6_27"`
	Days28To59 Bucket `json:"days_28_59"`
	Days60Plus Bucket `json:"days_60_plus"`

	// Total is the sum across the four buckets.
	Total Bucket `json:"total"`

	// Excluded counts rows whose aging is negative or undefined. They fall
	// into no bucket and do not contribute to Total, but are surfaced so
	// callers can reconcile Total against the group's row count.
	Excluded int `json:"excluded"`
}

// AgeingOptions configures the aging aggregation
type AgeingOptions struct {
	// ReferenceDate is the batch date aging is measured against. Zero means
	// today.
	ReferenceDate time.Time
}

// Ageing returns the whole-day age of a record relative to the reference
// date. The second return is false when the age is undefined (no value date)
// or negative.
func Ageing(r *models.Record, reference time.Time) (int, bool) {
	if r.ValueDate.IsZero() {
		return 0, false
	}
	ref := dateOnly(reference)
	val := dateOnly(r.ValueDate)
	days := int(ref.Sub(val).Hours() / 24)
	if days < 0 {
		return days, false
	}
	return days, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type ageingKey struct {
	account  string
	currency string
}

// AggregateAgeing computes the aging breakdown of unmatched rows grouped by
// (account, currency, source). As in the value/count mode, both sources
// appear for every (account, currency) seen in the input.
func (a *Aggregator) AggregateAgeing(rows []*models.TaggedRecord, opts AgeingOptions) ([]AgeingSummary, error) {
	if err := validate(rows); err != nil {
		return nil, err
	}

	reference := opts.ReferenceDate
	if reference.IsZero() {
		reference = time.Now()
	}

	byGroup := make(map[ageingKey][]*models.TaggedRecord)
	for _, t := range rows {
		k := ageingKey{account: t.AccountNumber, currency: t.Currency}
		byGroup[k] = append(byGroup[k], t)
	}

	groups := make([]ageingKey, 0, len(byGroup))
	for k := range byGroup {
		groups = append(groups, k)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].account != groups[j].account {
			return groups[i].account < groups[j].account
		}
		return groups[i].currency < groups[j].currency
	})

	sources := []models.Source{models.SourceGL, models.SourceSwift}
	results := make([]AgeingSummary, len(groups)*len(sources))

	var wg sync.WaitGroup
	sem := a.semaphore(len(groups))
	for i, k := range groups {
		wg.Add(1)
		go func(i int, k ageingKey) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			for j, src := range sources {
				results[i*len(sources)+j] = summarizeAgeing(k, src, byGroup[k], reference)
			}
		}(i, k)
	}
	wg.Wait()

	return results, nil
}

func summarizeAgeing(k ageingKey, source models.Source, rows []*models.TaggedRecord, reference time.Time) AgeingSummary {
	s := AgeingSummary{
		AccountNumber: k.account,
		Currency:      k.currency,
		Source:        source,
		Days0To5:      zeroBucket(),
		Days6To27:     zeroBucket(),
		Days28To59:    zeroBucket(),
		Days60Plus:    zeroBucket(),
		Total:         zeroBucket(),
	}

	for _, t := range rows {
		if t.Source != source || !t.Unmatched() {
			continue
		}
		days, ok := Ageing(t.Record, reference)
		if !ok {
			s.Excluded++
			continue
		}

		// Each row with a non-negative age falls into exactly one bucket
		switch {
		case days <= 5:
			s.Days0To5.add(t.DCAmount)
		case days <= 27:
			s.Days6To27.add(t.DCAmount)
		case days <= 59:
			s.Days28To59.add(t.DCAmount)
		default:
			s.Days60Plus.add(t.DCAmount)
		}
	}

	s.Total.Count = s.Days0To5.Count + s.Days6To27.Count + s.Days28To59.Count + s.Days60Plus.Count
	s.Total.Amount = s.Days0To5.Amount.
		Add(s.Days6To27.Amount).
		Add(s.Days28To59.Amount).
		Add(s.Days60Plus.Amount)

	return s
}
