package schedule

import (
	"sort"
	"time"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/calendar"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/scope"
)

// candidate is an applicable rule with its precedence key.
type candidate struct {
	priority    int
	specificity int
	rule        model.Rule
}

// collectCandidates buckets rules by kind, keeping only those effective on
// the target date whose scope matches the context. Each bucket is sorted
// ascending by (priority, specificity): applying in that order makes the
// highest priority win, and among equals the narrowest scope, because it is
// applied last. The sort is stable, so equal keys keep store order.
func collectCandidates(rules []model.OverrideRule, date time.Time, ctx scope.Context) map[model.RuleKind][]candidate {
	buckets := make(map[model.RuleKind][]candidate)
	for _, row := range rules {
		decoded, err := autorun.Decode(row.Kind, row.Payload)
		if err != nil {
			continue
		}
		d, err := calendar.ParseDate(decoded.Date())
		if err != nil {
			continue
		}
		dy, dm, dd := d.Date()
		ty, tm, td := date.Date()
		if dy != ty || dm != tm || dd != td {
			continue
		}
		spec := scope.Best(row.Scope, ctx)
		if spec < 0 {
			continue
		}
		buckets[row.Kind] = append(buckets[row.Kind], candidate{
			priority:    row.Priority,
			specificity: spec,
			rule:        decoded,
		})
	}
	for kind := range buckets {
		bucket := buckets[kind]
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].priority != bucket[j].priority {
				return bucket[i].priority < bucket[j].priority
			}
			return bucket[i].specificity < bucket[j].specificity
		})
	}
	return buckets
}
