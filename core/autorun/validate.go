package autorun

import (
	"context"
	"fmt"
	"sort"

	"github.com/classboard/classboard/core/calendar"
	"github.com/classboard/classboard/core/configstore"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/scope"
)

// Validator applies the acceptance rules for new and edited override rules.
// It consults the configuration store to derive required period counts and
// subject sets.
type Validator struct {
	cfg configstore.Store
}

// NewValidator returns a Validator backed by the given configuration store.
func NewValidator(cfg configstore.Store) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks a decoded rule against its scope. It returns a
// ValidationError or ConfigInconsistencyError when the rule must be rejected.
func (v *Validator) Validate(ctx context.Context, rule model.Rule, scopes []string) error {
	if bad, ok := scope.Validate(scopes); !ok {
		if bad == "" {
			return validationf("scope", "must be a non-empty list")
		}
		return validationf("scope", "malformed declaration %q", bad)
	}
	switch rule.Kind {
	case model.KindCompensation:
		p := rule.Compensation
		if p == nil {
			return validationf("payload", "missing compensation body")
		}
		if err := checkDate("date", p.Date); err != nil {
			return err
		}
		return checkDate("useDate", p.UseDate)
	case model.KindTimetableOverride:
		p := rule.Timetable
		if p == nil {
			return validationf("payload", "missing timetable body")
		}
		if err := checkDate("date", p.Date); err != nil {
			return err
		}
		if p.TimetableID == "" {
			return validationf("timetableId", "must not be empty")
		}
		// Derivation doubles as an existence check for the label across
		// every grade the scope touches.
		_, err := v.requiredPeriodCount(ctx, scopes, p.Date, p.TimetableID)
		return err
	case model.KindScheduleOverride:
		p := rule.Schedule
		if p == nil {
			return validationf("payload", "missing schedule body")
		}
		if err := checkDate("date", p.Date); err != nil {
			return err
		}
		need, err := v.requiredPeriodCount(ctx, scopes, p.Date, "")
		if err != nil {
			return err
		}
		return v.checkPeriods(ctx, p.Periods, need, scopes)
	case model.KindAllOverride:
		p := rule.All
		if p == nil {
			return validationf("payload", "missing combined body")
		}
		if err := checkDate("date", p.Date); err != nil {
			return err
		}
		if p.TimetableID == "" {
			return validationf("timetableId", "must not be empty")
		}
		// The required count follows the target bell schedule, not the
		// one currently assigned to the date.
		need, err := v.requiredPeriodCount(ctx, scopes, p.Date, p.TimetableID)
		if err != nil {
			return err
		}
		return v.checkPeriods(ctx, p.Periods, need, scopes)
	}
	return validationf("kind", "unknown rule kind %d", rule.Kind)
}

func checkDate(field, value string) error {
	if value == "" {
		return validationf(field, "required")
	}
	if _, err := calendar.ParseDate(value); err != nil {
		return validationf(field, "not a calendar date: %q", value)
	}
	return nil
}

// checkPeriods enforces the strict 1..N sequence and subject membership.
// A zero need count means no concrete scope resolved; the sequence is still
// checked but the length is left alone.
func (v *Validator) checkPeriods(ctx context.Context, periods []model.Period, need int, scopes []string) error {
	if len(periods) == 0 {
		return validationf("periods", "must not be empty")
	}
	if need > 0 && len(periods) != need {
		return validationf("periods", "length must be %d", need)
	}
	subjects := subjectSet(ctx, v.cfg, scopes)
	for i, p := range periods {
		if p.No != i+1 {
			return validationf("periods", "no must be the strict sequence 1..%d", len(periods))
		}
		if len(subjects) > 0 {
			if _, ok := subjects[p.Subject]; !ok {
				return validationf("periods", "unknown subject %q", p.Subject)
			}
		}
	}
	return nil
}

// requiredPeriodCount derives the period count the rule must provide. With an
// explicit timetableID the count comes from that label; otherwise from the
// label assigned to the date's weekday in each resolved class schedule.
// Scopes resolving to differing counts are rejected.
func (v *Validator) requiredPeriodCount(ctx context.Context, scopes []string, dateStr, timetableID string) (int, error) {
	paths, err := v.expand(ctx, scopes)
	if err != nil {
		return 0, err
	}
	counts := make(map[int]struct{})
	for _, p := range paths {
		label := timetableID
		if label == "" {
			label, err = v.labelForDate(ctx, p, dateStr)
			if err != nil {
				return 0, err
			}
		}
		doc, err := v.cfg.Timetable(ctx, p.Institution, p.Grade)
		if err != nil {
			return 0, &ConfigInconsistencyError{Reason: fmt.Sprintf("no bell schedules for %s/%s", p.Institution, p.Grade)}
		}
		c := doc.PeriodCount(label)
		if c == 0 {
			return 0, &ConfigInconsistencyError{Reason: fmt.Sprintf("bell schedule %q not configured for %s/%s", label, p.Institution, p.Grade)}
		}
		counts[c] = struct{}{}
	}
	switch len(counts) {
	case 0:
		return 0, nil
	case 1:
		for c := range counts {
			return c, nil
		}
	}
	distinct := make([]int, 0, len(counts))
	for c := range counts {
		distinct = append(distinct, c)
	}
	sort.Ints(distinct)
	return 0, &ConfigInconsistencyError{Reason: "scopes resolve to differing period counts", Counts: distinct}
}

func (v *Validator) expand(ctx context.Context, scopes []string) ([]classPath, error) {
	return expandScope(ctx, v.cfg, scopes)
}

// labelForDate reads the bell-schedule label assigned to the date's weekday
// in the class's base schedule.
func (v *Validator) labelForDate(ctx context.Context, p classPath, dateStr string) (string, error) {
	doc, err := v.cfg.Schedule(ctx, p.Institution, p.Grade, p.Class)
	if err != nil {
		return "", &ConfigInconsistencyError{Reason: fmt.Sprintf("no schedule for %s/%s/%s", p.Institution, p.Grade, p.Class)}
	}
	if len(doc.DailyClass) != 7 {
		return "", &ConfigInconsistencyError{Reason: fmt.Sprintf("schedule for %s/%s/%s does not hold seven days", p.Institution, p.Grade, p.Class)}
	}
	d, err := calendar.ParseDate(dateStr)
	if err != nil {
		return "", validationf("date", "not a calendar date: %q", dateStr)
	}
	label := doc.DailyClass[calendar.WeekdayIndex(d)].Timetable
	if label == "" {
		return "", &ConfigInconsistencyError{Reason: fmt.Sprintf("no bell schedule assigned on %s for %s/%s/%s", dateStr, p.Institution, p.Grade, p.Class)}
	}
	return label, nil
}

// CheckDuplicate scans existing rules of the same kind for one sharing the
// discriminating key: the date, plus the timetable label for kinds that carry
// one. The rule being edited is excluded so an in-place replace never
// conflicts with itself.
func CheckDuplicate(existing []model.OverrideRule, kind model.RuleKind, rule model.Rule, skipID string) error {
	date := rule.Date()
	ttID := rule.TimetableID()
	for _, row := range existing {
		if row.Kind != kind {
			continue
		}
		if skipID != "" && row.ID == skipID {
			continue
		}
		decoded, err := Decode(row.Kind, row.Payload)
		if err != nil {
			continue
		}
		if decoded.Date() != date {
			continue
		}
		if ttID != "" && decoded.TimetableID() != ttID {
			continue
		}
		return &ConflictError{ExistingID: row.ID}
	}
	return nil
}
