// Package schedule folds the base weekly schedule and the applicable autorun
// rules into the effective schedule for one calendar day. Every stage is a
// pure transformation; the pipeline holds no shared state and can run
// concurrently over store snapshots.
package schedule

import (
	"context"
	"time"

	"github.com/classboard/classboard/core/calendar"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/rulestore"
	"github.com/classboard/classboard/core/scope"
)

// Effective is the resolved per-date schedule consumed by clients. It is
// never persisted; every read rebuilds it.
type Effective struct {
	Label   string         `json:"timetable"`
	Periods []model.Period `json:"periods"`
}

// Resolver applies the resolution pipeline.
type Resolver struct {
	rules rulestore.Store
	log   logger.Logger
	now   func() time.Time
}

// NewResolver returns a Resolver reading rules from the given store.
func NewResolver(rules rulestore.Store, log logger.Logger) *Resolver {
	return &Resolver{rules: rules, log: log, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (r *Resolver) SetClock(now func() time.Time) { r.now = now }

// Resolve computes the effective schedule for date in the given context.
// Malformed rules are skipped with a warning; a schedule read never fails
// because one override rule is broken.
func (r *Resolver) Resolve(ctx context.Context, date time.Time, sctx scope.Context, doc model.ScheduleDoc, tt model.TimetableDoc) (Effective, error) {
	doc, tt = r.normalizeDoc(doc, tt)
	doc = r.fixDayLengths(doc, tt)
	doc = r.resolveRotations(doc, calendar.WeekIndex(tt.Start, date))

	// Lifecycle refresh keeps stored statuses current across day rollover
	// before any status-sensitive consumer reads them.
	if _, err := r.rules.RefreshStatuses(ctx, r.now()); err != nil {
		return Effective{}, err
	}
	rules, err := r.rules.FetchAll(ctx)
	if err != nil {
		return Effective{}, err
	}
	buckets := collectCandidates(rules, date, sctx)

	day := doc.DailyClass[calendar.WeekdayIndex(date)]

	// Compensation: the target day takes over another weekday's plan.
	for _, c := range buckets[model.KindCompensation] {
		use, err := calendar.ParseDate(c.rule.Compensation.UseDate)
		if err != nil {
			r.log.Warnf("compensation rule skipped: bad useDate %q", c.rule.Compensation.UseDate)
			continue
		}
		src := doc.DailyClass[calendar.WeekdayIndex(use)]
		day.ClassList = src.ClassList
		day.Timetable = src.Timetable
	}

	// Bell-schedule replacement.
	for _, c := range buckets[model.KindTimetableOverride] {
		r.applyLabel(&day, tt, c.rule.Timetable.TimetableID)
	}

	// Period-list replacement.
	for _, c := range buckets[model.KindScheduleOverride] {
		day.ClassList = periodsToSlots(c.rule.Schedule.Periods)
	}

	// Combined replacement applies both parts of its payload.
	for _, c := range buckets[model.KindAllOverride] {
		r.applyLabel(&day, tt, c.rule.All.TimetableID)
		day.ClassList = periodsToSlots(c.rule.All.Periods)
	}

	return assemble(day, tt), nil
}

func (r *Resolver) applyLabel(day *model.DayPlan, tt model.TimetableDoc, label string) {
	if tt.PeriodCount(label) == 0 {
		r.log.Warnf("timetable override skipped: unknown bell schedule %q", label)
		return
	}
	day.Timetable = label
}

func periodsToSlots(periods []model.Period) []model.Rotation {
	slots := make([]model.Rotation, len(periods))
	for i, p := range periods {
		slots[i] = model.Rotation{p.Subject}
	}
	return slots
}

// assemble maps the day's resolved subjects onto the period indices of its
// bell schedule. Indices past the subject list fall back to the placeholder.
func assemble(day model.DayPlan, tt model.TimetableDoc) Effective {
	count := tt.PeriodCount(day.Timetable)
	periods := make([]model.Period, 0, count)
	for idx := 0; idx < count; idx++ {
		subject := model.PlaceholderSubject
		if idx < len(day.ClassList) {
			subject = day.ClassList[idx].Pick(0)
		}
		periods = append(periods, model.Period{No: idx + 1, Subject: subject})
	}
	return Effective{Label: day.Timetable, Periods: periods}
}
