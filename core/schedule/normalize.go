package schedule

import (
	"github.com/classboard/classboard/core/model"
)

// normalizeDoc repairs a base schedule document in place of rejecting it.
// A daily_class section that does not hold exactly seven days is replaced
// wholesale with the default week; missing bell schedules get the fallback
// single-period document.
func (r *Resolver) normalizeDoc(doc model.ScheduleDoc, tt model.TimetableDoc) (model.ScheduleDoc, model.TimetableDoc) {
	if len(doc.DailyClass) != 7 {
		r.log.Warnf("daily_class holds %d entries instead of 7, substituting defaults", len(doc.DailyClass))
		doc = model.DefaultScheduleDoc()
	}
	if len(tt.Timetable) == 0 {
		r.log.Warnf("no bell schedules configured, substituting default %q", model.DefaultTimetableLabel)
		tt = model.DefaultTimetableDoc()
	}
	for i := range doc.DailyClass {
		if doc.DailyClass[i].Timetable == "" || tt.PeriodCount(doc.DailyClass[i].Timetable) == 0 {
			r.log.Warnf("day %d references unknown bell schedule %q, patching", i, doc.DailyClass[i].Timetable)
			doc.DailyClass[i].Timetable = anyLabel(tt)
		}
	}
	return doc, tt
}

func anyLabel(tt model.TimetableDoc) string {
	best := ""
	for label := range tt.Timetable {
		if best == "" || label < best {
			best = label
		}
	}
	if best == "" {
		return model.DefaultTimetableLabel
	}
	return best
}

// fixDayLengths reconciles each day's period list with the period count of
// its bell schedule: too long is truncated, too short padded with the
// placeholder subject.
func (r *Resolver) fixDayLengths(doc model.ScheduleDoc, tt model.TimetableDoc) model.ScheduleDoc {
	for i, day := range doc.DailyClass {
		need := tt.PeriodCount(day.Timetable)
		if need == 0 || len(day.ClassList) == need {
			continue
		}
		r.log.Warnf("day %d has %d periods but bell schedule %q holds %d, repairing",
			i, len(day.ClassList), day.Timetable, need)
		if len(day.ClassList) > need {
			doc.DailyClass[i].ClassList = day.ClassList[:need]
			continue
		}
		for len(doc.DailyClass[i].ClassList) < need {
			doc.DailyClass[i].ClassList = append(doc.DailyClass[i].ClassList, model.Rotation{model.PlaceholderSubject})
		}
	}
	return doc
}

// NormalizeForEdit prepares a stored schedule document for the editing UI.
// Unknown bell-schedule labels are patched to an existing one and every day
// is padded to the tallest bell schedule with the placeholder subject, so the
// editor always sees a full grid.
func NormalizeForEdit(doc model.ScheduleDoc, tt model.TimetableDoc) model.ScheduleDoc {
	if len(tt.Timetable) == 0 {
		tt = model.DefaultTimetableDoc()
	}
	maxNeed := tt.MaxPeriodCount()
	for i := range doc.DailyClass {
		if doc.DailyClass[i].Timetable == "" || tt.PeriodCount(doc.DailyClass[i].Timetable) == 0 {
			doc.DailyClass[i].Timetable = anyLabel(tt)
		}
		for len(doc.DailyClass[i].ClassList) < maxNeed {
			doc.DailyClass[i].ClassList = append(doc.DailyClass[i].ClassList, model.Rotation{model.PlaceholderSubject})
		}
	}
	return doc
}

// Repair reconciles a submitted schedule document with the grade's bell
// schedules before persisting it, the same repair the resolver applies on
// read.
func (r *Resolver) Repair(doc model.ScheduleDoc, tt model.TimetableDoc) model.ScheduleDoc {
	doc, tt = r.normalizeDoc(doc, tt)
	return r.fixDayLengths(doc, tt)
}

// resolveRotations replaces every alternation slot with the entry selected by
// the week index, leaving plain slots untouched.
func (r *Resolver) resolveRotations(doc model.ScheduleDoc, weekIndex int) model.ScheduleDoc {
	for i, day := range doc.DailyClass {
		for j, slot := range day.ClassList {
			if len(slot) > 1 {
				picked := slot.Pick(weekIndex)
				r.log.Debugf("week %d rotation %v -> %s", weekIndex+1, []string(slot), picked)
				doc.DailyClass[i].ClassList[j] = model.Rotation{picked}
			}
		}
	}
	return doc
}
