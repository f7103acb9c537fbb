package autorun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/infra/configdir"
	infralogger "github.com/classboard/classboard/infra/logger"
)

// newTestStore seeds two grades: grade1 runs two-period workdays, grade2
// three-period ones. 2026-03-04 is a Wednesday.
func newTestStore(t *testing.T) *configdir.Store {
	t.Helper()
	cfg, err := configdir.New(t.TempDir(), infralogger.NopLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	for grade, periods := range map[string]map[string]any{
		"grade1": {"08:00-08:45": 0, "08:55-09:40": 1},
		"grade2": {"08:00-08:45": 0, "08:55-09:40": 1, "10:00-10:45": 2},
	} {
		require.NoError(t, cfg.PutSubjects(ctx, "central", grade, model.SubjectsDoc{
			SubjectName: map[string]string{"M": "Math", "E": "English"},
		}))
		require.NoError(t, cfg.PutTimetable(ctx, "central", grade, model.TimetableDoc{
			Timetable: map[string]map[string]any{"workday": periods},
			Start:     "2026-03-02",
		}))
		doc := model.DefaultScheduleDoc()
		for i := range doc.DailyClass {
			doc.DailyClass[i].Timetable = "workday"
		}
		require.NoError(t, cfg.PutSchedule(ctx, "central", grade, "class1", doc))
	}
	return cfg
}

func scheduleRule(date string, periods ...model.Period) model.Rule {
	return model.Rule{
		Kind:     model.KindScheduleOverride,
		Schedule: &model.SchedulePayload{Date: date, Periods: periods},
	}
}

func TestValidateScheduleOverride(t *testing.T) {
	v := NewValidator(newTestStore(t))
	ctx := context.Background()

	err := v.Validate(ctx, scheduleRule("2026-03-04",
		model.Period{No: 1, Subject: "M"}, model.Period{No: 2, Subject: "E"}),
		[]string{"central/grade1/class1"})
	assert.NoError(t, err)
}

func TestValidateRejectsWrongPeriodCount(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), scheduleRule("2026-03-04",
		model.Period{No: 1, Subject: "M"}),
		[]string{"central/grade1/class1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "periods", verr.Field)
	assert.Contains(t, verr.Reason, "length must be 2")
}

func TestValidateRejectsUnknownSubject(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), scheduleRule("2026-03-04",
		model.Period{No: 1, Subject: "X"}, model.Period{No: 2, Subject: "E"}),
		[]string{"central/grade1/class1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "unknown subject")
}

func TestValidateRejectsNonSequentialNumbers(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), scheduleRule("2026-03-04",
		model.Period{No: 2, Subject: "M"}, model.Period{No: 1, Subject: "E"}),
		[]string{"central/grade1/class1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "strict sequence")
}

func TestValidateRejectsInconsistentCounts(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), scheduleRule("2026-03-04",
		model.Period{No: 1, Subject: "M"}, model.Period{No: 2, Subject: "E"}),
		[]string{"central/grade1/class1", "central/grade2/class1"})
	var cerr *ConfigInconsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []int{2, 3}, cerr.Counts)
}

func TestValidateRejectsUnknownBellLabel(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), model.Rule{
		Kind:      model.KindTimetableOverride,
		Timetable: &model.TimetablePayload{Date: "2026-03-04", TimetableID: "exam"},
	}, []string{"central/grade1/class1"})
	var cerr *ConfigInconsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Reason, `"exam" not configured`)
}

func TestValidateRejectsBadDate(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), model.Rule{
		Kind:         model.KindCompensation,
		Compensation: &model.CompensationPayload{Date: "bogus", UseDate: "2026-03-04"},
	}, []string{"ALL"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestValidateRejectsBadScope(t *testing.T) {
	v := NewValidator(newTestStore(t))

	err := v.Validate(context.Background(), model.Rule{
		Kind:         model.KindCompensation,
		Compensation: &model.CompensationPayload{Date: "2026-02-20", UseDate: "2026-02-15"},
	}, []string{"a/b/c/d"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "scope", verr.Field)
}

func TestCheckDuplicateExcludesSelf(t *testing.T) {
	payload := []byte(`{"date":"2026-03-04","periods":[{"no":1,"subject":"M"}]}`)
	existing := []model.OverrideRule{{
		ID:      "abc123",
		Kind:    model.KindScheduleOverride,
		Payload: payload,
	}}
	rule, err := Decode(model.KindScheduleOverride, payload)
	require.NoError(t, err)

	err = CheckDuplicate(existing, model.KindScheduleOverride, rule, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "abc123", conflict.ExistingID)

	assert.NoError(t, CheckDuplicate(existing, model.KindScheduleOverride, rule, "abc123"))
}
