package configdir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard/core/configstore"
	"github.com/classboard/classboard/core/model"
	infralogger "github.com/classboard/classboard/infra/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), infralogger.NopLogger{})
	require.NoError(t, err)
	return s
}

func TestSubjectsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := model.SubjectsDoc{SubjectName: map[string]string{"M": "Math", "E": "English"}}
	require.NoError(t, s.PutSubjects(ctx, "central", "grade1", doc))

	got, err := s.Subjects(ctx, "central", "grade1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestMissingDocumentIsNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Timetable(context.Background(), "central", "grade1")
	assert.True(t, errors.Is(err, configstore.ErrNotFound))
}

func TestPathTraversalRejected(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Subjects(context.Background(), "..", "grade1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, configstore.ErrNotFound))
}

func TestRawMergedLaterDocumentsWin(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSubjects(ctx, "central", "grade1", model.SubjectsDoc{
		SubjectName: map[string]string{"课": "Placeholder"},
	}))
	require.NoError(t, s.PutTimetable(ctx, "central", "grade1", model.DefaultTimetableDoc()))
	require.NoError(t, s.PutSettings(ctx, "central", "grade1", "class1", model.DefaultSettingsDoc()))
	require.NoError(t, s.PutSchedule(ctx, "central", "grade1", "class1", model.DefaultScheduleDoc()))

	merged, err := s.RawMerged(ctx, "central", "grade1", "class1")
	require.NoError(t, err)

	assert.Contains(t, merged, "subject_name")
	assert.Contains(t, merged, "timetable")
	assert.Contains(t, merged, "css_style")
	assert.Contains(t, merged, "daily_class")
}

func TestRawMergedMissingPieceFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSubjects(ctx, "central", "grade1", model.DefaultSubjectsDoc()))

	_, err := s.RawMerged(ctx, "central", "grade1", "class1")
	assert.True(t, errors.Is(err, configstore.ErrNotFound))
}

func TestDiscoveryListsDirectoriesOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSchedule(ctx, "central", "grade1", "class2", model.DefaultScheduleDoc()))
	require.NoError(t, s.PutSchedule(ctx, "central", "grade1", "class1", model.DefaultScheduleDoc()))
	require.NoError(t, s.PutSchedule(ctx, "branch", "grade3", "class1", model.DefaultScheduleDoc()))

	// A stray file at the root must not show up as an institution.
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "notes.txt"), []byte("x"), 0o644))

	insts, err := s.Institutions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"branch", "central"}, insts)

	classes, err := s.Classes(ctx, "central", "grade1")
	require.NoError(t, err)
	assert.Equal(t, []string{"class1", "class2"}, classes)

	empty, err := s.Grades(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWriteReplacesAtomically(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := model.ScheduleDoc{DailyClass: model.DefaultScheduleDoc().DailyClass, Start: "2026-02-09"}
	require.NoError(t, s.PutSchedule(ctx, "central", "grade1", "class1", first))

	second := first
	second.Start = "2026-03-02"
	require.NoError(t, s.PutSchedule(ctx, "central", "grade1", "class1", second))

	got, err := s.Schedule(ctx, "central", "grade1", "class1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", got.Start)

	// No temp file left behind.
	_, err = os.Stat(filepath.Join(s.Root(), "central", "grade1", "class1", "schedule.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}
