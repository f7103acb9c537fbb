// Package configstore defines the schedule configuration store consumed by
// the rule validator and the resolution pipeline. Implementations read and
// write whole JSON documents addressed by (institution, grade[, class]).
package configstore

import (
	"context"
	"errors"

	"github.com/classboard/classboard/core/model"
)

// ErrNotFound is returned when an addressed document does not exist.
var ErrNotFound = errors.New("configstore: document not found")

// Store provides whole-document access to the static schedule configuration.
type Store interface {
	Subjects(ctx context.Context, institution, grade string) (model.SubjectsDoc, error)
	PutSubjects(ctx context.Context, institution, grade string, doc model.SubjectsDoc) error

	Timetable(ctx context.Context, institution, grade string) (model.TimetableDoc, error)
	PutTimetable(ctx context.Context, institution, grade string, doc model.TimetableDoc) error

	Schedule(ctx context.Context, institution, grade, class string) (model.ScheduleDoc, error)
	PutSchedule(ctx context.Context, institution, grade, class string, doc model.ScheduleDoc) error

	Settings(ctx context.Context, institution, grade, class string) (model.SettingsDoc, error)
	PutSettings(ctx context.Context, institution, grade, class string, doc model.SettingsDoc) error

	// RawMerged returns the four documents of a class merged into one JSON
	// object, the shape served to display clients.
	RawMerged(ctx context.Context, institution, grade, class string) (map[string]any, error)

	Discovery
}

// Discovery enumerates the configured institution tree.
type Discovery interface {
	Institutions(ctx context.Context) ([]string, error)
	Grades(ctx context.Context, institution string) ([]string, error)
	Classes(ctx context.Context, institution, grade string) ([]string, error)
}
