// Package configdir implements the schedule configuration store over a
// directory tree of JSON documents:
//
//	<root>/<institution>/<grade>/subjects.json
//	<root>/<institution>/<grade>/timetable.json
//	<root>/<institution>/<grade>/<class>/config.json
//	<root>/<institution>/<grade>/<class>/schedule.json
//
// Documents are read and written whole; writes go through a temp file and
// rename so a crashed write never leaves a half document behind.
package configdir

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/classboard/classboard/core/configstore"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/model"
)

// Store serves configuration documents from a data directory.
type Store struct {
	root string
	log  logger.Logger
}

var _ configstore.Store = (*Store)(nil)

// New returns a Store rooted at dir, creating it when absent.
func New(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{root: dir, log: log}, nil
}

// Root returns the data directory path.
func (s *Store) Root() string { return s.root }

func (s *Store) path(parts ...string) (string, error) {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) {
			return "", fmt.Errorf("configdir: invalid path segment %q", p)
		}
	}
	return filepath.Join(append([]string{s.root}, parts...)...), nil
}

func (s *Store) readJSON(parts []string, out any) error {
	p, err := s.path(parts...)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", configstore.ErrNotFound, filepath.Join(parts...))
		}
		return fmt.Errorf("read %s: %w", p, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", p, err)
	}
	return nil
}

func (s *Store) writeJSON(parts []string, doc any) error {
	p, err := s.path(parts...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p), err)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("replace %s: %w", p, err)
	}
	return nil
}

func (s *Store) Subjects(_ context.Context, institution, grade string) (model.SubjectsDoc, error) {
	var doc model.SubjectsDoc
	err := s.readJSON([]string{institution, grade, "subjects.json"}, &doc)
	return doc, err
}

func (s *Store) PutSubjects(_ context.Context, institution, grade string, doc model.SubjectsDoc) error {
	return s.writeJSON([]string{institution, grade, "subjects.json"}, doc)
}

func (s *Store) Timetable(_ context.Context, institution, grade string) (model.TimetableDoc, error) {
	var doc model.TimetableDoc
	err := s.readJSON([]string{institution, grade, "timetable.json"}, &doc)
	return doc, err
}

func (s *Store) PutTimetable(_ context.Context, institution, grade string, doc model.TimetableDoc) error {
	return s.writeJSON([]string{institution, grade, "timetable.json"}, doc)
}

func (s *Store) Schedule(_ context.Context, institution, grade, class string) (model.ScheduleDoc, error) {
	var doc model.ScheduleDoc
	err := s.readJSON([]string{institution, grade, class, "schedule.json"}, &doc)
	return doc, err
}

func (s *Store) PutSchedule(_ context.Context, institution, grade, class string, doc model.ScheduleDoc) error {
	return s.writeJSON([]string{institution, grade, class, "schedule.json"}, doc)
}

func (s *Store) Settings(_ context.Context, institution, grade, class string) (model.SettingsDoc, error) {
	var doc model.SettingsDoc
	err := s.readJSON([]string{institution, grade, class, "config.json"}, &doc)
	return doc, err
}

func (s *Store) PutSettings(_ context.Context, institution, grade, class string, doc model.SettingsDoc) error {
	return s.writeJSON([]string{institution, grade, class, "config.json"}, doc)
}

// RawMerged combines the four documents of a class into the single object
// served to display clients. Later documents win on key collisions, matching
// the legacy merge order.
func (s *Store) RawMerged(_ context.Context, institution, grade, class string) (map[string]any, error) {
	merged := make(map[string]any)
	files := [][]string{
		{institution, grade, "subjects.json"},
		{institution, grade, "timetable.json"},
		{institution, grade, class, "config.json"},
		{institution, grade, class, "schedule.json"},
	}
	for _, parts := range files {
		var doc map[string]any
		if err := s.readJSON(parts, &doc); err != nil {
			return nil, err
		}
		for k, v := range doc {
			merged[k] = v
		}
	}
	return merged, nil
}

func (s *Store) listDirs(parts ...string) ([]string, error) {
	p, err := s.path(parts...)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Institutions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Grades(_ context.Context, institution string) ([]string, error) {
	return s.listDirs(institution)
}

func (s *Store) Classes(_ context.Context, institution, grade string) ([]string, error) {
	return s.listDirs(institution, grade)
}
