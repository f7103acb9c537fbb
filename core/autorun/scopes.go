package autorun

import (
	"context"

	"github.com/classboard/classboard/core/configstore"
	"github.com/classboard/classboard/core/scope"
)

// classPath is one concrete (institution, grade, class) a scope resolves to.
type classPath struct {
	Institution string
	Grade       string
	Class       string
}

// expandScope resolves scope declarations to representative concrete class
// paths for period-count derivation. A full declaration names its class
// directly; broader declarations pick the first configured class below them,
// since every class of a grade shares the grade's bell schedules.
func expandScope(ctx context.Context, cfg configstore.Store, scopes []string) ([]classPath, error) {
	var out []classPath
	seen := make(map[classPath]struct{})
	add := func(p classPath) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, raw := range scopes {
		decl := scope.Parse(raw)
		switch decl.Level() {
		case scope.LevelInstitutionGradeClass:
			parts := decl.Parts()
			add(classPath{parts[0], parts[1], parts[2]})
		case scope.LevelInstitutionGrade:
			parts := decl.Parts()
			if cls, ok := firstClass(ctx, cfg, parts[0], parts[1]); ok {
				add(classPath{parts[0], parts[1], cls})
			}
		case scope.LevelInstitution:
			if p, ok := firstClassOfInstitution(ctx, cfg, decl.Parts()[0]); ok {
				add(p)
			}
		case scope.LevelAll:
			insts, err := cfg.Institutions(ctx)
			if err != nil {
				return nil, err
			}
			for _, inst := range insts {
				if p, ok := firstClassOfInstitution(ctx, cfg, inst); ok {
					add(p)
				}
			}
		}
	}
	return out, nil
}

func firstClass(ctx context.Context, cfg configstore.Store, institution, grade string) (string, bool) {
	classes, err := cfg.Classes(ctx, institution, grade)
	if err != nil || len(classes) == 0 {
		return "", false
	}
	return classes[0], true
}

func firstClassOfInstitution(ctx context.Context, cfg configstore.Store, institution string) (classPath, bool) {
	grades, err := cfg.Grades(ctx, institution)
	if err != nil || len(grades) == 0 {
		return classPath{}, false
	}
	grade := grades[0]
	cls, ok := firstClass(ctx, cfg, institution, grade)
	if !ok {
		return classPath{}, false
	}
	return classPath{institution, grade, cls}, true
}

// subjectSet collects the subject abbreviations configured for every
// (institution, grade) pair a scope touches. An empty set disables subject
// membership validation.
func subjectSet(ctx context.Context, cfg configstore.Store, scopes []string) map[string]struct{} {
	set := make(map[string]struct{})
	type pair struct{ inst, grade string }
	seen := make(map[pair]struct{})
	for _, raw := range scopes {
		decl := scope.Parse(raw)
		parts := decl.Parts()
		if len(parts) < 2 {
			continue
		}
		p := pair{parts[0], parts[1]}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		doc, err := cfg.Subjects(ctx, p.inst, p.grade)
		if err != nil {
			continue
		}
		for abbr := range doc.SubjectName {
			set[abbr] = struct{}{}
		}
	}
	return set
}

// NotifyKey identifies one live-connection group.
type NotifyKey struct {
	Institution string
	Grade       string
}

// NotifyTargets resolves scope declarations to the connection groups that
// must be told about a change. Registered keys resolve ALL and single-segment
// declarations; grade-level declarations target their group directly, whether
// or not it is currently connected.
func NotifyTargets(scopes []string, registered []NotifyKey) []NotifyKey {
	targets := make(map[NotifyKey]struct{})
	for _, raw := range scopes {
		decl := scope.Parse(raw)
		switch decl.Level() {
		case scope.LevelAll:
			for _, k := range registered {
				targets[k] = struct{}{}
			}
		case scope.LevelInstitution:
			inst := decl.Parts()[0]
			for _, k := range registered {
				if k.Institution == inst {
					targets[k] = struct{}{}
				}
			}
		case scope.LevelInstitutionGrade, scope.LevelInstitutionGradeClass:
			parts := decl.Parts()
			targets[NotifyKey{Institution: parts[0], Grade: parts[1]}] = struct{}{}
		}
	}
	out := make([]NotifyKey, 0, len(targets))
	for k := range targets {
		out = append(out, k)
	}
	return out
}
