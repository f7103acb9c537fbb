// Package scope parses rule scope declarations and matches them against a
// concrete (institution, grade, class) context. Declarations are parsed once
// at the boundary; matching never re-splits strings.
package scope

import "strings"

// NoMatch is returned when a declaration does not apply to a context.
const NoMatch = -1

// Context is the concrete target a rule is matched against. Class may be
// empty, in which case three-segment declarations never match.
type Context struct {
	Institution string
	Grade       string
	Class       string
}

func (c Context) segments() []string {
	segs := []string{c.Institution, c.Grade}
	if c.Class != "" {
		segs = append(segs, c.Class)
	}
	return segs
}

// Level is the shape of a parsed declaration.
type Level int

const (
	LevelInvalid Level = iota - 1
	LevelAll
	LevelInstitution
	LevelInstitutionGrade
	LevelInstitutionGradeClass
)

// Decl is a parsed scope declaration.
type Decl struct {
	level Level
	parts []string
}

// Parse interprets a raw declaration string. "ALL" (case-insensitive) matches
// everything; otherwise the string is 1-3 path segments, none empty.
func Parse(raw string) Decl {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Decl{level: LevelInvalid}
	}
	if strings.EqualFold(s, "ALL") {
		return Decl{level: LevelAll}
	}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return Decl{level: LevelInvalid}
	}
	for _, p := range parts {
		if p == "" {
			return Decl{level: LevelInvalid}
		}
	}
	return Decl{level: Level(len(parts)), parts: parts}
}

// Level returns the parsed shape.
func (d Decl) Level() Level { return d.level }

// Parts returns the path segments of a non-ALL declaration.
func (d Decl) Parts() []string { return d.parts }

// Specificity returns the number of matched segments, 0 for ALL, or NoMatch.
// A declaration with more segments than the context provides cannot match.
func (d Decl) Specificity(ctx Context) int {
	switch d.level {
	case LevelInvalid:
		return NoMatch
	case LevelAll:
		return 0
	}
	segs := ctx.segments()
	if len(d.parts) > len(segs) {
		return NoMatch
	}
	for i, p := range d.parts {
		if p != segs[i] {
			return NoMatch
		}
	}
	return len(d.parts)
}

// Best returns the maximum specificity of any declaration in the scope set,
// or NoMatch when none applies. A rule targeting several disjoint scopes
// therefore matches with its narrowest applicable declaration.
func Best(scope []string, ctx Context) int {
	best := NoMatch
	for _, raw := range scope {
		if spec := Parse(raw).Specificity(ctx); spec > best {
			best = spec
		}
	}
	return best
}

// Validate reports whether every declaration in the set parses. The first
// offending raw string is returned for error reporting.
func Validate(scope []string) (string, bool) {
	if len(scope) == 0 {
		return "", false
	}
	for _, raw := range scope {
		if Parse(raw).Level() == LevelInvalid {
			return raw, false
		}
	}
	return "", true
}
