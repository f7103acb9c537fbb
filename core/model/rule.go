package model

import "encoding/json"

// RuleKind identifies the autorun rule variant. The numeric values match the
// legacy records table so existing databases keep working.
type RuleKind int

const (
	KindCompensation RuleKind = iota
	KindTimetableOverride
	KindScheduleOverride
	KindAllOverride
)

// String returns the API-facing name of the kind.
func (k RuleKind) String() string {
	switch k {
	case KindCompensation:
		return "Compensation"
	case KindTimetableOverride:
		return "TimetableOverride"
	case KindScheduleOverride:
		return "ScheduleOverride"
	case KindAllOverride:
		return "AllOverride"
	}
	return "Unknown"
}

// Valid reports whether k is one of the four known kinds.
func (k RuleKind) Valid() bool { return k >= KindCompensation && k <= KindAllOverride }

// RuleStatus is the temporal lifecycle state of a rule. It is derived from
// the rule's date and never authoritative; consumers refresh it before reading.
type RuleStatus int

const (
	StatusPending RuleStatus = iota
	StatusActive
	StatusExpired
)

func (s RuleStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// OverrideRule is a persisted autorun rule. Payload stays in its wire form
// here; core/autorun decodes it once per kind at the boundary.
type OverrideRule struct {
	ID       string
	Kind     RuleKind
	Scope    []string
	Priority int
	Payload  json.RawMessage
	Status   RuleStatus
}

// Period is one entry of an effective daily schedule.
type Period struct {
	No      int    `json:"no" validate:"required,min=1"`
	Subject string `json:"subject" validate:"required"`
}

// CompensationPayload swaps the target date for another weekday's plan.
type CompensationPayload struct {
	Date    string `json:"date"`
	UseDate string `json:"useDate"`
}

// TimetablePayload replaces the bell-schedule label for one date.
type TimetablePayload struct {
	Date        string `json:"date"`
	TimetableID string `json:"timetableId"`
}

// SchedulePayload replaces the period list for one date.
type SchedulePayload struct {
	Date    string   `json:"date"`
	Periods []Period `json:"periods"`
}

// AllPayload combines a bell-schedule replacement and a period list.
type AllPayload struct {
	Date        string   `json:"date"`
	TimetableID string   `json:"timetableId"`
	Periods     []Period `json:"periods"`
}

// Rule is the decoded payload union. Exactly one field matching the kind is
// populated.
type Rule struct {
	Kind         RuleKind
	Compensation *CompensationPayload
	Timetable    *TimetablePayload
	Schedule     *SchedulePayload
	All          *AllPayload
}

// Date returns the effective calendar date string of the decoded rule.
func (r Rule) Date() string {
	switch r.Kind {
	case KindCompensation:
		if r.Compensation != nil {
			return r.Compensation.Date
		}
	case KindTimetableOverride:
		if r.Timetable != nil {
			return r.Timetable.Date
		}
	case KindScheduleOverride:
		if r.Schedule != nil {
			return r.Schedule.Date
		}
	case KindAllOverride:
		if r.All != nil {
			return r.All.Date
		}
	}
	return ""
}

// TimetableID returns the target bell-schedule label, or "" for kinds
// without one.
func (r Rule) TimetableID() string {
	switch r.Kind {
	case KindTimetableOverride:
		if r.Timetable != nil {
			return r.Timetable.TimetableID
		}
	case KindAllOverride:
		if r.All != nil {
			return r.All.TimetableID
		}
	}
	return ""
}
