package autorun

import (
	"encoding/json"
	"time"

	"github.com/classboard/classboard/core/calendar"
	"github.com/classboard/classboard/core/model"
)

// StatusFor classifies a rule date against the current day. Dates that fail
// to parse classify as pending so a broken rule never blocks listing.
func StatusFor(dateStr string, today time.Time) model.RuleStatus {
	d, err := calendar.ParseDate(dateStr)
	if err != nil {
		return model.StatusPending
	}
	ty, tm, td := today.Date()
	dy, dm, dd := d.Date()
	switch {
	case ty < dy || (ty == dy && (tm < dm || (tm == dm && td < dd))):
		return model.StatusPending
	case ty == dy && tm == dm && td == dd:
		return model.StatusActive
	default:
		return model.StatusExpired
	}
}

// DeriveStatus classifies a stored rule row from its raw payload.
func DeriveStatus(kind model.RuleKind, payload json.RawMessage, today time.Time) model.RuleStatus {
	if !kind.Valid() {
		return model.StatusPending
	}
	rule, err := Decode(kind, payload)
	if err != nil {
		return model.StatusPending
	}
	return StatusFor(rule.Date(), today)
}
