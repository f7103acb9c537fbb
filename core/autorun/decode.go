package autorun

import (
	"encoding/json"

	"github.com/classboard/classboard/core/model"
)

// ruleEnvelope tolerates the legacy storage form {"rule": {...}} alongside
// the flat payload.
func unwrapPayload(payload json.RawMessage) json.RawMessage {
	var env struct {
		Rule json.RawMessage `json:"rule"`
	}
	if err := json.Unmarshal(payload, &env); err == nil && len(env.Rule) > 0 {
		return env.Rule
	}
	return payload
}

// Decode parses an opaque rule payload into its kind-specific variant. It
// checks shape only; Validator applies the full acceptance rules.
func Decode(kind model.RuleKind, payload json.RawMessage) (model.Rule, error) {
	raw := unwrapPayload(payload)
	rule := model.Rule{Kind: kind}
	switch kind {
	case model.KindCompensation:
		var p model.CompensationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return rule, validationf("payload", "not a compensation rule: %v", err)
		}
		rule.Compensation = &p
	case model.KindTimetableOverride:
		var p model.TimetablePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return rule, validationf("payload", "not a timetable override: %v", err)
		}
		rule.Timetable = &p
	case model.KindScheduleOverride:
		var p model.SchedulePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return rule, validationf("payload", "not a schedule override: %v", err)
		}
		rule.Schedule = &p
	case model.KindAllOverride:
		var p model.AllPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return rule, validationf("payload", "not a combined override: %v", err)
		}
		rule.All = &p
	default:
		return rule, validationf("kind", "unknown rule kind %d", kind)
	}
	return rule, nil
}

// EncodePayload renders a decoded rule back to its stored wire form.
func EncodePayload(rule model.Rule) (json.RawMessage, error) {
	var body any
	switch rule.Kind {
	case model.KindCompensation:
		body = rule.Compensation
	case model.KindTimetableOverride:
		body = rule.Timetable
	case model.KindScheduleOverride:
		body = rule.Schedule
	case model.KindAllOverride:
		body = rule.All
	default:
		return nil, validationf("kind", "unknown rule kind %d", rule.Kind)
	}
	return json.Marshal(body)
}
