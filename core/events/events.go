// Package events defines the in-process events published on the event bus.
package events

// RuleChanged is published after an override rule is created, edited or
// deleted. Scope carries the rule's declarations so the notifier can resolve
// the affected connection groups.
type RuleChanged struct {
	RuleID string
	Kind   string
	Action string
	Scope  []string
}

// ConfigChanged is published after a configuration document write for one
// grade (subjects, bell schedules) or class (schedule, settings).
type ConfigChanged struct {
	Institution string
	Grade       string
}

// ClientDisconnected is published when a display connection closes. Abnormal
// marks disconnects that happened before the class day ended.
type ClientDisconnected struct {
	Institution string
	Grade       string
	Class       string
	Abnormal    bool
}

// WeatherLookupFailed is published when the upstream weather API could not be
// reached within the retry budget.
type WeatherLookupFailed struct {
	Location string
}
