// Package metrics defines the statistics sink interface fed by the service.
// Implementations live under infra/metrics.
package metrics

import "time"

// RuleMutationEvent records an override-rule create, edit or delete.
type RuleMutationEvent struct {
	RuleID string
	Kind   string
	Action string
	Time   time.Time
}

// ResolutionEvent records one effective-schedule computation.
type ResolutionEvent struct {
	Institution string
	Grade       string
	Class       string
	Date        string
	Periods     int
	Time        time.Time
}

// DisconnectEvent records a display client disconnect.
type DisconnectEvent struct {
	Institution string
	Grade       string
	Class       string
	Abnormal    bool
	Time        time.Time
}

// Sink receives statistics events. Implementations must be safe for
// concurrent use; recording must never block request handling for long.
type Sink interface {
	RecordRuleMutation(ev RuleMutationEvent) error
	RecordResolution(ev ResolutionEvent) error
	RecordDisconnect(ev DisconnectEvent) error
	RecordWeatherError(location string) error
	RecordConnectedClients(count int) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordRuleMutation(RuleMutationEvent) error { return nil }
func (NopSink) RecordResolution(ResolutionEvent) error     { return nil }
func (NopSink) RecordDisconnect(DisconnectEvent) error     { return nil }
func (NopSink) RecordWeatherError(string) error            { return nil }
func (NopSink) RecordConnectedClients(int) error           { return nil }
