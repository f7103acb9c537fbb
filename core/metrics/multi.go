package metrics

import "errors"

// MultiSink fans every event out to several sinks, joining their errors so
// one failing backend never hides the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink { return &MultiSink{sinks: sinks} }

func (m *MultiSink) each(f func(Sink) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := f(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordRuleMutation(ev RuleMutationEvent) error {
	return m.each(func(s Sink) error { return s.RecordRuleMutation(ev) })
}

func (m *MultiSink) RecordResolution(ev ResolutionEvent) error {
	return m.each(func(s Sink) error { return s.RecordResolution(ev) })
}

func (m *MultiSink) RecordDisconnect(ev DisconnectEvent) error {
	return m.each(func(s Sink) error { return s.RecordDisconnect(ev) })
}

func (m *MultiSink) RecordWeatherError(location string) error {
	return m.each(func(s Sink) error { return s.RecordWeatherError(location) })
}

func (m *MultiSink) RecordConnectedClients(count int) error {
	return m.each(func(s Sink) error { return s.RecordConnectedClients(count) })
}
