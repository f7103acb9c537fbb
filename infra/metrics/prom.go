package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/classboard/classboard/core/metrics"
)

// PromSink mirrors statistics events into Prometheus metrics.
type PromSink struct {
	mutations   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	disconnects *prometheus.CounterVec
	weather     *prometheus.CounterVec
	clients     prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using the configured port.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "override_rule_mutations_total",
		Help: "Total number of override rule creates, edits and deletes",
	}, []string{"kind", "action"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_resolutions_total",
		Help: "Total number of effective-schedule computations",
	}, []string{"institution", "grade"})
	disconnects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "client_disconnects_total",
		Help: "Total number of display client disconnects",
	}, []string{"institution", "grade", "abnormal"})
	weather := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_lookup_errors_total",
		Help: "Total number of failed upstream weather lookups",
	}, []string{"location"})
	clients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "connected_clients",
		Help: "Number of live display connections",
	})

	if err := reg.Register(mutations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			mutations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(resolutions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			resolutions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(disconnects); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			disconnects = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(weather); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			weather = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(clients); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			clients = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		mutations:   mutations,
		resolutions: resolutions,
		disconnects: disconnects,
		weather:     weather,
		clients:     clients,
	}, nil
}

func (s *PromSink) RecordRuleMutation(ev coremetrics.RuleMutationEvent) error {
	s.mutations.WithLabelValues(ev.Kind, ev.Action).Inc()
	return nil
}

func (s *PromSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	s.resolutions.WithLabelValues(ev.Institution, ev.Grade).Inc()
	return nil
}

func (s *PromSink) RecordDisconnect(ev coremetrics.DisconnectEvent) error {
	s.disconnects.WithLabelValues(ev.Institution, ev.Grade, strconv.FormatBool(ev.Abnormal)).Inc()
	return nil
}

func (s *PromSink) RecordWeatherError(location string) error {
	s.weather.WithLabelValues(location).Inc()
	return nil
}

func (s *PromSink) RecordConnectedClients(count int) error {
	s.clients.Set(float64(count))
	return nil
}
