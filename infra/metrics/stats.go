package metrics

import (
	"fmt"
	"sync"

	coremetrics "github.com/classboard/classboard/core/metrics"
)

// Snapshot is the JSON shape of the statistics endpoint.
type Snapshot struct {
	WeatherErrors       int            `json:"weather_error"`
	AbnormalDisconnects map[string]int `json:"abnormal_disconnect"`
	RuleMutations       int            `json:"rule_mutations"`
	Resolutions         int            `json:"resolutions"`
	ConnectedClients    int            `json:"connected_clients"`
}

// StatsSink keeps in-process counters backing the statistics endpoint.
// Counters reset at midnight; the connected-client gauge survives resets.
type StatsSink struct {
	mu        sync.Mutex
	weather   int
	abnormal  map[string]int
	mutations int
	resolved  int
	clients   int
}

var _ coremetrics.Sink = (*StatsSink)(nil)

// NewStatsSink returns an empty sink.
func NewStatsSink() *StatsSink {
	return &StatsSink{abnormal: make(map[string]int)}
}

func (s *StatsSink) RecordRuleMutation(coremetrics.RuleMutationEvent) error {
	s.mu.Lock()
	s.mutations++
	s.mu.Unlock()
	return nil
}

func (s *StatsSink) RecordResolution(coremetrics.ResolutionEvent) error {
	s.mu.Lock()
	s.resolved++
	s.mu.Unlock()
	return nil
}

func (s *StatsSink) RecordDisconnect(ev coremetrics.DisconnectEvent) error {
	if !ev.Abnormal {
		return nil
	}
	key := fmt.Sprintf("%s/%s/%s", ev.Institution, ev.Grade, ev.Class)
	s.mu.Lock()
	s.abnormal[key]++
	s.mu.Unlock()
	return nil
}

func (s *StatsSink) RecordWeatherError(string) error {
	s.mu.Lock()
	s.weather++
	s.mu.Unlock()
	return nil
}

func (s *StatsSink) RecordConnectedClients(count int) error {
	s.mu.Lock()
	s.clients = count
	s.mu.Unlock()
	return nil
}

// Snapshot copies the current counters.
func (s *StatsSink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	abnormal := make(map[string]int, len(s.abnormal))
	for k, v := range s.abnormal {
		abnormal[k] = v
	}
	return Snapshot{
		WeatherErrors:       s.weather,
		AbnormalDisconnects: abnormal,
		RuleMutations:       s.mutations,
		Resolutions:         s.resolved,
		ConnectedClients:    s.clients,
	}
}

// Reset clears the daily counters.
func (s *StatsSink) Reset() {
	s.mu.Lock()
	s.weather = 0
	s.abnormal = make(map[string]int)
	s.mutations = 0
	s.resolved = 0
	s.mu.Unlock()
}
