package metrics

import (
	"context"
	"time"

	"github.com/classboard/classboard/core/events"
	coremetrics "github.com/classboard/classboard/core/metrics"
	"github.com/classboard/classboard/internal/eventbus"
)

// ClientCounter reports the number of live non-debug display connections.
type ClientCounter interface {
	Count() int
}

// StartEventCollector subscribes to the event bus and records statistics for
// events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink, clients ClientCounter) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.RuleChanged:
					_ = sink.RecordRuleMutation(coremetrics.RuleMutationEvent{
						RuleID: e.RuleID,
						Kind:   e.Kind,
						Action: e.Action,
						Time:   time.Now(),
					})
				case events.ClientDisconnected:
					_ = sink.RecordDisconnect(coremetrics.DisconnectEvent{
						Institution: e.Institution,
						Grade:       e.Grade,
						Class:       e.Class,
						Abnormal:    e.Abnormal,
						Time:        time.Now(),
					})
					if clients != nil {
						_ = sink.RecordConnectedClients(clients.Count())
					}
				case events.WeatherLookupFailed:
					_ = sink.RecordWeatherError(e.Location)
				}
			}
		}
	}()
}
