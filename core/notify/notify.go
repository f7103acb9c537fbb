// Package notify fans configuration-change signals out to live display
// connections and any additional push channels.
package notify

import (
	"context"
	"sync"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/events"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/internal/eventbus"
)

// SyncSignal is the message display clients interpret as "reload your
// configuration".
const SyncSignal = "SyncConfig"

// Registry is the live-connection registry keyed by (institution, grade).
type Registry interface {
	Keys() []autorun.NotifyKey
	Broadcast(ctx context.Context, key autorun.NotifyKey, message string) error
}

// Sink is an additional push channel (e.g. an MQTT topic per group).
type Sink interface {
	Publish(ctx context.Context, key autorun.NotifyKey, message string) error
}

// Dispatcher resolves change scopes to connection groups and broadcasts the
// sync signal. Groups are notified in parallel; a failure on one group never
// blocks or fails the others.
type Dispatcher struct {
	registry Registry
	sinks    []Sink
	log      logger.Logger
}

// NewDispatcher wires a Dispatcher over the registry and optional sinks.
func NewDispatcher(registry Registry, log logger.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{registry: registry, sinks: sinks, log: log}
}

// NotifyScope signals every connection group a rule scope touches.
func (d *Dispatcher) NotifyScope(ctx context.Context, scopes []string) {
	targets := autorun.NotifyTargets(scopes, d.registry.Keys())
	d.notify(ctx, targets)
}

// NotifyGroup signals a single (institution, grade) group.
func (d *Dispatcher) NotifyGroup(ctx context.Context, institution, grade string) {
	d.notify(ctx, []autorun.NotifyKey{{Institution: institution, Grade: grade}})
}

func (d *Dispatcher) notify(ctx context.Context, targets []autorun.NotifyKey) {
	var wg sync.WaitGroup
	for _, key := range targets {
		wg.Add(1)
		go func(key autorun.NotifyKey) {
			defer wg.Done()
			if err := d.registry.Broadcast(ctx, key, SyncSignal); err != nil {
				d.log.Warnf("broadcast to %s/%s failed: %v", key.Institution, key.Grade, err)
			}
			for _, sink := range d.sinks {
				if err := sink.Publish(ctx, key, SyncSignal); err != nil {
					d.log.Warnf("sink publish for %s/%s failed: %v", key.Institution, key.Grade, err)
				}
			}
		}(key)
	}
	wg.Wait()
}

// Run consumes change events from the bus until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, bus eventbus.EventBus) {
	sub := bus.Subscribe()
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
				d.NotifyScope(ctx, e.Scope)
			case events.ConfigChanged:
				d.NotifyGroup(ctx, e.Institution, e.Grade)
			}
		}
	}
}
