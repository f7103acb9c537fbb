// Package app wires the stores, engines and HTTP surface into one runnable
// service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apiautorun "github.com/classboard/classboard/api/autorun"
	apiconfigs "github.com/classboard/classboard/api/configs"
	apischedule "github.com/classboard/classboard/api/schedule"
	apistatistic "github.com/classboard/classboard/api/statistic"
	apiweather "github.com/classboard/classboard/api/weather"
	"github.com/classboard/classboard/auth"
	"github.com/classboard/classboard/config"
	coreautorun "github.com/classboard/classboard/core/autorun"
	coremetrics "github.com/classboard/classboard/core/metrics"
	"github.com/classboard/classboard/core/notify"
	coreschedule "github.com/classboard/classboard/core/schedule"
	"github.com/classboard/classboard/infra/configdir"
	"github.com/classboard/classboard/infra/logger"
	"github.com/classboard/classboard/infra/metrics"
	"github.com/classboard/classboard/infra/mqtt"
	"github.com/classboard/classboard/infra/sqlite"
	"github.com/classboard/classboard/infra/weather"
	"github.com/classboard/classboard/infra/ws"
	"github.com/classboard/classboard/internal/eventbus"
)

// Service orchestrates the schedule distribution server.
type Service struct {
	cfg        *config.Config
	log        logger.Logger
	bus        *eventbus.Bus
	store      *sqlite.Store
	hub        *ws.Hub
	stats      *metrics.StatsSink
	sink       coremetrics.Sink
	dispatcher *notify.Dispatcher
	mqttSink   *mqtt.Sink
	srv        *http.Server
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	cfgDir, err := configdir.New(cfg.Data.Dir, logger.New("configdir"))
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	store, err := sqlite.Open(cfg.Data.RulesDB)
	if err != nil {
		return nil, fmt.Errorf("rules db: %w", err)
	}
	bus := eventbus.New()

	// The in-memory sink always runs so the statistics endpoint has data;
	// configured sinks fan out alongside it.
	stats := metrics.NewStatsSink()
	configured, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	sink := coremetrics.Sink(coremetrics.NewMultiSink(stats, configured))

	resolver := coreschedule.NewResolver(store, logger.New("resolver"))
	rules := coreautorun.NewService(store, coreautorun.NewValidator(cfgDir), bus, logger.New("autorun"))

	hub := ws.NewHub(bus, dayEnd(cfgDir), logger.New("ws-hub"))

	var (
		mqttSink *mqtt.Sink
		sinks    []notify.Sink
	)
	if cfg.Notifier.Enabled {
		mqttSink, err = mqtt.NewSink(cfg.Notifier.MQTT, logger.New("mqtt-sink"))
		if err != nil {
			return nil, fmt.Errorf("mqtt sink: %w", err)
		}
		sinks = append(sinks, mqttSink)
	}
	dispatcher := notify.NewDispatcher(hub, logger.New("notify"), sinks...)

	guard := auth.NewGuard(cfg.Auth)
	mux := http.NewServeMux()
	apiconfigs.NewHandler(cfgDir, resolver, bus, logger.New("api-configs")).Register(mux, guard)
	apiautorun.Register(mux, rules, guard)
	apischedule.NewHandler(cfgDir, resolver, hub, dispatcher, sink, logger.New("api-schedule")).Register(mux, guard)
	apistatistic.NewHandler(stats, hub).Register(mux)
	if cfg.Weather.Host != "" {
		client := weather.New(cfg.Weather, logger.New("weather"))
		apiweather.NewHandler(client, bus, logger.New("api-weather")).Register(mux)
	}

	return &Service{
		cfg:        cfg,
		log:        logg,
		bus:        bus,
		store:      store,
		hub:        hub,
		stats:      stats,
		sink:       sink,
		dispatcher: dispatcher,
		mqttSink:   mqttSink,
		srv:        &http.Server{Addr: cfg.Server.Addr, Handler: mux},
	}, nil
}

// dayEnd derives the end of the class day from the class schedule and bell
// schedule, for abnormal-disconnect classification.
func dayEnd(cfgDir *configdir.Store) ws.DayEndFunc {
	return func(ctx context.Context, institution, grade, class string, day time.Time) (time.Time, bool) {
		doc, err := cfgDir.Schedule(ctx, institution, grade, class)
		if err != nil {
			return time.Time{}, false
		}
		tt, err := cfgDir.Timetable(ctx, institution, grade)
		if err != nil {
			return time.Time{}, false
		}
		return coreschedule.LastPeriodEnd(doc, tt, day)
	}
}

// Run starts the service and blocks until the context is cancelled or the
// listener fails.
func (s *Service) Run(ctx context.Context) error {
	go s.dispatcher.Run(ctx, s.bus)
	metrics.StartEventCollector(ctx, s.bus, s.sink, s.hub)
	if s.cfg.Server.PromPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", s.cfg.Server.PromPort)
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go s.resetDaily(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	s.log.Infof("listening on %s", s.cfg.Server.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// resetDaily clears the day-scoped statistics and re-derives rule lifecycle
// statuses at every local midnight.
func (s *Service) resetDaily(ctx context.Context) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.stats.Reset()
			if n, err := s.store.RefreshStatuses(ctx, time.Now()); err != nil {
				s.log.Errorf("midnight status refresh failed: %v", err)
			} else {
				s.log.Infof("midnight reset done, %d rule statuses updated", n)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqttSink != nil {
		s.mqttSink.Close()
	}
	s.bus.Close()
	return s.store.Close()
}
