package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/classboard/classboard/core/logger"
	coremetrics "github.com/classboard/classboard/core/metrics"
	infralogger "github.com/classboard/classboard/infra/logger"
)

// InfluxSink writes statistics events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordRuleMutation(ev coremetrics.RuleMutationEvent) error {
	p := write.NewPointWithMeasurement("override_rule_mutation").
		AddTag("kind", ev.Kind).
		AddTag("action", ev.Action).
		AddField("rule_id", ev.RuleID).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	p := write.NewPointWithMeasurement("schedule_resolution").
		AddTag("institution", ev.Institution).
		AddTag("grade", ev.Grade).
		AddTag("class", ev.Class).
		AddField("date", ev.Date).
		AddField("periods", ev.Periods).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) RecordDisconnect(ev coremetrics.DisconnectEvent) error {
	p := write.NewPointWithMeasurement("client_disconnect").
		AddTag("institution", ev.Institution).
		AddTag("grade", ev.Grade).
		AddTag("class", ev.Class).
		AddTag("abnormal", strconv.FormatBool(ev.Abnormal)).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) RecordWeatherError(location string) error {
	p := write.NewPointWithMeasurement("weather_lookup_error").
		AddTag("location", location).
		AddField("count", 1).
		SetTime(time.Now())
	return s.write(p)
}

func (s *InfluxSink) RecordConnectedClients(count int) error {
	p := write.NewPointWithMeasurement("connected_clients").
		AddField("count", count).
		SetTime(time.Now())
	return s.write(p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
