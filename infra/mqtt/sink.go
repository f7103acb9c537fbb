// Package mqtt publishes configuration sync signals to an MQTT broker, one
// topic per (institution, grade) group, as an optional push channel next to
// the websocket hub.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/notify"
)

// TopicPrefix is the root of the sync topic tree. The full topic is
// <prefix>/<institution>/<grade>.
const TopicPrefix = "classboard/sync"

// Config defines the connection parameters for the Paho MQTT sink.
type Config struct {
	Broker     string      `json:"broker" koanf:"broker"`
	ClientID   string      `json:"client_id" koanf:"client_id"`
	Username   string      `json:"username" koanf:"username"`
	Password   string      `json:"password" koanf:"password"`
	UseTLS     bool        `json:"use_tls" koanf:"use_tls"`
	ClientCert string      `json:"client_cert" koanf:"client_cert"`
	ClientKey  string      `json:"client_key" koanf:"client_key"`
	CABundle   string      `json:"ca_bundle" koanf:"ca_bundle"`
	QoS        byte        `json:"qos" koanf:"qos"`
	Retain     bool        `json:"retain" koanf:"retain"`
	MaxRetries int         `json:"max_retries" koanf:"max_retries"`
	BackoffMS  int         `json:"backoff_ms" koanf:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-" koanf:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Sink implements notify.Sink over a Paho client.
type Sink struct {
	cli        pahoClient
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

var _ notify.Sink = (*Sink)(nil)

// NewSink connects to the broker and returns the sink.
func NewSink(cfg Config, log logger.Logger) (*Sink, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	s := &Sink{
		cli:        c,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = 3
	}
	if s.backoff <= 0 {
		s.backoff = 100 * time.Millisecond
	}
	return s, nil
}

func clientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.loadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c Config) loadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the sync topic for a group.
func Topic(key autorun.NotifyKey) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, key.Institution, key.Grade)
}

// Publish writes message to the group topic, retrying with exponential
// backoff up to the configured attempt budget.
func (s *Sink) Publish(ctx context.Context, key autorun.NotifyKey, message string) error {
	topic := Topic(key)
	var publishErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := s.cli.Publish(topic, s.qos, s.retain, []byte(message))
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		s.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		time.Sleep(s.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Close disconnects from the broker.
func (s *Sink) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
