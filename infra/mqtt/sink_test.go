package mqtt

import (
	"context"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard/core/autorun"
	infralogger "github.com/classboard/classboard/infra/logger"
)

// mockClient implements pahoClient for tests.
type mockClient struct {
	opts        *paho.ClientOptions
	published   []string
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, _ byte, _ bool, _ interface{}) paho.Token {
	m.published = append(m.published, topic)
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (d dummyToken) Error() error { return d.err }

func newTestSink(t *testing.T, mc *mockClient) *Sink {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
	s, err := NewSink(Config{Broker: "tcp://localhost:1883", ClientID: "test", BackoffMS: 1}, infralogger.NopLogger{})
	require.NoError(t, err)
	return s
}

func TestPublishTopicPerGroup(t *testing.T) {
	mc := &mockClient{}
	s := newTestSink(t, mc)

	key := autorun.NotifyKey{Institution: "central", Grade: "grade1"}
	require.NoError(t, s.Publish(context.Background(), key, "SyncConfig"))

	require.Len(t, mc.published, 1)
	assert.Equal(t, "classboard/sync/central/grade1", mc.published[0])
}

func TestPublishRetriesUntilSuccess(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	s := newTestSink(t, mc)

	key := autorun.NotifyKey{Institution: "central", Grade: "grade1"}
	require.NoError(t, s.Publish(context.Background(), key, "SyncConfig"))
	assert.Len(t, mc.published, 3)
}

func TestPublishGivesUpAfterBudget(t *testing.T) {
	errs := make([]error, 10)
	for i := range errs {
		errs[i] = fmt.Errorf("net fail")
	}
	mc := &mockClient{publishErrs: errs}
	s := newTestSink(t, mc)

	key := autorun.NotifyKey{Institution: "central", Grade: "grade1"}
	err := s.Publish(context.Background(), key, "SyncConfig")
	require.Error(t, err)
	assert.Len(t, mc.published, 4)
}
