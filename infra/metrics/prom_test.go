package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/classboard/classboard/core/metrics"
)

func TestPromSinkRecordsMutationsAndClients(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	sink, ok := sinkIf.(*PromSink)
	require.True(t, ok)

	require.NoError(t, sink.RecordRuleMutation(coremetrics.RuleMutationEvent{Kind: "schedule", Action: "upsert"}))

	expected := `
# HELP override_rule_mutations_total Total number of override rule creates, edits and deletes
# TYPE override_rule_mutations_total counter
override_rule_mutations_total{action="upsert",kind="schedule"} 1
`
	require.NoError(t, testutil.CollectAndCompare(sink.mutations, strings.NewReader(expected)))

	require.NoError(t, sink.RecordConnectedClients(7))
	expectedClients := `
# HELP connected_clients Number of live display connections
# TYPE connected_clients gauge
connected_clients 7
`
	require.NoError(t, testutil.CollectAndCompare(sink.clients, strings.NewReader(expectedClients)))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	// A second sink on the same registry reuses the existing collectors.
	_, err = NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
}
