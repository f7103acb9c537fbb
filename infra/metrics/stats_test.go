package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/classboard/classboard/core/metrics"
)

func TestStatsSinkCountsAbnormalOnly(t *testing.T) {
	s := NewStatsSink()

	require.NoError(t, s.RecordDisconnect(coremetrics.DisconnectEvent{
		Institution: "central", Grade: "grade1", Class: "class1", Abnormal: true,
	}))
	require.NoError(t, s.RecordDisconnect(coremetrics.DisconnectEvent{
		Institution: "central", Grade: "grade1", Class: "class1", Abnormal: true,
	}))
	require.NoError(t, s.RecordDisconnect(coremetrics.DisconnectEvent{
		Institution: "central", Grade: "grade1", Class: "class2", Abnormal: false,
	}))

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.AbnormalDisconnects["central/grade1/class1"])
	assert.NotContains(t, snap.AbnormalDisconnects, "central/grade1/class2")
}

func TestStatsSinkResetKeepsClientGauge(t *testing.T) {
	s := NewStatsSink()

	require.NoError(t, s.RecordWeatherError("beijing"))
	require.NoError(t, s.RecordRuleMutation(coremetrics.RuleMutationEvent{Kind: "schedule", Action: "upsert"}))
	require.NoError(t, s.RecordResolution(coremetrics.ResolutionEvent{Institution: "central"}))
	require.NoError(t, s.RecordConnectedClients(4))

	s.Reset()

	snap := s.Snapshot()
	assert.Zero(t, snap.WeatherErrors)
	assert.Zero(t, snap.RuleMutations)
	assert.Zero(t, snap.Resolutions)
	assert.Empty(t, snap.AbnormalDisconnects)
	assert.Equal(t, 4, snap.ConnectedClients)
}

func TestStatsSinkSnapshotIsACopy(t *testing.T) {
	s := NewStatsSink()
	require.NoError(t, s.RecordDisconnect(coremetrics.DisconnectEvent{
		Institution: "central", Grade: "grade1", Class: "class1", Abnormal: true,
	}))

	snap := s.Snapshot()
	snap.AbnormalDisconnects["central/grade1/class1"] = 99

	assert.Equal(t, 1, s.Snapshot().AbnormalDisconnects["central/grade1/class1"])
}
