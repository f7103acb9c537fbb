package statistic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/classboard/classboard/core/metrics"
	"github.com/classboard/classboard/infra/metrics"
	"github.com/classboard/classboard/infra/ws"
)

type fakeConns struct {
	clients []ws.Client
}

func (f fakeConns) Clients() []ws.Client { return f.clients }

func TestStatisticSnapshot(t *testing.T) {
	stats := metrics.NewStatsSink()
	require.NoError(t, stats.RecordWeatherError("beijing"))
	require.NoError(t, stats.RecordDisconnect(coremetrics.DisconnectEvent{
		Institution: "central", Grade: "grade1", Class: "class1", Abnormal: true, Time: time.Now(),
	}))
	require.NoError(t, stats.RecordConnectedClients(2))

	conns := fakeConns{clients: []ws.Client{
		{ID: "a", Institution: "central", Grade: "grade1", Class: "class1"},
		{ID: "b", Institution: "central", Grade: "grade1", Class: "class2"},
	}}
	mux := http.NewServeMux()
	NewHandler(stats, conns).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/web/statistic")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		WeatherError       int            `json:"weather_error"`
		AbnormalDisconnect map[string]int `json:"abnormal_disconnect"`
		ConnectedClients   int            `json:"connected_clients"`
		Clients            []ws.Client    `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.WeatherError)
	assert.Equal(t, 1, body.AbnormalDisconnect["central/grade1/class1"])
	assert.Equal(t, 2, body.ConnectedClients)
	assert.Len(t, body.Clients, 2)
}

func TestStatisticEmpty(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(metrics.NewStatsSink(), fakeConns{}).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/statistic")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{}, body["clients"])
}
