// Package statistic serves the daily operational counters and the live
// connection list for the admin dashboard.
package statistic

import (
	"net/http"

	"github.com/classboard/classboard/api/respond"
	"github.com/classboard/classboard/infra/metrics"
	"github.com/classboard/classboard/infra/ws"
)

// ConnLister snapshots the live display connections.
type ConnLister interface {
	Clients() []ws.Client
}

// Handler serves the statistics endpoint.
type Handler struct {
	stats *metrics.StatsSink
	conns ConnLister
}

// NewHandler wires the handler over the in-memory stats sink and the
// connection registry.
func NewHandler(stats *metrics.StatsSink, conns ConnLister) *Handler {
	return &Handler{stats: stats, conns: conns}
}

// Register mounts the routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /web/statistic", h.get)
	mux.HandleFunc("GET /api/statistic", h.get)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()
	clients := h.conns.Clients()
	if clients == nil {
		clients = []ws.Client{}
	}
	respond.OK(w, map[string]any{
		"weather_error":       snap.WeatherErrors,
		"abnormal_disconnect": snap.AbnormalDisconnects,
		"rule_mutations":      snap.RuleMutations,
		"resolutions":         snap.Resolutions,
		"connected_clients":   snap.ConnectedClients,
		"clients":             clients,
	})
}
