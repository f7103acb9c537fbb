// Package weather proxies condensed weather reports to display clients.
package weather

import (
	"errors"
	"net/http"

	"github.com/classboard/classboard/api/respond"
	"github.com/classboard/classboard/core/events"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/infra/weather"
	"github.com/classboard/classboard/internal/eventbus"
)

// notFoundReport is the payload clients render when the city is unknown. The
// numeric temp doubles as the status marker on legacy displays.
var notFoundReport = map[string]any{
	"temp":       404,
	"weat":       "不存在",
	"warn":       "",
	"brief_warn": "",
}

// Handler serves the weather proxy endpoints.
type Handler struct {
	client *weather.Client
	bus    eventbus.EventBus
	log    logger.Logger
}

// NewHandler wires the proxy over the upstream client. bus may be nil.
func NewHandler(client *weather.Client, bus eventbus.EventBus, log logger.Logger) *Handler {
	return &Handler{client: client, bus: bus, log: log}
}

// Register mounts the routes. The single-segment form looks the city up
// nationwide; the two-segment form narrows it to a province.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/weather/{name}", func(w http.ResponseWriter, r *http.Request) {
		h.get(w, r, "", r.PathValue("name"))
	})
	mux.HandleFunc("GET /api/weather/{province}/{name}", func(w http.ResponseWriter, r *http.Request) {
		h.get(w, r, r.PathValue("province"), r.PathValue("name"))
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, province, name string) {
	report, err := h.client.Lookup(r.Context(), province, name)
	if err != nil {
		if errors.Is(err, weather.ErrCityNotFound) {
			respond.OK(w, notFoundReport)
			return
		}
		h.log.Errorf("weather lookup for %s/%s failed: %v", province, name, err)
		if h.bus != nil {
			h.bus.Publish(events.WeatherLookupFailed{Location: name})
		}
		respond.JSON(w, http.StatusBadGateway, map[string]string{"detail": "weather upstream unavailable"})
		return
	}
	respond.OK(w, report)
}
