// Package schedule exposes the display-client surface: the merged per-class
// configuration, the live sync websocket, the manual broadcast trigger and
// the effective-schedule lookup by date.
package schedule

import (
	"context"
	"net/http"
	"time"

	"github.com/classboard/classboard/api/respond"
	"github.com/classboard/classboard/auth"
	"github.com/classboard/classboard/core/configstore"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/metrics"
	"github.com/classboard/classboard/core/schedule"
	"github.com/classboard/classboard/core/scope"
)

// ConnHandler serves the display websocket for one class.
type ConnHandler interface {
	Handler(institution, grade, class string) http.HandlerFunc
}

// Broadcaster pushes the sync signal to one connection group.
type Broadcaster interface {
	NotifyGroup(ctx context.Context, institution, grade string)
}

// Handler serves the client-facing schedule endpoints.
type Handler struct {
	cfg         configstore.Store
	resolver    *schedule.Resolver
	conns       ConnHandler
	broadcaster Broadcaster
	sink        metrics.Sink
	log         logger.Logger
}

// NewHandler wires the client surface. sink may be a metrics.NopSink.
func NewHandler(cfg configstore.Store, resolver *schedule.Resolver, conns ConnHandler, broadcaster Broadcaster, sink metrics.Sink, log logger.Logger) *Handler {
	return &Handler{cfg: cfg, resolver: resolver, conns: conns, broadcaster: broadcaster, sink: sink, log: log}
}

// Register mounts the routes. The broadcast trigger requires authentication;
// everything else is open to display clients.
func (h *Handler) Register(mux *http.ServeMux, guard *auth.Guard) {
	mux.HandleFunc("GET /{inst}/{grade}/{class}", h.getMerged)
	mux.HandleFunc("GET /ws/{inst}/{grade}/{class}", h.serveWS)
	mux.Handle("POST /api/broadcast/{inst}/{grade}/{class}", guard.Middleware(http.HandlerFunc(h.postBroadcast)))
	mux.HandleFunc("GET /web/schedule/by-date", h.getByDate)
}

// getMerged returns the four configuration documents of a class merged into
// one object, the shape display clients bootstrap from.
func (h *Handler) getMerged(w http.ResponseWriter, r *http.Request) {
	inst, grade, class := r.PathValue("inst"), r.PathValue("grade"), r.PathValue("class")
	merged, err := h.cfg.RawMerged(r.Context(), inst, grade, class)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.OK(w, merged)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	inst, grade, class := r.PathValue("inst"), r.PathValue("grade"), r.PathValue("class")
	h.conns.Handler(inst, grade, class)(w, r)
}

func (h *Handler) postBroadcast(w http.ResponseWriter, r *http.Request) {
	inst, grade := r.PathValue("inst"), r.PathValue("grade")
	h.log.Infof("manual broadcast requested for %s/%s", inst, grade)
	h.broadcaster.NotifyGroup(r.Context(), inst, grade)
	respond.Status(w, http.StatusOK)
}

// getByDate resolves the effective schedule for one class on one date. The
// scope query parameter must name a full institution/grade/class path.
func (h *Handler) getByDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := time.ParseInLocation("2006-01-02", q.Get("date"), time.Local)
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "date must be YYYY-MM-DD"})
		return
	}
	decl := scope.Parse(q.Get("scope"))
	if decl.Level() != scope.LevelInstitutionGradeClass {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "scope must be institution/grade/class"})
		return
	}
	parts := decl.Parts()
	sctx := scope.Context{Institution: parts[0], Grade: parts[1], Class: parts[2]}

	ctx := r.Context()
	doc, err := h.cfg.Schedule(ctx, sctx.Institution, sctx.Grade, sctx.Class)
	if err != nil {
		respond.Error(w, err)
		return
	}
	tt, err := h.cfg.Timetable(ctx, sctx.Institution, sctx.Grade)
	if err != nil {
		respond.Error(w, err)
		return
	}
	eff, err := h.resolver.Resolve(ctx, date, sctx, doc, tt)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.sink.RecordResolution(metrics.ResolutionEvent{
		Institution: sctx.Institution,
		Grade:       sctx.Grade,
		Class:       sctx.Class,
		Date:        date.Format("2006-01-02"),
		Periods:     len(eff.Periods),
		Time:        time.Now(),
	}); err != nil {
		h.log.Warnf("resolution stats record failed: %v", err)
	}
	respond.OK(w, map[string]any{"data": eff})
}
