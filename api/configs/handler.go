// Package configs exposes the configuration-document admin surface: subjects,
// bell schedules, per-class schedules and display settings, plus the menu and
// structure trees driving the admin UI.
package configs

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/classboard/classboard/api/respond"
	"github.com/classboard/classboard/auth"
	"github.com/classboard/classboard/core/configstore"
	"github.com/classboard/classboard/core/events"
	"github.com/classboard/classboard/core/logger"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/schedule"
	"github.com/classboard/classboard/internal/eventbus"
)

var validate = validator.New()

// Handler serves the configuration endpoints.
type Handler struct {
	cfg      configstore.Store
	resolver *schedule.Resolver
	bus      eventbus.EventBus
	log      logger.Logger
}

// NewHandler wires the configuration surface. The bus may be nil; writes are
// then silent.
func NewHandler(cfg configstore.Store, resolver *schedule.Resolver, bus eventbus.EventBus, log logger.Logger) *Handler {
	return &Handler{cfg: cfg, resolver: resolver, bus: bus, log: log}
}

// Register mounts the endpoints on mux. Writes require the management
// capability.
func (h *Handler) Register(mux *http.ServeMux, guard *auth.Guard) {
	mux.HandleFunc("GET /web/menu", h.getMenu)
	mux.HandleFunc("GET /web/structure", h.getStructure)

	mux.HandleFunc("GET /web/config/{inst}/{grade}/subjects", h.getSubjects)
	mux.HandleFunc("GET /web/config/{inst}/{grade}/subjects/options", h.getSubjectOptions)
	mux.Handle("PUT /web/config/{inst}/{grade}/subjects", guard.Middleware(http.HandlerFunc(h.putSubjects)))

	mux.HandleFunc("GET /web/config/{inst}/{grade}/timetable", h.getTimetable)
	mux.HandleFunc("GET /web/config/{inst}/{grade}/timetable/options", h.getTimetableOptions)
	mux.Handle("PUT /web/config/{inst}/{grade}/timetable", guard.Middleware(http.HandlerFunc(h.putTimetable)))

	mux.HandleFunc("GET /web/config/{inst}/{grade}/{class}/schedule", h.getSchedule)
	mux.Handle("PUT /web/config/{inst}/{grade}/{class}/schedule", guard.Middleware(http.HandlerFunc(h.putSchedule)))

	mux.HandleFunc("GET /web/config/{inst}/{grade}/{class}/settings", h.getSettings)
	mux.Handle("PUT /web/config/{inst}/{grade}/{class}/settings", guard.Middleware(http.HandlerFunc(h.putSettings)))
}

func (h *Handler) notify(institution, grade string) {
	if h.bus != nil {
		h.bus.Publish(events.ConfigChanged{Institution: institution, Grade: grade})
	}
}

// textItem is the cell shape the subjects editor works with.
type textItem struct {
	Text string `json:"text"`
}

type subjectsRequest struct {
	Model struct {
		Abbr     []textItem `json:"abbr" validate:"required,min=1"`
		FullName []textItem `json:"fullName" validate:"required,min=1"`
	} `json:"model" validate:"required"`
}

func (h *Handler) getSubjects(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cfg.Subjects(r.Context(), r.PathValue("inst"), r.PathValue("grade"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	abbr := make([]textItem, 0, len(doc.SubjectName))
	full := make([]textItem, 0, len(doc.SubjectName))
	for _, a := range sortedKeys(doc.SubjectName) {
		abbr = append(abbr, textItem{Text: a})
		full = append(full, textItem{Text: doc.SubjectName[a]})
	}
	respond.OK(w, map[string]any{"abbr": abbr, "fullName": full})
}

func (h *Handler) getSubjectOptions(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cfg.Subjects(r.Context(), r.PathValue("inst"), r.PathValue("grade"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	options := make([]map[string]string, 0, len(doc.SubjectName))
	for _, a := range sortedKeys(doc.SubjectName) {
		options = append(options, map[string]string{
			"label": fmt.Sprintf("%s（%s）", a, doc.SubjectName[a]),
			"value": a,
		})
	}
	respond.OK(w, map[string]any{"options": options})
}

func (h *Handler) putSubjects(w http.ResponseWriter, r *http.Request) {
	var req subjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body: " + err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if len(req.Model.Abbr) != len(req.Model.FullName) {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "abbr and fullName must pair up"})
		return
	}
	names := make(map[string]string, len(req.Model.Abbr))
	for i, a := range req.Model.Abbr {
		names[a.Text] = req.Model.FullName[i].Text
	}
	inst, grade := r.PathValue("inst"), r.PathValue("grade")
	if err := h.cfg.PutSubjects(r.Context(), inst, grade, model.SubjectsDoc{SubjectName: names}); err != nil {
		respond.Error(w, err)
		return
	}
	h.log.Infof("subjects updated for %s/%s", inst, grade)
	h.notify(inst, grade)
	respond.Status(w, http.StatusOK)
}

func (h *Handler) getTimetable(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cfg.Timetable(r.Context(), r.PathValue("inst"), r.PathValue("grade"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.OK(w, doc)
}

func (h *Handler) getTimetableOptions(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cfg.Timetable(r.Context(), r.PathValue("inst"), r.PathValue("grade"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	options := make([]map[string]any, 0, len(doc.Timetable))
	for _, label := range sortedLabelKeys(doc.Timetable) {
		options = append(options, map[string]any{
			"label": label,
			"value": label,
			"need":  doc.PeriodCount(label),
		})
	}
	respond.OK(w, map[string]any{"options": options})
}

func (h *Handler) putTimetable(w http.ResponseWriter, r *http.Request) {
	var doc model.TimetableDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body: " + err.Error()})
		return
	}
	if len(doc.Timetable) == 0 {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "timetable must hold at least one bell schedule"})
		return
	}
	inst, grade := r.PathValue("inst"), r.PathValue("grade")
	if err := h.cfg.PutTimetable(r.Context(), inst, grade, doc); err != nil {
		respond.Error(w, err)
		return
	}
	h.log.Infof("timetable updated for %s/%s", inst, grade)
	h.notify(inst, grade)
	respond.Status(w, http.StatusOK)
}

type scheduleRequest struct {
	Model model.ScheduleDoc `json:"model" validate:"required"`
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	inst, grade, class := r.PathValue("inst"), r.PathValue("grade"), r.PathValue("class")
	doc, err := h.cfg.Schedule(r.Context(), inst, grade, class)
	if err != nil {
		respond.Error(w, err)
		return
	}
	tt, err := h.cfg.Timetable(r.Context(), inst, grade)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.OK(w, schedule.NormalizeForEdit(doc, tt))
}

func (h *Handler) putSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body: " + err.Error()})
		return
	}
	if len(req.Model.DailyClass) == 0 {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "daily_class must not be empty"})
		return
	}
	inst, grade, class := r.PathValue("inst"), r.PathValue("grade"), r.PathValue("class")
	tt, err := h.cfg.Timetable(r.Context(), inst, grade)
	if err != nil {
		respond.Error(w, err)
		return
	}
	doc := h.resolver.Repair(req.Model, tt)
	if err := h.cfg.PutSchedule(r.Context(), inst, grade, class, doc); err != nil {
		respond.Error(w, err)
		return
	}
	h.log.Infof("schedule updated for %s/%s/%s", inst, grade, class)
	h.notify(inst, grade)
	respond.Status(w, http.StatusOK)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cfg.Settings(r.Context(), r.PathValue("inst"), r.PathValue("grade"), r.PathValue("class"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.OK(w, doc)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var doc model.SettingsDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body: " + err.Error()})
		return
	}
	inst, grade, class := r.PathValue("inst"), r.PathValue("grade"), r.PathValue("class")
	if err := h.cfg.PutSettings(r.Context(), inst, grade, class, doc); err != nil {
		respond.Error(w, err)
		return
	}
	h.log.Infof("settings updated for %s/%s/%s", inst, grade, class)
	h.notify(inst, grade)
	respond.Status(w, http.StatusOK)
}
