// Package autorun exposes the override-rule admin surface: rule listing and
// mutation plus the compensation calendar lookups.
package autorun

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/classboard/classboard/api/respond"
	"github.com/classboard/classboard/auth"
	coreautorun "github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/core/calendar"
	"github.com/classboard/classboard/core/model"
)

var validate = validator.New()

// upsertRequest is the mutation body shared by the four rule kinds.
type upsertRequest struct {
	Scope    []string        `json:"scope" validate:"required,min=1,dive,required"`
	Priority int             `json:"priority"`
	Content  json.RawMessage `json:"content" validate:"required"`
	ID       string          `json:"id"`
}

var kindByName = map[string]model.RuleKind{
	"compensation": model.KindCompensation,
	"timetable":    model.KindTimetableOverride,
	"schedule":     model.KindScheduleOverride,
	"all":          model.KindAllOverride,
}

// Register mounts the autorun endpoints on mux. Mutations require the
// management capability.
func Register(mux *http.ServeMux, svc *coreautorun.Service, guard *auth.Guard) {
	mux.Handle("GET /web/autorun", listHandler(svc))
	mux.Handle("POST /web/autorun/{kind}", guard.Middleware(upsertHandler(svc)))
	mux.Handle("DELETE /web/autorun/{id}", guard.Middleware(deleteHandler(svc)))
	mux.Handle("GET /web/autorun/compensation/holiday/{year}/{month}/{day}", compensationHandler(calendar.CompensationFromHoliday))
	mux.Handle("GET /web/autorun/compensation/workday/{year}/{month}/{day}", compensationHandler(calendar.CompensationFromWorkday))
	mux.Handle("GET /web/autorun/compensation/year/{year}", pairsHandler())
}

func listHandler(svc *coreautorun.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.List(r.Context())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, map[string]any{"data": views})
	})
}

func upsertHandler(svc *coreautorun.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, ok := kindByName[r.PathValue("kind")]
		if !ok {
			respond.JSON(w, http.StatusNotFound, map[string]string{"detail": "unknown rule kind"})
			return
		}
		var req upsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body: " + err.Error()})
			return
		}
		if err := validate.Struct(req); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		id, err := svc.Upsert(r.Context(), kind, req.Scope, req.Priority, req.Content, req.ID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, map[string]any{"status": http.StatusOK, "id": id})
	})
}

func deleteHandler(svc *coreautorun.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		affected, err := svc.Delete(r.Context(), id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, map[string]any{"status": http.StatusOK, "deletedCount": affected, "id": id})
	})
}

func pathDate(r *http.Request) (time.Time, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad year: %w", err)
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad month: %w", err)
	}
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day: %w", err)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("no such date %04d-%02d-%02d", year, month, day)
	}
	return d, nil
}

func compensationHandler(lookup func(time.Time) (time.Time, bool)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := pathDate(r)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		body := map[string]any{"date": d.Format(calendar.DateLayout), "compensation": nil}
		if comp, ok := lookup(d); ok {
			body["compensation"] = comp.Format(calendar.DateLayout)
		}
		respond.OK(w, body)
	})
}

func pairsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		year, err := strconv.Atoi(r.PathValue("year"))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"detail": "bad year: " + err.Error()})
			return
		}
		pairs := calendar.Pairs(year)
		out := make([]map[string]string, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, map[string]string{
				"holiday": p.Holiday.Format(calendar.DateLayout),
				"workday": p.Workday.Format(calendar.DateLayout),
			})
		}
		respond.OK(w, map[string]any{"year": year, "pairs": out})
	})
}
