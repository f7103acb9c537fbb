package configs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard/auth"
	"github.com/classboard/classboard/core/events"
	"github.com/classboard/classboard/core/model"
	"github.com/classboard/classboard/core/schedule"
	"github.com/classboard/classboard/infra/configdir"
	infralogger "github.com/classboard/classboard/infra/logger"
	"github.com/classboard/classboard/internal/eventbus"
)

const testToken = "secret"

type testEnv struct {
	srv *httptest.Server
	cfg *configdir.Store
	bus *eventbus.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg, err := configdir.New(t.TempDir(), infralogger.NopLogger{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cfg.PutSubjects(ctx, "central", "grade1", model.SubjectsDoc{
		SubjectName: map[string]string{"M": "Math", "E": "English"},
	}))
	require.NoError(t, cfg.PutTimetable(ctx, "central", "grade1", model.TimetableDoc{
		Timetable: map[string]map[string]any{
			"workday": {"08:00-08:45": 0, "08:55-09:40": 1, "10:00-10:45": 2},
			"short":   {"08:00-08:30": 0},
		},
		Start: "2026-03-02",
	}))
	require.NoError(t, cfg.PutSchedule(ctx, "central", "grade1", "class1", shortWeek()))
	require.NoError(t, cfg.PutSettings(ctx, "central", "grade1", "class1", model.DefaultSettingsDoc()))

	bus := eventbus.New()
	t.Cleanup(bus.Close)

	h := NewHandler(cfg, schedule.NewResolver(nil, infralogger.NopLogger{}), bus, infralogger.NopLogger{})
	mux := http.NewServeMux()
	h.Register(mux, auth.NewGuard(auth.Conf{Token: testToken}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, cfg: cfg, bus: bus}
}

// shortWeek builds a seven-day schedule whose days hold a single period.
func shortWeek() model.ScheduleDoc {
	doc := model.DefaultScheduleDoc()
	for i := range doc.DailyClass {
		doc.DailyClass[i].ClassList = []model.Rotation{{"M"}}
	}
	return doc
}

func (e *testEnv) do(t *testing.T, method, path, body string, authed bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if authed {
		req.SetBasicAuth(auth.Username, testToken)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestSubjectsRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPut, "/web/config/central/grade1/subjects",
		`{"model":{"abbr":[{"text":"M"},{"text":"P"}],"fullName":[{"text":"Math"},{"text":"Physics"}]}}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/web/config/central/grade1/subjects", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Abbr     []struct{ Text string } `json:"abbr"`
		FullName []struct{ Text string } `json:"fullName"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Abbr, 2)
	assert.Equal(t, "M", body.Abbr[0].Text)
	assert.Equal(t, "Math", body.FullName[0].Text)

	resp = e.do(t, http.MethodGet, "/web/config/central/grade1/subjects/options", "", false)
	var opts struct {
		Options []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"options"`
	}
	decode(t, resp, &opts)
	require.Len(t, opts.Options, 2)
	assert.Equal(t, "M（Math）", opts.Options[0].Label)
}

func TestSubjectsPutRequiresAuth(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPut, "/web/config/central/grade1/subjects",
		`{"model":{"abbr":[{"text":"M"}],"fullName":[{"text":"Math"}]}}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTimetableOptionsCarryNeedCounts(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/web/config/central/grade1/timetable/options", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Options []struct {
			Value string `json:"value"`
			Need  int    `json:"need"`
		} `json:"options"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Options, 2)
	needs := map[string]int{}
	for _, o := range body.Options {
		needs[o.Value] = o.Need
	}
	assert.Equal(t, 1, needs["short"])
	assert.Equal(t, 3, needs["workday"])
}

func TestScheduleGetPadsToTallestBellSchedule(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/web/config/central/grade1/class1/schedule", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc model.ScheduleDoc
	decode(t, resp, &doc)
	require.Len(t, doc.DailyClass, 7)
	for _, day := range doc.DailyClass {
		assert.Len(t, day.ClassList, 3)
		assert.Equal(t, model.PlaceholderSubject, day.ClassList[2].Pick(0))
	}
}

func TestSchedulePutRepairsAndNotifies(t *testing.T) {
	e := newTestEnv(t)
	sub := e.bus.Subscribe()

	doc := shortWeek()
	for i := range doc.DailyClass {
		doc.DailyClass[i].Timetable = "workday"
	}
	payload, err := json.Marshal(map[string]any{"model": doc})
	require.NoError(t, err)

	resp := e.do(t, http.MethodPut, "/web/config/central/grade1/class1/schedule", string(payload), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := e.cfg.Schedule(context.Background(), "central", "grade1", "class1")
	require.NoError(t, err)
	for _, day := range stored.DailyClass {
		assert.Len(t, day.ClassList, 3, "days must be padded to the bell schedule")
	}

	select {
	case ev := <-sub:
		changed, ok := ev.(events.ConfigChanged)
		require.True(t, ok)
		assert.Equal(t, "central", changed.Institution)
		assert.Equal(t, "grade1", changed.Grade)
	case <-time.After(time.Second):
		t.Fatal("no config change event")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPut, "/web/config/central/grade1/class1/settings",
		`{"countdown_target":"2026-06-07","week_display":true,"banner_text":"考试加油","css_style":{}}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/web/config/central/grade1/class1/settings", "", false)
	var doc model.SettingsDoc
	decode(t, resp, &doc)
	assert.Equal(t, "2026-06-07", doc.CountdownTarget)
	assert.True(t, doc.WeekDisplay)
}

func TestMenuAndStructure(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/web/menu", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var menu struct {
		Data []struct {
			Text string `json:"text"`
			Key  string `json:"key"`
		} `json:"data"`
	}
	decode(t, resp, &menu)
	require.GreaterOrEqual(t, len(menu.Data), 3)
	assert.Equal(t, "go-back-home", menu.Data[0].Key)
	assert.Equal(t, "school-central", menu.Data[2].Key)

	resp = e.do(t, http.MethodGet, "/web/structure", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tree []struct {
		Text     string `json:"text"`
		Children []struct {
			Text     string `json:"text"`
			Children []struct {
				Text string `json:"text"`
			} `json:"children"`
		} `json:"children"`
	}
	decode(t, resp, &tree)
	require.Len(t, tree, 1)
	assert.Equal(t, "central", tree[0].Text)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "class1", tree[0].Children[0].Children[0].Text)
}

func TestMissingDocumentIs404(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/web/config/unknown/grade9/subjects", "", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
